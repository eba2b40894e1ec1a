package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type mockOrphanDeleter struct {
	deleted int64
	err     error
	calls   int
}

func (m *mockOrphanDeleter) DeleteOrphans(_ context.Context) (int64, error) {
	m.calls++
	return m.deleted, m.err
}

type mockDanglingReaper struct {
	reaped int
	err    error
	calls  int
}

func (m *mockDanglingReaper) ReapDangling(_ context.Context) (int, error) {
	m.calls++
	return m.reaped, m.err
}

type mockOrphanMetrics struct {
	recorded []int64
}

func (m *mockOrphanMetrics) RecordOrphansDeleted(count int64) {
	m.recorded = append(m.recorded, count)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// 孤児添付の削除件数がメトリクスに記録されることを検証
func TestCleanupJob_Run(t *testing.T) {
	deleter := &mockOrphanDeleter{deleted: 4}
	metrics := &mockOrphanMetrics{}
	job := NewCleanupJob(deleter, nil, metrics, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if deleter.calls != 1 {
		t.Errorf("DeleteOrphans calls = %d, want 1", deleter.calls)
	}
	if len(metrics.recorded) != 1 || metrics.recorded[0] != 4 {
		t.Errorf("recorded = %v, want [4]", metrics.recorded)
	}
}

// 孤児添付の削除に加えて解除待ちトリガーの回収が実行されることを検証
func TestCleanupJob_Run_ReapsDangling(t *testing.T) {
	deleter := &mockOrphanDeleter{}
	reaper := &mockDanglingReaper{reaped: 2}
	job := NewCleanupJob(deleter, reaper, nil, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reaper.calls != 1 {
		t.Errorf("ReapDangling calls = %d, want 1", reaper.calls)
	}
}

// 回収の失敗がラップされて返ることを検証
func TestCleanupJob_Run_ReaperError(t *testing.T) {
	job := NewCleanupJob(&mockOrphanDeleter{}, &mockDanglingReaper{err: errors.New("gateway down")}, nil, testLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error from reaper failure")
	}
}

// 削除対象ゼロ件でもエラーにならないことを検証（冪等性）
func TestCleanupJob_Run_NoOrphans(t *testing.T) {
	job := NewCleanupJob(&mockOrphanDeleter{deleted: 0}, &mockDanglingReaper{}, nil, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run failed: %v", err)
	}
}

// リポジトリのエラーがラップされて返ることを検証
func TestCleanupJob_Run_Error(t *testing.T) {
	job := NewCleanupJob(&mockOrphanDeleter{err: errors.New("db down")}, nil, nil, testLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

// コンテキストキャンセルでStartが停止することを検証
func TestCleanupJob_Start_StopsOnCancel(t *testing.T) {
	job := NewCleanupJob(&mockOrphanDeleter{}, nil, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop after context cancel")
	}
}
