package resync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aylin/gunluk/internal/model"
)

type mockReminderRepo struct {
	active  []*model.Reminder
	listErr error
}

func (m *mockReminderRepo) Create(_ context.Context, _ *model.Reminder) error { return nil }
func (m *mockReminderRepo) FindByID(_ context.Context, _ string) (*model.Reminder, error) {
	return nil, nil
}
func (m *mockReminderRepo) List(_ context.Context) ([]*model.Reminder, error) { return nil, nil }
func (m *mockReminderRepo) ListActive(_ context.Context) ([]*model.Reminder, error) {
	return m.active, m.listErr
}
func (m *mockReminderRepo) UpdateActive(_ context.Context, _ string, _ bool) (bool, error) {
	return true, nil
}
func (m *mockReminderRepo) Delete(_ context.Context, _ string) (bool, error) { return true, nil }

type mockResyncer struct {
	mu        sync.Mutex
	resynced  []string
	healed    map[string]int
	failIDs   map[string]bool
	delayEach time.Duration
}

func (m *mockResyncer) Resync(_ context.Context, r *model.Reminder) (int, error) {
	if m.delayEach > 0 {
		time.Sleep(m.delayEach)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resynced = append(m.resynced, r.ID)
	if m.failIDs[r.ID] {
		return 0, errors.New("notifier unavailable")
	}
	return m.healed[r.ID], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// 有効な全リマインダーが再同期されることを検証
func TestScheduler_RunOnce(t *testing.T) {
	repo := &mockReminderRepo{active: []*model.Reminder{
		{ID: "r1", Active: true},
		{ID: "r2", Active: true},
		{ID: "r3", Active: true},
	}}
	resyncer := &mockResyncer{healed: map[string]int{"r2": 1}}
	s := NewScheduler(repo, resyncer, testLogger(), 2)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(resyncer.resynced) != 3 {
		t.Errorf("resynced %d reminders, want 3", len(resyncer.resynced))
	}
}

// 1件の再同期失敗が他のリマインダーの処理を妨げないことを検証
func TestScheduler_RunOnce_PartialFailure(t *testing.T) {
	repo := &mockReminderRepo{active: []*model.Reminder{
		{ID: "r1", Active: true},
		{ID: "r2", Active: true},
	}}
	resyncer := &mockResyncer{failIDs: map[string]bool{"r1": true}}
	s := NewScheduler(repo, resyncer, testLogger(), 1)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce should not fail on per-reminder errors: %v", err)
	}
	if len(resyncer.resynced) != 2 {
		t.Errorf("resynced %d reminders, want 2", len(resyncer.resynced))
	}
}

// リポジトリのエラーがそのまま返ることを検証
func TestScheduler_RunOnce_ListError(t *testing.T) {
	repo := &mockReminderRepo{listErr: errors.New("db down")}
	s := NewScheduler(repo, &mockResyncer{}, testLogger(), 1)

	if err := s.RunOnce(context.Background()); err == nil {
		t.Error("expected error")
	}
}

// 対象ゼロ件でエラーにならないことを検証
func TestScheduler_RunOnce_NoActiveReminders(t *testing.T) {
	s := NewScheduler(&mockReminderRepo{}, &mockResyncer{}, testLogger(), 1)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Errorf("RunOnce failed: %v", err)
	}
}

// コンテキストキャンセルでStartが停止することを検証
func TestScheduler_Start_StopsOnCancel(t *testing.T) {
	s := NewScheduler(&mockReminderRepo{}, &mockResyncer{}, testLogger(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop after context cancel")
	}
}
