// Package cleanup は孤児になったデータの自動回収ジョブを提供する。
// 日記エントリの削除時に添付行は即時には消さないため、どのエントリからも
// 参照されない添付画像を日次バッチで回収する。あわせて、解除に失敗して
// 残った通知トリガーの登録ハンドルの解除を再試行する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// OrphanDeleter は孤児添付画像の削除インターフェース。
type OrphanDeleter interface {
	// DeleteOrphans はどのエントリからも参照されていない添付画像を削除し、削除件数を返す。
	DeleteOrphans(ctx context.Context) (int64, error)
}

// DanglingReaper は解除待ちの通知トリガー登録を回収するインターフェース。
// nilの場合は回収をスキップする。
type DanglingReaper interface {
	// ReapDangling は解除待ちの登録ハンドルの解除を再試行し、回収件数を返す。
	ReapDangling(ctx context.Context) (int, error)
}

// OrphanMetrics は削除件数のメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type OrphanMetrics interface {
	RecordOrphansDeleted(count int64)
}

// CleanupJob は孤児データの自動回収ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な処理を保証する。
type CleanupJob struct {
	attachments OrphanDeleter
	reaper      DanglingReaper
	metrics     OrphanMetrics
	logger      *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(attachments OrphanDeleter, reaper DanglingReaper, metrics OrphanMetrics, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		attachments: attachments,
		reaper:      reaper,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run は孤児添付画像の削除と解除待ちトリガーの回収を実行する。
// 冪等: 対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.attachments.DeleteOrphans(ctx)
	if err != nil {
		j.logger.Error("添付画像クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("添付画像クリーンアップの実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordOrphansDeleted(deletedCount)
	}

	reapedCount := 0
	if j.reaper != nil {
		reapedCount, err = j.reaper.ReapDangling(ctx)
		if err != nil {
			j.logger.Error("解除待ちトリガーの回収に失敗しました",
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("解除待ちトリガーの回収に失敗: %w", err)
		}
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("reaped_count", reapedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔でジョブを繰り返し実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
