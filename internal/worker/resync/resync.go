// Package resync はリマインダーのトリガー登録を外部通知サービスと
// 突き合わせて修復するバックグラウンドジョブを提供する。
// 有効なリマインダーに未登録の曜日が残っている場合（通知サービスの
// 一時障害による部分失敗など）、次のサイクルで再登録を試みる。
package resync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aylin/gunluk/internal/model"
	"github.com/aylin/gunluk/internal/repository"
)

// ReminderResyncer はリマインダー1件の再同期インターフェース。
type ReminderResyncer interface {
	// Resync は未登録の曜日のトリガーを再登録し、修復件数を返す。
	Resync(ctx context.Context, reminder *model.Reminder) (int, error)
}

// Scheduler は再同期ジョブのスケジューリングと並列制御を行う。
// 定期ティッカーで有効なリマインダーを取得し、
// semaphoreパターンで最大並列数を制御しながら再同期を実行する。
type Scheduler struct {
	reminderRepo   repository.ReminderRepository
	resyncer       ReminderResyncer
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewScheduler(
	reminderRepo repository.ReminderRepository,
	resyncer ReminderResyncer,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Scheduler{
		reminderRepo:   reminderRepo,
		resyncer:       resyncer,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("再同期スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("再同期サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("再同期スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("再同期サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は有効なリマインダーを1回取得し、並列で再同期を実行する。
// semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	reminders, err := s.reminderRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	if len(reminders) == 0 {
		s.logger.Debug("再同期対象のリマインダーはありません")
		return nil
	}

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	healed := 0

	for _, reminder := range reminders {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(r *model.Reminder) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			n, err := s.resyncer.Resync(ctx, r)
			if err != nil {
				s.logger.Error("リマインダーの再同期に失敗しました",
					slog.String("reminder_id", r.ID),
					slog.String("error", err.Error()),
				)
				return
			}
			if n > 0 {
				mu.Lock()
				healed += n
				mu.Unlock()
			}
		}(reminder)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("再同期サイクルが完了しました",
		slog.Int("reminder_count", len(reminders)),
		slog.Int("healed_registrations", healed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
