// Package mood は1日1件の気分記録のドメインロジックを提供する。
package mood

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aylin/gunluk/internal/model"
	"github.com/aylin/gunluk/internal/repository"
)

// Service は気分記録の作成・一覧を提供する。
type Service struct {
	moodRepo repository.MoodRepository
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(moodRepo repository.MoodRepository, logger *slog.Logger) *Service {
	return &Service{
		moodRepo: moodRepo,
		logger:   logger,
	}
}

// Create は気分記録を作成する。
// 同一UTC暦日に既存の記録がある場合はDUPLICATE_MOODを返す。
func (s *Service) Create(ctx context.Context, mood model.Mood, date time.Time) (*model.MoodEntry, error) {
	if !model.IsValidMood(mood) {
		return nil, model.NewInvalidMoodError(string(mood))
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}

	exists, err := s.moodRepo.ExistsOnDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.NewDuplicateMoodError()
	}

	entry := &model.MoodEntry{
		ID:   uuid.New().String(),
		Mood: mood,
		Date: date,
	}
	if err := s.moodRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("気分を記録しました", "moodID", entry.ID, "mood", mood)
	return entry, nil
}

// List は全気分記録を日付の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.MoodEntry, error) {
	return s.moodRepo.ListByDateDesc(ctx)
}
