package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aylin/gunluk/internal/model"
	"github.com/aylin/gunluk/internal/repository"
	"github.com/aylin/gunluk/internal/security"
	"github.com/aylin/gunluk/internal/sentiment"
)

// maxTitleLength はタイトルの最大文字数。
const maxTitleLength = 200

// maxContentLength は本文の最大文字数。
const maxContentLength = 10000

// SentimentMetrics は感情分析呼び出しのメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type SentimentMetrics interface {
	ObserveAnalyze(duration time.Duration, success bool)
}

// Service は日記エントリの作成・取得・削除を提供する。
type Service struct {
	journalRepo    repository.JournalRepository
	attachmentRepo repository.AttachmentRepository
	analyzer       sentiment.Analyzer
	fetcher        ImageFetcherService
	sanitizer      security.ContentSanitizerService
	metrics        SentimentMetrics
	logger         *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	journalRepo repository.JournalRepository,
	attachmentRepo repository.AttachmentRepository,
	analyzer sentiment.Analyzer,
	fetcher ImageFetcherService,
	sanitizer security.ContentSanitizerService,
	metrics SentimentMetrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		journalRepo:    journalRepo,
		attachmentRepo: attachmentRepo,
		analyzer:       analyzer,
		fetcher:        fetcher,
		sanitizer:      sanitizer,
		metrics:        metrics,
		logger:         logger,
	}
}

// CreateInput は日記エントリ作成の入力。
// 画像はマルチパートで直接受け取る（ImageData/ImageMime）か、
// リモートURL（ImageURL）のどちらか一方を指定する。
type CreateInput struct {
	Title     string
	Content   string
	Date      time.Time
	ImageData []byte
	ImageMime string
	ImageURL  string
}

// Create は日記エントリを作成する。
// 感情分析は作成フローの必須依存であり、分析に失敗した場合は
// エントリを保存せずエラーを返す。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.JournalEntry, error) {
	title := s.sanitizer.Sanitize(in.Title)
	content := s.sanitizer.Sanitize(in.Content)

	if title == "" {
		return nil, model.NewValidationError("タイトルは必須です")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, model.NewValidationError("タイトルが長すぎます")
	}
	if content == "" {
		return nil, model.NewValidationError("本文は必須です")
	}
	if len([]rune(content)) > maxContentLength {
		return nil, model.NewValidationError("本文が長すぎます")
	}
	if len(in.ImageData) > 0 && in.ImageURL != "" {
		return nil, model.NewValidationError("画像の直接添付とURL指定は同時に使用できません")
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	// 添付画像の解決
	imageData := in.ImageData
	imageMime := extractMimeType(in.ImageMime)
	if in.ImageURL != "" {
		var err error
		imageData, imageMime, err = s.fetcher.FetchImage(ctx, in.ImageURL)
		if err != nil {
			return nil, err
		}
	} else if len(imageData) > 0 && !IsSupportedImageMime(imageMime) {
		return nil, model.NewUnsupportedImageError(imageMime)
	}

	// 感情分析（必須依存）
	start := time.Now()
	result, err := s.analyzer.Analyze(ctx, content)
	if s.metrics != nil {
		s.metrics.ObserveAnalyze(time.Since(start), err == nil)
	}
	if err != nil {
		s.logger.Error("感情分析に失敗したためエントリを保存しません", "error", err)
		return nil, model.NewSentimentFailedError(err.Error())
	}

	// 添付画像の保存（エントリ本体より先に保存し、外部キーを満たす）
	imageID := ""
	if len(imageData) > 0 {
		attachment := &model.JournalAttachment{
			ID:       uuid.New().String(),
			Data:     imageData,
			MimeType: imageMime,
		}
		if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
			return nil, err
		}
		imageID = attachment.ID
	}

	entry := &model.JournalEntry{
		ID:                 uuid.New().String(),
		Title:              title,
		Content:            content,
		Date:               date,
		ImageID:            imageID,
		SentimentScore:     result.Score,
		SentimentMagnitude: result.Magnitude,
		HasSentiment:       true,
	}
	if err := s.journalRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("日記エントリを作成しました",
		"entryID", entry.ID,
		"hasImage", imageID != "",
		"sentimentScore", result.Score)
	return entry, nil
}

// List は全エントリを日付の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.JournalEntry, error) {
	return s.journalRepo.ListByDateDesc(ctx)
}

// Get は指定IDのエントリを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.JournalEntry, error) {
	entry, err := s.journalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, model.NewEntryNotFoundError(id)
	}
	return entry, nil
}

// Delete は指定IDのエントリを削除する。
// 添付画像の行は即時には消さず、孤児掃除ワーカーが回収する。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.journalRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewEntryNotFoundError(id)
	}
	s.logger.Info("日記エントリを削除しました", "entryID", id)
	return nil
}

// GetImage は指定エントリの添付画像を返す。
func (s *Service) GetImage(ctx context.Context, entryID string) (*model.JournalAttachment, error) {
	entry, err := s.journalRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, model.NewEntryNotFoundError(entryID)
	}
	if entry.ImageID == "" {
		return nil, model.NewAttachmentNotFoundError(entryID)
	}
	attachment, err := s.attachmentRepo.FindByID(ctx, entry.ImageID)
	if err != nil {
		return nil, err
	}
	if attachment == nil {
		return nil, model.NewAttachmentNotFoundError(entryID)
	}
	return attachment, nil
}
