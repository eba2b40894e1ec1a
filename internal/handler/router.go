package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aylin/gunluk/internal/chat"
	"github.com/aylin/gunluk/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusObserver    middleware.StatusObserver

	// 公開ベースURL（添付画像URLの生成用）
	BaseURL string

	// ドメインサービス
	JournalService  JournalServiceInterface
	MoodService     MoodServiceInterface
	ReminderService ReminderServiceInterface
	EntryLister     EntryListerInterface
	ChatService     chat.AssistantService
	ChatMetrics     ChatMetrics

	// 監視
	MetricsHandler http.Handler
	HealthCheck    func() error
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusObserver))

	journalHandler := NewJournalHandler(deps.JournalService, deps.BaseURL)
	moodHandler := NewMoodHandler(deps.MoodService)
	reminderHandler := NewReminderHandler(deps.ReminderService)
	sentimentHandler := NewSentimentHandler(deps.EntryLister)

	// --- 監視ルート（レート制限の外） ---

	r.Get("/health", newHealthHandler(deps.HealthCheck))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// 日記エントリ
		r.Route("/api/journal", func(r chi.Router) {
			r.Post("/", journalHandler.CreateJournal)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", journalHandler.GetJournal)
				r.Get("/image", journalHandler.GetJournalImage)
			})
		})
		r.Route("/api/journalpage", func(r chi.Router) {
			r.Get("/", journalHandler.ListJournal)
			r.Delete("/{id}", journalHandler.DeleteJournal)
		})

		// 気分記録
		r.Post("/api/mood", moodHandler.CreateMood)
		r.Get("/api/moods", moodHandler.ListMoods)

		// リマインダー
		r.Route("/api/reminders", func(r chi.Router) {
			r.Post("/", reminderHandler.CreateReminder)
			r.Get("/", reminderHandler.ListReminders)
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", reminderHandler.UpdateReminder)
				r.Delete("/", reminderHandler.DeleteReminder)
			})
		})

		// 感情集計
		r.Get("/api/sentiment", sentimentHandler.GetSentimentSeries)
		r.Get("/api/sentiment/weekly", sentimentHandler.GetWeeklyPattern)

		// チャットアシスタント（専用レート制限を追加）
		if deps.ChatService != nil {
			chatHandler := NewChatHandler(deps.ChatService, deps.ChatMetrics)
			if deps.RateLimiter != nil {
				r.With(deps.RateLimiter.ChatMiddleware()).Post("/api/chat", chatHandler.Chat)
			} else {
				r.Post("/api/chat", chatHandler.Chat)
			}
		}
	})

	return r
}

// newHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// checkがnilの場合は常に200を返す。
func newHealthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
