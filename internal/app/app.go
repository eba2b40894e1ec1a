// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/aylin/gunluk/internal/chat"
	"github.com/aylin/gunluk/internal/config"
	"github.com/aylin/gunluk/internal/database"
	"github.com/aylin/gunluk/internal/handler"
	"github.com/aylin/gunluk/internal/journal"
	"github.com/aylin/gunluk/internal/logger"
	"github.com/aylin/gunluk/internal/metrics"
	"github.com/aylin/gunluk/internal/middleware"
	"github.com/aylin/gunluk/internal/mood"
	"github.com/aylin/gunluk/internal/notifier"
	"github.com/aylin/gunluk/internal/reminder"
	"github.com/aylin/gunluk/internal/repository"
	"github.com/aylin/gunluk/internal/security"
	"github.com/aylin/gunluk/internal/sentiment"
	"github.com/aylin/gunluk/internal/worker/cleanup"
	"github.com/aylin/gunluk/internal/worker/resync"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	journalRepo := repository.NewPostgresJournalRepo(db)
	attachmentRepo := repository.NewPostgresAttachmentRepo(db)
	moodRepo := repository.NewPostgresMoodRepo(db)
	reminderRepo := repository.NewPostgresReminderRepo(db)
	registrationRepo := repository.NewPostgresRegistrationRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 5. 外部サービスクライアントの初期化
	analyzer := sentiment.NewClient(
		&http.Client{Timeout: cfg.SentimentTimeout},
		slog.Default(), cfg.SentimentAPIURL, cfg.SentimentAPIKey,
	)
	notifierClient := notifier.NewClient(
		&http.Client{Timeout: cfg.NotifierTimeout},
		slog.Default(), cfg.NotifierURL,
	)

	// 6. ドメインサービスの初期化
	imageFetcher := journal.NewImageFetcher(ssrfGuard, cfg.MaxImageSize)
	journalService := journal.NewService(
		journalRepo, attachmentRepo, analyzer, imageFetcher,
		sanitizer, collector, slog.Default(),
	)
	moodService := mood.NewService(moodRepo, slog.Default())
	scheduler := reminder.NewScheduler(
		reminderRepo, registrationRepo, notifierClient,
		slog.Default(), collector,
	)

	// チャットはAPIキー未設定の場合は無効化する（他の機能には影響しない）
	var chatService chat.AssistantService
	if cfg.GeminiAPIKey != "" {
		svc, err := chat.NewService(context.Background(), cfg.GeminiAPIKey, cfg.ChatModel, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to init chat service: %w", err)
		}
		defer svc.Close()
		chatService = svc
	} else {
		slog.Warn("GEMINI_API_KEY is not set, chat assistant disabled")
	}

	// 7. レート制限の初期化（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitChat > 0 {
		rateLimiterCfg.ChatRate = rate.Limit(float64(cfg.RateLimitChat) / 60.0)
		rateLimiterCfg.ChatBurst = cfg.RateLimitChat
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 8. ルーターの構築
	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		StatusObserver:    collector,

		BaseURL: cfg.BaseURL,

		JournalService:  journalService,
		MoodService:     moodService,
		ReminderService: scheduler,
		EntryLister:     journalRepo,
		ChatService:     chatService,
		ChatMetrics:     collector,

		MetricsHandler: metrics.Handler(registry),
		HealthCheck:    db.Ping,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// トリガー登録の再同期スケジューラと孤児添付画像のクリーンアップを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	attachmentRepo := repository.NewPostgresAttachmentRepo(db)
	reminderRepo := repository.NewPostgresReminderRepo(db)
	registrationRepo := repository.NewPostgresRegistrationRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 再同期スケジューラの初期化
	notifierClient := notifier.NewClient(
		&http.Client{Timeout: cfg.NotifierTimeout},
		slog.Default(), cfg.NotifierURL,
	)
	triggerScheduler := reminder.NewScheduler(
		reminderRepo, registrationRepo, notifierClient,
		slog.Default(), collector,
	)
	resyncScheduler := resync.NewScheduler(
		reminderRepo, triggerScheduler, slog.Default(), cfg.ResyncMaxConcurrent,
	)

	// 5. クリーンアップジョブの初期化（孤児添付と解除待ちトリガーの回収）
	cleanupJob := cleanup.NewCleanupJob(attachmentRepo, triggerScheduler, collector, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("resync_interval", cfg.ResyncInterval),
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("max_concurrent", cfg.ResyncMaxConcurrent),
	)

	// クリーンアップジョブをバックグラウンドで実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}
		cleanupJob.Start(ctx, cfg.CleanupInterval)
	}()

	// 再同期スケジューラをメインgoroutineで実行（ブロッキング）
	resyncScheduler.Start(ctx, cfg.ResyncInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
