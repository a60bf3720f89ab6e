package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"TrendPress/internal/api"
	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/infrastructure/images"
	"TrendPress/internal/infrastructure/llm"
	"TrendPress/internal/infrastructure/news"
	"TrendPress/internal/infrastructure/scheduler"
	"TrendPress/internal/infrastructure/simulated"
	"TrendPress/internal/infrastructure/storage"
	"TrendPress/internal/infrastructure/telegram"
	"TrendPress/internal/infrastructure/trends"
	"TrendPress/internal/infrastructure/wordpress"
	"TrendPress/internal/logging"
	"TrendPress/internal/ports"
	"TrendPress/internal/search"
	"TrendPress/internal/usecase"
	"TrendPress/pkg/httpclient"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	runner  *usecase.Runner
	store   *storage.FileStore
	history ports.OutcomeRepository
	db      *sql.DB
}

// New builds the application with the real adapters. Optional collaborators
// (images, outcome history, Telegram) are wired only when configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := search.NewRegistry()
	newsClient := httpclient.NewRestyClient(cfg.News.Timeout)
	registry.Register(news.NewNewsAPIStrategy(newsClient, cfg.News))
	registry.Register(news.NewGoogleNewsScraper(newsClient, cfg.News))

	var enricher news.Enricher
	if !cfg.News.SkipContent {
		enricher = news.NewContentFetcher(newsClient, cfg.News.UserAgent, baseLogger.With("component", "news.content"))
	}
	newsSource := news.NewStrategySource(registry, cfg.News.Strategies, enricher, baseLogger.With("component", "news"))

	publisher, err := wordpress.NewClient(cfg.WordPress, nil, baseLogger.With("component", "wordpress"))
	if err != nil {
		return nil, fmt.Errorf("wordpress: %w", err)
	}
	if !cfg.WordPress.Configured() {
		baseLogger.Warn("wordpress credentials missing, every publish will fail")
	}

	store := storage.NewFileStore(cfg.Output.Dir)

	deps := usecase.PipelineDeps{
		Trends:           trends.NewGoogleTrendsSource(cfg.Trends, nil, baseLogger.With("component", "trends")),
		News:             newsSource,
		Rewriter:         llm.NewChatGPTRewriter(httpclient.NewRestyClient(cfg.OpenAI.Timeout), cfg.OpenAI, cfg.WordPress.Categories),
		Publisher:        publisher,
		Store:            store,
		Logger:           baseLogger.With("component", "pipeline"),
		MaxTrends:        cfg.Trends.MaxTrends,
		MaxPerTrend:      cfg.News.MaxPerTrend,
		ItemDelay:        cfg.Pipeline.ItemDelay,
		TrendDelay:       cfg.Pipeline.TrendDelay,
		SaveArticles:     !cfg.Output.SkipArticles,
		CleanupPublished: !cfg.Output.KeepPublished,
	}

	if !cfg.Images.Disabled && cfg.OpenAI.APIKey != "" {
		deps.Images = images.NewGenerator(nil, cfg.Images, cfg.OpenAI.APIKey, cfg.Output.Dir, baseLogger.With("component", "images"))
	}

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		deps.Notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	application := &Application{cfg: cfg, logger: baseLogger, store: store}

	if cfg.Database.DSN != "" {
		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("outcome history disabled", "error", err)
		} else {
			repo := storage.NewPostgresRepository(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				baseLogger.Warn("outcome history disabled", "error", err)
				_ = db.Close()
			} else {
				deps.Repository = repo
				application.history = repo
				application.db = db
			}
		}
	}

	application.runner = usecase.NewRunner(usecase.NewPipeline(deps), baseLogger.With("component", "runner"))
	return application, nil
}

// NewSimulated runs the same pipeline against in-memory adapters, writing artifacts to outputDir.
func NewSimulated(cfg config.Config, baseLogger *slog.Logger, outputDir string, fx simulated.Fixture) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store := storage.NewFileStore(outputDir)
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Trends:       fx.Trends,
		News:         fx.News,
		Rewriter:     fx.Rewriter,
		Publisher:    fx.Publisher,
		Store:        store,
		Logger:       baseLogger.With("component", "pipeline", "mode", "simulated"),
		MaxTrends:    cfg.Trends.MaxTrends,
		MaxPerTrend:  cfg.News.MaxPerTrend,
		SaveArticles: !cfg.Output.SkipArticles,
	})

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		store:  store,
		runner: usecase.NewRunner(pipeline, baseLogger.With("component", "runner")),
	}
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (domain.RunSummary, error) {
	return a.runner.RunNow(ctx)
}

// Serve exposes the HTTP API and, when a schedule is set, runs the pipeline on cron until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.NewServer(ctx, a.runner, a.store, a.history, a.logger.With("component", "api")).RegisterRoutes(engine)

	var cron *usecase.Scheduler
	if expr := a.cfg.Scheduler.CronExpression; expr != "" {
		driver := scheduler.NewCronScheduler(expr, a.cfg.Scheduler.Location())
		cron = usecase.NewScheduler(driver, a.runner, a.logger.With("component", "scheduler"))
		if err := cron.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("pipeline scheduled", "cron", expr, "timezone", a.cfg.Scheduler.Location().String())
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("api shutdown", "error", err)
	}
	if cron != nil {
		if err := cron.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler shutdown", "error", err)
		}
	}
	a.runner.Wait()

	if serveErr != nil {
		return fmt.Errorf("api server: %w", serveErr)
	}
	return nil
}

// Close releases the database connection, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
