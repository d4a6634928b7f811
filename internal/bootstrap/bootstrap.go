package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/docshelf/internal/config"
	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
	"github.com/kirillkom/docshelf/internal/core/usecase"
	"github.com/kirillkom/docshelf/internal/infrastructure/api/filesapi"
	pdfinspector "github.com/kirillkom/docshelf/internal/infrastructure/inspector/pdf"
	"github.com/kirillkom/docshelf/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docshelf/internal/infrastructure/repository/memory"
	"github.com/kirillkom/docshelf/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docshelf/internal/infrastructure/resilience"
	"github.com/kirillkom/docshelf/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docshelf/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.ClientMetrics

	API      *filesapi.Client
	Registry *usecase.Registry
	Search   *usecase.SearchView
	Viewer   *usecase.ViewerResolver
	Uploads  *usecase.UploadController
	Journal  ports.TransferJournal
	// Events is nil unless NATS_URL is set.
	Events *nats.EventBus

	closeFn func()
}

// UploadHooks are the presentation callbacks of the upload controller.
type UploadHooks struct {
	OnProgress func(usecase.TransferStats)
	OnComplete func(domain.UploadedFile)
}

func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger, hooks UploadHooks) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clientMetrics := metrics.NewClientMetrics(service)
	var closers []func()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.APIRetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.APIRetryInitialBackoffMS) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.APIRetryMaxBackoffMS) * time.Millisecond,
		BreakerEnabled:      cfg.APIBreakerEnabled,
	}, logger)

	api := filesapi.New(cfg.APIBaseURL, filesapi.Options{
		RequestTimeout: time.Duration(cfg.APIRequestTimeoutSeconds) * time.Second,
		Executor:       executor,
		Transport:      clientMetrics.Transport(nil),
		Logger:         logger,
	})

	pickerOpts := localfs.Options{AllowVideo: cfg.AllowVideoUploads}
	if cfg.PDFInspectEnabled {
		pickerOpts.Inspector = pdfinspector.NewInspector()
	}
	picker := localfs.NewPicker(pickerOpts)

	journal, closeJournal, err := openJournal(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeJournal != nil {
		closers = append(closers, closeJournal)
	}

	var (
		bus       *nats.EventBus
		publisher ports.EventPublisher
	)
	if strings.TrimSpace(cfg.NATSURL) != "" {
		bus, err = nats.New(cfg.NATSURL, cfg.NATSSubjectPrefix, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("init file events: %w", err)
		}
		publisher = bus
		closers = append(closers, bus.Close)
	}

	registry := usecase.NewRegistry(api, picker, publisher, logger)
	controllerCfg := usecase.UploadControllerConfig{
		CompleteDisplayDelay: time.Duration(cfg.UploadCompleteDelayMS) * time.Millisecond,
		OnProgress:           hooks.OnProgress,
		OnComplete:           hooks.OnComplete,
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  clientMetrics,
		API:      api,
		Registry: registry,
		Search:   usecase.NewSearchView(registry),
		Viewer:   usecase.NewViewerResolver(registry, api, ViewerStrategy(cfg.ViewerPlatform, cfg.ViewerProxyPrefix)),
		Uploads:  usecase.NewUploadController(registry, picker, journal, clientMetrics, logger, controllerCfg),
		Journal:  journal,
		Events:   bus,
		closeFn:  func() { closeAll(closers) },
	}
	return app, nil
}

// ViewerFor resolves PDFs for a platform other than the configured one.
func (a *App) ViewerFor(platform string) *usecase.ViewerResolver {
	if strings.TrimSpace(platform) == "" {
		return a.Viewer
	}
	return usecase.NewViewerResolver(a.Registry, a.API, ViewerStrategy(platform, a.Config.ViewerProxyPrefix))
}

// ViewerStrategy maps a platform name to its viewer; "proxy" forces the
// proxy viewer on any platform.
func ViewerStrategy(platform, proxyPrefix string) ports.ViewerStrategy {
	if strings.EqualFold(strings.TrimSpace(platform), "proxy") {
		return usecase.ProxyViewer{Prefix: proxyPrefix}
	}
	strategy := usecase.ViewerForPlatform(platform)
	if _, ok := strategy.(usecase.ProxyViewer); ok {
		return usecase.ProxyViewer{Prefix: proxyPrefix}
	}
	return strategy
}

func openJournal(ctx context.Context, cfg config.Config) (ports.TransferJournal, func(), error) {
	if strings.TrimSpace(cfg.JournalDSN) == "" {
		return memory.NewJournal(cfg.JournalMemoryMaxRecord), nil, nil
	}

	db, err := postgres.OpenDB(cfg.JournalDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal database: %w", err)
	}
	repo := postgres.NewJournalRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure journal schema: %w", err)
	}
	return repo, func() { _ = db.Close() }, nil
}

func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
