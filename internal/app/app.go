package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/courseloom/courseloom-backend/internal/docstore"
	"github.com/courseloom/courseloom-backend/internal/observability"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/seed"
)

type App struct {
	Log      *logger.Logger
	Store    docstore.Store
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "courseloom",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	store, err := docstore.Open(context.Background(), docstore.Config{
		Driver:        cfg.DocstoreDriver,
		DSN:           cfg.DocstoreDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	}, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open docstore: %w", err)
	}

	clientset, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close(context.Background())
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(store, log)

	if cfg.SeedFile != "" {
		if err := seed.Apply(context.Background(), reposet.Course, reposet.Lecture, cfg.SeedFile, log); err != nil {
			_ = store.Close(context.Background())
			log.Sync()
			return nil, fmt.Errorf("apply seed file: %w", err)
		}
	}

	serviceset := wireServices(log, cfg, reposet, clientset)
	handlerset := wireHandlers(log, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		Store:        store,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clientset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	// Resume polling for lectures whose transcode was in flight at the
	// last shutdown.
	if a.Services.Transcode != nil {
		a.Services.Transcode.Start(ctx)
	}

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartVideoStatusCollector(ctx, a.Log, a.Store)
		if sqlStore, ok := a.Store.(interface{ DB() *gorm.DB }); ok {
			a.Metrics.StartPostgresCollector(ctx, a.Log, sqlStore.DB())
		}
		if a.Cfg.RedisAddr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)
		}
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	a.Clients.Close()
	if a.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.Store.Close(ctx); err != nil && a.Log != nil {
			a.Log.Warn("Docstore close failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
