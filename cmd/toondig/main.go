package main

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/assets"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/engagement"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/history"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/httpapi"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/auth"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/config"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/db"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/events"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/httpserver"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/logging"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/natsconn"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/run"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/reconciler"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/relations"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	// Production refuses to run without real backends.
	var (
		catalogStore catalog.Store
		edgeStore    relations.EdgeStore
		engStore     engagement.Store
		userStore    users.Store
		historyRepo  history.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Error("db open", zap.Error(err))
			run.Exit(1)
		}
		defer pool.Close()
		catalogStore = catalog.NewPostgresStore(pool)
		edgeStore = relations.NewPostgresEdgeStore(pool)
		engStore = engagement.NewPostgresStore(pool)
		userStore = users.NewPostgresStore(pool)
		historyRepo = history.NewPostgresRepository(pool)
	} else {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			run.Exit(1)
		}
		log.Warn("no DATABASE_URL, using in-memory stores")
		catalogStore = catalog.NewInMemoryStore()
		edgeStore = relations.NewInMemoryEdgeStore()
		engStore = engagement.NewInMemoryStore()
		userStore = users.NewInMemoryStore()
		historyRepo = history.NewInMemoryRepository()
	}

	// Asset host client, with a local fake outside production.
	var assetStore assets.Store
	if cfg.AssetStore.BaseURL != "" {
		assetStore = assets.NewClient(cfg.AssetStore.BaseURL, cfg.AssetStore.APIKey)
	} else {
		if cfg.IsProduction() {
			log.Error("ASSET_STORE_URL is required in production")
			run.Exit(1)
		}
		log.Warn("no ASSET_STORE_URL, using in-memory asset store")
		assetStore = assets.NewInMemoryStore()
	}

	// Optional subtree cache.
	var cache *catalog.SubtreeCache
	if cfg.RedisURL != "" {
		cache, err = catalog.NewSubtreeCache(cfg.RedisURL, 5*time.Minute)
		if err != nil {
			log.Error("redis connect", zap.Error(err))
			run.Exit(1)
		}
	}

	// Optional event bus. A nil publisher is a no-op.
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			run.Exit(1)
		}
		defer nc.Close()
		js, err := nc.JetStream()
		if err != nil {
			log.Error("jetstream", zap.Error(err))
			run.Exit(1)
		}
		publisher = events.New(js, log)
	}

	dir := directory{users: userStore, catalog: catalogStore}
	stats := userStats{users: userStore}
	tokens := auth.TokenService{Secret: []byte(cfg.JWTSecret)}

	catalogMgr := catalog.NewManager(catalogStore, assetStore, cache, publisher, log)
	relationsSvc := relations.NewService(edgeStore, dir, stats, publisher, log)
	recomputer := engagement.NewRecomputer(engStore, catalogStore, cache)
	engagementSvc := engagement.NewService(engStore, recomputer, dir, stats, publisher, log)
	usersSvc := users.NewService(userStore, tokens, publisher, log)
	historySvc := history.NewService(historyRepo, publisher, log)

	rec := &reconciler.Reconciler{
		Catalog:    catalogStore,
		Engagement: engStore,
		Edges:      edgeStore,
		Users:      userStore,
		Interval:   cfg.ReconcileInterval,
		Log:        log,
	}

	router := chi.NewRouter()
	httpserver.SetupRouter(router)
	httpapi.Mount(router, httpapi.Deps{
		Catalog:      catalogMgr,
		CatalogStore: catalogStore,
		Relations:    relationsSvc,
		Engagement:   engagementSvc,
		Users:        usersSvc,
		History:      historySvc,
		Reconciler:   rec,
		Verifier:     auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)},
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Router: router})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			if err := rec.Run(ctx); err != nil {
				log.Error("reconciler stopped", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})
	run.Exit(code)
}
