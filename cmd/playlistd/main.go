package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/playlist-platform/internal/cache"
	"github.com/example/playlist-platform/internal/handlers"
	"github.com/example/playlist-platform/internal/platform/analytics"
	"github.com/example/playlist-platform/internal/platform/auth"
	"github.com/example/playlist-platform/internal/platform/config"
	"github.com/example/playlist-platform/internal/platform/db"
	"github.com/example/playlist-platform/internal/platform/httpserver"
	"github.com/example/playlist-platform/internal/platform/logging"
	"github.com/example/playlist-platform/internal/platform/natsconn"
	"github.com/example/playlist-platform/internal/platform/run"
	"github.com/example/playlist-platform/internal/store"
	"github.com/example/playlist-platform/internal/trends"
)

// main only translates realMain's code into a process exit so the deferred
// cleanups (pool close, NATS drain) have already run by the time we exit.
func main() {
	run.Exit(realMain())
}

func realMain() int {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	pool, err := db.Open(context.Background())
	if err != nil {
		log.Error("open database", zap.Error(err))
		return 1
	}
	defer pool.Close()

	mem := cache.NewMemory(cfg.Cache.DefaultTTL)
	prefs := cache.NewPrefs(cfg.Cache.PrefsPath, cfg.Cache.PrefsTTL, log)
	st := store.New(store.NewPostgresRepo(pool), mem, cfg.OwnerID, log)

	// Analytics is optional: no NATS_URL means a no-op publisher.
	var ap *analytics.Publisher
	if cfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL})
		if err != nil {
			log.Error("connect nats", zap.Error(err))
			return 1
		}
		defer nc.Close()
		js, err := nc.JetStream()
		if err != nil {
			log.Error("init jetstream", zap.Error(err))
			return 1
		}
		ap = analytics.New(js, log)

		sub, err := cache.SubscribeInvalidation(nc, cache.DefaultInvalidationSubject, mem, log)
		if err != nil {
			log.Warn("cache invalidation subscribe failed", zap.Error(err))
		} else {
			defer func() { _ = sub.Drain() }()
		}
	}

	authState := auth.NewState()
	authState.Subscribe(func(_ string, signedIn bool) {
		if !signedIn {
			st.ResetLocal()
			prefs.Clear()
			log.Info("local caches cleared on sign-out")
		}
	})

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error { return pool.Ping(context.Background()) },
	})
	handlers.Routes(r, handlers.Deps{
		Store:     st,
		Trends:    trends.New(cfg.TrendWorkers),
		Analytics: ap,
		Verifier:  auth.JWTVerifier{Secret: cfg.Auth.JWTSecret},
		Credentials: auth.CredentialVerifier{
			User:   cfg.Auth.AdminUser,
			Hash:   cfg.Auth.AdminPasswordHash,
			Secret: cfg.Auth.JWTSecret,
		},
		AuthState: authState,
	})
	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	return code
}
