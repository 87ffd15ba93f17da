package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"pressroom/internal/audit"
	authhandler "pressroom/internal/auth/handler"
	"pressroom/internal/auth/identity"
	authmw "pressroom/internal/auth/middleware"
	"pressroom/internal/auth/service"
	"pressroom/internal/auth/state"
	"pressroom/internal/auth/store/revocation"
	"pressroom/internal/content"
	"pressroom/internal/platform/config"
	"pressroom/internal/platform/httpserver"
	"pressroom/internal/platform/logger"
	"pressroom/internal/platform/metrics"
	platformredis "pressroom/internal/platform/redis"
	"pressroom/internal/profile"
	"pressroom/internal/ratelimit"
	httptransport "pressroom/internal/transport/http"
)

// main wires the dependencies and owns the server lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	health := map[string]func(context.Context) error{}

	var profiles profile.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(context.Background()); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		if _, err := db.ExecContext(context.Background(), profile.Schema); err != nil {
			log.Error("failed to ensure profiles schema", "error", err)
			os.Exit(1)
		}
		profiles = profile.NewPostgres(db)
		health["postgres"] = db.PingContext
	} else {
		log.Warn("PRESSROOM_DATABASE_URL not set; using in-memory profile store")
		profiles = profile.NewMemory()
	}

	var revoked revocation.Store
	rc, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rc != nil {
		defer rc.Close()
		revoked = revocation.NewRedis(rc.Client)
		health["redis"] = rc.Health
	} else {
		log.Warn("PRESSROOM_REDIS_URL not set; revocations will not survive restarts")
		revoked = revocation.NewMemory()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	idc := identity.New(cfg.Provider, log)
	resolver := service.NewResolver(profiles, revoked, cfg.ProfileTimeout, m, log)
	activity := audit.NewMemory(1024)
	activityWorker := audit.NewWorker(activity, log)

	bus := state.NewBus()
	gateway := authmw.NewGateway(idc, resolver, cfg.Routes, bus, m, log)
	bus.Subscribe(func(e state.Event) {
		log.Info("auth event", "type", string(e.Type), "subject", e.Subject)
		switch e.Type {
		case state.EventSignedIn:
			activityWorker.Record(audit.ActionSignedIn, e.Subject)
		case state.EventSignedOut:
			activityWorker.Record(audit.ActionSignedOut, e.Subject)
		case state.EventTokenRefreshed:
			activityWorker.Record(audit.ActionTokenRefreshed, e.Subject)
		}
	})

	var limiter ratelimit.Limiter
	if rc != nil {
		limiter = ratelimit.NewRedis(rc.Client, cfg.AuthRateLimit, cfg.AuthRateWindow)
	} else {
		limiter = ratelimit.NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	catalog := content.NewCatalog()
	seedCatalog(catalog)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Registry:     registry,
		Gateway:      gateway,
		Auth:         authhandler.New(idc, profiles, revoked, cfg.Routes, bus, m, log),
		Content:      content.New(catalog, log),
		Activity:     audit.NewHandler(activity, log),
		RateLimit:    ratelimit.NewMiddleware(limiter, log),
		HealthChecks: health,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := activityWorker.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting pressroom", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// seedCatalog gives the reading surface something to serve until real
// publishing tooling lands.
func seedCatalog(c *content.Catalog) {
	c.Put(&content.Article{
		Slug:        "welcome",
		Title:       "Welcome to Pressroom",
		Summary:     "What this site is and who writes it.",
		Body:        "Pressroom is our newsroom's publishing site.",
		PublishedAt: time.Now().AddDate(0, 0, -7),
	})
}
