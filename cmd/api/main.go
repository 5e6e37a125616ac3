package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "spot_explorer/internal/adapters/http_server"
	"spot_explorer/internal/adapters/observability"
	"spot_explorer/internal/adapters/places"
	redisad "spot_explorer/internal/adapters/redis"
	"spot_explorer/internal/adapters/wiki"
	"spot_explorer/internal/app"
	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
	mysqlrepo "spot_explorer/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; requests will skip the cache")
	}

	// remote sources
	wc, err := wiki.New(cfg.Wiki)
	if err != nil {
		log.Fatal().Err(err).Msg("wiki client")
	}
	var pc domain.PlacesClient
	if cfg.Places.APIKey != "" {
		c, err := places.New(cfg.Places, wc)
		if err != nil {
			log.Fatal().Err(err).Msg("places client")
		}
		pc = c
	}

	// deps
	repo := mysqlrepo.New(db)
	agg := app.NewAggregator(wc, wc, wc)
	q := app.NewQueryService(agg, wc, cache, cfg.CacheTTL, cfg.ProfileTimeout)
	nearby := app.NewNearbyService(pc, repo, cache, cfg.NearbyCacheTTL)

	// http
	srv := server.New(cfg.ProfileTimeout + 15*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Nearby: nearby, Q: q})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Bool("places", pc != nil).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	_ = cache.Close()
	_ = db.Close()
}
