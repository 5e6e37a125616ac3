package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"spot_explorer/internal/adapters/observability"
	"spot_explorer/internal/adapters/places"
	redisad "spot_explorer/internal/adapters/redis"
	"spot_explorer/internal/adapters/wiki"
	"spot_explorer/internal/app"
	"spot_explorer/internal/shared"
	mysqlrepo "spot_explorer/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("run_id", uuid.NewString()).Logger()

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	log.Info().
		Int("areas", len(cfg.PrefetchAreas)).
		Int("workers", cfg.Workers).
		Str("lang", cfg.PrefetchLanguage).
		Msg("prefetch starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	wc, err := wiki.New(cfg.Wiki)
	if err != nil {
		log.Fatal().Err(err).Msg("wiki client")
	}
	pc, err := places.New(cfg.Places, wc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	q := app.NewQueryService(app.NewAggregator(wc, wc, wc), wc, cache, cfg.CacheTTL, cfg.ProfileTimeout)
	ing := app.NewIngestionService(pc, repo, cache, q)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg            sync.WaitGroup
		spots, warmed atomic.Int64
		failedAreas   atomic.Int64
	)

	for _, area := range cfg.PrefetchAreas {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("prefetch interrupted")
			break
		}

		wg.Add(1)
		go func(a shared.Area) {
			defer wg.Done()
			defer sem.Release(1)

			l := log.With().Float64("lat", a.Lat).Float64("lng", a.Lng).Int("radius", a.RadiusMeters).Logger()
			found, err := ing.IngestArea(ctx, a, cfg.PrefetchLanguage)
			if err != nil {
				failedAreas.Add(1)
				l.Warn().Err(err).Msg("ingest failed")
				return
			}
			spots.Add(int64(len(found)))

			for _, sp := range found {
				p, err := ing.WarmProfile(ctx, sp, cfg.PrefetchLanguage)
				if err != nil {
					l.Warn().Err(err).Str("spot", sp.ID).Msg("warm profile failed")
					continue
				}
				if p.HasContent() {
					warmed.Add(1)
				}
			}
			l.Info().Int("spots", len(found)).Msg("area ok")
		}(area)
	}

	wg.Wait()
	log.Info().
		Int64("spots", spots.Load()).
		Int64("profiles", warmed.Load()).
		Int64("failed_areas", failedAreas.Load()).
		Msg("prefetch completed")
}
