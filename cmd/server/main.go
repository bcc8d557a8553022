package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/repository"
	"backoffice/internal/router"
	"backoffice/internal/service"
	"backoffice/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	erpDB, err := infra.NewERPReplica(cfg.ERPReplicaURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ERP replica")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker handlers are wired here (composition root) so that the pool has
	// full access to all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	supabase := infra.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	cacheStore := infra.NewProductCacheStore(supabase)
	syncCB := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{})

	dispatcher := worker.NewDispatcher(rdb)
	tracker := worker.NewSyncTracker(rdb)

	propuestaRepo := repository.NewPropuestaRepository(db)
	erpProductoRepo := repository.NewErpProductoRepository(erpDB)
	syncSvc := service.NewSyncService(erpProductoRepo, cacheStore, syncCB, cfg)

	handlers := map[string]worker.Handler{
		worker.JobPropuestaEmail: worker.NewPropuestaEmailWorker(propuestaRepo, mailer, rdb, cfg.PDFStoragePath),
		worker.JobSyncProductos:  worker.NewSyncWorker(syncSvc, tracker),
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

	// Scheduled full sync, weekly by default
	worker.StartSyncCron(ctx, worker.SyncCronConfig{
		Dispatcher: dispatcher,
		Tracker:    tracker,
		CB:         syncCB,
		Interval:   time.Duration(cfg.SyncIntervalHours) * time.Hour,
	})

	r := router.New(cfg, router.Deps{
		DB:         db,
		ERPReplica: erpDB,
		RDB:        rdb,
		SyncCB:     syncCB,
		Dispatcher: dispatcher,
		Tracker:    tracker,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("backoffice backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
