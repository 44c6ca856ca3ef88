// Command bot runs the movie-channel service: the Telegram webhook server,
// the publication scheduler, and the read-only ops API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/dmoran/go-movie-channel/internal/bot"
	"github.com/dmoran/go-movie-channel/internal/config"
	"github.com/dmoran/go-movie-channel/internal/httpapi"
	"github.com/dmoran/go-movie-channel/internal/observability"
	"github.com/dmoran/go-movie-channel/internal/repo"
	"github.com/dmoran/go-movie-channel/internal/scheduler"
	"github.com/dmoran/go-movie-channel/internal/services"
	"github.com/dmoran/go-movie-channel/internal/sysutil"
	"github.com/dmoran/go-movie-channel/internal/telegram"
	"github.com/dmoran/go-movie-channel/internal/tmdb"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		sysutil.SetupConsoleWriter()
	}
	log.Info().Str("version", version).Msg("starting movie-channel bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Gateways.
	messenger := telegram.NewClient(cfg.Telegram, log.Logger)
	metadata := tmdb.NewClient(cfg.TMDB, log.Logger)

	// Services.
	catalog := services.NewCatalogService(db, repo.GormMovieRepo{})
	requests := services.NewRequestService(db, repo.GormRequestRepo{})

	// Publication pipeline. The scheduler and the orchestrator reference
	// each other through their narrow contracts, so wire the scheduler
	// first and hand it to the orchestrator as its job queue.
	replacer := bot.NewReplacer(messenger, catalog, cfg.Telegram.ChannelID, log.Logger)
	sched := scheduler.New(cfg.Publish, nil, catalog, log.Logger)
	orch := bot.NewOrchestrator(cfg.Telegram, messenger, metadata, catalog, requests, sched, replacer, log.Logger)
	sched.Publisher = orch

	go sched.Run(ctx)
	orch.SyncPendingGauge(ctx)
	orch.AnnounceStartup(ctx)

	router := httpapi.NewRouter(cfg, httpapi.Deps{
		DB:           db,
		Orchestrator: orch,
		Catalog:      catalog,
		Requests:     requests,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("bye")
}
