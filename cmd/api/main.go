package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "island_catalog/internal/adapters/http_server"
	"island_catalog/internal/adapters/observability"
	redisad "island_catalog/internal/adapters/redis"
	"island_catalog/internal/adapters/tourapi"
	"island_catalog/internal/app"
	"island_catalog/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	api := tourapi.New(cfg.APIBase, cfg.APIKey, cfg.APIRPS)
	catalog := app.New(api, cache, cfg.CDNHost, cfg.PackagesPath, app.TTLPolicy{
		Short:  int(cfg.TTLShort.Seconds()),
		Medium: int(cfg.TTLMedium.Seconds()),
		Long:   int(cfg.TTLLong.Seconds()),
	})

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{C: catalog})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	// let in-flight preloads land in the cache before exiting
	if err := catalog.Preloader().Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("preloads still running at exit")
	}
	log.Info().Msg("bye")
}
