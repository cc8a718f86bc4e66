package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "cafe_finder/internal/adapters/http_server"
	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/adapters/places"
	redisad "cafe_finder/internal/adapters/redis"
	"cafe_finder/internal/app"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, nil)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// upstream; a missing key keeps the proxy up and answers 500 "API Key missing"
	var upstream domain.PlacesClient
	if pc, err := places.New(cfg.PlacesBase, cfg.GoogleKey, cfg.PlacesRPS,
		places.WithRadius(cfg.SearchRadius), places.WithMaxWidth(cfg.PhotoMaxWidth)); err != nil {
		log.Warn().Err(err).Msg("places client disabled")
	} else {
		upstream = pc
	}

	// optional response cache
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
			_ = rc.Close()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
			cache = rc
			defer rc.Close()
		}
		cancel()
	}
	svc := app.NewPlacesService(upstream, cache, cfg.PlacesCacheTTL)

	// http
	srv := server.New(log.Logger)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Places: svc})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Bool("upstream", upstream != nil).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
