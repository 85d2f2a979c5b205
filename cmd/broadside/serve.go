package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cfoust/broadside/pkg/arena"
	"github.com/cfoust/broadside/pkg/config"
	"github.com/cfoust/broadside/pkg/grid"
	"github.com/cfoust/broadside/pkg/ingress"
	"github.com/cfoust/broadside/pkg/ratings"
	"github.com/cfoust/broadside/pkg/watchdog"

	"github.com/rs/zerolog/log"
)

func openStore(ctx context.Context, settings config.RatingsSettings) (ratings.Store, error) {
	switch settings.Backend {
	case config.RatingsBackendSQLite:
		return ratings.NewSQLStore(settings.DBPath)
	case config.RatingsBackendRedis:
		return ratings.NewRedisStore(
			ctx,
			settings.Redis.Address,
			settings.Redis.Password,
			settings.Redis.DB,
		)
	}

	return ratings.NewMemoryStore(), nil
}

func serveCommand(configs []string) error {
	config, err := config.Process(configs)
	if err != nil {
		return fmt.Errorf("failed to load broadside configuration: %w", err)
	}

	serverConfig := config.Server
	matchSettings := serverConfig.Match

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, serverConfig.Ratings)
	if err != nil {
		return fmt.Errorf("failed to open ratings store: %w", err)
	}
	defer store.Close()

	log.Info().Msgf("keeping ratings in %s store", serverConfig.Ratings.Backend)

	ratingService := ratings.NewService(store)

	stalls := watchdog.New(
		log.With().Str("component", "watchdog").Logger(),
		matchSettings.StallWarning.Duration,
	)
	go stalls.Run(ctx)

	battleground := arena.New(
		matchSettings.MatchConfig(),
		grid.NewRandomPlacer(matchSettings.Fleet),
		stalls,
	)

	go ratingService.PollResults(ctx, battleground.Results)

	newConnections := make(chan ingress.Connection)
	manager := ingress.NewManager(newConnections)

	tcpConfig := serverConfig.Ingress.TCP
	tcpIngress := ingress.NewTCPIngress(manager, tcpConfig.RateLimit, tcpConfig.Burst)
	err = tcpIngress.Serve(tcpConfig.Address())
	if err != nil {
		return err
	}

	go tcpIngress.Poll(ctx)
	go battleground.Poll(ctx, newConnections)

	errc := make(chan error, 1)

	var httpServer *http.Server
	webConfig := serverConfig.Ingress.Web
	if webConfig.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/ws/", ingress.NewWSIngress(manager))
		mux.Handle("/api/", NoStore(NewAPI(ratingService, manager)))

		httpServer = &http.Server{
			Addr:    fmt.Sprintf("0.0.0.0:%d", webConfig.Port),
			Handler: mux,
		}

		go func() {
			log.Info().Msgf("listening on http %s", httpServer.Addr)
			errc <- httpServer.ListenAndServe()
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("failed to serve")
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	}

	cancel()
	tcpIngress.Shutdown()

	if httpServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		httpServer.Shutdown(shutdownCtx)
	}

	return nil
}
