package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"avatarbooth/internal/http/handlers"
	"avatarbooth/internal/http/httpapi"
	"avatarbooth/internal/infra"
	"avatarbooth/internal/providers/lightx"
	"avatarbooth/internal/session"
	"avatarbooth/internal/workflow"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	client := lightx.NewClient(lightx.Options{
		BaseURL:        cfg.LightXBaseURL,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         &logger,
	})
	runner := workflow.NewRunner(workflow.Options{
		API:          client,
		Logger:       &logger,
		PollAttempts: cfg.PollAttempts,
		PollInterval: cfg.PollInterval,
	})

	app := handlers.NewApp(cfg, logger, runner, session.NewStore())
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("avatarbooth listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
