package main

import (
	"os"
	"os/signal"
	"syscall"

	"cs2panel/internal/app"
	"cs2panel/internal/pkg/logger"
)

func main() {
	container, err := app.Build()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("startup failed")
	}

	if err := container.Manager.Startup(); err != nil {
		logger.Log.Fatal().Err(err).Msg("manager startup failed")
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Log.Info().Msg("shutting down")
		container.Manager.Shutdown()
		os.Exit(0)
	}()

	logger.Log.Info().Str("addr", container.Config.ListenAddr).Msg("api listening")
	if err := container.API.Start(container.Config.ListenAddr); err != nil {
		logger.Log.Fatal().Err(err).Msg("server error")
	}
}
