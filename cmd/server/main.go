package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scholarbridge/awards/internal/app/runtime"
	"github.com/scholarbridge/awards/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewDefault("server")

	app, err := runtime.NewApplication()
	if err != nil {
		log.WithError(err).Fatal("failed to initialise application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.WithError(err).Error("server exited with error")
	}

	if err := app.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
}
