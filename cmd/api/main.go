package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/app"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("cms api stopped: %v", err)
	}
}

func run() error {
	// .env is optional; real deployments inject CMS_* variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return application.Run(ctx)
}
