package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"descant/internal/config"
	"descant/internal/daemon"
	"descant/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("descantd: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("descantd shutting down")
	return nil
}
