// Package main starts the hirewire server process lifecycle.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hirewire/hirewire/internal/app"
	"github.com/hirewire/hirewire/internal/platform/config"
	"github.com/hirewire/hirewire/internal/platform/otel"
)

func main() {
	var cfg app.Config
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}
	log.SetPrefix("[HIREWIRE] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "hirewire-server")
	if err != nil {
		config.Exitf("setup telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown telemetry: %v", err)
		}
	}()

	if err := app.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
