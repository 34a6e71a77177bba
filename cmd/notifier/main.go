// Package main runs the outbox dispatcher as a standalone process, for
// deployments that separate notification delivery from request serving.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hirewire/hirewire/internal/notify"
	"github.com/hirewire/hirewire/internal/platform/config"
	"github.com/hirewire/hirewire/internal/platform/otel"
	"github.com/hirewire/hirewire/internal/storage/sqlite"
)

type notifierConfig struct {
	DBPath      string        `env:"HIREWIRE_DB_PATH" envDefault:"data/hirewire.db"`
	Spec        string        `env:"HIREWIRE_NOTIFY_SPEC" envDefault:"@every 30s"`
	MaxAttempts int           `env:"HIREWIRE_NOTIFY_MAX_ATTEMPTS" envDefault:"8"`
	Backoff     time.Duration `env:"HIREWIRE_NOTIFY_BACKOFF" envDefault:"1m"`
}

func main() {
	var cfg notifierConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}
	log.SetPrefix("[NOTIFIER] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "hirewire-notifier")
	if err != nil {
		config.Exitf("setup telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown telemetry: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	dispatcher := notify.NewDispatcher(store, notify.LogSender{}, notify.DispatcherOptions{
		Spec:        cfg.Spec,
		MaxAttempts: cfg.MaxAttempts,
		BaseBackoff: cfg.Backoff,
	})
	if err := dispatcher.Start(ctx); err != nil {
		config.Exitf("start dispatcher: %v", err)
	}

	log.Printf("notifier sweeping outbox (%s)", cfg.Spec)
	<-ctx.Done()
	dispatcher.Stop()
}
