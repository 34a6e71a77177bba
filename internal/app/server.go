// Package app assembles the hirewire server: storage, services, HTTP API,
// and the notification dispatcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hirewire/hirewire/internal/api/httpapi"
	"github.com/hirewire/hirewire/internal/auth"
	"github.com/hirewire/hirewire/internal/notify"
	"github.com/hirewire/hirewire/internal/service"
	"github.com/hirewire/hirewire/internal/storage/sqlite"
)

// Config holds the server's runtime configuration.
type Config struct {
	HTTPAddr       string        `env:"HIREWIRE_HTTP_ADDR" envDefault:":8080"`
	DBPath         string        `env:"HIREWIRE_DB_PATH" envDefault:"data/hirewire.db"`
	NotifySpec     string        `env:"HIREWIRE_NOTIFY_SPEC" envDefault:"@every 30s"`
	NotifyAttempts int           `env:"HIREWIRE_NOTIFY_MAX_ATTEMPTS" envDefault:"8"`
	NotifyBackoff  time.Duration `env:"HIREWIRE_NOTIFY_BACKOFF" envDefault:"1m"`
}

// Server hosts the HTTP API and the outbox dispatcher over one store.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *sqlite.Store
	dispatcher *notify.Dispatcher
}

// New creates a configured server listening on the configured address.
func New(cfg Config) (*Server, error) {
	verifier, err := auth.LoadVerifierConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	identitySvc := service.NewIdentityService(store, store, store)
	api := httpapi.New(verifier, httpapi.Services{
		Identity:     identitySvc,
		Directory:    service.NewDirectoryService(store, store),
		Invitations:  service.NewInvitationService(store, store, store, store),
		Verification: service.NewVerificationService(store, store, store),
		Jobs:         service.NewJobService(store, identitySvc, store),
		Messaging:    service.NewMessagingService(store, store, store, store, store, identitySvc),
		Outreach:     service.NewOutreachService(store, store, store, identitySvc),
	})

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	dispatcher := notify.NewDispatcher(store, notify.LogSender{}, notify.DispatcherOptions{
		Spec:        cfg.NotifySpec,
		MaxAttempts: cfg.NotifyAttempts,
		BaseBackoff: cfg.NotifyBackoff,
	})

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: mux},
		store:      store,
		dispatcher: dispatcher,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server and dispatcher and blocks until the context
// ends or serving fails.
func (s *Server) Serve(ctx context.Context) error {
	defer s.closeStore()

	if err := s.dispatcher.Start(ctx); err != nil {
		return err
	}
	defer s.dispatcher.Stop()

	log.Printf("hirewire server listening at %v", s.listener.Addr())

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}
