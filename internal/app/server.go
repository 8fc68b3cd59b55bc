package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/api"
	"github.com/neonwave/radioboard/internal/config"
	"github.com/neonwave/radioboard/internal/gateway"
	"github.com/neonwave/radioboard/internal/push"
	"github.com/neonwave/radioboard/internal/store"
)

type Server struct {
	httpServer *http.Server
	Store      store.Store
	Hub        *push.Hub
	log        *zap.Logger
}

// NewServer loads config and wires store -> hub -> gateway -> routes.
func NewServer(log *zap.Logger) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	hub := push.NewHub(st, push.Options{
		ChatLimit:     cfg.History.ChatLimit,
		CommentLimit:  cfg.History.CommentLimit,
		SessionBuffer: cfg.Server.SessionBuffer,
	}, log)

	svc := gateway.NewService(st, hub, gateway.Options{
		ChatLimit:    cfg.History.ChatLimit,
		CommentLimit: cfg.History.CommentLimit,
	}, log)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: api.SetupRoutes(svc, hub),
		},
		Store: st,
		Hub:   hub,
		log:   log,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then drains gracefully.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.Store.Close()
}
