package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithyan-b-raj/Anonchat/internal/chat"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository"
	"go.uber.org/multierr"
)

type Option func(*Server)

// WithOnShutdown registers a hook that runs after the listener stops
// accepting connections, e.g. closing the store.
func WithOnShutdown(fn func() error) Option {
	return func(s *Server) {
		s.onShutdown = append(s.onShutdown, fn)
	}
}

type Server struct {
	router     *http.ServeMux
	onShutdown []func() error
}

func NewServer(hub *chat.Hub, store repository.Store, historyLimit int, opts ...Option) *Server {
	s := &Server{
		router: http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	h := NewHandler(hub, store, historyLimit)
	s.setupRoutes(h)

	return s
}

func (s *Server) setupRoutes(h *Handler) {
	s.router.HandleFunc("/ws", h.handleWS)

	s.router.HandleFunc("GET /api/messages", h.handleListMessages)
	s.router.HandleFunc("GET /api/users/active", h.handleActiveUsers)
	s.router.HandleFunc("GET /healthz", h.handleHealth)

	fileServer := http.FileServer(http.Dir("./web"))
	s.router.Handle("/", http.StripPrefix("/", fileServer))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			return
		}
	}()
	slog.Info("Server is running", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit

	ctx, shutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdown()

	err := server.Shutdown(ctx)
	for _, fn := range s.onShutdown {
		err = multierr.Append(err, fn())
	}

	slog.Info("Server exited")
	return err
}
