package web_server_service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type PackCounter interface {
	CountPacks(ctx context.Context) (int64, error)
}

type SessionCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// WebServer exposes the health and usage endpoints of the bot.
type WebServer struct {
	packs    PackCounter
	sessions SessionCounter
	port     string
	logger   *slog.Logger
}

func NewWebServer(packs PackCounter, sessions SessionCounter, port string) *WebServer {
	return &WebServer{
		packs:    packs,
		sessions: sessions,
		port:     port,
		logger:   slog.Default().With("component", "web_server"),
	}
}

func (ws *WebServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", ws.handleHealthCheck)
	r.Get("/stats", ws.handleStats)
	return r
}

// Start serves until ctx is done, then shuts the server down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + ws.port,
		Handler:           ws.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ws.logger.Info("starting web server", "port", ws.port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (ws *WebServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type statsResponse struct {
	Packs          int64 `json:"packs"`
	ActiveSessions int64 `json:"active_sessions"`
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	packs, err := ws.packs.CountPacks(ctx)
	if err != nil {
		ws.sendError(w, r, "count packs", err)
		return
	}

	active, err := ws.sessions.CountActive(ctx)
	if err != nil {
		ws.sendError(w, r, "count sessions", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{Packs: packs, ActiveSessions: active})
}

func (ws *WebServer) sendError(w http.ResponseWriter, r *http.Request, what string, err error) {
	ws.logger.Error("stats request failed", "what", what, "request_id", middleware.GetReqID(r.Context()), "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
