// shared/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BaseServer serves the bot's liveness and metrics endpoints.
type BaseServer struct {
	Router *mux.Router
	Server *http.Server
	logger *zap.SugaredLogger
}

func NewBaseServer(addr string, logger *zap.Logger) *BaseServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()
	router.Use(LoggingMiddleware(logger))

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &BaseServer{
		Router: router,
		Server: server,
		logger: logger.Sugar(),
	}
}

// RegisterHealthRoutes mounts GET / (liveness ping) and GET /metrics.
func (bs *BaseServer) RegisterHealthRoutes() {
	bs.Router.HandleFunc("/", HealthHandler).Methods(http.MethodGet, http.MethodHead)
	bs.Router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (bs *BaseServer) Start() error {
	bs.logger.Infow("Starting HTTP server", "addr", bs.Server.Addr)
	// ListenAndServe returns http.ErrServerClosed on graceful shutdown
	if err := bs.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

func (bs *BaseServer) Shutdown(ctx context.Context) error {
	bs.logger.Info("Shutting down HTTP server...")
	return bs.Server.Shutdown(ctx)
}

// HealthHandler answers the uptime ping.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
