package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rajsahu24/invitation-frontend/internal/handlers"
	"github.com/rajsahu24/invitation-frontend/internal/middleware"
	"github.com/rajsahu24/invitation-frontend/internal/preview"
	"github.com/rajsahu24/invitation-frontend/internal/proxy"
)

// RouterConfig holds dependencies needed to configure routes
type RouterConfig struct {
	AuthHandler *handlers.AuthHandler
	Proxy       *proxy.Proxy
	PreviewHub  *preview.Hub
	StaticDir   string
}

// NewRouter constructs a ServeMux with the BFF routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Auth endpoints (these win over the generic proxy by specificity)
	mux.HandleFunc("POST /api/auth/login", cfg.AuthHandler.Login)
	mux.HandleFunc("GET /api/auth/google", cfg.AuthHandler.Google)
	mux.HandleFunc("POST /api/auth/session", cfg.AuthHandler.Session)
	mux.HandleFunc("GET /api/auth/me", cfg.AuthHandler.Me)
	mux.HandleFunc("POST /api/auth/logout", cfg.AuthHandler.Logout)

	// Everything else under /api/ goes to the gateway
	mux.Handle("/api/", cfg.Proxy.Handler())

	// Live preview channel
	if cfg.PreviewHub != nil {
		mux.Handle("GET /ws/preview/{invitation_id}", cfg.PreviewHub.Handler())
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","service":"web"}`)
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Host dashboard pages require a session; everything else is public
	spa := handlers.NewSPAHandler(cfg.StaticDir)
	mux.Handle("/host", handlers.RequireSession(spa))
	mux.Handle("/host/", handlers.RequireSession(spa))
	mux.Handle("/", spa)

	return middleware.RequestID(mux)
}
