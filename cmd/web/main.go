package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rajsahu24/invitation-frontend/internal/config"
	"github.com/rajsahu24/invitation-frontend/internal/gateway"
	"github.com/rajsahu24/invitation-frontend/internal/handlers"
	"github.com/rajsahu24/invitation-frontend/internal/logging"
	"github.com/rajsahu24/invitation-frontend/internal/middleware"
	"github.com/rajsahu24/invitation-frontend/internal/preview"
	"github.com/rajsahu24/invitation-frontend/internal/proxy"
	"github.com/rajsahu24/invitation-frontend/internal/server"
	"github.com/rajsahu24/invitation-frontend/internal/session"
	"github.com/rajsahu24/invitation-frontend/internal/state"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "web",
	Short: "Invitely web BFF",
	Long: `web is the backend-for-frontend of the Invitely invitation product.

It serves the marketing site and host dashboard, bridges the HttpOnly
session cookie to the API gateway's bearer tokens, and relays live-preview
updates between the invitation editor and embedded template documents.`,
	Version: "0.1.0",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web BFF server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)

	gatewayClient := gateway.NewClient(cfg.Upstream.GatewayURL)
	cookies := session.NewManager(cfg.Cookie.Domain, cfg.Cookie.Secure)
	authHandler := handlers.NewAuthHandler(gatewayClient, cookies, log)
	gatewayProxy := proxy.New(cfg.Upstream.GatewayURL, log)

	// Snapshot store: Redis when configured, otherwise in-memory
	var snapshots state.Store
	if cfg.Redis.URL != "" {
		redisStore, err := state.NewRedisStore(cfg.Redis.URL, cfg.Preview.SnapshotTTL())
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory snapshot store", "error", err)
			snapshots = state.NewMemoryStore()
		} else {
			log.Info("connected to redis snapshot store")
			snapshots = redisStore
		}
	} else {
		snapshots = state.NewMemoryStore()
	}
	defer snapshots.Close()

	previewOrigins := cfg.Preview.AllowedOrigins
	if len(previewOrigins) == 0 && cfg.Upstream.TemplateURL != "" {
		previewOrigins = []string{cfg.Upstream.TemplateURL}
	}
	hub := preview.NewHub(snapshots, previewOrigins, log,
		preview.WithHubDebounce(cfg.Preview.Debounce()))

	// Cross-instance snapshot bridge (optional)
	var bridge *preview.Bridge
	if cfg.NATS.Enabled && cfg.NATS.URL != "" {
		bridge, err = preview.NewBridge(preview.BridgeConfig{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWaitDuration(),
		}, log)
		if err != nil {
			log.Warn("NATS unavailable, preview bridge disabled", "error", err)
		} else if err := bridge.Start(hub); err != nil {
			log.Warn("preview bridge start failed", "error", err)
		} else {
			hub.SetPublisher(bridge)
			defer func() {
				if err := bridge.Stop(); err != nil {
					log.Warn("preview bridge stop failed", "error", err)
				}
			}()
		}
	}

	mux := server.NewRouter(server.RouterConfig{
		AuthHandler: authHandler,
		Proxy:       gatewayProxy,
		PreviewHub:  hub,
		StaticDir:   cfg.StaticDir,
	})

	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:5173"}, // Vite dev server
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	securityConfig := middleware.SecurityConfig{
		CookieSecure:   cfg.Cookie.Secure,
		TemplateOrigin: cfg.Upstream.TemplateURL,
	}

	// Chain middleware: CORS -> security headers -> cross-origin protection -> routes
	handler := middleware.CORS(corsConfig)(mux)
	handler = middleware.SecurityHeaders(securityConfig)(handler)
	handler = middleware.CSRF()(handler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	log.Info("invitely web BFF starting",
		"port", cfg.Server.Port,
		"gateway", cfg.Upstream.GatewayURL,
		"template", cfg.Upstream.TemplateURL,
		"static_dir", cfg.StaticDir,
		"preview_bridge", bridge != nil,
	)

	return httpServer.ListenAndServe()
}
