package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartwood-edu/heartwood/internal/content"
	"github.com/heartwood-edu/heartwood/internal/enrollment"
	"github.com/heartwood-edu/heartwood/internal/payment"
	"github.com/heartwood-edu/heartwood/internal/platform/cache"
	"github.com/heartwood-edu/heartwood/internal/platform/config"
	"github.com/heartwood-edu/heartwood/internal/platform/database"
	"github.com/heartwood-edu/heartwood/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// app wires the engine's collaborators. The database and cache are optional
// at startup: without them the server degrades to in-memory storage and an
// uncached content source, which keeps local development dependency-free.
type app struct {
	cfg     *config.Config
	db      *database.DB
	cache   *cache.Cache
	source  content.Source
	store   enrollment.Store
	hub     *realtime.Hub
	payment *payment.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, hub: realtime.NewHub()}

	fileSource, err := content.NewFileSource(cfg.Content.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	a.source = fileSource

	if db, err := database.New(ctx, cfg.Database); err != nil {
		slog.Warn("database unavailable, using in-memory enrollment store", "error", err)
		a.store = enrollment.NewMemoryStore()
	} else {
		a.db = db
		store, err := enrollment.NewPostgresStore(db.Pool)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.store = store
	}

	if c, err := cache.New(ctx, cfg.Cache.URL); err != nil {
		slog.Warn("cache unavailable, serving content uncached", "error", err)
	} else {
		a.cache = c
		a.source = content.NewCachedSource(fileSource, c.Client, cfg.Content.CacheTTL)
	}

	if cfg.Payment.Enabled {
		var opts []payment.Option
		if cfg.Payment.BaseURL != "" {
			opts = append(opts, payment.WithBaseURL(cfg.Payment.BaseURL))
		}
		a.payment = payment.NewClient(cfg.Payment.SecretKey, opts...)
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("cache close failed", "error", err)
		}
	}
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.HandleFunc("GET /ws/events", a.hub.ServeWS)
	if a.cfg.Payment.Enabled {
		mux.HandleFunc("POST /webhooks/payment", a.handlePaymentWebhook)
	}
	return mux
}

func (a *app) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if a.db != nil {
		if err := a.db.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"cache unavailable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
