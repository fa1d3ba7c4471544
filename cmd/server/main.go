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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/discograf/discograf/internal/api"
	"github.com/discograf/discograf/pkg/catalog"
	"github.com/discograf/discograf/pkg/catalog/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	runtime, err := cfg.BuildService(context.Background())
	if err != nil {
		slog.Error("Failed to build catalog service", "err", err)
		os.Exit(1)
	}
	defer runtime.Close()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: routes(runtime.Service, runtime.Broker, cfg),
	}

	go func() {
		slog.Info("Catalog server starting",
			"addr", httpServer.Addr,
			"database", cfg.Server.DatabaseType,
			"storage", cfg.Server.StorageBackend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func routes(svc catalog.Service, broker *catalog.Broker, cfg *config.Config) http.Handler {
	auth := api.AuthMiddlewares(cfg.Auth.JwtSecret)
	covers := api.NewCoversHandler(svc, cfg.Server.MaxUploadBytes, auth)
	albums := api.NewAlbumsHandler(svc, covers, auth)
	artists := api.NewArtistsHandler(svc, auth)
	regions := api.NewRegionsHandler(svc, auth)
	events := api.NewEventsHandler(broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})
	r.Get("/healthz/ready", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Mount("/albums", albums.Routes())
			r.Mount("/artists", artists.Routes())
			r.Mount("/regions", regions.Routes())
		})

		// The SSE stream stays open, so it sits outside the timeout
		// group.
		r.Mount("/events", events.Routes())
	})

	return r
}
