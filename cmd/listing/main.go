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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/urfave/cli/v2"

	_ "github.com/sakanhub/listing/docs"
	"github.com/sakanhub/listing/internal/api"
	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/config"
	"github.com/sakanhub/listing/internal/geo"
	"github.com/sakanhub/listing/internal/loader"
	"github.com/sakanhub/listing/internal/logger"
	"github.com/sakanhub/listing/internal/middleware"
	"github.com/sakanhub/listing/internal/refdata"
	"github.com/sakanhub/listing/internal/sessionstore"
	"github.com/sakanhub/listing/internal/submit"
	"github.com/sakanhub/listing/internal/upload"
)

//	@title			Listing API
//	@version		1.0
//	@description	Property listing submission pipeline

func main() {
	// Missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "listing",
		Usage: "Property listing submission service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				EnvVars: []string{"PORT"},
			},
			&cli.StringFlag{
				Name:    "backend-url",
				Value:   config.DefaultBackendURL,
				Usage:   "Property backend API URL",
				EnvVars: []string{"BACKEND_URL"},
			},
			&cli.StringFlag{
				Name:    "backend-token",
				Usage:   "Bearer token for the property backend",
				EnvVars: []string{"BACKEND_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "geocoder-url",
				Value:   config.DefaultGeocoderURL,
				Usage:   "Geocoding service URL",
				EnvVars: []string{"GEOCODER_URL"},
			},
			&cli.StringFlag{
				Name:    "upload-origin",
				Value:   config.DefaultUploadOrigin,
				Usage:   "Origin prefix stripped from uploaded asset paths",
				EnvVars: []string{"UPLOAD_ORIGIN"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL URL for session autosave (empty disables it)",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "translations",
				Usage:   "TOML file with backend message translations",
				EnvVars: []string{"TRANSLATIONS_FILE"},
			},
			&cli.IntFlag{
				Name:    "rate-limit",
				Value:   config.DefaultRateLimit,
				Usage:   "Requests per minute per IP",
				EnvVars: []string{"RATE_LIMIT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx := c.Context
	port := c.String("port")

	client := backend.New(c.String("backend-url"), c.String("backend-token"))

	translator := backend.NewTranslator()
	if path := c.String("translations"); path != "" {
		if err := translator.LoadFile(path); err != nil {
			return fmt.Errorf("failed to load translations: %w", err)
		}
	}

	var store *sessionstore.Store
	if dbURL := c.String("database-url"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		defer pool.Close()

		if err := sessionstore.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		store, err = sessionstore.New(pool)
		if err != nil {
			return fmt.Errorf("failed to create session store: %w", err)
		}
		slog.Info("session autosave enabled")
	}

	ldr := loader.New(client, config.FallbackLatitude, config.FallbackLongitude)
	reference := refdata.New(client).Load(ctx)
	geocoder := geo.NewHTTPGeocoder(c.String("geocoder-url"))
	formatter := submit.NewFormatter(client, c.String("upload-origin"))
	orchestrator := submit.NewOrchestrator(client, formatter, translator)

	h, err := api.New(client, ldr, reference, geocoder, upload.MP4Prober{}, orchestrator, store, config.DefaultMapZoom, config.PlaceSelectZoom)
	if err != nil {
		return fmt.Errorf("failed to create API handler: %w", err)
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", api.Health)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	limiter, err := middleware.NewRateLimiter(c.Int("rate-limit"), []string{"/healthz", "/swagger/"})
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}
	defer limiter.Close()

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      limiter.Middleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
