// Package main is the entry point for the citizen complaint portal.
// It serves the server-rendered pages citizens use to register, log in,
// file complaints with attachments and location, and browse what they
// have filed. Complaint data lives in the remote complaint service.
//
// Architecture:
//   - Each browser gets a session keyed by a signed cookie
//   - Drafts, list and detail state are held per session in memory
//   - The remote service is addressed on the page's own host unless
//     REMOTE_URL pins it
//   - A background probe tracks whether the remote service answers
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/config"
	"github.com/SUSHANT-M-GIT/SIH/internal/handlers"
	"github.com/SUSHANT-M-GIT/SIH/internal/middleware"
	"github.com/SUSHANT-M-GIT/SIH/internal/ratelimit"
	"github.com/SUSHANT-M-GIT/SIH/internal/repository"
	"github.com/SUSHANT-M-GIT/SIH/internal/services"
	"github.com/SUSHANT-M-GIT/SIH/internal/session"
)

type overrides struct {
	port      int
	remoteURL string
	env       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "portal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:          "portal",
		Short:        "Citizen complaint portal",
		Long:         `Serves the citizen complaint portal and relays complaints to the remote complaint service.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), o)
		},
	}
	cmd.PersistentFlags().IntVar(&o.port, "port", 0, "Port to listen on (overrides PORT)")
	cmd.PersistentFlags().StringVar(&o.remoteURL, "remote-url", "", "Complaint service URL (overrides REMOTE_URL)")
	cmd.PersistentFlags().StringVar(&o.env, "env", "", "Environment name (overrides ENVIRONMENT)")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the portal HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), o)
			},
		},
		newCheckCmd(&o),
	)
	return cmd
}

func newCheckCmd(o *overrides) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the complaint service once and report reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*o)
			if err != nil {
				return err
			}
			logger := zap.NewNop().Sugar()
			factory := repository.NewFactory(cfg.RemoteURL, cfg.RemotePort, &http.Client{Timeout: cfg.RemoteTimeout}, logger)
			res := services.NewRemoteProbe(factory.For(host), cfg.RemoteTimeout, logger).Check(cmd.Context())
			if !res.Reachable {
				return fmt.Errorf("%s unreachable: %s", factory.BaseURL(host), res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s reachable\n", factory.BaseURL(host))
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "localhost", "Page host the remote address is derived from")
	return cmd
}

func loadConfig(o overrides) (*config.Config, error) {
	if o.env != "" {
		os.Setenv("ENVIRONMENT", o.env)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.remoteURL != "" {
		cfg.RemoteURL = o.remoteURL
	}
	return cfg, cfg.Validate()
}

func serve(ctx context.Context, o overrides) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	// Initialize structured logger
	logger, _ := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting citizen complaint portal",
		"port", cfg.Port,
		"env", cfg.Environment,
		"remote_url", cfg.RemoteURL,
		"remote_port", cfg.RemotePort,
	)

	// Remote complaint service
	client := &http.Client{Timeout: cfg.RemoteTimeout}
	factory := repository.NewFactory(cfg.RemoteURL, cfg.RemotePort, client, sugar)
	geocoder := services.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, client, sugar)

	// Background workers
	probe := services.NewRemoteProbe(factory.For("localhost"), cfg.RemoteTimeout, sugar)
	go probe.Start(ctx, cfg.HealthProbeInterval)

	sessions := session.NewManager(cfg.SessionCookie, []byte(cfg.SessionSecret), cfg.SessionTTL, sugar)
	go sessions.Start(ctx, time.Minute)

	limiter, closeLimiter, err := newLimiter(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// Initialize handlers
	portal, err := handlers.NewPortal(func(host string) repository.ComplaintRepository {
		return factory.For(host)
	}, geocoder, cfg.MaxUploadBytes, sugar)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	sessions.OnExpire(portal.Forget)
	healthHandler := handlers.NewHealthHandler(probe, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(2 * cfg.RemoteTimeout))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RateLimit(limiter, sugar))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Session-bound data, for scripts sharing the browser's cookie
		r.Group(func(r chi.Router) {
			r.Use(middleware.Sessions(sessions))
			portal.MountAPI(r)
		})
	})

	// Pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(sessions))
		portal.Mount(r)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: 2*cfg.RemoteTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	sugar.Info("Server stopped")
	return nil
}

// newLimiter builds the configured rate limiter. In development an
// unreachable redis falls back to memory.
func newLimiter(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (ratelimit.Limiter, func(), error) {
	memory := ratelimit.NewMemory(cfg.RateLimitRPM, time.Minute)
	if cfg.RateLimitBackend != "redis" {
		return memory, func() {}, nil
	}

	client, err := ratelimit.Connect(ctx, cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return nil, nil, err
		}
		sugar.Warnw("Redis unavailable, using in-memory rate limiting", "error", err)
		return memory, func() {}, nil
	}
	sugar.Infow("Rate limiting through redis", "redis_url", cfg.RedisURL)
	return ratelimit.NewRedis(client, cfg.RateLimitRPM, time.Minute), func() { client.Close() }, nil
}
