package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"a11y-server/internal/config"
	"a11y-server/internal/util"
)

// securityHeaders wraps an HTTP handler to add security headers
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// JSON only: no resource loads, no framing
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Referrer policy - don't leak full URLs to external sites
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// newMux registers the routes.
func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", analyzeHandler)
	mux.HandleFunc("/roles", rolesHandler)
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metricsHandler())

	// Everything else 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		util.RespondNotFound(w, "not found")
	})
	return mux
}

func main() {
	cfg := config.GetServerConfig()
	appConfig = cfg
	InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := initTracing(cfg.TraceStdout)
	if err != nil {
		slog.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	if err := InitCaches(ctx, cfg); err != nil {
		slog.Error("cache setup failed", "error", err)
		os.Exit(1)
	}
	recordBuildInfo(cacheBackendType, cfg.ARIAVersion)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           RequestLoggingMiddleware(securityHeaders(newMux())),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port, "aria_version", cfg.ARIAVersion, "cache_backend", cacheBackendType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown", "error", err)
	}
	if err := reportCache.Close(); err != nil {
		slog.Warn("cache close", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("tracing shutdown", "error", err)
	}
}
