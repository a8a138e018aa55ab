package app

import (
	"afribook/pkg/client"
	"afribook/pkg/config"
	"afribook/pkg/contracts"
	"afribook/pkg/middleware"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
)

// APIPrefix is where the sandbox mounts the bookings API, matching the
// /api suffix of the real API roots.
const APIPrefix = "/api"

// Application serves the sandbox API.
type Application struct {
	cfg         *config.Config
	server      *http.Server
	rateLimiter *middleware.RateLimiter
	handler     http.Handler
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(appHandler, healthHandler contracts.Handler) {
	healthRouter := httprouter.New()
	healthHandler.RegisterRoutes(healthRouter, "")

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)

	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter, APIPrefix)

	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.Sandbox.SignInLimit,
		a.cfg.Sandbox.SignInWindow,
		middleware.ClientIPFor(http.MethodPost, APIPrefix+client.PathSignIn),
		a.cfg.Log,
	)

	var appHTTPHandler http.Handler = appRouter
	appHTTPHandler = middleware.RequestTimeout(a.cfg.Sandbox.HandlerTimeout, a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.RateLimit(a.rateLimiter)(appHTTPHandler)
	appHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.MaxRequestSize(a.cfg.Sandbox.MaxRequestSize)(appHTTPHandler)
	appHTTPHandler = middleware.RequestLogging(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.Recovery(a.cfg.Log)(appHTTPHandler)
	a.cfg.Log.Info("Sandbox endpoints configured", "prefix", APIPrefix)

	mux := http.NewServeMux()
	mux.Handle("/health", healthHTTPHandler)
	mux.Handle("/ready", healthHTTPHandler)
	mux.Handle("/", appHTTPHandler)
	a.handler = mux

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Sandbox.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.Sandbox.ReadTimeout,
		WriteTimeout: a.cfg.Sandbox.WriteTimeout,
		IdleTimeout:  a.cfg.Sandbox.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Sandbox.Port)
}

// Handler exposes the full middleware stack, for in-process servers.
func (a *Application) Handler() http.Handler {
	return a.handler
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.Shutdown()
	}
}

func (a *Application) Shutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")
	a.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Sandbox.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
