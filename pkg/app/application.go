package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gather/pkg/config"
	"gather/pkg/contracts"
	"gather/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const idempotencyHeader = "Idempotency-Key"

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.RateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	hooks            []shutdownHook
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp builds the server. health is mounted with minimal middleware; every
// other handler gets the full stack.
func (a *Application) SetApp(health contracts.Handler, handlers ...contracts.Handler) {
	a.setHealthHandler(health)
	a.setAppHandler(handlers...)
	a.setAppServer()
}

// OnShutdown registers fn to run after the HTTP server has stopped, in
// registration order.
func (a *Application) OnShutdown(name string, fn func(ctx context.Context) error) {
	a.hooks = append(a.hooks, shutdownHook{name: name, fn: fn})
}

func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(health contracts.Handler) {
	healthRouter := httprouter.New()
	health.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) newIdempotencyStore() middleware.IdempotencyStore {
	if a.cfg.LockBackend == config.LockBackendRedis && a.cfg.Client != nil && a.cfg.Client.Redis != nil {
		a.cfg.Log.Info("Idempotency keys stored in Redis")
		return middleware.NewRedisIdempotencyStore(a.cfg.Client.Redis, a.cfg.IdempotencyTTL, a.cfg.Log)
	}
	return middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
}

func (a *Application) setAppHandler(handlers ...contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = a.newIdempotencyStore()
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.ClientIPExtractor,
		a.cfg.Log,
	)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, idempotencyHeader)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.Principal(a.cfg.JWTSecret, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack",
		"operator_tokens", a.cfg.JWTSecret != "",
	)
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
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
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}
	a.cfg.Log.Info("Server stopped")

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, hook := range a.hooks {
		if err := hook.fn(ctx); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "hook", hook.name, "error", err)
		}
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Shutdown complete")
}
