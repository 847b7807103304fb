// Package server assembles the credential store and runs its HTTP and gRPC
// endpoints until the process is signalled to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/users"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	issuer      *auth.Issuer
	metrics     *metrics.Metrics
}

// NewApp builds the application, logging to stdout.
func NewApp(c *config.Config) (*App, error) {
	return newApp(c, os.Stdout)
}

func newApp(c *config.Config, logOut io.Writer) (*App, error) {

	logger := logging.New(c.LogFormat, c.LogLevel, logOut)
	m := metrics.New()

	hasher, err := auth.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	issuer, err := auth.NewIssuer(c.SecretKey, c.TokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	us, err := users.NewService(users.NewInMemoryRepository(), metrics.InstrumentHasher(hasher, m), issuer)
	if err != nil {
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)

	return &App{config: c, logger: logger, userService: us, issuer: issuer, metrics: m}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.config.ShutdownTimeout, app.logger, app.userService, app.issuer, app.metrics)
	return s.Run(ctx)
}

func (app *App) startHTTPServer(ctx context.Context) error {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.config.ShutdownTimeout, app.logger, app.userService, app.issuer, app.metrics)
	return s.Run(ctx)
}

// Run starts every configured endpoint and blocks until ctx is cancelled, a
// termination signal arrives or one endpoint fails. A failing endpoint stops
// the others. The returned error joins the endpoint failures.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	if app.config.EndpointAddrGRPC != "" {
		start("grpc", app.startGRPCServer)
	}
	if app.config.EndpointAddrHTTP != "" {
		start("http", app.startHTTPServer)
	}

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")

	return errors.Join(errs...)
}
