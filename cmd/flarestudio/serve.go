package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flarestudio/internal/infrastructure/restapi"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  withApp(opts, runServe),
	}
}

func runServe(cmd *cobra.Command, _ []string, app *application) error {
	log := app.logger
	cfg := app.cfg

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Startup check only; a mismatch or failure is logged, not fatal.
	verifyCtx, cancelVerify := context.WithTimeout(ctx, cfg.PriceRequestTimeout())
	if check, err := app.epochs.VerifyEpochLength(verifyCtx); err != nil {
		log.Warn("Could not verify epoch length against FtsoManager", zap.Error(err))
	} else if check.Matches {
		log.Info("Epoch length matches on-chain configuration", zap.Uint64("seconds", check.OnChainSeconds))
	}
	cancelVerify()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := restapi.NewHandler(app.prices, app.epochs, app.binder, app.resolver, app.networks, app.prober, log)
	routerOpts := restapi.RouterOptions{}
	if cfg.Metrics.Enabled {
		routerOpts.MetricsHandler = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})
		routerOpts.MetricsPath = cfg.Metrics.Path
		log.Info("Prometheus metrics endpoint enabled", zap.String("path", cfg.Metrics.Path))
	}
	router := restapi.SetupRouter(handler, log, routerOpts)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("network", app.binder.ActiveNetwork().Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to start server", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("Server exiting")
	return nil
}
