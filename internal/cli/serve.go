package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/reservoir-charts/internal/adapter/http"
	"github.com/couchcryptid/reservoir-charts/internal/pipeline"
	"github.com/couchcryptid/reservoir-charts/internal/render"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts and tables over HTTP",
		Long: `Load the tables and serve:

  GET /charts/trend/{levels|rainfall}?format=svg
  GET /charts/compare/{RESERVOIR}?format=svg
  GET /tables and /tables/{levels|rainfall}
  GET /healthz, /readyz and /metrics`,
		Example: `  reservoir serve --http-addr :9090 --backend gochart --reload 5m`,
		RunE:    runServe,
	}
	cmd.Flags().String("http-addr", "", "listen address (default :8080)")
	cmd.Flags().Duration("shutdown-timeout", 0, "grace period for in-flight requests (default 10s)")
	cmd.Flags().Duration("reload", 0, "reload the tables at this interval (0 disables)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	cfg, logger := app.Config, app.Logger
	ctx := cmd.Context()

	catalog := pipeline.NewCatalog(app.Loader(), cfg.LevelsPath(), cfg.RainfallPath(), app.Clock, logger)
	if err := catalog.Load(ctx); err != nil {
		logger.Warn("dataset not loaded; readiness will fail until a reload succeeds", "error", err)
	}
	if interval, _ := cmd.Flags().GetDuration("reload"); interval > 0 {
		go catalog.Watch(ctx, interval)
	}

	charts := render.New(render.NewFigures(app.Metrics.FiguresOpen), app.Encoder(), nil, logger, app.Metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, catalog, charts, app.Registry, app.Metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := app.WriteMetrics(); err != nil {
		logger.Warn("metrics textfile not written", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
