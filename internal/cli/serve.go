package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brownie44l1/riceleaf-api/internal/app"
	"github.com/Brownie44l1/riceleaf-api/internal/handlers"
	"github.com/Brownie44l1/riceleaf-api/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inference API (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rt)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "", "Host to listen on (default 0.0.0.0)")
	flags.Int("port", 0, "Port to listen on (default 5000, or $PORT)")
	flags.String("public-dir", "", "Directory of static frontend files to serve at /")
	flags.Float64("confidence-threshold", 0, "Minimum confidence for a definite label (default 0.6)")
	flags.Int("cache-size", 0, "Number of results kept in the prediction cache, 0 disables")
	flags.Bool("archive", false, "Archive accepted uploads")

	return cmd
}

func runServe(ctx context.Context, rt *runtime) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := rt.logger

	a, err := app.New(rt.cfg, app.WithLogger(log), app.WithArchive())
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.NewServer(rt.cfg, log)
	if err != nil {
		return err
	}
	srv.SetupRoutes(handlers.NewHandler(a.Pipeline, a.Archiver(), a.Metrics, log,
		handlers.WithMaxUploadBytes(int64(rt.cfg.MaxUploadMB)<<20)), a.Metrics)

	log.Info("routes registered",
		zap.Strings("endpoints", []string{"GET /health", "GET /classes", "GET /metrics", "POST /predict"}),
		zap.Bool("model_loaded", a.ModelLoaded()),
		zap.Float64("confidence_threshold", rt.cfg.ConfidenceThreshold))

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return srv.Stop(context.Background())
	}
}
