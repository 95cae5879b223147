package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/universe/internal/api"
	"github.com/wonny/universe/internal/api/handlers"
)

// serveCmd runs the API server with the scheduler
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the snapshot scheduler",
	Long: `Serves the latest snapshot over HTTP and runs the scheduled jobs.

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics
  GET  /api/universe            - Latest snapshot rows
  GET  /api/universe/dates      - Archived trading days
  GET  /api/universe/{date}     - Snapshot of one trading day
  GET  /api/version             - Latest version marker
  GET  /api/jobs                - Scheduler statistics
  POST /api/jobs/{name}/run     - Trigger a job

Example:
  go run ./cmd/universe serve
  go run ./cmd/universe serve --port 8080 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API port (default: PORT)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "serve without scheduled jobs")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	checks := map[string]handlers.Pinger{"redis": a.redis}
	var archive handlers.SnapshotArchive
	if a.repo != nil {
		archive = a.repo
		checks["postgres"] = a.db
	}

	h := api.Handlers{
		Health:   handlers.NewHealthHandler("universe", checks),
		Universe: handlers.NewUniverseHandler(a.store, archive, a.publisher.Cache(), a.log),
	}
	if a.cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}

	if !serveNoScheduler {
		sched, err := a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		h.Jobs = handlers.NewJobsHandler(sched, a.log)
		sched.Start()
		defer sched.Stop()
	}

	if a.cfg.MetricsEnabled && a.cfg.MetricsPort != "" && a.cfg.MetricsPort != a.cfg.Port {
		go serveMetrics(ctx, a)
	}

	server := api.New(":"+a.cfg.Port, api.NewRouter(h, a.log), a.log)

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s (Ctrl+C to stop)", a.cfg.Port))
	return server.Run(ctx, 30*time.Second)
}

// serveMetrics exposes /metrics on the dedicated monitoring port
func serveMetrics(ctx context.Context, a *app) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	srv := api.New(":"+a.cfg.MetricsPort, mux, a.log)
	if err := srv.Run(ctx, 5*time.Second); err != nil {
		a.log.WithError(err).Error("Metrics server stopped")
	}
}
