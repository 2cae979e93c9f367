package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fxpulse/internal/api"
	"github.com/wonny/fxpulse/internal/api/handlers"
	"github.com/wonny/fxpulse/internal/scheduler"
	"github.com/wonny/fxpulse/internal/scheduler/jobs"
	"github.com/wonny/fxpulse/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server, scheduler and hub",
	Long: `Starts the HTTP API, the websocket hub and the refresh scheduler.

Endpoints:
  GET  /health                        - Health check
  GET  /metrics                       - Prometheus metrics
  GET  /ws?topics=...                 - Snapshot then live events
  GET  /api/instruments               - Instrument list
  GET  /api/signals                   - Active signals
  GET  /api/signals/{symbol}          - Active signal for one symbol
  GET  /api/notifications?limit=N     - Recent notifications
  POST /api/notifications/{id}/read   - Acknowledge a notification
  POST /api/refresh                   - Run one cycle now
  GET  /api/scheduler/jobs            - Scheduler job stats

Example:
  go run ./cmd/fxpulse serve
  go run ./cmd/fxpulse serve --port 9090 --schedule "@every 1m"`,
	RunE: runServe,
}

var (
	servePort       string
	serveSchedule   string
	serveWarmup     bool
	serveJobRetries int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (overrides PORT)")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "refresh schedule (overrides REFRESH_SCHEDULE)")
	serveCmd.Flags().BoolVar(&serveWarmup, "warmup", true, "run one cycle right after startup")
	serveCmd.Flags().IntVar(&serveJobRetries, "job-retries", 0, "retries for a refresh run that fails outright")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	if serveSchedule != "" {
		cfg.Pipeline.Schedule = serveSchedule
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port":     cfg.Port,
		"env":      cfg.Env,
		"storage":  cfg.Storage,
		"schedule": cfg.Pipeline.Schedule,
	}).Info("Initializing fxpulse")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire components and seed the hub
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 2. Scheduler
	sched := scheduler.New(log, scheduler.Options{MaxRetries: serveJobRetries})
	refresh := jobs.NewRefreshJob(a.runner, cfg.Pipeline.Schedule, log)
	if err := sched.AddJob(refresh); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if serveWarmup {
		if err := sched.RunJob(refresh.Name()); err != nil {
			return err
		}
	}

	// 3. HTTP
	deps := api.RouterDeps{
		Market:        handlers.NewMarketHandler(a.instruments, a.signals, log),
		Notifications: handlers.NewNotificationHandler(a.notifier, a.hub, log),
		Pipeline:      handlers.NewPipelineHandler(a.runner, sched, log),
		WS:            a.hub.ServeWS,
	}
	if a.metrics != nil {
		deps.Metrics = a.metrics.Handler()
	}
	server := api.New(cfg, log, api.NewRouter(deps, log))

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	fmt.Println("Press Ctrl+C to stop")

	// 4. Serve until interrupted
	if err := server.Run(ctx, 10*time.Second); err != nil {
		return err
	}

	log.Info("Server exited")
	return nil
}
