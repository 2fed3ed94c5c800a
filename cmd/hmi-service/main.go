package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"hmi-service/internal/config"
	"hmi-service/internal/core"
	"hmi-service/internal/dispatch"
	"hmi-service/internal/fsm"
	"hmi-service/internal/logger"
	"hmi-service/internal/messaging"
	"hmi-service/internal/metrics"
	"hmi-service/internal/status"
	"hmi-service/internal/types"
)

type options struct {
	modesPath    string
	registryPath string
	redisHost    string
	redisPort    int
	logLevel     int
	logFile      string
	metricsAddr  string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "hmi-service",
		Short:        "HMI coordinator for mode, launch and driving-mode selection",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.modesPath, "modes", "modules/dreamview/conf/hmi_modes", "Directory with one subdirectory per mode")
	flags.StringVarP(&opts.registryPath, "config", "c", "", "HMI registry YAML (maps, vehicles, commands)")
	flags.StringVar(&opts.redisHost, "redis-host", "127.0.0.1", "Redis host")
	flags.IntVar(&opts.redisPort, "redis-port", 6379, "Redis port")
	flags.IntVar(&opts.logLevel, "log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flags.StringVar(&opts.logFile, "log-file", "", "Also write logs to this file, rotated")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", ":9102", "Prometheus listen address, empty to disable")

	return cmd
}

func run(opts *options) error {
	var out io.Writer = os.Stdout
	if opts.logFile != "" {
		rotated := logger.RotatingFile(opts.logFile)
		defer rotated.Close()
		out = io.MultiWriter(os.Stdout, rotated)
	}
	l := logger.New(out, logger.LogLevel(opts.logLevel))

	l.Infof("Starting HMI service...")

	cfg, err := config.Load(opts.modesPath, opts.registryPath)
	if err != nil {
		return fmt.Errorf("failed to load HMI config: %w", err)
	}
	l.Infof("Loaded %d modes from %s", len(cfg.Modes), cfg.ModesPath)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if opts.metricsAddr != "" {
		srv := metrics.Serve(opts.metricsAddr, l.WithTag("metrics"))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker, err := fsm.NewChecker(ctx)
	if err != nil {
		return err
	}

	store := status.NewStore(types.Status{DrivingMode: types.DrivingModeManual})
	dispatcher := dispatch.NewDispatcher(cfg, store, dispatch.NewShellRunner(), l.WithTag("dispatch"))
	redis := messaging.NewRedisClient(opts.redisHost, opts.redisPort, l.WithTag("redis"))

	worker := core.NewHMIWorker(cfg, store, dispatcher, checker, redis, l)
	if err := worker.Start(); err != nil {
		return fmt.Errorf("failed to start HMI worker: %w", err)
	}

	l.Infof("HMI service started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	l.Infof("Received signal %v, shutting down...", sig)
	worker.Shutdown()
	l.Infof("Shutdown complete")
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
