package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dictkv/dictkv/internal/config"
	"github.com/dictkv/dictkv/internal/persistence"
	"github.com/dictkv/dictkv/internal/server"
	"github.com/dictkv/dictkv/internal/stats"
	"github.com/dictkv/dictkv/internal/store"
)

var (
	flagConfig     string
	flagAddr       string
	flagDataDir    string
	flagBufferSize int
	flagBackend    string
	flagConcurrent bool
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "dictkv-server",
	Short:         "File-backed dictionary server speaking a line-oriented TCP protocol",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	rootCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "key directory (overrides config)")
	rootCmd.Flags().IntVar(&flagBufferSize, "buffer-size", 0, "frame buffer size in bytes (overrides config)")
	rootCmd.Flags().StringVar(&flagBackend, "backend", "", "store backend: file or memory (overrides config)")
	rootCmd.Flags().BoolVar(&flagConcurrent, "concurrent", false, "serve each connection on its own goroutine")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "logrus level (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("dictkv-server: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flagAddr != "" {
		cfg.ListenAddr = flagAddr
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagBufferSize > 0 {
		cfg.BufferSize = flagBufferSize
	}
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if cmd.Flags().Changed("concurrent") {
		cfg.Concurrent = flagConcurrent
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	var st store.Store
	var wlog *persistence.Log
	switch cfg.Backend {
	case config.BackendMemory:
		ms := store.NewMemStore()
		if cfg.WriteLog {
			wlog, err = persistence.OpenLog(cfg.DataDir, persistence.Options{Fsync: cfg.Fsync})
			if err != nil {
				return err
			}
			defer wlog.Close()
			if err := persistence.Replay(persistence.LogPath(cfg.DataDir), ms); err != nil {
				return err
			}
			logrus.Infof("replayed write log, %d keys live", ms.Len())
		}
		st = ms
	default:
		st, err = store.NewFileStore(cfg.DataDir, store.Options{AllowPathKeys: cfg.AllowPathKeys})
		if err != nil {
			return err
		}
	}

	metrics := stats.New()
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, metrics)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(cfg, st, wlog, metrics)
	return srv.ListenAndServe(ctx)
}

func serveMetrics(addr string, metrics *stats.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logrus.Infof("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		logrus.Warnf("metrics server: %v", err)
	}
}
