package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/runlog/runlog/internal/cmd/client"
	serverrun "github.com/runlog/runlog/internal/cmd/server"
	cfgpkg "github.com/runlog/runlog/internal/config"
	"github.com/runlog/runlog/internal/runtime"
	runsvc "github.com/runlog/runlog/internal/services/runs"
	logpkg "github.com/runlog/runlog/pkg/log"
)

func main() {
	var configPath string
	var dataDir string

	rootCmd := &cobra.Command{
		Use:   "runlog",
		Short: "Runlog run store CLI",
		Long:  "Runlog is a durable event log and state store for long-running workflow runs. This CLI manages the server and run operations.",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("RUNLOG_CONFIG"), "Config file (JSON/JSONC or YAML)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")

	// loadConfig layers file, env, then flags; later layers win.
	loadConfig := func() (cfgpkg.Config, error) {
		cfg, err := cfgpkg.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfgpkg.FromEnv(&cfg)
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		return cfg, nil
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the runlog HTTP server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			httpAddr, _ := cmd.Flags().GetString("http")
			logLevel, _ := cmd.Flags().GetString("log-level")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.HTTPAddr = httpAddr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config)")
	serverStartCmd.Flags().String("log-level", os.Getenv("RUNLOG_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// store commands operate on the data directory directly
	openStore := func() (*runsvc.Service, func(), error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, nil, err
		}
		rt, err := runtime.Open(runtime.Options{
			Config: cfg,
			Logger: serverrun.NewProcessLogger(cfg.LogLevel),
		})
		if err != nil {
			return nil, nil, err
		}
		return runsvc.New(rt), func() { _ = rt.Close() }, nil
	}
	clientcmd.Register(rootCmd, openStore)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed usage errors; keep the exit path quiet but non-zero.
		logger := logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel))
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}
