package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/backend"
	"github.com/kailas-cloud/vidsearch/internal/config"
	"github.com/kailas-cloud/vidsearch/internal/domain"
	logpkg "github.com/kailas-cloud/vidsearch/internal/logger"
	"github.com/kailas-cloud/vidsearch/internal/version"
)

var (
	// cfg and store are shared by subcommands after PersistentPreRunE.
	cfg   *config.Config
	store *backend.Backend
	log   *zap.Logger

	env      string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:     "vidsearchctl",
	Short:   "Administer the vidsearch frame index",
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if env == "" {
			env = config.GetEnv()
		}

		c, err := config.Load(env)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = &c

		level := logLevel
		if level == "" {
			level = cfg.Logging.Level
		}
		log, err = logpkg.NewLogger(env, logpkg.Options{Level: level, Component: logpkg.ComponentCtl})
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		domain.KeyPrefix = cfg.Storage.KeyPrefix
		cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), log.With(zap.String("command", cmd.Name()))))

		store, err = backend.Open(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if store != nil {
			store.Close()
		}
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Config environment, selects config/<env>.yaml (default: $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")
}
