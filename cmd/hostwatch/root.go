package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/config"
	"github.com/sznuper/hostwatch/internal/logging"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "hostwatch",
	Short: "Host health monitor for cron",
	Long: `hostwatch samples CPU, disk, mounted storage, memory and local name
resolution, and sends one aggregated alert when any check fails.

Run it without arguments from cron. A healthy run prints nothing and exits 0;
any violation sends a single notification and exits 1.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: search ~/.config/hostwatch, /etc/hostwatch)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with NAS_EMAIL_USER / NAS_EMAIL_PASS")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "override log.file")
	registerThresholdFlags(rootCmd)
}

// session is the configuration and logger shared by one command invocation.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func (s *session) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

// openSession loads the dotenv file, resolves and validates the config with
// CLI overrides applied, and builds the logger. Configuration is read once
// here and passed down explicitly.
func openSession(cmd *cobra.Command) (*session, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, closer: closer}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, err
	}

	applyThresholdFlags(cmd, cfg)
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
		return nil
	}

	path := config.DefaultEnvFile()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func interactive() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
