package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment variables consulted after the config file.
const (
	EnvEmailUser = "NAS_EMAIL_USER"
	EnvEmailPass = "NAS_EMAIL_PASS"
	EnvNotifyURL = "HOSTWATCH_NOTIFY_URL"
)

// ErrNoRecipient is returned when neither an email address nor a notify URL
// is configured.
var ErrNoRecipient = errors.New(EnvEmailUser + " environment variable is not set")

// DefaultConfigPaths returns the search order for config files.
func DefaultConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hostwatch", "config.yaml"))
	}
	paths = append(paths, "/etc/hostwatch/config.yaml")
	return paths
}

// DefaultEnvFile is the dotenv file loaded when present and no --env-file is
// given.
func DefaultEnvFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hostwatch", "env")
}

// Resolve builds the run configuration: the explicit file, else the first
// default location that exists, else built-in defaults. Environment values
// fill blank fields, the hostname is filled from os.Hostname(), and the
// result is validated.
func Resolve(explicit string) (*Config, error) {
	path, err := findConfig(explicit)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	fillDefaults(cfg)
	ApplyEnv(cfg)

	if cfg.Hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolving hostname: %w", err)
		}
		cfg.Hostname = h
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills blank notification fields from the process environment.
func ApplyEnv(cfg *Config) {
	if cfg.Notify.URL == "" {
		cfg.Notify.URL = strings.TrimSpace(os.Getenv(EnvNotifyURL))
	}
	if cfg.Email.User == "" {
		cfg.Email.User = strings.TrimSpace(os.Getenv(EnvEmailUser))
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv(EnvEmailPass)
	}
	if cfg.Email.Sender == "" {
		cfg.Email.Sender = cfg.Email.User
	}
	if cfg.Email.Recipient == "" {
		cfg.Email.Recipient = cfg.Email.User
	}
}

// Validate checks that the configuration can drive a run.
func Validate(cfg *Config) error {
	if cfg.Notify.URL == "" && cfg.Email.Recipient == "" {
		return ErrNoRecipient
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Probes.CPUWindow <= 0 {
		return fmt.Errorf("invalid config: probes.cpu_window must be positive")
	}
	if cfg.Probes.ResolveTimeout <= 0 {
		return fmt.Errorf("invalid config: probes.resolve_timeout must be positive")
	}
	return nil
}

// fillDefaults restores defaults for fields a config file left at zero.
func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = d.Email.SMTPHost
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = d.Email.SMTPPort
	}
	if cfg.Thresholds.CPUPercent == 0 {
		cfg.Thresholds.CPUPercent = d.Thresholds.CPUPercent
	}
	if cfg.Probes.CPUWindow == 0 {
		cfg.Probes.CPUWindow = d.Probes.CPUWindow
	}
	if cfg.Probes.RootPath == "" {
		cfg.Probes.RootPath = d.Probes.RootPath
	}
	if cfg.Probes.StoragePath == "" {
		cfg.Probes.StoragePath = d.Probes.StoragePath
	}
	if cfg.Probes.ResolveHost == "" {
		cfg.Probes.ResolveHost = d.Probes.ResolveHost
	}
	if cfg.Probes.ResolveTimeout == 0 {
		cfg.Probes.ResolveTimeout = d.Probes.ResolveTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = d.Schedule.Cron
	}
}

// Locate returns the file Resolve would read, or "" when none exists and
// defaults apply.
func Locate(explicit string) (string, error) {
	return findConfig(explicit)
}

func findConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}
