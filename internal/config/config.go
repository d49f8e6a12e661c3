package config

import (
	"fmt"
	"os"
	"time"

	"github.com/a8m/envsubst"
	"github.com/goccy/go-yaml"
)

type Config struct {
	Hostname   string     `yaml:"hostname"`
	Email      Email      `yaml:"email"`
	Notify     Notify     `yaml:"notify"`
	Thresholds Thresholds `yaml:"thresholds"`
	Probes     Probes     `yaml:"probes"`
	Template   Template   `yaml:"template"`
	Log        Log        `yaml:"log"`
	Schedule   Schedule   `yaml:"schedule"`
}

// Email configures the built-in SMTP delivery. Recipient and sender default
// to User, so a single address mails itself.
type Email struct {
	User      string `yaml:"user" validate:"omitempty,email"`
	Password  string `yaml:"password"`
	Sender    string `yaml:"sender" validate:"omitempty,email"`
	Recipient string `yaml:"recipient" validate:"omitempty,email"`
	SMTPHost  string `yaml:"smtp_host" validate:"required,hostname_rfc1123"`
	SMTPPort  int    `yaml:"smtp_port" validate:"min=1,max=65535"`
}

// Notify delegates delivery to any shoutrrr service URL. When URL is set the
// Email block is ignored.
type Notify struct {
	URL    string            `yaml:"url"`
	Params map[string]string `yaml:"params"`
}

// Thresholds holds the numeric limits every probe compares against. Field
// yaml tags double as CLI flag names.
type Thresholds struct {
	CPUPercent            float64 `yaml:"cpu_percent" validate:"gt=0,lte=100"`
	DiskMinFreePercent    float64 `yaml:"disk_min_free_percent" validate:"gte=0,lte=100"`
	StorageMinFreePercent float64 `yaml:"storage_min_free_percent" validate:"gte=0,lte=100"`
	MemoryMinMB           float64 `yaml:"memory_min_mb" validate:"gte=0"`
}

type Probes struct {
	CPUWindow      Duration `yaml:"cpu_window"`
	RootPath       string   `yaml:"root_path" validate:"required"`
	StoragePath    string   `yaml:"storage_path" validate:"required"`
	ResolveHost    string   `yaml:"resolve_host" validate:"required"`
	ResolveStrict  bool     `yaml:"resolve_strict"`
	ResolveExpect  string   `yaml:"resolve_expect" validate:"omitempty,ip"`
	ResolveTimeout Duration `yaml:"resolve_timeout"`
}

// Template overrides the alert subject and body. Empty fields fall back to
// the built-in templates.
type Template struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type Log struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `yaml:"compress"`
}

// Schedule is only consulted by the built-in scheduler.
type Schedule struct {
	Cron string `yaml:"cron"`
}

// Duration accepts Go duration strings such as "1s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return fmt.Errorf("duration: must be a string like 1s or 500ms")
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("duration %q: %w", str, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is present.
func Default() *Config {
	storage := "nas_storage"
	if home, err := os.UserHomeDir(); err == nil {
		storage = home + "/nas_storage"
	}

	return &Config{
		Email: Email{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 465,
		},
		Thresholds: Thresholds{
			CPUPercent:            80,
			DiskMinFreePercent:    20,
			StorageMinFreePercent: 10,
			MemoryMinMB:           100,
		},
		Probes: Probes{
			CPUWindow:      Duration(time.Second),
			RootPath:       "/",
			StoragePath:    storage,
			ResolveHost:    "localhost",
			ResolveTimeout: Duration(5 * time.Second),
		},
		Log: Log{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Schedule: Schedule{Cron: "*/15 * * * *"},
	}
}

// Load reads a YAML file over the defaults, expanding ${VAR} references
// first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}
