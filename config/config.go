package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Reservation ReservationConfig `yaml:"reservation"`
	Reconcile   ReconcileConfig   `yaml:"reconcile"`
	Seed        SeedConfig        `yaml:"seed"`
	Alerts      AlertsConfig      `yaml:"alerts"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                   int      `yaml:"port"`
	RateLimitPerSec        float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst         int      `yaml:"rate_limit_burst"`
	CORSAllowedOrigins     []string `yaml:"cors_allowed_origins"`
	ReadTimeoutSeconds     int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int      `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`

	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	ShutdownTimeout time.Duration `yaml:"-"`
}

// LogConfig selects the slog handler installed by main.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"` // silent, error, warn, info
}

// ReservationConfig bounds the reserve operation.
type ReservationConfig struct {
	TimeoutMs         int `yaml:"timeout_ms"`
	CommitTimeoutMs   int `yaml:"commit_timeout_ms"`
	RollbackAttempts  int `yaml:"rollback_attempts"`
	RollbackBackoffMs int `yaml:"rollback_backoff_ms"`

	Timeout         time.Duration `yaml:"-"`
	CommitTimeout   time.Duration `yaml:"-"`
	RollbackBackoff time.Duration `yaml:"-"`
}

// ReconcileConfig controls the background invariant repair job.
type ReconcileConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Schedule     string `yaml:"schedule"`
	GraceSeconds int    `yaml:"grace_seconds"`

	Grace time.Duration `yaml:"-"`
}

// SeedConfig describes the slots created by `parkingd seed` or at startup.
type SeedConfig struct {
	OnStartup    bool     `yaml:"on_startup"`
	Zones        []string `yaml:"zones"`
	SlotsPerZone int      `yaml:"slots_per_zone"`
	Labels       []string `yaml:"labels"` // explicit labels such as "A-01", in addition to the generated ones
}

// AlertsConfig holds the operator alert channels.
type AlertsConfig struct {
	WorkerPoolSize int         `yaml:"worker_pool_size"`
	QueueSize      int         `yaml:"queue_size"`
	Push           PushConfig  `yaml:"push"`
	Email          EmailConfig `yaml:"email"`
	SMS            SMSConfig   `yaml:"sms"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// EmailConfig configures SendGrid delivery.
type EmailConfig struct {
	APIKey    string   `yaml:"sendgrid_api_key"`
	FromEmail string   `yaml:"from_email"`
	FromName  string   `yaml:"from_name"`
	To        []string `yaml:"to"`
}

// SMSConfig configures Twilio delivery.
type SMSConfig struct {
	AccountSID string   `yaml:"account_sid"`
	AuthToken  string   `yaml:"auth_token"`
	From       string   `yaml:"from"`
	To         []string `yaml:"to"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values and derives the duration fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	cfg.Server.ReadTimeout = seconds(cfg.Server.ReadTimeoutSeconds, 5)
	cfg.Server.WriteTimeout = seconds(cfg.Server.WriteTimeoutSeconds, 10)
	cfg.Server.ShutdownTimeout = seconds(cfg.Server.ShutdownTimeoutSeconds, 5)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Reservation.TimeoutMs <= 0 {
		cfg.Reservation.TimeoutMs = 3000
	}
	if cfg.Reservation.CommitTimeoutMs <= 0 {
		cfg.Reservation.CommitTimeoutMs = 5000
	}
	if cfg.Reservation.RollbackAttempts <= 0 {
		cfg.Reservation.RollbackAttempts = 5
	}
	if cfg.Reservation.RollbackBackoffMs <= 0 {
		cfg.Reservation.RollbackBackoffMs = 100
	}
	cfg.Reservation.Timeout = time.Duration(cfg.Reservation.TimeoutMs) * time.Millisecond
	cfg.Reservation.CommitTimeout = time.Duration(cfg.Reservation.CommitTimeoutMs) * time.Millisecond
	cfg.Reservation.RollbackBackoff = time.Duration(cfg.Reservation.RollbackBackoffMs) * time.Millisecond

	if cfg.Reconcile.Schedule == "" {
		cfg.Reconcile.Schedule = "@every 1m"
	}
	cfg.Reconcile.Grace = seconds(cfg.Reconcile.GraceSeconds, 120)

	if len(cfg.Seed.Zones) == 0 {
		cfg.Seed.Zones = []string{"A", "B", "C", "D"}
	}

	if cfg.Alerts.WorkerPoolSize <= 0 {
		slog.Info("alerts.worker_pool_size is not set or invalid; defaulting to 1")
		cfg.Alerts.WorkerPoolSize = 1
	}
	if cfg.Alerts.QueueSize <= 0 {
		cfg.Alerts.QueueSize = 64
	}
	if cfg.Alerts.Push.TTL <= 0 {
		cfg.Alerts.Push.TTL = 3600
	}
	if cfg.Alerts.Email.FromName == "" {
		cfg.Alerts.Email.FromName = "Campus Parking"
	}
}

// Validate rejects configurations the service cannot run safely with.
func (cfg *Config) Validate() error {
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	// An in-flight reserve must finish before the reconciler may treat its slot as orphaned.
	inFlight := cfg.Reservation.Timeout + cfg.Reservation.CommitTimeout
	if cfg.Reconcile.Grace <= inFlight {
		return fmt.Errorf("reconcile.grace_seconds (%s) must exceed reservation timeout plus commit timeout (%s)",
			cfg.Reconcile.Grace, inFlight)
	}
	if cfg.Seed.SlotsPerZone < 0 {
		return errors.New("seed.slots_per_zone must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_DSN")
	setString(&cfg.Alerts.Push.PublicKey, "VAPID_PUBLIC_KEY")
	setString(&cfg.Alerts.Push.PrivateKey, "VAPID_PRIVATE_KEY")
	setString(&cfg.Alerts.Email.APIKey, "SENDGRID_API_KEY")
	setString(&cfg.Alerts.SMS.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&cfg.Alerts.SMS.AuthToken, "TWILIO_AUTH_TOKEN")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("ignoring invalid PORT", "value", v, "error", err)
			return
		}
		cfg.Server.Port = port
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
