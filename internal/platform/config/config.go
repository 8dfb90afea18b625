// Package config loads server configuration from defaults, an optional YAML
// file named by KEEPTRACK_CONFIG_PATH, and KEEPTRACK_* environment
// variables, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"keeptrack/pkg/activity/store/sqlstore"
	platformstrings "keeptrack/pkg/platform/strings"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Storage policies.
const (
	PolicyBestEffort = "best_effort"
	PolicyPropagate  = "propagate"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Activity ActivityConfig `yaml:"activity"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Render   RenderConfig   `yaml:"render"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ActivityConfig tunes the recorder.
type ActivityConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePolicy string `yaml:"storage_policy"`
	// AsyncBuffer > 0 queues appends in front of the primary store.
	AsyncBuffer int `yaml:"async_buffer"`
}

// StoreConfig selects the primary activity store.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
	Migrate bool   `yaml:"migrate"`
}

// RedisConfig enables the feed cache when URL is set.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	Prefix       string        `yaml:"prefix"`
	FeedLength   int           `yaml:"feed_length"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig enables the activity stream when Brokers is set.
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	ClientID          string   `yaml:"client_id"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
	// ConsumerGroup, when set, runs a projector feeding the stream into the
	// Redis feed cache.
	ConsumerGroup string `yaml:"consumer_group"`
}

// RenderConfig locates templates and locale catalogs.
type RenderConfig struct {
	TemplateDir   string `yaml:"template_dir"`
	Root          string `yaml:"root"`
	LayoutRoot    string `yaml:"layout_root"`
	LocaleDir     string `yaml:"locale_dir"`
	DefaultLocale string `yaml:"default_locale"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			JWTSigningKey:   "dev-secret-key-change-in-production",
			JWTIssuer:       "keeptrack",
			ShutdownTimeout: 10 * time.Second,
		},
		Activity: ActivityConfig{
			Enabled:       true,
			StoragePolicy: PolicyBestEffort,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Table:   sqlstore.DefaultTable,
			Migrate: true,
		},
		Redis: RedisConfig{
			Prefix:       "keeptrack",
			FeedLength:   1000,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:             "activities",
			ClientID:          "keeptrack",
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Render: RenderConfig{
			Root:          "activity_views",
			LayoutRoot:    "layouts",
			DefaultLocale: "en",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("KEEPTRACK_CONFIG_PATH"); ok && path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(lookup, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(lookup func(string) (string, bool), cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	str("KEEPTRACK_ADDR", &cfg.Server.Addr)
	str("KEEPTRACK_JWT_SIGNING_KEY", &cfg.Server.JWTSigningKey)
	str("KEEPTRACK_JWT_ISSUER", &cfg.Server.JWTIssuer)
	boolean("KEEPTRACK_ACTIVITY_ENABLED", &cfg.Activity.Enabled)
	str("KEEPTRACK_STORAGE_POLICY", &cfg.Activity.StoragePolicy)
	integer("KEEPTRACK_ASYNC_BUFFER", &cfg.Activity.AsyncBuffer)
	str("KEEPTRACK_STORE_BACKEND", &cfg.Store.Backend)
	str("KEEPTRACK_STORE_DSN", &cfg.Store.DSN)
	str("KEEPTRACK_STORE_TABLE", &cfg.Store.Table)
	boolean("KEEPTRACK_STORE_MIGRATE", &cfg.Store.Migrate)
	str("KEEPTRACK_REDIS_URL", &cfg.Redis.URL)
	str("KEEPTRACK_REDIS_PREFIX", &cfg.Redis.Prefix)
	integer("KEEPTRACK_REDIS_FEED_LENGTH", &cfg.Redis.FeedLength)
	if v, ok := lookup("KEEPTRACK_KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	str("KEEPTRACK_KAFKA_TOPIC", &cfg.Kafka.Topic)
	str("KEEPTRACK_KAFKA_CONSUMER_GROUP", &cfg.Kafka.ConsumerGroup)
	str("KEEPTRACK_TEMPLATE_DIR", &cfg.Render.TemplateDir)
	str("KEEPTRACK_TEMPLATE_ROOT", &cfg.Render.Root)
	str("KEEPTRACK_LAYOUT_ROOT", &cfg.Render.LayoutRoot)
	str("KEEPTRACK_LOCALE_DIR", &cfg.Render.LocaleDir)
	str("KEEPTRACK_DEFAULT_LOCALE", &cfg.Render.DefaultLocale)
	str("KEEPTRACK_LOG_LEVEL", &cfg.Log.Level)
	str("KEEPTRACK_LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(errs...)
}

// Validate rejects unusable combinations.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres, BackendSQLite:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store backend %s requires a dsn", c.Store.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if err := sqlstore.ValidateTable(c.Store.Table); err != nil {
		errs = append(errs, err)
	}
	switch c.Activity.StoragePolicy {
	case PolicyBestEffort, PolicyPropagate:
	default:
		errs = append(errs, fmt.Errorf("unknown storage policy %q", c.Activity.StoragePolicy))
	}
	if _, err := language.Parse(c.Render.DefaultLocale); err != nil {
		errs = append(errs, fmt.Errorf("invalid default locale: %w", err))
	}
	if c.Kafka.ConsumerGroup != "" && c.Redis.URL == "" {
		errs = append(errs, errors.New("kafka consumer group requires redis"))
	}
	if c.Server.JWTSigningKey == "" {
		errs = append(errs, errors.New("jwt signing key is required"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	return platformstrings.SplitList(v, ",")
}
