// Package config provides configuration types, defaults and loading for
// contractctl.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	ck "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/internal/log"
	"github.com/reoring/contractkit/internal/tracing"
)

// DefaultPath is the project-local config file looked up when no --config
// flag is given.
const DefaultPath = ".contractkit/config.yaml"

// EnvPrefix prefixes environment overrides: CONTRACTKIT_STORE_BACKEND etc.
const EnvPrefix = "CONTRACTKIT"

// Store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all configuration options for contractctl.
type Config struct {
	Store   StoreConfig    `mapstructure:"store"`
	Log     LogConfig      `mapstructure:"log"`
	Lang    string         `mapstructure:"lang"` // BCP 47 tag for issue messages
	Tracing tracing.Config `mapstructure:"tracing"`
	Parse   ParseConfig    `mapstructure:"parse"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend     string        `mapstructure:"backend"` // "file" (default), "sqlite" or "postgres"
	Dir         string        `mapstructure:"dir"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"` // 0 disables the read cache
}

// LogConfig controls the internal log.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	Path    string `mapstructure:"path"`
}

// ParseConfig holds document parsing options.
type ParseConfig struct {
	FailFast      bool   `mapstructure:"fail_fast"`
	DuplicateKeys string `mapstructure:"duplicate_keys"` // "ignore", "warn" or "error"
	MaxBytes      int64  `mapstructure:"max_bytes"`
	MaxDepth      int    `mapstructure:"max_depth"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = ".contractkit/traces.jsonl"
	return Config{
		Store: StoreConfig{
			Backend:    BackendFile,
			Dir:        ".contractkit/contracts",
			SQLitePath: ".contractkit/contracts.db",
			CacheTTL:   time.Minute,
		},
		Log: LogConfig{
			Level: "info",
			Path:  ".contractkit/debug.log",
		},
		Lang:    "en",
		Tracing: tc,
		Parse: ParseConfig{
			DuplicateKeys: "error",
			MaxBytes:      1 << 20,
			MaxDepth:      32,
		},
	}
}

// SetDefaults registers every key of Defaults on v. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.postgres_dsn", d.Store.PostgresDSN)
	v.SetDefault("store.cache_ttl", d.Store.CacheTTL)
	v.SetDefault("log.enabled", d.Log.Enabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("lang", d.Lang)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("parse.fail_fast", d.Parse.FailFast)
	v.SetDefault("parse.duplicate_keys", d.Parse.DuplicateKeys)
	v.SetDefault("parse.max_bytes", d.Parse.MaxBytes)
	v.SetDefault("parse.max_depth", d.Parse.MaxDepth)
}

// Load reads configuration into v and returns the validated result.
// Lookup order: path when non-empty (must exist), otherwise DefaultPath when
// present, otherwise defaults only. Environment variables override files.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
	default:
		if _, err := os.Stat(DefaultPath); err == nil {
			v.SetConfigFile(DefaultPath)
		}
	}
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
		log.Debug(log.CatConfig, "loaded config", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks option values. All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file backend"))
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite backend"))
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q (use file, sqlite or postgres)", c.Store.Backend))
	}
	if c.Store.CacheTTL < 0 {
		errs = append(errs, errors.New("store.cache_ttl must not be negative"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, ok := ck.ParseSeverity(c.Parse.DuplicateKeys); !ok {
		errs = append(errs, fmt.Errorf("parse.duplicate_keys: unknown severity %q (use ignore, warn or error)", c.Parse.DuplicateKeys))
	}
	if c.Parse.MaxBytes < 0 || c.Parse.MaxDepth < 0 {
		errs = append(errs, errors.New("parse.max_bytes and parse.max_depth must not be negative"))
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case tracing.ExporterNone, tracing.ExporterStdout, tracing.ExporterOTLP, "":
		case tracing.ExporterFile:
			if c.Tracing.FilePath == "" {
				errs = append(errs, errors.New("tracing.file_path is required for the file exporter"))
			}
		default:
			errs = append(errs, fmt.Errorf("tracing.exporter: unknown exporter %q", c.Tracing.Exporter))
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			errs = append(errs, errors.New("tracing.sample_rate must be between 0 and 1"))
		}
	}
	return errors.Join(errs...)
}

// ParseOpt converts the parse section into contractkit options.
func (c Config) ParseOpt() ck.ParseOpt {
	sev, _ := ck.ParseSeverity(c.Parse.DuplicateKeys)
	return ck.ParseOpt{
		Strictness: ck.Strictness{OnDuplicateKey: sev},
		MaxDepth:   c.Parse.MaxDepth,
		MaxBytes:   c.Parse.MaxBytes,
		FailFast:   c.Parse.FailFast,
	}
}
