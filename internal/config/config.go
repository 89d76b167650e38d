package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	Sources   []SourceConfig   `yaml:"sources" mapstructure:"sources"`
	Overrides []OverrideConfig `yaml:"overrides" mapstructure:"overrides"`
	Geo       GeoConfig        `yaml:"geo" mapstructure:"geo"`
	Spark     SparkConfig      `yaml:"spark" mapstructure:"spark"`
	Notion    NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Enrich    EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Persist   PersistConfig    `yaml:"persist" mapstructure:"persist"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SourceConfig describes one MLS listing source.
//
// Kind is one of "postgres", "sqlite" or "feed". Table-backed kinds read
// Table from DatabaseURL (falling back to store.database_url); feeds fetch
// URL (file, http(s) or ftp) and decode it as Format ("csv" or "json").
// Columns maps listing fields to source column names and only needs the
// entries that differ from the defaults.
type SourceConfig struct {
	Name        string            `yaml:"name" mapstructure:"name"`
	Kind        string            `yaml:"kind" mapstructure:"kind"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Table       string            `yaml:"table" mapstructure:"table"`
	URL         string            `yaml:"url" mapstructure:"url"`
	Format      string            `yaml:"format" mapstructure:"format"`
	Columns     map[string]string `yaml:"columns" mapstructure:"columns"`
}

// OverrideConfig describes one manual override source. Kind is "file"
// (json, yaml or xlsx by extension) or "notion".
type OverrideConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Kind     string `yaml:"kind" mapstructure:"kind"`
	Path     string `yaml:"path" mapstructure:"path"`
	Database string `yaml:"database" mapstructure:"database"`
	Sheet    string `yaml:"sheet" mapstructure:"sheet"`
}

// GeoConfig points at replacement lookup tables. Empty uses the embedded set.
type GeoConfig struct {
	TablesPath string `yaml:"tables_path" mapstructure:"tables_path"`
}

// SparkConfig holds Spark (MLS photo) API settings.
type SparkConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds Notion API credentials.
type NotionConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
}

// EnrichConfig configures the enrichment stage.
type EnrichConfig struct {
	Concurrency         int     `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxExternalLookups  int     `yaml:"max_external_lookups" mapstructure:"max_external_lookups"`
	SkipExternal        bool    `yaml:"skip_external" mapstructure:"skip_external"`
	RetryMaxAttempts    int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryBackoffMs      int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	BreakerThreshold    int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs    int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
	LuxuryThreshold     float64 `yaml:"luxury_threshold" mapstructure:"luxury_threshold"`
	EntryLevelThreshold float64 `yaml:"entry_level_threshold" mapstructure:"entry_level_threshold"`
}

// PersistConfig configures batched upserts.
type PersistConfig struct {
	BatchSize   int `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional) and environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from path, which must exist when set, and
// the environment.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("COMMUNITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("spark.base_url", "https://sparkapi.com/v1")
	v.SetDefault("spark.user_agent", "community-cli")
	v.SetDefault("spark.rate_limit", 5.0)
	v.SetDefault("enrich.concurrency", 5)
	v.SetDefault("enrich.timeout_secs", 10)
	v.SetDefault("enrich.max_external_lookups", 100)
	v.SetDefault("enrich.retry_max_attempts", 3)
	v.SetDefault("enrich.retry_backoff_ms", 500)
	v.SetDefault("enrich.breaker_threshold", 5)
	v.SetDefault("enrich.breaker_reset_secs", 30)
	v.SetDefault("enrich.luxury_threshold", 1000000)
	v.SetDefault("enrich.entry_level_threshold", 400000)
	v.SetDefault("persist.batch_size", 500)
	v.SetDefault("persist.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is "run", "store" or
// "export".
func (c *Config) Validate(mode string) error {
	var missing []string

	if c.Store.DatabaseURL == "" {
		missing = append(missing, "store.database_url is required")
	}
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		missing = append(missing, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	if mode == "run" {
		if len(c.Sources) == 0 {
			missing = append(missing, "at least one source is required")
		}
		seen := make(map[string]bool, len(c.Sources))
		for i, s := range c.Sources {
			if s.Name == "" {
				missing = append(missing, fmt.Sprintf("sources[%d].name is required", i))
			} else if seen[s.Name] {
				missing = append(missing, fmt.Sprintf("sources[%d].name %q is duplicated", i, s.Name))
			}
			seen[s.Name] = true
			switch s.Kind {
			case "postgres", "sqlite":
				if s.Table == "" {
					missing = append(missing, fmt.Sprintf("sources[%d].table is required", i))
				}
			case "feed":
				if s.URL == "" {
					missing = append(missing, fmt.Sprintf("sources[%d].url is required", i))
				}
			default:
				missing = append(missing, fmt.Sprintf("sources[%d].kind %q is not supported", i, s.Kind))
			}
		}
		for i, o := range c.Overrides {
			if o.Kind == "notion" && c.Notion.Token == "" {
				missing = append(missing, fmt.Sprintf("notion.token is required by overrides[%d]", i))
			}
		}
		if c.Enrich.Concurrency < 1 {
			missing = append(missing, "enrich.concurrency must be at least 1")
		}
		if c.Persist.BatchSize < 1 {
			missing = append(missing, "persist.batch_size must be at least 1")
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
