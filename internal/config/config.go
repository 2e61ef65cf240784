package config

import (
	"io"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Placement PlacementConfig `yaml:"placement" mapstructure:"placement"`
	Distance  DistanceConfig  `yaml:"distance" mapstructure:"distance"`
	RefData   RefDataConfig   `yaml:"refdata" mapstructure:"refdata"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// PlacementConfig holds the default run parameters; CLI flags override them.
type PlacementConfig struct {
	K             int   `yaml:"k" mapstructure:"k"`
	Seed          int64 `yaml:"seed" mapstructure:"seed"`
	MaxIterations int   `yaml:"max_iterations" mapstructure:"max_iterations"`
}

// DistanceConfig selects the distance backend.
type DistanceConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Workers int    `yaml:"workers" mapstructure:"workers"`
}

// RefDataConfig locates the boundary and gazetteer sources.
type RefDataConfig struct {
	Dataset        string  `yaml:"dataset" mapstructure:"dataset"`
	Country        string  `yaml:"country" mapstructure:"country"`
	BoundaryPath   string  `yaml:"boundary_path" mapstructure:"boundary_path"`
	BoundaryURL    string  `yaml:"boundary_url" mapstructure:"boundary_url"`
	CitiesSource   string  `yaml:"cities_source" mapstructure:"cities_source"`
	CitiesCSV      string  `yaml:"cities_csv" mapstructure:"cities_csv"`
	CitiesCharset  string  `yaml:"cities_charset" mapstructure:"cities_charset"`
	OverpassURL    string  `yaml:"overpass_url" mapstructure:"overpass_url"`
	OverpassRPS    float64 `yaml:"overpass_rps" mapstructure:"overpass_rps"`
	RetryAttempts  int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	TempDir        string  `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// CacheConfig selects the durable cache backend.
type CacheConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	Path          string `yaml:"path" mapstructure:"path"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix" mapstructure:"redis_prefix"`
}

// StoreConfig configures the relay point database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// Cities source names.
const (
	CitiesOverpass = "overpass"
	CitiesCSV      = "csv"
)

func newViper() *viper.Viper {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("placement.k", 10)
	v.SetDefault("placement.seed", 42)
	v.SetDefault("placement.max_iterations", 100)
	v.SetDefault("distance.backend", "parallel")
	v.SetDefault("distance.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("refdata.dataset", "FRA")
	v.SetDefault("refdata.country", "France")
	v.SetDefault("refdata.boundary_path", "FRA.zip")
	v.SetDefault("refdata.boundary_url", "")
	v.SetDefault("refdata.cities_source", CitiesOverpass)
	v.SetDefault("refdata.cities_csv", "")
	v.SetDefault("refdata.cities_charset", "")
	v.SetDefault("refdata.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("refdata.overpass_rps", 1.0)
	v.SetDefault("refdata.retry_attempts", 3)
	v.SetDefault("refdata.retry_backoff_ms", 500)
	v.SetDefault("refdata.temp_dir", "/tmp/relay-cli")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "relay-cache.db")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", "relay:")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// Load reads configuration from .env, config.yaml, and RELAY_* variables,
// in increasing priority over the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := newViper()

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

// Default returns the built-in defaults, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(eris.Wrap(err, "config: decode defaults"))
	}
	return &cfg
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Placement.K < 1 {
		return eris.Errorf("config: placement.k must be at least 1, got %d", c.Placement.K)
	}
	if c.Placement.MaxIterations < 1 {
		return eris.Errorf("config: placement.max_iterations must be at least 1, got %d", c.Placement.MaxIterations)
	}
	switch c.Distance.Backend {
	case "parallel", "reference":
	default:
		return eris.Errorf("config: unknown distance.backend %q", c.Distance.Backend)
	}
	switch c.Cache.Driver {
	case "sqlite", "file":
		if c.Cache.Path == "" {
			return eris.Errorf("config: cache.path is required for the %s driver", c.Cache.Driver)
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return eris.New("config: cache.redis_addr is required for the redis driver")
		}
	case "memory":
	default:
		return eris.Errorf("config: unknown cache.driver %q", c.Cache.Driver)
	}
	switch c.RefData.CitiesSource {
	case CitiesOverpass:
		if c.RefData.Country == "" {
			return eris.New("config: refdata.country is required for the overpass source")
		}
	case CitiesCSV:
		if c.RefData.CitiesCSV == "" {
			return eris.New("config: refdata.cities_csv is required for the csv source")
		}
	default:
		return eris.Errorf("config: unknown refdata.cities_source %q", c.RefData.CitiesSource)
	}
	if c.RefData.BoundaryPath == "" && c.RefData.BoundaryURL == "" {
		return eris.New("config: one of refdata.boundary_path or refdata.boundary_url is required")
	}
	if c.RefData.Dataset == "" {
		return eris.New("config: refdata.dataset is required")
	}
	return nil
}

// WriteExample writes the defaults as YAML, as a starting config.yaml.
func WriteExample(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return eris.Wrap(err, "config: encode example")
	}
	return eris.Wrap(enc.Close(), "config: flush example")
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
