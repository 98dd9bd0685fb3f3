package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"insightminer/adapters/analytics"
	"insightminer/internal"
	"insightminer/internal/errors"
	"insightminer/internal/explain"
	"insightminer/internal/session"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Explain  ExplainConfig  `mapstructure:"explain"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string        `mapstructure:"port"`
	GinMode     string        `mapstructure:"gin_mode"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// DatabaseConfig holds the optional SQL dataset source
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ExplainConfig holds explainer and analytics engine settings
type ExplainConfig struct {
	K                   int     `mapstructure:"k"`
	Threshold           float64 `mapstructure:"threshold"`
	SelectorThreshold   float64 `mapstructure:"selector_threshold"`
	ClusterThreshold    float64 `mapstructure:"cluster_threshold"`
	MaxDimensionsInView int     `mapstructure:"max_dimensions"`
	MaxMeasuresInView   int     `mapstructure:"max_measures"`
	Workers             int     `mapstructure:"workers"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)

	v.SetDefault("database.url", "")

	v.SetDefault("explain.k", 5)
	v.SetDefault("explain.threshold", 0.8)
	v.SetDefault("explain.selector_threshold", 0.0)
	v.SetDefault("explain.cluster_threshold", 0.3)
	v.SetDefault("explain.max_dimensions", 3)
	v.SetDefault("explain.max_measures", 2)
	v.SetDefault("explain.workers", 4)

	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from .env, environment and an optional YAML file.
// Precedence: env (INSIGHT_SECTION_KEY) > config file > defaults.
func Load(cfgFile string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read config file %s", cfgFile)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates the configuration held by v
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to unmarshal config")
	}
	if err := validateConfig(&c); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &c, nil
}

func validateConfig(c *Config) error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if c.Explain.K <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("explain.k must be positive, got %d", c.Explain.K))
	}
	if c.Explain.Workers <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("explain.workers must be positive, got %d", c.Explain.Workers))
	}
	if c.Explain.Threshold < 0 || c.Explain.SelectorThreshold < 0 || c.Explain.ClusterThreshold < 0 {
		return errors.ConfigInvalid("explain thresholds must not be negative")
	}
	if c.Explain.MaxDimensionsInView < 0 || c.Explain.MaxMeasuresInView < 0 {
		return errors.ConfigInvalid("explain view limits must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	switch strings.ToUpper(c.Log.Level) {
	case "ERROR", "WARN", "INFO", "DEBUG", "TRACE":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	return nil
}

// ExplainOptions returns the explainer settings
func (c *Config) ExplainOptions() explain.Options {
	return explain.Options{
		K:                 c.Explain.K,
		Threshold:         c.Explain.Threshold,
		SelectorThreshold: c.Explain.SelectorThreshold,
	}
}

// BuildOptions returns the analytics engine setup settings
func (c *Config) BuildOptions() analytics.BuildOptions {
	return analytics.BuildOptions{
		ClusterThreshold: c.Explain.ClusterThreshold,
		MaxDimensions:    c.Explain.MaxDimensionsInView,
		MaxMeasures:      c.Explain.MaxMeasuresInView,
	}
}

// SessionConfig returns the session manager settings
func (c *Config) SessionConfig() session.ManagerConfig {
	return session.ManagerConfig{
		Workers: c.Explain.Workers,
		Explain: c.ExplainOptions(),
		Build:   c.BuildOptions(),
	}
}

// NewLogger builds the logger described by the log section
func (c *Config) NewLogger() *internal.Logger {
	return internal.NewLogger(internal.ParseLogLevel(c.Log.Level), strings.ToLower(c.Log.Format))
}
