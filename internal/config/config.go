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
	Compare CompareConfig `yaml:"compare" mapstructure:"compare"`
	Limits  LimitsConfig  `yaml:"limits" mapstructure:"limits"`
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CompareConfig holds the comparison defaults a run starts from.
type CompareConfig struct {
	Tolerance  bool     `yaml:"tolerance" mapstructure:"tolerance"`
	Threshold  float64  `yaml:"threshold" mapstructure:"threshold"`
	KeyColumns []string `yaml:"key_columns" mapstructure:"key_columns"`
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`
}

// LimitsConfig caps the input size a comparison will accept.
type LimitsConfig struct {
	MaxRows      int `yaml:"max_rows" mapstructure:"max_rows"`
	MaxColumns   int `yaml:"max_columns" mapstructure:"max_columns"`
	DetailedRows int `yaml:"detailed_rows" mapstructure:"detailed_rows"`
}

// MatchConfig selects and tunes the row matching strategy.
type MatchConfig struct {
	Strategy     string `yaml:"strategy" mapstructure:"strategy"`
	ExactMaxRows int    `yaml:"exact_max_rows" mapstructure:"exact_max_rows"`
}

// InputConfig configures file decoding.
type InputConfig struct {
	Encoding      string `yaml:"encoding" mapstructure:"encoding"`
	Delimiter     string `yaml:"delimiter" mapstructure:"delimiter"`
	MaxDownloadMB int    `yaml:"max_download_mb" mapstructure:"max_download_mb"` // 0 disables the limit
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MaxBodyMB   int      `yaml:"max_body_mb" mapstructure:"max_body_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TABLEDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("compare.tolerance", false)
	v.SetDefault("compare.threshold", 0.015)
	v.SetDefault("limits.max_rows", 55000)
	v.SetDefault("limits.max_columns", 120)
	v.SetDefault("limits.detailed_rows", 15000)
	v.SetDefault("match.strategy", "greedy")
	v.SetDefault("match.exact_max_rows", 2000)
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("input.max_download_mb", 100)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_body_mb", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// Validate checks the fields a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Compare.Threshold < 0 || c.Compare.Threshold >= 1 {
		errs = append(errs, "compare.threshold must be in [0, 1)")
	}
	if c.Limits.MaxRows <= 0 {
		errs = append(errs, "limits.max_rows must be > 0")
	}
	if c.Limits.MaxColumns <= 0 {
		errs = append(errs, "limits.max_columns must be > 0")
	}
	if c.Limits.DetailedRows < 0 {
		errs = append(errs, "limits.detailed_rows must be >= 0")
	}
	if c.Input.MaxDownloadMB < 0 {
		errs = append(errs, "input.max_download_mb must be >= 0")
	}
	switch c.Match.Strategy {
	case "greedy", "exact", "sql":
	default:
		errs = append(errs, fmt.Sprintf("match.strategy %q must be one of greedy, exact, sql", c.Match.Strategy))
	}
	if c.Match.Strategy == "exact" && c.Match.ExactMaxRows <= 0 {
		errs = append(errs, "match.exact_max_rows must be > 0")
	}

	switch mode {
	case "compare":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxBodyMB <= 0 {
			errs = append(errs, "server.max_body_mb must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
