// Package config loads server settings from a .env file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT" validate:"required,numeric"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	DataSource      string        `mapstructure:"DATA_SOURCE" validate:"oneof=json sqlite"`
	DataDir         string        `mapstructure:"DATA_DIR"`
	SQLitePath      string        `mapstructure:"SQLITE_PATH"`
	StrictLoad      bool          `mapstructure:"STRICT_LOAD"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	DefaultPageSize int           `mapstructure:"DEFAULT_PAGE_SIZE" validate:"gte=1,lte=500"`
	AsOf            string        `mapstructure:"AS_OF"`
	CallbackScope   string        `mapstructure:"METRICS_CALLBACK_SCOPE" validate:"oneof=all_time windowed"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT" validate:"gt=0"`
	ReloadInterval  time.Duration `mapstructure:"RELOAD_INTERVAL" validate:"gte=0"`
}

// Load reads envFile (".env" when empty; a missing file is ignored), then the
// process environment, which wins over the file.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_SOURCE", "json")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("SQLITE_PATH", "./data/hvac.db")
	v.SetDefault("STRICT_LOAD", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DEFAULT_PAGE_SIZE", generic.DefaultPageSize)
	v.SetDefault("AS_OF", "")
	v.SetDefault("METRICS_CALLBACK_SCOPE", string(hvac.CallbackScopeAllTime))
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RELOAD_INTERVAL", "0s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.AsOfTime(); err != nil {
		return Config{}, fmt.Errorf("invalid config: AS_OF: %w", err)
	}
	return cfg, nil
}

// AsOfTime parses AS_OF as a local date or RFC3339 instant. The zero time
// means "use the wall clock".
func (c Config) AsOfTime() (time.Time, error) {
	if c.AsOf == "" {
		return time.Time{}, nil
	}
	return generic.ParseDate(c.AsOf, time.Local)
}

// Level maps LOG_LEVEL to a zerolog level, defaulting to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) MetricsCallbackScope() hvac.CallbackScope {
	return hvac.ParseCallbackScope(c.CallbackScope)
}
