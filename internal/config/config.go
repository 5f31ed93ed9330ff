package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ronospace/flowiq/internal/security"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration. Every key can come from an
// optional config.yaml, a FLOWIQ_-prefixed environment variable, or the
// built-in default, in that order of precedence (env wins).
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	TimeZone  string `mapstructure:"time_zone"`
	SecretKey string `mapstructure:"secret_key"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	StatisticsWindow int `mapstructure:"statistics_window"`
	LutealPhaseDays  int `mapstructure:"luteal_phase_days"`
}

type NotifierConfig struct {
	TelegramBotToken string        `mapstructure:"telegram_bot_token"`
	Interval         time.Duration `mapstructure:"interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. A missing config file is fine; a malformed
// one is not.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/flowiq/")

	v.SetEnvPrefix("FLOWIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return config, nil
}

// Every key needs a registered default so environment-only overrides are
// visible to Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.time_zone", "UTC")
	v.SetDefault("server.secret_key", "")

	v.SetDefault("database.path", "data/flowiq.db")

	v.SetDefault("engine.statistics_window", 6)
	v.SetDefault("engine.luteal_phase_days", 14)

	v.SetDefault("notifier.telegram_bot_token", "")
	v.SetDefault("notifier.interval", "6h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

const secretKeyLength = 48

const secretKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// EnsureSecretKey returns the configured token signing key, minting an
// ephemeral one when none is set. Tokens signed with an ephemeral key stop
// verifying after a restart, so the warning names the variable to set.
func (config *Config) EnsureSecretKey(logger *logrus.Logger) (string, error) {
	key := strings.TrimSpace(config.Server.SecretKey)
	if key != "" {
		return key, nil
	}
	generated, err := security.RandomString(secretKeyLength, secretKeyAlphabet)
	if err != nil {
		return "", fmt.Errorf("generate ephemeral secret key: %w", err)
	}
	if logger != nil {
		logger.Warn("FLOWIQ_SERVER_SECRET_KEY is not set; using an ephemeral signing key, tokens will not survive a restart")
	}
	return generated, nil
}

// Location resolves the configured timezone, falling back to UTC on an
// unknown name.
func (config *Config) Location(logger *logrus.Logger) *time.Location {
	name := strings.TrimSpace(config.Server.TimeZone)
	if name == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		if logger != nil {
			logger.WithField("time_zone", name).Warn("unknown timezone, falling back to UTC")
		}
		return time.UTC
	}
	return location
}

// NewLogger builds the process logger from the logging section. Unknown
// levels degrade to info rather than failing startup.
func (config *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(config.Logging.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(strings.TrimSpace(config.Logging.Format), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
