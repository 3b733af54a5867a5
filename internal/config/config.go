package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Relay       RelayConfig       `mapstructure:"relay"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Development DevelopmentConfig `mapstructure:"development"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RelayConfig points the play binary at a relay server. An empty URL means
// the game is played locally only.
type RelayConfig struct {
	URL          string        `mapstructure:"url"`
	GameID       string        `mapstructure:"game_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	UseWebSocket bool          `mapstructure:"use_websocket"`
	WhiteToken   string        `mapstructure:"white_token"`
	BlackToken   string        `mapstructure:"black_token"`
}

type StorageConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// AuthConfig controls seat tokens. An empty secret disables seat checks.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type DevelopmentConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Enable environment variables
	viper.SetEnvPrefix("CHESSPVP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("relay.url", "")
	viper.SetDefault("relay.game_id", "")
	viper.SetDefault("relay.poll_interval", "2s")
	viper.SetDefault("relay.use_websocket", true)
	viper.SetDefault("relay.white_token", "")
	viper.SetDefault("relay.black_token", "")
	viper.SetDefault("storage.path", "./data")
	viper.SetDefault("storage.in_memory", false)
	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("development.debug", false)
	viper.SetDefault("development.log_level", "info")

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, defaults and environment still apply
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Relay.PollInterval <= 0 {
		return nil, fmt.Errorf("relay.poll_interval must be positive, got %s", cfg.Relay.PollInterval)
	}

	return &cfg, nil
}

// Addr is the listen address of the relay server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Level is the configured log level. Debug mode always logs at debug level;
// an unknown level name falls back to info.
func (d DevelopmentConfig) Level() zerolog.Level {
	if d.Debug {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(d.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
