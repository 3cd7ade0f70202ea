package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting of the dashboard, loaded once at start-up.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	API         APIConfig         `mapstructure:"api"`
	Realtime    RealtimeConfig    `mapstructure:"realtime"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	AMQP        AMQPConfig        `mapstructure:"amqp"`
	Negotiation NegotiationConfig `mapstructure:"negotiation"`
	Search      SearchConfig      `mapstructure:"search"`
	Upload      UploadConfig      `mapstructure:"upload"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type RealtimeConfig struct {
	URL string `mapstructure:"url"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "mysql"
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type NegotiationConfig struct {
	TypingQuiet         time.Duration `mapstructure:"typing_quiet"`
	RemoteTypingTimeout time.Duration `mapstructure:"remote_typing_timeout"`
	MetricsLogCap       int           `mapstructure:"metrics_log_cap"`
	// AIBotEmail is only consulted for messages lacking a server-asserted origin.
	AIBotEmail string `mapstructure:"ai_bot_email"`
}

type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	MinChars int           `mapstructure:"min_chars"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const envPrefix = "AUTOUC2"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8082")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("api.base_url", "http://localhost:5000/api/v1")
	v.SetDefault("realtime.url", "http://localhost:5000")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "auto_uc2.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "autouc2:")
	v.SetDefault("redis.ttl", time.Minute)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "autouc2.dashboard")
	v.SetDefault("negotiation.typing_quiet", 2*time.Second)
	v.SetDefault("negotiation.remote_typing_timeout", 5*time.Second)
	v.SetDefault("negotiation.metrics_log_cap", 5)
	v.SetDefault("negotiation.ai_bot_email", "")
	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("search.min_chars", 2)
	v.SetDefault("upload.max_bytes", int64(10<<20))
	v.SetDefault("log.level", "info")
}

// Load reads .env (if any), the optional YAML file at path, then AUTOUC2_* env vars.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Negotiation.MetricsLogCap <= 0 {
		return errors.New("config: negotiation.metrics_log_cap must be positive")
	}
	if c.Search.MinChars < 1 {
		return errors.New("config: search.min_chars must be at least 1")
	}
	return nil
}

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
