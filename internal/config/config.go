// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingToken is returned by Validate when no bot token is configured.
var ErrMissingToken = errors.New("BOT_TOKEN is required")

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token     string `yaml:"token"`
	Lang      string `yaml:"lang"`       // en | ar
	Workers   int    `yaml:"workers"`    // update handlers; 1 keeps strict ordering
	RateLimit int    `yaml:"rate_limit"` // commands per user per minute, 0 disables
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StorageConfig struct {
	DatabasePath string `yaml:"database_path"` // SQLite catalog file
	DatabaseURL  string `yaml:"database_url"`  // when set, Postgres is used instead
	ImagesDir    string `yaml:"images_dir"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Redis   RedisConfig   `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DefaultDatabasePath = "images.db"
	DefaultImagesDir    = "images"
	DefaultPort         = 10000
)

// LoadConfig builds the process configuration. Sources, lowest priority first:
// an optional YAML file at path, a .env file in the working directory, and the
// process environment. Defaults fill whatever is left empty.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Validate checks what the bot process cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// Addr is the listen address of the health server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

func applyEnv(cfg *Config) error {
	envString("BOT_TOKEN", &cfg.Bot.Token)
	envString("BOT_LANG", &cfg.Bot.Lang)
	envString("DATABASE_PATH", &cfg.Storage.DatabasePath)
	envString("DATABASE_URL", &cfg.Storage.DatabaseURL)
	envString("IMAGES_FOLDER", &cfg.Storage.ImagesDir)
	envString("REDIS_URL", &cfg.Redis.URL)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.HTTP.Port},
		{"BOT_WORKERS", &cfg.Bot.Workers},
		{"BOT_RATE_LIMIT", &cfg.Bot.RateLimit},
		{"REDIS_DB", &cfg.Redis.DB},
	}
	for _, it := range ints {
		if err := envInt(it.key, it.dst); err != nil {
			return err
		}
	}
	if v, ok := os.LookupEnv("REDIS_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_TTL: %w", err)
		}
		cfg.Redis.TTL = d
	}
	if v := strings.ToLower(os.Getenv("APP_ENV")); v == "dev" || v == "development" {
		cfg.Runtime.Dev = true
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = DefaultDatabasePath
	}
	if cfg.Storage.ImagesDir == "" {
		cfg.Storage.ImagesDir = DefaultImagesDir
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = DefaultPort
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 1
	}
	if cfg.Bot.RateLimit < 0 {
		cfg.Bot.RateLimit = 0
	}
	if cfg.Bot.Lang == "" {
		cfg.Bot.Lang = "en"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}
