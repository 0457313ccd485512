package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
	SessionStoreNone   = "none"
)

type Config struct {
	APIURL       string
	WSURL        string
	HTTPTimeout  time.Duration
	SessionStore string
	SQLitePath   string
	RedisURL     string
	LogLevel     string
	LogFormat    string
	AppEnv       string

	// Sandbox backend.
	Port      string
	JWTSecret string
	TokenTTL  time.Duration
	SeedDemo  bool
}

// LoadConfig reads .env, then TRADECHAT_* environment variables, then the
// optional YAML file at configFile. Environment wins over the file.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	v := viper.New()
	v.SetEnvPrefix("TRADECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", "TRADECHAT_PORT", "PORT")
	_ = v.BindEnv("jwt_secret", "TRADECHAT_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("token_ttl", "TRADECHAT_TOKEN_TTL", "TOKEN_TTL")
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		APIURL:       strings.TrimRight(v.GetString("api_url"), "/"),
		WSURL:        strings.TrimRight(v.GetString("ws_url"), "/"),
		HTTPTimeout:  v.GetDuration("http_timeout"),
		SessionStore: strings.ToLower(strings.TrimSpace(v.GetString("session_store"))),
		SQLitePath:   v.GetString("sqlite_path"),
		RedisURL:     v.GetString("redis_url"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		AppEnv:       normalizeEnv(v.GetString("app_env")),
		Port:         v.GetString("port"),
		JWTSecret:    v.GetString("jwt_secret"),
		TokenTTL:     v.GetDuration("token_ttl"),
		SeedDemo:     v.GetBool("seed_demo"),
	}

	if cfg.WSURL == "" {
		wsURL, err := deriveWebSocketURL(cfg.APIURL)
		if err != nil {
			return nil, err
		}
		cfg.WSURL = wsURL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("ws_url", "")
	v.SetDefault("http_timeout", 15*time.Second)
	v.SetDefault("session_store", SessionStoreSQLite)
	v.SetDefault("sqlite_path", "./data/tradechat.db")
	v.SetDefault("redis_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("seed_demo", false)
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	switch c.SessionStore {
	case SessionStoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite session store")
		}
	case SessionStoreRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required for the redis session store")
		}
	case SessionStoreNone:
	default:
		return fmt.Errorf("unknown session_store %q", c.SessionStore)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http_timeout must be positive")
	}
	return nil
}

// SandboxSecret returns the JWT secret for the sandbox, falling back to a
// fixed development value outside production.
func (c *Config) SandboxSecret() (string, error) {
	if c.JWTSecret != "" {
		return c.JWTSecret, nil
	}
	if c.AppEnv == "production" {
		return "", errors.New("JWT_SECRET is required")
	}
	return "tradechat-sandbox-secret", nil
}

func deriveWebSocketURL(apiURL string) (string, error) {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse api_url: %w", err)
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http", "":
		parsed.Scheme = "ws"
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
