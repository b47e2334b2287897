package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Auth      AuthConfig      `yaml:"auth"`
	Google    GoogleConfig    `yaml:"google"`
	Email     EmailConfig     `yaml:"email"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Throttle  ThrottleConfig  `yaml:"throttle"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment" env:"APP_ENVIRONMENT"`
	// BaseURL is the public origin of this API, used in confirmation links.
	BaseURL string `yaml:"base_url" env:"APP_BASE_URL"`
	// FrontendURL is the origin of the web client, used in password reset
	// links and post-confirmation redirects. Optional.
	FrontendURL string `yaml:"frontend_url" env:"APP_FRONTEND_URL"`
}

type ServerConfig struct {
	Port            int `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     int `yaml:"read_timeout"`
	WriteTimeout    int `yaml:"write_timeout"`
	IdleTimeout     int `yaml:"idle_timeout"`
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host" env:"DB_HOST"`
	Port            int    `yaml:"port" env:"DB_PORT"`
	User            string `yaml:"user" env:"DB_USER"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	Database        string `yaml:"database" env:"DB_DATABASE"`
	SSLMode         string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST"`
	Port     int    `yaml:"port" env:"REDIS_PORT"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type JWTConfig struct {
	AccessSecret         string `yaml:"access_secret" env:"JWT_ACCESS_SECRET"`
	RefreshSecret        string `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET"`
	AccessTokenDuration  int    `yaml:"access_token_duration"`  // minutes
	RefreshTokenDuration int    `yaml:"refresh_token_duration"` // minutes
}

type AuthConfig struct {
	ConfirmationKeyTTL int  `yaml:"confirmation_key_ttl"` // hours
	PasswordResetTTL   int  `yaml:"password_reset_ttl"`   // minutes
	AppendSlash        bool `yaml:"append_slash" env:"AUTH_APPEND_SLASH"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `yaml:"redirect_uri" env:"GOOGLE_REDIRECT_URI"`
	TokenURL     string `yaml:"token_url"`
	UserInfoURL  string `yaml:"userinfo_url"`
	Timeout      int    `yaml:"timeout"` // seconds
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUsername string `yaml:"smtp_username" env:"SMTP_USERNAME"`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type RateLimitConfig struct {
	RequestsPerMinute int    `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE"`
	Burst             int    `yaml:"burst" env:"RATE_LIMIT_BURST"`
	Enabled           bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Window            int    `yaml:"window" env:"RATE_LIMIT_WINDOW"` // in seconds
	MetricsNamespace  string `yaml:"metrics_namespace" env:"RATE_LIMIT_METRICS_NAMESPACE"`
}

// ThrottleConfig limits sensitive anonymous views (login, password reset,
// resend confirmation) per client IP.
type ThrottleConfig struct {
	Enabled bool `yaml:"enabled" env:"THROTTLE_ENABLED"`
	Limit   int  `yaml:"limit" env:"THROTTLE_LIMIT"`
	Window  int  `yaml:"window" env:"THROTTLE_WINDOW"` // in seconds
}

func Load(path string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Override with environment variables
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(&cfg)

	// Validate
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWT.AccessTokenDuration == 0 {
		cfg.JWT.AccessTokenDuration = 15
	}
	if cfg.JWT.RefreshTokenDuration == 0 {
		cfg.JWT.RefreshTokenDuration = 7 * 24 * 60
	}
	if cfg.Auth.ConfirmationKeyTTL == 0 {
		cfg.Auth.ConfirmationKeyTTL = 72
	}
	if cfg.Auth.PasswordResetTTL == 0 {
		cfg.Auth.PasswordResetTTL = 60
	}
	if cfg.Google.TokenURL == "" {
		cfg.Google.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.Google.UserInfoURL == "" {
		cfg.Google.UserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	}
	if cfg.Google.Timeout == 0 {
		cfg.Google.Timeout = 10
	}
	if cfg.Throttle.Limit == 0 {
		cfg.Throttle.Limit = 10
	}
	if cfg.Throttle.Window == 0 {
		cfg.Throttle.Window = 60
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if cfg.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if cfg.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT refresh secret is required")
	}
	if cfg.App.BaseURL == "" {
		return fmt.Errorf("app base url is required")
	}
	if !strings.Contains(cfg.App.Environment, "production") &&
		!strings.Contains(cfg.App.Environment, "development") &&
		!strings.Contains(cfg.App.Environment, "local") {
		return fmt.Errorf("invalid environment: %s", cfg.App.Environment)
	}
	return nil
}
