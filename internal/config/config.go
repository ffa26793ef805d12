package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Lifetimes fixed by the auth protocol. They are exposed through Config so
// components receive them explicitly, but Load rejects any other value.
const (
	SessionTTL   = 24 * time.Hour
	ResetCodeTTL = 10 * time.Minute
)

type Config struct {
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	MigrateOnStart bool   `mapstructure:"MIGRATE_ON_START"`

	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	JWTTTL     time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost int           `mapstructure:"BCRYPT_COST"`
	ResetTTL   time.Duration `mapstructure:"RESET_CODE_TTL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	ResetRateLimit  int           `mapstructure:"RESET_RATE_LIMIT"`
	ResetRateWindow time.Duration `mapstructure:"RESET_RATE_WINDOW"`

	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads an optional .env file, then the environment. Environment
// variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.MailFrom = strings.TrimSpace(cfg.MailFrom)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", SessionTTL.String())
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("RESET_CODE_TTL", ResetCodeTTL.String())
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("RESET_RATE_LIMIT", 5)
	v.SetDefault("RESET_RATE_WINDOW", "15m")
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	if c.JWTTTL != SessionTTL {
		return fmt.Errorf("config: JWT_TTL must be %s", SessionTTL)
	}
	if c.ResetTTL != ResetCodeTTL {
		return fmt.Errorf("config: RESET_CODE_TTL must be %s", ResetCodeTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return errors.New("config: JWT_SECRET must be set when APP_ENV=production")
		}
		if c.SMTPHost == "" {
			return errors.New("config: SMTP_HOST must be set when APP_ENV=production")
		}
	}
	if c.SMTPHost != "" && c.MailFrom == "" {
		return errors.New("config: MAIL_FROM must be set when SMTP_HOST is set")
	}
	if c.ResetRateLimit < 0 {
		return errors.New("config: RESET_RATE_LIMIT must not be negative")
	}
	if c.ResetRateLimit > 0 && c.ResetRateWindow <= 0 {
		return errors.New("config: RESET_RATE_WINDOW must be positive")
	}
	if c.SweepInterval < 0 {
		return errors.New("config: SWEEP_INTERVAL must not be negative")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}
