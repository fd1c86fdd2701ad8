package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// TotalPolicy controls how the client-declared order total is treated.
type TotalPolicy string

const (
	// TotalRecompute stores the total computed from the line-item snapshot.
	TotalRecompute TotalPolicy = "recompute"
	// TotalTrust stores the total exactly as the client declared it.
	TotalTrust TotalPolicy = "trust"
	// TotalVerify rejects orders whose declared total differs from the computed one.
	TotalVerify TotalPolicy = "verify"
)

type Config struct {
	AppPort string
	AppURL  string
	AppEnv  string

	LogLevel  string
	LogFormat string

	DBDriver       string
	DatabaseDSN    string
	DBMaxOpenConns int

	JWTSecret   string
	JWTTTL      time.Duration
	AdminEmails []string

	RabbitMQURL string
	NotifyQueue string

	RedisAddr string
	CacheTTL  time.Duration

	SMTP           SMTPConfig
	OperatorEmail  string
	EmailsDisabled bool
	Currency       string

	LowStockThreshold int
	OrderTotalPolicy  TotalPolicy
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "plantshop.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("NOTIFY_QUEUE", "email_notifications")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("OPERATOR_EMAIL", "")
	v.SetDefault("DISABLE_EMAILS", "")
	v.SetDefault("CURRENCY", "₽")
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("ORDER_TOTAL_POLICY", string(TotalRecompute))
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		AppURL:            strings.TrimRight(v.GetString("APP_URL"), "/"),
		AppEnv:            v.GetString("APP_ENV"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		DBDriver:          strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		AdminEmails:       splitList(v.GetString("ADMIN_EMAILS")),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		NotifyQueue:       v.GetString("NOTIFY_QUEUE"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		OperatorEmail:     v.GetString("OPERATOR_EMAIL"),
		EmailsDisabled:    parseFlag(v.GetString("DISABLE_EMAILS")),
		Currency:          strings.TrimSpace(v.GetString("CURRENCY")),
		LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		OrderTotalPolicy:  TotalPolicy(strings.ToLower(strings.TrimSpace(v.GetString("ORDER_TOTAL_POLICY")))),
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	if cfg.OperatorEmail == "" {
		cfg.OperatorEmail = cfg.SMTP.User
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: must be sqlite or postgres", c.DBDriver)
	}
	switch c.OrderTotalPolicy {
	case TotalRecompute, TotalTrust, TotalVerify:
	default:
		return fmt.Errorf("invalid ORDER_TOTAL_POLICY %q: must be recompute, trust or verify", c.OrderTotalPolicy)
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", c.AppEnv)
		}
		c.JWTSecret = "dev-secret"
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL: must be positive")
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("invalid LOW_STOCK_THRESHOLD %d: must not be negative", c.LowStockThreshold)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "", "dev", "development", "test":
		return true
	}
	return false
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
