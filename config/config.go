package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// devJWTSecret is only acceptable outside production.
const devJWTSecret = "food_marketplace_dev_secret"

// Config groups application settings read through viper from env vars and an optional file.
type Config struct {
	App     AppConfig
	Log     LogConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Pricing PricingConfig
	SMTP    SMTPConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
}

type AppConfig struct {
	Env         string // development, staging, production
	Name        string
	FrontendURL string
}

type LogConfig struct {
	Level string
}

// DBConfig selects the gorm dialect. DSN is a file path or URI for sqlite and a
// connection string for postgres; DATABASE_URL wins when both are set.
type DBConfig struct {
	Driver      string // sqlite or postgres
	DSN         string
	DatabaseURL string
}

// ConnectionString returns the DSN to hand to the driver.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN
}

type JWTConfig struct {
	Secret     string
	Expiration int // minutes
	Issuer     string
}

type HTTPConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Addr returns host:port for the listener.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PricingConfig is fixed per deployment.
type PricingConfig struct {
	DeliveryFee         decimal.Decimal
	TaxRate             decimal.Decimal
	OrderNumberAttempts int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether outgoing mail should go through SMTP.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// Load reads configuration from env vars, falling back to .env or config.env
// in the working directory. Env vars take precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	deliveryFee, err := getDecimal(v, "DELIVERY_FEE", "5.00")
	if err != nil {
		return nil, err
	}
	taxRate, err := getDecimal(v, "TAX_RATE", "0.08")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:         getString(v, "APP_ENV", "development"),
			Name:        getString(v, "APP_NAME", "food-marketplace-api"),
			FrontendURL: getString(v, "FRONTEND_URL", "http://localhost:5173"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", "sqlite"),
			DSN:         getString(v, "DB_DSN", "food_marketplace.db"),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", devJWTSecret),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 24*60),
			Issuer:     getString(v, "JWT_ISSUER", "food-marketplace-api"),
		},
		HTTP: HTTPConfig{
			Host:    getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:    getInt(v, "HTTP_PORT", getInt(v, "PORT", 8080)),
			GinMode: getString(v, "GIN_MODE", "debug"),
		},
		Pricing: PricingConfig{
			DeliveryFee:         deliveryFee,
			TaxRate:             taxRate,
			OrderNumberAttempts: getInt(v, "ORDER_NUMBER_ATTEMPTS", 5),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "noreply@food-marketplace.local"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "marketplace.orders"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the service misbehave.
func (c *Config) Validate() error {
	if c.App.Env == "production" && c.JWT.Secret == devJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Pricing.TaxRate.IsNegative() || c.Pricing.DeliveryFee.IsNegative() {
		return errors.New("DELIVERY_FEE and TAX_RATE must not be negative")
	}
	if c.Pricing.OrderNumberAttempts < 1 {
		return errors.New("ORDER_NUMBER_ATTEMPTS must be at least 1")
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getDecimal(v *viper.Viper, key, def string) (decimal.Decimal, error) {
	raw := getString(v, key, def)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s=%q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
