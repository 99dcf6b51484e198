package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort string

	DBDriver    string // "postgres" or "sqlite"
	DatabaseDSN string

	JWT      JWTConfig
	SMTP     SMTPConfig
	RabbitMQ RabbitMQConfig

	OTPTTL           time.Duration
	LoanPeriod       time.Duration
	ReminderInterval time.Duration
	NotifyAsync      bool

	AdminEmail    string
	AdminPassword string

	LogLevel  string
	LogPretty bool
}

// JWTConfig holds the token signing settings.
type JWTConfig struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// SMTPConfig holds outbound mail settings. When Enabled is false, mail is
// written to the log instead of being sent.
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// RabbitMQConfig holds broker settings. An empty URL disables messaging.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// minKeyLength is the shortest HS256 key accepted (256 bits).
const minKeyLength = 32

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:elibrary.db?cache=shared")

	v.SetDefault("JWT_ISSUER", "elibrary")
	v.SetDefault("JWT_AUDIENCE", "elibrary-clients")
	v.SetDefault("JWT_TTL", "30m")

	v.SetDefault("SMTP_ENABLED", false)
	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "elibrary")

	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("LOAN_PERIOD", "336h")
	v.SetDefault("REMINDER_INTERVAL", "1m")
	v.SetDefault("NOTIFY_ASYNC", false)

	v.SetDefault("ADMIN_EMAIL", "admin@local")
	v.SetDefault("ADMIN_PASSWORD", "Admin@123")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:     v.GetString("APP_PORT"),
		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN: v.GetString("DATABASE_DSN"),
		JWT: JWTConfig{
			Key:      v.GetString("JWT_KEY"),
			Issuer:   v.GetString("JWT_ISSUER"),
			Audience: v.GetString("JWT_AUDIENCE"),
			TTL:      v.GetDuration("JWT_TTL"),
		},
		SMTP: SMTPConfig{
			Enabled:  v.GetBool("SMTP_ENABLED"),
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		OTPTTL:           v.GetDuration("OTP_TTL"),
		LoanPeriod:       v.GetDuration("LOAN_PERIOD"),
		ReminderInterval: v.GetDuration("REMINDER_INTERVAL"),
		NotifyAsync:      v.GetBool("NOTIFY_ASYNC"),
		AdminEmail:       strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogPretty:        v.GetBool("LOG_PRETTY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects every configuration problem into a single error.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("missing DATABASE_DSN"))
	}

	if len(c.JWT.Key) < minKeyLength {
		errs = append(errs, fmt.Errorf("JWT_KEY must be at least %d bytes", minKeyLength))
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		errs = append(errs, errors.New("JWT_ISSUER and JWT_AUDIENCE are required"))
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"JWT_TTL", c.JWT.TTL},
		{"OTP_TTL", c.OTPTTL},
		{"LOAN_PERIOD", c.LoanPeriod},
		{"REMINDER_INTERVAL", c.ReminderInterval},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration", d.name))
		}
	}

	if c.SMTP.Enabled {
		if c.SMTP.Host == "" {
			errs = append(errs, errors.New("missing SMTP_HOST"))
		}
		if c.SMTP.Port == 0 {
			errs = append(errs, errors.New("missing SMTP_PORT"))
		}
		if c.SMTP.From == "" {
			errs = append(errs, errors.New("missing SMTP_FROM"))
		}
	}

	if c.NotifyAsync && c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("NOTIFY_ASYNC requires RABBITMQ_URL"))
	}

	return errors.Join(errs...)
}
