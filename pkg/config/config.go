package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	SMS      SMSConfig
	SMTP     SMTPConfig
	WhatsApp WhatsAppConfig
	Mpesa    MpesaConfig
	Billing  BillingConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	SigningKey     string
	ExpirationTime time.Duration
}

// SMSConfig holds the SMS gateway configuration
type SMSConfig struct {
	BaseURL  string
	APIKey   string
	SenderID string
}

// SMTPConfig holds the outgoing mail configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// WhatsAppConfig holds the WhatsApp gateway configuration
type WhatsAppConfig struct {
	BaseURL    string
	InstanceID string
	Token      string
}

// MpesaConfig holds the mobile-money gateway configuration
type MpesaConfig struct {
	BaseURL      string
	APIKey       string
	AccountID    string
	CallbackURL  string
	PollInterval time.Duration
	MaxPollTries int
}

// BillingConfig holds billing-related configuration
type BillingConfig struct {
	Currency string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8085"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "rental_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			SigningKey:     getEnv("JWT_SIGNING_KEY", "rentalservicesecretkey"),
			ExpirationTime: getEnvAsDuration("JWT_EXPIRATION_HOURS", 24*time.Hour),
		},
		SMS: SMSConfig{
			BaseURL:  getEnv("SMS_BASE_URL", "https://api.tililtech.com"),
			APIKey:   getEnv("SMS_API_KEY", ""),
			SenderID: getEnv("SMS_SENDER_ID", "RENTALS"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@rentals.local"),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:    getEnv("WHATSAPP_BASE_URL", "https://api.ultramsg.com"),
			InstanceID: getEnv("WHATSAPP_INSTANCE_ID", ""),
			Token:      getEnv("WHATSAPP_TOKEN", ""),
		},
		Mpesa: MpesaConfig{
			BaseURL:      getEnv("MPESA_BASE_URL", "https://sandbox.intasend.com"),
			APIKey:       getEnv("MPESA_API_KEY", ""),
			AccountID:    getEnv("MPESA_ACCOUNT_ID", ""),
			CallbackURL:  getEnv("MPESA_CALLBACK_URL", ""),
			PollInterval: getEnvAsDuration("MPESA_POLL_INTERVAL", 5*time.Second),
			MaxPollTries: getEnvAsInt("MPESA_MAX_POLL_TRIES", 6),
		},
		Billing: BillingConfig{
			Currency: getEnv("BILLING_CURRENCY", "KES"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "rental"),
		},
	}, nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
