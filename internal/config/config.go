// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Billing  BillingConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds relational store connection settings.
type DatabaseConfig struct {
	Driver   string // postgres, mysql or sqlite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// RawDSN overrides the fields above when set.
	RawDSN string
	Debug  bool
}

// RedisConfig holds the optional Redis settings used for locking and numbering.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	LockTTL  time.Duration
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string // json or text
}

// BillingConfig holds document numbering and invoicing settings.
type BillingConfig struct {
	NumberingBackend string // db or redis
	InvoicePrefix    string
	QuotePrefix      string
	NumberWidth      int
	PaymentTermDays  int
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations string // auto, sql or empty
	Tracing    bool
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.RawDSN != "" {
		return NormalizeDSN(d.RawDSN)
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName,
		)
	case "sqlite":
		return d.DBName
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	if d.RawDSN != "" {
		return ToURLDSN(NormalizeDSN(d.RawDSN))
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "pos"),
			Password: getEnv("DB_PASSWORD", "pos123"),
			DBName:   getEnv("DB_NAME", "pos"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			RawDSN:   os.Getenv("DB_DSN"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			LockTTL:  time.Duration(getEnvInt("LOCK_TTL", 30)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Billing: BillingConfig{
			NumberingBackend: getEnv("NUMBERING_BACKEND", "db"),
			InvoicePrefix:    getEnv("INVOICE_PREFIX", "INV"),
			QuotePrefix:      getEnv("QUOTE_PREFIX", "Q"),
			NumberWidth:      getEnvInt("NUMBER_WIDTH", 4),
			PaymentTermDays:  getEnvInt("PAYMENT_TERM_DAYS", 30),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: migrationsMode(os.Getenv("MIGRATIONS")),
			Tracing:    getEnvBool("TRACING", false),
		},
	}
}

// migrationsMode maps MIGRATIONS to auto, sql or "" (disabled).
// Boolean true values keep their historical meaning of AutoMigrate.
func migrationsMode(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sql":
		return "sql"
	case "1", "true", "yes", "auto":
		return "auto"
	default:
		return ""
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
