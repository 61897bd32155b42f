// Package db opens the relational store and prepares its schema.
package db

import (
	"fmt"
	"time"

	"github.com/diewo77/go-pos/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// connectAttempts bounds the startup retry loop while the database comes up.
const connectAttempts = 10

// Dialector returns the GORM dialector for the configured driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	dsn := cfg.DSN()
	if dsn == "" {
		return nil, fmt.Errorf("empty DSN for driver %q", cfg.Driver)
	}
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// GormConfig returns the GORM settings; SQL is logged only when debug is on.
func GormConfig(debug bool) *gorm.Config {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
}

// Connect opens the database, retrying while it is not reachable yet.
func Connect(cfg config.DatabaseConfig, tracing bool, log *logrus.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"driver": cfg.Driver,
		"dsn":    config.MaskDSN(cfg.DSN()),
	}).Info("connecting to database")

	var conn *gorm.DB
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err = gorm.Open(dialector, GormConfig(cfg.Debug))
		if err == nil {
			err = conn.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("database not ready, retrying")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if tracing {
		if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
			log.WithError(pluginErr).Warn("failed to install otelgorm plugin")
		}
	}
	return conn, nil
}
