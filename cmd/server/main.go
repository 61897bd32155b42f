package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-pos/internal/app"
	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/db"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.Log)

	log.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"dsn":    config.MaskDSN(cfg.Database.DSN()),
	}).Info("connecting to database")
	dbConn, err := db.Connect(cfg.Database, cfg.App.Tracing, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		log.Info("seeding completed successfully")
		return
	}

	if cfg.App.Migrations != "" {
		if err := migrate(cfg, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.WithField("mode", cfg.App.Migrations).Info("migrations completed")
	}

	if cfg.App.Dev {
		if err := db.Seed(dbConn); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
	}

	c, err := app.New(cfg, dbConn, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build application")
	}
	defer c.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(log, NewApp(c)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "dev": cfg.App.Dev}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped gracefully")
}

// migrate applies the schema with AutoMigrate, or with the embedded SQL
// migrations when MIGRATIONS=sql.
func migrate(cfg *config.Config, conn *gorm.DB) error {
	if cfg.App.Migrations == "sql" {
		return db.MigrateSQL(cfg.Database.URL())
	}
	return db.Migrate(conn)
}
