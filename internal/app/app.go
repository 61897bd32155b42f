// Package app wires the store, numbering, locking, services and handlers
// from the configuration. Both binaries build their dependencies here.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/handlers"
	"github.com/diewo77/go-pos/internal/lock"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/numbering"
	"github.com/diewo77/go-pos/internal/services"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container holds the configured services and handlers.
type Container struct {
	DB    *gorm.DB
	Store *store.Store
	Redis *redis.Client
	Log   *logrus.Logger

	Sequence numbering.Sequence
	Locker   lock.Locker

	Quotes     *services.QuoteService
	Conversion *services.ConversionService
	Stock      *services.StockService
	Invoices   *services.InvoiceService
	Payments   *services.PaymentService

	QuoteHandler   *handlers.QuoteHandler
	InvoiceHandler *handlers.InvoiceHandler
	StockHandler   *handlers.StockHandler
}

// New builds the container. When Redis is configured it backs the conversion
// lock, and the numbering too if NUMBERING_BACKEND=redis.
func New(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) (*Container, error) {
	c := &Container{DB: db, Store: store.New(db), Log: logger, Locker: lock.Noop{}}

	var counter numbering.Counter = numbering.NewDBCounter(db)
	if cfg.Redis.Enabled() {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			_ = c.Redis.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Address, err)
		}
		c.Locker = lock.NewRedis(c.Redis, cfg.Redis.LockTTL)
		if cfg.Billing.NumberingBackend == "redis" {
			counter = numbering.NewRedisCounter(c.Redis, "pos:seq:")
		}
	} else if cfg.Billing.NumberingBackend == "redis" {
		return nil, fmt.Errorf("NUMBERING_BACKEND=redis requires REDIS_ADDRESS")
	}

	c.Sequence = numbering.NewGenerator(counter, numbering.DefaultSchemes(
		cfg.Billing.InvoicePrefix, cfg.Billing.QuotePrefix, cfg.Billing.NumberWidth))

	c.Quotes = services.NewQuoteService(c.Store, c.Sequence, logger)
	c.Conversion = services.NewConversionService(c.Store, c.Sequence, c.Locker, logger,
		services.WithPaymentTermDays(cfg.Billing.PaymentTermDays))
	c.Stock = services.NewStockService(c.Store, logger)
	c.Invoices = services.NewInvoiceService(c.Store, logger)
	c.Payments = services.NewPaymentService(c.Store, logger)

	c.QuoteHandler = handlers.NewQuoteHandler(c.Quotes, c.Conversion, logger)
	c.InvoiceHandler = handlers.NewInvoiceHandler(c.Invoices, c.Payments, logger)
	c.StockHandler = handlers.NewStockHandler(c.Stock, logger)
	return c, nil
}

// UserExists is the auth.UserVerifier of the API. A failed lookup is logged
// and treated as an unknown user.
func (c *Container) UserExists(ctx context.Context, uid uint) bool {
	var count int64
	err := c.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count).Error
	if err != nil {
		logging.LogError(c.Log, "app", "UserExists", "count users", logrus.Fields{"user_id": uid}, err)
		return false
	}
	return count > 0
}

// Close releases the Redis client, if any.
func (c *Container) Close() error {
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}
