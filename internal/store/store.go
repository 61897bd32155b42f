// Package store wraps the GORM handle with the transactional primitives the
// conversion and stock workflows rely on: row locks, guarded updates and
// append-only movements.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistent relational store.
type Store struct {
	db *gorm.DB
}

// New wraps db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the handle bound to ctx for plain reads.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn in a single database transaction.
// Returning an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&Tx{db: gtx})
	})
}

// Tx is a unit of work inside Store.Transaction.
type Tx struct {
	db *gorm.DB
}

// DB exposes the transaction handle to collaborators such as numbering.
func (t *Tx) DB() *gorm.DB {
	return t.db
}

// forUpdate adds SELECT ... FOR UPDATE where the driver has row locks.
// SQLite serializes writers instead.
func (t *Tx) forUpdate() *gorm.DB {
	if t.db.Dialector.Name() == "sqlite" {
		return t.db
	}
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockQuote reads a quote with its items and products, locking the quote row.
func (t *Tx) LockQuote(id uint) (*models.Quote, error) {
	var q models.Quote
	err := t.forUpdate().
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Items.Product").
		First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock quote %d: %w", id, err)
	}
	return &q, nil
}

// QuoteStatus re-reads the current status of a quote.
func (t *Tx) QuoteStatus(id uint) (models.QuoteStatus, error) {
	var q models.Quote
	err := t.db.Select("id", "status").First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read quote status %d: %w", id, err)
	}
	return q.Status, nil
}

// TransitionQuote moves a quote to next only if its current status is one of from.
// It reports false when the row was not in an allowed status.
func (t *Tx) TransitionQuote(id uint, from []models.QuoteStatus, next models.QuoteStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": next, "updated_at": time.Now()}
	for k, v := range extra {
		updates[k] = v
	}
	res := t.db.Model(&models.Quote{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition quote %d to %s: %w", id, next, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// LockStock reads the stock level of a product at a point of sale with a row lock.
// A missing row means nothing on hand and is reported with found=false.
func (t *Tx) LockStock(productID, posID uint) (*models.StockLevel, bool, error) {
	var level models.StockLevel
	err := t.forUpdate().
		Where("product_id = ? AND point_of_sale_id = ?", productID, posID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.StockLevel{ProductID: productID, PointOfSaleID: posID, Quantity: decimal.Zero}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lock stock product=%d pos=%d: %w", productID, posID, err)
	}
	return &level, true, nil
}

// DecrementStock subtracts qty only if enough is on hand.
// It reports false, without writing, when the guard fails.
func (t *Tx) DecrementStock(productID, posID uint, qty decimal.Decimal) (bool, error) {
	res := t.db.Model(&models.StockLevel{}).
		Where("product_id = ? AND point_of_sale_id = ? AND quantity >= ?", productID, posID, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("decrement stock product=%d pos=%d: %w", productID, posID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock adds qty, creating the stock level when it does not exist yet.
func (t *Tx) IncrementStock(productID, posID uint, qty decimal.Decimal) error {
	res := t.db.Model(&models.StockLevel{}).
		Where("product_id = ? AND point_of_sale_id = ?", productID, posID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("increment stock product=%d pos=%d: %w", productID, posID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	level := models.StockLevel{ProductID: productID, PointOfSaleID: posID, Quantity: qty}
	if err := t.db.Create(&level).Error; err != nil {
		return fmt.Errorf("create stock product=%d pos=%d: %w", productID, posID, err)
	}
	return nil
}

// AppendMovement records a stock movement. Movements are never updated.
func (t *Tx) AppendMovement(m *models.StockMovement) error {
	if err := t.db.Create(m).Error; err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// CreateInvoice inserts an invoice with its items.
func (t *Tx) CreateInvoice(inv *models.Invoice) error {
	if err := t.db.Create(inv).Error; err != nil {
		return fmt.Errorf("create invoice %s: %w", inv.Number, err)
	}
	return nil
}

// LoadInvoice reads an invoice with items and payments.
func (t *Tx) LoadInvoice(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := t.forUpdate().
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Payments").
		First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return &inv, nil
}

// FindStaffProfile returns the staff profile of a user.
// A user without a profile yields ok=false and no error.
func (t *Tx) FindStaffProfile(userID uint) (*models.StaffProfile, bool, error) {
	return findStaffProfile(t.db, userID)
}

// FindStaffProfile is the non-transactional variant of Tx.FindStaffProfile.
func (s *Store) FindStaffProfile(ctx context.Context, userID uint) (*models.StaffProfile, bool, error) {
	return findStaffProfile(s.db.WithContext(ctx), userID)
}

func findStaffProfile(db *gorm.DB, userID uint) (*models.StaffProfile, bool, error) {
	var user models.User
	err := db.Preload("Profile").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.Profile == nil {
		return nil, false, nil
	}
	return user.Profile, true, nil
}

// PointOfSale reads an active point of sale.
func (t *Tx) PointOfSale(id uint) (*models.PointOfSale, error) {
	var pos models.PointOfSale
	err := t.db.Where("is_active = ?", true).First(&pos, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load point of sale %d: %w", id, err)
	}
	return &pos, nil
}

// Product reads a product by id.
func (t *Tx) Product(id uint) (*models.Product, error) {
	var p models.Product
	err := t.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	return &p, nil
}
