package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/diewo77/go-pos/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StockService records stock arrivals and corrections and answers stock queries.
type StockService struct {
	store *store.Store
	log   *logrus.Logger
}

func NewStockService(st *store.Store, logger *logrus.Logger) *StockService {
	return &StockService{store: st, log: logger}
}

// Receive adds qty of a product to a point of sale.
func (s *StockService) Receive(ctx context.Context, productID, posID uint, qty decimal.Decimal, userID uint) (*models.StockMovement, error) {
	if !qty.IsPositive() || !validation.FitsScale(qty, validation.MaxDecimalPlaces) {
		return nil, ErrInvalidQuantity
	}
	return s.apply(ctx, productID, posID, qty, userID, models.ReasonStockReceived)
}

// Adjust applies a signed correction. A correction that would make the
// quantity negative fails with *InsufficientStockError.
func (s *StockService) Adjust(ctx context.Context, productID, posID uint, delta decimal.Decimal, userID uint, reason models.MovementReason) (*models.StockMovement, error) {
	if delta.IsZero() || !validation.FitsScale(delta, validation.MaxDecimalPlaces) {
		return nil, ErrInvalidQuantity
	}
	if reason == "" {
		reason = models.ReasonManualAdjustment
	}
	return s.apply(ctx, productID, posID, delta, userID, reason)
}

func (s *StockService) apply(ctx context.Context, productID, posID uint, delta decimal.Decimal, userID uint, reason models.MovementReason) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		product, err := tx.Product(productID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return persistence("load product", err)
		}
		if _, err := tx.PointOfSale(posID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPointOfSaleNotFound
			}
			return persistence("load point of sale", err)
		}

		level, _, err := tx.LockStock(productID, posID)
		if err != nil {
			return persistence("lock stock", err)
		}
		m := &models.StockMovement{
			ProductID:      productID,
			PointOfSaleID:  posID,
			Direction:      models.MovementIn,
			Quantity:       delta.Abs(),
			QuantityBefore: level.Quantity,
			QuantityAfter:  level.Quantity.Add(delta),
			Reason:         reason,
			UserID:         userID,
		}
		if delta.IsNegative() {
			m.Direction = models.MovementOut
			ok, err := tx.DecrementStock(productID, posID, delta.Abs())
			if err != nil {
				return persistence("decrement stock", err)
			}
			if !ok {
				return newInsufficientStockError(posID, []StockShortfall{
					newShortfall(productID, product.Code, delta.Abs(), level.Quantity),
				})
			}
		} else if err := tx.IncrementStock(productID, posID, delta); err != nil {
			return persistence("increment stock", err)
		}
		if err := tx.AppendMovement(m); err != nil {
			return persistence("append stock movement", err)
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, classify("commit stock change", err)
	}
	s.log.WithFields(logrus.Fields{
		"product_id": productID,
		"pos_id":     posID,
		"direction":  movement.Direction,
		"quantity":   movement.Quantity.String(),
		"reason":     reason,
	}).Info("stock changed")
	return movement, nil
}

// OnHand returns the quantity of a product at a point of sale; zero when never stocked.
func (s *StockService) OnHand(ctx context.Context, productID, posID uint) (decimal.Decimal, error) {
	var levels []models.StockLevel
	err := s.store.DB(ctx).
		Where("product_id = ? AND point_of_sale_id = ?", productID, posID).
		Limit(1).Find(&levels).Error
	if err != nil {
		return decimal.Zero, persistence("read stock", err)
	}
	if len(levels) == 0 {
		return decimal.Zero, nil
	}
	return levels[0].Quantity, nil
}

// Levels lists the stock of a point of sale with product details.
func (s *StockService) Levels(ctx context.Context, posID uint) ([]models.StockLevel, error) {
	var levels []models.StockLevel
	err := s.store.DB(ctx).
		Preload("Product").
		Where("point_of_sale_id = ?", posID).
		Order("product_id").
		Find(&levels).Error
	if err != nil {
		return nil, persistence("list stock", err)
	}
	return levels, nil
}

// MovementFilter narrows Movements. Zero values match everything.
type MovementFilter struct {
	ProductID     uint
	PointOfSaleID uint
	InvoiceID     uint
	Since         time.Time
	Limit         int
}

// Movements lists stock movements, oldest first.
func (s *StockService) Movements(ctx context.Context, f MovementFilter) ([]models.StockMovement, error) {
	q := s.store.DB(ctx).Model(&models.StockMovement{})
	if f.ProductID != 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.PointOfSaleID != 0 {
		q = q.Where("point_of_sale_id = ?", f.PointOfSaleID)
	}
	if f.InvoiceID != 0 {
		q = q.Where("invoice_id = ?", f.InvoiceID)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var movements []models.StockMovement
	if err := q.Order("id").Find(&movements).Error; err != nil {
		return nil, persistence("list stock movements", err)
	}
	return movements, nil
}

// Discrepancy is a stock level that does not match its movement history.
type Discrepancy struct {
	ProductID   uint            `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Recorded    decimal.Decimal `json:"recorded"`
	Computed    decimal.Decimal `json:"computed"`
	Difference  decimal.Decimal `json:"difference"`
}

// Reconcile recomputes Σ(in) − Σ(out) per product from the movements of a
// point of sale and returns the levels that disagree.
func (s *StockService) Reconcile(ctx context.Context, posID uint) ([]Discrepancy, error) {
	movements, err := s.Movements(ctx, MovementFilter{PointOfSaleID: posID})
	if err != nil {
		return nil, err
	}
	computed := map[uint]decimal.Decimal{}
	for _, m := range movements {
		computed[m.ProductID] = computed[m.ProductID].Add(m.Delta())
	}

	levels, err := s.Levels(ctx, posID)
	if err != nil {
		return nil, err
	}
	var out []Discrepancy
	seen := map[uint]bool{}
	for _, level := range levels {
		seen[level.ProductID] = true
		want := computed[level.ProductID]
		if level.Quantity.Equal(want) {
			continue
		}
		code := ""
		if level.Product != nil {
			code = level.Product.Code
		}
		out = append(out, Discrepancy{
			ProductID:   level.ProductID,
			ProductCode: code,
			Recorded:    level.Quantity,
			Computed:    want,
			Difference:  level.Quantity.Sub(want),
		})
	}
	// Movements for products that have no stock row at all.
	for productID, want := range computed {
		if seen[productID] || want.IsZero() {
			continue
		}
		out = append(out, Discrepancy{
			ProductID:  productID,
			Recorded:   decimal.Zero,
			Computed:   want,
			Difference: want.Neg(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}
