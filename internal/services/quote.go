package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/numbering"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/diewo77/go-pos/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NewQuote is the input of QuoteService.Create.
type NewQuote struct {
	ClientID    uint           `json:"client_id" validate:"required"`
	CreatedByID uint           `json:"-"`
	ValidUntil  *time.Time     `json:"valid_until,omitempty"`
	Notes       string         `json:"notes,omitempty" validate:"max=2000"`
	Items       []NewQuoteItem `json:"items" validate:"required,min=1,dive"`
}

// NewQuoteItem is one requested line. A nil UnitPrice takes the product's selling price.
type NewQuoteItem struct {
	ProductID   uint             `json:"product_id" validate:"required"`
	Description string           `json:"description,omitempty" validate:"max=500"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0,decimals=4"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0,decimals=4"`
}

// QuoteService manages the quote lifecycle up to conversion.
type QuoteService struct {
	store *store.Store
	seq   numbering.Sequence
	log   *logrus.Logger
	now   func() time.Time
}

func NewQuoteService(st *store.Store, seq numbering.Sequence, logger *logrus.Logger) *QuoteService {
	return &QuoteService{store: st, seq: seq, log: logger, now: time.Now}
}

// Create validates in and stores a draft quote with a freshly allocated number.
func (s *QuoteService) Create(ctx context.Context, in NewQuote) (*models.Quote, error) {
	if err := validation.Struct(in).Err(); err != nil {
		return nil, err
	}
	var quote *models.Quote
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		var clients int64
		if err := tx.DB().Model(&models.Client{}).Where("id = ?", in.ClientID).Count(&clients).Error; err != nil {
			return persistence("load client", err)
		}
		if clients == 0 {
			return ErrClientNotFound
		}

		q := &models.Quote{
			ClientID:    in.ClientID,
			CreatedByID: in.CreatedByID,
			Status:      models.QuoteStatusDraft,
			ValidUntil:  in.ValidUntil,
			Notes:       in.Notes,
		}
		for i, item := range in.Items {
			product, err := tx.Product(item.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
			}
			if err != nil {
				return persistence("load product", err)
			}
			price := product.SellingPrice
			if item.UnitPrice != nil {
				price = *item.UnitPrice
			}
			desc := item.Description
			if desc == "" {
				desc = product.Name
			}
			q.Items = append(q.Items, models.QuoteItem{
				ProductID:   product.ID,
				Description: desc,
				Quantity:    item.Quantity,
				UnitPrice:   price,
				Position:    i + 1,
			})
		}

		number, err := s.seq.Next(ctx, tx.DB(), numbering.ScopeQuote)
		if err != nil {
			return persistence("allocate quote number", err)
		}
		q.Number = number
		if err := tx.DB().Create(q).Error; err != nil {
			return persistence("create quote", err)
		}
		quote = q
		return nil
	})
	if err != nil {
		return nil, classify("commit quote", err)
	}
	s.log.WithFields(logrus.Fields{"quote_id": quote.ID, "quote_number": quote.Number}).Info("quote created")
	return quote, nil
}

// Get returns a quote with its items and products.
func (s *QuoteService) Get(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	err := s.store.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Items.Product").
		Preload("Client").
		First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, persistence("load quote", err)
	}
	return &q, nil
}

// Send marks a draft quote as sent to the client.
func (s *QuoteService) Send(ctx context.Context, id uint) (*models.Quote, error) {
	return s.transition(ctx, id, models.QuoteStatusSent)
}

// Accept records the client's acceptance of a sent quote.
func (s *QuoteService) Accept(ctx context.Context, id uint) (*models.Quote, error) {
	return s.transition(ctx, id, models.QuoteStatusAccepted)
}

// Reject records the client's refusal.
func (s *QuoteService) Reject(ctx context.Context, id uint) (*models.Quote, error) {
	return s.transition(ctx, id, models.QuoteStatusRejected)
}

// Expire closes a quote that is no longer valid.
func (s *QuoteService) Expire(ctx context.Context, id uint) (*models.Quote, error) {
	return s.transition(ctx, id, models.QuoteStatusExpired)
}

func (s *QuoteService) transition(ctx context.Context, id uint, to models.QuoteStatus) (*models.Quote, error) {
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		ok, err := tx.TransitionQuote(id, models.SourceStatuses(to), to, nil)
		if err != nil {
			return persistence("transition quote", err)
		}
		if ok {
			return nil
		}
		status, err := tx.QuoteStatus(id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrQuoteNotFound
		}
		if err != nil {
			return persistence("read quote status", err)
		}
		return &TransitionError{QuoteID: id, From: status, To: to}
	})
	if err != nil {
		return nil, classify("commit quote transition", err)
	}
	s.log.WithFields(logrus.Fields{"quote_id": id, "status": to}).Info("quote status changed")
	return s.Get(ctx, id)
}

// AppendNote adds a timestamped line to the quote notes. It is the only
// change allowed once a quote is converted.
func (s *QuoteService) AppendNote(ctx context.Context, id uint, note string) (*models.Quote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, validation.Violations{"note": "required"}.Err()
	}
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		q, err := tx.LockQuote(id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrQuoteNotFound
		}
		if err != nil {
			return persistence("lock quote", err)
		}
		line := fmt.Sprintf("[%s] %s", s.now().UTC().Format("2006-01-02 15:04"), note)
		notes := line
		if q.Notes != "" {
			notes = q.Notes + "\n" + line
		}
		if err := tx.DB().Model(&models.Quote{}).Where("id = ?", id).Update("notes", notes).Error; err != nil {
			return persistence("append note", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify("commit note", err)
	}
	return s.Get(ctx, id)
}

// ExpireOverdue expires every open quote whose validity ended before now.
func (s *QuoteService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.store.DB(ctx).Model(&models.Quote{}).
		Where("status IN ? AND valid_until IS NOT NULL AND valid_until < ?",
			models.SourceStatuses(models.QuoteStatusExpired), now).
		Updates(map[string]any{"status": models.QuoteStatusExpired, "updated_at": now})
	if res.Error != nil {
		return 0, persistence("expire overdue quotes", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.WithField("count", res.RowsAffected).Info("overdue quotes expired")
	}
	return res.RowsAffected, nil
}
