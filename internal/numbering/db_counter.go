package numbering

import (
	"context"
	"fmt"

	"github.com/diewo77/go-pos/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBCounter keeps counters in the document_sequences table.
type DBCounter struct {
	db *gorm.DB
}

// NewDBCounter returns a counter that falls back to db when no transaction is given.
func NewDBCounter(db *gorm.DB) *DBCounter {
	return &DBCounter{db: db}
}

// Increment returns the current value for key and advances it, under a row lock.
func (c *DBCounter) Increment(ctx context.Context, tx *gorm.DB, key string) (int64, error) {
	if tx != nil {
		return increment(tx.WithContext(ctx), key)
	}
	var n int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = increment(tx, key)
		return err
	})
	return n, err
}

func increment(tx *gorm.DB, key string) (int64, error) {
	seed := models.DocumentSequence{Scope: key, NextValue: 1}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("init sequence: %w", err)
	}
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var seq models.DocumentSequence
	if err := q.Where("scope = ?", key).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("lock sequence: %w", err)
	}
	if err := tx.Model(&models.DocumentSequence{}).
		Where("id = ?", seq.ID).
		Update("next_value", seq.NextValue+1).Error; err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return seq.NextValue, nil
}
