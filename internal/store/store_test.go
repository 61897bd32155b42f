package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-pos/internal/db/dbtest"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	store   *store.Store
	pos     models.PointOfSale
	product models.Product
	user    models.User
	quote   models.Quote
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := dbtest.OpenSeeded(t)
	f := &fixture{db: d, store: store.New(d)}
	if err := d.Where("code = ?", "MAIN").First(&f.pos).Error; err != nil {
		t.Fatal(err)
	}
	if err := d.Where("code = ?", "P-001").First(&f.product).Error; err != nil {
		t.Fatal(err)
	}
	if err := d.Where("email = ?", "admin@example.com").First(&f.user).Error; err != nil {
		t.Fatal(err)
	}
	if err := d.Where("number = ?", "Q-1001").First(&f.quote).Error; err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) onHand(t *testing.T) decimal.Decimal {
	t.Helper()
	var level models.StockLevel
	if err := f.db.Where("product_id = ? AND point_of_sale_id = ?", f.product.ID, f.pos.ID).First(&level).Error; err != nil {
		t.Fatal(err)
	}
	return level.Quantity
}

func TestDecrementStock_Guard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		qty     int64
		wantOK  bool
		wantQty int64
	}{
		{"partial", 4, true, 6},
		{"too much", 7, false, 6},
		{"exact", 6, true, 0},
		{"empty", 1, false, 0},
	}
	for _, tt := range tests {
		var ok bool
		err := f.store.Transaction(ctx, func(tx *store.Tx) error {
			var err error
			ok, err = tx.DecrementStock(f.product.ID, f.pos.ID, decimal.NewFromInt(tt.qty))
			return err
		})
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if ok != tt.wantOK {
			t.Errorf("%s: ok = %v, want %v", tt.name, ok, tt.wantOK)
		}
		if got := f.onHand(t); !got.Equal(decimal.NewFromInt(tt.wantQty)) {
			t.Errorf("%s: on hand = %s, want %d", tt.name, got, tt.wantQty)
		}
	}
}

func TestIncrementStock_CreatesMissingLevel(t *testing.T) {
	f := newFixture(t)
	other := models.PointOfSale{Code: "ANNEX", Name: "Annexe"}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatal(err)
	}
	err := f.store.Transaction(context.Background(), func(tx *store.Tx) error {
		level, found, err := tx.LockStock(f.product.ID, other.ID)
		if err != nil {
			return err
		}
		if found || !level.Quantity.IsZero() {
			t.Errorf("expected missing level with zero quantity, got found=%v qty=%s", found, level.Quantity)
		}
		if err := tx.IncrementStock(f.product.ID, other.ID, decimal.NewFromInt(5)); err != nil {
			return err
		}
		return tx.IncrementStock(f.product.ID, other.ID, decimal.NewFromInt(2))
	})
	if err != nil {
		t.Fatal(err)
	}
	var level models.StockLevel
	if err := f.db.Where("product_id = ? AND point_of_sale_id = ?", f.product.ID, other.ID).First(&level).Error; err != nil {
		t.Fatal(err)
	}
	if !level.Quantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("quantity = %s, want 7", level.Quantity)
	}
}

func TestTransitionQuote_Guarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	transition := func(from []models.QuoteStatus, next models.QuoteStatus) bool {
		var ok bool
		err := f.store.Transaction(ctx, func(tx *store.Tx) error {
			var err error
			ok, err = tx.TransitionQuote(f.quote.ID, from, next, nil)
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
		return ok
	}

	if !transition(models.ConvertibleQuoteStatuses(), models.QuoteStatusConverted) {
		t.Fatal("first conversion should update the row")
	}
	if transition(models.ConvertibleQuoteStatuses(), models.QuoteStatusConverted) {
		t.Fatal("second conversion must not match any row")
	}
	err := f.store.Transaction(ctx, func(tx *store.Tx) error {
		status, err := tx.QuoteStatus(f.quote.ID)
		if err != nil {
			return err
		}
		if status != models.QuoteStatusConverted {
			t.Errorf("status = %s, want converted", status)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	err := f.store.Transaction(context.Background(), func(tx *store.Tx) error {
		if _, err := tx.DecrementStock(f.product.ID, f.pos.ID, decimal.NewFromInt(3)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if got := f.onHand(t); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("on hand = %s after rollback, want 10", got)
	}
}

func TestLockQuote(t *testing.T) {
	f := newFixture(t)
	err := f.store.Transaction(context.Background(), func(tx *store.Tx) error {
		q, err := tx.LockQuote(f.quote.ID)
		if err != nil {
			return err
		}
		if len(q.Items) != 1 || q.Items[0].Product == nil || q.Items[0].Product.Code != "P-001" {
			t.Errorf("items not preloaded: %+v", q.Items)
		}
		if _, err := tx.LockQuote(9999); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("missing quote err = %v, want ErrNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestFindStaffProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, ok, err := f.store.FindStaffProfile(ctx, f.user.ID)
	if err != nil || !ok {
		t.Fatalf("seeded user should have a profile: ok=%v err=%v", ok, err)
	}
	if posID, has := profile.DefaultPOS(); !has || posID != f.pos.ID {
		t.Errorf("DefaultPOS = %d,%v", posID, has)
	}

	bare := models.User{Email: "bare@example.com"}
	if err := f.db.Create(&bare).Error; err != nil {
		t.Fatal(err)
	}
	profile, ok, err = f.store.FindStaffProfile(ctx, bare.ID)
	if err != nil || ok || profile != nil {
		t.Errorf("user without profile: profile=%v ok=%v err=%v", profile, ok, err)
	}

	if _, _, err := f.store.FindStaffProfile(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
}

func TestAppendMovement_Immutable(t *testing.T) {
	f := newFixture(t)
	m := models.StockMovement{
		ProductID:      f.product.ID,
		PointOfSaleID:  f.pos.ID,
		Direction:      models.MovementOut,
		Quantity:       decimal.NewFromInt(1),
		QuantityBefore: decimal.NewFromInt(10),
		QuantityAfter:  decimal.NewFromInt(9),
		Reason:         models.ReasonManualAdjustment,
		UserID:         f.user.ID,
	}
	err := f.store.Transaction(context.Background(), func(tx *store.Tx) error {
		return tx.AppendMovement(&m)
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.db.Model(&m).Update("reason", "tampered").Error; !errors.Is(err, models.ErrMovementImmutable) {
		t.Errorf("update err = %v, want ErrMovementImmutable", err)
	}
	if err := f.db.Delete(&m).Error; !errors.Is(err, models.ErrMovementImmutable) {
		t.Errorf("delete err = %v, want ErrMovementImmutable", err)
	}
}
