package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-pos/internal/models"
)

func TestStockReceive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.stock.Receive(ctx, e.terminal.ID, e.pos.ID, dec("5"), e.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if m.Direction != models.MovementIn || m.Reason != models.ReasonStockReceived ||
		!m.QuantityBefore.Equal(dec("10")) || !m.QuantityAfter.Equal(dec("15")) {
		t.Errorf("unexpected movement: %+v", m)
	}
	if got := e.onHand(t, e.terminal.ID); !got.Equal(dec("15")) {
		t.Errorf("stock = %s, want 15", got)
	}

	for _, qty := range []string{"0", "-1", "0.00001"} {
		if _, err := e.stock.Receive(ctx, e.terminal.ID, e.pos.ID, dec(qty), e.user.ID); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("Receive(%s) error = %v, want ErrInvalidQuantity", qty, err)
		}
	}
	if _, err := e.stock.Receive(ctx, 9999, e.pos.ID, dec("1"), e.user.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("unknown product error = %v", err)
	}
	if _, err := e.stock.Receive(ctx, e.terminal.ID, 9999, dec("1"), e.user.ID); !errors.Is(err, ErrPointOfSaleNotFound) {
		t.Errorf("unknown point of sale error = %v", err)
	}
}

func TestStockReceive_NewPointOfSale(t *testing.T) {
	e := newEnv(t)
	annex := models.PointOfSale{Code: "ANNEX", Name: "Annexe", IsActive: true}
	if err := e.db.Create(&annex).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := e.stock.Receive(context.Background(), e.rolls.ID, annex.ID, dec("3"), e.user.ID); err != nil {
		t.Fatal(err)
	}
	qty, err := e.stock.OnHand(context.Background(), e.rolls.ID, annex.ID)
	if err != nil || !qty.Equal(dec("3")) {
		t.Errorf("OnHand() = %s, %v; want 3", qty, err)
	}
}

func TestStockAdjust(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.stock.Adjust(ctx, e.rolls.ID, e.pos.ID, dec("-4"), e.user.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Direction != models.MovementOut || m.Reason != models.ReasonManualAdjustment || !m.Quantity.Equal(dec("4")) {
		t.Errorf("unexpected movement: %+v", m)
	}
	if got := e.onHand(t, e.rolls.ID); !got.Equal(dec("6")) {
		t.Errorf("stock = %s, want 6", got)
	}

	_, err = e.stock.Adjust(ctx, e.rolls.ID, e.pos.ID, dec("-7"), e.user.ID, "")
	var ise *InsufficientStockError
	if !errors.As(err, &ise) || !ise.Shortfall.Equal(dec("1")) {
		t.Fatalf("Adjust() below zero error = %v", err)
	}
	if got := e.onHand(t, e.rolls.ID); !got.Equal(dec("6")) {
		t.Errorf("stock = %s after refused adjustment, want 6", got)
	}

	if _, err := e.stock.Adjust(ctx, e.rolls.ID, e.pos.ID, dec("0"), e.user.ID, ""); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero adjustment error = %v", err)
	}
	if _, err := e.stock.Adjust(ctx, e.rolls.ID, e.pos.ID, dec("-0.12345"), e.user.ID, ""); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("over-precise adjustment error = %v", err)
	}
	if _, err := e.stock.Adjust(ctx, e.rolls.ID, e.pos.ID, dec("2.5"), e.user.ID, ""); err != nil {
		t.Fatal(err)
	}
	if got := e.onHand(t, e.rolls.ID); !got.Equal(dec("8.5")) {
		t.Errorf("stock = %s, want 8.5", got)
	}
}

func TestStockLevelsAndMovements(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	levels, err := e.stock.Levels(ctx, e.pos.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 2 || levels[0].Product == nil || levels[0].Product.Code != "P-001" {
		t.Fatalf("Levels() = %+v", levels)
	}

	if _, err := e.stock.Receive(ctx, e.terminal.ID, e.pos.ID, dec("1"), e.user.ID); err != nil {
		t.Fatal(err)
	}
	movements, err := e.stock.Movements(ctx, MovementFilter{ProductID: e.terminal.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(movements) != 2 {
		t.Errorf("movements = %d, want 2 (seed + receive)", len(movements))
	}
	limited, _ := e.stock.Movements(ctx, MovementFilter{PointOfSaleID: e.pos.ID, Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limited movements = %d, want 1", len(limited))
	}
}

func TestStockReconcile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.stock.Adjust(ctx, e.terminal.ID, e.pos.ID, dec("-2"), e.user.ID, ""); err != nil {
		t.Fatal(err)
	}
	clean, err := e.stock.Reconcile(ctx, e.pos.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(clean) != 0 {
		t.Fatalf("Reconcile() = %+v, want none", clean)
	}

	// A write that bypasses the service leaves the level out of step.
	if err := e.db.Model(&models.StockLevel{}).
		Where("product_id = ? AND point_of_sale_id = ?", e.rolls.ID, e.pos.ID).
		Update("quantity", dec("12")).Error; err != nil {
		t.Fatal(err)
	}
	got, err := e.stock.Reconcile(ctx, e.pos.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("Reconcile() = %+v, want one discrepancy", got)
	}
	d := got[0]
	if d.ProductID != e.rolls.ID || d.ProductCode != "P-002" ||
		!d.Recorded.Equal(dec("12")) || !d.Computed.Equal(dec("10")) || !d.Difference.Equal(dec("2")) {
		t.Errorf("unexpected discrepancy: %+v", d)
	}
}
