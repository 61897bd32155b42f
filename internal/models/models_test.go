package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClient_FullAddress(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{
			name: "full address",
			client: Client{
				Address:    "123 Main St",
				PostalCode: "75001",
				City:       "Paris",
				Country:    "France",
			},
			want: "123 Main St\n75001 Paris\nFrance",
		},
		{
			name:   "only city",
			client: Client{City: "Paris"},
			want:   "Paris",
		},
		{
			name:   "address and city",
			client: Client{Address: "123 Main St", City: "Paris"},
			want:   "123 Main St\nParis",
		},
		{
			name:   "empty",
			client: Client{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.FullAddress(); got != tt.want {
				t.Errorf("FullAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteStatus_Transitions(t *testing.T) {
	tests := []struct {
		from        QuoteStatus
		to          QuoteStatus
		allowed     bool
		convertible bool
	}{
		{QuoteStatusDraft, QuoteStatusSent, true, true},
		{QuoteStatusDraft, QuoteStatusConverted, true, true},
		{QuoteStatusSent, QuoteStatusAccepted, true, true},
		{QuoteStatusSent, QuoteStatusDraft, false, true},
		{QuoteStatusAccepted, QuoteStatusConverted, true, true},
		{QuoteStatusAccepted, QuoteStatusRejected, false, true},
		{QuoteStatusConverted, QuoteStatusConverted, false, false},
		{QuoteStatusConverted, QuoteStatusDraft, false, false},
		{QuoteStatusRejected, QuoteStatusConverted, false, false},
		{QuoteStatusExpired, QuoteStatusSent, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.allowed)
			}
			if got := tt.from.Convertible(); got != tt.convertible {
				t.Errorf("Convertible() = %v, want %v", got, tt.convertible)
			}
		})
	}
}

func TestSourceStatuses_Converted(t *testing.T) {
	got := SourceStatuses(QuoteStatusConverted)
	want := ConvertibleQuoteStatuses()
	if len(got) != len(want) {
		t.Fatalf("SourceStatuses(converted) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SourceStatuses(converted) = %v, want %v", got, want)
		}
	}
}

func TestQuote_Total(t *testing.T) {
	q := &Quote{
		Items: []QuoteItem{
			{Quantity: dec("3"), UnitPrice: dec("1000")},
			{Quantity: dec("0.5"), UnitPrice: dec("20")},
		},
	}
	if got := q.Total(); !got.Equal(dec("3010")) {
		t.Errorf("Total() = %s, want 3010", got)
	}
}

func TestInvoice_Status(t *testing.T) {
	tests := []struct {
		name     string
		status   InvoiceStatus
		isDraft  bool
		canEdit  bool
		payments bool
	}{
		{"draft", InvoiceStatusDraft, true, true, false},
		{"issued", InvoiceStatusIssued, false, false, true},
		{"partial", InvoiceStatusPartial, false, false, true},
		{"paid", InvoiceStatusPaid, false, false, false},
		{"cancelled", InvoiceStatusCancelled, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{Status: tt.status}
			if got := inv.IsDraft(); got != tt.isDraft {
				t.Errorf("IsDraft() = %v, want %v", got, tt.isDraft)
			}
			if got := inv.CanEdit(); got != tt.canEdit {
				t.Errorf("CanEdit() = %v, want %v", got, tt.canEdit)
			}
			if got := inv.AcceptsPayments(); got != tt.payments {
				t.Errorf("AcceptsPayments() = %v, want %v", got, tt.payments)
			}
		})
	}
}

func TestInvoice_Totals(t *testing.T) {
	invoice := &Invoice{
		Total: dec("280"),
		Items: []InvoiceItem{
			{Quantity: dec("2"), UnitPrice: dec("100")}, // 200
			{Quantity: dec("1"), UnitPrice: dec("50")},  // 50
			{Quantity: dec("3"), UnitPrice: dec("10")},  // 30
		},
		Payments: []Payment{{Amount: dec("80")}},
	}

	if got := invoice.ItemsTotal(); !got.Equal(dec("280")) {
		t.Errorf("ItemsTotal() = %s, want 280", got)
	}
	if got := invoice.AmountPaid(); !got.Equal(dec("80")) {
		t.Errorf("AmountPaid() = %s, want 80", got)
	}
	if got := invoice.Balance(); !got.Equal(dec("200")) {
		t.Errorf("Balance() = %s, want 200", got)
	}
}

func TestInvoice_DerivedPaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   InvoiceStatus
		payments []string
		want     InvoiceStatus
	}{
		{"draft stays draft", InvoiceStatusDraft, []string{"10"}, InvoiceStatusDraft},
		{"issued no payment", InvoiceStatusIssued, nil, InvoiceStatusIssued},
		{"partial payment", InvoiceStatusIssued, []string{"40"}, InvoiceStatusPartial},
		{"paid in two", InvoiceStatusPartial, []string{"40", "60"}, InvoiceStatusPaid},
		{"overpaid", InvoiceStatusIssued, []string{"150"}, InvoiceStatusPaid},
		{"cancelled stays cancelled", InvoiceStatusCancelled, []string{"100"}, InvoiceStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{Status: tt.status, Total: dec("100")}
			for _, p := range tt.payments {
				inv.Payments = append(inv.Payments, Payment{Amount: dec(p)})
			}
			if got := inv.DerivedPaymentStatus(); got != tt.want {
				t.Errorf("DerivedPaymentStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStockMovement_BeforeCreate(t *testing.T) {
	tests := []struct {
		name    string
		m       StockMovement
		wantErr bool
	}{
		{"valid out", StockMovement{Direction: MovementOut, Quantity: dec("3"), QuantityBefore: dec("10"), QuantityAfter: dec("7")}, false},
		{"valid in", StockMovement{Direction: MovementIn, Quantity: dec("5"), QuantityBefore: dec("0"), QuantityAfter: dec("5")}, false},
		{"zero quantity", StockMovement{Direction: MovementIn, Quantity: dec("0"), QuantityBefore: dec("1"), QuantityAfter: dec("1")}, true},
		{"bad arithmetic", StockMovement{Direction: MovementOut, Quantity: dec("3"), QuantityBefore: dec("10"), QuantityAfter: dec("8")}, true},
		{"unknown direction", StockMovement{Direction: "sideways", Quantity: dec("1"), QuantityBefore: dec("1"), QuantityAfter: dec("2")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.BeforeCreate(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeCreate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStockMovement_Immutable(t *testing.T) {
	m := &StockMovement{}
	if err := m.BeforeUpdate(nil); err != ErrMovementImmutable {
		t.Errorf("BeforeUpdate() = %v, want ErrMovementImmutable", err)
	}
	if err := m.BeforeDelete(nil); err != ErrMovementImmutable {
		t.Errorf("BeforeDelete() = %v, want ErrMovementImmutable", err)
	}
}

func TestStaffProfile_DefaultPOS(t *testing.T) {
	var nilProfile *StaffProfile
	if _, ok := nilProfile.DefaultPOS(); ok {
		t.Error("nil profile should have no default POS")
	}
	if _, ok := (&StaffProfile{}).DefaultPOS(); ok {
		t.Error("profile without POS should have no default POS")
	}
	id := uint(4)
	got, ok := (&StaffProfile{DefaultPointOfSaleID: &id}).DefaultPOS()
	if !ok || got != 4 {
		t.Errorf("DefaultPOS() = %d, %v, want 4, true", got, ok)
	}
}
