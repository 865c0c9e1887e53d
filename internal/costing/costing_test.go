package costing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/ledger"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// --- Quantity validation ---

func TestValidateQuantity_WholeLots(t *testing.T) {
	for _, qty := range []int64{100, 200, 1000, 123400} {
		if err := ValidateQuantity(qty); err != nil {
			t.Errorf("qty=%d should be valid, got %v", qty, err)
		}
	}
}

func TestValidateQuantity_OddLot(t *testing.T) {
	if err := ValidateQuantity(150); err != ledger.ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity for qty=150, got %v", err)
	}
}

func TestValidateQuantity_ZeroAndNegative(t *testing.T) {
	for _, qty := range []int64{0, -100, -1} {
		if err := ValidateQuantity(qty); err != ledger.ErrInvalidQuantity {
			t.Errorf("expected ErrInvalidQuantity for qty=%d, got %v", qty, err)
		}
	}
}

// --- Price validation ---

func TestValidatePrice_Positive(t *testing.T) {
	if err := ValidatePrice(d(1850.00)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidatePrice_ZeroAndNegative(t *testing.T) {
	for _, p := range []float64{0, -0.01, -1850} {
		if err := ValidatePrice(d(p)); err != ledger.ErrInvalidPrice {
			t.Errorf("expected ErrInvalidPrice for price=%v, got %v", p, err)
		}
	}
}

// --- Notional ---

func TestNotional(t *testing.T) {
	got := Notional(100, d(1850.00))
	if !got.Equal(d(185000)) {
		t.Errorf("expected 185000, got %s", got)
	}
}

// --- Average cost blending ---

func TestBlendAvgCost_FirstBuy(t *testing.T) {
	got := BlendAvgCost(0, decimal.Zero, 100, d(1850.00))
	if !got.Equal(d(1850.00)) {
		t.Errorf("first buy should set avg cost to price, got %s", got)
	}
}

func TestBlendAvgCost_SecondBuy(t *testing.T) {
	// 100 @ 1700, then 100 @ 1900 → avg 1800.
	got := BlendAvgCost(100, d(1700), 100, d(1900))
	if !got.Equal(d(1800)) {
		t.Errorf("expected avg 1800, got %s", got)
	}
}

func TestBlendAvgCost_UnevenSizes(t *testing.T) {
	// 300 @ 10, then 100 @ 14 → (3000+1400)/400 = 11.
	got := BlendAvgCost(300, d(10), 100, d(14))
	if !got.Equal(d(11)) {
		t.Errorf("expected avg 11, got %s", got)
	}
}

func TestBlendAvgCost_RoundsToCostScale(t *testing.T) {
	// (100*10 + 200*10.10)/300 = 10.0666... → 10.0667 at 4 places.
	got := BlendAvgCost(100, d(10), 200, d(10.10))
	if !got.Equal(d(10.0667)) {
		t.Errorf("expected 10.0667, got %s", got)
	}
}

// --- Realized / unrealized P&L ---

func TestRealizedPL_Gain(t *testing.T) {
	// Spec scenario: sell 50 @ 2000 against avg cost 1850 → 7500.
	got := RealizedPL(50, d(2000), d(1850))
	if !got.Equal(d(7500)) {
		t.Errorf("expected 7500, got %s", got)
	}
}

func TestRealizedPL_Loss(t *testing.T) {
	got := RealizedPL(200, d(155.20), d(160))
	if !got.Equal(d(-960)) {
		t.Errorf("expected -960, got %s", got)
	}
}

func TestUnrealizedPL(t *testing.T) {
	got := UnrealizedPL(100, d(1850), d(1700))
	if !got.Equal(d(15000)) {
		t.Errorf("expected 15000, got %s", got)
	}
}
