package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Mirrors the original product's mock positions page: Moutai, CATL and
// Wuliangye held against live-ish quotes.
func testHoldings() (*model.Account, []model.Position, map[string]model.Quote) {
	account := &model.Account{UserID: "u1", Cash: d(50000), UpdatedAt: time.Now()}
	positions := []model.Position{
		{UserID: "u1", Symbol: "600519", Name: "贵州茅台", Quantity: 100, AvgCost: d(1700)},
		{UserID: "u1", Symbol: "300750", Name: "宁德时代", Quantity: 300, AvgCost: d(165)},
		{UserID: "u1", Symbol: "000858", Name: "五粮液", Quantity: 200, AvgCost: d(160)},
	}
	quotes := map[string]model.Quote{
		"600519": {Symbol: "600519", Price: d(1850)},
		"300750": {Symbol: "300750", Price: d(185.5)},
		"000858": {Symbol: "000858", Price: d(155.2)},
	}
	return account, positions, quotes
}

func TestProject(t *testing.T) {
	account, positions, quotes := testHoldings()

	summary, err := Project(account, positions, quotes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 185000 + 55650 + 31040 = 271690
	if !summary.MarketValue.Equal(d(271690)) {
		t.Errorf("expected market value 271690, got %s", summary.MarketValue)
	}
	if !summary.TotalAssets.Equal(d(321690)) {
		t.Errorf("expected total assets 321690, got %s", summary.TotalAssets)
	}
	// 15000 + 6150 - 960 = 20190
	if !summary.UnrealizedPL.Equal(d(20190)) {
		t.Errorf("expected unrealized P&L 20190, got %s", summary.UnrealizedPL)
	}
	// 20190 / 251500 * 100 = 8.03
	if !summary.UnrealizedPLPct.Equal(d(8.03)) {
		t.Errorf("expected 8.03%%, got %s", summary.UnrealizedPLPct)
	}
	if summary.PositionCount != 3 {
		t.Errorf("expected 3 positions, got %d", summary.PositionCount)
	}
}

func TestProject_NoPositions(t *testing.T) {
	account := &model.Account{UserID: "u1", Cash: d(200000)}

	summary, err := Project(account, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.TotalAssets.Equal(d(200000)) {
		t.Errorf("expected total assets 200000, got %s", summary.TotalAssets)
	}
	if !summary.UnrealizedPLPct.IsZero() {
		t.Errorf("P&L percent should be 0 with no basis, got %s", summary.UnrealizedPLPct)
	}
}

func TestProject_MissingQuoteIsError(t *testing.T) {
	account, positions, quotes := testHoldings()
	delete(quotes, "300750")

	_, err := Project(account, positions, quotes)
	if !errors.Is(err, ledger.ErrQuoteUnavailable) {
		t.Errorf("expected ErrQuoteUnavailable, got %v", err)
	}
}

func TestProject_Deterministic(t *testing.T) {
	account, positions, quotes := testHoldings()

	first, err := Project(account, positions, quotes)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Project(account, positions, quotes)
	if err != nil {
		t.Fatal(err)
	}
	if !first.TotalAssets.Equal(second.TotalAssets) || !first.UnrealizedPL.Equal(second.UnrealizedPL) {
		t.Error("projection should be a pure function of its inputs")
	}
}

func TestEnrichPositions(t *testing.T) {
	_, positions, quotes := testHoldings()

	views, err := EnrichPositions(positions, quotes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}

	moutai := views[0]
	if !moutai.MarketValue.Equal(d(185000)) {
		t.Errorf("expected market value 185000, got %s", moutai.MarketValue)
	}
	if !moutai.ProfitLoss.Equal(d(15000)) {
		t.Errorf("expected P&L 15000, got %s", moutai.ProfitLoss)
	}
	if !moutai.ProfitLossPercent.Equal(d(8.82)) {
		t.Errorf("expected 8.82%%, got %s", moutai.ProfitLossPercent)
	}

	wuliangye := views[2]
	if !wuliangye.ProfitLoss.Equal(d(-960)) {
		t.Errorf("expected P&L -960, got %s", wuliangye.ProfitLoss)
	}
	if !wuliangye.ProfitLossPercent.Equal(d(-3)) {
		t.Errorf("expected -3%%, got %s", wuliangye.ProfitLossPercent)
	}
}

func TestEnrichPositions_MissingQuote(t *testing.T) {
	_, positions, quotes := testHoldings()
	delete(quotes, "000858")

	_, err := EnrichPositions(positions, quotes)
	if !errors.Is(err, ledger.ErrQuoteUnavailable) {
		t.Errorf("expected ErrQuoteUnavailable, got %v", err)
	}
}
