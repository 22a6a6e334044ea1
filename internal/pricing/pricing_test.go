package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func int64Ptr(v int64) *int64 { return &v }

func TestDiscountAmountPercentageRoundsToCents(t *testing.T) {
	d := domain.Discount{ValueType: domain.DiscountValuePercentage, Value: dec("12.5")}
	got := DiscountAmount(d, dec("333.33"))
	if !got.Equal(dec("41.67")) {
		t.Fatalf("expected 41.67, got %s", got)
	}
}

func TestDiscountAmountNeverExceedsBase(t *testing.T) {
	pct := domain.Discount{ValueType: domain.DiscountValuePercentage, Value: dec("150")}
	if got := DiscountAmount(pct, dec("10000")); !got.Equal(dec("10000")) {
		t.Fatalf("expected percentage above 100 to cap at base, got %s", got)
	}

	nominal := domain.Discount{ValueType: domain.DiscountValueNominal, Value: dec("25000")}
	if got := DiscountAmount(nominal, dec("10000")); !got.Equal(dec("10000")) {
		t.Fatalf("expected nominal to cap at base, got %s", got)
	}
	if got := DiscountAmount(nominal, dec("40000")); !got.Equal(dec("25000")) {
		t.Fatalf("expected nominal value when below base, got %s", got)
	}
}

func TestDiscountAmountZeroForEmptyBase(t *testing.T) {
	d := domain.Discount{ValueType: domain.DiscountValueNominal, Value: dec("5000")}
	if got := DiscountAmount(d, decimal.Zero); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestCheckCartAppliesProductAndTotalDiscounts(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	discounts := []domain.Discount{
		{ID: 1, Name: "Mie 10%", Type: domain.DiscountScopeProduct, ValueType: domain.DiscountValuePercentage, Value: dec("10"), ProductID: int64Ptr(7), IsActive: true},
		{ID: 2, Name: "Belanja 50rb", Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: dec("5000"), MinPurchase: dec("50000"), IsActive: true},
		{ID: 3, Name: "Belanja 500rb", Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: dec("50000"), MinPurchase: dec("500000"), IsActive: true},
	}
	lines := []domain.CartLine{
		{ProductID: 7, Qty: 4, Price: dec("3500")},
		{ProductID: 9, Qty: 2, Price: dec("26500")},
		{ProductID: 7, Qty: 1, Price: dec("3500")},
	}

	result := CheckCart(discounts, lines, now)
	if !result.Subtotal.Equal(dec("70500")) {
		t.Fatalf("expected subtotal 70500, got %s", result.Subtotal)
	}
	// 10% of the first mie line (14000) plus 5000 nominal.
	if !result.TotalDiscount.Equal(dec("6400")) {
		t.Fatalf("expected total discount 6400, got %s", result.TotalDiscount)
	}
	if !result.GrandTotal.Equal(dec("64100")) {
		t.Fatalf("expected grand total 64100, got %s", result.GrandTotal)
	}
	if len(result.AppliedDiscounts) != 2 {
		t.Fatalf("expected two applied discounts, got %d", len(result.AppliedDiscounts))
	}
}

func TestCheckCartSkipsInactiveAndOutOfWindowDiscounts(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	discounts := []domain.Discount{
		{ID: 1, Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: dec("1000"), IsActive: false},
		{ID: 2, Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: dec("1000"), IsActive: true, EndDate: &past},
		{ID: 3, Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: dec("1000"), IsActive: true, StartDate: &future},
	}
	result := CheckCart(discounts, []domain.CartLine{{ProductID: 1, Qty: 1, Price: dec("10000")}}, now)
	if !result.TotalDiscount.IsZero() {
		t.Fatalf("expected no discount, got %s", result.TotalDiscount)
	}
	if len(result.AppliedDiscounts) != 0 {
		t.Fatalf("expected no applied discounts")
	}
}

func TestCheckCartCapsStackedNominalsAtSubtotal(t *testing.T) {
	now := time.Now()
	discounts := []domain.Discount{
		{ID: 1, Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: dec("8000"), IsActive: true},
		{ID: 2, Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: dec("8000"), IsActive: true},
	}
	result := CheckCart(discounts, []domain.CartLine{{ProductID: 1, Qty: 1, Price: dec("10000")}}, now)
	if !result.TotalDiscount.Equal(dec("10000")) {
		t.Fatalf("expected discount capped at 10000, got %s", result.TotalDiscount)
	}
	if result.GrandTotal.Sign() != 0 {
		t.Fatalf("expected grand total 0, got %s", result.GrandTotal)
	}
}

func TestResolveTierPicksLargestQualifyingMinQty(t *testing.T) {
	tiers := []domain.WholesalePrice{
		{ID: 1, MinQty: 5, Price: dec("3300"), IsActive: true},
		{ID: 2, MinQty: 10, Price: dec("3100"), IsActive: true},
		{ID: 3, MinQty: 24, Price: dec("2900"), IsActive: true},
		{ID: 4, MinQty: 12, Price: dec("2000"), IsActive: false},
	}

	cases := []struct {
		qty    int
		wantID int64
		found  bool
	}{
		{qty: 4, found: false},
		{qty: 5, wantID: 1, found: true},
		{qty: 12, wantID: 2, found: true},
		{qty: 30, wantID: 3, found: true},
	}
	for _, tc := range cases {
		tier, ok := ResolveTier(tiers, tc.qty)
		if ok != tc.found {
			t.Fatalf("qty %d: expected found=%t", tc.qty, tc.found)
		}
		if ok && tier.ID != tc.wantID {
			t.Fatalf("qty %d: expected tier %d, got %d", tc.qty, tc.wantID, tier.ID)
		}
	}
}

func TestQuoteFallsBackToSellPrice(t *testing.T) {
	product := domain.Product{ID: 1, Name: "Mie", SellPrice: dec("3500")}
	quote := Quote(product, nil, 3)
	if quote.IsWholesale {
		t.Fatalf("expected normal pricing")
	}
	if !quote.FinalTotal.Equal(dec("10500")) {
		t.Fatalf("expected final total 10500, got %s", quote.FinalTotal)
	}
}

func TestQuoteReportsSavings(t *testing.T) {
	product := domain.Product{ID: 1, Name: "Mie", SellPrice: dec("3500")}
	tiers := []domain.WholesalePrice{{ID: 1, MinQty: 10, Price: dec("3000"), IsActive: true}}
	quote := Quote(product, tiers, 12)
	if !quote.IsWholesale || quote.WholesaleInfo == nil {
		t.Fatalf("expected wholesale pricing")
	}
	if !quote.Savings.Equal(dec("6000")) {
		t.Fatalf("expected savings 6000, got %s", quote.Savings)
	}
	if !quote.SavingsPercent.Equal(dec("14.3")) {
		t.Fatalf("expected savings percent 14.3, got %s", quote.SavingsPercent)
	}
}

func TestTiersSortsAndAnnotates(t *testing.T) {
	out := Tiers(dec("4000"), []domain.WholesalePrice{
		{ID: 2, MinQty: 20, Price: dec("3000")},
		{ID: 1, MinQty: 10, Price: dec("3600")},
	})
	if out[0].ID != 1 || out[1].ID != 2 {
		t.Fatalf("expected ascending min_qty order")
	}
	if !out[1].DiscountPercent.Equal(dec("25")) {
		t.Fatalf("expected 25%% discount, got %s", out[1].DiscountPercent)
	}
}

func TestPriceMatches(t *testing.T) {
	product := domain.Product{SellPrice: dec("3500")}
	tiers := []domain.WholesalePrice{{MinQty: 10, Price: dec("3000"), IsActive: true}}
	if !PriceMatches(product, tiers, 2, dec("3500"), false) {
		t.Fatalf("expected sell price to match")
	}
	if PriceMatches(product, tiers, 2, dec("3000"), true) {
		t.Fatalf("expected wholesale price below the tier to mismatch")
	}
	if !PriceMatches(product, tiers, 10, dec("3000"), true) {
		t.Fatalf("expected wholesale tier price to match")
	}
}
