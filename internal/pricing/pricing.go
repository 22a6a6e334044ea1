// Package pricing resolves discount amounts and wholesale tiers. It has no
// storage dependencies; callers pass in the candidate discounts and tiers.
package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// DiscountAmount returns what d takes off base. The result is never negative
// and never exceeds base.
func DiscountAmount(d domain.Discount, base decimal.Decimal) decimal.Decimal {
	if base.Sign() <= 0 || d.Value.Sign() <= 0 {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch d.ValueType {
	case domain.DiscountValuePercentage:
		amount = d.Value.Div(hundred).Mul(base).Round(2)
	case domain.DiscountValueNominal:
		amount = d.Value
	default:
		return decimal.Zero
	}
	return decimal.Min(amount, base)
}

// LineTotal is qty × price.
func LineTotal(qty int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// CheckCart applies every discount applicable at now to the cart.
// Product discounts hit the first line carrying their product; total
// discounts hit the subtotal once min_purchase is reached. Matches stack,
// but the combined discount is capped at the subtotal.
func CheckCart(discounts []domain.Discount, lines []domain.CartLine, now time.Time) domain.DiscountCheckResult {
	subtotal := decimal.Zero
	firstLine := make(map[int64]domain.CartLine, len(lines))
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line.Qty, line.Price))
		if _, seen := firstLine[line.ProductID]; !seen {
			firstLine[line.ProductID] = line
		}
	}

	ordered := make([]domain.Discount, len(discounts))
	copy(ordered, discounts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	applied := make([]domain.AppliedDiscount, 0, len(ordered))
	total := decimal.Zero
	for _, d := range ordered {
		if !d.IsApplicable(now) {
			continue
		}

		var base decimal.Decimal
		switch d.Type {
		case domain.DiscountScopeProduct:
			if d.ProductID == nil {
				continue
			}
			line, ok := firstLine[*d.ProductID]
			if !ok {
				continue
			}
			base = LineTotal(line.Qty, line.Price)
		case domain.DiscountScopeTotal:
			if subtotal.LessThan(d.MinPurchase) {
				continue
			}
			base = subtotal
		default:
			continue
		}

		amount := DiscountAmount(d, base)
		if amount.Sign() <= 0 {
			continue
		}
		remaining := subtotal.Sub(total)
		if amount.GreaterThan(remaining) {
			amount = remaining
		}
		if amount.Sign() <= 0 {
			continue
		}
		total = total.Add(amount)
		applied = append(applied, domain.AppliedDiscount{
			DiscountID: d.ID,
			Name:       d.Name,
			Type:       d.Type,
			ValueType:  d.ValueType,
			Value:      d.Value,
			ProductID:  d.ProductID,
			Amount:     amount,
		})
	}

	return domain.DiscountCheckResult{
		Subtotal:         subtotal,
		TotalDiscount:    total,
		GrandTotal:       subtotal.Sub(total),
		AppliedDiscounts: applied,
	}
}

// ResolveTier picks the active tier with the largest min_qty not above qty.
func ResolveTier(tiers []domain.WholesalePrice, qty int) (domain.WholesalePrice, bool) {
	var best domain.WholesalePrice
	found := false
	for _, tier := range tiers {
		if !tier.IsActive || tier.MinQty > qty {
			continue
		}
		if !found || tier.MinQty > best.MinQty {
			best = tier
			found = true
		}
	}
	return best, found
}

// Quote prices qty units of product, falling back to the sell price when no
// wholesale tier qualifies.
func Quote(product domain.Product, tiers []domain.WholesalePrice, qty int) domain.WholesaleQuote {
	normalTotal := LineTotal(qty, product.SellPrice)
	quote := domain.WholesaleQuote{
		ProductID:      product.ID,
		ProductName:    product.Name,
		Qty:            qty,
		NormalPrice:    product.SellPrice,
		NormalTotal:    normalTotal,
		FinalPrice:     product.SellPrice,
		FinalTotal:     normalTotal,
		Savings:        decimal.Zero,
		SavingsPercent: decimal.Zero,
	}

	tier, ok := ResolveTier(tiers, qty)
	if !ok {
		return quote
	}

	quote.IsWholesale = true
	quote.WholesaleInfo = &tier
	quote.FinalPrice = tier.Price
	quote.FinalTotal = LineTotal(qty, tier.Price)
	quote.Savings = normalTotal.Sub(quote.FinalTotal)
	if normalTotal.Sign() > 0 {
		quote.SavingsPercent = quote.Savings.Div(normalTotal).Mul(hundred).Round(1)
	}
	return quote
}

// Tiers annotates every tier with its per-unit saving against sellPrice,
// sorted by ascending min_qty.
func Tiers(sellPrice decimal.Decimal, tiers []domain.WholesalePrice) []domain.WholesaleTier {
	out := make([]domain.WholesaleTier, 0, len(tiers))
	for _, tier := range tiers {
		savings := sellPrice.Sub(tier.Price)
		percent := decimal.Zero
		if sellPrice.Sign() > 0 {
			percent = savings.Div(sellPrice).Mul(hundred).Round(1)
		}
		out = append(out, domain.WholesaleTier{WholesalePrice: tier, Savings: savings, DiscountPercent: percent})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinQty < out[j].MinQty })
	return out
}

// PriceMatches reports whether a client-submitted unit price is one the
// catalogue would produce for qty units: the sell price or the resolved tier.
func PriceMatches(product domain.Product, tiers []domain.WholesalePrice, qty int, submitted decimal.Decimal, wholesale bool) bool {
	if !wholesale {
		return submitted.Equal(product.SellPrice)
	}
	tier, ok := ResolveTier(tiers, qty)
	return ok && submitted.Equal(tier.Price)
}
