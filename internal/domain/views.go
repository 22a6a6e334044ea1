package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DateOf truncates t to midnight in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

type ProductView struct {
	Product
	Profit       decimal.Decimal `json:"profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
	IsLowStock   bool            `json:"is_low_stock"`
	IsExpired    bool            `json:"is_expired"`
	DaysToExpire *int            `json:"days_to_expire"`
}

func (p Product) Profit() decimal.Decimal {
	return p.SellPrice.Sub(p.BuyPrice)
}

// ProfitMargin is profit relative to the buy price, in percent with two decimals.
func (p Product) ProfitMargin() decimal.Decimal {
	if p.BuyPrice.Sign() <= 0 {
		return decimal.Zero
	}
	return p.Profit().Div(p.BuyPrice).Mul(hundred).Round(2)
}

func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

func (p Product) IsExpiredAt(now time.Time, loc *time.Location) bool {
	if p.ExpiredDate == nil {
		return false
	}
	return !DateOf(*p.ExpiredDate, loc).After(DateOf(now, loc))
}

func (p Product) DaysToExpireAt(now time.Time, loc *time.Location) *int {
	if p.ExpiredDate == nil {
		return nil
	}
	expiry := DateOf(*p.ExpiredDate, loc)
	today := DateOf(now, loc)
	days := int(expiry.Sub(today).Hours() / 24)
	return &days
}

func NewProductView(p Product, now time.Time, loc *time.Location) ProductView {
	return ProductView{
		Product:      p,
		Profit:       p.Profit(),
		ProfitMargin: p.ProfitMargin(),
		IsLowStock:   p.IsLowStock(),
		IsExpired:    p.IsExpiredAt(now, loc),
		DaysToExpire: p.DaysToExpireAt(now, loc),
	}
}

// IsApplicable reports whether the discount may be applied at now.
func (d Discount) IsApplicable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartDate != nil && d.StartDate.After(now) {
		return false
	}
	if d.EndDate != nil && d.EndDate.Before(now) {
		return false
	}
	return true
}

func (d Discount) Status(now time.Time) string {
	switch {
	case !d.IsActive:
		return DiscountStatusInactive
	case d.StartDate != nil && d.StartDate.After(now):
		return DiscountStatusScheduled
	case d.EndDate != nil && d.EndDate.Before(now):
		return DiscountStatusExpired
	default:
		return DiscountStatusActive
	}
}

type DiscountView struct {
	Discount
	Status     string `json:"status"`
	ValueLabel string `json:"value_label"`
}

func NewDiscountView(d Discount, now time.Time) DiscountView {
	label := "Rp " + d.Value.StringFixed(0)
	if d.ValueType == DiscountValuePercentage {
		label = d.Value.String() + "%"
	}
	return DiscountView{Discount: d, Status: d.Status(now), ValueLabel: label}
}

func (s Shift) IsOvernight() bool {
	return s.EndTime <= s.StartTime
}

func (s Shift) Duration() time.Duration {
	minutes := int(s.EndTime) - int(s.StartTime)
	if s.IsOvernight() {
		minutes += minutesPerDay
	}
	return time.Duration(minutes) * time.Minute
}

// DurationLabel renders the shift length as "X jam Y menit".
func (s Shift) DurationLabel() string {
	total := int(s.Duration().Minutes())
	return fmt.Sprintf("%d jam %d menit", total/60, total%60)
}

func (s Shift) Covers(t TimeOfDay) bool {
	if s.IsOvernight() {
		return t >= s.StartTime || t < s.EndTime
	}
	return t >= s.StartTime && t < s.EndTime
}

type ShiftView struct {
	Shift
	TimeRange   string `json:"time_range"`
	Duration    string `json:"duration"`
	IsOvernight bool   `json:"is_overnight"`
	IsCurrent   bool   `json:"is_current"`
}

func NewShiftView(s Shift, now TimeOfDay) ShiftView {
	return ShiftView{
		Shift:       s,
		TimeRange:   s.StartTime.String() + " - " + s.EndTime.String(),
		Duration:    s.DurationLabel(),
		IsOvernight: s.IsOvernight(),
		IsCurrent:   s.Covers(now),
	}
}

type CashFlowView struct {
	CashFlow
	TypeLabel string `json:"type_label"`
}

func NewCashFlowView(c CashFlow) CashFlowView {
	return CashFlowView{CashFlow: c, TypeLabel: c.TypeLabel()}
}

type TransactionView struct {
	Transaction
	PaymentMethodLabel string `json:"payment_method_label"`
	ItemCount          int    `json:"item_count"`
}

func NewTransactionView(t Transaction) TransactionView {
	return TransactionView{
		Transaction:        t,
		PaymentMethodLabel: PaymentMethodLabel(t.PaymentMethod),
		ItemCount:          t.ItemCount(),
	}
}
