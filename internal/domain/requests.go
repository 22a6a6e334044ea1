package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Username             string `json:"username" validate:"required,min=3,max=50,username"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Phone                string `json:"phone" validate:"omitempty,max=20"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type ProfileUpdateRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

type PasswordUpdateRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type TransactionItemInput struct {
	ProductID       int64           `json:"product_id" validate:"required,gt=0"`
	Qty             int             `json:"qty" validate:"required,min=1"`
	Price           decimal.Decimal `json:"price" validate:"gte=0,money"`
	DiscountPerItem decimal.Decimal `json:"discount_per_item" validate:"gte=0,money"`
	IsWholesale     bool            `json:"is_wholesale"`
}

type CreateTransactionRequest struct {
	ShiftID        *int64                 `json:"shift_id" validate:"omitempty,gt=0"`
	DiscountID     *int64                 `json:"discount_id" validate:"omitempty,gt=0"`
	PaymentMethod  string                 `json:"payment_method" validate:"required,oneof=cash transfer qris debit credit"`
	PaidAmount     decimal.Decimal        `json:"paid_amount" validate:"gte=0,money"`
	DiscountAmount decimal.Decimal        `json:"discount_amount" validate:"gte=0,money"`
	Notes          string                 `json:"notes" validate:"max=500"`
	Items          []TransactionItemInput `json:"items" validate:"required,min=1,dive"`
}

// SyncTransactionInput is one offline order. The order payload is promoted
// from the embedded request so the wire shape stays flat.
type SyncTransactionInput struct {
	LocalID   string `json:"local_id"`
	CreatedAt string `json:"created_at"`
	CreateTransactionRequest
}

type SyncRequest struct {
	Transactions []SyncTransactionInput `json:"transactions"`
}

type SyncSuccess struct {
	LocalID       string `json:"local_id"`
	TransactionID int64  `json:"transaction_id"`
	InvoiceNumber string `json:"invoice_number"`
	Duplicate     bool   `json:"duplicate"`
}

type SyncFailure struct {
	LocalID string `json:"local_id"`
	Error   string `json:"error"`
}

type SyncResult struct {
	Success       []SyncSuccess `json:"success"`
	Failed        []SyncFailure `json:"failed"`
	TotalReceived int           `json:"total_received"`
	TotalSuccess  int           `json:"total_success"`
	TotalFailed   int           `json:"total_failed"`
}

func (r SyncResult) Message() string {
	return fmt.Sprintf("Sync selesai: %d berhasil, %d gagal", r.TotalSuccess, r.TotalFailed)
}

type CartLine struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Qty       int             `json:"qty" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price" validate:"gte=0,money"`
}

type DiscountCheckRequest struct {
	Items []CartLine `json:"items" validate:"required,min=1,dive"`
}

type AppliedDiscount struct {
	DiscountID int64           `json:"discount_id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	ValueType  string          `json:"value_type"`
	Value      decimal.Decimal `json:"value"`
	ProductID  *int64          `json:"product_id,omitempty"`
	Amount     decimal.Decimal `json:"discount_amount"`
}

type DiscountCheckResult struct {
	Subtotal         decimal.Decimal   `json:"subtotal"`
	TotalDiscount    decimal.Decimal   `json:"total_discount"`
	GrandTotal       decimal.Decimal   `json:"grand_total"`
	AppliedDiscounts []AppliedDiscount `json:"applied_discounts"`
}

type WholesaleCalculateRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Qty       int   `json:"qty" validate:"required,min=1"`
}

type WholesaleQuote struct {
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Qty            int             `json:"qty"`
	NormalPrice    decimal.Decimal `json:"normal_price"`
	NormalTotal    decimal.Decimal `json:"normal_total"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	IsWholesale    bool            `json:"is_wholesale"`
	WholesaleInfo  *WholesalePrice `json:"wholesale_info"`
	Savings        decimal.Decimal `json:"savings"`
	SavingsPercent decimal.Decimal `json:"savings_percent"`
}

type WholesaleTier struct {
	WholesalePrice
	Savings         decimal.Decimal `json:"savings"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type ProductWholesale struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	Tiers       []WholesaleTier `json:"wholesale_prices"`
}

type CashFlowRequest struct {
	Type        string          `json:"type" validate:"required,oneof=in out"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=1,money"`
	Description string          `json:"description" validate:"required,max=500"`
	ShiftID     *int64          `json:"shift_id" validate:"omitempty,gt=0"`
}

type CashTotals struct {
	In      decimal.Decimal `json:"in"`
	Out     decimal.Decimal `json:"out"`
	Balance decimal.Decimal `json:"balance"`
	Count   int             `json:"count"`
}

type CashFlowSummary struct {
	Date   string         `json:"date"`
	Today  CashTotals     `json:"today"`
	Month  CashTotals     `json:"month"`
	Recent []CashFlowView `json:"recent"`
}

type PaymentBreakdown struct {
	PaymentMethod string          `json:"payment_method"`
	Label         string          `json:"label"`
	Count         int             `json:"count"`
	Total         decimal.Decimal `json:"total"`
}

type HourlyBreakdown struct {
	Hour  int             `json:"hour"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type TransactionSummary struct {
	Date               string             `json:"date"`
	TotalTransactions  int                `json:"total_transactions"`
	TotalSales         decimal.Decimal    `json:"total_sales"`
	TotalDiscount      decimal.Decimal    `json:"total_discount"`
	TotalItems         int                `json:"total_items"`
	AverageTransaction decimal.Decimal    `json:"average_transaction"`
	ByPaymentMethod    []PaymentBreakdown `json:"by_payment_method"`
	HourlyBreakdown    []HourlyBreakdown  `json:"hourly_breakdown"`
}

type CurrentShift struct {
	Shift       ShiftView `json:"shift"`
	CurrentTime string    `json:"current_time"`
}

type TransactionFilter struct {
	UserID        *int64
	ShiftID       *int64
	From          *time.Time
	To            *time.Time
	PaymentMethod string
}

type CashFlowFilter struct {
	Type    string
	UserID  *int64
	ShiftID *int64
	From    *time.Time
	To      *time.Time
}

type ProductFilter struct {
	CategoryID *int64
	Search     string
}

type UserFilter struct {
	Search   string
	IsActive *bool
}
