package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const (
	DiscountScopeProduct = "product"
	DiscountScopeTotal   = "total"

	DiscountValuePercentage = "percentage"
	DiscountValueNominal    = "nominal"

	DiscountStatusActive    = "active"
	DiscountStatusInactive  = "inactive"
	DiscountStatusScheduled = "scheduled"
	DiscountStatusExpired   = "expired"
)

const (
	CashFlowIn  = "in"
	CashFlowOut = "out"
)

const (
	StockIn         = "in"
	StockOut        = "out"
	StockAdjustment = "adjustment"
	StockSale       = "sale"
)

const (
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"
	PaymentQRIS     = "qris"
	PaymentDebit    = "debit"
	PaymentCredit   = "credit"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []string{PaymentCash, PaymentTransfer, PaymentQRIS, PaymentDebit, PaymentCredit}

var paymentLabels = map[string]string{
	PaymentCash:     "Tunai",
	PaymentTransfer: "Transfer",
	PaymentQRIS:     "QRIS",
	PaymentDebit:    "Debit",
	PaymentCredit:   "Kredit",
}

func PaymentMethodLabel(method string) string {
	if label, ok := paymentLabels[method]; ok {
		return label
	}
	return method
}

func IsPaymentMethod(method string) bool {
	_, ok := paymentLabels[method]
	return ok
}

type Actor struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type User struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Role              string    `json:"role"`
	IsActive          bool      `json:"is_active"`
	PasswordHash      string    `json:"-"`
	TransactionsCount int       `json:"transactions_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type StoreSettings struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Logo          string `json:"logo,omitempty"`
	PrinterSize   string `json:"printer_size"`
	ReceiptFooter string `json:"receipt_footer"`
}

type Category struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	SortOrder     int       `json:"sort_order"`
	IsActive      bool      `json:"is_active"`
	ProductsCount int       `json:"products_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Product struct {
	ID              int64            `json:"id"`
	CategoryID      int64            `json:"category_id"`
	CategoryName    string           `json:"category_name,omitempty"`
	Name            string           `json:"name"`
	Barcode         string           `json:"barcode,omitempty"`
	Description     string           `json:"description,omitempty"`
	BuyPrice        decimal.Decimal  `json:"buy_price"`
	SellPrice       decimal.Decimal  `json:"sell_price"`
	Stock           int              `json:"stock"`
	MinStock        int              `json:"min_stock"`
	Unit            string           `json:"unit"`
	ExpiredDate     *time.Time       `json:"expired_date,omitempty"`
	IsActive        bool             `json:"is_active"`
	WholesalePrices []WholesalePrice `json:"wholesale_prices,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type Discount struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	ValueType   string          `json:"value_type"`
	Value       decimal.Decimal `json:"value"`
	ProductID   *int64          `json:"product_id,omitempty"`
	MinPurchase decimal.Decimal `json:"min_purchase"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type WholesalePrice struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	MinQty    int             `json:"min_qty"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

type Shift struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Transaction struct {
	ID             int64             `json:"id"`
	InvoiceNumber  string            `json:"invoice_number"`
	UserID         int64             `json:"user_id"`
	UserName       string            `json:"user_name,omitempty"`
	ShiftID        *int64            `json:"shift_id,omitempty"`
	DiscountID     *int64            `json:"discount_id,omitempty"`
	ClientRef      string            `json:"local_id,omitempty"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	Total          decimal.Decimal   `json:"total"`
	PaidAmount     decimal.Decimal   `json:"paid_amount"`
	ChangeAmount   decimal.Decimal   `json:"change_amount"`
	PaymentMethod  string            `json:"payment_method"`
	Notes          string            `json:"notes,omitempty"`
	SyncedAt       *time.Time        `json:"synced_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []TransactionItem `json:"items,omitempty"`
}

type TransactionItem struct {
	ID              int64           `json:"id"`
	TransactionID   int64           `json:"transaction_id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Qty             int             `json:"qty"`
	Price           decimal.Decimal `json:"price"`
	DiscountPerItem decimal.Decimal `json:"discount_per_item"`
	IsWholesale     bool            `json:"is_wholesale"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// ItemCount is the sum of quantities over all lines.
func (t Transaction) ItemCount() int {
	total := 0
	for _, item := range t.Items {
		total += item.Qty
	}
	return total
}

type CashFlow struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	UserName    string          `json:"user_name,omitempty"`
	ShiftID     *int64          `json:"shift_id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c CashFlow) TypeLabel() string {
	if c.Type == CashFlowIn {
		return "Kas Masuk"
	}
	return "Kas Keluar"
}

type StockHistory struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	UserID        *int64    `json:"user_id,omitempty"`
	TransactionID *int64    `json:"transaction_id,omitempty"`
	Type          string    `json:"type"`
	Qty           int       `json:"qty"`
	StockBefore   int       `json:"stock_before"`
	StockAfter    int       `json:"stock_after"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockDecrement is one conditional stock reduction applied while an order
// is persisted.
type StockDecrement struct {
	ProductID int64
	Qty       int
}

type PageRequest struct {
	Page    int
	PerPage int
}

// Offset is the zero-based row offset for the requested page. It saturates
// at math.MaxInt rather than wrapping.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PerPage
}

type Page[T any] struct {
	Items   []T
	Total   int
	Page    int
	PerPage int
}
