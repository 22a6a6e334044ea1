package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kasirpos/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrDuplicate reports a unique-key collision (invoice number, username, email).
	ErrDuplicate = errors.New("duplicate")
	// ErrDuplicateClientRef reports that an offline order with the same
	// local id was already stored.
	ErrDuplicateClientRef = errors.New("transaction already synced")
)

// StockError names the product whose stock could not cover a sale.
type StockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// Numbering tells the repository how to allocate the invoice number of a
// new transaction.
type Numbering struct {
	Prefix string
	Day    time.Time
}

type Repository interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
	UpdateUserProfile(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	ListUsers(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) (domain.Page[domain.User], error)

	GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)

	ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (domain.Page[domain.Product], error)
	ListLowStockProducts(ctx context.Context) ([]domain.Product, error)
	ListExpiredProducts(ctx context.Context, asOf time.Time) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	ListStockHistory(ctx context.Context, productID int64, limit int) ([]domain.StockHistory, error)

	ListDiscounts(ctx context.Context, scope string, page domain.PageRequest) (domain.Page[domain.Discount], error)
	ListActiveDiscounts(ctx context.Context, now time.Time) ([]domain.Discount, error)
	GetDiscount(ctx context.Context, id int64) (*domain.Discount, error)

	ListWholesalePrices(ctx context.Context, productID *int64, page domain.PageRequest) (domain.Page[domain.WholesalePrice], error)
	ListWholesaleByProduct(ctx context.Context, productID int64) ([]domain.WholesalePrice, error)

	ListShifts(ctx context.Context) ([]domain.Shift, error)
	GetShift(ctx context.Context, id int64) (*domain.Shift, error)

	// CreateTransaction stores the header, its items, the stock decrements
	// and the matching sale stock histories atomically. Stock is only
	// decremented when it covers the requested quantity.
	CreateTransaction(ctx context.Context, tx domain.Transaction, numbering Numbering) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	FindTransactionByClientRef(ctx context.Context, clientRef string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter, page domain.PageRequest) (domain.Page[domain.Transaction], error)
	ListTransactionsBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)

	CreateCashFlow(ctx context.Context, flow domain.CashFlow) (*domain.CashFlow, error)
	GetCashFlow(ctx context.Context, id int64) (*domain.CashFlow, error)
	UpdateCashFlow(ctx context.Context, flow domain.CashFlow) (*domain.CashFlow, error)
	DeleteCashFlow(ctx context.Context, id int64) error
	ListCashFlows(ctx context.Context, filter domain.CashFlowFilter, page domain.PageRequest) (domain.Page[domain.CashFlow], error)
	SumCashFlows(ctx context.Context, filter domain.CashFlowFilter) (domain.CashTotals, error)
}
