package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/invoice"
	"kasirpos/backend/internal/policy"
	"kasirpos/backend/internal/pricing"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/validation"
)

// CreateTransaction records a point-of-sale order placed now by the actor.
func (s *Service) CreateTransaction(ctx context.Context, req domain.CreateTransactionRequest) (domain.TransactionView, error) {
	if err := validation.Struct(req); err != nil {
		return domain.TransactionView{}, err
	}
	actor, err := s.authorize(ctx, policy.TransactionCreate, policy.Resource{Kind: "transaction"})
	if err != nil {
		return domain.TransactionView{}, err
	}

	tx, err := s.assemble(ctx, actor, req, s.now(), "")
	if err != nil {
		return domain.TransactionView{}, err
	}
	return domain.NewTransactionView(*tx), nil
}

// assemble prices req, allocates its invoice number and persists it with the
// stock decrements. createdAt fixes both the stored timestamp and the
// invoice day.
func (s *Service) assemble(ctx context.Context, actor domain.Actor, req domain.CreateTransactionRequest, createdAt time.Time, clientRef string) (*domain.Transaction, error) {
	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	missing := &validation.Error{}
	for i, item := range req.Items {
		if _, ok := products[item.ProductID]; !ok {
			missing.Add(fmt.Sprintf("items.%d.product_id", i), "Produk tidak ditemukan")
		}
	}
	if !missing.Empty() {
		return nil, missing
	}

	lineErrs := &validation.Error{}
	subtotal := decimal.Zero
	for i, item := range req.Items {
		if item.DiscountPerItem.GreaterThan(item.Price) {
			lineErrs.Add(fmt.Sprintf("items.%d.discount_per_item", i), "Diskon per item melebihi harga")
		}
		subtotal = subtotal.Add(pricing.LineTotal(item.Qty, item.Price))
	}
	if !lineErrs.Empty() {
		return nil, lineErrs
	}
	if !validation.IsMoney(subtotal) {
		return nil, validation.Field("items", "Total transaksi melebihi batas")
	}
	total := subtotal.Sub(req.DiscountAmount)
	if total.Sign() < 0 {
		return nil, validation.Field("discount_amount", "Diskon melebihi subtotal")
	}
	if req.PaidAmount.LessThan(total) {
		return nil, validation.Field("paid_amount", "Jumlah bayar kurang dari total")
	}

	shiftID, err := s.resolveShift(ctx, req.ShiftID, createdAt)
	if err != nil {
		return nil, err
	}
	if req.DiscountID != nil {
		if _, err := s.repo.GetDiscount(ctx, *req.DiscountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, validation.Field("discount_id", "Diskon tidak ditemukan")
			}
			return nil, err
		}
	}

	items := make([]domain.TransactionItem, 0, len(req.Items))
	for _, in := range req.Items {
		product := products[in.ProductID]
		if !pricing.PriceMatches(product, product.WholesalePrices, in.Qty, in.Price, in.IsWholesale) {
			log.Printf("[service] WARN: submitted price %s for product %d differs from catalogue (wholesale=%t)", in.Price.String(), product.ID, in.IsWholesale)
		}
		items = append(items, domain.TransactionItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Qty:             in.Qty,
			Price:           in.Price,
			DiscountPerItem: in.DiscountPerItem,
			IsWholesale:     in.IsWholesale,
			Subtotal:        pricing.LineTotal(in.Qty, in.Price).Sub(pricing.LineTotal(in.Qty, in.DiscountPerItem)),
		})
	}

	syncedAt := s.now().UTC()
	draft := domain.Transaction{
		UserID:         actor.UserID,
		ShiftID:        shiftID,
		DiscountID:     req.DiscountID,
		ClientRef:      clientRef,
		Subtotal:       subtotal,
		DiscountAmount: req.DiscountAmount,
		Total:          total,
		PaidAmount:     req.PaidAmount,
		ChangeAmount:   req.PaidAmount.Sub(total),
		PaymentMethod:  req.PaymentMethod,
		Notes:          strings.TrimSpace(req.Notes),
		SyncedAt:       &syncedAt,
		CreatedAt:      createdAt.UTC(),
		Items:          items,
	}
	numbering := store.Numbering{Prefix: s.prefix, Day: domain.DateOf(createdAt, s.loc)}

	var saved *domain.Transaction
	err = invoice.Retry(ctx, s.retry, func(attempt int) error {
		if attempt > 1 {
			log.Printf("[service] WARN: invoice collision, retrying allocation attempt=%d", attempt)
		}
		var createErr error
		saved, createErr = s.repo.CreateTransaction(ctx, draft, numbering)
		return createErr
	})
	if err != nil {
		var stockErr *store.StockError
		if errors.As(err, &stockErr) {
			return nil, stockValidationError(req.Items, stockErr, products)
		}
		return nil, err
	}

	s.invalidate(ctx, cache.KeyLowStock)
	s.logAudit(ctx, "transaction.create", "transaction", saved.ID,
		fmt.Sprintf("invoice=%s total=%s items=%d", saved.InvoiceNumber, saved.Total.StringFixed(2), saved.ItemCount()))
	return saved, nil
}

// resolveShift validates an explicit shift or falls back to the shift
// covering createdAt on the store clock. The fallback may be nil.
func (s *Service) resolveShift(ctx context.Context, requested *int64, createdAt time.Time) (*int64, error) {
	if requested != nil {
		if _, err := s.repo.GetShift(ctx, *requested); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, validation.Field("shift_id", "Shift tidak ditemukan")
			}
			return nil, err
		}
		return requested, nil
	}
	shift, err := s.shiftAt(ctx, domain.ClockOf(createdAt.In(s.loc)))
	if err != nil || shift == nil {
		return nil, err
	}
	id := shift.ID
	return &id, nil
}

func stockValidationError(items []domain.TransactionItemInput, stockErr *store.StockError, products map[int64]domain.Product) *validation.Error {
	field := "items"
	for i, item := range items {
		if item.ProductID == stockErr.ProductID {
			field = fmt.Sprintf("items.%d.qty", i)
			break
		}
	}
	name := products[stockErr.ProductID].Name
	return validation.Field(field, fmt.Sprintf("Stok %s tidak mencukupi (tersedia %d)", name, stockErr.Available))
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (domain.TransactionView, error) {
	if _, err := s.authorize(ctx, policy.TransactionView, policy.Resource{Kind: "transaction", ID: id}); err != nil {
		return domain.TransactionView{}, err
	}
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return domain.TransactionView{}, err
	}
	return domain.NewTransactionView(*tx), nil
}

// TransactionQuery carries the raw list filters as received from clients.
type TransactionQuery struct {
	UserID        *int64
	ShiftID       *int64
	Date          string
	StartDate     string
	EndDate       string
	PaymentMethod string
}

func (s *Service) transactionFilter(q TransactionQuery) (domain.TransactionFilter, error) {
	filter := domain.TransactionFilter{UserID: q.UserID, ShiftID: q.ShiftID}
	if q.PaymentMethod != "" {
		if !domain.IsPaymentMethod(q.PaymentMethod) {
			return filter, validation.Field("payment_method", "payment method harus salah satu dari: cash, transfer, qris, debit, credit")
		}
		filter.PaymentMethod = q.PaymentMethod
	}

	if strings.TrimSpace(q.Date) != "" {
		day, err := s.parseDay("date", q.Date)
		if err != nil {
			return filter, err
		}
		from, to := s.dayRange(day)
		filter.From, filter.To = &from, &to
		return filter, nil
	}
	if strings.TrimSpace(q.StartDate) != "" {
		day, err := s.parseDay("start_date", q.StartDate)
		if err != nil {
			return filter, err
		}
		from, _ := s.dayRange(day)
		filter.From = &from
	}
	if strings.TrimSpace(q.EndDate) != "" {
		day, err := s.parseDay("end_date", q.EndDate)
		if err != nil {
			return filter, err
		}
		_, to := s.dayRange(day)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, validation.Field("end_date", "end date harus setelah atau sama dengan start date")
	}
	return filter, nil
}

func (s *Service) ListTransactions(ctx context.Context, q TransactionQuery, page domain.PageRequest) (domain.Page[domain.TransactionView], error) {
	if _, err := s.authorize(ctx, policy.TransactionView, policy.Resource{Kind: "transaction"}); err != nil {
		return domain.Page[domain.TransactionView]{}, err
	}
	filter, err := s.transactionFilter(q)
	if err != nil {
		return domain.Page[domain.TransactionView]{}, err
	}
	txs, err := s.repo.ListTransactions(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.TransactionView]{}, err
	}
	return mapPage(txs, domain.NewTransactionView), nil
}

// TodayTransactions lists today's orders, optionally only the actor's own.
func (s *Service) TodayTransactions(ctx context.Context, own bool, page domain.PageRequest) (domain.Page[domain.TransactionView], error) {
	actor, err := s.authorize(ctx, policy.TransactionView, policy.Resource{Kind: "transaction"})
	if err != nil {
		return domain.Page[domain.TransactionView]{}, err
	}
	from, to := s.dayRange(s.today())
	filter := domain.TransactionFilter{From: &from, To: &to}
	if own {
		filter.UserID = &actor.UserID
	}
	txs, err := s.repo.ListTransactions(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.TransactionView]{}, err
	}
	return mapPage(txs, domain.NewTransactionView), nil
}
