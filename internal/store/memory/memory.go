package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/invoice"
	"kasirpos/backend/internal/store"
)

type Store struct {
	mu                sync.RWMutex
	seq               map[string]int64
	settings          domain.StoreSettings
	users             map[int64]domain.User
	categories        map[int64]domain.Category
	products          map[int64]domain.Product
	discounts         map[int64]domain.Discount
	wholesale         map[int64]domain.WholesalePrice
	shifts            map[int64]domain.Shift
	transactions      map[int64]*domain.Transaction
	transactionsByRef map[string]int64
	invoices          map[string]int64
	invoiceCounters   map[string]int
	cashFlows         map[int64]domain.CashFlow
	stockHistory      []domain.StockHistory
}

type Option func(*Store)

// WithSettings replaces the default store settings.
func WithSettings(settings domain.StoreSettings) Option {
	return func(s *Store) { s.settings = settings }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		seq: make(map[string]int64),
		settings: domain.StoreSettings{
			Name:          "Toko Kasirpos",
			PrinterSize:   "58mm",
			ReceiptFooter: "Terima kasih atas kunjungan Anda",
		},
		users:             make(map[int64]domain.User),
		categories:        make(map[int64]domain.Category),
		products:          make(map[int64]domain.Product),
		discounts:         make(map[int64]domain.Discount),
		wholesale:         make(map[int64]domain.WholesalePrice),
		shifts:            make(map[int64]domain.Shift),
		transactions:      make(map[int64]*domain.Transaction),
		transactionsByRef: make(map[string]int64),
		invoices:          make(map[string]int64),
		invoiceCounters:   make(map[string]int),
		cashFlows:         make(map[int64]domain.CashFlow),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) GetStoreSettings(_ context.Context) (*domain.StoreSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := s.settings
	return &settings, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" || user.Email == "" || user.PasswordHash == "" {
		return nil, store.ErrInvalidTransaction
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return nil, store.ErrDuplicate
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.ID = s.nextID("users")
	s.users[user.ID] = user
	return &user, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user.TransactionsCount = s.countTransactionsLocked(id)
	return &user, nil
}

func (s *Store) GetUserByLogin(_ context.Context, login string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, store.ErrNotFound
	}
	for _, user := range s.users {
		if strings.EqualFold(user.Username, login) || strings.EqualFold(user.Email, login) {
			found := user
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUserProfile(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for id, other := range s.users {
		if id == user.ID {
			continue
		}
		if strings.EqualFold(other.Username, user.Username) || strings.EqualFold(other.Email, user.Email) {
			return nil, store.ErrDuplicate
		}
	}
	existing.Name = user.Name
	existing.Username = user.Username
	existing.Email = strings.ToLower(user.Email)
	existing.Phone = user.Phone
	existing.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = existing
	return &existing, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if strings.TrimSpace(passwordHash) == "" {
		return store.ErrInvalidTransaction
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context, filter domain.UserFilter, page domain.PageRequest) (domain.Page[domain.User], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	users := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if search != "" && !containsAny(search, user.Name, user.Username, user.Email) {
			continue
		}
		user.TransactionsCount = s.countTransactionsLocked(user.ID)
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
	return paginate(users, page), nil
}

func (s *Store) countTransactionsLocked(userID int64) int {
	count := 0
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			count++
		}
	}
	return count
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, category := range s.categories {
		if !category.IsActive {
			continue
		}
		category.ProductsCount = s.countProductsLocked(category.ID)
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].SortOrder == categories[j].SortOrder {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].SortOrder < categories[j].SortOrder
	})
	return categories, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	category.ProductsCount = s.countProductsLocked(id)
	return &category, nil
}

func (s *Store) countProductsLocked(categoryID int64) int {
	count := 0
	for _, product := range s.products {
		if product.CategoryID == categoryID && product.IsActive {
			count++
		}
	}
	return count
}

func (s *Store) ListProducts(_ context.Context, filter domain.ProductFilter, page domain.PageRequest) (domain.Page[domain.Product], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	products := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if !product.IsActive {
			continue
		}
		if filter.CategoryID != nil && product.CategoryID != *filter.CategoryID {
			continue
		}
		if search != "" && !containsAny(search, product.Name, product.Barcode) {
			continue
		}
		products = append(products, s.decorateProductLocked(product, false))
	}
	sortProducts(products)
	return paginate(products, page), nil
}

func (s *Store) ListLowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, 16)
	for _, product := range s.products {
		if product.IsActive && product.IsLowStock() {
			products = append(products, s.decorateProductLocked(product, false))
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Stock == products[j].Stock {
			return products[i].ID < products[j].ID
		}
		return products[i].Stock < products[j].Stock
	})
	return products, nil
}

func (s *Store) ListExpiredProducts(_ context.Context, asOf time.Time) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, 16)
	for _, product := range s.products {
		if !product.IsActive || product.ExpiredDate == nil {
			continue
		}
		if !product.ExpiredDate.After(asOf) {
			products = append(products, s.decorateProductLocked(product, false))
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].ExpiredDate.Before(*products[j].ExpiredDate)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	product = s.decorateProductLocked(product, true)
	return &product, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrNotFound
	}
	for _, product := range s.products {
		if product.Barcode == barcode && product.IsActive {
			found := s.decorateProductLocked(product, true)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			result[id] = s.decorateProductLocked(product, true)
		}
	}
	return result, nil
}

func (s *Store) decorateProductLocked(product domain.Product, withTiers bool) domain.Product {
	if category, ok := s.categories[product.CategoryID]; ok {
		product.CategoryName = category.Name
	}
	product.WholesalePrices = nil
	if withTiers {
		product.WholesalePrices = s.tiersLocked(product.ID)
	}
	return product
}

func (s *Store) ListStockHistory(_ context.Context, productID int64, limit int) ([]domain.StockHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit < 1 {
		limit = 50
	}
	out := make([]domain.StockHistory, 0, limit)
	for i := len(s.stockHistory) - 1; i >= 0 && len(out) < limit; i-- {
		if s.stockHistory[i].ProductID == productID {
			out = append(out, s.stockHistory[i])
		}
	}
	return out, nil
}

func (s *Store) ListDiscounts(_ context.Context, scope string, page domain.PageRequest) (domain.Page[domain.Discount], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	discounts := make([]domain.Discount, 0, len(s.discounts))
	for _, discount := range s.discounts {
		if scope != "" && discount.Type != scope {
			continue
		}
		discounts = append(discounts, discount)
	}
	sort.Slice(discounts, func(i, j int) bool { return discounts[i].ID > discounts[j].ID })
	return paginate(discounts, page), nil
}

func (s *Store) ListActiveDiscounts(_ context.Context, now time.Time) ([]domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	discounts := make([]domain.Discount, 0, len(s.discounts))
	for _, discount := range s.discounts {
		if discount.IsApplicable(now) {
			discounts = append(discounts, discount)
		}
	}
	sort.Slice(discounts, func(i, j int) bool { return discounts[i].ID < discounts[j].ID })
	return discounts, nil
}

func (s *Store) GetDiscount(_ context.Context, id int64) (*domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	discount, ok := s.discounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &discount, nil
}

func (s *Store) ListWholesalePrices(_ context.Context, productID *int64, page domain.PageRequest) (domain.Page[domain.WholesalePrice], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tiers := make([]domain.WholesalePrice, 0, len(s.wholesale))
	for _, tier := range s.wholesale {
		if productID != nil && tier.ProductID != *productID {
			continue
		}
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool {
		if tiers[i].ProductID == tiers[j].ProductID {
			return tiers[i].MinQty < tiers[j].MinQty
		}
		return tiers[i].ProductID < tiers[j].ProductID
	})
	return paginate(tiers, page), nil
}

func (s *Store) ListWholesaleByProduct(_ context.Context, productID int64) ([]domain.WholesalePrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.products[productID]; !ok {
		return nil, store.ErrNotFound
	}
	return s.tiersLocked(productID), nil
}

func (s *Store) tiersLocked(productID int64) []domain.WholesalePrice {
	tiers := make([]domain.WholesalePrice, 0, 4)
	for _, tier := range s.wholesale {
		if tier.ProductID == productID && tier.IsActive {
			tiers = append(tiers, tier)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQty < tiers[j].MinQty })
	return tiers
}

func (s *Store) ListShifts(_ context.Context) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shifts := make([]domain.Shift, 0, len(s.shifts))
	for _, shift := range s.shifts {
		if shift.IsActive {
			shifts = append(shifts, shift)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].StartTime < shifts[j].StartTime })
	return shifts, nil
}

func (s *Store) GetShift(_ context.Context, id int64) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shift, ok := s.shifts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &shift, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction, numbering store.Numbering) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if tx.ClientRef != "" {
		if _, exists := s.transactionsByRef[tx.ClientRef]; exists {
			return nil, store.ErrDuplicateClientRef
		}
	}

	needed := make(map[int64]int, len(tx.Items))
	for _, item := range tx.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidTransaction
		}
		if _, ok := s.products[item.ProductID]; !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, store.ErrNotFound)
		}
		needed[item.ProductID] += item.Qty
	}
	for productID, qty := range needed {
		product := s.products[productID]
		if product.Stock < qty {
			return nil, &store.StockError{ProductID: productID, Requested: qty, Available: product.Stock}
		}
	}

	counterKey := numbering.Prefix + numbering.Day.Format("20060102")
	seq := s.invoiceCounters[counterKey] + 1
	number := invoice.Format(numbering.Prefix, numbering.Day, seq)
	for {
		if _, taken := s.invoices[number]; !taken {
			break
		}
		seq++
		number = invoice.Format(numbering.Prefix, numbering.Day, seq)
	}
	s.invoiceCounters[counterKey] = seq

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tx.ID = s.nextID("transactions")
	tx.InvoiceNumber = number
	if user, ok := s.users[tx.UserID]; ok {
		tx.UserName = user.Name
	}

	items := make([]domain.TransactionItem, 0, len(tx.Items))
	for _, item := range tx.Items {
		item.ID = s.nextID("transaction_items")
		item.TransactionID = tx.ID

		product := s.products[item.ProductID]
		before := product.Stock
		product.Stock -= item.Qty
		product.UpdatedAt = tx.CreatedAt
		s.products[item.ProductID] = product

		userID := tx.UserID
		txID := tx.ID
		s.stockHistory = append(s.stockHistory, domain.StockHistory{
			ID:            s.nextID("stock_histories"),
			ProductID:     item.ProductID,
			UserID:        &userID,
			TransactionID: &txID,
			Type:          domain.StockSale,
			Qty:           item.Qty,
			StockBefore:   before,
			StockAfter:    product.Stock,
			Description:   "Penjualan " + number,
			CreatedAt:     tx.CreatedAt,
		})
		items = append(items, item)
	}
	tx.Items = items

	stored := tx
	s.transactions[tx.ID] = &stored
	s.invoices[number] = tx.ID
	if tx.ClientRef != "" {
		s.transactionsByRef[tx.ClientRef] = tx.ID
	}
	return cloneTransaction(&stored), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) FindTransactionByClientRef(_ context.Context, clientRef string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.transactionsByRef[clientRef]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(s.transactions[id]), nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter, page domain.PageRequest) (domain.Page[domain.Transaction], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if !matchesTransaction(tx, filter) {
			continue
		}
		out = append(out, *cloneTransaction(tx))
	}
	sortTransactionsDesc(out)
	return paginate(out, page), nil
}

func (s *Store) ListTransactionsBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, 32)
	for _, tx := range s.transactions {
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}
		out = append(out, *cloneTransaction(tx))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func matchesTransaction(tx *domain.Transaction, filter domain.TransactionFilter) bool {
	if filter.UserID != nil && tx.UserID != *filter.UserID {
		return false
	}
	if filter.ShiftID != nil && (tx.ShiftID == nil || *tx.ShiftID != *filter.ShiftID) {
		return false
	}
	if filter.From != nil && tx.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !tx.CreatedAt.Before(*filter.To) {
		return false
	}
	if filter.PaymentMethod != "" && tx.PaymentMethod != filter.PaymentMethod {
		return false
	}
	return true
}

func (s *Store) CreateCashFlow(_ context.Context, flow domain.CashFlow) (*domain.CashFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flow.Type != domain.CashFlowIn && flow.Type != domain.CashFlowOut {
		return nil, store.ErrInvalidTransaction
	}
	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}
	flow.UpdatedAt = now
	flow.ID = s.nextID("cash_flows")
	s.cashFlows[flow.ID] = flow
	return s.decorateCashFlowLocked(flow), nil
}

func (s *Store) GetCashFlow(_ context.Context, id int64) (*domain.CashFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.cashFlows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.decorateCashFlowLocked(flow), nil
}

func (s *Store) UpdateCashFlow(_ context.Context, flow domain.CashFlow) (*domain.CashFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.cashFlows[flow.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	existing.Type = flow.Type
	existing.Amount = flow.Amount
	existing.Description = flow.Description
	existing.ShiftID = flow.ShiftID
	existing.UpdatedAt = time.Now().UTC()
	s.cashFlows[flow.ID] = existing
	return s.decorateCashFlowLocked(existing), nil
}

func (s *Store) DeleteCashFlow(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cashFlows[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.cashFlows, id)
	return nil
}

func (s *Store) ListCashFlows(_ context.Context, filter domain.CashFlowFilter, page domain.PageRequest) (domain.Page[domain.CashFlow], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CashFlow, 0, len(s.cashFlows))
	for _, flow := range s.cashFlows {
		if matchesCashFlow(flow, filter) {
			out = append(out, *s.decorateCashFlowLocked(flow))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, page), nil
}

func (s *Store) SumCashFlows(_ context.Context, filter domain.CashFlowFilter) (domain.CashTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := domain.CashTotals{In: decimal.Zero, Out: decimal.Zero}
	for _, flow := range s.cashFlows {
		if !matchesCashFlow(flow, filter) {
			continue
		}
		totals.Count++
		if flow.Type == domain.CashFlowIn {
			totals.In = totals.In.Add(flow.Amount)
		} else {
			totals.Out = totals.Out.Add(flow.Amount)
		}
	}
	totals.Balance = totals.In.Sub(totals.Out)
	return totals, nil
}

func (s *Store) decorateCashFlowLocked(flow domain.CashFlow) *domain.CashFlow {
	if user, ok := s.users[flow.UserID]; ok {
		flow.UserName = user.Name
	}
	return &flow
}

func matchesCashFlow(flow domain.CashFlow, filter domain.CashFlowFilter) bool {
	if filter.Type != "" && flow.Type != filter.Type {
		return false
	}
	if filter.UserID != nil && flow.UserID != *filter.UserID {
		return false
	}
	if filter.ShiftID != nil && (flow.ShiftID == nil || *flow.ShiftID != *filter.ShiftID) {
		return false
	}
	if filter.From != nil && flow.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !flow.CreatedAt.Before(*filter.To) {
		return false
	}
	return true
}

func cloneTransaction(tx *domain.Transaction) *domain.Transaction {
	if tx == nil {
		return nil
	}
	cloned := *tx
	cloned.Items = append([]domain.TransactionItem(nil), tx.Items...)
	if tx.ShiftID != nil {
		shiftID := *tx.ShiftID
		cloned.ShiftID = &shiftID
	}
	if tx.DiscountID != nil {
		discountID := *tx.DiscountID
		cloned.DiscountID = &discountID
	}
	if tx.SyncedAt != nil {
		syncedAt := *tx.SyncedAt
		cloned.SyncedAt = &syncedAt
	}
	return &cloned
}

func sortTransactionsDesc(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

func sortProducts(products []domain.Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
}

func paginate[T any](items []T, page domain.PageRequest) domain.Page[T] {
	if page.PerPage < 1 {
		page.PerPage = len(items)
		if page.PerPage == 0 {
			page.PerPage = 1
		}
	}
	if page.Page < 1 {
		page.Page = 1
	}
	start := page.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + page.PerPage
	if end > len(items) {
		end = len(items)
	}
	return domain.Page[T]{
		Items:   append([]T(nil), items[start:end]...),
		Total:   len(items),
		Page:    page.Page,
		PerPage: page.PerPage,
	}
}

func containsAny(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if h != "" && strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}
	return string(hash)
}
