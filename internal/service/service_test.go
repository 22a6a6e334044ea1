package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/policy"
	"kasirpos/backend/internal/store/memory"
	"kasirpos/backend/internal/validation"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

var (
	adminActor   = domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	cashierActor = domain.Actor{UserID: 2, Username: "kasir", Role: domain.RoleCashier}
)

// clockAt pins the service clock to today at hour:00 store time.
func clockAt(hour int) time.Time {
	local := time.Now().In(jakarta)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, jakarta)
}

func newTestService(now time.Time) (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	svc := New(repo, cache.NewMemory(), Options{
		Location: jakarta,
		Now:      func() time.Time { return now },
	})
	return svc, repo
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), cashierActor)
}

func mustFieldError(t *testing.T, err error, field string) string {
	t.Helper()
	verr, ok := validation.As(err)
	if !ok {
		t.Fatalf("expected validation error on %s, got %v", field, err)
	}
	msgs := verr.Fields[field]
	if len(msgs) == 0 {
		t.Fatalf("expected message on %s, got %v", field, verr.Fields)
	}
	return msgs[0]
}

func TestCreateTransactionComputesTotalsAndChange(t *testing.T) {
	now := clockAt(10)
	svc, repo := newTestService(now)
	ctx := cashierCtx()

	view, err := svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod:  domain.PaymentCash,
		PaidAmount:     dec("30000"),
		DiscountAmount: dec("1000"),
		Items: []domain.TransactionItemInput{
			{ProductID: 9, Qty: 3, Price: dec("10000")},
		},
	})
	if err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}

	if !view.Subtotal.Equal(dec("30000")) || !view.Total.Equal(dec("29000")) || !view.ChangeAmount.Equal(dec("1000")) {
		t.Fatalf("unexpected totals subtotal=%s total=%s change=%s", view.Subtotal, view.Total, view.ChangeAmount)
	}
	wantInvoice := "INV" + now.Format("20060102") + "0001"
	if view.InvoiceNumber != wantInvoice {
		t.Fatalf("expected invoice %s, got %s", wantInvoice, view.InvoiceNumber)
	}
	if view.UserID != cashierActor.UserID {
		t.Fatalf("expected cashier as owner, got %d", view.UserID)
	}
	if view.ShiftID == nil || *view.ShiftID != 1 {
		t.Fatalf("expected morning shift fallback, got %v", view.ShiftID)
	}
	if view.PaymentMethodLabel != "Tunai" || view.ItemCount != 3 {
		t.Fatalf("unexpected view fields label=%s items=%d", view.PaymentMethodLabel, view.ItemCount)
	}
	if len(view.Items) != 1 || view.Items[0].ProductName != "Sabun Mandi" {
		t.Fatalf("expected product name snapshot, got %+v", view.Items)
	}

	product, err := repo.GetProduct(context.Background(), 9)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if product.Stock != 22 {
		t.Fatalf("expected stock 22, got %d", product.Stock)
	}

	history, err := svc.ProductStockHistory(context.Background(), 9, 10)
	if err != nil {
		t.Fatalf("stock history failed: %v", err)
	}
	if len(history) != 1 || history[0].StockBefore != 25 || history[0].StockAfter != 22 || history[0].Type != domain.StockSale {
		t.Fatalf("unexpected stock history %+v", history)
	}
	if history[0].TransactionID == nil || *history[0].TransactionID != view.ID {
		t.Fatalf("expected stock history linked to transaction %d", view.ID)
	}
}

func TestCreateTransactionRejectsUnderpayment(t *testing.T) {
	svc, repo := newTestService(clockAt(10))

	_, err := svc.CreateTransaction(cashierCtx(), domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("20000"),
		Items: []domain.TransactionItemInput{
			{ProductID: 9, Qty: 3, Price: dec("10000")},
		},
	})
	if msg := mustFieldError(t, err, "paid_amount"); msg != "Jumlah bayar kurang dari total" {
		t.Fatalf("unexpected message %q", msg)
	}

	product, _ := repo.GetProduct(context.Background(), 9)
	if product.Stock != 25 {
		t.Fatalf("expected stock untouched, got %d", product.Stock)
	}
}

func TestCreateTransactionRejectsOversell(t *testing.T) {
	svc, repo := newTestService(clockAt(10))

	_, err := svc.CreateTransaction(cashierCtx(), domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("100000"),
		Items: []domain.TransactionItemInput{
			{ProductID: 1, Qty: 1, Price: dec("3500")},
			{ProductID: 6, Qty: 6, Price: dec("3900")},
		},
	})
	msg := mustFieldError(t, err, "items.1.qty")
	if !strings.Contains(msg, "Air Mineral 600ml") {
		t.Fatalf("expected product name in message, got %q", msg)
	}

	for id, want := range map[int64]int{1: 120, 6: 5} {
		product, _ := repo.GetProduct(context.Background(), id)
		if product.Stock != want {
			t.Fatalf("product %d: expected stock %d, got %d", id, want, product.Stock)
		}
	}
}

func TestCreateTransactionValidatesInput(t *testing.T) {
	svc, _ := newTestService(clockAt(10))
	ctx := cashierCtx()

	_, err := svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod: "voucher",
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 0}},
	})
	verr, ok := validation.As(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"payment_method", "items.0.qty"} {
		if len(verr.Fields[field]) == 0 {
			t.Fatalf("expected error on %s, got %v", field, verr.Fields)
		}
	}

	_, err = svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentQRIS,
		PaidAmount:    dec("10000"),
		Items:         []domain.TransactionItemInput{{ProductID: 999, Qty: 1, Price: dec("1000")}},
	})
	if msg := mustFieldError(t, err, "items.0.product_id"); msg != "Produk tidak ditemukan" {
		t.Fatalf("unexpected message %q", msg)
	}

	_, err = svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod:  domain.PaymentCash,
		PaidAmount:     dec("10000"),
		DiscountAmount: dec("5000"),
		Items:          []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
	})
	mustFieldError(t, err, "discount_amount")

	shift := int64(42)
	_, err = svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		ShiftID:       &shift,
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("10000"),
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
	})
	mustFieldError(t, err, "shift_id")
}

func TestCreateTransactionRejectsMoneyOutsideColumnScale(t *testing.T) {
	svc, repo := newTestService(clockAt(10))
	ctx := cashierCtx()

	_, err := svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("1"),
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 3, Price: dec("0.005")}},
	})
	mustFieldError(t, err, "items.0.price")

	_, err = svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("10000000000000"),
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
	})
	mustFieldError(t, err, "paid_amount")

	_, err = svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("9999999999999.99"),
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 2, Price: dec("9999999999999.99")}},
	})
	if msg := mustFieldError(t, err, "items"); msg != "Total transaksi melebihi batas" {
		t.Fatalf("unexpected message %q", msg)
	}

	product, err := repo.GetProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 120 {
		t.Fatalf("expected untouched stock 120, got %d", product.Stock)
	}
}

func TestCreateTransactionRejectsItemDiscountAbovePrice(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	_, err := svc.CreateTransaction(cashierCtx(), domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("10000"),
		Items: []domain.TransactionItemInput{
			{ProductID: 1, Qty: 1, Price: dec("3500"), DiscountPerItem: dec("500")},
			{ProductID: 5, Qty: 2, Price: dec("2600"), DiscountPerItem: dec("5350")},
		},
	})
	if msg := mustFieldError(t, err, "items.1.discount_per_item"); msg != "Diskon per item melebihi harga" {
		t.Fatalf("unexpected message %q", msg)
	}
	if verr, _ := validation.As(err); len(verr.Fields["items.0.discount_per_item"]) != 0 {
		t.Fatalf("valid line should pass, got %v", verr.Fields)
	}
}

func TestCreateTransactionRequiresActor(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	_, err := svc.CreateTransaction(context.Background(), domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("3500"),
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
	})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestInvoiceNumbersIncreaseWithinDay(t *testing.T) {
	now := clockAt(10)
	svc, _ := newTestService(now)
	ctx := cashierCtx()

	var numbers []string
	for i := 0; i < 3; i++ {
		view, err := svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
			PaymentMethod: domain.PaymentTransfer,
			PaidAmount:    dec("3500"),
			Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
		})
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		numbers = append(numbers, view.InvoiceNumber)
	}

	prefix := "INV" + now.Format("20060102")
	for i, number := range numbers {
		want := prefix + []string{"0001", "0002", "0003"}[i]
		if number != want {
			t.Fatalf("invoice %d: expected %s, got %s", i, want, number)
		}
	}
}

func TestConcurrentOrdersGetUniqueInvoicesAndExactStock(t *testing.T) {
	now := clockAt(10)
	svc, repo := newTestService(now)
	ctx := cashierCtx()

	const orders = 50
	numbers := make([]string, orders)
	errs := make([]error, orders)
	var wg sync.WaitGroup
	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view, err := svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
				PaymentMethod: domain.PaymentCash,
				PaidAmount:    dec("3500"),
				Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
			})
			numbers[i], errs[i] = view.InvoiceNumber, err
		}(i)
	}
	wg.Wait()

	prefix := "INV" + now.Format("20060102")
	seen := make(map[string]bool, orders)
	for i := 0; i < orders; i++ {
		if errs[i] != nil {
			t.Fatalf("order %d failed: %v", i, errs[i])
		}
		if !strings.HasPrefix(numbers[i], prefix) || seen[numbers[i]] {
			t.Fatalf("order %d got bad or repeated invoice %q", i, numbers[i])
		}
		seen[numbers[i]] = true
	}
	for seq := 1; seq <= orders; seq++ {
		if want := fmt.Sprintf("%s%04d", prefix, seq); !seen[want] {
			t.Fatalf("expected %s to be allocated", want)
		}
	}

	product, err := repo.GetProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 120-orders {
		t.Fatalf("expected stock %d, got %d", 120-orders, product.Stock)
	}
}

func TestInvoiceSequenceResetsOnNextDay(t *testing.T) {
	now := clockAt(10)
	svc := New(memory.NewSeeded(), cache.NewMemory(), Options{
		Location: jakarta,
		Now:      func() time.Time { return now },
	})
	ctx := cashierCtx()
	create := func() string {
		t.Helper()
		view, err := svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
			PaymentMethod: domain.PaymentCash,
			PaidAmount:    dec("3500"),
			Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		return view.InvoiceNumber
	}

	first, second := create(), create()
	today := "INV" + now.Format("20060102")
	if first != today+"0001" || second != today+"0002" {
		t.Fatalf("unexpected same-day numbers %s, %s", first, second)
	}

	now = now.AddDate(0, 0, 1)
	next := create()
	if want := "INV" + now.Format("20060102") + "0001"; next != want {
		t.Fatalf("expected sequence reset to %s, got %s", want, next)
	}
}

func TestShiftFallbackCoversOvernight(t *testing.T) {
	svc, _ := newTestService(clockAt(23))

	view, err := svc.CreateTransaction(cashierCtx(), domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("3500"),
		Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if view.ShiftID == nil || *view.ShiftID != 3 {
		t.Fatalf("expected night shift, got %v", view.ShiftID)
	}

	current, err := svc.CurrentShift(context.Background())
	if err != nil {
		t.Fatalf("current shift failed: %v", err)
	}
	if current.Shift.Name != "Malam" || !current.Shift.IsOvernight || current.CurrentTime != "23:00:00" {
		t.Fatalf("unexpected current shift %+v", current)
	}
}

func TestSyncTransactionsIsIdempotent(t *testing.T) {
	svc, repo := newTestService(clockAt(10))
	ctx := cashierCtx()

	entry := domain.SyncTransactionInput{
		LocalID:   "offline-001",
		CreatedAt: "2026-03-01 09:15:00",
		CreateTransactionRequest: domain.CreateTransactionRequest{
			PaymentMethod: domain.PaymentCash,
			PaidAmount:    dec("10000"),
			Items:         []domain.TransactionItemInput{{ProductID: 5, Qty: 3, Price: dec("2600")}},
		},
	}
	broken := domain.SyncTransactionInput{
		LocalID:   "offline-002",
		CreatedAt: "kemarin",
		CreateTransactionRequest: entry.CreateTransactionRequest,
	}

	result, err := svc.SyncTransactions(ctx, domain.SyncRequest{Transactions: []domain.SyncTransactionInput{entry, entry, broken}})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.TotalReceived != 3 || result.TotalSuccess != 2 || result.TotalFailed != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if result.Message() != "Sync selesai: 2 berhasil, 1 gagal" {
		t.Fatalf("unexpected message %q", result.Message())
	}
	first, second := result.Success[0], result.Success[1]
	if first.Duplicate || !second.Duplicate || first.TransactionID != second.TransactionID {
		t.Fatalf("expected replay to resolve to the first order, got %+v", result.Success)
	}
	if first.InvoiceNumber != "INV202603010001" {
		t.Fatalf("expected invoice on the order's own day, got %s", first.InvoiceNumber)
	}
	if result.Failed[0].LocalID != "offline-002" || !strings.HasPrefix(result.Failed[0].Error, "created_at: ") {
		t.Fatalf("unexpected failure %+v", result.Failed[0])
	}

	product, _ := repo.GetProduct(context.Background(), 5)
	if product.Stock != 197 {
		t.Fatalf("expected single decrement to 197, got %d", product.Stock)
	}

	again, err := svc.SyncTransactions(ctx, domain.SyncRequest{Transactions: []domain.SyncTransactionInput{entry}})
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if again.TotalSuccess != 1 || !again.Success[0].Duplicate {
		t.Fatalf("expected duplicate on second batch, got %+v", again)
	}

	stored, err := svc.GetTransaction(ctx, first.TransactionID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if stored.ClientRef != "offline-001" || stored.CreatedAt.In(jakarta).Format("2006-01-02 15:04:05") != "2026-03-01 09:15:00" {
		t.Fatalf("expected created_at preserved, got %s", stored.CreatedAt)
	}
}

func TestSyncRejectsEmptyBatch(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	_, err := svc.SyncTransactions(cashierCtx(), domain.SyncRequest{})
	mustFieldError(t, err, "transactions")
}

func TestSyncReportsMissingLocalID(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	result, err := svc.SyncTransactions(cashierCtx(), domain.SyncRequest{Transactions: []domain.SyncTransactionInput{{
		CreatedAt: "2026-03-01T09:15:00+07:00",
		CreateTransactionRequest: domain.CreateTransactionRequest{
			PaymentMethod: domain.PaymentCash,
			PaidAmount:    dec("3500"),
			Items:         []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}},
		},
	}}})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.TotalFailed != 1 || !strings.HasPrefix(result.Failed[0].Error, "local_id: ") {
		t.Fatalf("expected local_id failure, got %+v", result)
	}
}

func TestTransactionSummaryAggregatesDay(t *testing.T) {
	now := clockAt(10)
	svc, _ := newTestService(now)
	ctx := cashierCtx()

	orders := []domain.CreateTransactionRequest{
		{PaymentMethod: domain.PaymentCash, PaidAmount: dec("10000"), Items: []domain.TransactionItemInput{{ProductID: 1, Qty: 2, Price: dec("3500")}}},
		{PaymentMethod: domain.PaymentQRIS, PaidAmount: dec("26500"), DiscountAmount: dec("500"), Items: []domain.TransactionItemInput{{ProductID: 2, Qty: 1, Price: dec("26500")}}},
	}
	for _, order := range orders {
		if _, err := svc.CreateTransaction(ctx, order); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	summary, err := svc.TransactionSummary(ctx, SummaryQuery{})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Date != now.Format("2006-01-02") || summary.TotalTransactions != 2 || summary.TotalItems != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !summary.TotalSales.Equal(dec("33000")) || !summary.TotalDiscount.Equal(dec("500")) || !summary.AverageTransaction.Equal(dec("16500")) {
		t.Fatalf("unexpected money totals sales=%s discount=%s avg=%s", summary.TotalSales, summary.TotalDiscount, summary.AverageTransaction)
	}
	if len(summary.ByPaymentMethod) != len(domain.PaymentMethods) || summary.ByPaymentMethod[0].PaymentMethod != domain.PaymentCash {
		t.Fatalf("unexpected payment breakdown %+v", summary.ByPaymentMethod)
	}
	if summary.ByPaymentMethod[2].Label != "QRIS" || summary.ByPaymentMethod[2].Count != 1 {
		t.Fatalf("unexpected qris bucket %+v", summary.ByPaymentMethod[2])
	}
	if len(summary.HourlyBreakdown) != 24 || summary.HourlyBreakdown[10].Count != 2 {
		t.Fatalf("expected both orders in hour 10, got %+v", summary.HourlyBreakdown[10])
	}

	other := int64(1)
	filtered, err := svc.TransactionSummary(ctx, SummaryQuery{UserID: &other})
	if err != nil {
		t.Fatalf("filtered summary failed: %v", err)
	}
	if filtered.TotalTransactions != 0 || !filtered.AverageTransaction.IsZero() {
		t.Fatalf("expected empty summary for admin, got %+v", filtered)
	}

	if _, err := svc.TransactionSummary(ctx, SummaryQuery{Date: "01-04-2026"}); err == nil {
		t.Fatalf("expected malformed date to fail")
	}
}

func TestTodayTransactionsOwnFilter(t *testing.T) {
	svc, _ := newTestService(clockAt(10))
	order := domain.CreateTransactionRequest{PaymentMethod: domain.PaymentCash, PaidAmount: dec("3500"), Items: []domain.TransactionItemInput{{ProductID: 1, Qty: 1, Price: dec("3500")}}}

	if _, err := svc.CreateTransaction(cashierCtx(), order); err != nil {
		t.Fatalf("cashier create failed: %v", err)
	}
	adminCtx := WithActor(context.Background(), adminActor)
	if _, err := svc.CreateTransaction(adminCtx, order); err != nil {
		t.Fatalf("admin create failed: %v", err)
	}

	all, err := svc.TodayTransactions(adminCtx, false, NormalizePage(1, 15))
	if err != nil {
		t.Fatalf("today failed: %v", err)
	}
	own, err := svc.TodayTransactions(adminCtx, true, NormalizePage(1, 15))
	if err != nil {
		t.Fatalf("today own failed: %v", err)
	}
	if all.Total != 2 || own.Total != 1 || own.Items[0].UserID != adminActor.UserID {
		t.Fatalf("unexpected today lists all=%d own=%d", all.Total, own.Total)
	}
}

func TestCashFlowOwnershipPolicy(t *testing.T) {
	svc, _ := newTestService(clockAt(10))
	ctx := cashierCtx()
	adminCtx := WithActor(context.Background(), adminActor)

	flow, err := svc.CreateCashFlow(ctx, domain.CashFlowRequest{Type: domain.CashFlowOut, Amount: dec("15000"), Description: "Beli plastik"})
	if err != nil {
		t.Fatalf("create cash flow failed: %v", err)
	}
	if flow.TypeLabel != "Kas Keluar" || flow.UserID != cashierActor.UserID {
		t.Fatalf("unexpected cash flow %+v", flow)
	}

	_, err = svc.UpdateCashFlow(adminCtx, flow.ID, domain.CashFlowRequest{Type: domain.CashFlowIn, Amount: dec("1"), Description: "x"})
	if !errors.Is(err, policy.ErrForbidden) || err.Error() != "Anda tidak memiliki akses untuk mengubah data ini" {
		t.Fatalf("expected admin update to be forbidden, got %v", err)
	}
	if err := svc.DeleteCashFlow(adminCtx, flow.ID); !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected admin delete to be forbidden, got %v", err)
	}

	updated, err := svc.UpdateCashFlow(ctx, flow.ID, domain.CashFlowRequest{Type: domain.CashFlowOut, Amount: dec("12000"), Description: "Beli plastik besar"})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if !updated.Amount.Equal(dec("12000")) {
		t.Fatalf("expected updated amount, got %s", updated.Amount)
	}
	if err := svc.DeleteCashFlow(ctx, flow.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := svc.GetCashFlow(ctx, flow.ID); err == nil {
		t.Fatalf("expected deleted cash flow to be gone")
	}
}

func TestCashFlowSummaryTotals(t *testing.T) {
	svc, _ := newTestService(clockAt(10))
	ctx := cashierCtx()

	for _, req := range []domain.CashFlowRequest{
		{Type: domain.CashFlowIn, Amount: dec("200000"), Description: "Modal awal"},
		{Type: domain.CashFlowOut, Amount: dec("50000"), Description: "Bayar listrik"},
		{Type: domain.CashFlowOut, Amount: dec("10000"), Description: "Parkir"},
	} {
		if _, err := svc.CreateCashFlow(ctx, req); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	summary, err := svc.CashFlowSummary(ctx, CashFlowSummaryQuery{})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !summary.Today.In.Equal(dec("200000")) || !summary.Today.Out.Equal(dec("60000")) || !summary.Today.Balance.Equal(dec("140000")) || summary.Today.Count != 3 {
		t.Fatalf("unexpected day totals %+v", summary.Today)
	}
	if !summary.Month.Balance.Equal(dec("140000")) || len(summary.Recent) != 3 {
		t.Fatalf("unexpected month totals %+v recent=%d", summary.Month, len(summary.Recent))
	}

	_, err = svc.CreateCashFlow(ctx, domain.CashFlowRequest{Type: "transfer", Amount: dec("0")})
	verr, ok := validation.As(err)
	if !ok || len(verr.Fields["type"]) == 0 || len(verr.Fields["amount"]) == 0 || len(verr.Fields["description"]) == 0 {
		t.Fatalf("expected field errors, got %v", err)
	}
}

func TestCheckDiscountsStacksApplicable(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	result, err := svc.CheckDiscounts(context.Background(), domain.DiscountCheckRequest{Items: []domain.CartLine{
		{ProductID: 1, Qty: 10, Price: dec("3500")},
		{ProductID: 2, Qty: 3, Price: dec("26500")},
	}})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	// 10% of 35000 on the noodles plus the flat 5000 over 100000.
	if !result.Subtotal.Equal(dec("114500")) || !result.TotalDiscount.Equal(dec("8500")) || !result.GrandTotal.Equal(dec("106000")) {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.AppliedDiscounts) != 2 {
		t.Fatalf("expected two discounts, got %+v", result.AppliedDiscounts)
	}

	_, err = svc.CheckDiscounts(context.Background(), domain.DiscountCheckRequest{Items: []domain.CartLine{{ProductID: 404, Qty: 1, Price: dec("1")}}})
	mustFieldError(t, err, "items.0.product_id")
}

func TestListDiscountsLabelsStatus(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	page, err := svc.ListDiscounts(context.Background(), "", NormalizePage(1, 15))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	statuses := make(map[int64]string, len(page.Items))
	for _, d := range page.Items {
		statuses[d.ID] = d.Status
	}
	if statuses[1] != domain.DiscountStatusActive || statuses[3] != domain.DiscountStatusScheduled || statuses[4] != domain.DiscountStatusExpired {
		t.Fatalf("unexpected statuses %v", statuses)
	}

	active, err := svc.ActiveDiscounts(context.Background())
	if err != nil {
		t.Fatalf("active failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected two active discounts, got %d", len(active))
	}

	if _, err := svc.ListDiscounts(context.Background(), "bogus", NormalizePage(1, 15)); err == nil {
		t.Fatalf("expected bad scope to fail")
	}
}

func TestCalculateWholesalePicksTier(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	quote, err := svc.CalculateWholesale(context.Background(), domain.WholesaleCalculateRequest{ProductID: 1, Qty: 12})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if !quote.IsWholesale || !quote.FinalPrice.Equal(dec("3200")) || !quote.Savings.Equal(dec("3600")) {
		t.Fatalf("unexpected quote %+v", quote)
	}

	report, err := svc.ProductWholesale(context.Background(), 1)
	if err != nil {
		t.Fatalf("product wholesale failed: %v", err)
	}
	if len(report.Tiers) != 2 || report.Tiers[0].MinQty != 10 {
		t.Fatalf("unexpected tiers %+v", report.Tiers)
	}
}

func TestLowStockCacheDroppedAfterSale(t *testing.T) {
	svc, _ := newTestService(clockAt(10))
	ctx := cashierCtx()

	before, err := svc.LowStockProducts(ctx, NormalizePage(1, 15))
	if err != nil {
		t.Fatalf("low stock failed: %v", err)
	}
	if before.Total != 1 || before.Items[0].ID != 6 {
		t.Fatalf("expected only product 6 low, got %+v", before.Items)
	}

	_, err = svc.CreateTransaction(ctx, domain.CreateTransactionRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    dec("500000"),
		Items:         []domain.TransactionItemInput{{ProductID: 5, Qty: 175, Price: dec("2600")}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	after, err := svc.LowStockProducts(ctx, NormalizePage(1, 15))
	if err != nil {
		t.Fatalf("low stock failed: %v", err)
	}
	if after.Total != 2 {
		t.Fatalf("expected coffee to join the low-stock list, got %+v", after.Items)
	}
}

func TestExpiredProductsAndViews(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	expired, err := svc.ExpiredProducts(context.Background(), NormalizePage(1, 15))
	if err != nil {
		t.Fatalf("expired failed: %v", err)
	}
	if expired.Total != 1 || expired.Items[0].ID != 7 || !expired.Items[0].IsExpired {
		t.Fatalf("unexpected expired list %+v", expired.Items)
	}

	product, err := svc.FindProductByBarcode(context.Background(), "8991001000011")
	if err != nil {
		t.Fatalf("barcode lookup failed: %v", err)
	}
	if product.ID != 1 || !product.Profit.Equal(dec("700")) || !product.ProfitMargin.Equal(dec("25")) {
		t.Fatalf("unexpected product view %+v", product)
	}

	if _, err := svc.SearchProducts(context.Background(), "  ", NormalizePage(1, 15)); err == nil {
		t.Fatalf("expected empty search to fail")
	}
}

func TestUsersRequireAdmin(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	if _, err := svc.ListUsers(cashierCtx(), domain.UserFilter{}, NormalizePage(1, 15)); !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected cashier list to be forbidden, got %v", err)
	}
	page, err := svc.ListUsers(WithActor(context.Background(), adminActor), domain.UserFilter{Search: "Satu"}, NormalizePage(1, 15))
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].Username != "kasir" {
		t.Fatalf("unexpected users %+v", page.Items)
	}

	self, err := svc.GetUser(cashierCtx(), cashierActor.UserID)
	if err != nil || self.ID != cashierActor.UserID {
		t.Fatalf("expected cashier to view self, got %v", err)
	}
	if _, err := svc.GetUser(cashierCtx(), adminActor.UserID); !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("expected cashier to be denied admin profile, got %v", err)
	}
}

func TestStoreSettingsServedFromCache(t *testing.T) {
	svc, _ := newTestService(clockAt(10))

	settings, err := svc.StoreSettings(context.Background())
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	if settings.Name != "Toko Kasirpos" {
		t.Fatalf("unexpected settings %+v", settings)
	}
	cached, ok, err := cache.GetJSON[domain.StoreSettings](context.Background(), svc.cache, cache.KeyStoreSettings)
	if err != nil || !ok || cached.Name != settings.Name {
		t.Fatalf("expected settings cached, ok=%t err=%v", ok, err)
	}
}

func TestPaginationSaturatesHugePages(t *testing.T) {
	page := NormalizePage(math.MaxInt, 500)
	if page.Page != MaxPage || page.PerPage != MaxPerPage {
		t.Fatalf("expected clamped page, got %+v", page)
	}

	raw := domain.PageRequest{Page: 4611686018427387905, PerPage: 4}
	if got := raw.Offset(); got != math.MaxInt {
		t.Fatalf("expected saturated offset, got %d", got)
	}
	out := paginateSlice([]int{1, 2, 3}, raw)
	if len(out.Items) != 0 || out.Total != 3 {
		t.Fatalf("expected empty page past the end, got %+v", out)
	}
	if got := paginateSlice([]int{1, 2, 3}, domain.PageRequest{Page: 2, PerPage: 2}).Items; len(got) != 1 || got[0] != 3 {
		t.Fatalf("unexpected second page %v", got)
	}
}
