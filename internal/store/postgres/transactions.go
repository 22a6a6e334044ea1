package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/invoice"
	"kasirpos/backend/internal/store"
)

const (
	invoiceNumberConstraint = "transactions_invoice_number_key"
	clientRefConstraint     = "transactions_client_ref_key"
)

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction, numbering store.Numbering) (*domain.Transaction, error) {
	if len(tx.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	for _, item := range tx.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidTransaction
		}
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	day := numbering.Day.Format("2006-01-02")

	created, err := s.insertTransaction(ctx, tx, numbering.Prefix, day)
	if err == nil {
		return created, nil
	}
	if isUniqueViolation(err) {
		switch violatedConstraint(err) {
		case clientRefConstraint:
			return nil, store.ErrDuplicateClientRef
		case invoiceNumberConstraint:
			// A row numbered outside the counter took our number. Move the
			// counter past it so the caller's retry lands on a free one.
			if syncErr := s.resyncInvoiceCounter(ctx, numbering.Prefix, numbering.Day); syncErr != nil {
				log.Printf("[store/postgres] WARN: invoice counter resync failed: %v", syncErr)
			}
			return nil, fmt.Errorf("invoice number collision: %w", store.ErrDuplicate)
		}
	}
	return nil, err
}

func (s *Store) insertTransaction(ctx context.Context, tx domain.Transaction, prefix string, day string) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	// The counter row stays locked until commit, which serializes invoice
	// allocation per day.
	var seq int
	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO invoice_sequences (prefix, day, last_number)
		VALUES ($1, $2::date, 1)
		ON CONFLICT (prefix, day)
		DO UPDATE SET last_number = invoice_sequences.last_number + 1
		RETURNING last_number
	`, prefix, day).Scan(&seq)
	if err != nil {
		return nil, err
	}
	dayTime, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, err
	}
	tx.InvoiceNumber = invoice.Format(prefix, dayTime, seq)

	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO transactions (
			invoice_number, user_id, shift_id, discount_id, client_ref, subtotal, discount_amount,
			total, paid_amount, change_amount, payment_method, notes, synced_at, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`, tx.InvoiceNumber, tx.UserID, nullInt64(tx.ShiftID), nullInt64(tx.DiscountID), nullIfEmpty(tx.ClientRef),
		tx.Subtotal, tx.DiscountAmount, tx.Total, tx.PaidAmount, tx.ChangeAmount, tx.PaymentMethod,
		nullIfEmpty(tx.Notes), nullTime(tx.SyncedAt), tx.CreatedAt).Scan(&tx.ID)
	if err != nil {
		return nil, err
	}

	// Decrement in product id order so concurrent orders lock rows in the
	// same sequence.
	stockBefore := make(map[int64]int, len(tx.Items))
	for _, dec := range aggregateDecrements(tx.Items) {
		var after int
		err := pgTx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = now()
			WHERE id = $2 AND stock >= $1
			RETURNING stock
		`, dec.Qty, dec.ProductID).Scan(&after)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.stockFailure(ctx, pgTx, dec)
		}
		if err != nil {
			return nil, err
		}
		stockBefore[dec.ProductID] = after + dec.Qty
	}

	for i := range tx.Items {
		item := &tx.Items[i]
		item.TransactionID = tx.ID
		err := pgTx.QueryRowContext(ctx, `
			INSERT INTO transaction_items (
				transaction_id, product_id, product_name, qty, price, discount_per_item, is_wholesale, subtotal
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING id
		`, tx.ID, item.ProductID, item.ProductName, item.Qty, item.Price, item.DiscountPerItem, item.IsWholesale, item.Subtotal).
			Scan(&item.ID)
		if err != nil {
			return nil, err
		}

		before := stockBefore[item.ProductID]
		after := before - item.Qty
		stockBefore[item.ProductID] = after
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO stock_histories (
				product_id, user_id, transaction_id, type, qty, stock_before, stock_after, description, created_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, item.ProductID, tx.UserID, tx.ID, domain.StockSale, item.Qty, before, after, "Penjualan "+tx.InvoiceNumber, tx.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) stockFailure(ctx context.Context, pgTx *sql.Tx, dec domain.StockDecrement) error {
	var available int
	err := pgTx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, dec.ProductID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %d: %w", dec.ProductID, store.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return &store.StockError{ProductID: dec.ProductID, Requested: dec.Qty, Available: available}
}

func (s *Store) resyncInvoiceCounter(ctx context.Context, prefix string, day time.Time) error {
	digits := day.Format("20060102")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_sequences (prefix, day, last_number)
		SELECT $1, $2::date, COALESCE(MAX(SUBSTRING(invoice_number FROM $4::int)::int), 0)
		FROM transactions
		WHERE invoice_number LIKE $3
		ON CONFLICT (prefix, day)
		DO UPDATE SET last_number = GREATEST(invoice_sequences.last_number, EXCLUDED.last_number)
	`, prefix, day.Format("2006-01-02"), prefix+digits+"%", len(prefix)+len(digits)+1)
	return err
}

func aggregateDecrements(items []domain.TransactionItem) []domain.StockDecrement {
	totals := make(map[int64]int, len(items))
	for _, item := range items {
		totals[item.ProductID] += item.Qty
	}
	decrements := make([]domain.StockDecrement, 0, len(totals))
	for productID, qty := range totals {
		decrements = append(decrements, domain.StockDecrement{ProductID: productID, Qty: qty})
	}
	sort.Slice(decrements, func(i, j int) bool { return decrements[i].ProductID < decrements[j].ProductID })
	return decrements
}

const transactionColumns = `
	t.id, t.invoice_number, t.user_id, COALESCE(u.name,''), t.shift_id, t.discount_id, COALESCE(t.client_ref,''),
	t.subtotal, t.discount_amount, t.total, t.paid_amount, t.change_amount, t.payment_method,
	COALESCE(t.notes,''), t.synced_at, t.created_at`

const transactionFrom = ` FROM transactions t LEFT JOIN users u ON u.id = t.user_id`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var shiftID, discountID sql.NullInt64
	var syncedAt sql.NullTime
	err := row.Scan(&tx.ID, &tx.InvoiceNumber, &tx.UserID, &tx.UserName, &shiftID, &discountID, &tx.ClientRef,
		&tx.Subtotal, &tx.DiscountAmount, &tx.Total, &tx.PaidAmount, &tx.ChangeAmount, &tx.PaymentMethod,
		&tx.Notes, &syncedAt, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	tx.ShiftID = int64Ptr(shiftID)
	tx.DiscountID = int64Ptr(discountID)
	tx.SyncedAt = timePtr(syncedAt)
	tx.CreatedAt = tx.CreatedAt.UTC()
	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "id", id)
}

func (s *Store) FindTransactionByClientRef(ctx context.Context, clientRef string) (*domain.Transaction, error) {
	if strings.TrimSpace(clientRef) == "" {
		return nil, store.ErrNotFound
	}
	return s.findTransaction(ctx, "client_ref", clientRef)
}

func (s *Store) findTransaction(ctx context.Context, column string, value any) (*domain.Transaction, error) {
	if column != "id" && column != "client_ref" {
		return nil, fmt.Errorf("unsupported lookup column")
	}
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+transactionFrom+` WHERE t.`+column+` = $1`, value))
	if err != nil {
		return nil, err
	}
	txs := []domain.Transaction{*tx}
	if err := s.attachItems(ctx, txs); err != nil {
		return nil, err
	}
	return &txs[0], nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, 32)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if err := s.attachItems(ctx, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *Store) attachItems(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(txs))
	index := make(map[int64]int, len(txs))
	for i, tx := range txs {
		ids = append(ids, tx.ID)
		index[tx.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, product_id, product_name, qty, price, discount_per_item, is_wholesale, subtotal
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.ProductName, &item.Qty,
			&item.Price, &item.DiscountPerItem, &item.IsWholesale, &item.Subtotal); err != nil {
			return err
		}
		i := index[item.TransactionID]
		txs[i].Items = append(txs[i].Items, item)
	}
	return rows.Err()
}

func transactionConditions(filter domain.TransactionFilter) conditions {
	var where conditions
	if filter.UserID != nil {
		where.add(`t.user_id = ?`, *filter.UserID)
	}
	if filter.ShiftID != nil {
		where.add(`t.shift_id = ?`, *filter.ShiftID)
	}
	if filter.From != nil {
		where.add(`t.created_at >= ?`, *filter.From)
	}
	if filter.To != nil {
		where.add(`t.created_at < ?`, *filter.To)
	}
	if filter.PaymentMethod != "" {
		where.add(`t.payment_method = ?`, filter.PaymentMethod)
	}
	return where
}

func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter, page domain.PageRequest) (domain.Page[domain.Transaction], error) {
	where := transactionConditions(filter)
	result := domain.Page[domain.Transaction]{Page: pageNumber(page), PerPage: perPage(page)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions t`+where.sql(), where.args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query, args := where.paginate(`SELECT `+transactionColumns+transactionFrom, `ORDER BY t.created_at DESC, t.id DESC`, page)
	txs, err := s.queryTransactions(ctx, query, args...)
	if err != nil {
		return result, err
	}
	result.Items = txs
	return result, nil
}

func (s *Store) ListTransactionsBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+transactionFrom+`
		WHERE t.created_at >= $1 AND t.created_at < $2
		ORDER BY t.created_at, t.id
	`, from, to)
}

const cashFlowColumns = `
	cf.id, cf.user_id, COALESCE(u.name,''), cf.shift_id, cf.type, cf.amount, cf.description, cf.created_at, cf.updated_at`

const cashFlowFrom = ` FROM cash_flows cf LEFT JOIN users u ON u.id = cf.user_id`

func scanCashFlow(row rowScanner) (*domain.CashFlow, error) {
	var flow domain.CashFlow
	var shiftID sql.NullInt64
	err := row.Scan(&flow.ID, &flow.UserID, &flow.UserName, &shiftID, &flow.Type, &flow.Amount, &flow.Description, &flow.CreatedAt, &flow.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	flow.ShiftID = int64Ptr(shiftID)
	flow.CreatedAt = flow.CreatedAt.UTC()
	flow.UpdatedAt = flow.UpdatedAt.UTC()
	return &flow, nil
}

func cashFlowConditions(filter domain.CashFlowFilter) conditions {
	var where conditions
	if filter.Type != "" {
		where.add(`cf.type = ?`, filter.Type)
	}
	if filter.UserID != nil {
		where.add(`cf.user_id = ?`, *filter.UserID)
	}
	if filter.ShiftID != nil {
		where.add(`cf.shift_id = ?`, *filter.ShiftID)
	}
	if filter.From != nil {
		where.add(`cf.created_at >= ?`, *filter.From)
	}
	if filter.To != nil {
		where.add(`cf.created_at < ?`, *filter.To)
	}
	return where
}

func (s *Store) CreateCashFlow(ctx context.Context, flow domain.CashFlow) (*domain.CashFlow, error) {
	if flow.Type != domain.CashFlowIn && flow.Type != domain.CashFlowOut {
		return nil, store.ErrInvalidTransaction
	}
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cash_flows (user_id, shift_id, type, amount, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
		RETURNING id
	`, flow.UserID, nullInt64(flow.ShiftID), flow.Type, flow.Amount, flow.Description, flow.CreatedAt).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.GetCashFlow(ctx, id)
}

func (s *Store) GetCashFlow(ctx context.Context, id int64) (*domain.CashFlow, error) {
	return scanCashFlow(s.db.QueryRowContext(ctx, `SELECT `+cashFlowColumns+cashFlowFrom+` WHERE cf.id = $1`, id))
}

func (s *Store) UpdateCashFlow(ctx context.Context, flow domain.CashFlow) (*domain.CashFlow, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cash_flows
		SET type = $2, amount = $3, description = $4, shift_id = $5, updated_at = now()
		WHERE id = $1
	`, flow.ID, flow.Type, flow.Amount, flow.Description, nullInt64(flow.ShiftID))
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetCashFlow(ctx, flow.ID)
}

func (s *Store) DeleteCashFlow(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cash_flows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) ListCashFlows(ctx context.Context, filter domain.CashFlowFilter, page domain.PageRequest) (domain.Page[domain.CashFlow], error) {
	where := cashFlowConditions(filter)
	result := domain.Page[domain.CashFlow]{Page: pageNumber(page), PerPage: perPage(page)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cash_flows cf`+where.sql(), where.args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query, args := where.paginate(`SELECT `+cashFlowColumns+cashFlowFrom, `ORDER BY cf.created_at DESC, cf.id DESC`, page)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	result.Items = make([]domain.CashFlow, 0, result.PerPage)
	for rows.Next() {
		flow, err := scanCashFlow(rows)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *flow)
	}
	return result, rows.Err()
}

func (s *Store) SumCashFlows(ctx context.Context, filter domain.CashFlowFilter) (domain.CashTotals, error) {
	where := cashFlowConditions(filter)
	totals := domain.CashTotals{In: decimal.Zero, Out: decimal.Zero}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(cf.amount) FILTER (WHERE cf.type = 'in'), 0),
			COALESCE(SUM(cf.amount) FILTER (WHERE cf.type = 'out'), 0),
			COUNT(*)
		FROM cash_flows cf`+where.sql(), where.args...).Scan(&totals.In, &totals.Out, &totals.Count)
	if err != nil {
		return totals, err
	}
	totals.Balance = totals.In.Sub(totals.Out)
	return totals, nil
}
