package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `
	u.id, u.name, u.username, u.email, COALESCE(u.phone,''), u.role, u.is_active, u.password_hash,
	(SELECT COUNT(*) FROM transactions t WHERE t.user_id = u.id), u.created_at, u.updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Username, &user.Email, &user.Phone, &user.Role, &user.IsActive,
		&user.PasswordHash, &user.TransactionsCount, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" || user.Email == "" || user.PasswordHash == "" {
		return nil, store.ErrInvalidTransaction
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, username, email, phone, role, is_active, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		RETURNING id, created_at, updated_at
	`, user.Name, user.Username, user.Email, nullIfEmpty(user.Phone), user.Role, user.IsActive, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, store.ErrNotFound
	}
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE lower(u.username) = lower($1) OR lower(u.email) = lower($1)
		LIMIT 1
	`, login))
}

func (s *Store) UpdateUserProfile(ctx context.Context, user domain.User) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, username = $3, email = $4, phone = $5, updated_at = now()
		WHERE id = $1
	`, user.ID, user.Name, strings.TrimSpace(user.Username), strings.ToLower(strings.TrimSpace(user.Email)), nullIfEmpty(user.Phone))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	if strings.TrimSpace(passwordHash) == "" {
		return store.ErrInvalidTransaction
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) ListUsers(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) (domain.Page[domain.User], error) {
	var where conditions
	if search := strings.TrimSpace(filter.Search); search != "" {
		where.add(`(u.name ILIKE ? OR u.username ILIKE ? OR u.email ILIKE ?)`, likePattern(search))
	}
	if filter.IsActive != nil {
		where.add(`u.is_active = ?`, *filter.IsActive)
	}

	result := domain.Page[domain.User]{Page: pageNumber(page), PerPage: perPage(page)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where.sql(), where.args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query, args := where.paginate(`SELECT `+userColumns+` FROM users u`, `ORDER BY u.name, u.id`, page)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	result.Items = make([]domain.User, 0, result.PerPage)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *user)
	}
	return result, rows.Err()
}

func (s *Store) GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error) {
	var settings domain.StoreSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT name, address, phone, email, COALESCE(logo,''), printer_size, receipt_footer
		FROM store_settings
		WHERE id = 1
	`).Scan(&settings.Name, &settings.Address, &settings.Phone, &settings.Email, &settings.Logo, &settings.PrinterSize, &settings.ReceiptFooter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// SaveStoreSettings upserts the single settings row. Used at startup to
// push configured defaults into a fresh database.
func (s *Store) SaveStoreSettings(ctx context.Context, settings domain.StoreSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO store_settings (id, name, address, phone, email, logo, printer_size, receipt_footer, updated_at)
		VALUES (1,$1,$2,$3,$4,$5,$6,$7,now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone, email = EXCLUDED.email,
			logo = EXCLUDED.logo, printer_size = EXCLUDED.printer_size, receipt_footer = EXCLUDED.receipt_footer,
			updated_at = now()
	`, settings.Name, settings.Address, settings.Phone, settings.Email, nullIfEmpty(settings.Logo), settings.PrinterSize, settings.ReceiptFooter)
	return err
}

const categoryColumns = `
	c.id, c.name, COALESCE(c.description,''), c.sort_order, c.is_active,
	(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.is_active), c.created_at, c.updated_at`

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive, &c.ProductsCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		WHERE c.is_active = true
		ORDER BY c.sort_order, c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1`, id))
}

const productColumns = `
	p.id, p.category_id, COALESCE(c.name,''), p.name, COALESCE(p.barcode,''), COALESCE(p.description,''),
	p.buy_price, p.sell_price, p.stock, p.min_stock, p.unit, p.expired_date, p.is_active, p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var expired sql.NullTime
	err := row.Scan(&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Barcode, &p.Description,
		&p.BuyPrice, &p.SellPrice, &p.Stock, &p.MinStock, &p.Unit, &expired, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if expired.Valid {
		day := nowDateUTC(expired.Time)
		p.ExpiredDate = &day
	}
	return &p, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (domain.Page[domain.Product], error) {
	var where conditions
	where.add(`p.is_active = ?`, true)
	if filter.CategoryID != nil {
		where.add(`p.category_id = ?`, *filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where.add(`(p.name ILIKE ? OR p.barcode ILIKE ?)`, likePattern(search))
	}

	result := domain.Page[domain.Product]{Page: pageNumber(page), PerPage: perPage(page)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+where.sql(), where.args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query, args := where.paginate(`SELECT `+productColumns+productFrom, `ORDER BY p.name, p.id`, page)
	products, err := s.queryProducts(ctx, query, args...)
	if err != nil {
		return result, err
	}
	result.Items = products
	return result, nil
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+productFrom+`
		WHERE p.is_active = true AND p.stock <= p.min_stock
		ORDER BY p.stock, p.id
	`)
}

func (s *Store) ListExpiredProducts(ctx context.Context, asOf time.Time) ([]domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+productFrom+`
		WHERE p.is_active = true AND p.expired_date IS NOT NULL AND p.expired_date <= $1::date
		ORDER BY p.expired_date, p.id
	`, asOf.Format("2006-01-02"))
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if p.WholesalePrices, err = s.activeTiers(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrNotFound
	}
	p, err := scanProduct(s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+productFrom+`
		WHERE p.barcode = $1 AND p.is_active = true
	`, barcode))
	if err != nil {
		return nil, err
	}
	if p.WholesalePrices, err = s.activeTiers(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	products, err := s.queryProducts(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	tiers, err := s.queryTiers(ctx, `
		SELECT id, product_id, min_qty, price, is_active, created_at
		FROM wholesale_prices
		WHERE is_active = true AND product_id = ANY($1)
		ORDER BY product_id, min_qty
	`, ids)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[int64][]domain.WholesalePrice, len(products))
	for _, tier := range tiers {
		byProduct[tier.ProductID] = append(byProduct[tier.ProductID], tier)
	}
	for _, p := range products {
		p.WholesalePrices = byProduct[p.ID]
		result[p.ID] = p
	}
	return result, nil
}

func (s *Store) ListStockHistory(ctx context.Context, productID int64, limit int) ([]domain.StockHistory, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, user_id, transaction_id, type, qty, stock_before, stock_after, COALESCE(description,''), created_at
		FROM stock_histories
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.StockHistory, 0, limit)
	for rows.Next() {
		var h domain.StockHistory
		var userID, txID sql.NullInt64
		if err := rows.Scan(&h.ID, &h.ProductID, &userID, &txID, &h.Type, &h.Qty, &h.StockBefore, &h.StockAfter, &h.Description, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.UserID = int64Ptr(userID)
		h.TransactionID = int64Ptr(txID)
		h.CreatedAt = h.CreatedAt.UTC()
		history = append(history, h)
	}
	return history, rows.Err()
}

const discountColumns = `id, name, type, value_type, value, product_id, min_purchase, start_date, end_date, is_active, created_at, updated_at`

func scanDiscount(row rowScanner) (*domain.Discount, error) {
	var d domain.Discount
	var productID sql.NullInt64
	var start, end sql.NullTime
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.ValueType, &d.Value, &productID, &d.MinPurchase, &start, &end, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	d.ProductID = int64Ptr(productID)
	d.StartDate = timePtr(start)
	d.EndDate = timePtr(end)
	return &d, nil
}

func (s *Store) queryDiscounts(ctx context.Context, query string, args ...any) ([]domain.Discount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	discounts := make([]domain.Discount, 0, 16)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, *d)
	}
	return discounts, rows.Err()
}

func (s *Store) ListDiscounts(ctx context.Context, scope string, page domain.PageRequest) (domain.Page[domain.Discount], error) {
	var where conditions
	if scope != "" {
		where.add(`type = ?`, scope)
	}

	result := domain.Page[domain.Discount]{Page: pageNumber(page), PerPage: perPage(page)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM discounts`+where.sql(), where.args...).Scan(&result.Total); err != nil {
		return result, err
	}
	query, args := where.paginate(`SELECT `+discountColumns+` FROM discounts`, `ORDER BY id DESC`, page)
	discounts, err := s.queryDiscounts(ctx, query, args...)
	if err != nil {
		return result, err
	}
	result.Items = discounts
	return result, nil
}

func (s *Store) ListActiveDiscounts(ctx context.Context, now time.Time) ([]domain.Discount, error) {
	return s.queryDiscounts(ctx, `
		SELECT `+discountColumns+`
		FROM discounts
		WHERE is_active = true
			AND (start_date IS NULL OR start_date <= $1)
			AND (end_date IS NULL OR end_date >= $1)
		ORDER BY id
	`, now)
}

func (s *Store) GetDiscount(ctx context.Context, id int64) (*domain.Discount, error) {
	return scanDiscount(s.db.QueryRowContext(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id))
}

func (s *Store) queryTiers(ctx context.Context, query string, args ...any) ([]domain.WholesalePrice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]domain.WholesalePrice, 0, 8)
	for rows.Next() {
		var w domain.WholesalePrice
		if err := rows.Scan(&w.ID, &w.ProductID, &w.MinQty, &w.Price, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, err
		}
		tiers = append(tiers, w)
	}
	return tiers, rows.Err()
}

func (s *Store) activeTiers(ctx context.Context, productID int64) ([]domain.WholesalePrice, error) {
	return s.queryTiers(ctx, `
		SELECT id, product_id, min_qty, price, is_active, created_at
		FROM wholesale_prices
		WHERE product_id = $1 AND is_active = true
		ORDER BY min_qty
	`, productID)
}

func (s *Store) ListWholesalePrices(ctx context.Context, productID *int64, page domain.PageRequest) (domain.Page[domain.WholesalePrice], error) {
	var where conditions
	if productID != nil {
		where.add(`product_id = ?`, *productID)
	}

	result := domain.Page[domain.WholesalePrice]{Page: pageNumber(page), PerPage: perPage(page)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wholesale_prices`+where.sql(), where.args...).Scan(&result.Total); err != nil {
		return result, err
	}
	query, args := where.paginate(`SELECT id, product_id, min_qty, price, is_active, created_at FROM wholesale_prices`, `ORDER BY product_id, min_qty`, page)
	tiers, err := s.queryTiers(ctx, query, args...)
	if err != nil {
		return result, err
	}
	result.Items = tiers
	return result, nil
}

func (s *Store) ListWholesaleByProduct(ctx context.Context, productID int64) ([]domain.WholesalePrice, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	return s.activeTiers(ctx, productID)
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var shift domain.Shift
	var start, end string
	if err := row.Scan(&shift.ID, &shift.Name, &start, &end, &shift.IsActive, &shift.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var err error
	if shift.StartTime, err = domain.ParseTimeOfDay(start); err != nil {
		return nil, err
	}
	if shift.EndTime, err = domain.ParseTimeOfDay(end); err != nil {
		return nil, err
	}
	return &shift, nil
}

const shiftColumns = `id, name, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), is_active, created_at`

func (s *Store) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE is_active = true
		ORDER BY start_time
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, 4)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *shift)
	}
	return shifts, rows.Err()
}

func (s *Store) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	return scanShift(s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
}

// conditions accumulates a WHERE clause. Each "?" in a clause is bound to
// the single argument passed alongside it.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) sql() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func (c *conditions) paginate(selectFrom string, orderBy string, page domain.PageRequest) (string, []any) {
	offset := domain.PageRequest{Page: pageNumber(page), PerPage: perPage(page)}.Offset()
	args := append(append([]any(nil), c.args...), perPage(page), offset)
	query := fmt.Sprintf("%s%s %s LIMIT $%d OFFSET $%d", selectFrom, c.sql(), orderBy, len(args)-1, len(args))
	return query, args
}

const defaultPerPage = 15

func perPage(page domain.PageRequest) int {
	if page.PerPage < 1 {
		return defaultPerPage
	}
	return page.PerPage
}

func pageNumber(page domain.PageRequest) int {
	if page.Page < 1 {
		return 1
	}
	return page.Page
}

func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(search) + "%"
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func nowDateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullInt64(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func int64Ptr(val sql.NullInt64) *int64 {
	if !val.Valid {
		return nil
	}
	v := val.Int64
	return &v
}

func timePtr(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	v := val.Time.UTC()
	return &v
}
