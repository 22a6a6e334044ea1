package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/service"
	"kasirpos/backend/internal/validation"
	"kasirpos/backend/internal/xid"
)

const maxBodyBytes = 1 << 20

type Options struct {
	AllowedOrigin string
	APIKey        string
}

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	apiKey        string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: opts.AllowedOrigin,
		apiKey:        opts.APIKey,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)

	mux.HandleFunc("POST /api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/logout", a.requireAuth(a.handleLogout))
	mux.HandleFunc("GET /api/v1/auth/me", a.requireAuth(a.handleMe))
	mux.HandleFunc("POST /api/v1/auth/profile", a.requireAuth(a.handleUpdateProfile))
	mux.HandleFunc("POST /api/v1/auth/password", a.requireAuth(a.handleUpdatePassword))

	mux.HandleFunc("GET /api/v1/store", a.requireAuth(a.handleStore))

	mux.HandleFunc("GET /api/v1/categories", a.requireAuth(a.handleCategories))
	mux.HandleFunc("GET /api/v1/categories/{id}", a.requireAuth(a.handleCategory))
	mux.HandleFunc("GET /api/v1/categories/{id}/products", a.requireAuth(a.handleCategoryProducts))

	mux.HandleFunc("GET /api/v1/products", a.requireAuth(a.handleProducts))
	mux.HandleFunc("GET /api/v1/products/search", a.requireAuth(a.handleProductSearch))
	mux.HandleFunc("GET /api/v1/products/low-stock", a.requireAuth(a.handleLowStock))
	mux.HandleFunc("GET /api/v1/products/expired", a.requireAuth(a.handleExpired))
	mux.HandleFunc("POST /api/v1/products/barcode", a.requireAuth(a.handleBarcode))
	mux.HandleFunc("GET /api/v1/products/{id}", a.requireAuth(a.handleProduct))
	mux.HandleFunc("GET /api/v1/products/{id}/stock-history", a.requireAuth(a.handleStockHistory))

	mux.HandleFunc("GET /api/v1/discounts", a.requireAuth(a.handleDiscounts))
	mux.HandleFunc("GET /api/v1/discounts/active", a.requireAuth(a.handleActiveDiscounts))
	mux.HandleFunc("POST /api/v1/discounts/check", a.requireAuth(a.handleDiscountCheck))
	mux.HandleFunc("GET /api/v1/discounts/{id}", a.requireAuth(a.handleDiscount))

	mux.HandleFunc("GET /api/v1/wholesale-prices", a.requireAuth(a.handleWholesalePrices))
	mux.HandleFunc("GET /api/v1/wholesale-prices/product/{id}", a.requireAuth(a.handleProductWholesale))
	mux.HandleFunc("POST /api/v1/wholesale-prices/calculate", a.requireAuth(a.handleWholesaleCalculate))

	mux.HandleFunc("GET /api/v1/shifts", a.requireAuth(a.handleShifts))
	mux.HandleFunc("GET /api/v1/shifts/current", a.requireAuth(a.handleCurrentShift))
	mux.HandleFunc("GET /api/v1/shifts/{id}", a.requireAuth(a.handleShift))

	mux.HandleFunc("GET /api/v1/transactions", a.requireAuth(a.handleTransactions))
	mux.HandleFunc("POST /api/v1/transactions", a.requireAuth(a.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions/today", a.requireAuth(a.handleTodayTransactions))
	mux.HandleFunc("GET /api/v1/transactions/summary", a.requireAuth(a.handleTransactionSummary))
	mux.HandleFunc("POST /api/v1/transactions/sync", a.requireAuth(a.handleSync))
	mux.HandleFunc("GET /api/v1/transactions/{id}", a.requireAuth(a.handleTransaction))

	mux.HandleFunc("GET /api/v1/cash-flows", a.requireAuth(a.handleCashFlows))
	mux.HandleFunc("POST /api/v1/cash-flows", a.requireAuth(a.handleCreateCashFlow))
	mux.HandleFunc("GET /api/v1/cash-flows/today", a.requireAuth(a.handleTodayCashFlows))
	mux.HandleFunc("GET /api/v1/cash-flows/summary", a.requireAuth(a.handleCashFlowSummary))
	mux.HandleFunc("GET /api/v1/cash-flows/{id}", a.requireAuth(a.handleCashFlow))
	mux.HandleFunc("PUT /api/v1/cash-flows/{id}", a.requireAuth(a.handleUpdateCashFlow))
	mux.HandleFunc("DELETE /api/v1/cash-flows/{id}", a.requireAuth(a.handleDeleteCashFlow))

	mux.HandleFunc("GET /api/v1/users", a.requireAuth(a.handleUsers))
	mux.HandleFunc("GET /api/v1/users/{id}", a.requireAuth(a.handleUser))

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Endpoint tidak ditemukan", nil)
	})

	return a.withMiddleware(a.requireAPIKey(mux))
}

type sessionContextKey struct{}

func sessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeFailure(w, http.StatusUnauthorized, "Token tidak ditemukan", nil)
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		session, err := a.auth.Authenticate(r.Context(), token)
		switch {
		case errors.Is(err, ErrInvalidToken):
			writeFailure(w, http.StatusUnauthorized, err.Error(), nil)
			return
		case errors.Is(err, ErrInactiveAccount):
			writeFailure(w, http.StatusForbidden, err.Error(), nil)
			return
		case err != nil:
			writeServiceError(w, err, "")
			return
		}

		ctx := service.WithActor(r.Context(), session.Actor)
		ctx = context.WithValue(ctx, sessionContextKey{}, session)
		next(w, r.WithContext(ctx))
	}
}

// requireAPIKey gates every /api/v1 route on the Accept header and the
// shared client key.
func (a *API) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/") {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/json") {
			writeFailure(w, http.StatusBadRequest, "Header Accept harus application/json", nil)
			return
		}
		key := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if key == "" {
			writeFailure(w, http.StatusUnauthorized, "API key tidak ditemukan", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) != 1 {
			writeFailure(w, http.StatusUnauthorized, "API key tidak valid", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-API-Key, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		w.Header().Set("Vary", "Origin")

		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > 64 {
			requestID = xid.New("req")
		}
		w.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s rid=%s", r.Method, r.URL.Path, rec.status, time.Since(startedAt), requestID)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

var errBodyTooLarge = errors.New("Ukuran request terlalu besar")

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

// bindJSON decodes the body and writes a 400 on malformed input.
func bindJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r, dest); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeFailure(w, http.StatusBadRequest, err.Error(), nil)
			return false
		}
		writeFailure(w, http.StatusBadRequest, "Format JSON tidak valid", nil)
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pageRequest(r *http.Request) domain.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	perPage, _ := strconv.Atoi(strings.TrimSpace(q.Get("per_page")))
	return service.NormalizePage(page, perPage)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// queryID reads an optional positive integer filter.
func queryID(r *http.Request, field string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(field))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, validation.Field(field, strings.ReplaceAll(field, "_", " ")+" harus berupa angka positif")
	}
	return &id, nil
}

func queryBool(r *http.Request, field string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(field))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
