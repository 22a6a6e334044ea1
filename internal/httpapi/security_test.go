package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/service"
	"kasirpos/backend/internal/store/memory"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
	if got := res.Header().Get("X-Request-ID"); !strings.HasPrefix(got, "req-") {
		t.Fatalf("expected generated request id, got %q", got)
	}
}

func TestMiddlewareKeepsClientRequestID(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "kasir-01-abc")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Request-ID"); got != "kasir-01-abc" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestAPIKeyGate(t *testing.T) {
	api := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{Login: "admin", Password: "admin123"})

	cases := []struct {
		name    string
		accept  string
		key     string
		status  int
		message string
	}{
		{"missing accept", "", testAPIKey, http.StatusBadRequest, "Header Accept harus application/json"},
		{"html accept", "text/html", testAPIKey, http.StatusBadRequest, "Header Accept harus application/json"},
		{"missing key", "application/json", "", http.StatusUnauthorized, "API key tidak ditemukan"},
		{"wrong key", "application/json", "wrong-key-000000", http.StatusUnauthorized, "API key tidak valid"},
		{"valid", "application/json", testAPIKey, http.StatusOK, "Login berhasil"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if tc.accept != "" {
			req.Header.Set("Accept", tc.accept)
		}
		if tc.key != "" {
			req.Header.Set("X-API-Key", tc.key)
		}
		req.RemoteAddr = fmt.Sprintf("10.0.0.%d:4000", len(tc.name))
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if res.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, res.Code)
		}
		var payload apiResponse
		if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if payload.Message != tc.message {
			t.Fatalf("%s: expected message %q, got %q", tc.name, tc.message, payload.Message)
		}
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	body, _ := json.Marshal(domain.LoginRequest{Login: "admin", Password: "wrong-pass"})

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-API-Key", testAPIKey)
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if i < 5 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 5 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", res.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"login":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Ukuran request terlalu besar") {
		t.Fatalf("unexpected body %s", res.Body.String())
	}
}

func TestServerErrorsAreMasked(t *testing.T) {
	res := httptest.NewRecorder()
	writeServiceError(res, fmt.Errorf("pq: relation \"transactions\" does not exist"), "")

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "relation") {
		t.Fatalf("internal detail leaked: %s", res.Body.String())
	}
	if !strings.Contains(res.Body.String(), "Terjadi kesalahan pada server") {
		t.Fatalf("expected generic message, got %s", res.Body.String())
	}
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("9999", 50, 100); got != 100 {
		t.Fatalf("expected capped limit 100, got %d", got)
	}
	if got := parsePositiveLimit("", 50, 100); got != 50 {
		t.Fatalf("expected fallback limit 50, got %d", got)
	}
	if got := parsePositiveLimit("invalid", 50, 100); got != 50 {
		t.Fatalf("expected fallback on invalid input, got %d", got)
	}
}

func TestRequireAuthHonoursCurrentAccountState(t *testing.T) {
	hash, _ := hashPassword("rahasia1")
	admin := domain.User{ID: 1, Name: "Admin", Username: "admin", Email: "admin@toko.test", Role: domain.RoleAdmin, IsActive: true, PasswordHash: hash}
	auth, stub := newStubAuth(t, admin)
	svc := service.New(memory.NewSeeded(), cache.NewMemory(), service.Options{
		Location: time.FixedZone("WIB", 7*3600),
		Settings: testSettings,
	})
	api := New(svc, auth, Options{AllowedOrigin: "*", APIKey: testAPIKey})

	issued, err := auth.issue(admin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec, _ := call(t, api, http.MethodGet, "/api/v1/users", issued.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected admin to list users, got %d", rec.Code)
	}

	demoted := stub.users[1]
	demoted.Role = domain.RoleCashier
	stub.users[1] = demoted
	if rec, _ := call(t, api, http.MethodGet, "/api/v1/users", issued.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected demoted user to be refused, got %d", rec.Code)
	}

	demoted.IsActive = false
	stub.users[1] = demoted
	rec, resp := call(t, api, http.MethodGet, "/api/v1/auth/me", issued.Token, nil)
	if rec.Code != http.StatusForbidden || resp.Message != ErrInactiveAccount.Error() {
		t.Fatalf("expected 403 for deactivated account, got %d %q", rec.Code, resp.Message)
	}
}
