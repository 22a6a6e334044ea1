package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("API_KEY", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.APIKey != "" {
		t.Fatalf("expected empty API_KEY when unset, got %q", cfg.APIKey)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "zero")
	t.Setenv("INVOICE_RETRY_ATTEMPTS", "-2")
	t.Setenv("AUTO_MIGRATE", "maybe")
	t.Setenv("INVOICE_PREFIX", " trx ")

	cfg := Load()
	if cfg.AccessTokenTTLMinutes != 720 {
		t.Fatalf("expected default token ttl 720, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.InvoiceRetryAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.InvoiceRetryAttempts)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected AUTO_MIGRATE to default to true")
	}
	if cfg.InvoicePrefix != "TRX" {
		t.Fatalf("expected normalised prefix TRX, got %q", cfg.InvoicePrefix)
	}
}

func TestLocationFallsBackForUnknownZone(t *testing.T) {
	cfg := Config{StoreTimezone: "Mars/Olympus"}
	loc := cfg.Location()
	if loc == nil {
		t.Fatalf("expected a location")
	}
	if loc.String() != "WIB" {
		t.Fatalf("expected WIB fallback, got %s", loc.String())
	}
}
