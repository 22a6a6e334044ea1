package cache

import (
	"context"
	"testing"
	"time"
)

type settingsPayload struct {
	Name string `json:"name"`
}

func TestMemoryExpiresEntries(t *testing.T) {
	c := NewMemory()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, ok, _ := c.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("expected hit, got %q ok=%v", got, ok)
	}
	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestJSONHelpersRoundTripThroughMemory(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	if err := SetJSON(ctx, c, KeyStoreSettings, settingsPayload{Name: "Toko"}, 0); err != nil {
		t.Fatalf("set json: %v", err)
	}
	got, ok, err := GetJSON[settingsPayload](ctx, c, KeyStoreSettings)
	if err != nil || !ok || got.Name != "Toko" {
		t.Fatalf("unexpected cached value %+v ok=%v err=%v", got, ok, err)
	}
	if err := c.Delete(ctx, KeyStoreSettings); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := GetJSON[settingsPayload](ctx, c, KeyStoreSettings); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	_ = c.Set(context.Background(), "k", []byte("v"), time.Minute)
	if _, ok, err := c.Get(context.Background(), "k"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}
