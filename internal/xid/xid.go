package xid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns prefix-<uuid v4>. An empty prefix yields the bare uuid.
func New(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s-%s", prefix, id)
}

// Valid reports whether raw carries a well-formed uuid after an optional prefix.
func Valid(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if _, err := uuid.Parse(raw); err == nil {
		return true
	}
	idx := strings.Index(raw, "-")
	if idx <= 0 {
		return false
	}
	_, err := uuid.Parse(raw[idx+1:])
	return err == nil
}
