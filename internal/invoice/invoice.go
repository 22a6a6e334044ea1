// Package invoice formats per-day invoice numbers and retries their
// allocation when a concurrent writer wins the same number.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"kasirpos/backend/internal/store"
)

const (
	DefaultPrefix = "INV"
	dateLayout    = "20060102"
	seqDigits     = 4
)

// Format renders prefix + YYYYMMDD + 4-digit sequence. day is used as given;
// callers convert it to the store's timezone first.
func Format(prefix string, day time.Time, seq int) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s%s%0*d", prefix, day.Format(dateLayout), seqDigits, seq)
}

// Parse splits an invoice number into its day and sequence.
func Parse(prefix string, number string) (time.Time, int, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasPrefix(number, prefix) {
		return time.Time{}, 0, fmt.Errorf("invoice %q: missing prefix %q", number, prefix)
	}
	rest := strings.TrimPrefix(number, prefix)
	if len(rest) < len(dateLayout)+seqDigits {
		return time.Time{}, 0, fmt.Errorf("invoice %q: too short", number)
	}
	day, err := time.Parse(dateLayout, rest[:len(dateLayout)])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invoice %q: %w", number, err)
	}
	seq, err := strconv.Atoi(rest[len(dateLayout):])
	if err != nil || seq < 1 {
		return time.Time{}, 0, fmt.Errorf("invoice %q: invalid sequence", number)
	}
	return day, seq, nil
}

type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 20 * time.Millisecond, MaxDelay: 250 * time.Millisecond}
}

// Retry runs fn until it succeeds, fails with something other than
// store.ErrDuplicate, ctx ends, or the attempts are used up.
func Retry(ctx context.Context, policy RetryPolicy, fn func(attempt int) error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 20 * time.Millisecond
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = policy.BaseDelay
	}

	var err error
	delay := policy.BaseDelay
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err = fn(attempt)
		if err == nil || !errors.Is(err, store.ErrDuplicate) {
			return err
		}
		if attempt == policy.Attempts {
			break
		}

		wait := delay/2 + time.Duration(rand.Int64N(int64(delay/2)+1))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return fmt.Errorf("invoice allocation gave up after %d attempts: %w", policy.Attempts, err)
}
