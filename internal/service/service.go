package service

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/invoice"
	"kasirpos/backend/internal/policy"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/validation"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ActorOrError returns the authenticated actor or ErrUnauthenticated.
func ActorOrError(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID == 0 {
		return domain.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

type Options struct {
	Location      *time.Location
	InvoicePrefix string
	Retry         invoice.RetryPolicy
	CacheTTL      time.Duration
	// Settings seeds the cache miss path when the repository has no
	// settings row yet.
	Settings domain.StoreSettings
	Now      func() time.Time
}

type Service struct {
	repo     store.Repository
	cache    cache.Cache
	loc      *time.Location
	prefix   string
	retry    invoice.RetryPolicy
	cacheTTL time.Duration
	settings domain.StoreSettings
	now      func() time.Time
}

func New(repo store.Repository, c cache.Cache, opts Options) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	opts.InvoicePrefix = strings.ToUpper(strings.TrimSpace(opts.InvoicePrefix))
	if opts.InvoicePrefix == "" {
		opts.InvoicePrefix = invoice.DefaultPrefix
	}
	if opts.Retry.Attempts < 1 {
		opts.Retry = invoice.DefaultRetryPolicy()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		cache:    c,
		loc:      opts.Location,
		prefix:   opts.InvoicePrefix,
		retry:    opts.Retry,
		cacheTTL: opts.CacheTTL,
		settings: opts.Settings,
		now:      opts.Now,
	}
}

// Location is the store's local timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// authorize resolves the actor on ctx and checks it against action.
func (s *Service) authorize(ctx context.Context, action policy.Action, res policy.Resource) (domain.Actor, error) {
	actor, err := ActorOrError(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if err := policy.Check(actor, action, res); err != nil {
		return domain.Actor{}, err
	}
	return actor, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID int64, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	log.Printf("[audit] actor=%s role=%s action=%s entity=%s/%d %s", actor.Username, actor.Role, action, entityType, entityID, detail)
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[service] WARN: cache invalidation failed keys=%v: %v", keys, err)
	}
}

// today is midnight of the current day in the store timezone.
func (s *Service) today() time.Time {
	return domain.DateOf(s.now(), s.loc)
}

// dayRange returns the UTC bounds [from, to) of the local calendar day.
func (s *Service) dayRange(day time.Time) (time.Time, time.Time) {
	start := domain.DateOf(day, s.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// parseDay reads a YYYY-MM-DD query value in the store timezone. Empty
// input yields today.
func (s *Service) parseDay(field string, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.today(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, s.loc)
	if err != nil {
		return time.Time{}, validation.Field(field, "Format tanggal harus YYYY-MM-DD")
	}
	return day, nil
}

// asDate maps a local calendar day onto the UTC-midnight convention used
// for DATE columns.
func asDate(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

func paginateSlice[T any](items []T, page domain.PageRequest) domain.Page[T] {
	if page.PerPage < 1 {
		page.PerPage = DefaultPerPage
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
	return domain.Page[T]{Items: items[start:end], Total: len(items), Page: page.Page, PerPage: page.PerPage}
}

func mapPage[T any, U any](in domain.Page[T], fn func(T) U) domain.Page[U] {
	out := domain.Page[U]{Items: make([]U, 0, len(in.Items)), Total: in.Total, Page: in.Page, PerPage: in.PerPage}
	for _, item := range in.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}

const (
	DefaultPerPage = 15
	MaxPerPage     = 100

	// MaxPage keeps page*per_page and the next-page link inside int.
	MaxPage = math.MaxInt/MaxPerPage - 1
)

// NormalizePage clamps page and per_page into the accepted range.
func NormalizePage(page int, perPage int) domain.PageRequest {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	return domain.PageRequest{Page: page, PerPage: perPage}
}
