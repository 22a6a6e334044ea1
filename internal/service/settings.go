package service

import (
	"context"
	"errors"
	"log"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
)

// StoreSettings resolves the store profile through the cache. A missing
// settings row falls back to the configured defaults.
func (s *Service) StoreSettings(ctx context.Context) (domain.StoreSettings, error) {
	cached, ok, err := cache.GetJSON[domain.StoreSettings](ctx, s.cache, cache.KeyStoreSettings)
	if err != nil {
		log.Printf("[service] WARN: settings cache read failed: %v", err)
	}
	if ok {
		return *cached, nil
	}

	settings, err := s.repo.GetStoreSettings(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) || s.settings.Name == "" {
			return domain.StoreSettings{}, err
		}
		fallback := s.settings
		settings = &fallback
	}

	if err := cache.SetJSON(ctx, s.cache, cache.KeyStoreSettings, settings, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: settings cache write failed: %v", err)
	}
	return *settings, nil
}
