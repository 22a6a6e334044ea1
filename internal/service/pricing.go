package service

import (
	"context"
	"fmt"
	"log"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/pricing"
	"kasirpos/backend/internal/validation"
)

func (s *Service) ListDiscounts(ctx context.Context, scope string, page domain.PageRequest) (domain.Page[domain.DiscountView], error) {
	switch scope {
	case "", domain.DiscountScopeProduct, domain.DiscountScopeTotal:
	default:
		return domain.Page[domain.DiscountView]{}, validation.Field("type", "type harus salah satu dari: product, total")
	}
	discounts, err := s.repo.ListDiscounts(ctx, scope, page)
	if err != nil {
		return domain.Page[domain.DiscountView]{}, err
	}
	now := s.now()
	return mapPage(discounts, func(d domain.Discount) domain.DiscountView {
		return domain.NewDiscountView(d, now)
	}), nil
}

// activeDiscounts returns the discounts applicable right now. The cached
// list is re-filtered on every read so a window closing mid-TTL is honoured.
func (s *Service) activeDiscounts(ctx context.Context) ([]domain.Discount, error) {
	now := s.now()
	cached, ok, err := cache.GetJSON[[]domain.Discount](ctx, s.cache, cache.KeyActiveDiscounts)
	if err != nil {
		log.Printf("[service] WARN: discount cache read failed: %v", err)
	}
	if !ok {
		loaded, err := s.repo.ListActiveDiscounts(ctx, now)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, s.cache, cache.KeyActiveDiscounts, loaded, s.cacheTTL); err != nil {
			log.Printf("[service] WARN: discount cache write failed: %v", err)
		}
		return loaded, nil
	}

	active := make([]domain.Discount, 0, len(*cached))
	for _, d := range *cached {
		if d.IsApplicable(now) {
			active = append(active, d)
		}
	}
	return active, nil
}

func (s *Service) ActiveDiscounts(ctx context.Context) ([]domain.DiscountView, error) {
	discounts, err := s.activeDiscounts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]domain.DiscountView, 0, len(discounts))
	for _, d := range discounts {
		views = append(views, domain.NewDiscountView(d, now))
	}
	return views, nil
}

func (s *Service) GetDiscount(ctx context.Context, id int64) (domain.DiscountView, error) {
	discount, err := s.repo.GetDiscount(ctx, id)
	if err != nil {
		return domain.DiscountView{}, err
	}
	return domain.NewDiscountView(*discount, s.now()), nil
}

// CheckDiscounts prices a prospective cart against the active discounts
// without persisting anything.
func (s *Service) CheckDiscounts(ctx context.Context, req domain.DiscountCheckRequest) (domain.DiscountCheckResult, error) {
	if err := validation.Struct(req); err != nil {
		return domain.DiscountCheckResult{}, err
	}

	ids := make([]int64, 0, len(req.Items))
	for _, line := range req.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.DiscountCheckResult{}, err
	}
	missing := &validation.Error{}
	for i, line := range req.Items {
		if _, ok := products[line.ProductID]; !ok {
			missing.Add(fmt.Sprintf("items.%d.product_id", i), "Produk tidak ditemukan")
		}
	}
	if !missing.Empty() {
		return domain.DiscountCheckResult{}, missing
	}

	discounts, err := s.activeDiscounts(ctx)
	if err != nil {
		return domain.DiscountCheckResult{}, err
	}
	return pricing.CheckCart(discounts, req.Items, s.now()), nil
}

func (s *Service) ListWholesalePrices(ctx context.Context, productID *int64, page domain.PageRequest) (domain.Page[domain.WholesalePrice], error) {
	return s.repo.ListWholesalePrices(ctx, productID, page)
}

// ProductWholesale lists a product's active tiers with their savings.
func (s *Service) ProductWholesale(ctx context.Context, productID int64) (domain.ProductWholesale, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.ProductWholesale{}, err
	}
	tiers, err := s.repo.ListWholesaleByProduct(ctx, productID)
	if err != nil {
		return domain.ProductWholesale{}, err
	}
	return domain.ProductWholesale{
		ProductID:   product.ID,
		ProductName: product.Name,
		SellPrice:   product.SellPrice,
		Tiers:       pricing.Tiers(product.SellPrice, tiers),
	}, nil
}

func (s *Service) CalculateWholesale(ctx context.Context, req domain.WholesaleCalculateRequest) (domain.WholesaleQuote, error) {
	if err := validation.Struct(req); err != nil {
		return domain.WholesaleQuote{}, err
	}
	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.WholesaleQuote{}, err
	}
	tiers, err := s.repo.ListWholesaleByProduct(ctx, req.ProductID)
	if err != nil {
		return domain.WholesaleQuote{}, err
	}
	return pricing.Quote(*product, tiers, req.Qty), nil
}
