package service

import (
	"context"
	"log"
	"strings"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/validation"
)

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	return *category, nil
}

// CategoryProducts lists the active products of one category.
func (s *Service) CategoryProducts(ctx context.Context, categoryID int64, page domain.PageRequest) (domain.Category, domain.Page[domain.ProductView], error) {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return domain.Category{}, domain.Page[domain.ProductView]{}, err
	}
	products, err := s.ListProducts(ctx, domain.ProductFilter{CategoryID: &categoryID}, page)
	if err != nil {
		return domain.Category{}, domain.Page[domain.ProductView]{}, err
	}
	return *category, products, nil
}

func (s *Service) productView(p domain.Product) domain.ProductView {
	return domain.NewProductView(p, s.now(), s.loc)
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (domain.Page[domain.ProductView], error) {
	products, err := s.repo.ListProducts(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.ProductView]{}, err
	}
	return mapPage(products, s.productView), nil
}

func (s *Service) SearchProducts(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.ProductView], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Page[domain.ProductView]{}, validation.Field("q", "Kata kunci pencarian wajib diisi")
	}
	if len(query) > 255 {
		return domain.Page[domain.ProductView]{}, validation.Field("q", "Kata kunci pencarian maksimal 255 karakter")
	}
	return s.ListProducts(ctx, domain.ProductFilter{Search: query}, page)
}

// LowStockProducts lists active products at or below their minimum stock.
// The list is cached and dropped whenever a sale changes stock.
func (s *Service) LowStockProducts(ctx context.Context, page domain.PageRequest) (domain.Page[domain.ProductView], error) {
	products, ok, err := cache.GetJSON[[]domain.Product](ctx, s.cache, cache.KeyLowStock)
	if err != nil {
		log.Printf("[service] WARN: low-stock cache read failed: %v", err)
	}
	if !ok {
		loaded, err := s.repo.ListLowStockProducts(ctx)
		if err != nil {
			return domain.Page[domain.ProductView]{}, err
		}
		products = &loaded
		if err := cache.SetJSON(ctx, s.cache, cache.KeyLowStock, loaded, s.cacheTTL); err != nil {
			log.Printf("[service] WARN: low-stock cache write failed: %v", err)
		}
	}
	return mapPage(paginateSlice(*products, page), s.productView), nil
}

func (s *Service) ExpiredProducts(ctx context.Context, page domain.PageRequest) (domain.Page[domain.ProductView], error) {
	products, err := s.repo.ListExpiredProducts(ctx, asDate(s.today()))
	if err != nil {
		return domain.Page[domain.ProductView]{}, err
	}
	return mapPage(paginateSlice(products, page), s.productView), nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.ProductView, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.ProductView{}, err
	}
	return s.productView(*product), nil
}

func (s *Service) FindProductByBarcode(ctx context.Context, barcode string) (domain.ProductView, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.ProductView{}, validation.Field("barcode", "Barcode wajib diisi")
	}
	product, err := s.repo.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return domain.ProductView{}, err
	}
	return s.productView(*product), nil
}

func (s *Service) ProductStockHistory(ctx context.Context, productID int64, limit int) ([]domain.StockHistory, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxPerPage {
		limit = 50
	}
	return s.repo.ListStockHistory(ctx, productID, limit)
}
