package memory

import (
	"log"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
)

// NewSeeded returns a store preloaded with a small grocery catalog, two
// users and the default shifts.
func NewSeeded(opts ...Option) *Store {
	s := New(opts...)
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := func(n int) *time.Time {
		t := today.AddDate(0, 0, n)
		return &t
	}
	price := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

	adminPassword := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPassword := envOr("SEED_CASHIER_PASSWORD", "kasir123")
	if adminPassword == "admin123" || cashierPassword == "kasir123" {
		log.Println("[memory-store] WARNING: using default seed passwords; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD")
	}

	for _, user := range []domain.User{
		{Name: "Administrator", Username: "admin", Email: "admin@kasirpos.local", Role: domain.RoleAdmin, PasswordHash: mustHash(adminPassword)},
		{Name: "Kasir Satu", Username: "kasir", Email: "kasir@kasirpos.local", Role: domain.RoleCashier, PasswordHash: mustHash(cashierPassword)},
	} {
		user.ID = s.nextID("users")
		user.IsActive = true
		user.CreatedAt = now
		user.UpdatedAt = now
		s.users[user.ID] = user
	}

	for i, name := range []string{"Sembako", "Minuman", "Makanan Ringan", "Perlengkapan Rumah"} {
		id := s.nextID("categories")
		s.categories[id] = domain.Category{ID: id, Name: name, SortOrder: i + 1, IsActive: true, CreatedAt: now, UpdatedAt: now}
	}

	products := []domain.Product{
		{CategoryID: 1, Name: "Mie Goreng Instan", Barcode: "8991001000011", BuyPrice: price(2800), SellPrice: price(3500), Stock: 120, MinStock: 20, Unit: "pcs"},
		{CategoryID: 1, Name: "Telur 10 Butir", Barcode: "8991001000028", BuyPrice: price(23000), SellPrice: price(26500), Stock: 40, MinStock: 10, Unit: "pack"},
		{CategoryID: 1, Name: "Gula Pasir 1kg", Barcode: "8991001000035", BuyPrice: price(15300), SellPrice: price(17400), Stock: 35, MinStock: 10, Unit: "kg"},
		{CategoryID: 2, Name: "Susu UHT 1L", Barcode: "8991001000042", BuyPrice: price(13600), SellPrice: price(18900), Stock: 24, MinStock: 6, Unit: "pcs", ExpiredDate: days(60)},
		{CategoryID: 2, Name: "Kopi Sachet", Barcode: "8991001000059", BuyPrice: price(1700), SellPrice: price(2600), Stock: 200, MinStock: 30, Unit: "pcs"},
		{CategoryID: 2, Name: "Air Mineral 600ml", Barcode: "8991001000066", BuyPrice: price(3200), SellPrice: price(3900), Stock: 5, MinStock: 12, Unit: "botol"},
		{CategoryID: 3, Name: "Keripik Singkong", Barcode: "8991001000073", BuyPrice: price(8100), SellPrice: price(12800), Stock: 18, MinStock: 5, Unit: "pcs", ExpiredDate: days(-3)},
		{CategoryID: 3, Name: "Coklat Batang", Barcode: "8991001000080", BuyPrice: price(5600), SellPrice: price(8600), Stock: 30, MinStock: 5, Unit: "pcs"},
		{CategoryID: 4, Name: "Sabun Mandi", Barcode: "8991001000097", BuyPrice: price(5000), SellPrice: price(7400), Stock: 25, MinStock: 5, Unit: "pcs"},
		{CategoryID: 3, Name: "Roti Tawar", Barcode: "8991001000103", BuyPrice: price(12500), SellPrice: price(17800), Stock: 0, MinStock: 5, Unit: "pcs"},
	}
	for i, product := range products {
		product.ID = s.nextID("products")
		product.IsActive = i != len(products)-1
		product.CreatedAt = now
		product.UpdatedAt = now
		s.products[product.ID] = product
	}

	mie, kopi := int64(1), int64(5)
	discounts := []domain.Discount{
		{Name: "Diskon Mie 10%", Type: domain.DiscountScopeProduct, ValueType: domain.DiscountValuePercentage, Value: price(10), ProductID: &mie, IsActive: true},
		{Name: "Belanja 100rb Hemat 5rb", Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValueNominal, Value: price(5000), MinPurchase: price(100000), IsActive: true},
		{Name: "Promo Gajian", Type: domain.DiscountScopeTotal, ValueType: domain.DiscountValuePercentage, Value: price(5), MinPurchase: price(200000), StartDate: days(30), IsActive: true},
		{Name: "Promo Kopi Lama", Type: domain.DiscountScopeProduct, ValueType: domain.DiscountValueNominal, Value: price(2000), ProductID: &kopi, EndDate: days(-10), IsActive: true},
	}
	for _, discount := range discounts {
		discount.ID = s.nextID("discounts")
		discount.CreatedAt = now
		discount.UpdatedAt = now
		s.discounts[discount.ID] = discount
	}

	for _, tier := range []domain.WholesalePrice{
		{ProductID: 1, MinQty: 10, Price: price(3200)},
		{ProductID: 1, MinQty: 40, Price: price(3000)},
		{ProductID: 5, MinQty: 20, Price: price(2300)},
		{ProductID: 2, MinQty: 5, Price: price(25500)},
	} {
		tier.ID = s.nextID("wholesale_prices")
		tier.IsActive = true
		tier.CreatedAt = now
		s.wholesale[tier.ID] = tier
	}

	for _, shift := range []domain.Shift{
		{Name: "Pagi", StartTime: domain.NewTimeOfDay(7, 0), EndTime: domain.NewTimeOfDay(15, 0)},
		{Name: "Siang", StartTime: domain.NewTimeOfDay(15, 0), EndTime: domain.NewTimeOfDay(23, 0)},
		{Name: "Malam", StartTime: domain.NewTimeOfDay(23, 0), EndTime: domain.NewTimeOfDay(7, 0)},
	} {
		shift.ID = s.nextID("shifts")
		shift.IsActive = true
		shift.CreatedAt = now
		s.shifts[shift.ID] = shift
	}

	return s
}
