package httpapi

import (
	"net/http"
	"strings"

	"kasirpos/backend/internal/domain"
)

func (a *API) handleStore(w http.ResponseWriter, r *http.Request) {
	settings, err := a.service.StoreSettings(r.Context())
	if err != nil {
		writeServiceError(w, err, "Data toko belum diatur")
		return
	}
	writeSuccess(w, http.StatusOK, "Data toko berhasil diambil", settings)
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.service.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusOK, "Data kategori berhasil diambil", categories)
}

func (a *API) handleCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Kategori tidak ditemukan", nil)
		return
	}
	category, err := a.service.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Kategori tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Data kategori berhasil diambil", category)
}

func (a *API) handleCategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Kategori tidak ditemukan", nil)
		return
	}
	category, products, err := a.service.CategoryProducts(r.Context(), id, pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "Kategori tidak ditemukan")
		return
	}
	items := products.Items
	if items == nil {
		items = []domain.ProductView{}
	}
	writeSuccess(w, http.StatusOK, "Produk dalam kategori berhasil diambil", map[string]any{
		"category": category,
		"products": items,
		"total":    products.Total,
	})
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "category_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	filter := domain.ProductFilter{CategoryID: categoryID, Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	products, err := a.service.ListProducts(r.Context(), filter, pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data produk berhasil diambil", products)
}

func (a *API) handleProductSearch(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.SearchProducts(r.Context(), r.URL.Query().Get("q"), pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Hasil pencarian produk", products)
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.LowStockProducts(r.Context(), pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data produk stok menipis", products)
}

func (a *API) handleExpired(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ExpiredProducts(r.Context(), pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data produk expired", products)
}

func (a *API) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Produk tidak ditemukan", nil)
		return
	}
	product, err := a.service.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Produk tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Detail produk berhasil diambil", product)
}

type barcodeRequest struct {
	Barcode string `json:"barcode"`
}

func (a *API) handleBarcode(w http.ResponseWriter, r *http.Request) {
	var req barcodeRequest
	if !bindJSON(w, r, &req) {
		return
	}
	product, err := a.service.FindProductByBarcode(r.Context(), req.Barcode)
	if err != nil {
		writeServiceError(w, err, "Produk dengan barcode tersebut tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Produk ditemukan", product)
}

func (a *API) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Produk tidak ditemukan", nil)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 100)
	histories, err := a.service.ProductStockHistory(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, err, "Produk tidak ditemukan")
		return
	}
	if histories == nil {
		histories = []domain.StockHistory{}
	}
	writeSuccess(w, http.StatusOK, "Riwayat stok berhasil diambil", histories)
}

func (a *API) handleDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := a.service.ListDiscounts(r.Context(), strings.TrimSpace(r.URL.Query().Get("type")), pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data diskon berhasil diambil", discounts)
}

func (a *API) handleActiveDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := a.service.ActiveDiscounts(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusOK, "Data diskon aktif berhasil diambil", discounts)
}

func (a *API) handleDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Diskon tidak ditemukan", nil)
		return
	}
	discount, err := a.service.GetDiscount(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Diskon tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Detail diskon berhasil diambil", discount)
}

func (a *API) handleDiscountCheck(w http.ResponseWriter, r *http.Request) {
	var req domain.DiscountCheckRequest
	if !bindJSON(w, r, &req) {
		return
	}
	result, err := a.service.CheckDiscounts(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusOK, "Perhitungan diskon berhasil", result)
}

func (a *API) handleWholesalePrices(w http.ResponseWriter, r *http.Request) {
	productID, err := queryID(r, "product_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	prices, err := a.service.ListWholesalePrices(r.Context(), productID, pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data harga grosir berhasil diambil", prices)
}

func (a *API) handleProductWholesale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Produk tidak ditemukan", nil)
		return
	}
	tiers, err := a.service.ProductWholesale(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Produk tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Harga grosir produk berhasil diambil", tiers)
}

func (a *API) handleWholesaleCalculate(w http.ResponseWriter, r *http.Request) {
	var req domain.WholesaleCalculateRequest
	if !bindJSON(w, r, &req) {
		return
	}
	quote, err := a.service.CalculateWholesale(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Produk tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Perhitungan harga grosir berhasil", quote)
}

func (a *API) handleShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := a.service.ListShifts(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusOK, "Data shift berhasil diambil", shifts)
}

func (a *API) handleCurrentShift(w http.ResponseWriter, r *http.Request) {
	current, err := a.service.CurrentShift(r.Context())
	if err != nil {
		writeServiceError(w, err, "Tidak ada shift yang aktif saat ini")
		return
	}
	writeSuccess(w, http.StatusOK, "Shift saat ini berhasil diambil", current)
}

func (a *API) handleShift(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Shift tidak ditemukan", nil)
		return
	}
	shift, err := a.service.GetShift(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Shift tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Detail shift berhasil diambil", shift)
}
