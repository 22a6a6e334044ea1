package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/service"
)

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	shiftID, err := queryID(r, "shift_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	q := r.URL.Query()
	txs, err := a.service.ListTransactions(r.Context(), service.TransactionQuery{
		UserID:        userID,
		ShiftID:       shiftID,
		Date:          q.Get("date"),
		StartDate:     q.Get("start_date"),
		EndDate:       q.Get("end_date"),
		PaymentMethod: strings.TrimSpace(q.Get("payment_method")),
	}, pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data transaksi berhasil diambil", txs)
}

func (a *API) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTransactionRequest
	if !bindJSON(w, r, &req) {
		return
	}
	tx, err := a.service.CreateTransaction(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusCreated, "Transaksi berhasil dibuat", tx)
}

func (a *API) handleTodayTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := a.service.TodayTransactions(r.Context(), queryBool(r, "own"), pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Transaksi hari ini berhasil diambil", txs)
}

func (a *API) handleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	shiftID, err := queryID(r, "shift_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	query := service.SummaryQuery{Date: r.URL.Query().Get("date"), UserID: userID, ShiftID: shiftID}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "json":
		summary, err := a.service.TransactionSummary(r.Context(), query)
		if err != nil {
			writeServiceError(w, err, "")
			return
		}
		writeSuccess(w, http.StatusOK, "Ringkasan transaksi berhasil diambil", summary)
	case "csv", "xlsx":
		summary, err := a.service.ExportSummary(r.Context(), query)
		if err != nil {
			writeServiceError(w, err, "")
			return
		}
		a.writeSummaryExport(w, summary, format)
	default:
		writeFailure(w, http.StatusUnprocessableEntity, "Validasi gagal", map[string][]string{
			"format": {"format harus salah satu dari: json, csv, xlsx"},
		})
	}
}

func (a *API) handleSync(w http.ResponseWriter, r *http.Request) {
	var req domain.SyncRequest
	if !bindJSON(w, r, &req) {
		return
	}
	result, err := a.service.SyncTransactions(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusOK, result.Message(), result)
}

func (a *API) handleTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Transaksi tidak ditemukan", nil)
		return
	}
	tx, err := a.service.GetTransaction(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Transaksi tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Detail transaksi berhasil diambil", tx)
}

func cashFlowQuery(r *http.Request) (service.CashFlowQuery, error) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		return service.CashFlowQuery{}, err
	}
	shiftID, err := queryID(r, "shift_id")
	if err != nil {
		return service.CashFlowQuery{}, err
	}
	q := r.URL.Query()
	return service.CashFlowQuery{
		Type:      strings.TrimSpace(q.Get("type")),
		UserID:    userID,
		ShiftID:   shiftID,
		Date:      q.Get("date"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}, nil
}

func (a *API) handleCashFlows(w http.ResponseWriter, r *http.Request) {
	query, err := cashFlowQuery(r)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	flows, err := a.service.ListCashFlows(r.Context(), query, pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data kas berhasil diambil", flows)
}

func (a *API) handleCreateCashFlow(w http.ResponseWriter, r *http.Request) {
	var req domain.CashFlowRequest
	if !bindJSON(w, r, &req) {
		return
	}
	flow, err := a.service.CreateCashFlow(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusCreated, "Kas berhasil ditambahkan", flow)
}

func (a *API) handleTodayCashFlows(w http.ResponseWriter, r *http.Request) {
	flowType := strings.TrimSpace(r.URL.Query().Get("type"))
	flows, err := a.service.TodayCashFlows(r.Context(), flowType, queryBool(r, "own"), pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Kas hari ini berhasil diambil", flows)
}

func (a *API) handleCashFlowSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	shiftID, err := queryID(r, "shift_id")
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	summary, err := a.service.CashFlowSummary(r.Context(), service.CashFlowSummaryQuery{
		Date:    r.URL.Query().Get("date"),
		UserID:  userID,
		ShiftID: shiftID,
	})
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusOK, "Ringkasan kas berhasil diambil", summary)
}

func (a *API) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Data kas tidak ditemukan", nil)
		return
	}
	flow, err := a.service.GetCashFlow(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Data kas tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Detail kas berhasil diambil", flow)
}

func (a *API) handleUpdateCashFlow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Data kas tidak ditemukan", nil)
		return
	}
	var req domain.CashFlowRequest
	if !bindJSON(w, r, &req) {
		return
	}
	flow, err := a.service.UpdateCashFlow(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, "Data kas tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Kas berhasil diperbarui", flow)
}

func (a *API) handleDeleteCashFlow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Data kas tidak ditemukan", nil)
		return
	}
	if err := a.service.DeleteCashFlow(r.Context(), id); err != nil {
		writeServiceError(w, err, "Data kas tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Kas berhasil dihapus", nil)
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	filter := domain.UserFilter{Search: r.URL.Query().Get("search")}
	if raw := strings.TrimSpace(r.URL.Query().Get("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeFailure(w, http.StatusUnprocessableEntity, "Validasi gagal", map[string][]string{
				"is_active": {"is active harus bernilai true atau false"},
			})
			return
		}
		filter.IsActive = &active
	}
	users, err := a.service.ListUsers(r.Context(), filter, pageRequest(r))
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writePage(w, r, "Data pengguna berhasil diambil", users)
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Pengguna tidak ditemukan", nil)
		return
	}
	user, err := a.service.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Pengguna tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Detail pengguna berhasil diambil", user)
}
