package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/policy"
	"kasirpos/backend/internal/service"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/validation"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Meta    *meta  `json:"meta,omitempty"`
	Links   *links `json:"links,omitempty"`
}

type meta struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	From        *int `json:"from"`
	To          *int `json:"to"`
}

type links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string, errs any) {
	writeJSON(w, status, envelope{Success: false, Message: message, Errors: errs})
}

// writePage renders a page with meta and navigation links that keep the
// request's other query parameters.
func writePage[T any](w http.ResponseWriter, r *http.Request, message string, page domain.Page[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	perPage := page.PerPage
	if perPage < 1 {
		perPage = service.DefaultPerPage
	}
	current := page.Page
	if current < 1 {
		current = 1
	}
	lastPage := (page.Total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	m := &meta{CurrentPage: current, LastPage: lastPage, PerPage: perPage, Total: page.Total}
	if len(items) > 0 {
		from := (current-1)*perPage + 1
		to := from + len(items) - 1
		m.From, m.To = &from, &to
	}

	l := &links{First: pageURL(r, 1), Last: pageURL(r, lastPage)}
	if current > 1 {
		prev := pageURL(r, current-1)
		l.Prev = &prev
	}
	if current < lastPage {
		next := pageURL(r, current+1)
		l.Next = &next
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: items, Meta: m, Links: l})
}

func pageURL(r *http.Request, page int) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

// writeServiceError maps a service or store error onto the envelope.
// notFound is the message used for store.ErrNotFound.
func writeServiceError(w http.ResponseWriter, err error, notFound string) {
	if verr, ok := validation.As(err); ok {
		writeFailure(w, http.StatusUnprocessableEntity, "Validasi gagal", verr.Fields)
		return
	}

	var denied *policy.DeniedError
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, ErrInvalidToken):
		writeFailure(w, http.StatusUnauthorized, "Tidak terautentikasi", nil)
	case errors.Is(err, ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, ErrInactiveAccount):
		writeFailure(w, http.StatusForbidden, err.Error(), nil)
	case errors.As(err, &denied):
		writeFailure(w, http.StatusForbidden, denied.Message, nil)
	case errors.Is(err, policy.ErrForbidden):
		writeFailure(w, http.StatusForbidden, "Anda tidak memiliki akses", nil)
	case errors.Is(err, store.ErrNotFound):
		if notFound == "" {
			notFound = "Data tidak ditemukan"
		}
		writeFailure(w, http.StatusNotFound, notFound, nil)
	case errors.Is(err, store.ErrInsufficientStock):
		writeFailure(w, http.StatusUnprocessableEntity, "Stok tidak mencukupi", nil)
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrDuplicateClientRef):
		writeFailure(w, http.StatusUnprocessableEntity, "Data sudah ada", nil)
	case errors.Is(err, store.ErrInvalidTransaction):
		writeFailure(w, http.StatusBadRequest, "Permintaan tidak valid", nil)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "Terjadi kesalahan pada server"
	}
	writeFailure(w, status, msg, nil)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
