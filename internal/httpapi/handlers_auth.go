package httpapi

import (
	"net/http"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/service"
)

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeFailure(w, http.StatusTooManyRequests, "Terlalu banyak permintaan", nil)
		return
	}

	var req domain.LoginRequest
	if !bindJSON(w, r, &req) {
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusOK, "Login berhasil", resp)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeFailure(w, http.StatusTooManyRequests, "Terlalu banyak permintaan", nil)
		return
	}

	var req domain.RegisterRequest
	if !bindJSON(w, r, &req) {
		return
	}

	resp, err := a.auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	writeSuccess(w, http.StatusCreated, "Registrasi berhasil", resp)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session, ok := sessionFromContext(r.Context()); ok {
		a.auth.Revoke(session)
	}
	writeSuccess(w, http.StatusOK, "Logout berhasil", nil)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, err := service.ActorOrError(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	user, err := a.auth.Me(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, err, "User tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Data user berhasil diambil", user)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := service.ActorOrError(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	var req domain.ProfileUpdateRequest
	if !bindJSON(w, r, &req) {
		return
	}
	user, err := a.auth.UpdateProfile(r.Context(), actor.UserID, req)
	if err != nil {
		writeServiceError(w, err, "User tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Profil berhasil diperbarui", user)
}

func (a *API) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := service.ActorOrError(r.Context())
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	var req domain.PasswordUpdateRequest
	if !bindJSON(w, r, &req) {
		return
	}
	if err := a.auth.UpdatePassword(r.Context(), actor.UserID, req); err != nil {
		writeServiceError(w, err, "User tidak ditemukan")
		return
	}
	writeSuccess(w, http.StatusOK, "Password berhasil diperbarui", nil)
}
