// Package httpapi is the HTTP transport over the session orchestrator.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vaishali515/switchboard-auth/internal/auth"
	"github.com/vaishali515/switchboard-auth/internal/token"
)

// AuthHandler exposes the OTP and refresh protocols.
type AuthHandler struct {
	service auth.Service
	log     *zap.Logger
}

// NewAuthHandler creates an [AuthHandler].
func NewAuthHandler(service auth.Service, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log,
	}
}

// RequestOTP handles POST /api/auth/request-otp.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req requestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := validateStruct(req); len(errs) > 0 {
		respondBadRequest(w, "Validation failed", errs)
		return
	}

	if err := h.service.RequestOTP(r.Context(), req.Email); err != nil {
		h.handleServiceError(w, err, "request otp")
		return
	}

	respondSuccess(w, "OTP sent successfully", nil)
}

// ValidateOTP handles POST /api/auth/validate-otp.
func (h *AuthHandler) ValidateOTP(w http.ResponseWriter, r *http.Request) {
	var req validateOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := validateStruct(req); len(errs) > 0 {
		respondBadRequest(w, "Validation failed", errs)
		return
	}

	pair, err := h.service.ValidateOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.handleServiceError(w, err, "validate otp")
		return
	}

	respondSuccess(w, "Authentication successful", pair)
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := validateStruct(req); len(errs) > 0 {
		respondBadRequest(w, "Validation failed", errs)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleServiceError(w, err, "refresh")
		return
	}

	respondSuccess(w, "Token refreshed", pair)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "Invalid request body", nil)
		return
	}
	if errs := validateStruct(req); len(errs) > 0 {
		respondBadRequest(w, "Validation failed", errs)
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.handleServiceError(w, err, "logout")
		return
	}

	respondSuccess(w, "Logout successful", nil)
}

// handleServiceError maps orchestrator sentinels onto transport codes.
// Credential failures carry only their generic sentinel message.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrOTPNotFound):
		respondNotFound(w, err.Error())
	case errors.Is(err, auth.ErrOTPInvalid),
		errors.Is(err, auth.ErrOTPAttemptsExceeded),
		errors.Is(err, auth.ErrRefreshInvalid):
		respondUnauthorized(w, err.Error())
	case errors.Is(err, auth.ErrCooldownActive):
		respondTooManyRequests(w, err.Error())
	default:
		h.log.Error("unexpected service error", zap.String("op", op), zap.Error(err))
		respondInternalError(w, "Internal server error")
	}
}

// JWKSHandler serves the public key-set document.
type JWKSHandler struct {
	issuer *token.Issuer
}

// NewJWKSHandler creates a [JWKSHandler].
func NewJWKSHandler(issuer *token.Issuer) *JWKSHandler {
	return &JWKSHandler{issuer: issuer}
}

// Get handles GET /.well-known/jwks.json. Unauthenticated: relying parties
// verify tokens offline with this key.
func (h *JWKSHandler) Get(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.issuer.JWKS())
}
