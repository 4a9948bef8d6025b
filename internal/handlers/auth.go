package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mholloway/pennygate/internal/auth"
	"github.com/mholloway/pennygate/internal/models"
	"github.com/mholloway/pennygate/internal/services"
	pkghttp "github.com/mholloway/pennygate/pkg/http"
)

// BadPinMessage is the single failure message for the login endpoint. A
// wrong PIN and a banned source answer identically so an unauthenticated
// client cannot tell which check failed.
const BadPinMessage = "Bad PIN"

// LoginServiceInterface defines the interface for the login attempt logic
type LoginServiceInterface interface {
	Attempt(ctx context.Context, pin int, ip string) (*services.LoginResult, error)
}

// AuthHandler handles the login endpoint and the authenticated identity probe
type AuthHandler struct {
	service  LoginServiceInterface
	tm       *auth.TokenManager
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service LoginServiceInterface, tm *auth.TokenManager, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		tm:       tm,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Pin int `json:"pin" validate:"required,min=1000,max=9999"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Error   bool   `json:"error"`
	UID     string `json:"uid"`
	Name    string `json:"name"`
	APIKey  string `json:"apiKey"`
	Expires string `json:"expires"`
}

// Login handles a PIN login attempt
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	// A malformed PIN is rejected here, before the ban tracker is ever
	// consulted: it never reached a credential comparison so it does not
	// count as a failed attempt.
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Attempt(r.Context(), req.Pin, ip)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid PIN format")
			return
		}
		// Store outages included: fail closed rather than guess.
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if result.User == nil || result.Banned {
		pkghttp.WriteUnauthorized(w, BadPinMessage)
		return
	}

	apiKey, expires, err := h.tm.GenerateToken(result.User.UID, result.User.Name)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(LoginResponse{
		Error:   false,
		UID:     result.User.UID,
		Name:    result.User.Name,
		APIKey:  apiKey,
		Expires: expires.UTC().Format(time.RFC3339),
	})
}

// Me returns the identity the auth middleware attached to the request
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentityFromContext(r)
	if identity == nil {
		pkghttp.WriteUnauthorized(w, auth.MsgNoToken)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(identity)
}
