package http

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/staffdir/staffdir/pkg/errors"
	"github.com/staffdir/staffdir/pkg/validator"

	"github.com/staffdir/staffdir/internal/auth"
	"github.com/staffdir/staffdir/internal/domain"
)

// AuthHandler exposes login, logout and session inspection.
type AuthHandler struct {
	sessions *auth.Manager
	tokens   *auth.TokenManager
}

func NewAuthHandler(sessions *auth.Manager, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{sessions: sessions, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Session *domain.Session `json:"session"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validator.Validate(req); err != nil {
		writeError(w, r, apperrors.InvalidInput(err.Error()))
		return
	}

	session, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Generate(session)
	if err != nil {
		writeError(w, r, apperrors.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Session: session})
}

// Logout handles POST /api/v1/auth/logout. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session, returning the active
// session for the caller's token.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Current()
	if !ok {
		writeError(w, r, apperrors.Unauthorized("no active session"))
		return
	}
	writeJSON(w, http.StatusOK, session)
}
