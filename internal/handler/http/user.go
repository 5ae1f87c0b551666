package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/staffdir/staffdir/pkg/errors"
	"github.com/staffdir/staffdir/pkg/middleware"
	"github.com/staffdir/staffdir/pkg/pagination"

	"github.com/staffdir/staffdir/internal/auth"
	"github.com/staffdir/staffdir/internal/directory"
	"github.com/staffdir/staffdir/internal/domain"
	"github.com/staffdir/staffdir/internal/search"
	"github.com/staffdir/staffdir/internal/validation"
)

// UserHandler exposes the profile directory over HTTP.
type UserHandler struct {
	directory *directory.Service
	validator *validation.Validator
}

func NewUserHandler(dir *directory.Service, va *validation.Validator) *UserHandler {
	return &UserHandler{directory: dir, validator: va}
}

// guard maps an authorization decision for the request to an error,
// or nil when access is allowed.
func guard(r *http.Request, required ...domain.Role) error {
	ctx := r.Context()
	role := domain.Role(middleware.RoleFromContext(ctx))
	switch auth.Authorize(middleware.Authenticated(ctx), role, required...) {
	case auth.RedirectToLogin:
		return apperrors.Unauthorized("authentication required")
	case auth.RedirectToForbidden:
		return apperrors.Forbidden("insufficient role")
	default:
		return nil
	}
}

// List handles GET /api/v1/users with search, role filtering and
// pagination.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := guard(r, domain.RoleAdmin, domain.RoleSupervisor); err != nil {
		writeError(w, r, err)
		return
	}

	filters := search.Filters{Term: r.URL.Query().Get("search")}
	if role := r.URL.Query().Get("role"); role != "" {
		if !domain.IsValidRole(domain.Role(role)) {
			writeError(w, r, apperrors.InvalidInput("unknown role filter"))
			return
		}
		filters.Role = domain.Role(role)
	}

	filtered := search.Apply(h.directory.List(), filters)
	params := pagination.FromRequest(r)
	page := pagination.Page(filtered, params.Page, params.PerPage)

	writeJSON(w, http.StatusOK, pagination.NewResult(page, len(filtered), params))
}

// Create handles POST /api/v1/users. Admin only.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := guard(r, domain.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}

	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}

	user, err := h.directory.Create(r.Context(), formToInput(form))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /api/v1/users/{id}. Associates may only view their
// own profile; supervisors and admins may view any.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := guard(r); err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	user, ok := h.directory.FindByID(id)
	if !ok {
		writeError(w, r, apperrors.NotFound("user", id))
		return
	}

	role := domain.Role(middleware.RoleFromContext(r.Context()))
	if role == domain.RoleAssociate && !strings.EqualFold(user.Email, middleware.EmailFromContext(r.Context())) {
		writeError(w, r, apperrors.Forbidden("associates may only view their own profile"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Me handles GET /api/v1/users/me, resolving the caller's own profile
// by session email.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if err := guard(r); err != nil {
		writeError(w, r, err)
		return
	}

	email := middleware.EmailFromContext(r.Context())
	user, ok := h.directory.FindByEmail(email)
	if !ok {
		writeError(w, r, apperrors.NotFound("user", email))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/v1/users/{id}. Supervisor or admin.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := guard(r, domain.RoleAdmin, domain.RoleSupervisor); err != nil {
		writeError(w, r, err)
		return
	}

	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}

	user, err := h.directory.Update(r.Context(), chi.URLParam(r, "id"), formToInput(form))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/{id}. Admin only. Deleting an
// absent id still succeeds.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := guard(r, domain.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.directory.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) decodeForm(w http.ResponseWriter, r *http.Request) (validation.ProfileForm, bool) {
	var form validation.ProfileForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, r, apperrors.InvalidInput("invalid request body"))
		return form, false
	}
	if verr := h.validator.ValidateProfile(form); verr != nil {
		writeValidationError(w, verr)
		return form, false
	}
	return form, true
}

func formToInput(form validation.ProfileForm) directory.ProfileInput {
	addrs := make([]domain.Address, 0, len(form.Addresses))
	for _, a := range form.Addresses {
		addrs = append(addrs, domain.Address{
			ID: a.ID, Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode,
		})
	}
	return directory.ProfileInput{
		FullName:  form.FullName,
		Email:     form.Email,
		Phone:     form.Phone,
		Role:      form.Role,
		Addresses: addrs,
	}
}
