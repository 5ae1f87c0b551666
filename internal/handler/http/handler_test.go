package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/staffdir/staffdir/pkg/errors"
	"github.com/staffdir/staffdir/pkg/health"
	"github.com/staffdir/staffdir/pkg/logger"

	"github.com/staffdir/staffdir/internal/auth"
	"github.com/staffdir/staffdir/internal/directory"
	"github.com/staffdir/staffdir/internal/domain"
	"github.com/staffdir/staffdir/internal/event"
	"github.com/staffdir/staffdir/internal/repository/kv"
	"github.com/staffdir/staffdir/internal/store"
	"github.com/staffdir/staffdir/internal/validation"
)

type harness struct {
	router   http.Handler
	sessions *auth.Manager
	tokens   *auth.TokenManager
	dir      *directory.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	mem := store.NewMemory()

	sessions := auth.NewManager(
		auth.NewStaticProvider(auth.DefaultIdentities()),
		kv.NewSessionRepository(mem, log), 0, log)
	tokens := auth.NewTokenManager("test-secret", time.Minute, "directory")

	dir := directory.NewService(kv.NewProfileRepository(mem, log), event.NopPublisher{}, log)
	require.NoError(t, dir.Load(context.Background()))

	router := NewRouter(RouterConfig{
		ServiceName: "directory",
		CORSOrigins: []string{"*"},
		Logger:      log,
		Validate:    tokens.Validate,
		Auth:        NewAuthHandler(sessions, tokens),
		Users:       NewUserHandler(dir, validation.New()),
		Health:      health.NewHandler(),
	})
	return &harness{router: router, sessions: sessions, tokens: tokens, dir: dir}
}

func (h *harness) tokenFor(t *testing.T, email, password string) string {
	t.Helper()
	session, err := h.sessions.Login(context.Background(), email, password)
	require.NoError(t, err)
	token, err := h.tokens.Generate(session)
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func validPayload(name, email string, role domain.Role) map[string]any {
	return map[string]any{
		"fullName": name,
		"email":    email,
		"phone":    "+15551230001",
		"role":     string(role),
		"addresses": []map[string]any{
			{"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701"},
		},
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": "admin@company.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token   string         `json:"token"`
		Session domain.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, domain.RoleAdmin, resp.Session.Role)
	assert.Equal(t, "Admin User", resp.Session.FullName)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": "admin@company.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Code)
	assert.Equal(t, "Invalid email or password", resp.Message)
}

func TestLogin_MissingFields(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "x@y.z"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutAndSession(t *testing.T) {
	h := newHarness(t)
	token := h.tokenFor(t, "admin@company.com", "admin123")

	rec := h.do(t, http.MethodGet, "/api/v1/auth/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// A second logout with a still-valid token stays safe.
	rec = h.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnauthenticatedRequestsCarryOrigin(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/users/?page=2", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/api/v1/users/?page=2", resp["from"])
}

func TestCreateUser(t *testing.T) {
	h := newHarness(t)
	token := h.tokenFor(t, "admin@company.com", "admin123")

	rec := h.do(t, http.MethodPost, "/api/v1/users/", token,
		validPayload("Ann Admin", "ann@company.com", domain.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ann Admin", user.FullName)
	assert.NotEmpty(t, user.Addresses[0].ID)
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	h := newHarness(t)
	token := h.tokenFor(t, "admin@company.com", "admin123")

	payload := validPayload("", "ann@company.com", domain.RoleAdmin)
	payload["addresses"] = []map[string]any{
		{"street": "", "city": "Springfield", "state": "IL", "zipCode": "1234"},
	}

	rec := h.do(t, http.MethodPost, "/api/v1/users/", token, payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_FAILED", resp.Code)

	byField := make(map[string]string, len(resp.Fields))
	for _, f := range resp.Fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "Full name is required", byField["fullName"])
	assert.Equal(t, "Street address is required", byField["addresses[0].street"])
	assert.Equal(t, "Please enter a valid zip code", byField["addresses[0].zipCode"])
}

func TestCreateUser_RequiresAdmin(t *testing.T) {
	h := newHarness(t)
	token := h.tokenFor(t, "supervisor@company.com", "supervisor123")

	rec := h.do(t, http.MethodPost, "/api/v1/users/", token,
		validPayload("Ann Admin", "ann@company.com", domain.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsers_SearchAndPagination(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "admin@company.com", "admin123")

	for i := 0; i < 25; i++ {
		rec := h.do(t, http.MethodPost, "/api/v1/users/", admin,
			validPayload(fmt.Sprintf("User %02d", i), fmt.Sprintf("user%02d@company.com", i), domain.RoleAssociate))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := h.do(t, http.MethodGet, "/api/v1/users/?page=3&per_page=10", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.User `json:"data"`
		TotalCount int           `json:"total_count"`
		TotalPages int           `json:"total_pages"`
		PageInfo   struct {
			StartItem   int  `json:"start_item"`
			EndItem     int  `json:"end_item"`
			HasNextPage bool `json:"has_next_page"`
			HasPrevPage bool `json:"has_prev_page"`
		} `json:"page_info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 5)
	assert.Equal(t, 25, resp.TotalCount)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 21, resp.PageInfo.StartItem)
	assert.Equal(t, 25, resp.PageInfo.EndItem)
	assert.False(t, resp.PageInfo.HasNextPage)
	assert.True(t, resp.PageInfo.HasPrevPage)

	// Past the last page yields an empty data slice.
	rec = h.do(t, http.MethodGet, "/api/v1/users/?page=4&per_page=10", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)

	// Free-text search narrows the list before pagination.
	rec = h.do(t, http.MethodGet, "/api/v1/users/?search=user07", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "User 07", resp.Data[0].FullName)

	rec = h.do(t, http.MethodGet, "/api/v1/users/?role=supervisor", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)

	rec = h.do(t, http.MethodGet, "/api/v1/users/?role=wizard", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsers_AssociateForbidden(t *testing.T) {
	h := newHarness(t)
	token := h.tokenFor(t, "associate@company.com", "associate123")

	rec := h.do(t, http.MethodGet, "/api/v1/users/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetUser_AssociateSelfOnly(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "admin@company.com", "admin123")

	rec := h.do(t, http.MethodPost, "/api/v1/users/", admin,
		validPayload("Associate User", "associate@company.com", domain.RoleAssociate))
	require.Equal(t, http.StatusCreated, rec.Code)
	var self domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &self))

	rec = h.do(t, http.MethodPost, "/api/v1/users/", admin,
		validPayload("Someone Else", "else@company.com", domain.RoleAssociate))
	require.Equal(t, http.StatusCreated, rec.Code)
	var other domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &other))

	token := h.tokenFor(t, "associate@company.com", "associate123")

	rec = h.do(t, http.MethodGet, "/api/v1/users/"+self.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/users/"+other.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, self.ID, me.ID)
}

func TestUpdateUser(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "admin@company.com", "admin123")

	rec := h.do(t, http.MethodPost, "/api/v1/users/", admin,
		validPayload("Ann Admin", "ann@company.com", domain.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	supervisor := h.tokenFor(t, "supervisor@company.com", "supervisor123")
	rec = h.do(t, http.MethodPut, "/api/v1/users/"+user.ID, supervisor,
		validPayload("Ann A. Admin", "ann@company.com", domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Ann A. Admin", updated.FullName)
	assert.True(t, updated.UpdatedAt.After(user.UpdatedAt))

	rec = h.do(t, http.MethodPut, "/api/v1/users/missing", supervisor,
		validPayload("Ann Admin", "ann@company.com", domain.RoleAdmin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	h := newHarness(t)
	admin := h.tokenFor(t, "admin@company.com", "admin123")

	rec := h.do(t, http.MethodPost, "/api/v1/users/", admin,
		validPayload("Ann Admin", "ann@company.com", domain.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	rec = h.do(t, http.MethodDelete, "/api/v1/users/"+user.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/users/"+user.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Deleting again, or a never-existing id, still succeeds.
	rec = h.do(t, http.MethodDelete, "/api/v1/users/"+user.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	supervisor := h.tokenFor(t, "supervisor@company.com", "supervisor123")
	rec = h.do(t, http.MethodDelete, "/api/v1/users/anything", supervisor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type failingProfileRepo struct{}

func (failingProfileRepo) List(ctx context.Context) ([]domain.User, error) { return nil, nil }
func (failingProfileRepo) SaveAll(ctx context.Context, users []domain.User) error {
	return apperrors.StoreFailure("set", errors.New("quota exceeded"))
}

func TestAuthenticatedRequestLogsCarrySessionID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("directory", "error", &buf)
	mem := store.NewMemory()

	sessions := auth.NewManager(
		auth.NewStaticProvider(auth.DefaultIdentities()),
		kv.NewSessionRepository(mem, log), 0, log)
	tokens := auth.NewTokenManager("test-secret", time.Minute, "directory")

	dir := directory.NewService(failingProfileRepo{}, event.NopPublisher{}, log)
	require.NoError(t, dir.Load(context.Background()))

	router := NewRouter(RouterConfig{
		ServiceName: "directory",
		CORSOrigins: []string{"*"},
		Logger:      log,
		Validate:    tokens.Validate,
		Auth:        NewAuthHandler(sessions, tokens),
		Users:       NewUserHandler(dir, validation.New()),
		Health:      health.NewHandler(),
	})

	session, err := sessions.Login(context.Background(), "admin@company.com", "admin123")
	require.NoError(t, err)
	token, err := tokens.Generate(session)
	require.NoError(t, err)

	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(
		validPayload("Ann Admin", "ann@company.com", domain.RoleAdmin)))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The handler's context logger carries both the correlation id and
	// the session established by the auth middleware.
	logs := buf.String()
	assert.Contains(t, logs, `"session_id":"`+session.ID+`"`)
	assert.Contains(t, logs, `"correlation_id":"`)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
