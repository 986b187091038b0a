package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/car-rental-backend/internal/auth"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/response"
	"github.com/nekogravitycat/car-rental-backend/internal/user"
)

const (
	staffID = "0b8f5c1e-3f5a-4c47-9d7e-1f7d8b3c2a10"
	adminID = "7c1a2e3d-4b5c-4d6e-8f90-a1b2c3d4e5f6"
)

type stubService struct {
	user.Service
	users map[string]*user.User
}

func newStubService() *stubService {
	return &stubService{users: map[string]*user.User{
		staffID: {ID: staffID, Email: "staff@example.com", IsActive: true},
		adminID: {ID: adminID, Email: "admin@example.com", IsActive: true, IsSystemAdmin: true},
	}}
}

func (s *stubService) Register(_ context.Context, email, _, _ string) (*user.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return nil, user.ErrEmailAlreadyUsed
		}
	}
	u := &user.User{ID: "new-user", Email: email, IsActive: true}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubService) Login(_ context.Context, email, password string) (*user.User, error) {
	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if !u.IsActive {
			return nil, user.ErrInactiveUser
		}
		if password != "password1" {
			return nil, user.ErrInvalidCredentials
		}
		return u, nil
	}
	return nil, user.ErrInvalidCredentials
}

func (s *stubService) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *stubService) List(_ context.Context, _ user.UserFilter) ([]*user.User, int, error) {
	return []*user.User{s.users[adminID], s.users[staffID]}, 2, nil
}

func setupRouter(svc user.Service) (*gin.Engine, *auth.JWTManager) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, jwtManager), auth.AuthRequired(jwtManager), auth.RequireAdmin())
	return r, jwtManager
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterHandler(t *testing.T) {
	r, _ := setupRouter(newStubService())

	w := do(r, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Email: "new@example.com", Password: "password1", DisplayName: "New",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.User.Email)

	w = do(r, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Email: "staff@example.com", Password: "password1", DisplayName: "Dup",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Email: "not-an-email", Password: "password1", DisplayName: "Bad",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesTokenWithAdminFlag(t *testing.T) {
	r, jwtManager := setupRouter(newStubService())

	w := do(r, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: "admin@example.com", Password: "password1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := jwtManager.ParseAndValidate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, adminID, claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestLoginHidesFailureReason(t *testing.T) {
	svc := newStubService()
	svc.users[staffID].IsActive = false
	r, _ := setupRouter(svc)

	inactive := do(r, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: "staff@example.com", Password: "password1"})
	wrong := do(r, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: "admin@example.com", Password: "nope"})

	require.Equal(t, http.StatusUnauthorized, inactive.Code)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.JSONEq(t, wrong.Body.String(), inactive.Body.String())
}

func TestMe(t *testing.T) {
	r, jwtManager := setupRouter(newStubService())

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/me", "", nil).Code)

	token, err := jwtManager.GenerateAccessToken(staffID, "staff@example.com", false)
	require.NoError(t, err)
	w := do(r, http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, staffID, resp.User.ID)
}

func TestUsersRequireAdmin(t *testing.T) {
	r, jwtManager := setupRouter(newStubService())

	staffToken, err := jwtManager.GenerateAccessToken(staffID, "staff@example.com", false)
	require.NoError(t, err)
	adminToken, err := jwtManager.GenerateAccessToken(adminID, "admin@example.com", true)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/v1/users", staffToken, nil).Code)

	w := do(r, http.MethodGet, "/v1/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page response.PageResponse[UserResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 2)

	w = do(r, http.MethodGet, "/v1/users/"+staffID, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/v1/users/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
