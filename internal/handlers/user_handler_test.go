package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezenglish/learning-service/internal/models"
	"github.com/ezenglish/learning-service/internal/repositories"
	"github.com/ezenglish/learning-service/internal/services"
)

type passwordCall struct {
	actorID  uint
	targetID uint
}

type fakeUsers struct {
	services.UserService
	mu          sync.Mutex
	lastFilters repositories.UserFilters
	deleted     []uint
	passwords   []passwordCall
}

func (f *fakeUsers) List(ctx context.Context, filters repositories.UserFilters, page, size int) (*models.PaginatedResponse, error) {
	f.mu.Lock()
	f.lastFilters = filters
	f.mu.Unlock()
	items := []*models.User{{ID: 1, Username: "alice"}}
	return models.NewPaginatedResponse(items, 1, page, size), nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if id == 404 {
		return nil, services.NewNotFoundError("user %d not found", id)
	}
	return &models.User{ID: id, Username: "alice", PasswordHash: "$2a$10$hash"}, nil
}

func (f *fakeUsers) Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	if req.Username == "alice" {
		return nil, services.NewConflictError("username or email already registered")
	}
	return &models.User{ID: 12, Username: req.Username, Email: req.Email, UserGroupID: models.GroupUser}, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUsers) ChangePassword(ctx context.Context, actor *models.User, id uint, req *models.ChangePasswordRequest) error {
	f.mu.Lock()
	f.passwords = append(f.passwords, passwordCall{actorID: actor.ID, targetID: id})
	f.mu.Unlock()
	if actor.ID != id && !actor.IsAdmin() {
		return services.NewForbiddenError("cannot change another user's password")
	}
	return nil
}

type fakeRoles struct {
	services.RoleService
	deleted []int16
}

func (f *fakeRoles) List(ctx context.Context, filters repositories.RoleFilters, page, size int) (*models.PaginatedResponse, error) {
	items := []*models.UserGroup{{ID: models.GroupAdmin, Name: "admin"}, {ID: models.GroupUser, Name: "user"}}
	return models.NewPaginatedResponse(items, 2, page, size), nil
}

func (f *fakeRoles) Delete(ctx context.Context, id int16) error {
	if id == models.GroupAdmin {
		return services.NewInvalidArgumentError("built-in role %q cannot be deleted", "admin")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestUserRoutesRequireAdmin(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/users", "/api/v1/users/1", "/api/v1/roles"} {
		w, env := doRequest(t, router, http.MethodGet, path, userToken, "")
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Equal(t, services.CodeUnauthorized, env.Code, path)
	}

	w, _ := doRequest(t, router, http.MethodGet, "/api/v1/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsers(t *testing.T) {
	router, sm := newTestRouter(t)

	w, env := doRequest(t, router, http.MethodGet, "/api/v1/users?filters=ali&group_id=2&include_disabled=true", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, int64(1), *env.Total)
	assert.Equal(t, "ali", sm.users.lastFilters.Query)
	require.NotNil(t, sm.users.lastFilters.GroupID)
	assert.Equal(t, models.GroupUser, *sm.users.lastFilters.GroupID)
	assert.True(t, sm.users.lastFilters.IncludeDisabled)

	w, env = doRequest(t, router, http.MethodGet, "/api/v1/users?group_id=abc", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.CodeBadRequest, env.Code)
}

func TestGetAndCreateUser(t *testing.T) {
	router, _ := newTestRouter(t)

	w, env := doRequest(t, router, http.MethodGet, "/api/v1/users/3", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"alice"`)
	assert.NotContains(t, string(env.Data), "hash")

	w, env = doRequest(t, router, http.MethodGet, "/api/v1/users/404", adminToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodeNotFound, env.Code)

	w, env = doRequest(t, router, http.MethodPost, "/api/v1/users", adminToken, `{"username":"bob","email":"bob@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, services.CodeSuccess, env.Code)

	w, env = doRequest(t, router, http.MethodPost, "/api/v1/users", adminToken, `{"username":"alice","email":"a@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, services.CodeConflict, env.Code)
}

func TestDeleteUser(t *testing.T) {
	router, sm := newTestRouter(t)

	w, _ := doRequest(t, router, http.MethodDelete, "/api/v1/users/3", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	// the admin token belongs to user 9
	w, env := doRequest(t, router, http.MethodDelete, "/api/v1/users/9", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.CodeBadRequest, env.Code)

	assert.Equal(t, []uint{3}, sm.users.deleted)
}

func TestChangePasswordRoute(t *testing.T) {
	router, sm := newTestRouter(t)
	body := `{"old_password":"secret123","new_password":"secret456"}`

	w, _ := doRequest(t, router, http.MethodPut, "/api/v1/users/1/password", userToken, body)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doRequest(t, router, http.MethodPut, "/api/v1/users/2/password", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, services.CodeUnauthorized, env.Code)

	w, _ = doRequest(t, router, http.MethodPut, "/api/v1/users/2/password", adminToken, `{"new_password":"secret456"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []passwordCall{{1, 1}, {1, 2}, {9, 2}}, sm.users.passwords)
}

func TestRoleRoutes(t *testing.T) {
	router, sm := newTestRouter(t)

	w, env := doRequest(t, router, http.MethodGet, "/api/v1/roles", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, int64(2), *env.Total)

	w, env = doRequest(t, router, http.MethodDelete, "/api/v1/roles/1", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.CodeBadRequest, env.Code)

	w, _ = doRequest(t, router, http.MethodDelete, "/api/v1/roles/40000", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, router, http.MethodDelete, "/api/v1/roles/5", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int16{5}, sm.roles.deleted)
}
