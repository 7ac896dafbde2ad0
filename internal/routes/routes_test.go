package routes_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/handlers"
	"github.com/BradenHooton/supportportal/internal/middleware"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/routes"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

const routeTestSecret = "route-test-secret-long-enough-for-hs512-signing"

func newTestRouter(t *testing.T, users *handlers.MockUserService) (http.Handler, *auth.TokenProvider) {
	t.Helper()
	tp, err := auth.NewTokenProvider(routeTestSecret)
	require.NoError(t, err)

	logger := handlers.DiscardLogger()
	authenticator := &handlers.MockAuthenticator{
		AuthenticateFunc: func(ctx context.Context, username, password string) (*models.User, string, error) {
			return &models.User{ID: "1", Username: username}, "issued-token", nil
		},
	}

	router := chi.NewRouter()
	router.Use(auth.Gatekeeper(tp))
	routes.RegisterRoutes(router,
		handlers.NewUserHandler(users, logger),
		handlers.NewAuthHandler(authenticator, &handlers.MockRegistrar{}, nil, logger),
		routes.Options{
			LoginRateLimit:         middleware.DefaultAuthRateLimit(),
			AuthenticatedRateLimit: middleware.DefaultAuthenticatedRateLimit(),
		},
	)
	return router, tp
}

func bearer(t *testing.T, tp *auth.TokenProvider, subject string, role models.Role) string {
	t.Helper()
	token, err := tp.Issue(subject, role.Authorities())
	require.NoError(t, err)
	return auth.TokenPrefix + token
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

func TestRoutes_AnonymousCallerIsAskedToLogin(t *testing.T) {
	router, _ := newTestRouter(t, &handlers.MockUserService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/list", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, auth.ForbiddenMessage, errorMessage(t, rec))
}

func TestRoutes_InvalidTokenIsTreatedAsAnonymous(t *testing.T) {
	router, _ := newTestRouter(t, &handlers.MockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/user/list", nil)
	req.Header.Set(auth.AuthorizationHeader, auth.TokenPrefix+"garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, auth.ForbiddenMessage, errorMessage(t, rec))
}

func TestRoutes_AuthorityChecks(t *testing.T) {
	users := &handlers.MockUserService{
		DeleteUserFunc: func(ctx context.Context, username string) error { return nil },
	}
	router, tp := newTestRouter(t, users)

	tests := []struct {
		name       string
		role       models.Role
		method     string
		path       string
		wantStatus int
	}{
		{"user can list", models.RoleUser, http.MethodGet, "/user/list", http.StatusOK},
		{"user cannot delete", models.RoleUser, http.MethodDelete, "/user/delete/bob", http.StatusForbidden},
		{"admin cannot delete", models.RoleAdmin, http.MethodDelete, "/user/delete/bob", http.StatusForbidden},
		{"super admin can delete", models.RoleSuperAdmin, http.MethodDelete, "/user/delete/bob", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(auth.AuthorizationHeader, bearer(t, tp, "caller-"+tt.name, tt.role))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, auth.AccessDeniedMessage, errorMessage(t, rec))
			}
		})
	}
}

func TestRoutes_LoginIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, &handlers.MockUserService{})

	req := handlers.NewTestRequest(t, http.MethodPost, "/user/login", handlers.LoginRequest{
		Username: "alice",
		Password: "password123",
	})
	req.RemoteAddr = "198.51.100.4:4000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "issued-token", rec.Header().Get(auth.TokenResponseHeader))
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	routes.HealthHandler(func(r *http.Request) error { return nil })(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	routes.HealthHandler(func(r *http.Request) error { return errors.New("down") })(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
