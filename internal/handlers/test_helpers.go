package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/services"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// WithSubject marks the request as made by an authenticated caller
func WithSubject(req *http.Request, subject string, authorities ...string) *http.Request {
	sc := &auth.SecurityContext{Subject: subject, Authorities: authorities}
	return req.WithContext(auth.WithSecurityContext(req.Context(), sc))
}

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthenticator implements Authenticator for testing
type MockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, username, password string) (*models.User, string, error)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.User, string, error) {
	if m.AuthenticateFunc == nil {
		return nil, "", models.ErrBadCredentials
	}
	return m.AuthenticateFunc(ctx, username, password)
}

// MockRegistrar implements Registrar for testing
type MockRegistrar struct {
	RegisterFunc func(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

func (m *MockRegistrar) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, in)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ListUsersFunc      func(ctx context.Context, limit, offset int) ([]*models.User, error)
	FindByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	AddUserFunc        func(ctx context.Context, in services.AddUserInput) (*models.User, error)
	UpdateUserFunc     func(ctx context.Context, currentUsername string, in services.UpdateUserInput) (*models.User, error)
	DeleteUserFunc     func(ctx context.Context, username string) error
	ResetPasswordFunc  func(ctx context.Context, email string) error
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockUserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.FindByUsernameFunc == nil {
		return nil, models.ErrAccountNotFound
	}
	return m.FindByUsernameFunc(ctx, username)
}

func (m *MockUserService) AddUser(ctx context.Context, in services.AddUserInput) (*models.User, error) {
	if m.AddUserFunc == nil {
		return nil, models.ErrConflict
	}
	return m.AddUserFunc(ctx, in)
}

func (m *MockUserService) UpdateUser(ctx context.Context, currentUsername string, in services.UpdateUserInput) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrAccountNotFound
	}
	return m.UpdateUserFunc(ctx, currentUsername, in)
}

func (m *MockUserService) DeleteUser(ctx context.Context, username string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, username)
}

func (m *MockUserService) ResetPassword(ctx context.Context, email string) error {
	if m.ResetPasswordFunc == nil {
		return nil
	}
	return m.ResetPasswordFunc(ctx, email)
}
