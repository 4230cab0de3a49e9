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

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/services"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
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

// WithPrincipal adds a verified principal to the request context
func WithPrincipal(req *http.Request, subject string, authorities ...string) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), &models.Principal{
		Subject:     subject,
		Authorities: authorities,
	}))
}

// WithURLParams attaches chi route params for handlers called directly
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

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
	AuthenticateFunc func(ctx context.Context, identity, password string, client services.ClientInfo) (*services.AuthResult, error)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, identity, password string, client services.ClientInfo) (*services.AuthResult, error) {
	if m.AuthenticateFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.AuthenticateFunc(ctx, identity, password, client)
}

// MockRegistrar implements Registrar for testing
type MockRegistrar struct {
	RegisterFunc func(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

func (m *MockRegistrar) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrUsernameExists
	}
	return m.RegisterFunc(ctx, in)
}

// MockUserManager implements UserManager for testing
type MockUserManager struct {
	AddUserFunc       func(ctx context.Context, in services.UserInput, actor string) (*models.User, error)
	UpdateUserFunc    func(ctx context.Context, currentUsername string, in services.UserInput, actor string) (*models.User, error)
	DeleteUserFunc    func(ctx context.Context, username, actor string) error
	ListUsersFunc     func(ctx context.Context, limit, offset int) ([]*models.User, error)
	FindUserFunc      func(ctx context.Context, username string) (*models.User, error)
	ResetPasswordFunc func(ctx context.Context, email string) error
}

func (m *MockUserManager) AddUser(ctx context.Context, in services.UserInput, actor string) (*models.User, error) {
	if m.AddUserFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.AddUserFunc(ctx, in, actor)
}

func (m *MockUserManager) UpdateUser(ctx context.Context, currentUsername string, in services.UserInput, actor string) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, currentUsername, in, actor)
}

func (m *MockUserManager) DeleteUser(ctx context.Context, username, actor string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, username, actor)
}

func (m *MockUserManager) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockUserManager) FindUser(ctx context.Context, username string) (*models.User, error) {
	if m.FindUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.FindUserFunc(ctx, username)
}

func (m *MockUserManager) ResetPassword(ctx context.Context, email string) error {
	if m.ResetPasswordFunc == nil {
		return nil
	}
	return m.ResetPasswordFunc(ctx, email)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
