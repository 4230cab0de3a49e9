package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/services"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

// Authenticator is the login side of the auth service
type Authenticator interface {
	Authenticate(ctx context.Context, identity, password string, client services.ClientInfo) (*services.AuthResult, error)
}

// Registrar creates self-service accounts
type Registrar interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

// AuthHandler handles login and registration
type AuthHandler struct {
	auth      Authenticator
	registrar Registrar
	ipConfig  *pkghttp.IPConfig
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authenticator Authenticator, registrar Registrar, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      authenticator,
		registrar: registrar,
		ipConfig:  ipConfig,
		logger:    logger,
	}
}

// LoginRequest accepts either a username or an email as the identity
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email,max=255"`
	Email    string `json:"email" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// Identity returns the username when present, otherwise the email
func (r LoginRequest) Identity() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Username  string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// Login handles POST /user/login. The token travels in the Jwt-Token header,
// the body is the account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	client := services.ClientInfo{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: pkghttp.UserAgent(r),
	}

	result, err := h.auth.Authenticate(r.Context(), req.Identity(), req.Password, client)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.Header().Set(auth.TokenHeader, result.Token.Value)
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(result.User))
}

// Register handles POST /user/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.registrar.Register(r.Context(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, userModelToResponse(user))
}
