package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/services"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// UserManager defines the administrative user operations
type UserManager interface {
	AddUser(ctx context.Context, in services.UserInput, actor string) (*models.User, error)
	UpdateUser(ctx context.Context, currentUsername string, in services.UserInput, actor string) (*models.User, error)
	DeleteUser(ctx context.Context, username, actor string) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	FindUser(ctx context.Context, username string) (*models.User, error)
	ResetPassword(ctx context.Context, email string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserManager
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserManager, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// UserRequest is the body of add and update. For update, CurrentUsername
// names the account being changed.
type UserRequest struct {
	CurrentUsername string `json:"currentUsername" validate:"omitempty,max=50"`
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Username        string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Role            string `json:"role" validate:"required,role"`
	Active          bool   `json:"active"`
	NotLocked       bool   `json:"notLocked"`
}

func (req UserRequest) input() services.UserInput {
	return services.UserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
		Active:    req.Active,
		NotLocked: req.NotLocked,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	ProfileImageURL      string     `json:"profileImageUrl"`
	LastLoginDate        *time.Time `json:"lastLoginDate,omitempty"`
	LastLoginDateDisplay *time.Time `json:"lastLoginDateDisplay,omitempty"`
	JoinDate             time.Time  `json:"joinDate"`
	Role                 string     `json:"role"`
	Authorities          []string   `json:"authorities"`
	Active               bool       `json:"active"`
	NotLocked            bool       `json:"notLocked"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

func userModelToResponse(user *models.User) *UserResponse {
	authorities := user.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	return &UserResponse{
		ID:                   user.ID,
		UserID:               user.UserID,
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		Username:             user.Username,
		Email:                user.Email,
		ProfileImageURL:      user.ProfileImageURL,
		LastLoginDate:        user.LastLoginAt,
		LastLoginDateDisplay: user.LastLoginDisplayAt,
		JoinDate:             user.JoinedAt,
		Role:                 user.Role,
		Authorities:          authorities,
		Active:               user.Active,
		NotLocked:            !user.Locked,
	}
}

// ListUsers handles GET /user/list?limit=&offset=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r.URL.Query().Get("limit"), defaultListLimit, 1, maxListLimit)
	if err != nil {
		pkghttp.WriteBadRequest(w, "limit must be between 1 and "+strconv.Itoa(maxListLimit))
		return
	}
	offset, err := parseIntParam(r.URL.Query().Get("offset"), 0, 0, -1)
	if err != nil {
		pkghttp.WriteBadRequest(w, "offset must be a non-negative integer")
		return
	}

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userModelToResponse(u))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// FindUser handles GET /user/find/{username}
func (h *UserHandler) FindUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.FindUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// AddUser handles POST /user/add
func (h *UserHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := h.service.AddUser(r.Context(), req.input(), actor(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, userModelToResponse(user))
}

// UpdateUser handles POST /user/update
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}
	if req.CurrentUsername == "" {
		pkghttp.WriteBadRequest(w, "validation failed: currentUsername: this field is required")
		return
	}

	user, err := h.service.UpdateUser(r.Context(), req.CurrentUsername, req.input(), actor(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// DeleteUser handles DELETE /user/delete/{username}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "username"), actor(r)); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "user deleted successfully"})
}

// ResetPassword handles GET /user/resetpassword/{email}
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.service.ResetPassword(r.Context(), email); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "an email with a new password was sent to " + email})
}

func decodeUserRequest(w http.ResponseWriter, r *http.Request) (UserRequest, bool) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return req, false
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return req, false
	}
	return req, true
}

// actor names the authenticated caller for audit entries
func actor(r *http.Request) string {
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		return p.Subject
	}
	return ""
}

// parseIntParam parses an optional integer query value. max < 0 means unbounded.
func parseIntParam(value string, def, min, max int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < min || (max >= 0 && n > max) {
		return 0, strconv.ErrRange
	}
	return n, nil
}
