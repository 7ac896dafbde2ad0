package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/services"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

// UserService defines the interface for user business logic
type UserService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	AddUser(ctx context.Context, in services.AddUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, currentUsername string, in services.UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, email string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// AddUserRequest represents the request body for an administrator creating a user
type AddUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Role      string `json:"role" validate:"required,role"`
	Active    *bool  `json:"active"`
	Locked    bool   `json:"locked"`
}

// UpdateUserRequest replaces the editable fields of the account named CurrentUsername
type UpdateUserRequest struct {
	CurrentUsername string `json:"current_username" validate:"required"`
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Role            string `json:"role" validate:"required,role"`
	Active          bool   `json:"active"`
	Locked          bool   `json:"locked"`
}

// ResetPasswordRequest represents the request body for a password reset
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ListUsers retrieves a list of users with pagination
//
// @Summary List users
// @Param limit query int false "Limit (default 20)" default(20)
// @Param offset query int false "Offset (default 0)" default(0)
// @Produce json
// @Success 200 {object} ListUsersResponse
// @Router /user/list [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if err := parseIntParam(l, &limit, 1, 100); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if err := parseIntParam(o, &offset, 0, 10000); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid offset parameter")
			return
		}
	}

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	response := &ListUsersResponse{
		Users: make([]*UserResponse, len(users)),
		Total: len(users),
	}
	for i, user := range users {
		response.Users[i] = userModelToResponse(user)
	}

	pkghttp.WriteJSON(w, http.StatusOK, response)
}

// GetUser retrieves a user by username
//
// @Summary Find user by username
// @Param username path string true "Username"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /user/find/{username} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		pkghttp.WriteBadRequest(w, "Username is required")
		return
	}

	user, err := h.service.FindByUsername(r.Context(), username)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// AddUser creates an account with a generated password
//
// @Summary Add a user
// @Accept json
// @Param request body AddUserRequest true "Add user request"
// @Produce json
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /user/add [post]
func (h *UserHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user, err := h.service.AddUser(r.Context(), services.AddUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
		Active:    active,
		Locked:    req.Locked,
	})
	if err != nil {
		writeAccountError(w, err)
		return
	}

	h.logger.Info("user added",
		slog.String("user_id", user.ID),
		slog.String("actor", actorFromRequest(r)))
	pkghttp.WriteJSON(w, http.StatusCreated, userModelToResponse(user))
}

// UpdateUser updates an existing user
//
// @Summary Update a user
// @Accept json
// @Param request body UpdateUserRequest true "Update user request"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /user/update [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), req.CurrentUsername, services.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
		Active:    req.Active,
		Locked:    req.Locked,
	})
	if err != nil {
		writeAccountError(w, err)
		return
	}

	h.logger.Info("user updated",
		slog.String("user_id", user.ID),
		slog.String("actor", actorFromRequest(r)))
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// DeleteUser deletes a user
//
// @Summary Delete a user
// @Param username path string true "Username"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /user/delete/{username} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		pkghttp.WriteBadRequest(w, "Username is required")
		return
	}

	if err := h.service.DeleteUser(r.Context(), username); err != nil {
		writeAccountError(w, err)
		return
	}

	h.logger.Info("user deleted", slog.String("actor", actorFromRequest(r)))
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword emails a new password to the owner of an email address.
// The response is the same whether or not the address is known.
//
// @Summary Reset password
// @Accept json
// @Param request body ResetPasswordRequest true "Reset password request"
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /user/reset-password [post]
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email); err != nil && !errors.Is(err, models.ErrAccountNotFound) {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, &MessageResponse{
		Message: "If an account exists for that email, a new password has been sent to it",
	})
}

// actorFromRequest names the authenticated caller for logs
func actorFromRequest(r *http.Request) string {
	if sc := auth.FromContext(r.Context()); sc != nil {
		return sc.Subject
	}
	return ""
}

// parseIntParam parses value into dest when it falls within [min, max]
func parseIntParam(value string, dest *int, min, max int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}

	if n < min || n > max {
		return errors.New("parameter out of range")
	}

	*dest = n
	return nil
}
