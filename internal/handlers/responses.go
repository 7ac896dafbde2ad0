package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID              string   `json:"id"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Role            string   `json:"role"`
	Authorities     []string `json:"authorities"`
	Active          bool     `json:"active"`
	Locked          bool     `json:"locked"`
	LastLoginAt     *string  `json:"last_login_at,omitempty"`
	PreviousLoginAt *string  `json:"previous_login_at,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// ListUsersResponse represents a list of users
type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
	Total int             `json:"total"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// userModelToResponse converts a user model to a response DTO
func userModelToResponse(user *models.User) *UserResponse {
	authorities := user.Authorities
	if authorities == nil {
		authorities = []string{}
	}

	return &UserResponse{
		ID:              user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Username:        user.Username,
		Email:           user.Email,
		Role:            user.Role,
		Authorities:     authorities,
		Active:          user.Active,
		Locked:          user.Locked,
		LastLoginAt:     formatOptionalTime(user.LastLoginAt),
		PreviousLoginAt: formatOptionalTime(user.PreviousLoginAt),
		CreatedAt:       user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       user.UpdatedAt.Format(time.RFC3339),
	}
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// writeAccountError translates account management failures
func writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUsernameExists):
		pkghttp.WriteConflict(w, "Username already exists")
	case errors.Is(err, models.ErrEmailExists):
		pkghttp.WriteConflict(w, "Email already exists")
	case errors.Is(err, models.ErrAccountNotFound):
		pkghttp.WriteNotFound(w, "No account found by username")
	case errors.Is(err, models.ErrInvalidRole):
		pkghttp.WriteBadRequest(w, "Unknown role")
	case errors.Is(err, models.ErrWeakPassword):
		pkghttp.WriteBadRequest(w, "Password does not meet requirements")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
