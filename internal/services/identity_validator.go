package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BradenHooton/supportportal/internal/models"
)

// IdentityValidator checks that a username/email change does not collide with
// another account.
type IdentityValidator struct {
	repo UserRepository
}

// NewIdentityValidator creates a new IdentityValidator
func NewIdentityValidator(repo UserRepository) *IdentityValidator {
	return &IdentityValidator{repo: repo}
}

// Validate checks newUsername and newEmail against existing accounts.
//
// With a blank currentUsername (registration) any existing holder of either
// value is a conflict and no account is returned. Otherwise the account named
// by currentUsername is resolved and returned; values it already holds itself
// are not conflicts. Blank newUsername or newEmail are not checked.
func (v *IdentityValidator) Validate(ctx context.Context, currentUsername, newUsername, newEmail string) (*models.User, error) {
	var current *models.User
	if strings.TrimSpace(currentUsername) != "" {
		u, err := v.lookup(ctx, v.repo.GetByUsername, currentUsername)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, models.ErrAccountNotFound
		}
		current = u
	}

	byUsername, err := v.lookup(ctx, v.repo.GetByUsername, newUsername)
	if err != nil {
		return nil, err
	}
	if byUsername != nil && !sameAccount(current, byUsername) {
		return nil, models.ErrUsernameExists
	}

	byEmail, err := v.lookup(ctx, v.repo.GetByEmail, newEmail)
	if err != nil {
		return nil, err
	}
	if byEmail != nil && !sameAccount(current, byEmail) {
		return nil, models.ErrEmailExists
	}

	return current, nil
}

// lookup returns nil without error when value is blank or nothing matches
func (v *IdentityValidator) lookup(ctx context.Context, find func(context.Context, string) (*models.User, error), value string) (*models.User, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	user, err := find(ctx, value)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	return user, nil
}

func sameAccount(current, other *models.User) bool {
	return current != nil && current.ID == other.ID
}
