package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/pkg/auth"
	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

// UserRepository defines the interface for user data access.
// Lookups return models.ErrNotFound when nothing matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	UnlockExpired(ctx context.Context, lockedBefore time.Time) (int64, error)
}

// RegisterInput is a self-service sign up. A blank Password is replaced by a
// generated one that is emailed to the user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// AddUserInput is an administrator creating an account
type AddUserInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Role      string
	Active    bool
	Locked    bool
}

// UpdateUserInput replaces the editable fields of an account
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Role      string
	Active    bool
	Locked    bool
}

// UserService handles account management
type UserService struct {
	repo        UserRepository
	validator   *IdentityValidator
	email       EmailService
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, email EmailService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		validator:   NewIdentityValidator(repo),
		email:       email,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Register creates a ROLE_USER account and returns it as persisted
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username, email := normalizeUsername(in.Username), normalizeEmail(in.Email)

	if _, err := s.validator.Validate(ctx, "", username, email); err != nil {
		return nil, s.identityError(err, "registration rejected")
	}

	password := in.Password
	generated := password == ""
	if generated {
		var err error
		if password, err = auth.GeneratePassword(); err != nil {
			s.logger.Error("failed to generate password", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	} else if err := auth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrWeakPassword, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser.String(),
		Authorities:  models.RoleUser.Authorities(),
		Active:       true,
	}

	created, err := s.create(ctx, user)
	if err != nil {
		return nil, err
	}

	if generated {
		s.sendPassword(ctx, created, password)
	}

	s.auditLogger.LogAccountAction("account_registered", created.ID, "", map[string]string{
		"role": created.Role,
	})
	return created, nil
}

// AddUser creates an account on behalf of an administrator. The password is
// always generated and emailed.
func (s *UserService) AddUser(ctx context.Context, in AddUserInput) (*models.User, error) {
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	username, email := normalizeUsername(in.Username), normalizeEmail(in.Email)
	if _, err := s.validator.Validate(ctx, "", username, email); err != nil {
		return nil, s.identityError(err, "add user rejected")
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role.String(),
		Authorities:  role.Authorities(),
		Active:       in.Active,
		Locked:       in.Locked,
	}

	created, err := s.create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.sendPassword(ctx, created, password)
	s.auditLogger.LogAccountAction("account_created", created.ID, "", map[string]string{
		"role": created.Role,
	})
	return created, nil
}

// UpdateUser applies in to the account currently named currentUsername.
// Authorities are recomputed from the new role.
func (s *UserService) UpdateUser(ctx context.Context, currentUsername string, in UpdateUserInput) (*models.User, error) {
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	username, email := normalizeUsername(in.Username), normalizeEmail(in.Email)
	user, err := s.validator.Validate(ctx, normalizeUsername(currentUsername), username, email)
	if err != nil {
		return nil, s.identityError(err, "update rejected")
	}

	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Username = username
	user.Email = email
	user.Role = role.String()
	user.Authorities = role.Authorities()
	user.Active = in.Active

	// An administrator lock has no LockedAt so it never expires on its own
	if in.Locked != user.Locked {
		user.Locked = in.Locked
		user.LockedAt = nil
	}

	updated, err := s.repo.Update(ctx, user.ID, user)
	if err != nil {
		return nil, s.identityError(err, "failed to update user")
	}

	s.logger.Info("user updated", slog.String("user_id", updated.ID))
	s.auditLogger.LogAccountAction("account_updated", updated.ID, "", map[string]string{
		"role":   updated.Role,
		"locked": fmt.Sprintf("%t", updated.Locked),
		"active": fmt.Sprintf("%t", updated.Active),
	})
	return updated, nil
}

// DeleteUser removes the account with the given username
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrAccountNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("account_deleted", user.ID, "", nil)
	return nil
}

// ResetPassword replaces the password of the account owning email with a
// generated one and emails it.
func (s *UserService) ResetPassword(ctx context.Context, email string) error {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		s.logger.Error("failed to generate password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}
	user.PasswordHash = hash

	if _, err := s.repo.Update(ctx, user.ID, user); err != nil {
		s.logger.Error("failed to save reset password", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendNewPasswordEmail(ctx, user.FirstName, user.Email, password); err != nil {
		s.logger.Error("failed to send reset password email", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordReset(user.ID, true)
	return nil
}

// ListUsers retrieves a list of users with pagination
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// FindByUsername returns ErrAccountNotFound when no account matches
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAccountNotFound
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// FindByEmail returns ErrAccountNotFound when no account matches
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAccountNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

func (s *UserService) create(ctx context.Context, user *models.User) (*models.User, error) {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, s.identityError(err, "failed to create user")
	}

	s.logger.Info("user created", slog.String("user_id", created.ID))
	return created, nil
}

// sendPassword delivers a generated password. The account already exists at
// this point, so a failed delivery is logged and the user can request a reset.
func (s *UserService) sendPassword(ctx context.Context, user *models.User, password string) {
	if err := s.email.SendNewPasswordEmail(ctx, user.FirstName, user.Email, password); err != nil {
		s.logger.Warn("failed to send new password email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}
}

// identityError passes identity conflicts through and hides everything else
func (s *UserService) identityError(err error, msg string) error {
	switch {
	case errors.Is(err, models.ErrUsernameExists),
		errors.Is(err, models.ErrEmailExists),
		errors.Is(err, models.ErrAccountNotFound):
		s.logger.Info(msg, slog.String("reason", err.Error()))
		return err
	case errors.Is(err, models.ErrNotFound):
		return models.ErrAccountNotFound
	}

	s.logger.Error(msg, slog.Any("error", err))
	return models.ErrInternalServer
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
