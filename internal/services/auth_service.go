package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	pkgauth "github.com/BradenHooton/supportportal/pkg/auth"
	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

// TokenIssuer signs tokens for authenticated accounts
type TokenIssuer interface {
	Issue(subject string, authorities []string) (string, error)
}

// LoginAttemptTracker counts consecutive failed logins per username
type LoginAttemptTracker interface {
	RecordFailure(username string) int
	Evict(username string)
	HasExceededThreshold(username string) bool
}

// AuthService turns a username and password into an issued token. It keeps
// the account's lock state and login timestamps up to date along the way.
type AuthService struct {
	repo        UserRepository
	tokens      TokenIssuer
	attempts    LoginAttemptTracker
	timing      *auth.TimingDelay
	cooldown    time.Duration
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates a new AuthService. A zero cooldown lets a locked
// account retry on its very next attempt. timing may be nil.
func NewAuthService(repo UserRepository, tokens TokenIssuer, attempts LoginAttemptTracker, timing *auth.TimingDelay, cooldown time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		attempts:    attempts,
		timing:      timing,
		cooldown:    cooldown,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Authenticate verifies the credentials and returns the account as persisted
// together with a freshly issued token.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, string, error) {
	start := time.Now()

	user, token, err := s.authenticate(ctx, strings.TrimSpace(username), password)
	if err != nil && s.timing != nil && !errors.Is(err, models.ErrInternalServer) {
		s.timing.WaitFrom(ctx, start)
	}

	return user, token, err
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (*models.User, string, error) {
	if username == "" || password == "" {
		s.auditFailure("", "missing_credentials")
		return nil, "", models.ErrBadCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.attempts.RecordFailure(username)
			s.logger.Info("login failed: invalid credentials")
			s.auditFailure("", "invalid_credentials")
			return nil, "", models.ErrBadCredentials
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, "", models.ErrInternalServer
	}

	now := s.now()
	unlocked := false

	if user.Locked {
		if !s.lockExpired(user, now) {
			s.logger.Info("login blocked: account locked", slog.String("user_id", user.ID))
			s.auditFailure(user.ID, "account_locked")
			return nil, "", models.ErrAccountLocked
		}
		s.attempts.Evict(user.Username)
		user.Locked = false
		user.LockedAt = nil
		unlocked = true
	}

	// Lockout pre-empts the password check
	if s.attempts.HasExceededThreshold(user.Username) {
		user.Locked = true
		user.LockedAt = &now
		if _, err := s.repo.Update(ctx, user.ID, user); err != nil {
			s.logger.Error("failed to lock account", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, "", models.ErrInternalServer
		}
		s.logger.Warn("account locked after repeated failures", slog.String("user_id", user.ID))
		s.auditLogger.LogAccountAction("account_locked", user.ID, "", nil)
		return nil, "", models.ErrAccountLocked
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.attempts.RecordFailure(user.Username)
		if unlocked {
			if _, err := s.repo.Update(ctx, user.ID, user); err != nil {
				s.logger.Error("failed to save unlocked account", slog.String("user_id", user.ID), slog.Any("error", err))
				return nil, "", models.ErrInternalServer
			}
		}
		s.logger.Info("login failed: invalid credentials")
		s.auditFailure(user.ID, "invalid_credentials")
		return nil, "", models.ErrBadCredentials
	}

	s.attempts.Evict(user.Username)
	user.PreviousLoginAt = user.LastLoginAt
	user.LastLoginAt = &now

	saved, err := s.repo.Update(ctx, user.ID, user)
	if err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, "", models.ErrInternalServer
	}

	if !saved.Active {
		s.logger.Info("login blocked: account disabled", slog.String("user_id", saved.ID))
		s.auditFailure(saved.ID, "account_disabled")
		return nil, "", models.ErrAccountDisabled
	}

	token, err := s.tokens.Issue(saved.Username, saved.Authorities)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", saved.ID), slog.Any("error", err))
		return nil, "", models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", saved.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    saved.ID,
		Success:   true,
	})

	return saved, token, nil
}

// lockExpired reports whether a locked account may try again. Locks set by an
// administrator carry no LockedAt and only expire with a zero cooldown.
func (s *AuthService) lockExpired(user *models.User, now time.Time) bool {
	if s.cooldown <= 0 {
		return true
	}
	if user.LockedAt == nil {
		return false
	}
	return !now.Before(user.LockedAt.Add(s.cooldown))
}

func (s *AuthService) auditFailure(userID, reason string) {
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		FailureReason: reason,
		Success:       false,
	})
}
