package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/models"
	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

const testPassword = "Correct-Horse-42"

var authNow = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

func newTestAuthService(t *testing.T, repo UserRepository, cooldown time.Duration) (*AuthService, *auth.LoginAttemptGuard, *auth.TokenProvider) {
	t.Helper()

	tp, err := auth.NewTokenProvider("test-secret-with-enough-entropy-for-hs512-signing")
	require.NoError(t, err)

	guard := auth.NewLoginAttemptGuard(auth.DefaultLoginAttemptConfig())
	logger := slog.Default()

	svc := NewAuthService(repo, tp, guard, nil, cooldown, logger, pkglogger.NewAuditLogger(logger))
	svc.now = func() time.Time { return authNow }
	return svc, guard, tp
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	previous := authNow.Add(-48 * time.Hour)
	bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
	bob.LastLoginAt = &previous
	repo, store := newStoreRepository(bob)

	svc, guard, tp := newTestAuthService(t, repo, 15*time.Minute)
	guard.RecordFailure("bob")

	user, token, err := svc.Authenticate(context.Background(), "bob", testPassword)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "bob", user.Username)

	subject, err := tp.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", subject)

	authorities, err := tp.Authorities(token)
	require.NoError(t, err)
	assert.Equal(t, []string{models.AuthorityUserRead}, authorities)

	stored := store.get("7")
	require.NotNil(t, stored.LastLoginAt)
	require.NotNil(t, stored.PreviousLoginAt)
	assert.Equal(t, authNow, *stored.LastLoginAt)
	assert.Equal(t, previous, *stored.PreviousLoginAt)
	assert.Equal(t, 0, guard.Attempts("bob"), "success must clear the attempt record")
}

func TestAuthService_Authenticate_UnknownUsername(t *testing.T) {
	repo, _ := newStoreRepository()
	svc, guard, _ := newTestAuthService(t, repo, 15*time.Minute)

	user, token, err := svc.Authenticate(context.Background(), "ghost", testPassword)

	assert.ErrorIs(t, err, models.ErrBadCredentials)
	assert.Nil(t, user)
	assert.Empty(t, token)
	assert.Equal(t, 1, guard.Attempts("ghost"))
}

func TestAuthService_Authenticate_MissingCredentials(t *testing.T) {
	repo, _ := newStoreRepository()
	svc, _, _ := newTestAuthService(t, repo, 15*time.Minute)

	_, _, err := svc.Authenticate(context.Background(), "  ", testPassword)
	assert.ErrorIs(t, err, models.ErrBadCredentials)

	_, _, err = svc.Authenticate(context.Background(), "bob", "")
	assert.ErrorIs(t, err, models.ErrBadCredentials)
}

func TestAuthService_Authenticate_WrongPassword(t *testing.T) {
	bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
	repo, store := newStoreRepository(bob)
	updates := 0
	update := repo.UpdateFunc
	repo.UpdateFunc = func(ctx context.Context, id string, user *models.User) (*models.User, error) {
		updates++
		return update(ctx, id, user)
	}

	svc, guard, _ := newTestAuthService(t, repo, 15*time.Minute)

	_, token, err := svc.Authenticate(context.Background(), "bob", "wrong-password")

	assert.ErrorIs(t, err, models.ErrBadCredentials)
	assert.Empty(t, token)
	assert.Equal(t, 1, guard.Attempts("bob"))
	assert.Equal(t, 0, updates, "a plain failure must not write the account")
	assert.Nil(t, store.get("7").LastLoginAt)
}

func TestAuthService_Authenticate_LocksAfterThreshold(t *testing.T) {
	bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
	repo, store := newStoreRepository(bob)
	svc, guard, _ := newTestAuthService(t, repo, 15*time.Minute)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, _, err := svc.Authenticate(ctx, "bob", "wrong-password")
		require.ErrorIs(t, err, models.ErrBadCredentials, "attempt %d", i)
		assert.False(t, store.get("7").Locked, "attempt %d must not lock yet", i)
	}

	// 6th attempt fails even with the right password
	_, token, err := svc.Authenticate(ctx, "bob", testPassword)

	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.Empty(t, token)

	stored := store.get("7")
	assert.True(t, stored.Locked)
	require.NotNil(t, stored.LockedAt)
	assert.Equal(t, authNow, *stored.LockedAt)
	assert.Nil(t, stored.LastLoginAt, "a locked attempt must not touch login timestamps")

	// Still locked inside the cooldown, and the password is not checked
	_, _, err = svc.Authenticate(ctx, "bob", "wrong-password")
	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.Equal(t, 5, guard.Attempts("bob"))
}

func TestAuthService_Authenticate_LockedAccountRetriesImmediatelyWithoutCooldown(t *testing.T) {
	bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
	repo, store := newStoreRepository(bob)
	svc, guard, tp := newTestAuthService(t, repo, 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		guard.RecordFailure("bob")
	}
	_, _, err := svc.Authenticate(ctx, "bob", testPassword)
	require.ErrorIs(t, err, models.ErrAccountLocked)
	require.True(t, store.get("7").Locked)

	user, token, err := svc.Authenticate(ctx, "bob", testPassword)

	require.NoError(t, err)
	assert.False(t, user.Locked)
	assert.False(t, store.get("7").Locked)
	assert.Nil(t, store.get("7").LockedAt)
	assert.True(t, tp.IsValid("bob", token))
}

func TestAuthService_Authenticate_UnlockIsPersistedOnWrongPassword(t *testing.T) {
	bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
	bob.Locked = true
	lockedAt := authNow.Add(-time.Hour)
	bob.LockedAt = &lockedAt
	repo, store := newStoreRepository(bob)
	svc, guard, _ := newTestAuthService(t, repo, 15*time.Minute)
	for i := 0; i < 5; i++ {
		guard.RecordFailure("bob")
	}

	_, _, err := svc.Authenticate(context.Background(), "bob", "wrong-password")

	assert.ErrorIs(t, err, models.ErrBadCredentials)
	assert.False(t, store.get("7").Locked)
	assert.Equal(t, 1, guard.Attempts("bob"), "unlocking resets the counter before the failure is recorded")
}

func TestAuthService_Authenticate_Cooldown(t *testing.T) {
	tests := []struct {
		name     string
		lockedAt *time.Time
		wantErr  error
	}{
		{name: "inside cooldown", lockedAt: timePtr(authNow.Add(-5 * time.Minute)), wantErr: models.ErrAccountLocked},
		{name: "cooldown elapsed", lockedAt: timePtr(authNow.Add(-15 * time.Minute))},
		{name: "administrative lock", lockedAt: nil, wantErr: models.ErrAccountLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
			bob.Locked = true
			bob.LockedAt = tt.lockedAt
			repo, store := newStoreRepository(bob)
			svc, _, _ := newTestAuthService(t, repo, 15*time.Minute)

			_, token, err := svc.Authenticate(context.Background(), "bob", testPassword)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, store.get("7").Locked)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.False(t, store.get("7").Locked)
		})
	}
}

func TestAuthService_Authenticate_DisabledAccount(t *testing.T) {
	bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
	bob.Active = false
	repo, store := newStoreRepository(bob)
	svc, guard, _ := newTestAuthService(t, repo, 15*time.Minute)

	_, token, err := svc.Authenticate(context.Background(), "bob", testPassword)

	assert.ErrorIs(t, err, models.ErrAccountDisabled)
	assert.Empty(t, token)
	assert.Equal(t, 0, guard.Attempts("bob"))
	assert.NotNil(t, store.get("7").LastLoginAt)
}

func TestAuthService_Authenticate_RepositoryError(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc, guard, _ := newTestAuthService(t, repo, 15*time.Minute)

	_, _, err := svc.Authenticate(context.Background(), "bob", testPassword)

	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.Equal(t, 0, guard.Attempts("bob"))
}

func TestAuthService_Authenticate_TokenIssueFailure(t *testing.T) {
	bob := NewTestUserWithPassword(t, "7", "bob", "bob@x.com", testPassword)
	repo, _ := newStoreRepository(bob)
	guard := auth.NewLoginAttemptGuard(auth.DefaultLoginAttemptConfig())
	issuer := &MockTokenIssuer{
		IssueFunc: func(subject string, authorities []string) (string, error) {
			return "", errors.New("signing failed")
		},
	}
	svc := NewAuthService(repo, issuer, guard, nil, time.Minute, slog.Default(), pkglogger.NewAuditLogger(slog.Default()))

	_, _, err := svc.Authenticate(context.Background(), "bob", testPassword)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Authenticate_PadsFailures(t *testing.T) {
	repo, _ := newStoreRepository()
	guard := auth.NewLoginAttemptGuard(auth.DefaultLoginAttemptConfig())
	timing := auth.NewTimingDelay(auth.TimingConfig{BaseDelay: 60 * time.Millisecond})
	svc := NewAuthService(repo, &MockTokenIssuer{}, guard, timing, time.Minute, slog.Default(), pkglogger.NewAuditLogger(slog.Default()))

	start := time.Now()
	_, _, err := svc.Authenticate(context.Background(), "ghost", testPassword)

	assert.ErrorIs(t, err, models.ErrBadCredentials)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
