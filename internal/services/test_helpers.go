package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/BradenHooton/supportportal/internal/models"
	pkgauth "github.com/BradenHooton/supportportal/pkg/auth"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc        func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc        func(ctx context.Context, id string, user *models.User) (*models.User, error)
	DeleteFunc        func(ctx context.Context, id string) error
	UnlockExpiredFunc func(ctx context.Context, lockedBefore time.Time) (int64, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) UnlockExpired(ctx context.Context, lockedBefore time.Time) (int64, error) {
	if m.UnlockExpiredFunc != nil {
		return m.UnlockExpiredFunc(ctx, lockedBefore)
	}
	return 0, nil
}

// userStore backs a MockUserRepository with a map so flows that read their
// own writes can be tested end to end.
type userStore struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int
}

// newStoreRepository returns a mock repository wired to an in-memory store
func newStoreRepository(users ...*models.User) (*MockUserRepository, *userStore) {
	store := &userStore{byID: make(map[string]*models.User)}
	for _, u := range users {
		store.byID[u.ID] = cloneUser(u)
	}

	find := func(match func(*models.User) bool) (*models.User, error) {
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, u := range store.byID {
			if match(u) {
				return cloneUser(u), nil
			}
		}
		return nil, models.ErrNotFound
	}

	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.ID == id })
		},
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Username == username })
		},
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Email == email })
		},
		ListFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			store.mu.Lock()
			defer store.mu.Unlock()
			users := make([]*models.User, 0, len(store.byID))
			for _, u := range store.byID {
				users = append(users, cloneUser(u))
			}
			return users, nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			store.mu.Lock()
			defer store.mu.Unlock()
			store.nextID++
			created := cloneUser(user)
			created.ID = fmt.Sprintf("generated-%d", store.nextID)
			created.CreatedAt = time.Now()
			created.UpdatedAt = created.CreatedAt
			store.byID[created.ID] = created
			return cloneUser(created), nil
		},
		UpdateFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			store.mu.Lock()
			defer store.mu.Unlock()
			if _, ok := store.byID[id]; !ok {
				return nil, models.ErrNotFound
			}
			updated := cloneUser(user)
			updated.ID = id
			store.byID[id] = updated
			return cloneUser(updated), nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			store.mu.Lock()
			defer store.mu.Unlock()
			if _, ok := store.byID[id]; !ok {
				return models.ErrNotFound
			}
			delete(store.byID, id)
			return nil
		},
	}

	return repo, store
}

// get returns the stored copy of an account
func (s *userStore) get(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.byID[id])
}

func (s *userStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Authorities = append([]string(nil), u.Authorities...)
	return &c
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendNewPasswordEmailFunc func(ctx context.Context, firstName, email, password string) error

	mu   sync.Mutex
	Sent []SentEmail
}

// SentEmail captures one SendNewPasswordEmail call
type SentEmail struct {
	FirstName string
	Email     string
	Password  string
}

func (m *MockEmailService) SendNewPasswordEmail(ctx context.Context, firstName, email, password string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentEmail{FirstName: firstName, Email: email, Password: password})
	m.mu.Unlock()

	if m.SendNewPasswordEmailFunc != nil {
		return m.SendNewPasswordEmailFunc(ctx, firstName, email, password)
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(subject string, authorities []string) (string, error)
}

func (m *MockTokenIssuer) Issue(subject string, authorities []string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(subject, authorities)
	}
	return "token-for-" + subject, nil
}

// NewTestUser creates an active, unlocked ROLE_USER account
func NewTestUser(id, username, email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:          id,
		FirstName:   "Test",
		LastName:    "User",
		Username:    username,
		Email:       email,
		Role:        models.RoleUser.String(),
		Authorities: models.RoleUser.Authorities(),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestUserWithPassword creates a user whose hash matches password
func NewTestUserWithPassword(t *testing.T, id, username, email, password string) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPasswordWithCost(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := NewTestUser(id, username, email)
	user.PasswordHash = hash
	return user
}
