package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BradenHooton/supportportal/internal/database"
	"github.com/BradenHooton/supportportal/internal/models"
)

const userColumns = `id, first_name, last_name, username, email, password_hash, role, authorities,
	active, locked, locked_at, last_login_at, previous_login_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var authorities []string

	err := scanner.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Username, &user.Email,
		&user.PasswordHash, &user.Role, &authorities,
		&user.Active, &user.Locked, &user.LockedAt, &user.LastLoginAt, &user.PreviousLoginAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if authorities == nil {
		authorities = []string{}
	}
	user.Authorities = authorities

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, username LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// Create inserts a new account. Username or email collisions surface as
// models.ErrUsernameExists / models.ErrEmailExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser.String()
	}
	if user.Authorities == nil {
		user.Authorities = []string{}
	}

	query := `
		INSERT INTO users (id, first_name, last_name, username, email, password_hash, role, authorities,
			active, locked, locked_at, last_login_at, previous_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Username, user.Email,
		user.PasswordHash, user.Role, user.Authorities,
		user.Active, user.Locked, user.LockedAt, user.LastLoginAt, user.PreviousLoginAt,
		user.CreatedAt, user.UpdatedAt,
	))
}

// Update saves every mutable column of the account with the given id
func (r *UserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users SET first_name = $1, last_name = $2, username = $3, email = $4, password_hash = $5,
			role = $6, authorities = $7, active = $8, locked = $9, locked_at = $10,
			last_login_at = $11, previous_login_at = $12, updated_at = $13
		WHERE id = $14
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Username, user.Email, user.PasswordHash,
		user.Role, user.Authorities, user.Active, user.Locked, user.LockedAt,
		user.LastLoginAt, user.PreviousLoginAt, user.UpdatedAt, id,
	))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UnlockExpired clears lockouts set by the login flow at or before
// lockedBefore. Administrative locks (no locked_at) are left alone.
func (r *UserRepository) UnlockExpired(ctx context.Context, lockedBefore time.Time) (int64, error) {
	query := `
		UPDATE users SET locked = FALSE, locked_at = NULL, updated_at = NOW()
		WHERE locked AND locked_at IS NOT NULL AND locked_at <= $1
	`

	result, err := r.pool.Exec(ctx, query, lockedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to unlock accounts: %w", database.MapPostgresError(err))
	}

	return result.RowsAffected(), nil
}
