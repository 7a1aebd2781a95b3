package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/liliang-cn/askstock/internal/domain"
)

// UserRepository handles user lookups for the chat auth layer
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail retrieves a user by email. Returns nil if no user exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	var rolesJSON sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, roles, created_at
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&rolesJSON, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if rolesJSON.Valid && rolesJSON.String != "" {
		json.Unmarshal([]byte(rolesJSON.String), &user.Roles)
	}

	return user, nil
}
