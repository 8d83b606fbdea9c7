package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pointflow/internal/database"
	"pointflow/internal/models"
)

// UserStore handles user rows in SQLite.
type UserStore struct {
	db *database.DB
}

// NewUserStore creates a new user store
func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. The caller supplies the password hash.
func (s *UserStore) Create(ctx context.Context, email, passwordHash, tier string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Tier:         tier,
		CreatedAt:    now,
		LastLoginAt:  now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, tier, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.Tier, user.CreatedAt, user.LastLoginAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(ctx, `
		SELECT id, email, password_hash, tier, created_at, last_login_at
		FROM users WHERE email = ?`, email)
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.scanOne(ctx, `
		SELECT id, email, password_hash, tier, created_at, last_login_at
		FROM users WHERE id = ?`, id)
}

// TouchLogin updates a user's last login timestamp.
func (s *UserStore) TouchLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdateTier changes a user's subscription tier. Existing projects are not
// re-validated against the new tier's quota.
func (s *UserStore) UpdateTier(ctx context.Context, id, tier string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET tier = ? WHERE id = ?`, tier, id)
	if err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Tier,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
