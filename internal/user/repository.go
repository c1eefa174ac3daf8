package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence. All reads exclude soft-deleted
// accounts (active = false).
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, u *User) error {
	_, err := r.db.NewInsert().
		Model(u).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves an active user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("id = ?", id).
		Where("active = ?", true).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return u, nil
}

// GetByEmail retrieves an active user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("email = ?", email).
		Where("active = ?", true).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// GetByResetTokenHash retrieves the user holding an unexpired reset token.
// An expired token is indistinguishable from a missing one.
func (r *Repository) GetByResetTokenHash(ctx context.Context, hash string) (*User, error) {
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("password_reset_token = ?", hash).
		Where("password_reset_expires > ?", time.Now()).
		Where("active = ?", true).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return u, nil
}

// SetResetToken stores a reset token hash with its expiry, replacing any
// previous token.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, hash string, expires time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_reset_token = ?", hash).
		Set("password_reset_expires = ?", expires).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return checkAffected(result)
}

// ClearResetToken removes any outstanding reset token from the user record
func (r *Repository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_reset_token = ?", nil).
		Set("password_reset_expires = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}

	return checkAffected(result)
}

// UpdatePassword writes a new password hash, stamps the change time and
// clears any reset token in the same statement, making token consumption
// single-use.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("password_changed_at = ?", changedAt).
		Set("password_reset_token = ?", nil).
		Set("password_reset_expires = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return checkAffected(result)
}

// UpdateProfile applies the allow-listed profile fields (name, email)
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*User, error) {
	u := new(User)
	q := r.db.NewUpdate().
		Model(u).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("active = ?", true).
		Returning("*")

	if name != "" {
		q = q.Set("name = ?", name)
	}
	if email != "" {
		q = q.Set("email = ?", email)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return u, nil
}

// Deactivate soft-deletes the account. The row stays in place but default
// reads no longer see it.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("active = ?", false).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
