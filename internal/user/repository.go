package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists user accounts.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Create inserts a new user, filling in id, creation time and a default profile when unset.
func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Profile.DietaryRestrictions == nil {
		u.Profile.DietaryRestrictions = []string{}
	}
	u.Email = NormalizeEmail(u.Email)

	profileJSON, err := json.Marshal(u.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, profile, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.HashedPassword, string(profileJSON), u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByEmail returns the user with the given email or ErrNotFound.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, profile, created_at FROM users WHERE email = ?`,
		NormalizeEmail(email),
	)
	return scanUser(row)
}

// GetByID returns the user with the given id or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, profile, created_at FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// UpdateProfile replaces the profile of the user with the given id.
func (r *Repository) UpdateProfile(ctx context.Context, id string, p Profile) error {
	if p.DietaryRestrictions == nil {
		p.DietaryRestrictions = []string{}
	}
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET profile = ? WHERE id = ?`, string(profileJSON), id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u           User
		profileJSON string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &profileJSON, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if err := json.Unmarshal([]byte(profileJSON), &u.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if u.Profile.DietaryRestrictions == nil {
		u.Profile.DietaryRestrictions = []string{}
	}
	return &u, nil
}
