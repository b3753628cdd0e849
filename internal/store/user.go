// internal/store/user.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"provider-workflow/internal/models"
)

// GetUser returns the user record or nil when no such user exists.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, role, bio, phone_number, service_address,
		       created_at, updated_at
		FROM users
		WHERE id = $1`, id).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Role,
		&user.Bio,
		&user.PhoneNumber,
		&user.ServiceAddress,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}
