package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/storage"
)

// PutPrincipal inserts or updates a principal record.
func (s *Store) PutPrincipal(ctx context.Context, p identity.Principal) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("principal id is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("principal email is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO principals (id, email, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    email = excluded.email,
    role = excluded.role,
    updated_at = excluded.updated_at
`,
		p.ID,
		p.Email,
		p.Role.String(),
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put principal: %w", err)
	}
	return nil
}

// GetPrincipal fetches a principal record by ID.
func (s *Store) GetPrincipal(ctx context.Context, principalID string) (identity.Principal, error) {
	if err := s.ready(ctx); err != nil {
		return identity.Principal{}, err
	}
	if strings.TrimSpace(principalID) == "" {
		return identity.Principal{}, fmt.Errorf("principal id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, role, created_at, updated_at
FROM principals
WHERE id = ?
`, principalID)
	return scanPrincipal(row)
}

// GetPrincipalByEmail fetches a principal record by normalized email.
func (s *Store) GetPrincipalByEmail(ctx context.Context, email string) (identity.Principal, error) {
	if err := s.ready(ctx); err != nil {
		return identity.Principal{}, err
	}
	if strings.TrimSpace(email) == "" {
		return identity.Principal{}, fmt.Errorf("email is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, email, role, created_at, updated_at
FROM principals
WHERE email = ?
`, email)
	return scanPrincipal(row)
}

// DeletePrincipal removes the profile and its memberships. Threads and
// messages are retained for audit.
func (s *Store) DeletePrincipal(ctx context.Context, principalID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(principalID) == "" {
		return fmt.Errorf("principal id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memberships WHERE principal_id = ?`, principalID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM principals WHERE id = ?`, principalID)
	if err != nil {
		return fmt.Errorf("delete principal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete principal rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit principal delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (identity.Principal, error) {
	var p identity.Principal
	var role string
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.Email, &role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Principal{}, storage.ErrNotFound
		}
		return identity.Principal{}, fmt.Errorf("scan principal: %w", err)
	}
	parsed, err := identity.ParseRole(role)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("parse principal role: %w", err)
	}
	p.Role = parsed
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}
