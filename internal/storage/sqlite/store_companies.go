package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hirewire/hirewire/internal/company"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/storage"
)

// CreateCompany inserts a new company record. The unique index on owner_id
// turns a second company for the same owner into a duplicate-owner error.
func (s *Store) CreateCompany(ctx context.Context, c company.Company) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("company id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO companies (
    id, name, location, bio, size, industry, founded_year,
    logo_url, video_url, status, owner_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		c.ID,
		c.Name,
		c.Location,
		c.Bio,
		c.Size,
		c.Industry,
		c.FoundedYear,
		c.LogoURL,
		c.VideoURL,
		string(c.Status),
		c.OwnerID,
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "companies.owner_id") {
			return apperrors.WithMetadata(
				apperrors.CodeCompanyDuplicateOwner,
				"principal already owns a company",
				map[string]string{"OwnerID": c.OwnerID},
			)
		}
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// GetCompany fetches a company record by ID.
func (s *Store) GetCompany(ctx context.Context, companyID string) (company.Company, error) {
	if err := s.ready(ctx); err != nil {
		return company.Company{}, err
	}
	if strings.TrimSpace(companyID) == "" {
		return company.Company{}, fmt.Errorf("company id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, companySelect+` WHERE id = ?`, companyID)
	return scanCompany(row)
}

// GetCompanyByOwner fetches the company owned by a principal.
func (s *Store) GetCompanyByOwner(ctx context.Context, ownerID string) (company.Company, error) {
	if err := s.ready(ctx); err != nil {
		return company.Company{}, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return company.Company{}, fmt.Errorf("owner id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, companySelect+` WHERE owner_id = ?`, ownerID)
	return scanCompany(row)
}

// UpdateCompany overwrites mutable company fields.
func (s *Store) UpdateCompany(ctx context.Context, c company.Company) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("company id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE companies SET
    name = ?, location = ?, bio = ?, size = ?, industry = ?,
    founded_year = ?, logo_url = ?, video_url = ?, status = ?, updated_at = ?
WHERE id = ?
`,
		c.Name,
		c.Location,
		c.Bio,
		c.Size,
		c.Industry,
		c.FoundedYear,
		c.LogoURL,
		c.VideoURL,
		string(c.Status),
		toMillis(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update company rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListCompaniesPendingVerification returns companies awaiting an admin
// decision, oldest first.
func (s *Store) ListCompaniesPendingVerification(ctx context.Context) ([]company.Company, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, companySelect+` WHERE status = ? ORDER BY created_at ASC, id ASC`,
		string(company.StatusPendingVerification))
	if err != nil {
		return nil, fmt.Errorf("list pending companies: %w", err)
	}
	defer rows.Close()

	var companies []company.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending companies: %w", err)
	}
	return companies, nil
}

// DecideVerification persists a terminal verification transition and its
// notification event in one transaction. The guard on PENDING_VERIFICATION
// makes re-decisions observable as invalid state.
func (s *Store) DecideVerification(ctx context.Context, c company.Company, event storage.OutboxEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("company id is required")
	}
	if !c.Status.Decided() {
		return fmt.Errorf("decided status is required, got %s", c.Status)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE companies SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
`,
		string(c.Status),
		toMillis(c.UpdatedAt),
		c.ID,
		string(company.StatusPendingVerification),
	)
	if err != nil {
		return fmt.Errorf("decide verification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decide verification rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.WithMetadata(
			apperrors.CodeVerificationDecided,
			"company verification is already decided",
			map[string]string{"CompanyID": c.ID},
		)
	}

	if err := enqueueOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verification decision: %w", err)
	}
	return nil
}

const companySelect = `
SELECT id, name, location, bio, size, industry, founded_year,
       logo_url, video_url, status, owner_id, created_at, updated_at
FROM companies`

func scanCompany(row rowScanner) (company.Company, error) {
	var c company.Company
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Location,
		&c.Bio,
		&c.Size,
		&c.Industry,
		&c.FoundedYear,
		&c.LogoURL,
		&c.VideoURL,
		&status,
		&c.OwnerID,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return company.Company{}, storage.ErrNotFound
		}
		return company.Company{}, fmt.Errorf("scan company: %w", err)
	}
	parsed, err := company.ParseVerificationStatus(status)
	if err != nil {
		return company.Company{}, fmt.Errorf("parse company status: %w", err)
	}
	c.Status = parsed
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}
