package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hirewire/hirewire/internal/job"
	"github.com/hirewire/hirewire/internal/storage"
)

// PutJob inserts or updates a job posting.
func (s *Store) PutJob(ctx context.Context, p job.Posting) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("job id is required")
	}

	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("encode job tags: %w", err)
	}

	deleted := 0
	if p.Deleted {
		deleted = 1
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO jobs (
    id, company_id, creator_id, title, description, location,
    salary_min, salary_max, tags_json, status, deleted, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    location = excluded.location,
    salary_min = excluded.salary_min,
    salary_max = excluded.salary_max,
    tags_json = excluded.tags_json,
    status = excluded.status,
    deleted = excluded.deleted,
    updated_at = excluded.updated_at
`,
		p.ID,
		p.CompanyID,
		p.CreatorID,
		p.Title,
		p.Description,
		p.Location,
		p.SalaryMin,
		p.SalaryMax,
		string(tagsJSON),
		string(p.Status),
		deleted,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put job: %w", err)
	}
	return nil
}

// GetJob fetches a job posting by ID. Deleted postings remain readable so
// historical attribution can still resolve titles.
func (s *Store) GetJob(ctx context.Context, jobID string) (job.Posting, error) {
	if err := s.ready(ctx); err != nil {
		return job.Posting{}, err
	}
	if strings.TrimSpace(jobID) == "" {
		return job.Posting{}, fmt.Errorf("job id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, jobSelect+` WHERE id = ?`, jobID)
	return scanJob(row)
}

// ListJobsByCompany returns a company's postings, newest first.
func (s *Store) ListJobsByCompany(ctx context.Context, companyID string, includeDeleted bool) ([]job.Posting, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(companyID) == "" {
		return nil, fmt.Errorf("company id is required")
	}

	query := jobSelect + ` WHERE company_id = ?`
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.sqlDB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var postings []job.Posting
	for rows.Next() {
		p, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return postings, nil
}

const jobSelect = `
SELECT id, company_id, creator_id, title, description, location,
       salary_min, salary_max, tags_json, status, deleted, created_at, updated_at
FROM jobs`

func scanJob(row rowScanner) (job.Posting, error) {
	var p job.Posting
	var tagsJSON, status string
	var deleted int
	var createdAt, updatedAt int64
	if err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&p.CreatorID,
		&p.Title,
		&p.Description,
		&p.Location,
		&p.SalaryMin,
		&p.SalaryMax,
		&tagsJSON,
		&status,
		&deleted,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return job.Posting{}, storage.ErrNotFound
		}
		return job.Posting{}, fmt.Errorf("scan job: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return job.Posting{}, fmt.Errorf("decode job tags: %w", err)
	}
	parsed, err := job.ParseStatus(status)
	if err != nil {
		return job.Posting{}, fmt.Errorf("parse job status: %w", err)
	}
	p.Status = parsed
	p.Deleted = deleted != 0
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}
