// Package job defines job postings, the entities that outreach messages must
// be attributed to.
package job

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
)

// Status tracks whether a posting is open for outreach and discovery.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// ParseStatus converts a raw string to a Status.
func ParseStatus(value string) (Status, error) {
	st := Status(value)
	switch st {
	case StatusActive, StatusInactive:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", value)
}

// Posting is a job opening published by a company representative.
//
// CreatorID records which principal authored the posting; CompanyID is the
// company the posting belongs to, and is what outreach attribution checks
// against.
type Posting struct {
	ID          string
	CompanyID   string
	CreatorID   string
	Title       string
	Description string
	Location    string
	SalaryMin   int
	SalaryMax   int
	Tags        []string
	Status      Status
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePostingInput describes the data needed to publish a posting.
type CreatePostingInput struct {
	CompanyID   string
	CreatorID   string
	Title       string
	Description string
	Location    string
	SalaryMin   int
	SalaryMax   int
	Tags        []string
}

// CreatePosting creates an ACTIVE posting with a generated ID.
func CreatePosting(input CreatePostingInput, now func() time.Time, idGenerator func() (string, error)) (Posting, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	companyID := strings.TrimSpace(input.CompanyID)
	if companyID == "" {
		return Posting{}, apperrors.New(apperrors.CodeNotFound, "company id is required")
	}
	creatorID := strings.TrimSpace(input.CreatorID)
	if creatorID == "" {
		return Posting{}, apperrors.New(apperrors.CodePrincipalEmptyID, "creator principal id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Posting{}, apperrors.New(apperrors.CodeJobEmptyTitle, "job title is required")
	}
	if input.SalaryMin < 0 || input.SalaryMax < 0 || (input.SalaryMax > 0 && input.SalaryMin > input.SalaryMax) {
		return Posting{}, apperrors.New(apperrors.CodeJobInvalidStatus, "salary range is invalid")
	}

	postingID, err := idGenerator()
	if err != nil {
		return Posting{}, fmt.Errorf("generate job id: %w", err)
	}

	tags := make([]string, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	createdAt := now().UTC()
	return Posting{
		ID:          postingID,
		CompanyID:   companyID,
		CreatorID:   creatorID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		SalaryMin:   input.SalaryMin,
		SalaryMax:   input.SalaryMax,
		Tags:        tags,
		Status:      StatusActive,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// SetStatus toggles the posting between ACTIVE and INACTIVE.
func (p Posting) SetStatus(status Status, updatedAt time.Time) (Posting, error) {
	if status != StatusActive && status != StatusInactive {
		return Posting{}, apperrors.New(apperrors.CodeJobInvalidStatus, "job status is invalid")
	}
	p.Status = status
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}

// Attributable reports whether the posting may anchor a new outreach message
// for the given company.
func (p Posting) Attributable(companyID string) error {
	if p.Deleted {
		return apperrors.WithMetadata(apperrors.CodeJobInactive, "job posting is deleted", map[string]string{"JobID": p.ID})
	}
	if p.CompanyID != companyID {
		return apperrors.WithMetadata(apperrors.CodeJobWrongCompany, "job belongs to another company", map[string]string{"JobID": p.ID})
	}
	if p.Status != StatusActive {
		return apperrors.WithMetadata(apperrors.CodeJobInactive, "job posting is not active", map[string]string{"JobID": p.ID})
	}
	return nil
}
