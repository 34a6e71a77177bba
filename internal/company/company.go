// Package company defines hiring organizations and their verification
// lifecycle. A company must be verified by an administrator before any of
// its representatives may contact candidates.
package company

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
)

// VerificationStatus tracks where a company sits in the verification gate.
//
// Valid status graph:
//
//	PENDING_VERIFICATION ──► VERIFIED
//	          │
//	          └────────────► REJECTED
//
// VERIFIED and REJECTED are terminal. Rejected companies are retained for
// audit and never hard-deleted.
type VerificationStatus string

const (
	StatusPendingVerification VerificationStatus = "PENDING_VERIFICATION"
	StatusVerified            VerificationStatus = "VERIFIED"
	StatusRejected            VerificationStatus = "REJECTED"
)

// ParseVerificationStatus converts a raw string to a VerificationStatus.
func ParseVerificationStatus(value string) (VerificationStatus, error) {
	st := VerificationStatus(value)
	switch st {
	case StatusPendingVerification, StatusVerified, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown verification status %q", value)
}

// Decided reports whether the status is terminal.
func (s VerificationStatus) Decided() bool {
	return s == StatusVerified || s == StatusRejected
}

// Company is a hiring organization with exactly one owning principal.
type Company struct {
	ID          string
	Name        string
	Location    string
	Bio         string
	Size        string
	Industry    string
	FoundedYear int
	LogoURL     string
	VideoURL    string
	Status      VerificationStatus
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileFields are the owner-writable portions of a company profile.
type ProfileFields struct {
	Name        string
	Location    string
	Bio         string
	Size        string
	Industry    string
	FoundedYear int
	LogoURL     string
	VideoURL    string
}

// CreateCompanyInput describes the data needed to create a company.
type CreateCompanyInput struct {
	Name     string
	Location string
	OwnerID  string
}

// CreateCompany creates a company in PENDING_VERIFICATION bound to its owner.
func CreateCompany(input CreateCompanyInput, now func() time.Time, idGenerator func() (string, error)) (Company, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Company{}, apperrors.New(apperrors.CodeCompanyEmptyName, "company name is required")
	}
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return Company{}, apperrors.New(apperrors.CodePrincipalEmptyID, "owner principal id is required")
	}

	companyID, err := idGenerator()
	if err != nil {
		return Company{}, fmt.Errorf("generate company id: %w", err)
	}

	createdAt := now().UTC()
	return Company{
		ID:        companyID,
		Name:      name,
		Location:  strings.TrimSpace(input.Location),
		Status:    StatusPendingVerification,
		OwnerID:   ownerID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// Decide applies an administrator verification decision.
//
// Re-deciding an already-decided company fails: the gate is a terminal lock,
// so VERIFIED can never silently revert and REJECTED can never be undone
// without an explicit future re-submission flow.
func (c Company) Decide(approve bool, decidedAt time.Time) (Company, error) {
	if c.Status.Decided() {
		return Company{}, apperrors.WithMetadata(
			apperrors.CodeVerificationDecided,
			"company verification is already decided",
			map[string]string{"CompanyID": c.ID, "Status": string(c.Status)},
		)
	}
	if approve {
		c.Status = StatusVerified
	} else {
		c.Status = StatusRejected
	}
	c.UpdatedAt = decidedAt.UTC()
	return c, nil
}

// CanInitiateOutreach reports whether company representatives may start new
// candidate conversations. This is the sole gate consulted before outreach;
// inbound candidate replies are never gated.
func (c Company) CanInitiateOutreach() bool {
	return c.Status == StatusVerified
}

// ApplyProfileFields merges owner-submitted profile fields, keeping existing
// values where the update leaves a field blank.
func (c Company) ApplyProfileFields(fields ProfileFields, updatedAt time.Time) (Company, error) {
	if name := strings.TrimSpace(fields.Name); name != "" {
		c.Name = name
	}
	if c.Name == "" {
		return Company{}, apperrors.New(apperrors.CodeCompanyEmptyName, "company name is required")
	}
	if value := strings.TrimSpace(fields.Location); value != "" {
		c.Location = value
	}
	if value := strings.TrimSpace(fields.Bio); value != "" {
		c.Bio = value
	}
	if value := strings.TrimSpace(fields.Size); value != "" {
		c.Size = value
	}
	if value := strings.TrimSpace(fields.Industry); value != "" {
		c.Industry = value
	}
	if fields.FoundedYear > 0 {
		c.FoundedYear = fields.FoundedYear
	}
	if value := strings.TrimSpace(fields.LogoURL); value != "" {
		c.LogoURL = value
	}
	if value := strings.TrimSpace(fields.VideoURL); value != "" {
		c.VideoURL = value
	}
	c.UpdatedAt = updatedAt.UTC()
	return c, nil
}
