// Package invitation defines recruiter invitations and their lifecycle.
//
// Valid status graph:
//
//	PENDING ──► ACCEPTED
//	   │
//	   └──────► CANCELLED
//
// ACCEPTED and CANCELLED are terminal. At most one PENDING invitation may
// exist per (company, email) pair; the storage layer enforces this with a
// uniqueness constraint.
package invitation

import (
	"fmt"
	"strings"
	"time"

	"github.com/hirewire/hirewire/internal/identity"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
)

// Status tracks where an invitation sits in its lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus converts a raw string to a Status.
func ParseStatus(value string) (Status, error) {
	st := Status(value)
	switch st {
	case StatusPending, StatusAccepted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown invitation status %q", value)
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusCancelled
}

// Invitation is a pending offer for an email address to join a company as a
// recruiter.
type Invitation struct {
	ID        string
	CompanyID string
	InviterID string
	Email     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInvitationInput describes the data needed to issue an invitation.
type CreateInvitationInput struct {
	CompanyID string
	InviterID string
	Email     string
}

// CreateInvitation creates a PENDING invitation with a generated ID.
func CreateInvitation(input CreateInvitationInput, now func() time.Time, idGenerator func() (string, error)) (Invitation, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	companyID := strings.TrimSpace(input.CompanyID)
	if companyID == "" {
		return Invitation{}, apperrors.New(apperrors.CodeNotFound, "company id is required")
	}
	inviterID := strings.TrimSpace(input.InviterID)
	if inviterID == "" {
		return Invitation{}, apperrors.New(apperrors.CodePrincipalEmptyID, "inviter principal id is required")
	}
	email, err := identity.NormalizeEmail(input.Email)
	if err != nil {
		return Invitation{}, apperrors.Wrap(apperrors.CodeInvitationEmptyEmail, "invitation email is invalid", err)
	}

	invitationID, err := idGenerator()
	if err != nil {
		return Invitation{}, fmt.Errorf("generate invitation id: %w", err)
	}

	createdAt := now().UTC()
	return Invitation{
		ID:        invitationID,
		CompanyID: companyID,
		InviterID: inviterID,
		Email:     email,
		Status:    StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// Accept transitions the invitation to ACCEPTED. Only PENDING invitations may
// be accepted; acceptance is terminal.
func (i Invitation) Accept(acceptedAt time.Time) (Invitation, error) {
	if i.Status != StatusPending {
		return Invitation{}, invalidState(i)
	}
	i.Status = StatusAccepted
	i.UpdatedAt = acceptedAt.UTC()
	return i, nil
}

// Cancel transitions the invitation to CANCELLED. Only PENDING invitations
// may be cancelled.
func (i Invitation) Cancel(cancelledAt time.Time) (Invitation, error) {
	if i.Status != StatusPending {
		return Invitation{}, invalidState(i)
	}
	i.Status = StatusCancelled
	i.UpdatedAt = cancelledAt.UTC()
	return i, nil
}

func invalidState(i Invitation) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvitationInvalidState,
		"invitation is not pending",
		map[string]string{"InvitationID": i.ID, "Status": string(i.Status)},
	)
}
