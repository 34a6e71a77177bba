// Package membership defines the binding between a recruiter principal and
// a company. A membership exists only as the result of an accepted
// invitation; the storage layer enforces at most one membership per
// principal.
package membership

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
)

// Membership binds a recruiter principal to exactly one company.
type Membership struct {
	ID           string
	PrincipalID  string
	CompanyID    string
	InvitationID string
	JoinedAt     time.Time
}

// CreateMembershipInput describes the data needed to bind a recruiter.
type CreateMembershipInput struct {
	PrincipalID  string
	CompanyID    string
	InvitationID string
}

// CreateMembership creates a membership record with a generated ID.
func CreateMembership(input CreateMembershipInput, now func() time.Time, idGenerator func() (string, error)) (Membership, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	principalID := strings.TrimSpace(input.PrincipalID)
	if principalID == "" {
		return Membership{}, apperrors.New(apperrors.CodePrincipalEmptyID, "principal id is required")
	}
	companyID := strings.TrimSpace(input.CompanyID)
	if companyID == "" {
		return Membership{}, apperrors.New(apperrors.CodeNotFound, "company id is required")
	}
	invitationID := strings.TrimSpace(input.InvitationID)
	if invitationID == "" {
		return Membership{}, apperrors.New(apperrors.CodeNotFound, "invitation id is required")
	}

	membershipID, err := idGenerator()
	if err != nil {
		return Membership{}, fmt.Errorf("generate membership id: %w", err)
	}

	return Membership{
		ID:           membershipID,
		PrincipalID:  principalID,
		CompanyID:    companyID,
		InvitationID: invitationID,
		JoinedAt:     now().UTC(),
	}, nil
}
