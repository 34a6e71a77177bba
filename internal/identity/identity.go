// Package identity defines principals and the closed role union used to
// authorize every marketplace operation.
package identity

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
)

// Role describes what a principal is allowed to do on the platform.
type Role int

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = iota
	// RoleJobSeeker indicates a candidate account.
	RoleJobSeeker
	// RoleEmployer indicates a company-owner account.
	RoleEmployer
	// RoleRecruiter indicates an account bound to a company via invitation.
	RoleRecruiter
	// RoleAdmin indicates a platform administrator.
	RoleAdmin
)

// String returns the storage label for the role.
func (r Role) String() string {
	switch r {
	case RoleJobSeeker:
		return "job_seeker"
	case RoleEmployer:
		return "employer"
	case RoleRecruiter:
		return "recruiter"
	case RoleAdmin:
		return "admin"
	default:
		return "unspecified"
	}
}

// ParseRole converts a storage label back into a Role.
func ParseRole(value string) (Role, error) {
	switch strings.TrimSpace(value) {
	case "job_seeker":
		return RoleJobSeeker, nil
	case "employer":
		return RoleEmployer, nil
	case "recruiter":
		return RoleRecruiter, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnspecified, apperrors.WithMetadata(
			apperrors.CodePrincipalBadRole,
			"unknown principal role",
			map[string]string{"Role": value},
		)
	}
}

// CanRepresentCompany reports whether the role may act on behalf of a company.
func (r Role) CanRepresentCompany() bool {
	return r == RoleEmployer || r == RoleRecruiter
}

// Principal is an authenticated platform actor.
//
// Role-specific bindings are not stored here: company ownership lives on the
// company record and recruiter bindings live in membership records, so the
// "at most one company per recruiter" invariant is a storage constraint
// rather than a convention.
type Principal struct {
	ID        string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is a role-tagged view of a principal with its company binding
// resolved. CompanyID is empty for job seekers and admins. IsOwner is true
// only for the employer that created the company.
type Profile struct {
	Principal Principal
	CompanyID string
	IsOwner   bool
}

// CreatePrincipalInput describes the data needed to create a principal.
type CreatePrincipalInput struct {
	Email string
	Role  Role
}

// CreatePrincipal creates a principal with a generated ID and timestamps.
func CreatePrincipal(input CreatePrincipalInput, now func() time.Time, idGenerator func() (string, error)) (Principal, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return Principal{}, err
	}
	if input.Role == RoleUnspecified {
		return Principal{}, apperrors.New(apperrors.CodePrincipalBadRole, "principal role is required")
	}

	principalID, err := idGenerator()
	if err != nil {
		return Principal{}, fmt.Errorf("generate principal id: %w", err)
	}

	createdAt := now().UTC()
	return Principal{
		ID:        principalID,
		Email:     email,
		Role:      input.Role,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// NormalizeEmail lowercases and trims an email address, rejecting forms that
// cannot name an invitation target.
func NormalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", apperrors.New(apperrors.CodePrincipalBadEmail, "email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", apperrors.WithMetadata(
			apperrors.CodePrincipalBadEmail,
			"email is malformed",
			map[string]string{"Email": email},
		)
	}
	return email, nil
}
