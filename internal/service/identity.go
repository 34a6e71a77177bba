package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hirewire/hirewire/internal/auth"
	"github.com/hirewire/hirewire/internal/identity"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
	"github.com/hirewire/hirewire/internal/storage"
)

// IdentityService resolves principals and their role-tagged profiles.
type IdentityService struct {
	principals  storage.PrincipalStore
	companies   storage.CompanyStore
	memberships storage.MembershipStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewIdentityService builds an identity service with production defaults.
func NewIdentityService(principals storage.PrincipalStore, companies storage.CompanyStore, memberships storage.MembershipStore) *IdentityService {
	return &IdentityService{
		principals:  principals,
		companies:   companies,
		memberships: memberships,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// SyncPrincipal upserts the locally stored principal from validated provider
// claims. The provider owns identity; the local record only mirrors it so
// role and email are queryable without a provider round trip.
func (s *IdentityService) SyncPrincipal(ctx context.Context, claims auth.Claims) (identity.Principal, error) {
	email, err := identity.NormalizeEmail(claims.Email)
	if err != nil {
		return identity.Principal{}, err
	}
	if claims.PrincipalID == "" {
		return identity.Principal{}, apperrors.New(apperrors.CodePrincipalEmptyID, "principal id is required")
	}
	if claims.Role == identity.RoleUnspecified {
		return identity.Principal{}, apperrors.New(apperrors.CodePrincipalBadRole, "principal role is required")
	}

	now := s.clock().UTC()
	p := identity.Principal{
		ID:        claims.PrincipalID,
		Email:     email,
		Role:      claims.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	existing, err := s.principals.GetPrincipal(ctx, claims.PrincipalID)
	if err == nil {
		p.CreatedAt = existing.CreatedAt
	} else if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		return identity.Principal{}, fmt.Errorf("load principal: %w", err)
	}

	if err := s.principals.PutPrincipal(ctx, p); err != nil {
		return identity.Principal{}, fmt.Errorf("store principal: %w", err)
	}
	return p, nil
}

// ResolveProfile returns the role-tagged view of a principal with its
// company binding freshly resolved from storage. Bindings are never cached:
// an employer whose company vanished or a recruiter whose membership was
// removed resolves without a company on the very next call.
func (s *IdentityService) ResolveProfile(ctx context.Context, principalID string) (identity.Profile, error) {
	p, err := requirePrincipal(ctx, s.principals, principalID)
	if err != nil {
		return identity.Profile{}, err
	}

	profile := identity.Profile{Principal: p}
	switch p.Role {
	case identity.RoleEmployer:
		c, err := s.companies.GetCompanyByOwner(ctx, p.ID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				return profile, nil
			}
			return identity.Profile{}, fmt.Errorf("resolve owned company: %w", err)
		}
		profile.CompanyID = c.ID
		profile.IsOwner = true
	case identity.RoleRecruiter:
		m, err := s.memberships.GetMembershipByPrincipal(ctx, p.ID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				return profile, nil
			}
			return identity.Profile{}, fmt.Errorf("resolve membership: %w", err)
		}
		profile.CompanyID = m.CompanyID
	}
	return profile, nil
}

// DeletePrincipal removes a principal's profile and memberships. Threads and
// messages the principal participated in are retained.
func (s *IdentityService) DeletePrincipal(ctx context.Context, actorID, principalID string) error {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return err
	}
	if actor.ID != principalID && actor.Role != identity.RoleAdmin {
		return errForbidden("only the principal or an administrator may delete a profile")
	}
	if err := s.principals.DeletePrincipal(ctx, principalID); err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return apperrors.New(apperrors.CodeProfileNotFound, "principal profile not found")
		}
		return fmt.Errorf("delete principal: %w", err)
	}
	return nil
}
