package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
	"github.com/hirewire/hirewire/internal/storage"
)

// DirectoryService manages company records and owner-scoped profile edits.
type DirectoryService struct {
	principals  storage.PrincipalStore
	companies   storage.CompanyStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewDirectoryService builds a directory service with production defaults.
func NewDirectoryService(principals storage.PrincipalStore, companies storage.CompanyStore) *DirectoryService {
	return &DirectoryService{
		principals:  principals,
		companies:   companies,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// CreateCompany registers a company owned by the acting employer. The
// company starts unverified and cannot initiate outreach until an
// administrator approves it.
func (s *DirectoryService) CreateCompany(ctx context.Context, actorID string, input company.CreateCompanyInput) (company.Company, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return company.Company{}, err
	}
	if actor.Role != identity.RoleEmployer {
		return company.Company{}, errForbidden("only employers may create companies")
	}

	input.OwnerID = actor.ID
	c, err := company.CreateCompany(input, s.clock, s.idGenerator)
	if err != nil {
		return company.Company{}, err
	}
	if err := s.companies.CreateCompany(ctx, c); err != nil {
		return company.Company{}, err
	}
	return c, nil
}

// GetCompany fetches a company by id.
func (s *DirectoryService) GetCompany(ctx context.Context, companyID string) (company.Company, error) {
	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return company.Company{}, err
	}
	return c, nil
}

// UpdateCompanyProfile applies owner-submitted profile fields. Only the
// owning employer may edit; verification status is never touched here.
func (s *DirectoryService) UpdateCompanyProfile(ctx context.Context, actorID, companyID string, fields company.ProfileFields) (company.Company, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return company.Company{}, err
	}
	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return company.Company{}, err
	}
	if c.OwnerID != actor.ID {
		return company.Company{}, errForbidden("only the company owner may edit the profile")
	}

	updated, err := c.ApplyProfileFields(fields, s.clock().UTC())
	if err != nil {
		return company.Company{}, err
	}
	if err := s.companies.UpdateCompany(ctx, updated); err != nil {
		return company.Company{}, fmt.Errorf("store company update: %w", err)
	}
	return updated, nil
}

// CompanyForActor resolves the company the acting principal represents, as
// owner or member. Fails with a forbidden error when the principal
// represents no company.
func (s *DirectoryService) CompanyForActor(ctx context.Context, profile identity.Profile) (company.Company, error) {
	if profile.CompanyID == "" {
		return company.Company{}, errForbidden("principal does not represent a company")
	}
	c, err := s.companies.GetCompany(ctx, profile.CompanyID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return company.Company{}, errForbidden("represented company no longer exists")
		}
		return company.Company{}, err
	}
	return c, nil
}
