package service

import (
	"context"
	"time"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/storage"
)

// VerificationService applies administrator verification decisions and
// answers the outreach gate.
type VerificationService struct {
	principals storage.PrincipalStore
	companies  storage.CompanyStore
	decisions  storage.VerificationStore
	clock      func() time.Time
}

// NewVerificationService builds a verification service with production
// defaults.
func NewVerificationService(principals storage.PrincipalStore, companies storage.CompanyStore, decisions storage.VerificationStore) *VerificationService {
	return &VerificationService{
		principals: principals,
		companies:  companies,
		decisions:  decisions,
		clock:      time.Now,
	}
}

// ListPendingCompanies returns companies awaiting a decision. Admin only.
func (s *VerificationService) ListPendingCompanies(ctx context.Context, actorID string) ([]company.Company, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleAdmin {
		return nil, errForbidden("only administrators may review verification")
	}
	return s.companies.ListCompaniesPendingVerification(ctx)
}

// DecideVerification approves or rejects a pending company. Admin only.
// Decisions are terminal; a second decision for the same company fails.
func (s *VerificationService) DecideVerification(ctx context.Context, actorID, companyID string, approve bool) (company.Company, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return company.Company{}, err
	}
	if actor.Role != identity.RoleAdmin {
		return company.Company{}, errForbidden("only administrators may decide verification")
	}

	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return company.Company{}, err
	}
	decided, err := c.Decide(approve, s.clock().UTC())
	if err != nil {
		return company.Company{}, err
	}

	event := outboxEvent(
		storage.OutboxEventVerificationDecided,
		storage.OutboxEventVerificationDecided+":"+c.ID,
		map[string]string{
			"companyId": c.ID,
			"ownerId":   c.OwnerID,
			"status":    string(decided.Status),
		},
		decided.UpdatedAt,
	)
	if err := s.decisions.DecideVerification(ctx, decided, event); err != nil {
		return company.Company{}, err
	}
	return decided, nil
}

// CanInitiateOutreach reports whether the company's representatives may open
// new candidate conversations. This consults stored status only; a decision
// made a moment ago is already in effect.
func (s *VerificationService) CanInitiateOutreach(ctx context.Context, companyID string) (bool, error) {
	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return false, err
	}
	return c.CanInitiateOutreach(), nil
}
