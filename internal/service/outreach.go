package service

import (
	"context"

	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/storage"
)

// OutreachService reports outreach attribution derived from stored thread
// state. Counts are recomputed on every call; nothing is cached or
// incremented, so they can never drift from the threads themselves.
type OutreachService struct {
	principals storage.PrincipalStore
	jobs       storage.JobStore
	outreach   storage.OutreachStore
	identity   *IdentityService
}

// NewOutreachService builds an outreach service.
func NewOutreachService(principals storage.PrincipalStore, jobs storage.JobStore, outreach storage.OutreachStore, identitySvc *IdentityService) *OutreachService {
	return &OutreachService{
		principals: principals,
		jobs:       jobs,
		outreach:   outreach,
		identity:   identitySvc,
	}
}

// CountForJob returns the number of conversations attributed to the job.
// Only the posting company's representatives and administrators may ask.
func (s *OutreachService) CountForJob(ctx context.Context, actorID, jobID string) (int, error) {
	profile, err := s.identity.ResolveProfile(ctx, actorID)
	if err != nil {
		return 0, err
	}
	posting, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return 0, err
	}
	if profile.Principal.Role != identity.RoleAdmin && profile.CompanyID != posting.CompanyID {
		return 0, errForbidden("only the posting company may view outreach counts")
	}
	return s.outreach.CountOutreachForJob(ctx, posting.ID)
}

// SummaryForCompany aggregates outreach across the company's postings,
// including soft-deleted ones, whose historical attributions survive.
func (s *OutreachService) SummaryForCompany(ctx context.Context, actorID, companyID string) (storage.OutreachSummary, error) {
	profile, err := s.identity.ResolveProfile(ctx, actorID)
	if err != nil {
		return storage.OutreachSummary{}, err
	}
	if profile.Principal.Role != identity.RoleAdmin && profile.CompanyID != companyID {
		return storage.OutreachSummary{}, errForbidden("only company representatives may view the outreach summary")
	}
	return s.outreach.SummarizeOutreachForCompany(ctx, companyID)
}

// RecountAttribution re-derives every thread's attributed job from its
// message log. Administrators only; exists to prove attribution is a pure
// function of the messages and to repair it if it ever is not.
func (s *OutreachService) RecountAttribution(ctx context.Context, actorID string) (int, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return 0, err
	}
	if actor.Role != identity.RoleAdmin {
		return 0, errForbidden("only administrators may recount attribution")
	}
	return s.outreach.RecountOutreachAttribution(ctx)
}
