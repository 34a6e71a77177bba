package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/job"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
	"github.com/hirewire/hirewire/internal/storage"
)

// JobService manages job postings, the anchors for outreach attribution.
type JobService struct {
	principals  storage.PrincipalStore
	identity    *IdentityService
	jobs        storage.JobStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewJobService builds a job service with production defaults.
func NewJobService(principals storage.PrincipalStore, identitySvc *IdentityService, jobs storage.JobStore) *JobService {
	return &JobService{
		principals:  principals,
		identity:    identitySvc,
		jobs:        jobs,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// CreateJob publishes an ACTIVE posting for the actor's company. Owners and
// members may both post.
func (s *JobService) CreateJob(ctx context.Context, actorID string, input job.CreatePostingInput) (job.Posting, error) {
	profile, err := s.identity.ResolveProfile(ctx, actorID)
	if err != nil {
		return job.Posting{}, err
	}
	if profile.CompanyID == "" {
		return job.Posting{}, errForbidden("only company representatives may post jobs")
	}

	input.CompanyID = profile.CompanyID
	input.CreatorID = profile.Principal.ID
	posting, err := job.CreatePosting(input, s.clock, s.idGenerator)
	if err != nil {
		return job.Posting{}, err
	}
	if err := s.jobs.PutJob(ctx, posting); err != nil {
		return job.Posting{}, fmt.Errorf("store job: %w", err)
	}
	return posting, nil
}

// GetJob fetches a posting by id. Soft-deleted postings resolve not found
// for everyone but their own company's representatives.
func (s *JobService) GetJob(ctx context.Context, actorID, jobID string) (job.Posting, error) {
	posting, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return job.Posting{}, err
	}
	if !posting.Deleted {
		return posting, nil
	}
	profile, err := s.identity.ResolveProfile(ctx, actorID)
	if err != nil {
		return job.Posting{}, err
	}
	if profile.CompanyID != posting.CompanyID {
		return job.Posting{}, storage.ErrNotFound
	}
	return posting, nil
}

// SetJobStatus toggles a posting between ACTIVE and INACTIVE. Only the
// posting company's representatives may change it.
func (s *JobService) SetJobStatus(ctx context.Context, actorID, jobID string, status job.Status) (job.Posting, error) {
	posting, err := s.requireCompanyJob(ctx, actorID, jobID)
	if err != nil {
		return job.Posting{}, err
	}
	updated, err := posting.SetStatus(status, s.clock().UTC())
	if err != nil {
		return job.Posting{}, err
	}
	if err := s.jobs.PutJob(ctx, updated); err != nil {
		return job.Posting{}, fmt.Errorf("store job status: %w", err)
	}
	return updated, nil
}

// DeleteJob soft-deletes a posting. Existing thread attributions survive;
// the posting simply stops anchoring new outreach.
func (s *JobService) DeleteJob(ctx context.Context, actorID, jobID string) error {
	posting, err := s.requireCompanyJob(ctx, actorID, jobID)
	if err != nil {
		return err
	}
	if posting.Deleted {
		return nil
	}
	posting.Deleted = true
	posting.UpdatedAt = s.clock().UTC()
	if err := s.jobs.PutJob(ctx, posting); err != nil {
		return fmt.Errorf("store job delete: %w", err)
	}
	return nil
}

// ListJobs returns a company's postings. Representatives of the company see
// soft-deleted postings too; everyone else sees only live ones.
func (s *JobService) ListJobs(ctx context.Context, actorID, companyID string) ([]job.Posting, error) {
	includeDeleted := false
	if actorID != "" {
		profile, err := s.identity.ResolveProfile(ctx, actorID)
		if err != nil {
			return nil, err
		}
		includeDeleted = profile.CompanyID == companyID || profile.Principal.Role == identity.RoleAdmin
	}
	return s.jobs.ListJobsByCompany(ctx, companyID, includeDeleted)
}

// requireCompanyJob loads a posting and checks the actor represents its
// company.
func (s *JobService) requireCompanyJob(ctx context.Context, actorID, jobID string) (job.Posting, error) {
	profile, err := s.identity.ResolveProfile(ctx, actorID)
	if err != nil {
		return job.Posting{}, err
	}
	posting, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return job.Posting{}, err
	}
	if profile.CompanyID == "" || profile.CompanyID != posting.CompanyID {
		return job.Posting{}, apperrors.WithMetadata(
			apperrors.CodeJobWrongCompany,
			"job belongs to another company",
			map[string]string{"JobID": posting.ID},
		)
	}
	return posting, nil
}
