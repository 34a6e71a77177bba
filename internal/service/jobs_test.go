package service

import (
	"context"
	"testing"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/job"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
)

func TestCreateJobRequiresCompanyBinding(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("seeker-1", "casey@example.com", identity.RoleJobSeeker)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	posting, err := f.jobs.CreateJob(context.Background(), "owner-1", job.CreatePostingInput{
		Title: "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if posting.CompanyID != "company-1" || posting.Status != job.StatusActive {
		t.Fatalf("posting = %+v, want active at company-1", posting)
	}

	_, err = f.jobs.CreateJob(context.Background(), "seeker-1", job.CreatePostingInput{Title: "Nope"})
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("seeker create err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}
}

func TestSetJobStatusAndDelete(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("owner-2", "boss@example.com", identity.RoleEmployer)
	f.addCompany("company-1", "owner-1", company.StatusVerified)
	f.addCompany("company-2", "owner-2", company.StatusVerified)
	f.addJob("job-1", "company-1", job.StatusActive)

	_, err := f.jobs.SetJobStatus(context.Background(), "owner-2", "job-1", job.StatusInactive)
	if apperrors.CodeOf(err) != apperrors.CodeJobWrongCompany {
		t.Fatalf("foreign toggle err code = %v, want CodeJobWrongCompany", apperrors.CodeOf(err))
	}

	updated, err := f.jobs.SetJobStatus(context.Background(), "owner-1", "job-1", job.StatusInactive)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != job.StatusInactive {
		t.Fatalf("status = %q, want INACTIVE", updated.Status)
	}

	if err := f.jobs.DeleteJob(context.Background(), "owner-1", "job-1"); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	// Idempotent.
	if err := f.jobs.DeleteJob(context.Background(), "owner-1", "job-1"); err != nil {
		t.Fatalf("re-delete job: %v", err)
	}

	// Deleted postings stay visible to their own company, hidden from others.
	if _, err := f.jobs.GetJob(context.Background(), "owner-1", "job-1"); err != nil {
		t.Fatalf("owner get deleted job: %v", err)
	}
	if _, err := f.jobs.GetJob(context.Background(), "owner-2", "job-1"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("foreign get deleted job err code = %v, want CodeNotFound", apperrors.CodeOf(err))
	}
}

func TestListJobsScopesDeletedToCompany(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("seeker-1", "casey@example.com", identity.RoleJobSeeker)
	f.addCompany("company-1", "owner-1", company.StatusVerified)
	f.addJob("job-1", "company-1", job.StatusActive)
	deleted := f.addJob("job-2", "company-1", job.StatusActive)
	deleted.Deleted = true
	f.store.jobs["job-2"] = deleted

	mine, err := f.jobs.ListJobs(context.Background(), "owner-1", "company-1")
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("owner list len = %d, want 2", len(mine))
	}

	public, err := f.jobs.ListJobs(context.Background(), "seeker-1", "company-1")
	if err != nil {
		t.Fatalf("seeker list: %v", err)
	}
	if len(public) != 1 || public[0].ID != "job-1" {
		t.Fatalf("seeker list = %+v, want only job-1", public)
	}
}
