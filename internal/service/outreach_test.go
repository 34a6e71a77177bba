package service

import (
	"context"
	"testing"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/job"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
)

func TestCountForJobScopedToCompany(t *testing.T) {
	f := seedMessagingFixture(t)
	f.addPrincipal("owner-2", "boss@example.com", identity.RoleEmployer)
	f.addPrincipal("admin-1", "admin@example.com", identity.RoleAdmin)
	f.addCompany("company-2", "owner-2", company.StatusVerified)

	for _, seeker := range []string{"seeker-1", "seeker-2"} {
		if _, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
			RecipientID: seeker,
			Body:        "We liked your profile.",
			JobID:       "job-1",
		}); err != nil {
			t.Fatalf("outreach to %s: %v", seeker, err)
		}
	}

	count, err := f.outreach.CountForJob(context.Background(), "owner-1", "job-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	if _, err := f.outreach.CountForJob(context.Background(), "owner-2", "job-1"); apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("foreign count err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}

	// Admins may audit any job.
	if _, err := f.outreach.CountForJob(context.Background(), "admin-1", "job-1"); err != nil {
		t.Fatalf("admin count: %v", err)
	}
}

func TestCountSurvivesJobDeletion(t *testing.T) {
	f := seedMessagingFixture(t)

	if _, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "We liked your profile.",
		JobID:       "job-1",
	}); err != nil {
		t.Fatalf("outreach: %v", err)
	}
	if err := f.jobs.DeleteJob(context.Background(), "owner-1", "job-1"); err != nil {
		t.Fatalf("delete job: %v", err)
	}

	count, err := f.outreach.CountForJob(context.Background(), "owner-1", "job-1")
	if err != nil {
		t.Fatalf("count after delete: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after delete = %d, want 1", count)
	}
}

func TestSummaryForCompanyExcludesUnattributed(t *testing.T) {
	f := seedMessagingFixture(t)
	f.addJob("job-2", "company-1", job.StatusActive)

	// Two attributed threads on job-1, one candidate-initiated thread with no
	// attribution.
	for _, seeker := range []string{"seeker-1", "seeker-2"} {
		if _, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
			RecipientID: seeker,
			Body:        "We liked your profile.",
			JobID:       "job-1",
		}); err != nil {
			t.Fatalf("outreach to %s: %v", seeker, err)
		}
	}
	f.addPrincipal("seeker-3", "sam@example.com", identity.RoleJobSeeker)
	if _, err := f.messaging.SendMessage(context.Background(), "seeker-3", SendMessageInput{
		RecipientID: "owner-1",
		Body:        "Any openings?",
	}); err != nil {
		t.Fatalf("candidate thread: %v", err)
	}

	summary, err := f.outreach.SummaryForCompany(context.Background(), "owner-1", "company-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.AttributedThreads != 2 {
		t.Fatalf("attributed threads = %d, want 2", summary.AttributedThreads)
	}
	if summary.DistinctCandidates != 2 {
		t.Fatalf("distinct candidates = %d, want 2", summary.DistinctCandidates)
	}
	if len(summary.Jobs) != 2 {
		t.Fatalf("job counts len = %d, want 2", len(summary.Jobs))
	}

	_, err = f.outreach.SummaryForCompany(context.Background(), "seeker-1", "company-1")
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("candidate summary err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}
}

func TestRecountAttributionRepairsDriftedThreads(t *testing.T) {
	f := seedMessagingFixture(t)

	if _, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "We liked your profile.",
		JobID:       "job-1",
	}); err != nil {
		t.Fatalf("outreach: %v", err)
	}

	// Corrupt the stored attribution behind the service's back.
	for id, thread := range f.store.threads {
		thread.AttributedJobID = "job-bogus"
		f.store.threads[id] = thread
	}

	f.addPrincipal("admin-1", "admin@example.com", identity.RoleAdmin)
	changed, err := f.outreach.RecountAttribution(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
	for _, thread := range f.store.threads {
		if thread.AttributedJobID != "job-1" {
			t.Fatalf("attribution = %q, want job-1", thread.AttributedJobID)
		}
	}

	// Consistent data recounts to zero changes, and non-admins may not ask.
	if changed, err := f.outreach.RecountAttribution(context.Background(), "admin-1"); err != nil || changed != 0 {
		t.Fatalf("second recount = (%d, %v), want (0, nil)", changed, err)
	}
	if _, err := f.outreach.RecountAttribution(context.Background(), "owner-1"); apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("owner recount err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}
}
