package service

import (
	"context"
	"testing"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/job"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/storage"
)

func seedMessagingFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("seeker-1", "casey@example.com", identity.RoleJobSeeker)
	f.addPrincipal("seeker-2", "jo@example.com", identity.RoleJobSeeker)
	f.addCompany("company-1", "owner-1", company.StatusVerified)
	f.addJob("job-1", "company-1", job.StatusActive)
	return f
}

func TestGetOrCreateThreadDedupes(t *testing.T) {
	f := seedMessagingFixture(t)

	first, err := f.messaging.GetOrCreateThread(context.Background(), "owner-1", "seeker-1")
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	// Same pair from the other side resolves to the same thread.
	second, err := f.messaging.GetOrCreateThread(context.Background(), "seeker-1", "owner-1")
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("thread ids differ: %q vs %q", first.ID, second.ID)
	}
}

func TestGetOrCreateThreadRejectsSelfAndUnknown(t *testing.T) {
	f := seedMessagingFixture(t)

	_, err := f.messaging.GetOrCreateThread(context.Background(), "owner-1", "owner-1")
	if apperrors.CodeOf(err) != apperrors.CodeThreadSameParticipant {
		t.Fatalf("self thread err code = %v, want CodeThreadSameParticipant", apperrors.CodeOf(err))
	}

	_, err = f.messaging.GetOrCreateThread(context.Background(), "owner-1", "ghost")
	if apperrors.CodeOf(err) != apperrors.CodeProfileNotFound {
		t.Fatalf("unknown recipient err code = %v, want CodeProfileNotFound", apperrors.CodeOf(err))
	}
}

func TestCompanyOutreachRequiresVerificationAndJob(t *testing.T) {
	f := seedMessagingFixture(t)
	f.addPrincipal("owner-2", "boss@example.com", identity.RoleEmployer)
	f.addCompany("company-2", "owner-2", company.StatusPendingVerification)

	// Unverified company cannot open a conversation.
	_, err := f.messaging.SendMessage(context.Background(), "owner-2", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello",
		JobID:       "job-1",
	})
	if apperrors.CodeOf(err) != apperrors.CodeCompanyNotVerified {
		t.Fatalf("unverified outreach err code = %v, want CodeCompanyNotVerified", apperrors.CodeOf(err))
	}

	// Verified company without a job reference is rejected too.
	_, err = f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello",
	})
	if apperrors.CodeOf(err) != apperrors.CodeJobRequired {
		t.Fatalf("jobless outreach err code = %v, want CodeJobRequired", apperrors.CodeOf(err))
	}

	// Verified with an attributable job passes.
	m, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "We liked your profile.",
		JobID:       "job-1",
	})
	if err != nil {
		t.Fatalf("outreach: %v", err)
	}
	if m.Seq != 1 {
		t.Fatalf("seq = %d, want 1", m.Seq)
	}
}

func TestForbiddenOutreachLeavesNoThread(t *testing.T) {
	f := seedMessagingFixture(t)
	f.addPrincipal("owner-2", "boss@example.com", identity.RoleEmployer)
	f.addCompany("company-2", "owner-2", company.StatusPendingVerification)

	// Unverified company: the send fails before any thread is persisted.
	_, err := f.messaging.SendMessage(context.Background(), "owner-2", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello",
		JobID:       "job-1",
	})
	if apperrors.CodeOf(err) != apperrors.CodeCompanyNotVerified {
		t.Fatalf("unverified outreach err code = %v, want CodeCompanyNotVerified", apperrors.CodeOf(err))
	}

	// The bare thread-open path is gated the same way.
	_, err = f.messaging.GetOrCreateThread(context.Background(), "owner-2", "seeker-1")
	if apperrors.CodeOf(err) != apperrors.CodeCompanyNotVerified {
		t.Fatalf("unverified thread open err code = %v, want CodeCompanyNotVerified", apperrors.CodeOf(err))
	}

	// Verified company without a job reference is rejected before the thread
	// exists too.
	_, err = f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello",
	})
	if apperrors.CodeOf(err) != apperrors.CodeJobRequired {
		t.Fatalf("jobless outreach err code = %v, want CodeJobRequired", apperrors.CodeOf(err))
	}

	summaries, err := f.messaging.ListThreads(context.Background(), "seeker-1")
	if err != nil {
		t.Fatalf("list threads: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("candidate sees %d threads after rejected attempts, want 0", len(summaries))
	}
}

func TestOutreachRejectsForeignInactiveOrDeletedJobs(t *testing.T) {
	f := seedMessagingFixture(t)
	f.addPrincipal("owner-2", "boss@example.com", identity.RoleEmployer)
	f.addCompany("company-2", "owner-2", company.StatusVerified)
	f.addJob("job-inactive", "company-1", job.StatusInactive)
	deleted := f.addJob("job-deleted", "company-1", job.StatusActive)
	deleted.Deleted = true
	f.store.jobs["job-deleted"] = deleted

	// Another company's job.
	_, err := f.messaging.SendMessage(context.Background(), "owner-2", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello",
		JobID:       "job-1",
	})
	if apperrors.CodeOf(err) != apperrors.CodeJobWrongCompany {
		t.Fatalf("foreign job err code = %v, want CodeJobWrongCompany", apperrors.CodeOf(err))
	}

	// Inactive job.
	_, err = f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello",
		JobID:       "job-inactive",
	})
	if apperrors.CodeOf(err) != apperrors.CodeJobInactive {
		t.Fatalf("inactive job err code = %v, want CodeJobInactive", apperrors.CodeOf(err))
	}

	// Deleted job.
	_, err = f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello",
		JobID:       "job-deleted",
	})
	if apperrors.CodeOf(err) != apperrors.CodeJobInactive {
		t.Fatalf("deleted job err code = %v, want CodeJobInactive", apperrors.CodeOf(err))
	}
}

func TestCandidateMessagesAreNeverGated(t *testing.T) {
	f := seedMessagingFixture(t)

	// A candidate can open a conversation with an unverified company's owner,
	// with or without a job reference.
	f.addPrincipal("owner-2", "boss@example.com", identity.RoleEmployer)
	f.addCompany("company-2", "owner-2", company.StatusPendingVerification)

	m, err := f.messaging.SendMessage(context.Background(), "seeker-1", SendMessageInput{
		RecipientID: "owner-2",
		Body:        "I'd love to hear about openings.",
	})
	if err != nil {
		t.Fatalf("candidate first message: %v", err)
	}
	if m.Seq != 1 {
		t.Fatalf("seq = %d, want 1", m.Seq)
	}

	// Candidate-initiated application referencing a live job.
	if _, err := f.messaging.SendMessage(context.Background(), "seeker-2", SendMessageInput{
		RecipientID: "owner-1",
		Body:        "Applying for the backend role.",
		JobID:       "job-1",
	}); err != nil {
		t.Fatalf("candidate application: %v", err)
	}
}

func TestRepliesAreNotGatedAfterInitiation(t *testing.T) {
	f := seedMessagingFixture(t)

	first, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "We liked your profile.",
		JobID:       "job-1",
	})
	if err != nil {
		t.Fatalf("outreach: %v", err)
	}

	// Candidate reply, no job needed.
	if _, err := f.messaging.SendMessage(context.Background(), "seeker-1", SendMessageInput{
		ThreadID: first.ThreadID,
		Body:     "Tell me more.",
	}); err != nil {
		t.Fatalf("candidate reply: %v", err)
	}

	// Company follow-up in the existing thread needs no job either.
	if _, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		ThreadID: first.ThreadID,
		Body:     "It pays well.",
	}); err != nil {
		t.Fatalf("company follow-up: %v", err)
	}

	// Attribution stayed with the first job reference.
	thread, err := f.store.GetThread(context.Background(), first.ThreadID)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if thread.AttributedJobID != "job-1" {
		t.Fatalf("attributed job = %q, want job-1", thread.AttributedJobID)
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	f := seedMessagingFixture(t)

	first, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello.",
		JobID:       "job-1",
	})
	if err != nil {
		t.Fatalf("outreach: %v", err)
	}

	_, err = f.messaging.SendMessage(context.Background(), "seeker-2", SendMessageInput{
		ThreadID: first.ThreadID,
		Body:     "Let me in.",
	})
	if apperrors.CodeOf(err) != apperrors.CodeThreadNotParticipant {
		t.Fatalf("outsider send err code = %v, want CodeThreadNotParticipant", apperrors.CodeOf(err))
	}

	if _, err := f.messaging.ListMessages(context.Background(), "seeker-2", first.ThreadID); apperrors.CodeOf(err) != apperrors.CodeThreadNotParticipant {
		t.Fatalf("outsider list err code = %v, want CodeThreadNotParticipant", apperrors.CodeOf(err))
	}
}

func TestListThreadsAndMarkRead(t *testing.T) {
	f := seedMessagingFixture(t)

	first, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello.",
		JobID:       "job-1",
	})
	if err != nil {
		t.Fatalf("outreach: %v", err)
	}

	summaries, err := f.messaging.ListThreads(context.Background(), "seeker-1")
	if err != nil {
		t.Fatalf("list threads: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Unread != 1 {
		t.Fatalf("summaries = %+v, want one thread with 1 unread", summaries)
	}

	if err := f.messaging.MarkThreadRead(context.Background(), "seeker-1", first.ThreadID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	summaries, err = f.messaging.ListThreads(context.Background(), "seeker-1")
	if err != nil {
		t.Fatalf("list threads after read: %v", err)
	}
	if summaries[0].Unread != 0 {
		t.Fatalf("unread after read = %d, want 0", summaries[0].Unread)
	}
}

func TestSendMessageEmitsOutreachAndMessageEvents(t *testing.T) {
	f := seedMessagingFixture(t)

	m, err := f.messaging.SendMessage(context.Background(), "owner-1", SendMessageInput{
		RecipientID: "seeker-1",
		Body:        "Hello.",
		JobID:       "job-1",
	})
	if err != nil {
		t.Fatalf("outreach: %v", err)
	}
	reply, err := f.messaging.SendMessage(context.Background(), "seeker-1", SendMessageInput{
		ThreadID: m.ThreadID,
		Body:     "Tell me more.",
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}

	types := map[string]string{}
	for _, event := range f.store.outboxEvents {
		types[event.DedupeKey] = event.EventType
	}
	// The opening company message is outreach; the candidate reply is a
	// plain message.
	if got := types[storage.OutboxEventOutreachReceived+":"+m.ID]; got != storage.OutboxEventOutreachReceived {
		t.Fatalf("no outreach.received event for message %s in %+v", m.ID, f.store.outboxEvents)
	}
	if got := types[storage.OutboxEventMessageReceived+":"+reply.ID]; got != storage.OutboxEventMessageReceived {
		t.Fatalf("no message.received event for reply %s in %+v", reply.ID, f.store.outboxEvents)
	}
}
