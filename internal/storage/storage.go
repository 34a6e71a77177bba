// Package storage defines the persistence interfaces for the marketplace
// core. Implementations must provide unique-key enforcement for the dedup
// invariants and atomic single-operation updates.
package storage

import (
	"context"
	"time"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/invitation"
	"github.com/hirewire/hirewire/internal/job"
	"github.com/hirewire/hirewire/internal/membership"
	"github.com/hirewire/hirewire/internal/messaging"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// PrincipalStore persists principal records.
type PrincipalStore interface {
	PutPrincipal(ctx context.Context, p identity.Principal) error
	GetPrincipal(ctx context.Context, principalID string) (identity.Principal, error)
	GetPrincipalByEmail(ctx context.Context, email string) (identity.Principal, error)
	// DeletePrincipal removes the profile and cascades membership removal.
	// Threads and messages are retained for audit.
	DeletePrincipal(ctx context.Context, principalID string) error
}

// CompanyStore persists company records. CreateCompany must fail with a
// duplicate-owner error when the owner already owns a company.
type CompanyStore interface {
	CreateCompany(ctx context.Context, c company.Company) error
	GetCompany(ctx context.Context, companyID string) (company.Company, error)
	GetCompanyByOwner(ctx context.Context, ownerID string) (company.Company, error)
	UpdateCompany(ctx context.Context, c company.Company) error
	ListCompaniesPendingVerification(ctx context.Context) ([]company.Company, error)
}

// InvitationStore persists recruiter invitations. CreateInvitation must fail
// with a duplicate-pending error when a PENDING invitation already exists for
// the same (company, email) pair.
type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv invitation.Invitation, event OutboxEvent) error
	GetInvitation(ctx context.Context, invitationID string) (invitation.Invitation, error)
	// GetPendingInvitationByEmail returns the most recently created PENDING
	// invitation for the email, or ErrNotFound.
	GetPendingInvitationByEmail(ctx context.Context, email string) (invitation.Invitation, error)
	ListInvitationsByCompany(ctx context.Context, companyID string) ([]invitation.Invitation, error)
	// AcceptInvitation atomically marks the invitation ACCEPTED and inserts
	// the membership binding. The status update is guarded on PENDING so
	// concurrent accepts cannot both succeed; the loser observes an
	// invalid-state error.
	AcceptInvitation(ctx context.Context, invitationID string, m membership.Membership, acceptedAt time.Time) error
	// CancelInvitation atomically marks the invitation CANCELLED, guarded on
	// PENDING, and enqueues the notification event.
	CancelInvitation(ctx context.Context, invitationID string, cancelledAt time.Time, event OutboxEvent) error
}

// MembershipStore reads recruiter-company bindings.
type MembershipStore interface {
	GetMembershipByPrincipal(ctx context.Context, principalID string) (membership.Membership, error)
	ListMembershipsByCompany(ctx context.Context, companyID string) ([]membership.Membership, error)
}

// VerificationStore persists verification decisions.
type VerificationStore interface {
	// DecideVerification persists a terminal verification transition and its
	// notification event atomically. The update is guarded on
	// PENDING_VERIFICATION; re-decisions observe an invalid-state error.
	DecideVerification(ctx context.Context, c company.Company, event OutboxEvent) error
}

// JobStore persists job postings.
type JobStore interface {
	PutJob(ctx context.Context, p job.Posting) error
	GetJob(ctx context.Context, jobID string) (job.Posting, error)
	ListJobsByCompany(ctx context.Context, companyID string, includeDeleted bool) ([]job.Posting, error)
}

// ThreadSummary pairs a thread with the viewing principal's unread count.
type ThreadSummary struct {
	Thread messaging.Thread
	Unread int
}

// ThreadStore persists conversation threads.
type ThreadStore interface {
	// CreateThread inserts the thread unless one already exists for its pair
	// key; either way it returns the surviving thread, so concurrent
	// duplicate creation collapses onto the first writer.
	CreateThread(ctx context.Context, t messaging.Thread) (messaging.Thread, error)
	GetThread(ctx context.Context, threadID string) (messaging.Thread, error)
	GetThreadByPairKey(ctx context.Context, pairKey string) (messaging.Thread, error)
	// ListThreadsForPrincipal returns the principal's threads ordered by
	// last activity descending, with unread counts.
	ListThreadsForPrincipal(ctx context.Context, principalID string) ([]ThreadSummary, error)
}

// MessageStore persists messages within threads.
type MessageStore interface {
	// AppendMessage assigns the next per-thread sequence number, bumps the
	// thread's last-activity timestamp, sets the thread's attributed job if
	// the thread has none and the message carries one, and enqueues the
	// notification event, all in one transaction. Returns the stored
	// message including its sequence number.
	AppendMessage(ctx context.Context, m messaging.Message, event OutboxEvent) (messaging.Message, error)
	ListMessages(ctx context.Context, threadID string) ([]messaging.Message, error)
	// MarkThreadRead flips the read flag on messages in the thread that were
	// sent by the other participant. Idempotent.
	MarkThreadRead(ctx context.Context, threadID string, readerID string) error
}

// JobOutreachCount is the number of distinct attributed threads for one job.
type JobOutreachCount struct {
	JobID   string
	Title   string
	Threads int
}

// OutreachSummary aggregates a company's outreach across jobs.
type OutreachSummary struct {
	CompanyID          string
	AttributedThreads  int
	DistinctCandidates int
	Jobs               []JobOutreachCount
}

// OutreachStore derives outreach counts from thread attribution. Counts are
// recomputed from stored state on every call; there is no counter to drift.
type OutreachStore interface {
	CountOutreachForJob(ctx context.Context, jobID string) (int, error)
	SummarizeOutreachForCompany(ctx context.Context, companyID string) (OutreachSummary, error)
	// RecountOutreachAttribution re-derives every thread's attributed job
	// from its message log, first job-bearing message winning, and returns
	// the number of threads whose attribution changed. A no-op on
	// consistent data.
	RecountOutreachAttribution(ctx context.Context) (int, error)
}
