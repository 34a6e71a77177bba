package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/invitation"
	"github.com/hirewire/hirewire/internal/job"
	"github.com/hirewire/hirewire/internal/membership"
	"github.com/hirewire/hirewire/internal/messaging"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/storage"
)

// fakeStore is an in-memory implementation of every storage interface with
// the same uniqueness and guard semantics as the SQLite store.
type fakeStore struct {
	principals   map[string]identity.Principal
	companies    map[string]company.Company
	invitations  map[string]invitation.Invitation
	memberships  map[string]membership.Membership
	jobs         map[string]job.Posting
	threads      map[string]messaging.Thread
	messages     map[string][]messaging.Message
	outboxEvents []storage.OutboxEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		principals:  make(map[string]identity.Principal),
		companies:   make(map[string]company.Company),
		invitations: make(map[string]invitation.Invitation),
		memberships: make(map[string]membership.Membership),
		jobs:        make(map[string]job.Posting),
		threads:     make(map[string]messaging.Thread),
		messages:    make(map[string][]messaging.Message),
	}
}

func (s *fakeStore) PutPrincipal(_ context.Context, p identity.Principal) error {
	s.principals[p.ID] = p
	return nil
}

func (s *fakeStore) GetPrincipal(_ context.Context, principalID string) (identity.Principal, error) {
	p, ok := s.principals[principalID]
	if !ok {
		return identity.Principal{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) GetPrincipalByEmail(_ context.Context, email string) (identity.Principal, error) {
	for _, p := range s.principals {
		if p.Email == email {
			return p, nil
		}
	}
	return identity.Principal{}, storage.ErrNotFound
}

func (s *fakeStore) DeletePrincipal(_ context.Context, principalID string) error {
	if _, ok := s.principals[principalID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.principals, principalID)
	for id, m := range s.memberships {
		if m.PrincipalID == principalID {
			delete(s.memberships, id)
		}
	}
	return nil
}

func (s *fakeStore) CreateCompany(_ context.Context, c company.Company) error {
	for _, existing := range s.companies {
		if existing.OwnerID == c.OwnerID {
			return apperrors.New(apperrors.CodeCompanyDuplicateOwner, "owner already has a company")
		}
	}
	s.companies[c.ID] = c
	return nil
}

func (s *fakeStore) GetCompany(_ context.Context, companyID string) (company.Company, error) {
	c, ok := s.companies[companyID]
	if !ok {
		return company.Company{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) GetCompanyByOwner(_ context.Context, ownerID string) (company.Company, error) {
	for _, c := range s.companies {
		if c.OwnerID == ownerID {
			return c, nil
		}
	}
	return company.Company{}, storage.ErrNotFound
}

func (s *fakeStore) UpdateCompany(_ context.Context, c company.Company) error {
	if _, ok := s.companies[c.ID]; !ok {
		return storage.ErrNotFound
	}
	s.companies[c.ID] = c
	return nil
}

func (s *fakeStore) ListCompaniesPendingVerification(_ context.Context) ([]company.Company, error) {
	var pending []company.Company
	for _, c := range s.companies {
		if c.Status == company.StatusPendingVerification {
			pending = append(pending, c)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func (s *fakeStore) DecideVerification(_ context.Context, c company.Company, event storage.OutboxEvent) error {
	existing, ok := s.companies[c.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if existing.Status != company.StatusPendingVerification {
		return apperrors.New(apperrors.CodeVerificationDecided, "company verification is already decided")
	}
	s.companies[c.ID] = c
	s.outboxEvents = append(s.outboxEvents, event)
	return nil
}

func (s *fakeStore) CreateInvitation(_ context.Context, inv invitation.Invitation, event storage.OutboxEvent) error {
	for _, existing := range s.invitations {
		if existing.CompanyID == inv.CompanyID && existing.Email == inv.Email && existing.Status == invitation.StatusPending {
			return apperrors.New(apperrors.CodeInvitationDuplicatePending, "a pending invitation already exists")
		}
	}
	s.invitations[inv.ID] = inv
	s.outboxEvents = append(s.outboxEvents, event)
	return nil
}

func (s *fakeStore) GetInvitation(_ context.Context, invitationID string) (invitation.Invitation, error) {
	inv, ok := s.invitations[invitationID]
	if !ok {
		return invitation.Invitation{}, storage.ErrNotFound
	}
	return inv, nil
}

func (s *fakeStore) GetPendingInvitationByEmail(_ context.Context, email string) (invitation.Invitation, error) {
	var newest invitation.Invitation
	found := false
	for _, inv := range s.invitations {
		if inv.Email != email || inv.Status != invitation.StatusPending {
			continue
		}
		if !found || inv.CreatedAt.After(newest.CreatedAt) {
			newest = inv
			found = true
		}
	}
	if !found {
		return invitation.Invitation{}, storage.ErrNotFound
	}
	return newest, nil
}

func (s *fakeStore) ListInvitationsByCompany(_ context.Context, companyID string) ([]invitation.Invitation, error) {
	var list []invitation.Invitation
	for _, inv := range s.invitations {
		if inv.CompanyID == companyID {
			list = append(list, inv)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *fakeStore) AcceptInvitation(_ context.Context, invitationID string, m membership.Membership, acceptedAt time.Time) error {
	inv, ok := s.invitations[invitationID]
	if !ok {
		return storage.ErrNotFound
	}
	if inv.Status != invitation.StatusPending {
		return apperrors.New(apperrors.CodeInvitationInvalidState, "invitation is not pending")
	}
	for _, existing := range s.memberships {
		if existing.PrincipalID == m.PrincipalID {
			return apperrors.New(apperrors.CodeMembershipExists, "principal already belongs to a company")
		}
	}
	inv.Status = invitation.StatusAccepted
	inv.UpdatedAt = acceptedAt
	s.invitations[invitationID] = inv
	s.memberships[m.ID] = m
	return nil
}

func (s *fakeStore) CancelInvitation(_ context.Context, invitationID string, cancelledAt time.Time, event storage.OutboxEvent) error {
	inv, ok := s.invitations[invitationID]
	if !ok {
		return storage.ErrNotFound
	}
	if inv.Status != invitation.StatusPending {
		return apperrors.New(apperrors.CodeInvitationInvalidState, "invitation is not pending")
	}
	inv.Status = invitation.StatusCancelled
	inv.UpdatedAt = cancelledAt
	s.invitations[invitationID] = inv
	s.outboxEvents = append(s.outboxEvents, event)
	return nil
}

func (s *fakeStore) GetMembershipByPrincipal(_ context.Context, principalID string) (membership.Membership, error) {
	for _, m := range s.memberships {
		if m.PrincipalID == principalID {
			return m, nil
		}
	}
	return membership.Membership{}, storage.ErrNotFound
}

func (s *fakeStore) ListMembershipsByCompany(_ context.Context, companyID string) ([]membership.Membership, error) {
	var list []membership.Membership
	for _, m := range s.memberships {
		if m.CompanyID == companyID {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *fakeStore) PutJob(_ context.Context, p job.Posting) error {
	s.jobs[p.ID] = p
	return nil
}

func (s *fakeStore) GetJob(_ context.Context, jobID string) (job.Posting, error) {
	p, ok := s.jobs[jobID]
	if !ok {
		return job.Posting{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) ListJobsByCompany(_ context.Context, companyID string, includeDeleted bool) ([]job.Posting, error) {
	var list []job.Posting
	for _, p := range s.jobs {
		if p.CompanyID != companyID {
			continue
		}
		if p.Deleted && !includeDeleted {
			continue
		}
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *fakeStore) CreateThread(_ context.Context, t messaging.Thread) (messaging.Thread, error) {
	for _, existing := range s.threads {
		if existing.PairKey == t.PairKey {
			return existing, nil
		}
	}
	s.threads[t.ID] = t
	return t, nil
}

func (s *fakeStore) GetThread(_ context.Context, threadID string) (messaging.Thread, error) {
	t, ok := s.threads[threadID]
	if !ok {
		return messaging.Thread{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) GetThreadByPairKey(_ context.Context, pairKey string) (messaging.Thread, error) {
	for _, t := range s.threads {
		if t.PairKey == pairKey {
			return t, nil
		}
	}
	return messaging.Thread{}, storage.ErrNotFound
}

func (s *fakeStore) ListThreadsForPrincipal(_ context.Context, principalID string) ([]storage.ThreadSummary, error) {
	var summaries []storage.ThreadSummary
	for _, t := range s.threads {
		if !t.Involves(principalID) {
			continue
		}
		unread := 0
		for _, m := range s.messages[t.ID] {
			if m.SenderID != principalID && !m.Read {
				unread++
			}
		}
		summaries = append(summaries, storage.ThreadSummary{Thread: t, Unread: unread})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Thread.LastActivityAt.After(summaries[j].Thread.LastActivityAt)
	})
	return summaries, nil
}

func (s *fakeStore) AppendMessage(_ context.Context, m messaging.Message, event storage.OutboxEvent) (messaging.Message, error) {
	t, ok := s.threads[m.ThreadID]
	if !ok {
		return messaging.Message{}, storage.ErrNotFound
	}
	m.Seq = int64(len(s.messages[m.ThreadID]) + 1)
	s.messages[m.ThreadID] = append(s.messages[m.ThreadID], m)
	t.LastActivityAt = m.CreatedAt
	if t.AttributedJobID == "" && m.JobID != "" {
		t.AttributedJobID = m.JobID
	}
	s.threads[t.ID] = t
	s.outboxEvents = append(s.outboxEvents, event)
	return m, nil
}

func (s *fakeStore) ListMessages(_ context.Context, threadID string) ([]messaging.Message, error) {
	list := make([]messaging.Message, len(s.messages[threadID]))
	copy(list, s.messages[threadID])
	return list, nil
}

func (s *fakeStore) MarkThreadRead(_ context.Context, threadID string, readerID string) error {
	list := s.messages[threadID]
	for i := range list {
		if list[i].SenderID != readerID {
			list[i].Read = true
		}
	}
	return nil
}

func (s *fakeStore) CountOutreachForJob(_ context.Context, jobID string) (int, error) {
	count := 0
	for _, t := range s.threads {
		if t.AttributedJobID == jobID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) SummarizeOutreachForCompany(_ context.Context, companyID string) (storage.OutreachSummary, error) {
	summary := storage.OutreachSummary{CompanyID: companyID}
	var jobIDs []string
	for id, p := range s.jobs {
		if p.CompanyID == companyID {
			jobIDs = append(jobIDs, id)
		}
	}
	sort.Strings(jobIDs)
	candidates := make(map[string]struct{})
	for _, jobID := range jobIDs {
		count := 0
		for _, t := range s.threads {
			if t.AttributedJobID != jobID {
				continue
			}
			count++
			candidates[t.ParticipantB] = struct{}{}
		}
		summary.Jobs = append(summary.Jobs, storage.JobOutreachCount{
			JobID:   jobID,
			Title:   s.jobs[jobID].Title,
			Threads: count,
		})
		summary.AttributedThreads += count
	}
	summary.DistinctCandidates = len(candidates)
	return summary, nil
}

func (s *fakeStore) RecountOutreachAttribution(_ context.Context) (int, error) {
	changed := 0
	for id, t := range s.threads {
		derived := ""
		for _, m := range s.messages[id] {
			if m.JobID != "" {
				derived = m.JobID
				break
			}
		}
		if t.AttributedJobID != derived {
			t.AttributedJobID = derived
			s.threads[id] = t
			changed++
		}
	}
	return changed, nil
}

func (s *fakeStore) EnqueueOutboxEvent(_ context.Context, event storage.OutboxEvent) error {
	s.outboxEvents = append(s.outboxEvents, event)
	return nil
}

func (s *fakeStore) ListDueOutboxEvents(_ context.Context, now time.Time, limit int) ([]storage.OutboxEvent, error) {
	var due []storage.OutboxEvent
	for _, event := range s.outboxEvents {
		if event.Status == storage.OutboxStatusPending && !event.NextAttemptAt.After(now) {
			due = append(due, event)
		}
		if limit > 0 && len(due) == limit {
			break
		}
	}
	return due, nil
}

func (s *fakeStore) MarkOutboxDispatched(_ context.Context, eventID string, processedAt time.Time) error {
	for i := range s.outboxEvents {
		if s.outboxEvents[i].ID == eventID {
			s.outboxEvents[i].Status = storage.OutboxStatusDispatched
			s.outboxEvents[i].ProcessedAt = &processedAt
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeStore) MarkOutboxRetry(_ context.Context, eventID string, attemptedAt time.Time, nextAttemptAt time.Time, maxAttempts int, lastError string) error {
	for i := range s.outboxEvents {
		if s.outboxEvents[i].ID != eventID {
			continue
		}
		s.outboxEvents[i].AttemptCount++
		s.outboxEvents[i].NextAttemptAt = nextAttemptAt
		s.outboxEvents[i].LastError = lastError
		if s.outboxEvents[i].AttemptCount >= maxAttempts {
			s.outboxEvents[i].Status = storage.OutboxStatusFailed
		}
		return nil
	}
	return storage.ErrNotFound
}

var _ storage.PrincipalStore = (*fakeStore)(nil)
var _ storage.CompanyStore = (*fakeStore)(nil)
var _ storage.InvitationStore = (*fakeStore)(nil)
var _ storage.MembershipStore = (*fakeStore)(nil)
var _ storage.VerificationStore = (*fakeStore)(nil)
var _ storage.JobStore = (*fakeStore)(nil)
var _ storage.ThreadStore = (*fakeStore)(nil)
var _ storage.MessageStore = (*fakeStore)(nil)
var _ storage.OutreachStore = (*fakeStore)(nil)
var _ storage.OutboxStore = (*fakeStore)(nil)

// fixture wires every service over one shared fake store with a fixed clock
// and deterministic ids.
type fixture struct {
	store        *fakeStore
	now          time.Time
	identity     *IdentityService
	directory    *DirectoryService
	invitations  *InvitationService
	verification *VerificationService
	jobs         *JobService
	messaging    *MessagingService
	outreach     *OutreachService
}

func newFixture() *fixture {
	store := newFakeStore()
	now := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	nextID := 0
	idGen := func() (string, error) {
		nextID++
		return fmt.Sprintf("id-%04d", nextID), nil
	}

	identitySvc := NewIdentityService(store, store, store)
	identitySvc.clock = clock
	identitySvc.idGenerator = idGen

	directory := NewDirectoryService(store, store)
	directory.clock = clock
	directory.idGenerator = idGen

	invitations := NewInvitationService(store, store, store, store)
	invitations.clock = clock
	invitations.idGenerator = idGen

	verification := NewVerificationService(store, store, store)
	verification.clock = clock

	jobs := NewJobService(store, identitySvc, store)
	jobs.clock = clock
	jobs.idGenerator = idGen

	messagingSvc := NewMessagingService(store, store, store, store, store, identitySvc)
	messagingSvc.clock = clock
	messagingSvc.idGenerator = idGen

	outreach := NewOutreachService(store, store, store, identitySvc)

	return &fixture{
		store:        store,
		now:          now,
		identity:     identitySvc,
		directory:    directory,
		invitations:  invitations,
		verification: verification,
		jobs:         jobs,
		messaging:    messagingSvc,
		outreach:     outreach,
	}
}

func (f *fixture) addPrincipal(id, email string, role identity.Role) identity.Principal {
	p := identity.Principal{ID: id, Email: email, Role: role, CreatedAt: f.now, UpdatedAt: f.now}
	f.store.principals[id] = p
	return p
}

func (f *fixture) addCompany(id, ownerID string, status company.VerificationStatus) company.Company {
	c := company.Company{ID: id, Name: "Co " + id, Status: status, OwnerID: ownerID, CreatedAt: f.now, UpdatedAt: f.now}
	f.store.companies[id] = c
	return c
}

func (f *fixture) addJob(id, companyID string, status job.Status) job.Posting {
	p := job.Posting{ID: id, CompanyID: companyID, CreatorID: "creator", Title: "Job " + id, Status: status, CreatedAt: f.now, UpdatedAt: f.now}
	f.store.jobs[id] = p
	return p
}
