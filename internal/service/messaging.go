package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"

	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/job"
	"github.com/hirewire/hirewire/internal/messaging"
	"github.com/hirewire/hirewire/internal/storage"
)

// MessagingService manages threads and messages, enforcing the outreach gate
// at the exact point a company representative opens a conversation.
type MessagingService struct {
	principals  storage.PrincipalStore
	companies   storage.CompanyStore
	jobs        storage.JobStore
	threads     storage.ThreadStore
	messages    storage.MessageStore
	identity    *IdentityService
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewMessagingService builds a messaging service with production defaults.
func NewMessagingService(principals storage.PrincipalStore, companies storage.CompanyStore, jobs storage.JobStore, threads storage.ThreadStore, messages storage.MessageStore, identitySvc *IdentityService) *MessagingService {
	return &MessagingService{
		principals:  principals,
		companies:   companies,
		jobs:        jobs,
		threads:     threads,
		messages:    messages,
		identity:    identitySvc,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// SendMessageInput describes a message send. Exactly one of ThreadID or
// RecipientID must identify the conversation: an existing thread, or the
// other principal when the thread may not exist yet.
type SendMessageInput struct {
	ThreadID    string
	RecipientID string
	Body        string
	JobID       string
}

// GetOrCreateThread returns the unique thread between the actor and the
// other principal, creating it when absent. Concurrent creators converge on
// the same thread. Opening a thread that does not exist yet counts as
// outreach initiation for a company representative, so the company must be
// cleared for outreach before anything is written.
func (s *MessagingService) GetOrCreateThread(ctx context.Context, actorID, otherID string) (messaging.Thread, error) {
	profile, err := s.identity.ResolveProfile(ctx, actorID)
	if err != nil {
		return messaging.Thread{}, err
	}

	thread, found, err := s.lookupThread(ctx, actorID, otherID)
	if err != nil {
		return messaging.Thread{}, err
	}
	if found {
		return thread, nil
	}

	if profile.CompanyID != "" {
		if err := s.requireOutreachEligible(ctx, profile.CompanyID); err != nil {
			return messaging.Thread{}, err
		}
	}
	return s.createThread(ctx, actorID, otherID)
}

// SendMessage appends a message to the conversation.
//
// When the sender represents a company and the thread holds no messages yet,
// the send is outreach initiation and must pass the gate: the company must
// be VERIFIED and the message must reference an attributable job posting.
// Candidate messages are never gated, including the job-bearing first
// message of a candidate-initiated application.
func (s *MessagingService) SendMessage(ctx context.Context, actorID string, input SendMessageInput) (messaging.Message, error) {
	profile, err := s.identity.ResolveProfile(ctx, actorID)
	if err != nil {
		return messaging.Message{}, err
	}

	var thread messaging.Thread
	found := true
	switch {
	case input.ThreadID != "":
		thread, err = s.threads.GetThread(ctx, input.ThreadID)
	case input.RecipientID == "":
		return messaging.Message{}, apperrors.New(apperrors.CodeNotFound, "thread or recipient is required")
	default:
		thread, found, err = s.lookupThread(ctx, actorID, input.RecipientID)
	}
	if err != nil {
		return messaging.Message{}, err
	}
	if found && !thread.Involves(actorID) {
		return messaging.Message{}, apperrors.New(apperrors.CodeThreadNotParticipant, "sender is not a thread participant")
	}
	if strings.TrimSpace(input.Body) == "" {
		return messaging.Message{}, apperrors.New(apperrors.CodeMessageEmptyBody, "message body is required")
	}

	// Gate before any write: a rejected outreach attempt must not leave an
	// empty thread visible to the candidate.
	initiating, err := s.isInitiating(ctx, profile, thread, found)
	if err != nil {
		return messaging.Message{}, err
	}
	if err := s.checkOutreachGate(ctx, profile, initiating, input.JobID); err != nil {
		return messaging.Message{}, err
	}

	if !found {
		thread, err = s.createThread(ctx, actorID, input.RecipientID)
		if err != nil {
			return messaging.Message{}, err
		}
	}

	m, err := messaging.CreateMessage(messaging.CreateMessageInput{
		ThreadID: thread.ID,
		SenderID: actorID,
		Body:     input.Body,
		JobID:    input.JobID,
	}, s.clock, s.idGenerator)
	if err != nil {
		return messaging.Message{}, err
	}

	eventType := storage.OutboxEventMessageReceived
	if initiating {
		eventType = storage.OutboxEventOutreachReceived
	}
	recipient := thread.OtherParticipant(actorID)
	event := outboxEvent(
		eventType,
		eventType+":"+m.ID,
		map[string]string{
			"threadId":    thread.ID,
			"messageId":   m.ID,
			"senderId":    actorID,
			"recipientId": recipient,
			"jobId":       m.JobID,
		},
		m.CreatedAt,
	)
	return s.messages.AppendMessage(ctx, m, event)
}

// lookupThread finds the existing thread between the actor and the other
// principal, validating the recipient and the pair. The second return is
// false when no thread exists yet.
func (s *MessagingService) lookupThread(ctx context.Context, actorID, otherID string) (messaging.Thread, bool, error) {
	if _, err := s.principals.GetPrincipal(ctx, otherID); err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return messaging.Thread{}, false, apperrors.New(apperrors.CodeProfileNotFound, "recipient principal not found")
		}
		return messaging.Thread{}, false, fmt.Errorf("load recipient: %w", err)
	}

	key, err := messaging.PairKey(actorID, otherID)
	if err != nil {
		return messaging.Thread{}, false, err
	}
	existing, err := s.threads.GetThreadByPairKey(ctx, key)
	if err == nil {
		return existing, true, nil
	}
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		return messaging.Thread{}, false, fmt.Errorf("look up thread: %w", err)
	}
	return messaging.Thread{}, false, nil
}

func (s *MessagingService) createThread(ctx context.Context, actorID, otherID string) (messaging.Thread, error) {
	t, err := messaging.CreateThread(actorID, otherID, s.clock, s.idGenerator)
	if err != nil {
		return messaging.Thread{}, err
	}
	return s.threads.CreateThread(ctx, t)
}

// isInitiating reports whether a send by this profile would be the opening
// company message of the conversation.
func (s *MessagingService) isInitiating(ctx context.Context, profile identity.Profile, thread messaging.Thread, found bool) (bool, error) {
	if profile.CompanyID == "" {
		return false, nil
	}
	if !found {
		return true, nil
	}
	existing, err := s.messages.ListMessages(ctx, thread.ID)
	if err != nil {
		return false, fmt.Errorf("inspect thread history: %w", err)
	}
	return len(existing) == 0, nil
}

// checkOutreachGate enforces the verification and job-reference requirements
// on company-initiated outreach, and validates any job reference the message
// carries.
func (s *MessagingService) checkOutreachGate(ctx context.Context, profile identity.Profile, initiating bool, jobID string) error {
	if initiating {
		if err := s.requireOutreachEligible(ctx, profile.CompanyID); err != nil {
			return err
		}
		if jobID == "" {
			return apperrors.New(apperrors.CodeJobRequired, "outreach must reference a job posting")
		}
	}

	if jobID == "" {
		return nil
	}
	posting, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if profile.CompanyID != "" {
		return posting.Attributable(profile.CompanyID)
	}
	// Candidates may reference any live posting when applying.
	if posting.Deleted || posting.Status != job.StatusActive {
		return apperrors.WithMetadata(
			apperrors.CodeJobInactive,
			"job posting is not active",
			map[string]string{"JobID": posting.ID},
		)
	}
	return nil
}

func (s *MessagingService) requireOutreachEligible(ctx context.Context, companyID string) error {
	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load sender company: %w", err)
	}
	if !c.CanInitiateOutreach() {
		return apperrors.WithMetadata(
			apperrors.CodeCompanyNotVerified,
			"company is not verified for outreach",
			map[string]string{"CompanyID": c.ID, "Status": string(c.Status)},
		)
	}
	return nil
}

// ListThreads returns the actor's conversations, most recently active first,
// with unread counts.
func (s *MessagingService) ListThreads(ctx context.Context, actorID string) ([]storage.ThreadSummary, error) {
	if _, err := requirePrincipal(ctx, s.principals, actorID); err != nil {
		return nil, err
	}
	return s.threads.ListThreadsForPrincipal(ctx, actorID)
}

// ListMessages returns a thread's messages in append order. Participants
// only.
func (s *MessagingService) ListMessages(ctx context.Context, actorID, threadID string) ([]messaging.Message, error) {
	thread, err := s.requireParticipant(ctx, actorID, threadID)
	if err != nil {
		return nil, err
	}
	return s.messages.ListMessages(ctx, thread.ID)
}

// MarkThreadRead marks the other participant's messages as read.
func (s *MessagingService) MarkThreadRead(ctx context.Context, actorID, threadID string) error {
	thread, err := s.requireParticipant(ctx, actorID, threadID)
	if err != nil {
		return err
	}
	return s.messages.MarkThreadRead(ctx, thread.ID, actorID)
}

func (s *MessagingService) requireParticipant(ctx context.Context, actorID, threadID string) (messaging.Thread, error) {
	if _, err := requirePrincipal(ctx, s.principals, actorID); err != nil {
		return messaging.Thread{}, err
	}
	thread, err := s.threads.GetThread(ctx, threadID)
	if err != nil {
		return messaging.Thread{}, err
	}
	if !thread.Involves(actorID) {
		return messaging.Thread{}, apperrors.New(apperrors.CodeThreadNotParticipant, "principal is not a thread participant")
	}
	return thread, nil
}
