package storage

import (
	"context"
	"time"
)

// Outbox event statuses.
const (
	OutboxStatusPending    = "pending"
	OutboxStatusDispatched = "dispatched"
	OutboxStatusFailed     = "failed"
)

// Outbox event types emitted by the core.
const (
	OutboxEventInvitationCreated   = "invitation.created"
	OutboxEventInvitationCancelled = "invitation.cancelled"
	OutboxEventVerificationDecided = "verification.decided"
	// OutboxEventOutreachReceived marks the opening company message of a
	// conversation; replies and candidate messages use
	// OutboxEventMessageReceived.
	OutboxEventOutreachReceived = "outreach.received"
	OutboxEventMessageReceived  = "message.received"
)

// OutboxEvent is a pending outbound notification. Events are enqueued in the
// same transaction as the state change that caused them, so a notification is
// recorded iff the operation committed, and dispatch failures never fail
// the originating operation.
type OutboxEvent struct {
	ID            string
	EventType     string
	PayloadJSON   string
	DedupeKey     string
	Status        string
	AttemptCount  int
	NextAttemptAt time.Time
	LastError     string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OutboxStore persists and leases outbound notification events.
type OutboxStore interface {
	EnqueueOutboxEvent(ctx context.Context, event OutboxEvent) error
	// ListDueOutboxEvents returns pending events whose next attempt time has
	// passed, oldest first.
	ListDueOutboxEvents(ctx context.Context, now time.Time, limit int) ([]OutboxEvent, error)
	// MarkOutboxDispatched records successful delivery.
	MarkOutboxDispatched(ctx context.Context, eventID string, processedAt time.Time) error
	// MarkOutboxRetry records a failed attempt and schedules the next one.
	// Events that exhaust maxAttempts move to the failed status.
	MarkOutboxRetry(ctx context.Context, eventID string, attemptedAt time.Time, nextAttemptAt time.Time, maxAttempts int, lastError string) error
}
