package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hirewire/hirewire/internal/platform/id"
	"github.com/hirewire/hirewire/internal/storage"
)

// enqueueOutboxEvent inserts one notification event inside the caller's
// transaction. Events with a dedupe key are at-most-once: a conflicting
// insert is silently dropped so retried operations do not double-notify.
func enqueueOutboxEvent(ctx context.Context, target execContexter, event storage.OutboxEvent) error {
	if strings.TrimSpace(event.EventType) == "" {
		return fmt.Errorf("outbox event type is required")
	}

	if strings.TrimSpace(event.ID) == "" {
		eventID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate outbox event id: %w", err)
		}
		event.ID = eventID
	}
	if strings.TrimSpace(event.PayloadJSON) == "" {
		event.PayloadJSON = "{}"
	}
	if strings.TrimSpace(event.Status) == "" {
		event.Status = storage.OutboxStatusPending
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}
	if event.NextAttemptAt.IsZero() {
		event.NextAttemptAt = event.CreatedAt
	}

	_, err := target.ExecContext(ctx, `
INSERT INTO outbox (id, event_type, payload_json, dedupe_key, status, attempt_count, next_attempt_at, last_error, processed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (dedupe_key) WHERE dedupe_key <> '' DO NOTHING
`,
		event.ID,
		event.EventType,
		event.PayloadJSON,
		event.DedupeKey,
		event.Status,
		event.AttemptCount,
		toMillis(event.NextAttemptAt),
		event.LastError,
		toNullMillis(event.ProcessedAt),
		toMillis(event.CreatedAt),
		toMillis(event.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// EnqueueOutboxEvent records a standalone notification event outside of a
// domain transaction.
func (s *Store) EnqueueOutboxEvent(ctx context.Context, event storage.OutboxEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return enqueueOutboxEvent(ctx, s.sqlDB, event)
}

// ListDueOutboxEvents returns pending events whose next attempt time has
// passed, oldest next-attempt first.
func (s *Store) ListDueOutboxEvents(ctx context.Context, now time.Time, limit int) ([]storage.OutboxEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, event_type, payload_json, dedupe_key, status, attempt_count, next_attempt_at, last_error, processed_at, created_at, updated_at
FROM outbox
WHERE status = ? AND next_attempt_at <= ?
ORDER BY next_attempt_at ASC, created_at ASC
LIMIT ?
`, storage.OutboxStatusPending, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list due outbox events: %w", err)
	}
	defer rows.Close()

	var events []storage.OutboxEvent
	for rows.Next() {
		event, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return events, nil
}

// MarkOutboxDispatched records successful delivery of an event.
func (s *Store) MarkOutboxDispatched(ctx context.Context, eventID string, processedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("outbox event id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE outbox
SET status = ?, processed_at = ?, last_error = '', updated_at = ?
WHERE id = ? AND status = ?
`,
		storage.OutboxStatusDispatched,
		toMillis(processedAt),
		toMillis(processedAt),
		eventID,
		storage.OutboxStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark outbox dispatched: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox dispatched rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkOutboxRetry records a failed attempt. Events that exhaust maxAttempts
// are parked in the failed status and never retried.
func (s *Store) MarkOutboxRetry(ctx context.Context, eventID string, attemptedAt time.Time, nextAttemptAt time.Time, maxAttempts int, lastError string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("outbox event id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE outbox
SET attempt_count = attempt_count + 1,
    next_attempt_at = ?,
    last_error = ?,
    status = CASE WHEN attempt_count + 1 >= ? THEN ? ELSE status END,
    updated_at = ?
WHERE id = ? AND status = ?
`,
		toMillis(nextAttemptAt),
		lastError,
		maxAttempts,
		storage.OutboxStatusFailed,
		toMillis(attemptedAt),
		eventID,
		storage.OutboxStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark outbox retry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox retry rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanOutboxEvent(row rowScanner) (storage.OutboxEvent, error) {
	var event storage.OutboxEvent
	var nextAttemptAt, createdAt, updatedAt int64
	var processedAt sql.NullInt64
	if err := row.Scan(
		&event.ID,
		&event.EventType,
		&event.PayloadJSON,
		&event.DedupeKey,
		&event.Status,
		&event.AttemptCount,
		&nextAttemptAt,
		&event.LastError,
		&processedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.OutboxEvent{}, fmt.Errorf("scan outbox event: %w", err)
	}
	event.NextAttemptAt = fromMillis(nextAttemptAt)
	event.ProcessedAt = fromNullMillis(processedAt)
	event.CreatedAt = fromMillis(createdAt)
	event.UpdatedAt = fromMillis(updatedAt)
	return event, nil
}
