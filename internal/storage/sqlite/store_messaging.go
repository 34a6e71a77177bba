package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hirewire/hirewire/internal/messaging"
	"github.com/hirewire/hirewire/internal/storage"
)

// CreateThread inserts the thread unless one already exists for its pair key.
// On a unique-key conflict the surviving thread is re-read and returned, so
// concurrent duplicate creation collapses onto the first writer.
func (s *Store) CreateThread(ctx context.Context, t messaging.Thread) (messaging.Thread, error) {
	if err := s.ready(ctx); err != nil {
		return messaging.Thread{}, err
	}
	if strings.TrimSpace(t.ID) == "" {
		return messaging.Thread{}, fmt.Errorf("thread id is required")
	}
	if strings.TrimSpace(t.PairKey) == "" {
		return messaging.Thread{}, fmt.Errorf("thread pair key is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO threads (id, pair_key, participant_a, participant_b, attributed_job_id, last_activity_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		t.ID,
		t.PairKey,
		t.ParticipantA,
		t.ParticipantB,
		t.AttributedJobID,
		toMillis(t.LastActivityAt),
		toMillis(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "threads.pair_key") {
			return s.GetThreadByPairKey(ctx, t.PairKey)
		}
		return messaging.Thread{}, fmt.Errorf("create thread: %w", err)
	}
	return t, nil
}

// GetThread fetches a thread by ID.
func (s *Store) GetThread(ctx context.Context, threadID string) (messaging.Thread, error) {
	if err := s.ready(ctx); err != nil {
		return messaging.Thread{}, err
	}
	if strings.TrimSpace(threadID) == "" {
		return messaging.Thread{}, fmt.Errorf("thread id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, threadSelect+` WHERE id = ?`, threadID)
	return scanThread(row)
}

// GetThreadByPairKey fetches the thread for a canonical participant pair.
func (s *Store) GetThreadByPairKey(ctx context.Context, pairKey string) (messaging.Thread, error) {
	if err := s.ready(ctx); err != nil {
		return messaging.Thread{}, err
	}
	if strings.TrimSpace(pairKey) == "" {
		return messaging.Thread{}, fmt.Errorf("pair key is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, threadSelect+` WHERE pair_key = ?`, pairKey)
	return scanThread(row)
}

// ListThreadsForPrincipal returns the principal's threads ordered by last
// activity descending, each with the principal's unread message count.
func (s *Store) ListThreadsForPrincipal(ctx context.Context, principalID string) ([]storage.ThreadSummary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(principalID) == "" {
		return nil, fmt.Errorf("principal id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT t.id, t.pair_key, t.participant_a, t.participant_b, t.attributed_job_id,
       t.last_activity_at, t.created_at,
       (SELECT COUNT(*) FROM messages m
        WHERE m.thread_id = t.id AND m.sender_id <> ? AND m.read = 0) AS unread
FROM threads t
WHERE t.participant_a = ? OR t.participant_b = ?
ORDER BY t.last_activity_at DESC, t.id DESC
`, principalID, principalID, principalID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var summaries []storage.ThreadSummary
	for rows.Next() {
		var t messaging.Thread
		var lastActivity, createdAt int64
		var unread int
		if err := rows.Scan(
			&t.ID,
			&t.PairKey,
			&t.ParticipantA,
			&t.ParticipantB,
			&t.AttributedJobID,
			&lastActivity,
			&createdAt,
			&unread,
		); err != nil {
			return nil, fmt.Errorf("scan thread summary: %w", err)
		}
		t.LastActivityAt = fromMillis(lastActivity)
		t.CreatedAt = fromMillis(createdAt)
		summaries = append(summaries, storage.ThreadSummary{Thread: t, Unread: unread})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	return summaries, nil
}

// AppendMessage stores a message with the next per-thread sequence number,
// bumps the thread's activity timestamp, claims the thread's job attribution
// when it is the first job-bearing message, and enqueues the notification
// event, all in one transaction.
func (s *Store) AppendMessage(ctx context.Context, m messaging.Message, event storage.OutboxEvent) (messaging.Message, error) {
	if err := s.ready(ctx); err != nil {
		return messaging.Message{}, err
	}
	if strings.TrimSpace(m.ID) == "" {
		return messaging.Message{}, fmt.Errorf("message id is required")
	}
	if strings.TrimSpace(m.ThreadID) == "" {
		return messaging.Message{}, fmt.Errorf("thread id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return messaging.Message{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var seq int64
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE thread_id = ?`, m.ThreadID)
	if err := row.Scan(&seq); err != nil {
		return messaging.Message{}, fmt.Errorf("next message seq: %w", err)
	}
	m.Seq = seq

	read := 0
	if m.Read {
		read = 1
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO messages (id, thread_id, seq, sender_id, body, job_id, read, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		m.ID,
		m.ThreadID,
		m.Seq,
		m.SenderID,
		m.Body,
		m.JobID,
		read,
		toMillis(m.CreatedAt),
	)
	if err != nil {
		return messaging.Message{}, fmt.Errorf("insert message: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE threads SET last_activity_at = ? WHERE id = ?`,
		toMillis(m.CreatedAt), m.ThreadID)
	if err != nil {
		return messaging.Message{}, fmt.Errorf("touch thread: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return messaging.Message{}, fmt.Errorf("touch thread rows affected: %w", err)
	}
	if affected == 0 {
		return messaging.Message{}, storage.ErrNotFound
	}

	// First job-bearing message claims the thread's attribution; the guard
	// keeps later job references from overwriting it.
	if m.JobID != "" {
		if _, err := tx.ExecContext(ctx, `
UPDATE threads SET attributed_job_id = ?
WHERE id = ? AND attributed_job_id = ''
`, m.JobID, m.ThreadID); err != nil {
			return messaging.Message{}, fmt.Errorf("claim thread attribution: %w", err)
		}
	}

	if err := enqueueOutboxEvent(ctx, tx, event); err != nil {
		return messaging.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return messaging.Message{}, fmt.Errorf("commit message append: %w", err)
	}
	return m, nil
}

// ListMessages returns a thread's messages in append order.
func (s *Store) ListMessages(ctx context.Context, threadID string) ([]messaging.Message, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("thread id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, thread_id, seq, sender_id, body, job_id, read, created_at
FROM messages
WHERE thread_id = ?
ORDER BY seq ASC
`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []messaging.Message
	for rows.Next() {
		var m messaging.Message
		var read int
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Seq, &m.SenderID, &m.Body, &m.JobID, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Read = read != 0
		m.CreatedAt = fromMillis(createdAt)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// MarkThreadRead flips the read flag on messages sent by the other
// participant. Repeated calls are no-ops.
func (s *Store) MarkThreadRead(ctx context.Context, threadID string, readerID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("thread id is required")
	}
	if strings.TrimSpace(readerID) == "" {
		return fmt.Errorf("reader principal id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE messages SET read = 1
WHERE thread_id = ? AND sender_id <> ? AND read = 0
`, threadID, readerID)
	if err != nil {
		return fmt.Errorf("mark thread read: %w", err)
	}
	return nil
}

const threadSelect = `
SELECT id, pair_key, participant_a, participant_b, attributed_job_id, last_activity_at, created_at
FROM threads`

func scanThread(row rowScanner) (messaging.Thread, error) {
	var t messaging.Thread
	var lastActivity, createdAt int64
	if err := row.Scan(
		&t.ID,
		&t.PairKey,
		&t.ParticipantA,
		&t.ParticipantB,
		&t.AttributedJobID,
		&lastActivity,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return messaging.Thread{}, storage.ErrNotFound
		}
		return messaging.Thread{}, fmt.Errorf("scan thread: %w", err)
	}
	t.LastActivityAt = fromMillis(lastActivity)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}
