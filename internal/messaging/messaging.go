// Package messaging defines two-party conversation threads and the messages
// appended to them. Threads are deduplicated per unordered participant pair
// via a canonical pair key, and each thread remembers the job posting its
// first job-bearing message referenced.
package messaging

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
)

// Thread is the unique conversation container for a pair of principals.
//
// AttributedJobID is set exactly once, when the first message carrying a job
// reference lands, and is what outreach counting groups by. It is stored
// rather than re-derived so attribution does not depend on re-scanning
// message history on every query.
type Thread struct {
	ID              string
	PairKey         string
	ParticipantA    string
	ParticipantB    string
	AttributedJobID string
	LastActivityAt  time.Time
	CreatedAt       time.Time
}

// Message is one utterance within a thread. Immutable once created except
// for the read flag.
type Message struct {
	ID        string
	ThreadID  string
	Seq       int64
	SenderID  string
	Body      string
	JobID     string
	Read      bool
	CreatedAt time.Time
}

// PairKey canonicalizes an unordered participant pair into a single unique
// key: the two ids sorted and joined with ':'. Storage enforces uniqueness
// on this key, which is what makes thread creation linearizable per pair.
func PairKey(participantA, participantB string) (string, error) {
	a := strings.TrimSpace(participantA)
	b := strings.TrimSpace(participantB)
	if a == "" || b == "" {
		return "", apperrors.New(apperrors.CodePrincipalEmptyID, "both participant ids are required")
	}
	if a == b {
		return "", apperrors.New(apperrors.CodeThreadSameParticipant, "a thread needs two distinct participants")
	}
	if a > b {
		a, b = b, a
	}
	return a + ":" + b, nil
}

// CreateThread creates a thread for the unordered pair of participants.
func CreateThread(participantA, participantB string, now func() time.Time, idGenerator func() (string, error)) (Thread, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	key, err := PairKey(participantA, participantB)
	if err != nil {
		return Thread{}, err
	}

	threadID, err := idGenerator()
	if err != nil {
		return Thread{}, fmt.Errorf("generate thread id: %w", err)
	}

	createdAt := now().UTC()
	return Thread{
		ID:             threadID,
		PairKey:        key,
		ParticipantA:   strings.TrimSpace(participantA),
		ParticipantB:   strings.TrimSpace(participantB),
		LastActivityAt: createdAt,
		CreatedAt:      createdAt,
	}, nil
}

// Involves reports whether the principal participates in the thread.
func (t Thread) Involves(principalID string) bool {
	return principalID != "" && (t.ParticipantA == principalID || t.ParticipantB == principalID)
}

// OtherParticipant returns the participant opposite the given principal.
func (t Thread) OtherParticipant(principalID string) string {
	switch principalID {
	case t.ParticipantA:
		return t.ParticipantB
	case t.ParticipantB:
		return t.ParticipantA
	default:
		return ""
	}
}

// CreateMessageInput describes a message append.
type CreateMessageInput struct {
	ThreadID string
	SenderID string
	Body     string
	JobID    string
}

// CreateMessage creates a message record with a generated ID. The per-thread
// sequence number is assigned by the storage layer inside the append
// transaction.
func CreateMessage(input CreateMessageInput, now func() time.Time, idGenerator func() (string, error)) (Message, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	threadID := strings.TrimSpace(input.ThreadID)
	if threadID == "" {
		return Message{}, apperrors.New(apperrors.CodeNotFound, "thread id is required")
	}
	senderID := strings.TrimSpace(input.SenderID)
	if senderID == "" {
		return Message{}, apperrors.New(apperrors.CodePrincipalEmptyID, "sender principal id is required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return Message{}, apperrors.New(apperrors.CodeMessageEmptyBody, "message body is required")
	}

	messageID, err := idGenerator()
	if err != nil {
		return Message{}, fmt.Errorf("generate message id: %w", err)
	}

	return Message{
		ID:        messageID,
		ThreadID:  threadID,
		SenderID:  senderID,
		Body:      body,
		JobID:     strings.TrimSpace(input.JobID),
		CreatedAt: now().UTC(),
	}, nil
}

// AttributedJob derives the thread's attributed job from messages in append
// order: the job id of the first message carrying one wins. Used to verify
// that the stored AttributedJobID never drifts from the message log.
func AttributedJob(messages []Message) string {
	for _, m := range messages {
		if m.JobID != "" {
			return m.JobID
		}
	}
	return ""
}
