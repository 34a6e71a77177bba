// Package service implements the marketplace application operations on top
// of the storage interfaces: identity resolution, the company directory,
// recruiter invitations, the verification gate, job postings, messaging, and
// outreach attribution.
//
// Services are transport-agnostic. Every operation takes the acting
// principal's id and re-resolves role and company binding from storage, so a
// revoked membership or a verification decision takes effect on the next
// call without session invalidation.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hirewire/hirewire/internal/identity"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/storage"
)

func errUnauthenticated() error {
	return apperrors.New(apperrors.CodeUnauthenticated, "principal is not recognized")
}

func errForbidden(message string) error {
	return apperrors.New(apperrors.CodeForbidden, message)
}

// requirePrincipal loads the acting principal or fails closed.
func requirePrincipal(ctx context.Context, principals storage.PrincipalStore, principalID string) (identity.Principal, error) {
	if principalID == "" {
		return identity.Principal{}, errUnauthenticated()
	}
	p, err := principals.GetPrincipal(ctx, principalID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return identity.Principal{}, errUnauthenticated()
		}
		return identity.Principal{}, fmt.Errorf("load principal: %w", err)
	}
	return p, nil
}

// outboxEvent builds a notification event whose payload is the given fields.
// Marshal failures are impossible for map[string]string payloads.
func outboxEvent(eventType, dedupeKey string, payload map[string]string, now time.Time) storage.OutboxEvent {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte("{}")
	}
	return storage.OutboxEvent{
		EventType:     eventType,
		PayloadJSON:   string(body),
		DedupeKey:     dedupeKey,
		Status:        storage.OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
