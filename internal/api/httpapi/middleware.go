package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/hirewire/hirewire/internal/auth"
	"github.com/hirewire/hirewire/internal/identity"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
)

type contextKey int

const actorKey contextKey = iota

// authenticated wraps a handler with bearer token verification. The token's
// claims are synced into the principal directory on every request, so the
// stored email and role track the identity provider.
func (a *API) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, err)
			return
		}

		claims, err := auth.VerifyAccessToken(token, a.verifier)
		if err != nil {
			writeError(w, err)
			return
		}

		actor, err := a.identity.SyncPrincipal(r.Context(), claims)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next(w, r.WithContext(ctx))
	}
}

// actorFrom returns the authenticated principal stored by the middleware.
func actorFrom(r *http.Request) identity.Principal {
	actor, _ := r.Context().Value(actorKey).(identity.Principal)
	return actor
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}
