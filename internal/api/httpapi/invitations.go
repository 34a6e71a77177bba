package httpapi

import (
	"net/http"
)

type inviteRecruiterRequest struct {
	Email string `json:"email"`
}

func (a *API) handleInviteRecruiter(w http.ResponseWriter, r *http.Request) {
	var req inviteRecruiterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	created, err := a.invitations.InviteRecruiter(r.Context(), actor.ID, r.PathValue("id"), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewInvitation(created))
}

func (a *API) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	invitations, err := a.invitations.ListInvitations(r.Context(), actor.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": viewInvitations(invitations)})
}

// handleLookupInvitation returns the caller's pending invitation, if any.
// Lookup is by the authenticated email so recruiters cannot probe other
// addresses.
func (a *API) handleLookupInvitation(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	pending, err := a.invitations.LookupInvitationByEmail(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewInvitation(pending))
}

func (a *API) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	bound, err := a.invitations.AcceptInvitation(r.Context(), actor.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewMembership(bound))
}

func (a *API) handleCancelInvitation(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := a.invitations.CancelInvitation(r.Context(), actor.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
