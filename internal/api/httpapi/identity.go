package httpapi

import (
	"net/http"
)

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	profile, err := a.identity.ResolveProfile(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewProfile(profile))
}

func (a *API) handleDeletePrincipal(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := a.identity.DeletePrincipal(r.Context(), actor.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
