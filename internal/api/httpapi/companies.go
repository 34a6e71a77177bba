package httpapi

import (
	"net/http"

	"github.com/hirewire/hirewire/internal/company"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
)

type createCompanyRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (a *API) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	created, err := a.directory.CreateCompany(r.Context(), actor.ID, company.CreateCompanyInput{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewCompany(created))
}

func (a *API) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	found, err := a.directory.GetCompany(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCompany(found))
}

type updateCompanyRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Bio         string `json:"bio"`
	Size        string `json:"size"`
	Industry    string `json:"industry"`
	FoundedYear int    `json:"foundedYear"`
	LogoURL     string `json:"logoUrl"`
	VideoURL    string `json:"videoUrl"`
}

func (a *API) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req updateCompanyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	updated, err := a.directory.UpdateCompanyProfile(r.Context(), actor.ID, r.PathValue("id"), company.ProfileFields{
		Name:        req.Name,
		Location:    req.Location,
		Bio:         req.Bio,
		Size:        req.Size,
		Industry:    req.Industry,
		FoundedYear: req.FoundedYear,
		LogoURL:     req.LogoURL,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCompany(updated))
}

func (a *API) handleListPendingVerifications(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	pending, err := a.verification.ListPendingCompanies(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": viewCompanies(pending)})
}

type decideVerificationRequest struct {
	Approve *bool `json:"approve"`
}

func (a *API) handleDecideVerification(w http.ResponseWriter, r *http.Request) {
	var req decideVerificationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Approve == nil {
		writeError(w, apperrors.New(apperrors.CodeBadRequest, "approve is required"))
		return
	}

	actor := actorFrom(r)
	decided, err := a.verification.DecideVerification(r.Context(), actor.ID, r.PathValue("companyID"), *req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCompany(decided))
}
