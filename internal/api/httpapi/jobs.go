package httpapi

import (
	"net/http"

	"github.com/hirewire/hirewire/internal/job"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
)

type createJobRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	SalaryMin   int      `json:"salaryMin"`
	SalaryMax   int      `json:"salaryMax"`
	Tags        []string `json:"tags"`
}

func (a *API) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	created, err := a.jobs.CreateJob(r.Context(), actor.ID, job.CreatePostingInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewJob(created))
}

func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	found, err := a.jobs.GetJob(r.Context(), actor.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewJob(found))
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("companyId")
	if companyID == "" {
		writeError(w, apperrors.New(apperrors.CodeBadRequest, "companyId is required"))
		return
	}

	actor := actorFrom(r)
	jobs, err := a.jobs.ListJobs(r.Context(), actor.ID, companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": viewJobs(jobs)})
}

type setJobStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleSetJobStatus(w http.ResponseWriter, r *http.Request) {
	var req setJobStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := job.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	updated, err := a.jobs.SetJobStatus(r.Context(), actor.ID, r.PathValue("id"), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewJob(updated))
}

func (a *API) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := a.jobs.DeleteJob(r.Context(), actor.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleJobOutreach(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	jobID := r.PathValue("id")
	count, err := a.outreach.CountForJob(r.Context(), actor.ID, jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobId": jobID, "threads": count})
}

func (a *API) handleRecountAttribution(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	changed, err := a.outreach.RecountAttribution(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

func (a *API) handleCompanyOutreach(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	summary, err := a.outreach.SummaryForCompany(r.Context(), actor.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOutreachSummary(summary))
}
