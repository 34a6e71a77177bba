// Package httpapi exposes the hirewire core over a JSON HTTP API.
//
// Every route except the health check requires a bearer access token. The
// API layer authenticates, syncs the principal, and delegates to the
// service layer; authorization decisions live in the services.
package httpapi

import (
	"net/http"

	"github.com/hirewire/hirewire/internal/auth"
	"github.com/hirewire/hirewire/internal/service"
)

// API bundles the service layer behind HTTP handlers.
type API struct {
	verifier     auth.VerifierConfig
	identity     *service.IdentityService
	directory    *service.DirectoryService
	invitations  *service.InvitationService
	verification *service.VerificationService
	jobs         *service.JobService
	messaging    *service.MessagingService
	outreach     *service.OutreachService
}

// Services lists the dependencies the API delegates to.
type Services struct {
	Identity     *service.IdentityService
	Directory    *service.DirectoryService
	Invitations  *service.InvitationService
	Verification *service.VerificationService
	Jobs         *service.JobService
	Messaging    *service.MessagingService
	Outreach     *service.OutreachService
}

// New builds an API over the provided services.
func New(verifier auth.VerifierConfig, services Services) *API {
	return &API{
		verifier:     verifier,
		identity:     services.Identity,
		directory:    services.Directory,
		invitations:  services.Invitations,
		verification: services.Verification,
		jobs:         services.Jobs,
		messaging:    services.Messaging,
		outreach:     services.Outreach,
	}
}

// RegisterRoutes registers all API endpoints on the provided mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.handleHealth)

	mux.HandleFunc("GET /v1/me", a.authenticated(a.handleMe))
	mux.HandleFunc("DELETE /v1/principals/{id}", a.authenticated(a.handleDeletePrincipal))

	mux.HandleFunc("POST /v1/companies", a.authenticated(a.handleCreateCompany))
	mux.HandleFunc("GET /v1/companies/{id}", a.authenticated(a.handleGetCompany))
	mux.HandleFunc("PATCH /v1/companies/{id}", a.authenticated(a.handleUpdateCompany))

	mux.HandleFunc("POST /v1/companies/{id}/invitations", a.authenticated(a.handleInviteRecruiter))
	mux.HandleFunc("GET /v1/companies/{id}/invitations", a.authenticated(a.handleListInvitations))
	mux.HandleFunc("GET /v1/invitations/pending", a.authenticated(a.handleLookupInvitation))
	mux.HandleFunc("POST /v1/invitations/{id}/accept", a.authenticated(a.handleAcceptInvitation))
	mux.HandleFunc("DELETE /v1/invitations/{id}", a.authenticated(a.handleCancelInvitation))

	mux.HandleFunc("GET /v1/admin/verifications", a.authenticated(a.handleListPendingVerifications))
	mux.HandleFunc("POST /v1/admin/verifications/{companyID}", a.authenticated(a.handleDecideVerification))
	mux.HandleFunc("POST /v1/admin/outreach/recount", a.authenticated(a.handleRecountAttribution))

	mux.HandleFunc("POST /v1/jobs", a.authenticated(a.handleCreateJob))
	mux.HandleFunc("GET /v1/jobs", a.authenticated(a.handleListJobs))
	mux.HandleFunc("GET /v1/jobs/{id}", a.authenticated(a.handleGetJob))
	mux.HandleFunc("PUT /v1/jobs/{id}/status", a.authenticated(a.handleSetJobStatus))
	mux.HandleFunc("DELETE /v1/jobs/{id}", a.authenticated(a.handleDeleteJob))
	mux.HandleFunc("GET /v1/jobs/{id}/outreach", a.authenticated(a.handleJobOutreach))
	mux.HandleFunc("GET /v1/companies/{id}/outreach", a.authenticated(a.handleCompanyOutreach))

	mux.HandleFunc("POST /v1/threads", a.authenticated(a.handleOpenThread))
	mux.HandleFunc("GET /v1/threads", a.authenticated(a.handleListThreads))
	mux.HandleFunc("GET /v1/threads/{id}/messages", a.authenticated(a.handleListMessages))
	mux.HandleFunc("POST /v1/threads/{id}/read", a.authenticated(a.handleMarkThreadRead))
	mux.HandleFunc("POST /v1/messages", a.authenticated(a.handleSendMessage))
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
