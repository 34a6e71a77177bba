package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/invitation"
	"github.com/hirewire/hirewire/internal/job"
	"github.com/hirewire/hirewire/internal/membership"
	"github.com/hirewire/hirewire/internal/messaging"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/storage"
)

type errorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	response := errorResponse{Error: string(code)}

	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		response.Message = domainErr.Message
		response.Metadata = domainErr.Metadata
	}

	status := httpStatus(code)
	if status == http.StatusInternalServerError {
		log.Printf("httpapi: internal error: %v", err)
		response.Message = "internal error"
	}
	writeJSON(w, status, response)
}

// httpStatus maps domain error codes onto HTTP statuses. Unknown codes are
// treated as internal errors.
func httpStatus(code apperrors.Code) int {
	switch code {
	case apperrors.CodeUnauthenticated,
		apperrors.CodeAccessTokenInvalid,
		apperrors.CodeAccessTokenExpired:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden,
		apperrors.CodeCompanyNotVerified,
		apperrors.CodeJobWrongCompany,
		apperrors.CodeThreadNotParticipant:
		return http.StatusForbidden
	case apperrors.CodeNotFound,
		apperrors.CodeProfileNotFound:
		return http.StatusNotFound
	case apperrors.CodeCompanyDuplicateOwner,
		apperrors.CodeVerificationDecided,
		apperrors.CodeInvitationDuplicatePending,
		apperrors.CodeInvitationAlreadyMember,
		apperrors.CodeInvitationInvalidState,
		apperrors.CodeMembershipExists:
		return http.StatusConflict
	case apperrors.CodeJobRequired,
		apperrors.CodeJobInactive:
		return http.StatusUnprocessableEntity
	case apperrors.CodePrincipalEmptyID,
		apperrors.CodePrincipalBadEmail,
		apperrors.CodePrincipalBadRole,
		apperrors.CodeCompanyEmptyName,
		apperrors.CodeInvitationEmptyEmail,
		apperrors.CodeJobEmptyTitle,
		apperrors.CodeJobInvalidStatus,
		apperrors.CodeThreadSameParticipant,
		apperrors.CodeMessageEmptyBody,
		apperrors.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type principalView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type profileView struct {
	Principal principalView `json:"principal"`
	CompanyID string        `json:"companyId,omitempty"`
	IsOwner   bool          `json:"isOwner,omitempty"`
}

func viewPrincipal(p identity.Principal) principalView {
	return principalView{
		ID:        p.ID,
		Email:     p.Email,
		Role:      p.Role.String(),
		CreatedAt: p.CreatedAt,
	}
}

func viewProfile(p identity.Profile) profileView {
	return profileView{
		Principal: viewPrincipal(p.Principal),
		CompanyID: p.CompanyID,
		IsOwner:   p.IsOwner,
	}
}

type companyView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Size        string    `json:"size,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	FoundedYear int       `json:"foundedYear,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func viewCompany(c company.Company) companyView {
	return companyView{
		ID:          c.ID,
		Name:        c.Name,
		Location:    c.Location,
		Bio:         c.Bio,
		Size:        c.Size,
		Industry:    c.Industry,
		FoundedYear: c.FoundedYear,
		LogoURL:     c.LogoURL,
		VideoURL:    c.VideoURL,
		Status:      string(c.Status),
		OwnerID:     c.OwnerID,
		CreatedAt:   c.CreatedAt,
	}
}

func viewCompanies(companies []company.Company) []companyView {
	views := make([]companyView, 0, len(companies))
	for _, c := range companies {
		views = append(views, viewCompany(c))
	}
	return views
}

type invitationView struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	InviterID string    `json:"inviterId"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewInvitation(inv invitation.Invitation) invitationView {
	return invitationView{
		ID:        inv.ID,
		CompanyID: inv.CompanyID,
		InviterID: inv.InviterID,
		Email:     inv.Email,
		Status:    string(inv.Status),
		CreatedAt: inv.CreatedAt,
	}
}

func viewInvitations(invitations []invitation.Invitation) []invitationView {
	views := make([]invitationView, 0, len(invitations))
	for _, inv := range invitations {
		views = append(views, viewInvitation(inv))
	}
	return views
}

type membershipView struct {
	ID           string    `json:"id"`
	PrincipalID  string    `json:"principalId"`
	CompanyID    string    `json:"companyId"`
	InvitationID string    `json:"invitationId"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func viewMembership(m membership.Membership) membershipView {
	return membershipView{
		ID:           m.ID,
		PrincipalID:  m.PrincipalID,
		CompanyID:    m.CompanyID,
		InvitationID: m.InvitationID,
		JoinedAt:     m.JoinedAt,
	}
}

type jobView struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	CreatorID   string    `json:"creatorId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	SalaryMin   int       `json:"salaryMin,omitempty"`
	SalaryMax   int       `json:"salaryMax,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Status      string    `json:"status"`
	Deleted     bool      `json:"deleted,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func viewJob(p job.Posting) jobView {
	return jobView{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		CreatorID:   p.CreatorID,
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		SalaryMin:   p.SalaryMin,
		SalaryMax:   p.SalaryMax,
		Tags:        p.Tags,
		Status:      string(p.Status),
		Deleted:     p.Deleted,
		CreatedAt:   p.CreatedAt,
	}
}

func viewJobs(postings []job.Posting) []jobView {
	views := make([]jobView, 0, len(postings))
	for _, p := range postings {
		views = append(views, viewJob(p))
	}
	return views
}

type threadView struct {
	ID              string    `json:"id"`
	ParticipantA    string    `json:"participantA"`
	ParticipantB    string    `json:"participantB"`
	AttributedJobID string    `json:"attributedJobId,omitempty"`
	LastActivityAt  time.Time `json:"lastActivityAt"`
	Unread          int       `json:"unread,omitempty"`
}

func viewThread(t messaging.Thread, unread int) threadView {
	return threadView{
		ID:              t.ID,
		ParticipantA:    t.ParticipantA,
		ParticipantB:    t.ParticipantB,
		AttributedJobID: t.AttributedJobID,
		LastActivityAt:  t.LastActivityAt,
		Unread:          unread,
	}
}

func viewThreadSummaries(summaries []storage.ThreadSummary) []threadView {
	views := make([]threadView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, viewThread(s.Thread, s.Unread))
	}
	return views
}

type messageView struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Seq       int64     `json:"seq"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	JobID     string    `json:"jobId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewMessage(m messaging.Message) messageView {
	return messageView{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Seq:       m.Seq,
		SenderID:  m.SenderID,
		Body:      m.Body,
		JobID:     m.JobID,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func viewMessages(messages []messaging.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, viewMessage(m))
	}
	return views
}

type outreachSummaryView struct {
	CompanyID          string            `json:"companyId"`
	AttributedThreads  int               `json:"attributedThreads"`
	DistinctCandidates int               `json:"distinctCandidates"`
	Jobs               []outreachJobView `json:"jobs"`
}

type outreachJobView struct {
	JobID   string `json:"jobId"`
	Title   string `json:"title"`
	Threads int    `json:"threads"`
}

func viewOutreachSummary(s storage.OutreachSummary) outreachSummaryView {
	jobs := make([]outreachJobView, 0, len(s.Jobs))
	for _, j := range s.Jobs {
		jobs = append(jobs, outreachJobView{JobID: j.JobID, Title: j.Title, Threads: j.Threads})
	}
	return outreachSummaryView{
		CompanyID:          s.CompanyID,
		AttributedThreads:  s.AttributedThreads,
		DistinctCandidates: s.DistinctCandidates,
		Jobs:               jobs,
	}
}

func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeBadRequest, "invalid request body", err)
	}
	return nil
}
