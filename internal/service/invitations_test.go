package service

import (
	"context"
	"testing"

	"github.com/hirewire/hirewire/internal/company"
	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/invitation"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/storage"
)

func TestInviteRecruiterHappyPath(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	inv, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "Rae@Example.com")
	if err != nil {
		t.Fatalf("invite recruiter: %v", err)
	}
	if inv.Email != "rae@example.com" {
		t.Fatalf("email = %q, want normalized rae@example.com", inv.Email)
	}
	if inv.Status != invitation.StatusPending {
		t.Fatalf("status = %q, want PENDING", inv.Status)
	}

	// The notification event committed with the invitation.
	if len(f.store.outboxEvents) != 1 {
		t.Fatalf("outbox events = %d, want 1", len(f.store.outboxEvents))
	}
	if f.store.outboxEvents[0].EventType != storage.OutboxEventInvitationCreated {
		t.Fatalf("event type = %q, want %q", f.store.outboxEvents[0].EventType, storage.OutboxEventInvitationCreated)
	}
}

func TestInviteRecruiterOwnerOnly(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("other-1", "other@example.com", identity.RoleEmployer)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	_, err := f.invitations.InviteRecruiter(context.Background(), "other-1", "company-1", "rae@example.com")
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}
}

func TestInviteRecruiterRejectsDuplicatePending(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	if _, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com"); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	_, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com")
	if apperrors.CodeOf(err) != apperrors.CodeInvitationDuplicatePending {
		t.Fatalf("duplicate err code = %v, want CodeInvitationDuplicatePending", apperrors.CodeOf(err))
	}
}

func TestInviteRecruiterRejectsExistingMember(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("recruiter-1", "rae@example.com", identity.RoleRecruiter)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	// Bind the recruiter first.
	if _, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	inv, err := f.invitations.LookupInvitationByEmail(context.Background(), "rae@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if _, err := f.invitations.AcceptInvitation(context.Background(), "recruiter-1", inv.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err = f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com")
	if apperrors.CodeOf(err) != apperrors.CodeInvitationAlreadyMember {
		t.Fatalf("re-invite member err code = %v, want CodeInvitationAlreadyMember", apperrors.CodeOf(err))
	}

	// Inviting the owner's own email is also a binding conflict.
	_, err = f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "owner@example.com")
	if apperrors.CodeOf(err) != apperrors.CodeInvitationAlreadyMember {
		t.Fatalf("invite owner err code = %v, want CodeInvitationAlreadyMember", apperrors.CodeOf(err))
	}
}

func TestAcceptInvitationRequiresRecruiterAndMatchingEmail(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("recruiter-1", "rae@example.com", identity.RoleRecruiter)
	f.addPrincipal("seeker-1", "casey@example.com", identity.RoleJobSeeker)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	inv, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	_, err = f.invitations.AcceptInvitation(context.Background(), "seeker-1", inv.ID)
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("seeker accept err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}

	f.addPrincipal("recruiter-2", "sam@example.com", identity.RoleRecruiter)
	_, err = f.invitations.AcceptInvitation(context.Background(), "recruiter-2", inv.ID)
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("wrong email accept err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}

	m, err := f.invitations.AcceptInvitation(context.Background(), "recruiter-1", inv.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if m.CompanyID != "company-1" || m.PrincipalID != "recruiter-1" {
		t.Fatalf("membership = %+v, want recruiter-1 at company-1", m)
	}

	// Terminal: a second accept fails.
	_, err = f.invitations.AcceptInvitation(context.Background(), "recruiter-1", inv.ID)
	if apperrors.CodeOf(err) != apperrors.CodeInvitationInvalidState {
		t.Fatalf("re-accept err code = %v, want CodeInvitationInvalidState", apperrors.CodeOf(err))
	}
}

func TestAcceptInvitationRejectsSecondCompany(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("owner-2", "boss@example.com", identity.RoleEmployer)
	f.addPrincipal("recruiter-1", "rae@example.com", identity.RoleRecruiter)
	f.addCompany("company-1", "owner-1", company.StatusVerified)
	f.addCompany("company-2", "owner-2", company.StatusVerified)

	first, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com")
	if err != nil {
		t.Fatalf("first invite: %v", err)
	}
	if _, err := f.invitations.AcceptInvitation(context.Background(), "recruiter-1", first.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	second, err := f.invitations.InviteRecruiter(context.Background(), "owner-2", "company-2", "rae@example.com")
	if err != nil {
		t.Fatalf("second invite: %v", err)
	}
	_, err = f.invitations.AcceptInvitation(context.Background(), "recruiter-1", second.ID)
	if apperrors.CodeOf(err) != apperrors.CodeMembershipExists {
		t.Fatalf("second accept err code = %v, want CodeMembershipExists", apperrors.CodeOf(err))
	}
}

func TestCancelInvitationFreesSlot(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addPrincipal("other-1", "other@example.com", identity.RoleEmployer)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	inv, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	if err := f.invitations.CancelInvitation(context.Background(), "other-1", inv.ID); apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("non-owner cancel err code = %v, want CodeForbidden", apperrors.CodeOf(err))
	}
	if err := f.invitations.CancelInvitation(context.Background(), "owner-1", inv.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.invitations.CancelInvitation(context.Background(), "owner-1", inv.ID); apperrors.CodeOf(err) != apperrors.CodeInvitationInvalidState {
		t.Fatalf("re-cancel err code = %v, want CodeInvitationInvalidState", apperrors.CodeOf(err))
	}

	// Slot is free again.
	if _, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com"); err != nil {
		t.Fatalf("re-invite after cancel: %v", err)
	}
}

func TestLookupInvitationByEmailPrefersNewest(t *testing.T) {
	f := newFixture()
	f.addPrincipal("owner-1", "owner@example.com", identity.RoleEmployer)
	f.addCompany("company-1", "owner-1", company.StatusVerified)

	if _, err := f.invitations.LookupInvitationByEmail(context.Background(), "rae@example.com"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("missing lookup err code = %v, want CodeNotFound", apperrors.CodeOf(err))
	}

	inv, err := f.invitations.InviteRecruiter(context.Background(), "owner-1", "company-1", "rae@example.com")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	got, err := f.invitations.LookupInvitationByEmail(context.Background(), " Rae@Example.com ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != inv.ID {
		t.Fatalf("lookup id = %q, want %q", got.ID, inv.ID)
	}
}
