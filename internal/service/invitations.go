package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hirewire/hirewire/internal/identity"
	"github.com/hirewire/hirewire/internal/invitation"
	"github.com/hirewire/hirewire/internal/membership"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/platform/id"
	"github.com/hirewire/hirewire/internal/storage"
)

// InvitationService manages the recruiter invitation lifecycle.
type InvitationService struct {
	principals  storage.PrincipalStore
	companies   storage.CompanyStore
	invitations storage.InvitationStore
	memberships storage.MembershipStore
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewInvitationService builds an invitation service with production defaults.
func NewInvitationService(principals storage.PrincipalStore, companies storage.CompanyStore, invitations storage.InvitationStore, memberships storage.MembershipStore) *InvitationService {
	return &InvitationService{
		principals:  principals,
		companies:   companies,
		invitations: invitations,
		memberships: memberships,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// InviteRecruiter issues a PENDING invitation for an email address to join
// the company. Only the company owner may invite. Duplicate pending
// invitations for the same (company, email) pair and emails already bound to
// the company are rejected.
func (s *InvitationService) InviteRecruiter(ctx context.Context, actorID, companyID, email string) (invitation.Invitation, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return invitation.Invitation{}, err
	}
	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return invitation.Invitation{}, err
	}
	if c.OwnerID != actor.ID {
		return invitation.Invitation{}, errForbidden("only the company owner may invite recruiters")
	}

	inv, err := invitation.CreateInvitation(invitation.CreateInvitationInput{
		CompanyID: c.ID,
		InviterID: actor.ID,
		Email:     email,
	}, s.clock, s.idGenerator)
	if err != nil {
		return invitation.Invitation{}, err
	}

	if err := s.rejectExistingBinding(ctx, c.ID, inv.Email); err != nil {
		return invitation.Invitation{}, err
	}

	event := outboxEvent(
		storage.OutboxEventInvitationCreated,
		storage.OutboxEventInvitationCreated+":"+inv.ID,
		map[string]string{
			"invitationId": inv.ID,
			"companyId":    c.ID,
			"companyName":  c.Name,
			"email":        inv.Email,
		},
		inv.CreatedAt,
	)
	if err := s.invitations.CreateInvitation(ctx, inv, event); err != nil {
		return invitation.Invitation{}, err
	}
	return inv, nil
}

// rejectExistingBinding fails when the email already belongs to a principal
// bound to the company, as owner or member. The check is advisory; the
// membership uniqueness constraint is what actually holds under races.
func (s *InvitationService) rejectExistingBinding(ctx context.Context, companyID, email string) error {
	p, err := s.principals.GetPrincipalByEmail(ctx, email)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil
		}
		return fmt.Errorf("look up invitee: %w", err)
	}

	m, err := s.memberships.GetMembershipByPrincipal(ctx, p.ID)
	if err == nil && m.CompanyID == companyID {
		return apperrors.WithMetadata(
			apperrors.CodeInvitationAlreadyMember,
			"principal is already a member of the company",
			map[string]string{"Email": email},
		)
	}
	if err != nil && apperrors.CodeOf(err) != apperrors.CodeNotFound {
		return fmt.Errorf("look up invitee membership: %w", err)
	}

	c, err := s.companies.GetCompanyByOwner(ctx, p.ID)
	if err == nil && c.ID == companyID {
		return apperrors.WithMetadata(
			apperrors.CodeInvitationAlreadyMember,
			"principal already owns the company",
			map[string]string{"Email": email},
		)
	}
	if err != nil && apperrors.CodeOf(err) != apperrors.CodeNotFound {
		return fmt.Errorf("look up invitee company: %w", err)
	}
	return nil
}

// LookupInvitationByEmail returns the most recently created PENDING
// invitation addressed to the email.
func (s *InvitationService) LookupInvitationByEmail(ctx context.Context, email string) (invitation.Invitation, error) {
	normalized, err := identity.NormalizeEmail(email)
	if err != nil {
		return invitation.Invitation{}, err
	}
	inv, err := s.invitations.GetPendingInvitationByEmail(ctx, normalized)
	if err != nil {
		return invitation.Invitation{}, err
	}
	return inv, nil
}

// AcceptInvitation binds the acting recruiter to the inviting company. The
// invitation must be PENDING and addressed to the actor's email, the actor
// must hold the recruiter role, and the actor must not already belong to a
// company. The status flip and membership insert commit atomically.
func (s *InvitationService) AcceptInvitation(ctx context.Context, actorID, invitationID string) (membership.Membership, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return membership.Membership{}, err
	}
	if actor.Role != identity.RoleRecruiter {
		return membership.Membership{}, errForbidden("only recruiters may accept invitations")
	}

	inv, err := s.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return membership.Membership{}, err
	}
	if inv.Email != actor.Email {
		return membership.Membership{}, errForbidden("invitation is addressed to a different email")
	}
	if inv.Status != invitation.StatusPending {
		return membership.Membership{}, apperrors.WithMetadata(
			apperrors.CodeInvitationInvalidState,
			"invitation is not pending",
			map[string]string{"InvitationID": inv.ID, "Status": string(inv.Status)},
		)
	}

	m, err := membership.CreateMembership(membership.CreateMembershipInput{
		PrincipalID:  actor.ID,
		CompanyID:    inv.CompanyID,
		InvitationID: inv.ID,
	}, s.clock, s.idGenerator)
	if err != nil {
		return membership.Membership{}, err
	}
	if err := s.invitations.AcceptInvitation(ctx, inv.ID, m, m.JoinedAt); err != nil {
		return membership.Membership{}, err
	}
	return m, nil
}

// CancelInvitation revokes a PENDING invitation. Only the company owner may
// cancel. Cancelling frees the (company, email) slot for a fresh invitation.
func (s *InvitationService) CancelInvitation(ctx context.Context, actorID, invitationID string) error {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return err
	}
	inv, err := s.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	c, err := s.companies.GetCompany(ctx, inv.CompanyID)
	if err != nil {
		return err
	}
	if c.OwnerID != actor.ID {
		return errForbidden("only the company owner may cancel invitations")
	}

	cancelledAt := s.clock().UTC()
	event := outboxEvent(
		storage.OutboxEventInvitationCancelled,
		storage.OutboxEventInvitationCancelled+":"+inv.ID,
		map[string]string{
			"invitationId": inv.ID,
			"companyId":    c.ID,
			"email":        inv.Email,
		},
		cancelledAt,
	)
	return s.invitations.CancelInvitation(ctx, inv.ID, cancelledAt, event)
}

// ListInvitations returns a company's invitations, newest first. Only the
// owner may list.
func (s *InvitationService) ListInvitations(ctx context.Context, actorID, companyID string) ([]invitation.Invitation, error) {
	actor, err := requirePrincipal(ctx, s.principals, actorID)
	if err != nil {
		return nil, err
	}
	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != actor.ID {
		return nil, errForbidden("only the company owner may list invitations")
	}
	return s.invitations.ListInvitationsByCompany(ctx, c.ID)
}
