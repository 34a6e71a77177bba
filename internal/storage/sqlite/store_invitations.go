package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hirewire/hirewire/internal/invitation"
	"github.com/hirewire/hirewire/internal/membership"
	apperrors "github.com/hirewire/hirewire/internal/platform/errors"
	"github.com/hirewire/hirewire/internal/storage"
)

// CreateInvitation inserts a PENDING invitation and its notification event in
// one transaction. The partial unique index on (company_id, email) turns a
// concurrent duplicate into a duplicate-pending error.
func (s *Store) CreateInvitation(ctx context.Context, inv invitation.Invitation, event storage.OutboxEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(inv.ID) == "" {
		return fmt.Errorf("invitation id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO invitations (id, company_id, inviter_id, email, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		inv.ID,
		inv.CompanyID,
		inv.InviterID,
		inv.Email,
		string(inv.Status),
		toMillis(inv.CreatedAt),
		toMillis(inv.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "invitations.company_id") {
			return apperrors.WithMetadata(
				apperrors.CodeInvitationDuplicatePending,
				"a pending invitation already exists for this email",
				map[string]string{"CompanyID": inv.CompanyID, "Email": inv.Email},
			)
		}
		return fmt.Errorf("create invitation: %w", err)
	}

	if err := enqueueOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invitation: %w", err)
	}
	return nil
}

// GetInvitation fetches an invitation by ID.
func (s *Store) GetInvitation(ctx context.Context, invitationID string) (invitation.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return invitation.Invitation{}, err
	}
	if strings.TrimSpace(invitationID) == "" {
		return invitation.Invitation{}, fmt.Errorf("invitation id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, invitationSelect+` WHERE id = ?`, invitationID)
	return scanInvitation(row)
}

// GetPendingInvitationByEmail returns the most recently created PENDING
// invitation for an email address. When invitations from several companies
// are pending for the same email, the newest one wins.
func (s *Store) GetPendingInvitationByEmail(ctx context.Context, email string) (invitation.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return invitation.Invitation{}, err
	}
	if strings.TrimSpace(email) == "" {
		return invitation.Invitation{}, fmt.Errorf("email is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, invitationSelect+`
 WHERE email = ? AND status = ?
 ORDER BY created_at DESC, id DESC
 LIMIT 1`,
		email, string(invitation.StatusPending))
	return scanInvitation(row)
}

// ListInvitationsByCompany returns every invitation a company has issued,
// newest first.
func (s *Store) ListInvitationsByCompany(ctx context.Context, companyID string) ([]invitation.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(companyID) == "" {
		return nil, fmt.Errorf("company id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, invitationSelect+`
 WHERE company_id = ?
 ORDER BY created_at DESC, id DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []invitation.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}
	return invitations, nil
}

// AcceptInvitation atomically marks the invitation ACCEPTED and inserts the
// membership binding. The status guard makes concurrent accepts linearizable
// per invitation id: exactly one caller observes success.
func (s *Store) AcceptInvitation(ctx context.Context, invitationID string, m membership.Membership, acceptedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(invitationID) == "" {
		return fmt.Errorf("invitation id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE invitations SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
`,
		string(invitation.StatusAccepted),
		toMillis(acceptedAt),
		invitationID,
		string(invitation.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("accept invitation rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.WithMetadata(
			apperrors.CodeInvitationInvalidState,
			"invitation is not pending",
			map[string]string{"InvitationID": invitationID},
		)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO memberships (id, principal_id, company_id, invitation_id, joined_at)
VALUES (?, ?, ?, ?, ?)
`,
		m.ID,
		m.PrincipalID,
		m.CompanyID,
		m.InvitationID,
		toMillis(m.JoinedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "memberships.principal_id") {
			return apperrors.WithMetadata(
				apperrors.CodeMembershipExists,
				"principal is already bound to a company",
				map[string]string{"PrincipalID": m.PrincipalID},
			)
		}
		return fmt.Errorf("insert membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invitation accept: %w", err)
	}
	return nil
}

// CancelInvitation atomically marks the invitation CANCELLED and enqueues the
// notification event, guarded on PENDING.
func (s *Store) CancelInvitation(ctx context.Context, invitationID string, cancelledAt time.Time, event storage.OutboxEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(invitationID) == "" {
		return fmt.Errorf("invitation id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE invitations SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
`,
		string(invitation.StatusCancelled),
		toMillis(cancelledAt),
		invitationID,
		string(invitation.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("cancel invitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel invitation rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.WithMetadata(
			apperrors.CodeInvitationInvalidState,
			"invitation is not pending",
			map[string]string{"InvitationID": invitationID},
		)
	}

	if err := enqueueOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invitation cancel: %w", err)
	}
	return nil
}

// GetMembershipByPrincipal fetches the membership binding for a recruiter.
func (s *Store) GetMembershipByPrincipal(ctx context.Context, principalID string) (membership.Membership, error) {
	if err := s.ready(ctx); err != nil {
		return membership.Membership{}, err
	}
	if strings.TrimSpace(principalID) == "" {
		return membership.Membership{}, fmt.Errorf("principal id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, principal_id, company_id, invitation_id, joined_at
FROM memberships
WHERE principal_id = ?
`, principalID)
	return scanMembership(row)
}

// ListMembershipsByCompany returns a company's recruiter bindings, oldest
// first.
func (s *Store) ListMembershipsByCompany(ctx context.Context, companyID string) ([]membership.Membership, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(companyID) == "" {
		return nil, fmt.Errorf("company id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, principal_id, company_id, invitation_id, joined_at
FROM memberships
WHERE company_id = ?
ORDER BY joined_at ASC, id ASC
`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []membership.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return memberships, nil
}

const invitationSelect = `
SELECT id, company_id, inviter_id, email, status, created_at, updated_at
FROM invitations`

func scanInvitation(row rowScanner) (invitation.Invitation, error) {
	var inv invitation.Invitation
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&inv.ID, &inv.CompanyID, &inv.InviterID, &inv.Email, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invitation.Invitation{}, storage.ErrNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("scan invitation: %w", err)
	}
	parsed, err := invitation.ParseStatus(status)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("parse invitation status: %w", err)
	}
	inv.Status = parsed
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return inv, nil
}

func scanMembership(row rowScanner) (membership.Membership, error) {
	var m membership.Membership
	var joinedAt int64
	if err := row.Scan(&m.ID, &m.PrincipalID, &m.CompanyID, &m.InvitationID, &joinedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return membership.Membership{}, storage.ErrNotFound
		}
		return membership.Membership{}, fmt.Errorf("scan membership: %w", err)
	}
	m.JoinedAt = fromMillis(joinedAt)
	return m, nil
}
