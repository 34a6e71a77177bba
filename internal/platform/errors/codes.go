// Package errors provides structured error handling with gRPC status mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Identity errors
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeProfileNotFound    Code = "PROFILE_NOT_FOUND"
	CodePrincipalEmptyID   Code = "PRINCIPAL_EMPTY_ID"
	CodePrincipalBadEmail  Code = "PRINCIPAL_INVALID_EMAIL"
	CodePrincipalBadRole   Code = "PRINCIPAL_INVALID_ROLE"
	CodeAccessTokenInvalid Code = "ACCESS_TOKEN_INVALID"
	CodeAccessTokenExpired Code = "ACCESS_TOKEN_EXPIRED"

	// Company errors
	CodeCompanyEmptyName      Code = "COMPANY_EMPTY_NAME"
	CodeCompanyDuplicateOwner Code = "COMPANY_DUPLICATE_OWNER"
	CodeCompanyNotVerified    Code = "COMPANY_NOT_VERIFIED"

	// Verification errors
	CodeVerificationDecided Code = "VERIFICATION_ALREADY_DECIDED"

	// Invitation errors
	CodeInvitationEmptyEmail       Code = "INVITATION_EMPTY_EMAIL"
	CodeInvitationDuplicatePending Code = "INVITATION_DUPLICATE_PENDING"
	CodeInvitationAlreadyMember    Code = "INVITATION_ALREADY_MEMBER"
	CodeInvitationInvalidState     Code = "INVITATION_INVALID_STATE"

	// Membership errors
	CodeMembershipExists Code = "MEMBERSHIP_ALREADY_EXISTS"

	// Job errors
	CodeJobEmptyTitle    Code = "JOB_EMPTY_TITLE"
	CodeJobInactive      Code = "JOB_INACTIVE"
	CodeJobWrongCompany  Code = "JOB_WRONG_COMPANY"
	CodeJobRequired      Code = "JOB_REQUIRED"
	CodeJobInvalidStatus Code = "JOB_INVALID_STATUS"

	// Messaging errors
	CodeThreadSameParticipant Code = "THREAD_SAME_PARTICIPANT"
	CodeThreadNotParticipant  Code = "THREAD_NOT_PARTICIPANT"
	CodeMessageEmptyBody      Code = "MESSAGE_EMPTY_BODY"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Transport errors
	CodeBadRequest Code = "BAD_REQUEST"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodePrincipalEmptyID,
		CodePrincipalBadEmail,
		CodePrincipalBadRole,
		CodeCompanyEmptyName,
		CodeInvitationEmptyEmail,
		CodeJobEmptyTitle,
		CodeJobInvalidStatus,
		CodeThreadSameParticipant,
		CodeMessageEmptyBody,
		CodeBadRequest:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeCompanyNotVerified,
		CodeVerificationDecided,
		CodeInvitationInvalidState,
		CodeJobInactive,
		CodeJobWrongCompany,
		CodeJobRequired:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeProfileNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeCompanyDuplicateOwner,
		CodeInvitationDuplicatePending,
		CodeInvitationAlreadyMember,
		CodeMembershipExists:
		return codes.AlreadyExists

	// PermissionDenied - principal resolved but lacks role/ownership
	case CodeForbidden,
		CodeThreadNotParticipant:
		return codes.PermissionDenied

	// Unauthenticated - no resolvable principal
	case CodeUnauthenticated,
		CodeAccessTokenInvalid,
		CodeAccessTokenExpired:
		return codes.Unauthenticated

	default:
		return codes.Internal
	}
}
