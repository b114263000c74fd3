package access

import "github.com/goliatone/go-errors"

const (
	TextCodeMalformedCredential  = "malformed_credential"
	TextCodeNoCredential         = "no_credential_presented"
	TextCodeUpstreamAuthFailure  = "upstream_auth_failure"
	TextCodeProviderUnavailable  = "identity_provider_unavailable"
	TextCodeProviderUserMissing  = "identity_provider_user_missing"
	TextCodeIdentityNotLinked    = "identity_not_linked"
	TextCodeResourceNotFound     = "resource_not_found"
	TextCodeNotAuthorized        = "not_authorized"
	TextCodeAdminRequired        = "admin_access_required"
	TextCodeWriteRequired        = "write_access_required"
	TextCodeReadRequired         = "read_access_required"
	TextCodeSelfInvite           = "self_invite"
	TextCodeAlreadyInvited       = "already_invited"
	TextCodeAlreadyMember        = "already_member"
	TextCodeUnknownInvitee       = "unknown_invitee"
	TextCodeNoPendingInvite      = "no_pending_invite"
	TextCodeContributorNotFound  = "contributor_not_found"
	TextCodeContributorConflict  = "contributor_conflict"
	TextCodeInvalidAccessLevel   = "invalid_access_level"
	TextCodeInvalidRecord        = "invalid_record"
	TextCodeEmptyValue           = "empty_value"
	TextCodeAPIKeyMismatch       = "api_key_mismatch"
)

// ErrMalformedCredential is returned for a non-empty Authorization header
// that is not exactly "Bearer <token>".
var ErrMalformedCredential = errors.New("invalid authorization header format, expected 'Bearer <token>'", errors.CategoryAuth).
	WithTextCode(TextCodeMalformedCredential).
	WithCode(errors.CodeUnauthorized)

// ErrNoCredential is returned when neither a bearer header nor a session
// cookie was presented.
var ErrNoCredential = errors.New("not authenticated: no credential presented", errors.CategoryAuth).
	WithTextCode(TextCodeNoCredential).
	WithCode(errors.CodeUnauthorized)

// ErrUpstreamAuthFailure is returned when the identity provider rejects a
// credential. The provider's code and detail travel in the metadata.
var ErrUpstreamAuthFailure = errors.New("authentication failed: identity provider rejected credential", errors.CategoryAuth).
	WithTextCode(TextCodeUpstreamAuthFailure).
	WithCode(errors.CodeUnauthorized)

// ErrProviderUnavailable is returned when the identity provider could not be
// reached or errored server-side. Never downgraded to "unauthenticated".
var ErrProviderUnavailable = errors.New("identity provider request failed", errors.CategoryInternal).
	WithTextCode(TextCodeProviderUnavailable).
	WithCode(errors.CodeInternal)

// ErrProviderUserMissing is returned when a token verifies but the provider
// has no user record for its subject.
var ErrProviderUserMissing = errors.New("user not found in identity provider after authentication", errors.CategoryAuth).
	WithTextCode(TextCodeProviderUserMissing).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotLinked is returned when a verified subject has no local
// user record. Distinct from an invalid token, which fails upstream.
var ErrIdentityNotLinked = errors.New("user not found in local system after authentication", errors.CategoryAuth).
	WithTextCode(TextCodeIdentityNotLinked).
	WithCode(errors.CodeUnauthorized)

// ErrResourceNotFound is returned when the access target does not exist.
// It is not an authorization denial; the HTTP layer maps it to 404.
var ErrResourceNotFound = errors.New("resource not found", errors.CategoryNotFound).
	WithTextCode(TextCodeResourceNotFound).
	WithCode(errors.CodeNotFound)

// ErrNotAuthorized is the generic authorization denial: anonymous caller on
// a private resource, or no contributor grant at all.
var ErrNotAuthorized = errors.New("not authorized", errors.CategoryAuthz).
	WithTextCode(TextCodeNotAuthorized).
	WithCode(errors.CodeForbidden)

// ErrAdminRequired is the denial for a contributor below admin level.
var ErrAdminRequired = errors.New("admin access required", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(errors.CodeForbidden)

// ErrWriteRequired is the denial for a contributor below write level.
var ErrWriteRequired = errors.New("write access required", errors.CategoryAuthz).
	WithTextCode(TextCodeWriteRequired).
	WithCode(errors.CodeForbidden)

// ErrReadRequired is the denial for a contributor below read level.
var ErrReadRequired = errors.New("read access required", errors.CategoryAuthz).
	WithTextCode(TextCodeReadRequired).
	WithCode(errors.CodeForbidden)

// ErrSelfInvite is returned when a sender invites their own email.
var ErrSelfInvite = errors.New("you cannot invite yourself", errors.CategoryValidation).
	WithTextCode(TextCodeSelfInvite).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyInvited is returned when a pending invitation already exists
// for that email and resource.
var ErrAlreadyInvited = errors.New("invitation already sent to this email", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyInvited).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyMember is returned when an accepted contributor row already
// exists for that email and resource.
var ErrAlreadyMember = errors.New("user already has access to this resource", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyMember).
	WithCode(errors.CodeBadRequest)

// ErrUnknownInvitee is returned when no local user exists with the invited
// email. Inviting never-registered emails is not supported.
var ErrUnknownInvitee = errors.New("no user registered with that email", errors.CategoryNotFound).
	WithTextCode(TextCodeUnknownInvitee).
	WithCode(errors.CodeNotFound)

// ErrNoPendingInvite is returned by accept and reject when no matching
// invitation exists for the (user, resource) pair.
var ErrNoPendingInvite = errors.New("no pending invitation for this resource", errors.CategoryNotFound).
	WithTextCode(TextCodeNoPendingInvite).
	WithCode(errors.CodeBadRequest)

// ErrContributorNotFound is returned by revoke and access-level changes
// when the contributor row does not exist.
var ErrContributorNotFound = errors.New("contributor not found", errors.CategoryNotFound).
	WithTextCode(TextCodeContributorNotFound).
	WithCode(errors.CodeNotFound)

// ErrContributorConflict is surfaced by the store when a conditional insert
// loses to a concurrent row for the same (user, resource) pair.
var ErrContributorConflict = errors.New("contributor row already exists for user and resource", errors.CategoryConflict).
	WithTextCode(TextCodeContributorConflict).
	WithCode(errors.CodeConflict)

// ErrInvalidAccessLevel is returned for level values outside read/write/admin.
var ErrInvalidAccessLevel = errors.New("access level must be one of: read, write, admin", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidAccessLevel).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty API key.
var ErrNoEmptyString = errors.New("value cannot be an empty string", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyValue).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedKeyAndHash is returned when an API key does not match its
// stored hash.
var ErrMismatchedKeyAndHash = errors.New("api key does not match", errors.CategoryAuth).
	WithTextCode(TextCodeAPIKeyMismatch).
	WithCode(errors.CodeUnauthorized)

// IsUnauthenticated reports whether err means "no valid identity" as
// opposed to a provider or server error. The optional guards use this to
// decide between yielding an anonymous caller and propagating.
func IsUnauthenticated(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}

	return richErr.Category == errors.CategoryAuth && richErr.Code == errors.CodeUnauthorized
}

// IsAccessDenied reports whether err is an authorization denial (the caller
// is known but lacks the required level).
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}

	return richErr.Category == errors.CategoryAuthz
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}

	return richErr.TextCode == textCode
}

// wrapProviderError classifies an identity-provider failure: 4xx responses
// are credential rejections, everything else (5xx, transport errors,
// timeouts) is a provider outage and keeps its server-error class.
func wrapProviderError(err error) *errors.Error {
	if err == nil {
		return nil
	}

	var provErr ProviderError
	if errors.As(err, &provErr) {
		meta := map[string]any{
			"provider_code":   provErr.ErrorCode(),
			"provider_detail": provErr.ErrorDetail(),
		}

		if status := provErr.StatusCode(); status >= 400 && status < 500 {
			return errors.Wrap(err, errors.CategoryAuth, "authentication failed: "+provErr.ErrorDetail()).
				WithTextCode(TextCodeUpstreamAuthFailure).
				WithCode(errors.CodeUnauthorized).
				WithMetadata(meta)
		}

		return errors.Wrap(err, errors.CategoryInternal, "identity provider request failed").
			WithTextCode(TextCodeProviderUnavailable).
			WithCode(errors.CodeInternal).
			WithMetadata(meta)
	}

	return errors.Wrap(err, errors.CategoryInternal, "identity provider request failed").
		WithTextCode(TextCodeProviderUnavailable).
		WithCode(errors.CodeInternal)
}
