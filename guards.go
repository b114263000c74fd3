package access

import (
	"context"

	"github.com/google/uuid"
)

// AuthManager is the facade consumers wire once and hand to their HTTP
// layer. It composes the authenticator, the access checker, and the
// invitation workflow over a shared repository manager and identity
// verifier.
type AuthManager struct {
	authenticator *Authenticator
	checker       *AccessChecker
	invitations   *InvitationWorkflow
	repos         RepositoryManager
	logger        Logger
	activitySink  ActivitySink
}

// NewAuthManager builds the facade. The repository manager is validated
// eagerly so a half-wired manager fails at startup, not on first request.
func NewAuthManager(verifier IdentityVerifier, repos RepositoryManager) *AuthManager {
	repos.MustValidate()

	sink := noopActivitySink{}

	return &AuthManager{
		authenticator: NewAuthenticator(verifier, repos.Users()),
		checker:       NewAccessChecker(repos.Resources(), repos.Contributors()),
		invitations:   NewInvitationWorkflow(repos.Users(), repos.Contributors()),
		repos:         repos,
		logger:        defLogger{},
		activitySink:  sink,
	}
}

func (m *AuthManager) WithLogger(logger Logger) *AuthManager {
	if logger != nil {
		m.logger = logger
		m.authenticator.WithLogger(logger)
		m.checker.WithLogger(logger)
		m.invitations.logger = logger
	}
	return m
}

// WithActivitySink wires a sink for auth and contributor events across all
// components at once.
func (m *AuthManager) WithActivitySink(sink ActivitySink) *AuthManager {
	m.activitySink = normalizeActivitySink(sink)
	m.authenticator.WithActivitySink(m.activitySink)
	m.invitations.activitySink = m.activitySink
	return m
}

// WithTokenExtractor overrides the credential extractor, e.g. to accept a
// different auth scheme.
func (m *AuthManager) WithTokenExtractor(extractor *TokenExtractor) *AuthManager {
	m.authenticator.WithTokenExtractor(extractor)
	return m
}

// Authenticate resolves the caller from raw header and cookie values.
func (m *AuthManager) Authenticate(ctx context.Context, authorization, sessionToken string) (*User, error) {
	return m.authenticator.Authenticate(ctx, authorization, sessionToken)
}

// OptionalAuthenticate resolves the caller, yielding (nil, nil) for
// unauthenticated-class failures.
func (m *AuthManager) OptionalAuthenticate(ctx context.Context, authorization, sessionToken string) (*User, error) {
	return m.authenticator.OptionalAuthenticate(ctx, authorization, sessionToken)
}

// RevokeSession invalidates the session token at the identity provider.
func (m *AuthManager) RevokeSession(ctx context.Context, sessionToken string) error {
	return m.authenticator.RevokeSession(ctx, sessionToken)
}

// CheckAccess decides whether user may act on the resource at the
// required level.
func (m *AuthManager) CheckAccess(ctx context.Context, user *User, resourceID string, required AccessLevel) error {
	return m.checker.CheckAccess(ctx, user, resourceID, required)
}

// RequireLevel authenticates from raw credentials and then checks access
// in one call. Authentication failures surface before access denials.
func (m *AuthManager) RequireLevel(ctx context.Context, authorization, sessionToken, resourceID string, required AccessLevel) (*User, error) {
	user, err := m.Authenticate(ctx, authorization, sessionToken)
	if err != nil {
		return nil, err
	}

	if err := m.checker.CheckAccess(ctx, user, resourceID, required); err != nil {
		return nil, err
	}

	return user, nil
}

// OptionalLevel is RequireLevel with optional authentication: anonymous
// callers still get the access check, which public resources may satisfy.
// The returned user is nil for anonymous callers that pass.
func (m *AuthManager) OptionalLevel(ctx context.Context, authorization, sessionToken, resourceID string, required AccessLevel) (*User, error) {
	user, err := m.OptionalAuthenticate(ctx, authorization, sessionToken)
	if err != nil {
		return nil, err
	}

	if err := m.checker.CheckAccess(ctx, user, resourceID, required); err != nil {
		return nil, err
	}

	return user, nil
}

// Invite sends a contributor invitation on behalf of sender.
func (m *AuthManager) Invite(ctx context.Context, sender *User, req InviteRequest) (*Contributor, error) {
	return m.invitations.Invite(ctx, sender, req)
}

// AcceptInvite accepts the caller's pending invitation for a resource.
func (m *AuthManager) AcceptInvite(ctx context.Context, user *User, resourceID string) (*Contributor, error) {
	return m.invitations.Accept(ctx, user, resourceID)
}

// RejectInvite declines the caller's pending invitation for a resource.
func (m *AuthManager) RejectInvite(ctx context.Context, user *User, resourceID string) error {
	return m.invitations.Reject(ctx, user, resourceID)
}

// RevokeContributor removes a contributor row, pending or accepted.
func (m *AuthManager) RevokeContributor(ctx context.Context, actor *User, resourceID string, contributorID uuid.UUID) error {
	return m.invitations.Revoke(ctx, actor, resourceID, contributorID)
}

// Authenticator exposes the underlying authenticator.
func (m *AuthManager) Authenticator() *Authenticator {
	return m.authenticator
}

// Checker exposes the underlying access checker.
func (m *AuthManager) Checker() *AccessChecker {
	return m.checker
}

// Invitations exposes the underlying invitation workflow.
func (m *AuthManager) Invitations() *InvitationWorkflow {
	return m.invitations
}

// Repos exposes the repository manager the facade was built over.
func (m *AuthManager) Repos() RepositoryManager {
	return m.repos
}
