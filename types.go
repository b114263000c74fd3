package access

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ProviderUser is the identity-provider's view of an authenticated
// principal. ExternalID, when populated, references the local user the
// provider knows this subject maps to.
type ProviderUser struct {
	SubjectID  string
	ExternalID string
	Email      string
	Name       string
}

// IdentityVerifier is the capability the core requires from an identity
// provider. Implementations are expected to be network clients; every call
// honors the deadline on ctx and failures carry a machine-readable code
// plus a human detail string.
type IdentityVerifier interface {
	// IntrospectAccessToken verifies a bearer access token and returns the
	// subject identifier it was issued to.
	IntrospectAccessToken(ctx context.Context, token string) (string, error)

	// GetUser fetches the provider's user record for a verified subject.
	GetUser(ctx context.Context, subject string) (*ProviderUser, error)

	// AuthenticateSession verifies a session token and returns the subject
	// together with the user info embedded in the session.
	AuthenticateSession(ctx context.Context, token string) (*ProviderUser, error)

	// RevokeSession invalidates a session token.
	RevokeSession(ctx context.Context, token string) error
}

// ProviderError is implemented by identity-provider errors that carry a
// machine-readable code, a human detail string, and the upstream HTTP
// status. The authenticator uses the status to classify a failure as a
// credential rejection versus a provider outage.
type ProviderError interface {
	error
	ErrorCode() string
	ErrorDetail() string
	StatusCode() int
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCESS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCESS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCESS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCESS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
