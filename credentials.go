package access

import "strings"

// CredentialSource tags where a credential was presented.
type CredentialSource string

const (
	// CredentialSourceBearer marks a token from the Authorization header.
	CredentialSourceBearer CredentialSource = "bearer_header"
	// CredentialSourceCookie marks a token from the session cookie.
	CredentialSourceCookie CredentialSource = "session_cookie"
)

// Credential is a raw token paired with its provenance.
type Credential struct {
	Token  string
	Source CredentialSource
}

// DefaultAuthScheme is the scheme the Authorization header must carry.
const DefaultAuthScheme = "Bearer"

// TokenExtractor parses raw credential material into at most one typed
// credential. It performs no I/O; extraction is a pure function of its
// inputs.
type TokenExtractor struct {
	authScheme string
}

// NewTokenExtractor returns an extractor using the default bearer scheme.
func NewTokenExtractor() *TokenExtractor {
	return &TokenExtractor{authScheme: DefaultAuthScheme}
}

// WithAuthScheme overrides the expected Authorization scheme.
func (e *TokenExtractor) WithAuthScheme(scheme string) *TokenExtractor {
	if scheme != "" {
		e.authScheme = scheme
	}
	return e
}

// ExtractBearer parses an Authorization header value. An absent header is
// not an error and yields no candidate; any other shape than exactly
// "<scheme> <token>" fails with ErrMalformedCredential.
func (e *TokenExtractor) ExtractBearer(authorization string) (*Credential, error) {
	if authorization == "" {
		return nil, nil
	}

	parts := strings.Fields(authorization)
	if len(parts) != 2 || parts[0] != e.authScheme {
		return nil, ErrMalformedCredential
	}

	return &Credential{Token: parts[1], Source: CredentialSourceBearer}, nil
}

// ExtractCookie parses a session cookie value. Presence is the only check.
func (e *TokenExtractor) ExtractCookie(sessionToken string) *Credential {
	if sessionToken == "" {
		return nil
	}
	return &Credential{Token: sessionToken, Source: CredentialSourceCookie}
}

// Extract produces at most one credential from the header and cookie
// values, the bearer header taking precedence over the cookie. A nil
// credential with nil error means nothing was presented.
func (e *TokenExtractor) Extract(authorization, sessionToken string) (*Credential, error) {
	bearer, err := e.ExtractBearer(authorization)
	if err != nil {
		return nil, err
	}
	if bearer != nil {
		return bearer, nil
	}

	return e.ExtractCookie(sessionToken), nil
}
