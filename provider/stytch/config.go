// Package stytch implements the identity-provider verifier against the
// Stytch consumer API. Bearer tokens are verified locally against the
// project JWKS; session cookies and user lookups go over HTTPS.
package stytch

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	testBaseURL = "https://test.stytch.com"
	liveBaseURL = "https://api.stytch.com"
)

// Config holds Stytch project credentials and endpoint overrides.
type Config struct {
	// ProjectID is the Stytch project identifier. "project-test-"
	// prefixed projects resolve to the test environment.
	ProjectID string

	// Secret is the project API secret, sent as basic-auth password.
	Secret string

	// BaseURL overrides the environment-derived API base (optional).
	BaseURL string

	// JWKSURL overrides the derived JWKS endpoint (optional).
	JWKSURL string

	// Issuer overrides the expected token issuer (optional).
	// Default: "stytch.com/{ProjectID}".
	Issuer string

	// JWKSRefreshInterval is how often the JWKS cache refreshes in the
	// background. Default: 1 hour.
	JWKSRefreshInterval time.Duration

	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
}

// Validate checks the minimum viable configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectID) == "" {
		return fmt.Errorf("stytch: project ID is required")
	}
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("stytch: secret is required")
	}
	return nil
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	if strings.HasPrefix(c.ProjectID, "project-test-") {
		return testBaseURL
	}
	return liveBaseURL
}

func (c Config) jwksURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return fmt.Sprintf("%s/v1/sessions/jwks/%s", c.baseURL(), c.ProjectID)
}

func (c Config) issuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return "stytch.com/" + c.ProjectID
}

func (c Config) jwksRefreshInterval() time.Duration {
	if c.JWKSRefreshInterval > 0 {
		return c.JWKSRefreshInterval
	}
	return time.Hour
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
