package stytch

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agenthublabs/go-access"
)

// Client implements access.IdentityVerifier over the Stytch API.
type Client struct {
	config     Config
	httpClient *http.Client

	jwksOnce sync.Once
	jwks     *keyfunc.JWKS
	jwksErr  error
}

var _ access.IdentityVerifier = (*Client)(nil)

// New creates a Stytch client. The JWKS is fetched lazily on the first
// bearer verification, so construction never touches the network.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config:     cfg,
		httpClient: cfg.httpClient(),
	}, nil
}

// IntrospectAccessToken verifies an access token locally against the
// project JWKS and returns its subject. No Stytch round trip happens after
// the key set is cached.
func (c *Client) IntrospectAccessToken(ctx context.Context, token string) (string, error) {
	jwks, err := c.keySet()
	if err != nil {
		return "", apiError("introspect", 0, "jwks_unavailable", "failed to load project key set", err)
	}

	parsed, err := jwt.Parse(token, jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(c.config.issuer()),
		jwt.WithAudience(c.config.ProjectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", apiError("introspect", http.StatusUnauthorized, "invalid_token", "access token verification failed", err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", apiError("introspect", http.StatusUnauthorized, "invalid_token", "access token has no subject", err)
	}

	return subject, nil
}

// GetUser fetches the provider user record by Stytch user ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*access.ProviderUser, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apiError("get_user", http.StatusBadRequest, "user_id_required", "user ID is required", nil)
	}

	var out userResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+userID, nil, &out, "get_user"); err != nil {
		var apiErr *Error
		if stderrors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	return out.providerUser(), nil
}

// AuthenticateSession verifies an opaque session token remotely and
// returns the session's user.
func (c *Client) AuthenticateSession(ctx context.Context, sessionToken string) (*access.ProviderUser, error) {
	payload := map[string]string{"session_token": sessionToken}

	var out sessionAuthResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/authenticate", payload, &out, "authenticate_session"); err != nil {
		return nil, err
	}

	return out.User.providerUser(), nil
}

// RevokeSession invalidates a session token at Stytch. Revoking an
// already-revoked token is not an error upstream.
func (c *Client) RevokeSession(ctx context.Context, sessionToken string) error {
	payload := map[string]string{"session_token": sessionToken}
	return c.do(ctx, http.MethodPost, "/v1/sessions/revoke", payload, nil, "revoke_session")
}

// Close stops the background JWKS refresh.
func (c *Client) Close() {
	if c.jwks != nil {
		c.jwks.EndBackground()
	}
}

func (c *Client) keySet() (*keyfunc.JWKS, error) {
	c.jwksOnce.Do(func() {
		c.jwks, c.jwksErr = keyfunc.Get(c.config.jwksURL(), keyfunc.Options{
			Client:            c.httpClient,
			RefreshInterval:   c.config.jwksRefreshInterval(),
			RefreshRateLimit:  time.Minute * 5,
			RefreshTimeout:    time.Second * 10,
			RefreshUnknownKID: true,
		})
	})
	return c.jwks, c.jwksErr
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return apiError(operation, 0, "encode_request", "failed to encode request body", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.baseURL()+path, body)
	if err != nil {
		return apiError(operation, 0, "build_request", "failed to build request", err)
	}

	req.SetBasicAuth(c.config.ProjectID, c.config.Secret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiError(operation, 0, "transport", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiError(operation, resp.StatusCode, "read_response", "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		if err := json.Unmarshal(raw, &errResp); err != nil {
			return apiError(operation, resp.StatusCode, "invalid_response",
				fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
		}
		return apiError(operation, resp.StatusCode, errResp.ErrorType, errResp.ErrorMessage, nil)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apiError(operation, resp.StatusCode, "invalid_response", "failed to decode response body", err)
	}

	return nil
}

type errorResponse struct {
	StatusCode   int    `json:"status_code"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

type userResponse struct {
	UserID     string      `json:"user_id"`
	ExternalID string      `json:"external_id"`
	Name       userName    `json:"name"`
	Emails     []userEmail `json:"emails"`
}

type sessionAuthResponse struct {
	User userResponse `json:"user"`
}

type userName struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type userEmail struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

func (u userResponse) providerUser() *access.ProviderUser {
	if u.UserID == "" {
		return nil
	}

	return &access.ProviderUser{
		SubjectID:  u.UserID,
		ExternalID: u.ExternalID,
		Email:      u.primaryEmail(),
		Name:       u.fullName(),
	}
}

func (u userResponse) primaryEmail() string {
	for _, e := range u.Emails {
		if e.Verified {
			return e.Email
		}
	}
	if len(u.Emails) > 0 {
		return u.Emails[0].Email
	}
	return ""
}

func (u userResponse) fullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.Name.FirstName) + " " + strings.TrimSpace(u.Name.LastName))
}
