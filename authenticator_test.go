package access_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	access "github.com/agenthublabs/go-access"
)

// stubProviderError implements access.ProviderError
type stubProviderError struct {
	code   string
	detail string
	status int
}

func (e *stubProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.detail)
}

func (e *stubProviderError) ErrorCode() string   { return e.code }
func (e *stubProviderError) ErrorDetail() string { return e.detail }
func (e *stubProviderError) StatusCode() int     { return e.status }

func testUser() *access.User {
	return &access.User{
		ID:       "user-test-123",
		Username: "gopher",
		Email:    "gopher@example.com",
	}
}

func TestAuthenticateBearer(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	users := new(MockUsers)

	verifier.On("IntrospectAccessToken", ctx, "valid-token").Return("user-test-123", nil)
	verifier.On("GetUser", ctx, "user-test-123").Return(&access.ProviderUser{
		SubjectID: "user-test-123",
		Email:     "gopher@example.com",
	}, nil)
	users.On("GetByExternalID", ctx, "user-test-123").Return(nil, repository.NewRecordNotFound())
	users.On("GetByID", ctx, "user-test-123").Return(testUser(), nil)

	authenticator := access.NewAuthenticator(verifier, users)

	user, err := authenticator.Authenticate(ctx, "Bearer valid-token", "")
	require.NoError(t, err)
	assert.Equal(t, "user-test-123", user.ID)

	verifier.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestAuthenticateBearerPrefersExternalID(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	users := new(MockUsers)

	verifier.On("IntrospectAccessToken", ctx, "valid-token").Return("subject-raw", nil)
	verifier.On("GetUser", ctx, "subject-raw").Return(&access.ProviderUser{
		SubjectID:  "subject-raw",
		ExternalID: "user-test-123",
	}, nil)
	users.On("GetByExternalID", ctx, "user-test-123").Return(testUser(), nil)

	authenticator := access.NewAuthenticator(verifier, users)

	user, err := authenticator.Authenticate(ctx, "Bearer valid-token", "")
	require.NoError(t, err)
	assert.Equal(t, "user-test-123", user.ID)

	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthenticateCookie(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	users := new(MockUsers)

	verifier.On("AuthenticateSession", ctx, "session-token").Return(&access.ProviderUser{
		SubjectID: "user-test-123",
	}, nil)
	users.On("GetByExternalID", ctx, "user-test-123").Return(nil, repository.NewRecordNotFound())
	users.On("GetByID", ctx, "user-test-123").Return(testUser(), nil)

	authenticator := access.NewAuthenticator(verifier, users)

	user, err := authenticator.Authenticate(ctx, "", "session-token")
	require.NoError(t, err)
	assert.Equal(t, "user-test-123", user.ID)

	verifier.AssertNotCalled(t, "IntrospectAccessToken", mock.Anything, mock.Anything)
}

func TestAuthenticateBearerPrecedence(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	users := new(MockUsers)

	verifier.On("IntrospectAccessToken", ctx, "header-token").Return("user-test-123", nil)
	verifier.On("GetUser", ctx, "user-test-123").Return(&access.ProviderUser{
		SubjectID: "user-test-123",
	}, nil)
	users.On("GetByExternalID", ctx, "user-test-123").Return(testUser(), nil)

	authenticator := access.NewAuthenticator(verifier, users)

	_, err := authenticator.Authenticate(ctx, "Bearer header-token", "cookie-token")
	require.NoError(t, err)

	// both presented: only the bearer path runs
	verifier.AssertNotCalled(t, "AuthenticateSession", mock.Anything, mock.Anything)
}

func TestAuthenticateNoCredential(t *testing.T) {
	authenticator := access.NewAuthenticator(new(MockVerifier), new(MockUsers))

	_, err := authenticator.Authenticate(context.Background(), "", "")
	assert.ErrorIs(t, err, access.ErrNoCredential)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	authenticator := access.NewAuthenticator(new(MockVerifier), new(MockUsers))

	_, err := authenticator.Authenticate(context.Background(), "Basic abc123", "")
	assert.ErrorIs(t, err, access.ErrMalformedCredential)
}

func TestAuthenticateProviderRejection(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	verifier.On("IntrospectAccessToken", ctx, "bad-token").Return("", &stubProviderError{
		code:   "invalid_token",
		detail: "token signature mismatch",
		status: 401,
	})

	authenticator := access.NewAuthenticator(verifier, new(MockUsers))

	_, err := authenticator.Authenticate(ctx, "Bearer bad-token", "")
	require.Error(t, err)
	assert.True(t, access.IsUnauthenticated(err))
}

func TestAuthenticateProviderOutage(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	verifier.On("IntrospectAccessToken", ctx, "any-token").Return("", &stubProviderError{
		code:   "internal_server_error",
		detail: "upstream exploded",
		status: 503,
	})

	authenticator := access.NewAuthenticator(verifier, new(MockUsers))

	_, err := authenticator.Authenticate(ctx, "Bearer any-token", "")
	require.Error(t, err)
	assert.False(t, access.IsUnauthenticated(err), "outage must not read as unauthenticated")
}

func TestAuthenticateProviderUserMissing(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	verifier.On("IntrospectAccessToken", ctx, "valid-token").Return("ghost", nil)
	verifier.On("GetUser", ctx, "ghost").Return(nil, nil)

	authenticator := access.NewAuthenticator(verifier, new(MockUsers))

	_, err := authenticator.Authenticate(ctx, "Bearer valid-token", "")
	assert.ErrorIs(t, err, access.ErrProviderUserMissing)
}

func TestAuthenticateIdentityNotLinked(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	users := new(MockUsers)

	verifier.On("IntrospectAccessToken", ctx, "valid-token").Return("unlinked-subject", nil)
	verifier.On("GetUser", ctx, "unlinked-subject").Return(&access.ProviderUser{
		SubjectID: "unlinked-subject",
	}, nil)
	users.On("GetByExternalID", ctx, "unlinked-subject").Return(nil, repository.NewRecordNotFound())
	users.On("GetByID", ctx, "unlinked-subject").Return(nil, repository.NewRecordNotFound())

	authenticator := access.NewAuthenticator(verifier, users)

	_, err := authenticator.Authenticate(ctx, "Bearer valid-token", "")
	require.Error(t, err)
	assert.True(t, access.IsUnauthenticated(err))
}

func TestOptionalAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("no credential becomes anonymous", func(t *testing.T) {
		authenticator := access.NewAuthenticator(new(MockVerifier), new(MockUsers))

		user, err := authenticator.OptionalAuthenticate(ctx, "", "")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("rejected credential becomes anonymous", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("IntrospectAccessToken", ctx, "bad").Return("", &stubProviderError{
			code: "invalid_token", detail: "nope", status: 401,
		})

		authenticator := access.NewAuthenticator(verifier, new(MockUsers))

		user, err := authenticator.OptionalAuthenticate(ctx, "Bearer bad", "")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("provider outage still propagates", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("IntrospectAccessToken", ctx, "any").Return("", &stubProviderError{
			code: "internal_server_error", detail: "down", status: 500,
		})

		authenticator := access.NewAuthenticator(verifier, new(MockUsers))

		_, err := authenticator.OptionalAuthenticate(ctx, "Bearer any", "")
		require.Error(t, err)
	})

	t.Run("valid credential resolves", func(t *testing.T) {
		verifier := new(MockVerifier)
		users := new(MockUsers)

		verifier.On("AuthenticateSession", ctx, "cookie").Return(&access.ProviderUser{
			SubjectID: "user-test-123",
		}, nil)
		users.On("GetByExternalID", ctx, "user-test-123").Return(testUser(), nil)

		authenticator := access.NewAuthenticator(verifier, users)

		user, err := authenticator.OptionalAuthenticate(ctx, "", "cookie")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "user-test-123", user.ID)
	})
}

func TestRevokeSession(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	verifier.On("RevokeSession", ctx, "session-token").Return(nil)

	authenticator := access.NewAuthenticator(verifier, new(MockUsers))

	require.NoError(t, authenticator.RevokeSession(ctx, "session-token"))
	assert.ErrorIs(t, authenticator.RevokeSession(ctx, ""), access.ErrNoCredential)
}

func TestAuthenticateEmitsActivity(t *testing.T) {
	ctx := context.Background()

	verifier := new(MockVerifier)
	users := new(MockUsers)
	sink := new(MockActivitySink)
	sink.On("Record", ctx, mock.Anything).Return(nil)

	verifier.On("AuthenticateSession", ctx, "cookie").Return(&access.ProviderUser{
		SubjectID: "user-test-123",
	}, nil)
	users.On("GetByExternalID", ctx, "user-test-123").Return(testUser(), nil)

	authenticator := access.NewAuthenticator(verifier, users).WithActivitySink(sink)

	_, err := authenticator.Authenticate(ctx, "", "cookie")
	require.NoError(t, err)

	require.Len(t, sink.Events, 1)
	assert.Equal(t, access.ActivityEventAuthSuccess, sink.Events[0].EventType)
	assert.Equal(t, "user-test-123", sink.Events[0].UserID)
}
