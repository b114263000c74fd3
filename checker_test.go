package access_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	access "github.com/agenthublabs/go-access"
)

func privateRepo() *access.Resource {
	return &access.Resource{
		ID:         "repo-1",
		Kind:       access.ResourceKindRepo,
		Name:       "private repo",
		AdminID:    "user-owner",
		Visibility: access.VisibilityPrivate,
	}
}

func publicRepo() *access.Resource {
	res := privateRepo()
	res.Visibility = access.VisibilityPublic
	return res
}

func contributorAt(level access.AccessLevel, pending bool) *access.Contributor {
	return &access.Contributor{
		UserID:      "user-test-123",
		Username:    "gopher",
		Email:       "gopher@example.com",
		ResourceID:  "repo-1",
		AccessLevel: level,
		InvitedBy:   "user-owner",
		Pending:     pending,
	}
}

func TestCheckAccessUnknownResource(t *testing.T) {
	ctx := context.Background()

	resources := new(MockResources)
	resources.On("GetByID", ctx, "missing").Return(nil, repository.NewRecordNotFound())

	checker := access.NewAccessChecker(resources, new(MockContributors))

	err := checker.CheckAccess(ctx, testUser(), "missing", access.AccessLevelRead)
	require.Error(t, err)
	assert.False(t, access.IsAccessDenied(err), "missing resource is not a denial")
}

func TestCheckAccessOwnerBypass(t *testing.T) {
	ctx := context.Background()
	owner := &access.User{ID: "user-owner", Username: "owner", Email: "owner@example.com"}

	resources := new(MockResources)
	resources.On("GetByID", ctx, "repo-1").Return(privateRepo(), nil)

	contributors := new(MockContributors)
	checker := access.NewAccessChecker(resources, contributors)

	for _, level := range access.AllAccessLevels() {
		assert.NoError(t, checker.CheckAccess(ctx, owner, "repo-1", level), level)
	}

	// the owner check never touches the contributor store
	contributors.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckAccessPublicResource(t *testing.T) {
	ctx := context.Background()

	resources := new(MockResources)
	resources.On("GetByID", ctx, "repo-1").Return(publicRepo(), nil)

	contributors := new(MockContributors)
	contributors.On("Find", ctx, "user-test-123", "repo-1").Return(nil, repository.NewRecordNotFound())

	checker := access.NewAccessChecker(resources, contributors)

	t.Run("anonymous read allowed", func(t *testing.T) {
		assert.NoError(t, checker.CheckAccess(ctx, nil, "repo-1", access.AccessLevelRead))
	})

	t.Run("anonymous write denied", func(t *testing.T) {
		err := checker.CheckAccess(ctx, nil, "repo-1", access.AccessLevelWrite)
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})

	t.Run("authenticated non-contributor read allowed", func(t *testing.T) {
		assert.NoError(t, checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelRead))
	})

	t.Run("authenticated non-contributor write denied", func(t *testing.T) {
		err := checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelWrite)
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})
}

func TestCheckAccessPrivateResourceAnonymous(t *testing.T) {
	ctx := context.Background()

	resources := new(MockResources)
	resources.On("GetByID", ctx, "repo-1").Return(privateRepo(), nil)

	checker := access.NewAccessChecker(resources, new(MockContributors))

	for _, level := range access.AllAccessLevels() {
		err := checker.CheckAccess(ctx, nil, "repo-1", level)
		assert.ErrorIs(t, err, access.ErrNotAuthorized, level)
	}
}

func TestCheckAccessContributorLevels(t *testing.T) {
	ctx := context.Background()

	resources := new(MockResources)
	resources.On("GetByID", ctx, "repo-1").Return(privateRepo(), nil)

	t.Run("write contributor", func(t *testing.T) {
		contributors := new(MockContributors)
		contributors.On("Find", ctx, "user-test-123", "repo-1").
			Return(contributorAt(access.AccessLevelWrite, false), nil)

		checker := access.NewAccessChecker(resources, contributors)

		assert.NoError(t, checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelRead))
		assert.NoError(t, checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelWrite))
		assert.ErrorIs(t,
			checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelAdmin),
			access.ErrAdminRequired)
	})

	t.Run("read contributor", func(t *testing.T) {
		contributors := new(MockContributors)
		contributors.On("Find", ctx, "user-test-123", "repo-1").
			Return(contributorAt(access.AccessLevelRead, false), nil)

		checker := access.NewAccessChecker(resources, contributors)

		assert.NoError(t, checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelRead))
		assert.ErrorIs(t,
			checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelWrite),
			access.ErrWriteRequired)
	})

	t.Run("no contributor row", func(t *testing.T) {
		contributors := new(MockContributors)
		contributors.On("Find", ctx, "user-test-123", "repo-1").
			Return(nil, repository.NewRecordNotFound())

		checker := access.NewAccessChecker(resources, contributors)

		err := checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelRead)
		assert.ErrorIs(t, err, access.ErrNotAuthorized)
	})

	t.Run("pending contributor already holds the level", func(t *testing.T) {
		contributors := new(MockContributors)
		contributors.On("Find", ctx, "user-test-123", "repo-1").
			Return(contributorAt(access.AccessLevelWrite, true), nil)

		checker := access.NewAccessChecker(resources, contributors)

		assert.NoError(t, checker.CheckAccess(ctx, testUser(), "repo-1", access.AccessLevelWrite))
	})
}

func TestCheckAccessInvalidLevel(t *testing.T) {
	checker := access.NewAccessChecker(new(MockResources), new(MockContributors))

	err := checker.CheckAccess(context.Background(), testUser(), "repo-1", "owner")
	assert.ErrorIs(t, err, access.ErrInvalidAccessLevel)
}

func TestAuthorization(t *testing.T) {
	ctx := context.Background()

	resources := new(MockResources)
	resources.On("GetByID", ctx, "repo-1").Return(privateRepo(), nil)

	t.Run("anonymous", func(t *testing.T) {
		checker := access.NewAccessChecker(resources, new(MockContributors))

		status, contributor, err := checker.Authorization(ctx, nil, "repo-1")
		require.NoError(t, err)
		assert.Equal(t, access.AuthorizationNone, status)
		assert.Nil(t, contributor)
	})

	t.Run("owner", func(t *testing.T) {
		checker := access.NewAccessChecker(resources, new(MockContributors))
		owner := &access.User{ID: "user-owner"}

		status, _, err := checker.Authorization(ctx, owner, "repo-1")
		require.NoError(t, err)
		assert.Equal(t, access.AuthorizationOwner, status)
	})

	t.Run("pending invite", func(t *testing.T) {
		contributors := new(MockContributors)
		contributors.On("Find", ctx, "user-test-123", "repo-1").
			Return(contributorAt(access.AccessLevelRead, true), nil)

		checker := access.NewAccessChecker(resources, contributors)

		status, contributor, err := checker.Authorization(ctx, testUser(), "repo-1")
		require.NoError(t, err)
		assert.Equal(t, access.AuthorizationInvited, status)
		require.NotNil(t, contributor)
		assert.True(t, contributor.Pending)
	})

	t.Run("accepted contributor", func(t *testing.T) {
		contributors := new(MockContributors)
		contributors.On("Find", ctx, "user-test-123", "repo-1").
			Return(contributorAt(access.AccessLevelWrite, false), nil)

		checker := access.NewAccessChecker(resources, contributors)

		status, contributor, err := checker.Authorization(ctx, testUser(), "repo-1")
		require.NoError(t, err)
		assert.Equal(t, access.AuthorizationContributor, status)
		require.NotNil(t, contributor)
	})
}
