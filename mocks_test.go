package access_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	access "github.com/agenthublabs/go-access"
)

// MockVerifier implements access.IdentityVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) IntrospectAccessToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockVerifier) GetUser(ctx context.Context, subject string) (*access.ProviderUser, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.ProviderUser), args.Error(1)
}

func (m *MockVerifier) AuthenticateSession(ctx context.Context, token string) (*access.ProviderUser, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.ProviderUser), args.Error(1)
}

func (m *MockVerifier) RevokeSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockUsers implements access.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id string) (*access.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.User), args.Error(1)
}

func (m *MockUsers) GetByExternalID(ctx context.Context, externalID string) (*access.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*access.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.User), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *access.User) (*access.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.User), args.Error(1)
}

func (m *MockUsers) SetAPIKey(ctx context.Context, id, apiKeyHash string) error {
	args := m.Called(ctx, id, apiKeyHash)
	return args.Error(0)
}

// MockResources implements access.Resources
type MockResources struct {
	mock.Mock
}

func (m *MockResources) GetByID(ctx context.Context, id string) (*access.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Resource), args.Error(1)
}

func (m *MockResources) Create(ctx context.Context, record *access.Resource) (*access.Resource, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Resource), args.Error(1)
}

func (m *MockResources) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockContributors implements the query and conditional-write surface of
// access.Contributors
type MockContributors struct {
	mock.Mock
}

func (m *MockContributors) Find(ctx context.Context, userID, resourceID string) (*access.Contributor, error) {
	args := m.Called(ctx, userID, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Contributor), args.Error(1)
}

func (m *MockContributors) FindByID(ctx context.Context, id uuid.UUID, resourceID string) (*access.Contributor, error) {
	args := m.Called(ctx, id, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Contributor), args.Error(1)
}

func (m *MockContributors) FindByEmail(ctx context.Context, email, resourceID string) (*access.Contributor, error) {
	args := m.Called(ctx, email, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Contributor), args.Error(1)
}

func (m *MockContributors) ListByResource(ctx context.Context, resourceID string) ([]*access.Contributor, error) {
	args := m.Called(ctx, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*access.Contributor), args.Error(1)
}

func (m *MockContributors) CreatePending(ctx context.Context, record *access.Contributor) (*access.Contributor, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Contributor), args.Error(1)
}

func (m *MockContributors) AcceptPending(ctx context.Context, userID, resourceID, username string, at time.Time) (*access.Contributor, error) {
	args := m.Called(ctx, userID, resourceID, username, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Contributor), args.Error(1)
}

func (m *MockContributors) UpdateAccessLevel(ctx context.Context, id uuid.UUID, resourceID string, level access.AccessLevel) (*access.Contributor, error) {
	args := m.Called(ctx, id, resourceID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Contributor), args.Error(1)
}

func (m *MockContributors) Delete(ctx context.Context, id uuid.UUID, resourceID string) error {
	args := m.Called(ctx, id, resourceID)
	return args.Error(0)
}

func (m *MockContributors) DeleteByUserResource(ctx context.Context, userID, resourceID string) error {
	args := m.Called(ctx, userID, resourceID)
	return args.Error(0)
}

// MockActivitySink records activity events for assertions
type MockActivitySink struct {
	mock.Mock
	Events []access.ActivityEvent
}

func (m *MockActivitySink) Record(ctx context.Context, event access.ActivityEvent) error {
	m.Events = append(m.Events, event)
	args := m.Called(ctx, event)
	return args.Error(0)
}
