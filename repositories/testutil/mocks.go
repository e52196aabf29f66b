package testutil

import (
	"context"
	"testing"

	"matchverse/models"
	"matchverse/repositories"

	"github.com/stretchr/testify/mock"
)

// Assert the expectations of all mocks.
func VerifyAllMocks(t *testing.T, mocks ...any) {
	t.Helper()

	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(mock.TestingT) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

// MockStore is a testify mock of repositories.Store.
type MockStore struct {
	mock.Mock
}

var _ repositories.Store = (*MockStore)(nil)

func (m *MockStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockStore) FindBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if b, ok := args.Get(0).(*models.Booking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateMatchRequest(ctx context.Context, req *models.MatchRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockStore) FindMatchRequest(ctx context.Context, id string) (*models.MatchRequest, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*models.MatchRequest); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) FindMatchRequests(ctx context.Context, filter repositories.MatchRequestFilter) ([]models.MatchRequest, error) {
	args := m.Called(ctx, filter)
	if r, ok := args.Get(0).([]models.MatchRequest); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdateMatchRequest(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockStore) UpdateMatchRequests(ctx context.Context, ids []string, fields map[string]interface{}) error {
	args := m.Called(ctx, ids, fields)
	return args.Error(0)
}

func (m *MockStore) PairMatchRequests(ctx context.Context, a, b models.MatchRequest) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}

func (m *MockStore) CountMatchRequestsByStatus(ctx context.Context) (map[models.MatchStatus]int64, error) {
	args := m.Called(ctx)
	if c, ok := args.Get(0).(map[models.MatchStatus]int64); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateMatchResult(ctx context.Context, result *models.MatchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockStore) FindMatchResultByMatch(ctx context.Context, matchID string) (*models.MatchResult, error) {
	args := m.Called(ctx, matchID)
	if r, ok := args.Get(0).(*models.MatchResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
