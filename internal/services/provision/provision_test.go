package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/config"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
	"github.com/magabrotheeeer/hosting-aggregator/internal/panel"
)

type MockPanelClient struct {
	mock.Mock
}

func (m *MockPanelClient) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPanelClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPanelClient) CreateUser(ctx context.Context, req panel.CreateUserRequest) (*panel.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*panel.User), args.Error(1)
}

func (m *MockPanelClient) DeleteUser(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPanelClient) ListAllocations(ctx context.Context, nodeID int) ([]panel.Allocation, error) {
	args := m.Called(ctx, nodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]panel.Allocation), args.Error(1)
}

func (m *MockPanelClient) CreateAllocations(ctx context.Context, nodeID int, req panel.CreateAllocationsRequest) error {
	args := m.Called(ctx, nodeID, req)
	return args.Error(0)
}

func (m *MockPanelClient) CreateServer(ctx context.Context, req panel.CreateServerRequest) (*panel.Server, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*panel.Server), args.Error(1)
}

func (m *MockPanelClient) DeleteServer(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testConfig() *config.Config {
	return &config.Config{
		Panel: config.Panel{
			BaseURL:            "https://panel.example.com",
			APIKey:             "key",
			EmailDomain:        "panel.local",
			AllocationIP:       "0.0.0.0",
			AllocationPortFrom: 25565,
			AllocationPortTo:   25567,
		},
		Mappings: []models.ResourceMapping{
			{
				PackageID:   "a1",
				EggID:       5,
				DockerImage: "ghcr.io/pterodactyl/yolks:java_17",
				Startup:     "java -jar server.jar",
				NodeID:      1,
			},
		},
	}
}

func testOrder() *models.Order {
	return &models.Order{
		ID:        "TEST0001",
		Customer:  models.Customer{Phone: "+6281234567890", Name: "Budi"},
		PackageID: "a1",
	}
}

func TestProvisionService_NotConfigured(t *testing.T) {
	client := new(MockPanelClient)
	client.On("IsConfigured").Return(false).Once()

	svc := NewProvisionService(client, testConfig(), newNoopLogger())
	result, err := svc.Provision(context.Background(), testOrder())

	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Empty(t, result.RollbackActions)
	client.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	client.AssertExpectations(t)
}

func TestProvisionService_HealthCheckFails(t *testing.T) {
	client := new(MockPanelClient)
	client.On("IsConfigured").Return(true).Once()
	client.On("Health", mock.Anything).Return(errors.New("connection refused")).Once()

	svc := NewProvisionService(client, testConfig(), newNoopLogger())
	result, err := svc.Provision(context.Background(), testOrder())

	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.False(t, result.Success)
	client.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestProvisionService_UserCreateFails_NoRollback(t *testing.T) {
	client := new(MockPanelClient)
	client.On("IsConfigured").Return(true).Once()
	client.On("Health", mock.Anything).Return(nil).Once()
	client.On("CreateUser", mock.Anything, mock.Anything).Return(nil, errors.New("email taken")).Once()

	svc := NewProvisionService(client, testConfig(), newNoopLogger())
	result, err := svc.Provision(context.Background(), testOrder())

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.RollbackActions)
	client.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "DeleteServer", mock.Anything, mock.Anything)
}

func TestProvisionService_ServerCreateFails_RollsBackUser(t *testing.T) {
	client := new(MockPanelClient)
	client.On("IsConfigured").Return(true).Once()
	client.On("Health", mock.Anything).Return(nil).Once()
	client.On("CreateUser", mock.Anything, mock.Anything).Return(&panel.User{ID: 42}, nil).Once()
	client.On("ListAllocations", mock.Anything, 1).
		Return([]panel.Allocation{{ID: 7, Assigned: false}}, nil).Once()
	client.On("CreateServer", mock.Anything, mock.Anything).Return(nil, errors.New("node full")).Once()
	client.On("DeleteUser", mock.Anything, 42).Return(nil).Once()

	svc := NewProvisionService(client, testConfig(), newNoopLogger())
	result, err := svc.Provision(context.Background(), testOrder())

	require.Error(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.RollbackActions, 1)
	assert.Equal(t, "delete user 42", result.RollbackActions[0])
	client.AssertExpectations(t)
}

func TestProvisionService_NoMapping(t *testing.T) {
	client := new(MockPanelClient)
	client.On("IsConfigured").Return(true).Once()
	client.On("Health", mock.Anything).Return(nil).Once()
	client.On("CreateUser", mock.Anything, mock.Anything).Return(&panel.User{ID: 42}, nil).Once()
	client.On("DeleteUser", mock.Anything, 42).Return(nil).Once()

	order := testOrder()
	order.PackageID = "b2"

	svc := NewProvisionService(client, testConfig(), newNoopLogger())
	result, err := svc.Provision(context.Background(), order)

	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	require.Len(t, result.RollbackActions, 1)
	client.AssertExpectations(t)
}

func TestProvisionService_AllocationExhaustion(t *testing.T) {
	client := new(MockPanelClient)
	client.On("IsConfigured").Return(true).Once()
	client.On("Health", mock.Anything).Return(nil).Once()
	client.On("CreateUser", mock.Anything, mock.Anything).Return(&panel.User{ID: 42}, nil).Once()
	// Свободных аллокаций нет ни до, ни после создания пачки портов.
	client.On("ListAllocations", mock.Anything, 1).
		Return([]panel.Allocation{{ID: 7, Assigned: true}}, nil).Twice()
	client.On("CreateAllocations", mock.Anything, 1,
		mock.MatchedBy(func(req panel.CreateAllocationsRequest) bool {
			return len(req.Ports) == 3
		})).Return(nil).Once()
	client.On("DeleteUser", mock.Anything, 42).Return(nil).Once()

	svc := NewProvisionService(client, testConfig(), newNoopLogger())
	result, err := svc.Provision(context.Background(), testOrder())

	require.Error(t, err)
	var exhaustion *apperrors.ResourceExhaustionError
	require.True(t, errors.As(err, &exhaustion))
	assert.Equal(t, 1, exhaustion.NodeID)
	assert.False(t, result.Success)
	client.AssertExpectations(t)
}

func TestProvisionService_Success(t *testing.T) {
	client := new(MockPanelClient)
	client.On("IsConfigured").Return(true).Once()
	client.On("Health", mock.Anything).Return(nil).Once()
	client.On("CreateUser", mock.Anything, mock.MatchedBy(func(req panel.CreateUserRequest) bool {
		return req.LastName == "TEST0001" && req.Password != ""
	})).Return(&panel.User{ID: 42}, nil).Once()
	client.On("ListAllocations", mock.Anything, 1).
		Return([]panel.Allocation{{ID: 7, Assigned: false}}, nil).Once()
	client.On("CreateServer", mock.Anything, mock.MatchedBy(func(req panel.CreateServerRequest) bool {
		return req.Name == "A1-TEST0001" && req.UserID == 42 && req.AllocationID == 7
	})).Return(&panel.Server{ID: 99, UUID: "uuid-99", Name: "A1-TEST0001"}, nil).Once()

	svc := NewProvisionService(client, testConfig(), newNoopLogger())
	result, err := svc.Provision(context.Background(), testOrder())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 42, result.UserID)
	assert.Equal(t, 99, result.ServerID)
	require.NotNil(t, result.Credentials)
	assert.Equal(t, "uuid-99", result.Credentials.ServerUUID)
	assert.Equal(t, "A1-TEST0001", result.Credentials.ServerName)
	assert.Equal(t, "https://panel.example.com", result.Credentials.PanelURL)
	assert.Empty(t, result.RollbackActions)
	client.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "DeleteServer", mock.Anything, mock.Anything)
	client.AssertExpectations(t)
}
