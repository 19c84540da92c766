package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

type MockMonitor struct {
	mock.Mock
}

func (m *MockMonitor) GetServerList(ctx context.Context, forceRefresh bool) ([]*models.ServerStatus, error) {
	args := m.Called(ctx, forceRefresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ServerStatus), args.Error(1)
}

func (m *MockMonitor) FindByUUID(uuid string) *models.ServerStatus {
	args := m.Called(uuid)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.ServerStatus)
}

func (m *MockMonitor) SetSuspended(uuid string, suspended bool) bool {
	args := m.Called(uuid, suspended)
	return args.Bool(0)
}

type MockPanelClient struct {
	mock.Mock
}

func (m *MockPanelClient) SuspendServer(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPanelClient) UnsuspendServer(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req models.DummyOrder) (*models.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) AppendAdminNote(ctx context.Context, id, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(notification models.Notification) error {
	args := m.Called(notification)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newScheduler(monitor *MockMonitor, client *MockPanelClient, orders *MockOrderService, notify *MockNotifier) *SchedulerService {
	return NewSchedulerService(monitor, client, orders, notify, newNoopLogger())
}

func serverDueIn(days int) *models.ServerStatus {
	expires := time.Now().AddDate(0, 0, days)
	return &models.ServerStatus{
		UUID:         "uuid-1",
		RemoteID:     11,
		Name:         "A1-F3D2C1B0",
		OrderID:      "F3D2C1B0",
		OrderStatus:  models.StatusCompleted,
		Customer:     &models.Customer{Phone: "+6281234567890", ChatID: "chat-42"},
		PackageID:    "a1",
		ExpiresAt:    &expires,
		DaysUntilExp: days,
	}
}

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name   string
		server *models.ServerStatus
		want   models.SubscriptionState
	}{
		{name: "active", server: serverDueIn(30), want: models.SubscriptionActive},
		{name: "expiring at 7 days", server: serverDueIn(7), want: models.SubscriptionExpiring},
		{name: "expiring at 1 day", server: serverDueIn(1), want: models.SubscriptionExpiring},
		{name: "expired at 0 days", server: serverDueIn(0), want: models.SubscriptionExpired},
		{name: "expired overdue", server: serverDueIn(-3), want: models.SubscriptionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveState(tt.server))
		})
	}

	t.Run("suspension wins over expiry", func(t *testing.T) {
		server := serverDueIn(-3)
		server.Suspended = true
		assert.Equal(t, models.SubscriptionSuspended, DeriveState(server))
	})

	t.Run("cancelled order", func(t *testing.T) {
		server := serverDueIn(30)
		server.OrderStatus = models.StatusCancelled
		assert.Equal(t, models.SubscriptionCancelled, DeriveState(server))
	})

	t.Run("no expiry means active", func(t *testing.T) {
		server := serverDueIn(30)
		server.ExpiresAt = nil
		assert.Equal(t, models.SubscriptionActive, DeriveState(server))
	})
}

func TestSchedulerService_ThresholdNotifications(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		wantKind string
		wantSent bool
	}{
		{name: "seven days before", days: 7, wantKind: "d7", wantSent: true},
		{name: "three days before", days: 3, wantKind: "d3", wantSent: true},
		{name: "one day before", days: 1, wantKind: "d1", wantSent: true},
		{name: "expired", days: 0, wantKind: "expired", wantSent: true},
		{name: "between thresholds", days: 5, wantSent: false},
		{name: "far from expiry", days: 30, wantSent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := new(MockMonitor)
			notify := new(MockNotifier)

			monitor.On("GetServerList", mock.Anything, true).
				Return([]*models.ServerStatus{serverDueIn(tt.days)}, nil).Once()
			if tt.wantSent {
				notify.On("Notify", mock.MatchedBy(func(n models.Notification) bool {
					return n.Kind == tt.wantKind && n.Recipient == "chat-42" && n.OrderID == "F3D2C1B0"
				})).Return(nil).Once()
			}

			svc := newScheduler(monitor, new(MockPanelClient), new(MockOrderService), notify)
			err := svc.ProcessSubscriptions(context.Background())

			require.NoError(t, err)
			notify.AssertExpectations(t)
			if !tt.wantSent {
				notify.AssertNotCalled(t, "Notify", mock.Anything)
			}
		})
	}
}

func TestSchedulerService_NotificationsDeduplicated(t *testing.T) {
	monitor := new(MockMonitor)
	notify := new(MockNotifier)

	monitor.On("GetServerList", mock.Anything, true).
		Return([]*models.ServerStatus{serverDueIn(7)}, nil)
	notify.On("Notify", mock.Anything).Return(nil).Once()

	svc := newScheduler(monitor, new(MockPanelClient), new(MockOrderService), notify)
	require.NoError(t, svc.ProcessSubscriptions(context.Background()))
	require.NoError(t, svc.ProcessSubscriptions(context.Background()))
	require.NoError(t, svc.ProcessSubscriptions(context.Background()))

	notify.AssertNumberOfCalls(t, "Notify", 1)
}

func TestSchedulerService_NotifyErrorDoesNotRetry(t *testing.T) {
	monitor := new(MockMonitor)
	notify := new(MockNotifier)

	monitor.On("GetServerList", mock.Anything, true).
		Return([]*models.ServerStatus{serverDueIn(3)}, nil)
	notify.On("Notify", mock.Anything).Return(errors.New("broker down")).Once()

	svc := newScheduler(monitor, new(MockPanelClient), new(MockOrderService), notify)
	require.NoError(t, svc.ProcessSubscriptions(context.Background()))
	require.NoError(t, svc.ProcessSubscriptions(context.Background()))

	// Ключ отмечен при первой попытке, повторной публикации нет.
	notify.AssertNumberOfCalls(t, "Notify", 1)
}

func TestSchedulerService_AutoSuspendAfterGrace(t *testing.T) {
	tests := []struct {
		name        string
		days        int
		suspended   bool
		wantSuspend bool
	}{
		{name: "expired today stays in grace", days: 0},
		{name: "one day overdue is suspended", days: -1, wantSuspend: true},
		{name: "long overdue is suspended", days: -10, wantSuspend: true},
		{name: "already suspended is skipped", days: -5, suspended: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := new(MockMonitor)
			client := new(MockPanelClient)
			orders := new(MockOrderService)
			notify := new(MockNotifier)

			server := serverDueIn(tt.days)
			server.Suspended = tt.suspended
			monitor.On("GetServerList", mock.Anything, true).
				Return([]*models.ServerStatus{server}, nil).Once()
			notify.On("Notify", mock.Anything).Return(nil).Maybe()
			if tt.wantSuspend {
				client.On("SuspendServer", mock.Anything, 11).Return(nil).Once()
				monitor.On("SetSuspended", "uuid-1", true).
					Run(func(mock.Arguments) { server.Suspended = true }).Return(true).Once()
				orders.On("AppendAdminNote", mock.Anything, "F3D2C1B0", mock.Anything).Return(nil).Once()
			}

			svc := newScheduler(monitor, client, orders, notify)
			require.NoError(t, svc.ProcessSubscriptions(context.Background()))

			if tt.wantSuspend {
				client.AssertExpectations(t)
				monitor.AssertExpectations(t)
				assert.True(t, server.Suspended)
			} else {
				client.AssertNotCalled(t, "SuspendServer", mock.Anything, mock.Anything)
				monitor.AssertNotCalled(t, "SetSuspended", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSchedulerService_AutoSuspendNotRepeatedWhileInFlight(t *testing.T) {
	monitor := new(MockMonitor)
	client := new(MockPanelClient)
	orders := new(MockOrderService)
	notify := new(MockNotifier)

	// Каждый проход получает свежесобранный снимок того же сервера:
	// пока вызов панели не завершён, флаг приостановки в нём не выставлен.
	monitor.On("GetServerList", mock.Anything, true).
		Return([]*models.ServerStatus{serverDueIn(-2)}, nil).Once()
	monitor.On("GetServerList", mock.Anything, true).
		Return([]*models.ServerStatus{serverDueIn(-2)}, nil).Once()
	monitor.On("SetSuspended", "uuid-1", true).Return(true).Once()
	notify.On("Notify", mock.Anything).Return(nil).Maybe()
	orders.On("AppendAdminNote", mock.Anything, "F3D2C1B0", mock.Anything).Return(nil).Once()

	entered := make(chan struct{})
	release := make(chan struct{})
	client.On("SuspendServer", mock.Anything, 11).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(nil).Once()

	svc := newScheduler(monitor, client, orders, notify)

	done := make(chan error, 1)
	go func() { done <- svc.ProcessSubscriptions(context.Background()) }()
	<-entered

	// Второй проход стартует, пока приостановка первого ещё выполняется.
	require.NoError(t, svc.ProcessSubscriptions(context.Background()))

	close(release)
	require.NoError(t, <-done)

	client.AssertNumberOfCalls(t, "SuspendServer", 1)
	monitor.AssertExpectations(t)
}

func TestSchedulerService_CancelledOrderIgnored(t *testing.T) {
	monitor := new(MockMonitor)
	client := new(MockPanelClient)
	notify := new(MockNotifier)

	server := serverDueIn(-5)
	server.OrderStatus = models.StatusCancelled
	monitor.On("GetServerList", mock.Anything, true).
		Return([]*models.ServerStatus{server}, nil).Once()

	svc := newScheduler(monitor, client, new(MockOrderService), notify)
	require.NoError(t, svc.ProcessSubscriptions(context.Background()))

	notify.AssertNotCalled(t, "Notify", mock.Anything)
	client.AssertNotCalled(t, "SuspendServer", mock.Anything, mock.Anything)
}

func TestSchedulerService_SuspendServer_Idempotent(t *testing.T) {
	monitor := new(MockMonitor)
	client := new(MockPanelClient)
	orders := new(MockOrderService)

	server := serverDueIn(10)
	server.Suspended = true
	monitor.On("FindByUUID", "uuid-1").Return(server)

	svc := newScheduler(monitor, client, orders, new(MockNotifier))
	err := svc.SuspendServer(context.Background(), "uuid-1", "manual")

	require.NoError(t, err)
	client.AssertNotCalled(t, "SuspendServer", mock.Anything, mock.Anything)
}

func TestSchedulerService_SuspendServer_NotFound(t *testing.T) {
	monitor := new(MockMonitor)
	monitor.On("FindByUUID", "uuid-404").Return(nil)

	svc := newScheduler(monitor, new(MockPanelClient), new(MockOrderService), new(MockNotifier))
	err := svc.SuspendServer(context.Background(), "uuid-404", "manual")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSchedulerService_ResumeServer(t *testing.T) {
	monitor := new(MockMonitor)
	client := new(MockPanelClient)
	orders := new(MockOrderService)

	server := serverDueIn(10)
	server.Suspended = true
	monitor.On("FindByUUID", "uuid-1").Return(server)
	monitor.On("SetSuspended", "uuid-1", false).
		Run(func(mock.Arguments) { server.Suspended = false }).Return(true).Once()
	client.On("UnsuspendServer", mock.Anything, 11).Return(nil).Once()
	orders.On("AppendAdminNote", mock.Anything, "F3D2C1B0", mock.Anything).Return(nil).Once()

	svc := newScheduler(monitor, client, orders, new(MockNotifier))
	err := svc.ResumeServer(context.Background(), "uuid-1", "payment received")

	require.NoError(t, err)
	assert.False(t, server.Suspended)

	// Повторное возобновление уже работающего сервера — no-op.
	err = svc.ResumeServer(context.Background(), "uuid-1", "payment received")
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "UnsuspendServer", 1)
}

func TestSchedulerService_RenewSubscription(t *testing.T) {
	t.Run("payment not confirmed", func(t *testing.T) {
		svc := newScheduler(new(MockMonitor), new(MockPanelClient), new(MockOrderService), new(MockNotifier))

		_, err := svc.RenewSubscription(context.Background(), "F3D2C1B0",
			models.DummyRenew{DurationMonths: 3, PaymentReceived: false})

		assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)
	})

	t.Run("creates renewal order and resumes server", func(t *testing.T) {
		monitor := new(MockMonitor)
		client := new(MockPanelClient)
		orders := new(MockOrderService)

		original := &models.Order{
			ID:        "F3D2C1B0",
			Customer:  models.Customer{Phone: "+6281234567890", Name: "Budi", ChatID: "chat-42"},
			PackageID: "a1",
			ServerID:  "uuid-1",
		}
		renewal := &models.Order{ID: "AB12CD34", PackageID: "a1"}

		orders.On("GetOrder", mock.Anything, "F3D2C1B0").Return(original, nil).Once()
		orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req models.DummyOrder) bool {
			return req.Phone == "+6281234567890" && req.PackageID == "a1" && req.DurationMonths == 3
		})).Return(renewal, nil).Once()
		orders.On("AppendAdminNote", mock.Anything, "F3D2C1B0", mock.Anything).Return(nil)

		suspended := serverDueIn(-2)
		suspended.Suspended = true
		monitor.On("FindByUUID", "uuid-1").Return(suspended)
		monitor.On("SetSuspended", "uuid-1", false).
			Run(func(mock.Arguments) { suspended.Suspended = false }).Return(true).Once()
		client.On("UnsuspendServer", mock.Anything, 11).Return(nil).Once()

		svc := newScheduler(monitor, client, orders, new(MockNotifier))
		got, err := svc.RenewSubscription(context.Background(), "F3D2C1B0",
			models.DummyRenew{DurationMonths: 3, PaymentReceived: true})

		require.NoError(t, err)
		assert.Equal(t, "AB12CD34", got.ID)
		client.AssertExpectations(t)
		orders.AssertExpectations(t)
	})

	t.Run("original order not found", func(t *testing.T) {
		orders := new(MockOrderService)
		orders.On("GetOrder", mock.Anything, "MISSING1").Return(nil, apperrors.ErrNotFound).Once()

		svc := newScheduler(new(MockMonitor), new(MockPanelClient), orders, new(MockNotifier))
		_, err := svc.RenewSubscription(context.Background(), "MISSING1",
			models.DummyRenew{DurationMonths: 1, PaymentReceived: true})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestSchedulerService_ListSubscriptions(t *testing.T) {
	monitor := new(MockMonitor)

	managed := serverDueIn(5)
	unmanaged := &models.ServerStatus{UUID: "uuid-x", Name: "legacy"}
	monitor.On("GetServerList", mock.Anything, false).
		Return([]*models.ServerStatus{managed, unmanaged}, nil).Once()

	svc := newScheduler(monitor, new(MockPanelClient), new(MockOrderService), new(MockNotifier))
	subs, err := svc.ListSubscriptions(context.Background(), false)

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "F3D2C1B0", subs[0].OrderID)
	assert.Equal(t, models.SubscriptionExpiring, subs[0].State)
	assert.Equal(t, []string{"uuid-1"}, subs[0].ServerUUIDs)
}

func TestSchedulerService_StartStopIdempotent(t *testing.T) {
	monitor := new(MockMonitor)
	monitor.On("GetServerList", mock.Anything, true).Return([]*models.ServerStatus{}, nil)

	svc := newScheduler(monitor, new(MockPanelClient), new(MockOrderService), new(MockNotifier))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.StartScheduler(ctx, time.Hour)
	svc.StartScheduler(ctx, time.Hour)
	svc.StopScheduler()
	svc.StopScheduler()
}
