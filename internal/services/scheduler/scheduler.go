// Package services содержит планировщик подписок: пороговые уведомления
// об истечении, автоматическую приостановку просроченных серверов
// и операции приостановки, возобновления и продления.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/metrics"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Monitor предоставляет снимок серверов панели. Методы чтения отдают
// копии записей, флаг приостановки в снимке меняет только SetSuspended.
type Monitor interface {
	GetServerList(ctx context.Context, forceRefresh bool) ([]*models.ServerStatus, error)
	FindByUUID(uuid string) *models.ServerStatus
	SetSuspended(uuid string, suspended bool) bool
}

// PanelClient определяет операции панели, которые нужны планировщику.
type PanelClient interface {
	SuspendServer(ctx context.Context, id int) error
	UnsuspendServer(ctx context.Context, id int) error
}

// OrderService определяет операции заказов, которые нужны планировщику.
type OrderService interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CreateOrder(ctx context.Context, req models.DummyOrder) (*models.Order, error)
	AppendAdminNote(ctx context.Context, id, note string) error
}

// Notifier публикует уведомление для доставки покупателю.
type Notifier interface {
	Notify(notification models.Notification) error
}

// SchedulerService реализует автоматизацию жизненного цикла подписок.
type SchedulerService struct {
	monitor Monitor
	client  PanelClient
	orders  OrderService
	notify  Notifier
	log     *slog.Logger

	sentMu sync.Mutex
	// sent хранит отправленные пороговые ключи по заказам на время
	// жизни процесса, после рестарта уведомления могут повториться.
	sent map[string]map[string]bool

	queueMu sync.Mutex
	// suspendQueue защищает от повторной приостановки сервера,
	// пока предыдущая попытка ещё выполняется.
	suspendQueue map[string]bool

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(monitor Monitor, client PanelClient, orders OrderService, notify Notifier, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		monitor:      monitor,
		client:       client,
		orders:       orders,
		notify:       notify,
		log:          log,
		sent:         make(map[string]map[string]bool),
		suspendQueue: make(map[string]bool),
	}
}

// notifyThresholds — за сколько дней до истечения отправляются напоминания.
var notifyThresholds = []int{7, 3, 1}

// DeriveState вычисляет состояние подписки по записи кеша сверки.
// Приостановка сервера имеет приоритет над расчётом по сроку.
func DeriveState(server *models.ServerStatus) models.SubscriptionState {
	if server.Suspended {
		return models.SubscriptionSuspended
	}
	if server.OrderStatus == models.StatusCancelled {
		return models.SubscriptionCancelled
	}
	if server.ExpiresAt == nil {
		return models.SubscriptionActive
	}
	if server.DaysUntilExp <= 0 {
		return models.SubscriptionExpired
	}
	if server.DaysUntilExp <= 7 {
		return models.SubscriptionExpiring
	}
	return models.SubscriptionActive
}

// ListSubscriptions возвращает подписки, собранные из снимка кеша сверки.
// Серверы без сопоставленного заказа пропускаются.
func (s *SchedulerService) ListSubscriptions(ctx context.Context, forceRefresh bool) ([]*models.SubscriptionInfo, error) {
	servers, err := s.monitor.GetServerList(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string]*models.SubscriptionInfo)
	var result []*models.SubscriptionInfo
	for _, server := range servers {
		if server.OrderID == "" {
			continue
		}
		info, ok := byOrder[server.OrderID]
		if !ok {
			info = &models.SubscriptionInfo{
				OrderID:      server.OrderID,
				Customer:     *server.Customer,
				PackageID:    server.PackageID,
				ExpiresAt:    server.ExpiresAt,
				DaysUntilExp: server.DaysUntilExp,
				State:        DeriveState(server),
				SentKeys:     s.sentKeys(server.OrderID),
			}
			byOrder[server.OrderID] = info
			result = append(result, info)
		}
		info.ServerUUIDs = append(info.ServerUUIDs, server.UUID)
	}
	return result, nil
}

// ProcessSubscriptions выполняет один проход планировщика: принудительное
// сканирование панели, пороговые уведомления и приостановка просроченных
// серверов. Ошибка обработки отдельного сервера не прерывает проход.
func (s *SchedulerService) ProcessSubscriptions(ctx context.Context) error {
	servers, err := s.monitor.GetServerList(ctx, true)
	if err != nil {
		return fmt.Errorf("scheduler.ProcessSubscriptions: %w", err)
	}

	for _, server := range servers {
		if server.OrderID == "" || server.ExpiresAt == nil {
			continue
		}
		if server.OrderStatus == models.StatusCancelled {
			continue
		}

		s.sendDueNotifications(server)

		// Грейс-период: приостановка наступает на следующий день
		// после истечения.
		if !server.Suspended && server.DaysUntilExp <= -1 {
			s.autoSuspend(ctx, server)
		}
	}
	return nil
}

// sendDueNotifications отправляет пороговые напоминания и уведомление
// об истечении, каждое не более одного раза на заказ за время жизни
// процесса.
func (s *SchedulerService) sendDueNotifications(server *models.ServerStatus) {
	for _, threshold := range notifyThresholds {
		if server.DaysUntilExp == threshold {
			key := fmt.Sprintf("d%d", threshold)
			s.sendOnce(server, key, fmt.Sprintf(
				"Ваша подписка на сервер %s истекает через %d дн. Продлите её, чтобы избежать приостановки.",
				server.Name, threshold))
		}
	}
	if server.DaysUntilExp <= 0 {
		s.sendOnce(server, "expired", fmt.Sprintf(
			"Срок подписки на сервер %s истёк. Сервер будет приостановлен, если оплата не поступит.",
			server.Name))
	}
}

// sendOnce публикует уведомление, если ключ ещё не отмечен. Ключ
// отмечается независимо от результата публикации, чтобы сбой брокера
// не превращался в шторм повторных сообщений.
func (s *SchedulerService) sendOnce(server *models.ServerStatus, key, text string) {
	s.sentMu.Lock()
	keys, ok := s.sent[server.OrderID]
	if !ok {
		keys = make(map[string]bool)
		s.sent[server.OrderID] = keys
	}
	if keys[key] {
		s.sentMu.Unlock()
		return
	}
	keys[key] = true
	s.sentMu.Unlock()

	recipient := server.Customer.Phone
	if server.Customer.ChatID != "" {
		recipient = server.Customer.ChatID
	}
	err := s.notify.Notify(models.Notification{
		Recipient: recipient,
		Text:      text,
		OrderID:   server.OrderID,
		Kind:      key,
	})
	if err != nil {
		s.log.Error("failed to publish notification",
			sl.Order(server.OrderID), slog.String("kind", key), sl.Err(err))
		return
	}
	metrics.NotificationsPublished.Inc()
	s.log.Info("notification published", sl.Order(server.OrderID), slog.String("kind", key))
}

// autoSuspend приостанавливает просроченный сервер, защищаясь от
// повторного входа по UUID.
func (s *SchedulerService) autoSuspend(ctx context.Context, server *models.ServerStatus) {
	s.queueMu.Lock()
	if s.suspendQueue[server.UUID] {
		s.queueMu.Unlock()
		return
	}
	s.suspendQueue[server.UUID] = true
	s.queueMu.Unlock()
	defer func() {
		s.queueMu.Lock()
		delete(s.suspendQueue, server.UUID)
		s.queueMu.Unlock()
	}()

	if err := s.client.SuspendServer(ctx, server.RemoteID); err != nil {
		s.log.Error("failed to suspend overdue server",
			slog.String("uuid", server.UUID), sl.Err(err))
		return
	}
	s.monitor.SetSuspended(server.UUID, true)
	metrics.ServersSuspended.Inc()
	s.log.Info("server suspended for overdue subscription",
		slog.String("uuid", server.UUID), sl.Order(server.OrderID))

	if server.OrderID != "" {
		note := fmt.Sprintf("Server %s suspended automatically: subscription overdue", server.Name)
		if err := s.orders.AppendAdminNote(ctx, server.OrderID, note); err != nil {
			s.log.Warn("failed to append admin note", sl.Order(server.OrderID), sl.Err(err))
		}
	}
}

// SuspendServer приостанавливает сервер по UUID. Идемпотентен:
// уже приостановленный сервер не трогается.
func (s *SchedulerService) SuspendServer(ctx context.Context, uuid, reason string) error {
	server := s.monitor.FindByUUID(uuid)
	if server == nil {
		return apperrors.ErrNotFound
	}
	if server.Suspended {
		s.log.Info("server already suspended", slog.String("uuid", uuid))
		return nil
	}

	if err := s.client.SuspendServer(ctx, server.RemoteID); err != nil {
		return fmt.Errorf("scheduler.SuspendServer: %w", err)
	}
	s.monitor.SetSuspended(uuid, true)
	s.log.Info("server suspended", slog.String("uuid", uuid), slog.String("reason", reason))

	if server.OrderID != "" {
		note := fmt.Sprintf("Server %s suspended: %s", server.Name, reason)
		if err := s.orders.AppendAdminNote(ctx, server.OrderID, note); err != nil {
			s.log.Warn("failed to append admin note", sl.Order(server.OrderID), sl.Err(err))
		}
	}
	return nil
}

// ResumeServer возобновляет приостановленный сервер по UUID. Идемпотентен:
// работающий сервер не трогается.
func (s *SchedulerService) ResumeServer(ctx context.Context, uuid, reason string) error {
	server := s.monitor.FindByUUID(uuid)
	if server == nil {
		return apperrors.ErrNotFound
	}
	if !server.Suspended {
		s.log.Info("server is not suspended", slog.String("uuid", uuid))
		return nil
	}

	if err := s.client.UnsuspendServer(ctx, server.RemoteID); err != nil {
		return fmt.Errorf("scheduler.ResumeServer: %w", err)
	}
	s.monitor.SetSuspended(uuid, false)
	s.log.Info("server resumed", slog.String("uuid", uuid), slog.String("reason", reason))

	if server.OrderID != "" {
		note := fmt.Sprintf("Server %s resumed: %s", server.Name, reason)
		if err := s.orders.AppendAdminNote(ctx, server.OrderID, note); err != nil {
			s.log.Warn("failed to append admin note", sl.Order(server.OrderID), sl.Err(err))
		}
	}
	return nil
}

// RenewSubscription продлевает подписку: создает новый заказ с теми же
// покупателем и пакетом и возобновляет приостановленный сервер.
// Без подтверждённой оплаты продление отклоняется.
func (s *SchedulerService) RenewSubscription(ctx context.Context, orderID string, req models.DummyRenew) (*models.Order, error) {
	const op = "scheduler.RenewSubscription"

	if !req.PaymentReceived {
		return nil, apperrors.ErrPaymentRequired
	}

	original, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	renewal, err := s.orders.CreateOrder(ctx, models.DummyOrder{
		Phone:          original.Customer.Phone,
		Name:           original.Customer.Name,
		ChatID:         original.Customer.ChatID,
		PackageID:      original.PackageID,
		DurationMonths: req.DurationMonths,
		CustomerNote:   "Renewal of order " + original.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	note := fmt.Sprintf("Renewed for %d month(s), new order %s", req.DurationMonths, renewal.ID)
	if err := s.orders.AppendAdminNote(ctx, original.ID, note); err != nil {
		s.log.Warn("failed to append admin note", sl.Order(original.ID), sl.Err(err))
	}

	if original.ServerID != "" {
		server := s.monitor.FindByUUID(original.ServerID)
		if server != nil && server.Suspended {
			if err := s.ResumeServer(ctx, server.UUID, "subscription renewed"); err != nil {
				s.log.Error("failed to resume server after renewal",
					slog.String("uuid", server.UUID), sl.Err(err))
			}
		}
	}

	s.log.Info("subscription renewed", sl.Order(original.ID),
		slog.String("renewal_order", renewal.ID), slog.Int("months", req.DurationMonths))
	return renewal, nil
}

// StartScheduler запускает периодическую обработку подписок. Повторный
// вызов при уже запущенном планировщике — no-op.
func (s *SchedulerService) StartScheduler(ctx context.Context, interval time.Duration) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		s.log.Info("scheduler already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	stopCh := s.stopCh
	go func() {
		for {
			if err := s.ProcessSubscriptions(ctx); err != nil {
				s.log.Error("subscription pass failed", sl.Err(err))
			}
			select {
			case <-time.After(interval):
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.log.Info("scheduler started", slog.Duration("interval", interval))
}

// StopScheduler останавливает планировщик. Безопасно вызывать без запуска.
func (s *SchedulerService) StopScheduler() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.log.Info("scheduler stopped")
}

func (s *SchedulerService) sentKeys(orderID string) []string {
	s.sentMu.Lock()
	defer s.sentMu.Unlock()
	var keys []string
	for k := range s.sent[orderID] {
		keys = append(keys, k)
	}
	return keys
}
