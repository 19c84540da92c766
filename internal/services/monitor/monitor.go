// Package services содержит кеш сверки серверов: периодический опрос
// полного списка серверов панели, сопоставление каждого сервера
// с локальным заказом по имени и атомарная замена снимка.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/expiry"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/metrics"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
	"github.com/magabrotheeeer/hosting-aggregator/internal/panel"
)

// PanelClient определяет операции панели, которые нужны кешу сверки.
type PanelClient interface {
	ListServers(ctx context.Context) ([]panel.Server, error)
	GetServerUsage(ctx context.Context, uuid string) (*models.ResourceUsage, error)
}

// OrderGetter возвращает заказ по идентификатору.
type OrderGetter interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// MonitorService хранит снимок состояния серверов панели,
// обогащённый данными заказов.
type MonitorService struct {
	client PanelClient
	orders OrderGetter
	log    *slog.Logger

	mu       sync.RWMutex
	snapshot []*models.ServerStatus
	lastScan time.Time

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewMonitorService создает новый экземпляр MonitorService.
func NewMonitorService(client PanelClient, orders OrderGetter, log *slog.Logger) *MonitorService {
	return &MonitorService{
		client: client,
		orders: orders,
		log:    log,
	}
}

// OrderIDFromName извлекает идентификатор заказа из имени сервера
// по конвенции <PACKAGE>-<ORDERID>: всё после первого дефиса.
// Пустая строка означает, что имя конвенции не соответствует.
func OrderIDFromName(name string) string {
	parts := strings.SplitN(name, "-", 2)
	if len(parts) < 2 || parts[1] == "" {
		return ""
	}
	return parts[1]
}

// ScanAll опрашивает полный список серверов панели и пересобирает снимок.
// Ошибка обработки отдельного сервера логируется, сервер пропускается;
// снимок заменяется целиком только после успешного прохода по списку.
func (s *MonitorService) ScanAll(ctx context.Context) ([]*models.ServerStatus, error) {
	const op = "monitor.ScanAll"
	metrics.PanelScans.Inc()

	servers, err := s.client.ListServers(ctx)
	if err != nil {
		metrics.PanelScanErrors.Inc()
		s.log.Error("failed to list panel servers", sl.Err(err))
		return nil, err
	}

	statuses := make([]*models.ServerStatus, 0, len(servers))
	for i := range servers {
		status, err := s.buildStatus(ctx, &servers[i])
		if err != nil {
			s.log.Error("failed to process server, skipping",
				slog.String("uuid", servers[i].UUID), sl.Err(err))
			continue
		}
		statuses = append(statuses, status)
	}

	s.mu.Lock()
	s.snapshot = statuses
	s.lastScan = time.Now()
	s.mu.Unlock()

	s.log.Info("panel scan completed", slog.String("op", op), slog.Int("servers", len(statuses)))
	return copyStatuses(statuses), nil
}

// copyStatuses снимает поверхностные копии записей снимка. Записи снимка
// мутируются через SetSuspended, поэтому наружу отдаются только копии:
// вызывающий код читает их без синхронизации со снимком.
func copyStatuses(src []*models.ServerStatus) []*models.ServerStatus {
	out := make([]*models.ServerStatus, len(src))
	for i, st := range src {
		c := *st
		out[i] = &c
	}
	return out
}

// buildStatus собирает запись кеша для одного сервера: данные панели,
// best-effort снимок потребления и сопоставленный заказ.
func (s *MonitorService) buildStatus(ctx context.Context, server *panel.Server) (*models.ServerStatus, error) {
	status := &models.ServerStatus{
		UUID:      server.UUID,
		RemoteID:  server.ID,
		Name:      server.Name,
		Suspended: server.Suspended,
		CreatedAt: server.CreatedAt,
		Limits:    server.Limits,
	}

	usage, err := s.client.GetServerUsage(ctx, server.UUID)
	if err != nil {
		// Недоступность метрик не срывает сверку: грубая оценка состояния.
		state := "offline"
		if server.Suspended {
			state = "suspended"
		}
		status.Usage = &models.ResourceUsage{State: state, Unavailable: true}
	} else {
		status.Usage = usage
	}
	if status.Usage != nil {
		status.State = status.Usage.State
	}

	orderID := OrderIDFromName(server.Name)
	if orderID == "" {
		return status, nil
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}

	expiresAt := expiry.EndDate(order.CreatedAt, order.DurationMonths)
	status.OrderID = order.ID
	status.OrderStatus = order.Status
	status.Customer = &order.Customer
	status.PackageID = order.PackageID
	status.ExpiresAt = &expiresAt
	status.DaysUntilExp = expiry.DaysUntil(expiresAt, time.Now())
	return status, nil
}

// GetServerList возвращает копии записей кешированного снимка.
// При forceRefresh или пустом кеше выполняется синхронное сканирование.
func (s *MonitorService) GetServerList(ctx context.Context, forceRefresh bool) ([]*models.ServerStatus, error) {
	s.mu.RLock()
	empty := s.snapshot == nil
	cached := copyStatuses(s.snapshot)
	s.mu.RUnlock()

	if forceRefresh || empty {
		return s.ScanAll(ctx)
	}
	return cached, nil
}

// ServersByCustomer возвращает серверы покупателя из снимка
// (без обращения к панели).
func (s *MonitorService) ServersByCustomer(phone string) []*models.ServerStatus {
	return s.filter(func(st *models.ServerStatus) bool {
		return st.Customer != nil && st.Customer.Phone == phone
	})
}

// ServersExpiringWithin возвращает серверы, срок которых истекает
// в ближайшие days дней (включая уже истёкшие).
func (s *MonitorService) ServersExpiringWithin(days int) []*models.ServerStatus {
	return s.filter(func(st *models.ServerStatus) bool {
		return st.ExpiresAt != nil && st.DaysUntilExp <= days
	})
}

// SuspendedServers возвращает приостановленные серверы из снимка.
func (s *MonitorService) SuspendedServers() []*models.ServerStatus {
	return s.filter(func(st *models.ServerStatus) bool {
		return st.Suspended
	})
}

// FindByUUID возвращает копию записи снимка по UUID
// или nil, если её там нет.
func (s *MonitorService) FindByUUID(uuid string) *models.ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.snapshot {
		if st.UUID == uuid {
			c := *st
			return &c
		}
	}
	return nil
}

// SetSuspended обновляет флаг приостановки сервера в снимке. Методы
// чтения отдают копии записей, поэтому флаг меняется только здесь,
// под блокировкой снимка. Возвращает false, если сервера с таким UUID
// в снимке нет.
func (s *MonitorService) SetSuspended(uuid string, suspended bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.snapshot {
		if st.UUID == uuid {
			st.Suspended = suspended
			return true
		}
	}
	return false
}

func (s *MonitorService) filter(keep func(*models.ServerStatus) bool) []*models.ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.ServerStatus
	for _, st := range s.snapshot {
		if keep(st) {
			c := *st
			result = append(result, &c)
		}
	}
	return result
}

// StartMonitoring запускает периодическое сканирование. Таймер
// перевзводится после завершения прохода, поэтому медленный опрос панели
// откладывает следующий тик, а не накладывается на него. Повторный
// вызов при уже запущенном мониторинге — no-op.
func (s *MonitorService) StartMonitoring(ctx context.Context, interval time.Duration) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		s.log.Info("monitoring already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	stopCh := s.stopCh
	go func() {
		for {
			if _, err := s.ScanAll(ctx); err != nil {
				s.log.Error("scheduled scan failed", sl.Err(err))
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
	s.log.Info("monitoring started", slog.Duration("interval", interval))
}

// StopMonitoring останавливает таймер сканирования. Уже идущее
// сканирование не прерывается. Безопасно вызывать без запуска.
func (s *MonitorService) StopMonitoring() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.log.Info("monitoring stopped")
}
