// Package services содержит бизнес-логику жизненного цикла заказа:
// конечный автомат статусов, создание и удаление заказов и единственную
// точку входа для запуска провижининга.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/catalog"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/metrics"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// SystemActor — идентификатор актора для записей журнала,
// созданных самим сервисом.
const SystemActor = "system"

// OrderRepository определяет методы для работы с заказами в хранилище.
type OrderRepository interface {
	// GenerateOrderID возвращает новый уникальный идентификатор заказа.
	GenerateOrderID(ctx context.Context) (string, error)
	// CreateOrder вставляет новый заказ.
	CreateOrder(ctx context.Context, order *models.Order) error
	// GetOrder возвращает заказ по идентификатору.
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// UpdateOrderFields обновляет разрешённые поля заказа.
	UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error
	// UpdateOrderStatus меняет статус и дописывает запись журнала.
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, entry models.StatusHistoryEntry) error
	// DeleteOrder удаляет заказ и возвращает количество удалённых строк.
	DeleteOrder(ctx context.Context, id string) (int, error)
	// ListOrders возвращает заказы по фильтру.
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	// CountOrders возвращает количество заказов по фильтру без пагинации.
	CountOrders(ctx context.Context, filter models.OrderFilter) (int, error)
	// OrderStats возвращает агрегированную статистику по заказам.
	OrderStats(ctx context.Context) (*models.OrderStats, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Provisioner выполняет многошаговый провижининг сервера для заказа.
type Provisioner interface {
	Provision(ctx context.Context, order *models.Order) (*models.ProvisionResult, error)
}

// OrderService реализует жизненный цикл заказа.
type OrderService struct {
	repo        OrderRepository
	cache       Cache
	provisioner Provisioner
	log         *slog.Logger
}

// NewOrderService создает новый экземпляр OrderService.
func NewOrderService(repo OrderRepository, cache Cache, provisioner Provisioner, log *slog.Logger) *OrderService {
	return &OrderService{
		repo:        repo,
		cache:       cache,
		provisioner: provisioner,
		log:         log,
	}
}

// CreateOrder создает заказ в статусе PENDING со снапшотом цены пакета.
// Неизвестный пакет или срок вне диапазона 1..12 месяцев отклоняются
// до обращения к хранилищу.
func (s *OrderService) CreateOrder(ctx context.Context, req models.DummyOrder) (*models.Order, error) {
	spec, ok := catalog.Get(req.PackageID)
	if !ok {
		return nil, apperrors.NewValidation("unknown package: %s", req.PackageID)
	}
	if req.DurationMonths < 1 || req.DurationMonths > 12 {
		return nil, apperrors.NewValidation("duration must be between 1 and 12 months, got %d", req.DurationMonths)
	}

	id, err := s.repo.GenerateOrderID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID: id,
		Customer: models.Customer{
			Phone:  req.Phone,
			Name:   req.Name,
			ChatID: req.ChatID,
		},
		PackageID:      req.PackageID,
		DurationMonths: req.DurationMonths,
		UnitPrice:      spec.UnitPrice,
		TotalAmount:    spec.UnitPrice * int64(req.DurationMonths),
		Currency:       "IDR",
		Spec:           spec,
		Status:         models.StatusPending,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.StatusPending, Timestamp: now, Actor: SystemActor, Note: "Order created"},
		},
		CustomerNote: req.CustomerNote,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("created new order", sl.Order(id), slog.String("package", req.PackageID))

	s.cacheSet(order)
	return order, nil
}

// GetOrder возвращает заказ по идентификатору, используя кеш или хранилище.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var cached *models.Order
	cacheKey := "order:" + id
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && cached != nil {
		return cached, nil
	}

	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(order)
	return order, nil
}

// ListOrders возвращает заказы по фильтру.
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	return s.repo.ListOrders(ctx, filter)
}

// CountOrders возвращает количество заказов по фильтру без учёта пагинации.
func (s *OrderService) CountOrders(ctx context.Context, filter models.OrderFilter) (int, error) {
	return s.repo.CountOrders(ctx, filter)
}

// Stats возвращает агрегированную статистику по заказам.
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	return s.repo.OrderStats(ctx)
}

// UpdateStatus переводит заказ в новый статус, если переход разрешён
// конечным автоматом, и дописывает запись журнала.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, newStatus models.OrderStatus, actor, note string) (*models.Order, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidation("unknown status: %s", newStatus)
	}

	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(newStatus) {
		return nil, &apperrors.InvalidTransitionError{From: order.Status, To: newStatus}
	}

	entry := models.StatusHistoryEntry{
		Status:    newStatus,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Note:      note,
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, newStatus, entry); err != nil {
		return nil, err
	}
	s.cacheInvalidate(id)
	s.log.Info("order status updated", sl.Order(id),
		slog.String("from", string(order.Status)), slog.String("to", string(newStatus)))

	return s.repo.GetOrder(ctx, id)
}

// CancelOrder отменяет заказ. Завершённый или уже отменённый заказ
// отменить нельзя.
func (s *OrderService) CancelOrder(ctx context.Context, id, actor, reason string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusCompleted || order.Status == models.StatusCancelled {
		return nil, &apperrors.InvalidStateError{Op: "cancel", Status: order.Status}
	}

	if reason == "" {
		reason = "Cancelled by request"
	}
	entry := models.StatusHistoryEntry{
		Status:    models.StatusCancelled,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Note:      reason,
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, models.StatusCancelled, entry); err != nil {
		return nil, err
	}
	s.cacheInvalidate(id)

	return s.repo.GetOrder(ctx, id)
}

// DeleteOrder физически удаляет заказ. Разрешено только для
// отменённых заказов.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != models.StatusCancelled {
		return &apperrors.InvalidStateError{Op: "delete", Status: order.Status}
	}

	count, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return apperrors.ErrNotFound
	}
	s.cacheInvalidate(id)
	s.log.Info("order deleted", sl.Order(id))
	return nil
}

// UpdateFields обновляет административные поля заказа
// (заметки, ссылка на подтверждение оплаты).
func (s *OrderService) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if err := s.repo.UpdateOrderFields(ctx, id, fields); err != nil {
		return err
	}
	s.cacheInvalidate(id)
	return nil
}

// AppendAdminNote дописывает строку к административной заметке заказа
// с меткой времени.
func (s *OrderService) AppendAdminNote(ctx context.Context, id, note string) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("[%s] %s", time.Now().UTC().Format("2006-01-02 15:04"), note)
	if order.AdminNote != "" {
		line = order.AdminNote + "\n" + line
	}
	return s.UpdateFields(ctx, id, map[string]any{"admin_note": line})
}

// ProvisionServer запускает провижининг для заказа. Разрешено только
// из статусов CONFIRMED и PROCESSING. На время работы оркестратора заказ
// находится в PROCESSING; при любой ошибке статус возвращается в CONFIRMED
// с причиной в журнале — заказ никогда не застревает в PROCESSING.
func (s *OrderService) ProvisionServer(ctx context.Context, id, actor string) (*models.ProvisionResult, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusConfirmed && order.Status != models.StatusProcessing {
		return nil, &apperrors.InvalidStateError{Op: "provision", Status: order.Status}
	}

	if err := s.writeStatus(ctx, id, models.StatusProcessing, actor, "Auto-provisioning started"); err != nil {
		return nil, err
	}

	result, provErr := s.provisioner.Provision(ctx, order)
	if provErr != nil || result == nil || !result.Success {
		reason := "unknown provisioning error"
		if provErr != nil {
			reason = provErr.Error()
		} else if result != nil && result.Error != "" {
			reason = result.Error
		}
		metrics.ProvisionAttempts.WithLabelValues("failure").Inc()
		s.log.Error("provisioning failed, reverting order", sl.Order(id), slog.String("reason", reason))

		if err := s.writeStatus(ctx, id, models.StatusConfirmed, SystemActor, "Auto-provisioning failed: "+reason); err != nil {
			s.log.Error("failed to revert order status", sl.Order(id), sl.Err(err))
		}
		if provErr == nil {
			provErr = fmt.Errorf("provisioning failed: %s", reason)
		}
		return result, provErr
	}

	if err := s.repo.UpdateOrderFields(ctx, id, map[string]any{"server_id": result.Credentials.ServerUUID}); err != nil {
		s.log.Error("failed to store server id", sl.Order(id), sl.Err(err))
	}
	if err := s.writeStatus(ctx, id, models.StatusCompleted, SystemActor, "Auto-provisioning completed successfully"); err != nil {
		s.log.Error("failed to mark order completed", sl.Order(id), sl.Err(err))
	}
	s.cacheInvalidate(id)
	metrics.ProvisionAttempts.WithLabelValues("success").Inc()
	s.log.Info("order provisioned", sl.Order(id), slog.String("server_uuid", result.Credentials.ServerUUID))

	return result, nil
}

// writeStatus пишет статус и запись журнала напрямую, минуя проверку
// переходов: используется внутри провижининга, где откат PROCESSING ->
// CONFIRMED не входит в таблицу переходов намеренно.
func (s *OrderService) writeStatus(ctx context.Context, id string, status models.OrderStatus, actor, note string) error {
	entry := models.StatusHistoryEntry{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Note:      note,
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, status, entry); err != nil {
		return err
	}
	s.cacheInvalidate(id)
	return nil
}

func (s *OrderService) cacheSet(order *models.Order) {
	cacheKey := "order:" + order.ID
	if err := s.cache.Set(cacheKey, order, time.Hour); err != nil {
		s.log.Warn("failed to cache order", slog.String("key", cacheKey), sl.Err(err))
	}
}

func (s *OrderService) cacheInvalidate(id string) {
	cacheKey := "order:" + id
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}
}
