// Package apperrors содержит типизированные ошибки доменной логики.
// Классификация нужна обработчикам и вызывающему коду, чтобы отличать
// ошибки входных данных от нарушений конечного автомата и ошибок
// конфигурации, не разбирая текст сообщения.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// ErrNotFound возвращается, когда заказ или сервер с указанным
// идентификатором не существует.
var ErrNotFound = errors.New("not found")

// ErrPaymentRequired возвращается при попытке продлить подписку
// без подтверждённой оплаты.
var ErrPaymentRequired = errors.New("payment required")

// ValidationError — некорректные входные данные, отклоняется до любого
// изменения состояния.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidation создает ValidationError с форматированным сообщением.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError — запрошенный переход статуса не входит
// в разрешённое множество для текущего статуса заказа.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// InvalidStateError — операция запрещена в текущем статусе заказа
// (например, удаление неотменённого заказа).
type InvalidStateError struct {
	Op     string
	Status models.OrderStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operation %s is not allowed in status %s", e.Op, e.Status)
}

// ConfigurationError — панель не настроена или отсутствует привязка
// ресурсов для пакета; удалённых мутаций не было.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ResourceExhaustionError — на целевом узле не нашлось свободной
// сетевой аллокации даже после попытки создания.
type ResourceExhaustionError struct {
	NodeID int
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("no free allocation available on node %d", e.NodeID)
}

// IsValidation сообщает, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidTransition сообщает, является ли ошибка нарушением
// конечного автомата статусов.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

// IsInvalidState сообщает, запрещена ли операция текущим статусом заказа.
func IsInvalidState(err error) bool {
	var se *InvalidStateError
	return errors.As(err, &se)
}

// IsConfiguration сообщает, является ли ошибка ошибкой конфигурации.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
