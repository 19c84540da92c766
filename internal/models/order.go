// Package models содержит доменные структуры заказа, пакета хостинга,
// удалённого сервера и подписки, а также вспомогательные типы для приёма
// данных из JSON-запросов.
package models

import "time"

// OrderStatus — статус заказа в конечном автомате жизненного цикла.
type OrderStatus string

// Допустимые статусы заказа.
const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusRefunded   OrderStatus = "REFUNDED"
)

// AllowedTransitions описывает разрешённые переходы между статусами.
// CANCELLED и REFUNDED — терминальные: из них переходов нет.
var AllowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// CanTransition сообщает, разрешён ли переход из статуса s в статус to.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, allowed := range AllowedTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValid сообщает, является ли значение известным статусом заказа.
func (s OrderStatus) IsValid() bool {
	_, ok := AllowedTransitions[s]
	return ok
}

// Customer — покупатель заказа. Идентифицируется номером телефона,
// ChatID используется для доставки уведомлений.
type Customer struct {
	Phone  string `json:"phone"`
	Name   string `json:"name,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
}

// StatusHistoryEntry — запись журнала смены статусов заказа.
// Журнал append-only: последняя запись всегда совпадает с текущим статусом.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Actor     string      `json:"actor"`
	Note      string      `json:"note,omitempty"`
}

// Order — основная модель заказа на хостинг-сервер.
// ID неизменяем после создания. TotalAmount фиксируется при создании
// (цена пакета × число месяцев) и позже не пересчитывается.
type Order struct {
	ID             string               `json:"id"`
	Customer       Customer             `json:"customer"`
	PackageID      string               `json:"package_id"`
	DurationMonths int                  `json:"duration_months"`
	UnitPrice      int64                `json:"unit_price"`
	TotalAmount    int64                `json:"total_amount"`
	Currency       string               `json:"currency"`
	Spec           PackageSpec          `json:"spec"`
	Status         OrderStatus          `json:"status"`
	StatusHistory  []StatusHistoryEntry `json:"status_history"`
	CustomerNote   string               `json:"customer_note,omitempty"`
	AdminNote      string               `json:"admin_note,omitempty"`
	PaymentProof   string               `json:"payment_proof,omitempty"`
	ServerID       string               `json:"server_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ExpiresAt возвращает расчётную дату окончания подписки по заказу:
// дата создания плюс оплаченное число месяцев.
func (o *Order) ExpiresAt() time.Time {
	return o.CreatedAt.AddDate(0, o.DurationMonths, 0)
}

// DummyOrder используется для приёма данных нового заказа из JSON-запроса
// до их валидации и преобразования в Order.
type DummyOrder struct {
	Phone          string `json:"phone" validate:"required"`
	Name           string `json:"name,omitempty" validate:"omitempty"`
	ChatID         string `json:"chat_id,omitempty" validate:"omitempty"`
	PackageID      string `json:"package_id" validate:"required,alphanum"`
	DurationMonths int    `json:"duration_months" validate:"required,min=1,max=12"`
	CustomerNote   string `json:"customer_note,omitempty" validate:"omitempty"`
}
