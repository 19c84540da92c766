package models

import "time"

// SubscriptionState — производный статус подписки, вычисляемый планировщиком.
type SubscriptionState string

// Возможные состояния подписки.
const (
	SubscriptionActive    SubscriptionState = "active"
	SubscriptionExpiring  SubscriptionState = "expiring"
	SubscriptionExpired   SubscriptionState = "expired"
	SubscriptionSuspended SubscriptionState = "suspended"
	SubscriptionCancelled SubscriptionState = "cancelled"
)

// SubscriptionInfo — представление подписки, пересобираемое планировщиком
// на каждом проходе из кеша сверки и данных заказа.
type SubscriptionInfo struct {
	OrderID      string            `json:"order_id"`
	ServerUUIDs  []string          `json:"server_uuids"`
	Customer     Customer          `json:"customer"`
	PackageID    string            `json:"package_id"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	DaysUntilExp int               `json:"days_until_expiry"`
	State        SubscriptionState `json:"state"`
	SentKeys     []string          `json:"sent_keys,omitempty"`
}

// Notification — сообщение для покупателя, публикуемое планировщиком
// в очередь и доставляемое сервисом-отправителем.
type Notification struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	OrderID   string `json:"order_id,omitempty"`
	Kind      string `json:"kind"`
}

// DummyRenew используется для приёма параметров продления подписки
// из JSON-запроса.
type DummyRenew struct {
	DurationMonths  int  `json:"duration_months" validate:"required,min=1,max=12"`
	PaymentReceived bool `json:"payment_received"`
}
