package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Notifier публикует уведомления покупателям в очередь доставки.
// Реализует интерфейс отправителя, который ожидает планировщик.
type Notifier struct {
	ch *amqp.Channel
}

// NewNotifier создает Notifier поверх открытого канала.
func NewNotifier(ch *amqp.Channel) *Notifier {
	return &Notifier{ch: ch}
}

// Notify публикует уведомление с ключом маршрутизации "expiry".
func (n *Notifier) Notify(notification models.Notification) error {
	return PublishMessage(n.ch, NotificationsExchange, "expiry", notification)
}
