// Package services содержит обработчик очереди уведомлений: разбор
// сообщения и доставку текста покупателю через шлюз.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Messenger доставляет текстовое сообщение получателю.
type Messenger interface {
	Send(ctx context.Context, recipient, text string) error
}

// SenderService обрабатывает сообщения из очереди уведомлений.
type SenderService struct {
	messenger Messenger
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(messenger Messenger, log *slog.Logger) *SenderService {
	return &SenderService{
		messenger: messenger,
		log:       log,
	}
}

// SendNotification — обработчик сообщения очереди. Некорректный JSON
// подтверждается без доставки: возврат такого сообщения в очередь
// зациклил бы потребителя.
func (s *SenderService) SendNotification(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		const op = "sender.SendNotification"

		var notification models.Notification
		if err := json.Unmarshal(body, &notification); err != nil {
			s.log.Error("dropping malformed notification", sl.Err(err))
			return nil
		}
		if notification.Recipient == "" {
			s.log.Error("dropping notification without recipient", sl.Order(notification.OrderID))
			return nil
		}

		if err := s.messenger.Send(ctx, notification.Recipient, notification.Text); err != nil {
			s.log.Error("failed to deliver notification",
				sl.Order(notification.OrderID), slog.String("kind", notification.Kind), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("notification delivered",
			sl.Order(notification.OrderID), slog.String("kind", notification.Kind))
		return nil
	}
}
