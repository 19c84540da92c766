// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — единообразное формирование структурированных полей лога.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to scan servers", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Order возвращает slog.Attr с ключом "order_id" для привязки записи лога
// к конкретному заказу.
func Order(id string) slog.Attr {
	return slog.Attr{
		Key:   "order_id",
		Value: slog.StringValue(id),
	}
}
