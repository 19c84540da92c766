// Package expiry содержит расчёты сроков действия подписки.
package expiry

import (
	"math"
	"time"
)

// DaysUntil считает число дней до даты окончания, округляя вверх:
// окончание ровно через 7 суток даёт 7, просроченная на двое суток
// подписка даёт -2. Ноль означает «истекает в течение суток».
func DaysUntil(expires, now time.Time) int {
	hours := expires.Sub(now).Hours()
	return int(math.Ceil(hours / 24))
}

// EndDate возвращает дату окончания подписки: дата создания заказа
// плюс оплаченное число месяцев.
func EndDate(createdAt time.Time, months int) time.Time {
	return createdAt.AddDate(0, months, 0)
}
