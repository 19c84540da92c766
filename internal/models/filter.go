package models

import "time"

// OrderFilter — параметры выборки заказов, передаваемые в слой хранилища.
// Нулевые значения означают отсутствие фильтра по соответствующему полю.
type OrderFilter struct {
	Status    *OrderStatus // Статус заказа (nil — любой)
	PackageID string       // Идентификатор пакета
	Customer  string       // Подстрока номера телефона или имени покупателя
	From      *time.Time   // Начало диапазона по дате создания
	To        *time.Time   // Конец диапазона по дате создания
	Limit     int
	Offset    int
}

// OrderStats — агрегированная статистика по заказам.
type OrderStats struct {
	Total            int                 `json:"total"`
	ByStatus         map[OrderStatus]int `json:"by_status"`
	CompletedRevenue int64               `json:"completed_revenue"`
}
