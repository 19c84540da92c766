package models

import "time"

// ResourceUsage — моментальный снимок потребления ресурсов сервера,
// полученный best-effort при сканировании панели.
type ResourceUsage struct {
	State       string  `json:"state"`
	CPUPct      float64 `json:"cpu_pct"`
	MemoryMB    float64 `json:"memory_mb"`
	DiskMB      float64 `json:"disk_mb"`
	Unavailable bool    `json:"unavailable,omitempty"`
}

// ServerStatus — запись кеша сверки: удалённый сервер панели, дополненный
// данными связанного заказа, если его удалось сопоставить по имени.
// Эфемерная структура, пересобирается при каждом сканировании.
type ServerStatus struct {
	UUID          string         `json:"uuid"`
	RemoteID      int            `json:"remote_id"`
	Name          string         `json:"name"`
	State         string         `json:"state"`
	Suspended     bool           `json:"suspended"`
	OrderID       string         `json:"order_id,omitempty"`
	OrderStatus   OrderStatus    `json:"order_status,omitempty"`
	Customer      *Customer      `json:"customer,omitempty"`
	PackageID     string         `json:"package_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	DaysUntilExp  int            `json:"days_until_expiry"`
	Usage         *ResourceUsage `json:"usage,omitempty"`
	Limits        ResourceLimits `json:"limits"`
}
