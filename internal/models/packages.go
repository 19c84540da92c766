package models

// PackageSpec — карточка тарифного пакета из каталога.
// Данные только для отображения и расчёта цены, read-only во время работы.
type PackageSpec struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	MemoryMB  int    `json:"memory_mb" yaml:"memory_mb"`
	CPUPct    int    `json:"cpu_pct" yaml:"cpu_pct"`
	DiskMB    int    `json:"disk_mb" yaml:"disk_mb"`
	Bandwidth string `json:"bandwidth" yaml:"bandwidth"`
	UnitPrice int64  `json:"unit_price" yaml:"unit_price"`
	Glyph     string `json:"glyph" yaml:"glyph"`
}

// ResourceMapping — привязка тарифного пакета к ресурсам хостинг-панели.
// Используется только оркестратором провижининга; от отображаемых данных
// пакета не зависит. Одна запись на идентификатор пакета.
type ResourceMapping struct {
	PackageID   string            `yaml:"package_id"`
	EggID       int               `yaml:"egg_id"`
	DockerImage string            `yaml:"docker_image"`
	Startup     string            `yaml:"startup"`
	Environment map[string]string `yaml:"environment"`
	Limits      ResourceLimits    `yaml:"limits"`
	Features    FeatureLimits     `yaml:"features"`
	NodeID      int               `yaml:"node_id"`
}

// ResourceLimits — жёсткие лимиты ресурсов создаваемого сервера.
type ResourceLimits struct {
	MemoryMB int `json:"memory" yaml:"memory"`
	SwapMB   int `json:"swap" yaml:"swap"`
	DiskMB   int `json:"disk" yaml:"disk"`
	IO       int `json:"io" yaml:"io"`
	CPUPct   int `json:"cpu" yaml:"cpu"`
}

// FeatureLimits — квоты на дополнительные возможности сервера.
type FeatureLimits struct {
	Databases   int `json:"databases" yaml:"databases"`
	Allocations int `json:"allocations" yaml:"allocations"`
	Backups     int `json:"backups" yaml:"backups"`
}
