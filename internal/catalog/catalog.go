// Package catalog содержит статический каталог тарифных пакетов хостинга.
// Каталог read-only: цены и характеристики фиксируются на момент сборки,
// заказ снимает с них снапшот при создании.
package catalog

import (
	"sort"

	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

var packages = map[string]models.PackageSpec{
	"a1": {ID: "a1", Name: "Starter", MemoryMB: 1024, CPUPct: 50, DiskMB: 5120, Bandwidth: "unmetered", UnitPrice: 15000, Glyph: "🟢"},
	"a2": {ID: "a2", Name: "Basic", MemoryMB: 2048, CPUPct: 100, DiskMB: 10240, Bandwidth: "unmetered", UnitPrice: 25000, Glyph: "🔵"},
	"b1": {ID: "b1", Name: "Standard", MemoryMB: 4096, CPUPct: 150, DiskMB: 20480, Bandwidth: "unmetered", UnitPrice: 45000, Glyph: "🟣"},
	"b2": {ID: "b2", Name: "Advanced", MemoryMB: 6144, CPUPct: 200, DiskMB: 30720, Bandwidth: "unmetered", UnitPrice: 65000, Glyph: "🟠"},
	"c1": {ID: "c1", Name: "Premium", MemoryMB: 8192, CPUPct: 300, DiskMB: 51200, Bandwidth: "unmetered", UnitPrice: 90000, Glyph: "🔴"},
	"c2": {ID: "c2", Name: "Ultimate", MemoryMB: 16384, CPUPct: 400, DiskMB: 102400, Bandwidth: "unmetered", UnitPrice: 150000, Glyph: "⚫"},
}

// Get возвращает пакет по идентификатору.
func Get(id string) (models.PackageSpec, bool) {
	spec, ok := packages[id]
	return spec, ok
}

// Exists сообщает, есть ли пакет с таким идентификатором в каталоге.
func Exists(id string) bool {
	_, ok := packages[id]
	return ok
}

// List возвращает все пакеты каталога, отсортированные по идентификатору.
func List() []models.PackageSpec {
	result := make([]models.PackageSpec, 0, len(packages))
	for _, spec := range packages {
		result = append(result, spec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
