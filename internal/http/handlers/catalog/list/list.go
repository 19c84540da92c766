// Package list реализует HTTP-обработчик каталога пакетов хостинга.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-aggregator/internal/catalog"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/response"
)

// Handler обрабатывает запросы каталога пакетов.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{
		log: log,
	}
}

// ServeHTTP godoc
// @Summary Каталог пакетов
// @Description Возвращает доступные пакеты хостинга с ценами.
// @Tags Catalog
// @Produce  json
// @Success 200 {object} map[string]any "Список пакетов"
// @Router /packages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	packages := catalog.List()
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"packages": packages,
		"count":    len(packages),
	}))
}
