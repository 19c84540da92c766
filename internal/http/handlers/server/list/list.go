// Package list реализует HTTP-обработчик списка серверов из кеша сверки.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-aggregator/internal/http/response"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Handler обрабатывает запросы списка серверов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс кеша сверки серверов.
type Service interface {
	GetServerList(ctx context.Context, forceRefresh bool) ([]*models.ServerStatus, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список серверов
// @Description Возвращает серверы панели с данными связанных заказов из кеша сверки.
// @Tags Servers
// @Produce  json
// @Param refresh query bool false "Принудительно сканировать панель"
// @Success 200 {object} map[string]any "Список серверов"
// @Failure 502 {object} response.ErrorResponse "Панель недоступна"
// @Router /servers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.server.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	forceRefresh := r.URL.Query().Get("refresh") == "true"

	servers, err := h.service.GetServerList(r.Context(), forceRefresh)
	if err != nil {
		log.Error("failed to list servers", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not list servers"))
		return
	}

	log.Info("success to list servers", slog.Int("count", len(servers)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"servers": servers,
		"count":   len(servers),
	}))
}
