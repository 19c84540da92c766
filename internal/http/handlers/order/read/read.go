// Package read реализует HTTP-обработчик для получения заказа по ID.
//
// Handler извлекает ID из URL-параметров, вызывает бизнес-логику для чтения
// заказа по идентификатору и возвращает данные заказа в JSON-формате.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/response"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Handler обрабатывает запросы на получение заказа по уникальному идентификатору.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения заказа.
type Service interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить заказ
// @Description Возвращает заказ по идентификатору вместе с журналом статусов.
// @Tags Orders
// @Produce  json
// @Param id path string true "Идентификатор заказа"
// @Success 200 {object} map[string]any "Данные заказа"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Error("order not found", sl.Order(id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
			return
		}
		log.Error("failed to read order", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read order"))
		return
	}

	log.Info("success to read order", sl.Order(id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": order,
	}))
}
