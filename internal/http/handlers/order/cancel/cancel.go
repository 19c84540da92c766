// Package cancel реализует HTTP-обработчик отмены заказа.
package cancel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/response"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на отмену заказа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отмены заказа.
type Service interface {
	CancelOrder(ctx context.Context, id, actor, reason string) (*models.Order, error)
}

// Request — тело запроса на отмену заказа.
type Request struct {
	Reason string `json:"reason,omitempty"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить заказ
// @Description Отменяет заказ. Завершённый или уже отменённый заказ отменить нельзя.
// @Tags Orders
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор заказа"
// @Param request body Request false "Причина отмены"
// @Success 200 {object} map[string]any "Отменённый заказ"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ нельзя отменить в текущем статусе"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders/{id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req Request
	// Тело опционально: отмена без причины допустима.
	_ = json.NewDecoder(r.Body).Decode(&req)

	actor, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || actor == "" {
		log.Error("actor not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	order, err := h.service.CancelOrder(r.Context(), id, actor, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			log.Error("order not found", sl.Order(id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case apperrors.IsInvalidState(err):
			log.Error("order can not be cancelled", sl.Order(id), sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to cancel order", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not cancel order"))
		}
		return
	}

	log.Info("success to cancel order", sl.Order(id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": order,
	}))
}
