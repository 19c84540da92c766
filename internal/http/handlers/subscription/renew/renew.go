// Package renew реализует HTTP-обработчик продления подписки.
//
// Handler принимает срок продления и признак оплаты, создает новый заказ
// с теми же покупателем и пакетом и возобновляет приостановленный сервер.
package renew

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/response"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на продление подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики продления подписки.
type Service interface {
	RenewSubscription(ctx context.Context, orderID string, req models.DummyRenew) (*models.Order, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Продлить подписку
// @Description Создает новый заказ продления и возобновляет приостановленный сервер.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор исходного заказа"
// @Param request body models.DummyRenew true "Срок продления и признак оплаты"
// @Success 200 {object} map[string]any "Новый заказ продления"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 402 {object} response.ErrorResponse "Оплата не подтверждена"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/{id}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.renew"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	orderID := chi.URLParam(r, "id")

	var req models.DummyRenew
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	renewal, err := h.service.RenewSubscription(r.Context(), orderID, req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPaymentRequired):
			log.Error("payment is not confirmed", sl.Order(orderID))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("payment is not confirmed"))
		case errors.Is(err, apperrors.ErrNotFound):
			log.Error("order not found", sl.Order(orderID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		default:
			log.Error("failed to renew subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not renew subscription"))
		}
		return
	}

	log.Info("success to renew subscription", sl.Order(orderID),
		slog.String("renewal_order", renewal.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": renewal,
	}))
}
