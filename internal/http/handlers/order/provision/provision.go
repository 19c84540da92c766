// Package provision реализует HTTP-обработчик запуска провижининга заказа.
//
// Handler извлекает ID заказа из URL и имя вызывающего из контекста,
// запускает оркестратор провижининга и возвращает результат вместе
// со сгенерированными учётными данными.
package provision

import (
	"context"
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

// Handler управляет HTTP-запросами на провижининг заказа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики провижининга.
type Service interface {
	ProvisionServer(ctx context.Context, id, actor string) (*models.ProvisionResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Провижининг заказа
// @Description Создает аккаунт и сервер на хостинг-панели для подтверждённого заказа.
// @Tags Orders
// @Produce  json
// @Param id path string true "Идентификатор заказа"
// @Success 200 {object} map[string]any "Результат провижининга с учётными данными"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ не в статусе CONFIRMED"
// @Failure 502 {object} response.ErrorResponse "Провижининг не удался, изменения откатились"
// @Router /orders/{id}/provision [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.provision"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	actor, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || actor == "" {
		log.Error("actor not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.ProvisionServer(r.Context(), id, actor)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			log.Error("order not found", sl.Order(id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case apperrors.IsInvalidState(err):
			log.Error("order is not ready for provisioning", sl.Order(id), sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("provisioning failed", sl.Order(id), sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Response{
				Status: response.StatusError,
				Error:  err.Error(),
				Data:   map[string]any{"result": result},
			})
		}
		return
	}

	log.Info("success to provision order", sl.Order(id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"result": result,
	}))
}
