// Package update реализует HTTP-обработчик обновления административных
// полей заказа: заметок и ссылки на подтверждение оплаты.
package update

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
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/response"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Handler управляет HTTP-запросами на обновление полей заказа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обновления полей заказа.
type Service interface {
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// Request — тело запроса на обновление полей заказа. Передаются только
// изменяемые поля; отсутствующее поле не трогается.
type Request struct {
	CustomerNote *string `json:"customer_note,omitempty"`
	AdminNote    *string `json:"admin_note,omitempty"`
	PaymentProof *string `json:"payment_proof,omitempty"`
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обновить поля заказа
// @Description Обновляет заметки и ссылку на подтверждение оплаты. Статус этим методом менять нельзя.
// @Tags Orders
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор заказа"
// @Param request body Request true "Обновляемые поля"
// @Success 200 {object} map[string]any "Обновлённый заказ"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	fields := make(map[string]any)
	if req.CustomerNote != nil {
		fields["customer_note"] = *req.CustomerNote
	}
	if req.AdminNote != nil {
		fields["admin_note"] = *req.AdminNote
	}
	if req.PaymentProof != nil {
		fields["payment_proof"] = *req.PaymentProof
	}
	if len(fields) == 0 {
		log.Error("no updatable fields in request")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("no fields to update"))
		return
	}

	if err := h.service.UpdateFields(r.Context(), id, fields); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Error("order not found", sl.Order(id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
			return
		}
		log.Error("failed to update order fields", sl.Order(id), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update order"))
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		log.Error("failed to read updated order", sl.Order(id), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read order"))
		return
	}

	log.Info("success to update order fields", sl.Order(id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order": order,
	}))
}
