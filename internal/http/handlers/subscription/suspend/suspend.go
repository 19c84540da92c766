// Package suspend реализует HTTP-обработчик приостановки сервера по UUID.
// Операция идемпотентна: повторная приостановка уже приостановленного
// сервера завершается успехом без обращения к панели.
package suspend

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
)

// Handler управляет HTTP-запросами на приостановку сервера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики приостановки.
type Service interface {
	SuspendServer(ctx context.Context, uuid, reason string) error
}

// Request — тело запроса на приостановку.
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
// @Summary Приостановить сервер
// @Description Приостанавливает сервер по UUID. Идемпотентная операция.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param uuid path string true "UUID сервера"
// @Param request body Request false "Причина приостановки"
// @Success 200 {object} map[string]any "Сервер приостановлен"
// @Failure 404 {object} response.ErrorResponse "Сервер не найден"
// @Failure 502 {object} response.ErrorResponse "Панель вернула ошибку"
// @Router /servers/{uuid}/suspend [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.suspend"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uuid := chi.URLParam(r, "uuid")

	var req Request
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "manual suspension"
	}

	if err := h.service.SuspendServer(r.Context(), uuid, req.Reason); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Error("server not found", slog.String("uuid", uuid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("server not found"))
			return
		}
		log.Error("failed to suspend server", slog.String("uuid", uuid), sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not suspend server"))
		return
	}

	log.Info("success to suspend server", slog.String("uuid", uuid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uuid":      uuid,
		"suspended": true,
	}))
}
