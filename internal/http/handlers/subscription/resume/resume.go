// Package resume реализует HTTP-обработчик возобновления сервера по UUID.
// Операция идемпотентна: возобновление работающего сервера завершается
// успехом без обращения к панели.
package resume

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

// Handler управляет HTTP-запросами на возобновление сервера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики возобновления.
type Service interface {
	ResumeServer(ctx context.Context, uuid, reason string) error
}

// Request — тело запроса на возобновление.
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
// @Summary Возобновить сервер
// @Description Возобновляет приостановленный сервер по UUID. Идемпотентная операция.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param uuid path string true "UUID сервера"
// @Param request body Request false "Причина возобновления"
// @Success 200 {object} map[string]any "Сервер возобновлён"
// @Failure 404 {object} response.ErrorResponse "Сервер не найден"
// @Failure 502 {object} response.ErrorResponse "Панель вернула ошибку"
// @Router /servers/{uuid}/resume [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.resume"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uuid := chi.URLParam(r, "uuid")

	var req Request
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "manual resume"
	}

	if err := h.service.ResumeServer(r.Context(), uuid, req.Reason); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Error("server not found", slog.String("uuid", uuid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("server not found"))
			return
		}
		log.Error("failed to resume server", slog.String("uuid", uuid), sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not resume server"))
		return
	}

	log.Info("success to resume server", slog.String("uuid", uuid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uuid":      uuid,
		"suspended": false,
	}))
}
