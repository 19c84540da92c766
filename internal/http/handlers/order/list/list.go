// Package list реализует HTTP-обработчик для получения списка заказов
// с фильтрацией по статусу, пакету, покупателю и периоду создания.
package list

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-aggregator/internal/http/response"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// Handler обрабатывает запросы на получение списка заказов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка заказов.
type Service interface {
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	CountOrders(ctx context.Context, filter models.OrderFilter) (int, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список заказов
// @Description Возвращает заказы по фильтру: статус, пакет, покупатель, период создания.
// @Tags Orders
// @Produce  json
// @Param status query string false "Статус заказа"
// @Param package_id query string false "Идентификатор пакета"
// @Param customer query string false "Подстрока телефона или имени покупателя"
// @Param from query string false "Начало периода создания (RFC3339)"
// @Param to query string false "Конец периода создания (RFC3339)"
// @Param limit query int false "Максимум записей"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список заказов"
// @Failure 400 {object} response.ErrorResponse "Некорректный фильтр"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := parseFilter(r)
	if err != nil {
		log.Error("failed to parse filter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		log.Error("failed to list orders", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list orders"))
		return
	}

	total, err := h.service.CountOrders(r.Context(), filter)
	if err != nil {
		log.Error("failed to count orders", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list orders"))
		return
	}

	log.Info("success to list orders", slog.Int("count", len(orders)), slog.Int("total", total))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"orders": orders,
		"count":  len(orders),
		"total":  total,
	}))
}

func parseFilter(r *http.Request) (models.OrderFilter, error) {
	var filter models.OrderFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.IsValid() {
			return filter, errInvalid("status")
		}
		filter.Status = &status
	}
	filter.PackageID = q.Get("package_id")
	filter.Customer = q.Get("customer")

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errInvalid("from")
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errInvalid("to")
		}
		filter.To = &to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errInvalid("limit")
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errInvalid("offset")
		}
		filter.Offset = offset
	}
	return filter, nil
}

func errInvalid(name string) error {
	return fmt.Errorf("invalid query parameter: %s", name)
}
