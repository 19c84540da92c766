// Package hostingaggregator предоставляет маршруты для основного приложения.
package hostingaggregator

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	cataloglist "github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/catalog/list"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/health"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/cancel"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/create"
	orderlist "github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/list"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/provision"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/read"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/remove"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/stats"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/update"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/order/updatestatus"
	serverlist "github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/server/list"
	sublist "github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/subscription/renew"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/subscription/resume"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/handlers/subscription/suspend"
	"github.com/magabrotheeeer/hosting-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/jwt"
	monitorservice "github.com/magabrotheeeer/hosting-aggregator/internal/services/monitor"
	orderservice "github.com/magabrotheeeer/hosting-aggregator/internal/services/order"
	schedulerservice "github.com/magabrotheeeer/hosting-aggregator/internal/services/scheduler"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, tokenMaker *jwt.Maker,
	orderService *orderservice.OrderService,
	monitorService *monitorservice.MonitorService,
	schedulerService *schedulerservice.SchedulerService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)
		r.Get("/packages", cataloglist.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/orders", create.New(logger, orderService).ServeHTTP)
			r.Get("/orders", orderlist.New(logger, orderService).ServeHTTP)
			r.Get("/orders/stats", stats.New(logger, orderService).ServeHTTP)
			r.Get("/orders/{id}", read.New(logger, orderService).ServeHTTP)
			r.Patch("/orders/{id}", update.New(logger, orderService).ServeHTTP)
			r.Delete("/orders/{id}", remove.New(logger, orderService).ServeHTTP)
			r.Patch("/orders/{id}/status", updatestatus.New(logger, orderService).ServeHTTP)
			r.Post("/orders/{id}/cancel", cancel.New(logger, orderService).ServeHTTP)
			r.Post("/orders/{id}/provision", provision.New(logger, orderService).ServeHTTP)

			r.Get("/servers", serverlist.New(logger, monitorService).ServeHTTP)
			r.Post("/servers/{uuid}/suspend", suspend.New(logger, schedulerService).ServeHTTP)
			r.Post("/servers/{uuid}/resume", resume.New(logger, schedulerService).ServeHTTP)

			r.Get("/subscriptions", sublist.New(logger, schedulerService).ServeHTTP)
			r.Post("/subscriptions/{id}/renew", renew.New(logger, schedulerService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
