// Package metrics содержит счетчики Prometheus для ключевых операций сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PanelScans — количество запущенных сканирований панели.
	PanelScans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hosting_panel_scans_total",
		Help: "Total number of panel reconciliation scans started.",
	})

	// PanelScanErrors — количество сканирований, завершившихся ошибкой списка.
	PanelScanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hosting_panel_scan_errors_total",
		Help: "Total number of panel scans that failed to list servers.",
	})

	// NotificationsPublished — количество уведомлений, отправленных в брокер.
	NotificationsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hosting_notifications_published_total",
		Help: "Total number of expiry notifications published to the broker.",
	})

	// ServersSuspended — количество автоматических приостановок серверов.
	ServersSuspended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hosting_servers_suspended_total",
		Help: "Total number of servers suspended for overdue subscriptions.",
	})

	// ProvisionAttempts — количество попыток провижининга по результату.
	ProvisionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hosting_provision_attempts_total",
		Help: "Total number of provisioning attempts by outcome.",
	}, []string{"outcome"})
)
