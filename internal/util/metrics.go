package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vansales_orders_submitted_total",
		Help: "Total number of orders persisted for submission",
	})

	OrdersDraftedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vansales_orders_drafted_total",
		Help: "Total number of orders saved as drafts",
	})

	OrdersSyncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vansales_orders_synced_total",
		Help: "Total number of orders created in BigCommerce",
	})

	OrdersSyncFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vansales_orders_sync_failed_total",
		Help: "Total number of order submissions that did not sync",
	}, []string{"reason"})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vansales_orders_rejected_total",
		Help: "Total number of order requests rejected before persistence",
	}, []string{"reason"})

	GatewayRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vansales_bigcommerce_request_duration_seconds",
		Help:    "Latency of BigCommerce API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	SheetsMirrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vansales_sheets_mirror_total",
		Help: "Spreadsheet webhook mirror attempts by result",
	}, []string{"result"})

	CatalogResyncProductsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vansales_catalog_resync_products_total",
		Help: "Products processed by catalog resync by result",
	}, []string{"result"})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vansales_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
