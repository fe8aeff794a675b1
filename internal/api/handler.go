package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"vansales-service/internal/models"
	"vansales-service/internal/service"
	"vansales-service/internal/util"
)

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Options configures the HTTP layer
type Options struct {
	AllowedOrigins  []string
	AllowUserHeader bool
	// ReadinessChecks are run by /ready, keyed by dependency name
	ReadinessChecks map[string]ReadinessCheck
}

// Handler contains HTTP handlers
type Handler struct {
	orders   *service.OrderService
	catalog  *service.CatalogService
	users    *service.UserService
	auth     *service.AuthService
	settings *service.SettingsService
	opts     Options
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	catalog *service.CatalogService,
	users *service.UserService,
	auth *service.AuthService,
	settings *service.SettingsService,
	opts Options,
) *Handler {
	return &Handler{
		orders:   orders,
		catalog:  catalog,
		users:    users,
		auth:     auth,
		settings: settings,
		opts:     opts,
		logger:   util.Component("http"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(util.ServiceName))
	router.Use(corsMiddleware(h.opts.AllowedOrigins))
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/auth/login", h.login)

	authed := api.Group("")
	authed.Use(h.authMiddleware())

	admin := requireRole(models.RoleAdmin)

	products := authed.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/pinned", h.listPinnedProducts)
		products.POST("", admin, h.importProduct)
		products.PATCH("/:id/pin", admin, h.setProductPin)
		products.POST("/resync", admin, h.resyncCatalog)
	}

	users := authed.Group("/users", admin)
	{
		users.GET("/agents", h.listAgents)
		users.GET("/admins", h.listAdmins)
		users.POST("", h.createUser)
		users.PATCH("/:id/status", h.setUserStatus)
		users.PATCH("/:id/permission", h.setUserPermission)
		users.DELETE("/:id", h.deleteUser)
	}

	orders := authed.Group("/orders")
	{
		orders.POST("", h.submitOrder)
		orders.POST("/draft", h.saveDraft)
		orders.GET("/pending", admin, h.listPendingOrders)
		orders.GET("/drafts", h.listDrafts)
		orders.GET("/user/:userId", h.listUserOrders)
		orders.GET("/:id", h.getOrder)
		orders.POST("/:id/submit-draft", h.resubmitDraft)
		orders.GET("/:id/activity", admin, h.orderActivity)
	}

	bc := authed.Group("/bigcommerce")
	{
		bc.GET("/products/search", requireSearchPermission(), h.searchRemoteProducts)
		bc.GET("/customers/search", h.searchCustomers)
		bc.GET("/customers/:id/addresses", h.customerAddresses)
	}

	settings := authed.Group("/settings", admin)
	{
		settings.GET("/:key", h.getSetting)
		settings.POST("", h.saveSetting)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency responds
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, check := range h.opts.ReadinessChecks {
		if err := check(ctx); err != nil {
			ready = false
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}

	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}
