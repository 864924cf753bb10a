package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hadevx/backend/internal/apperr"
	"github.com/hadevx/backend/internal/auth"
	"github.com/hadevx/backend/internal/catalog"
	"github.com/hadevx/backend/internal/coupons"
	"github.com/hadevx/backend/internal/metrics"
	"github.com/hadevx/backend/internal/notify"
	"github.com/hadevx/backend/internal/orders"
	"github.com/hadevx/backend/internal/settings"
	"github.com/hadevx/backend/internal/stores/kafka"
	"github.com/hadevx/backend/internal/users"
	"github.com/hadevx/backend/middleware"
	"github.com/hadevx/backend/pkg/ctxmanage"
	"github.com/hadevx/backend/pkg/logkey"
)

type Handler struct {
	p        *catalog.Conf
	cp       *coupons.Conf
	o        *orders.Conf
	s        *settings.Conf
	k        *kafka.Conf
	mailer   *notify.Mailer
	validate *validator.Validate
}

func NewHandler(p *catalog.Conf, cp *coupons.Conf, o *orders.Conf, s *settings.Conf,
	k *kafka.Conf, mailer *notify.Mailer) *Handler {
	return &Handler{
		p:        p,
		cp:       cp,
		o:        o,
		s:        s,
		k:        k,
		mailer:   mailer,
		validate: validator.New(),
	}
}

func API(keys *auth.Keys, u *users.Conf, p *catalog.Conf, cp *coupons.Conf, o *orders.Conf,
	s *settings.Conf, k *kafka.Conf, mailer *notify.Mailer) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(keys, u)
	if err != nil {
		panic(err)
	}

	h := NewHandler(p, cp, o, s, k, mailer)
	r.Use(middleware.Logger(), gin.Recovery(), metrics.PrometheusMiddleware())

	r.GET("/ping", HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	products := api.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/latest", h.LatestProducts)
		products.GET("/:id", h.GetProduct)
		products.GET("/category/:category", h.ProductsByCategory)

		admin := products.Group("", m.Authentication())
		admin.POST("", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		admin.PUT("/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		admin.DELETE("/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.ListCategories)

		admin := categories.Group("", m.Authentication())
		admin.POST("", m.Authorize(h.CreateCategory, auth.RoleAdmin))
		admin.DELETE("", m.Authorize(h.DeleteCategory, auth.RoleAdmin))
	}

	coupons := api.Group("/coupons")
	{
		coupons.POST("/validate", h.ValidateCoupon)

		admin := coupons.Group("", m.Authentication())
		admin.POST("", m.Authorize(h.CreateCoupon, auth.RoleAdmin))
		admin.GET("", m.Authorize(h.ListCoupons, auth.RoleAdmin))
		admin.GET("/:id", m.Authorize(h.GetCoupon, auth.RoleAdmin))
		admin.PUT("/:id", m.Authorize(h.UpdateCoupon, auth.RoleAdmin))
		admin.PUT("/:id/toggle", m.Authorize(h.ToggleCoupon, auth.RoleAdmin))
		admin.DELETE("/:id", m.Authorize(h.DeleteCoupon, auth.RoleAdmin))
	}

	ordersGroup := api.Group("/orders")
	{
		ordersGroup.POST("/webhook", h.Webhook)
		ordersGroup.POST("/check-stock", h.CheckStock)

		authed := ordersGroup.Group("", m.Authentication())
		authed.POST("", h.CreateOrder)
		authed.GET("/mine", h.GetMyOrders)
		authed.GET("/stats", m.Authorize(h.OrderStats, auth.RoleAdmin))
		authed.GET("/revenue", m.Authorize(h.Revenue, auth.RoleAdmin))
		authed.GET("", m.Authorize(h.ListOrders, auth.RoleAdmin))
		authed.GET("/user-orders/:id", m.Authorize(h.GetUserOrders, auth.RoleAdmin))
		authed.GET("/:id", h.GetOrder)
		authed.PUT("/:id/pay", m.Authorize(h.PayOrder, auth.RoleAdmin))
		authed.PUT("/:id/deliver", m.Authorize(h.DeliverOrder, auth.RoleAdmin))
		authed.PUT("/:id/cancel", h.CancelOrder)
	}

	delivery := api.Group("/delivery")
	{
		delivery.GET("", h.GetDelivery)

		admin := delivery.Group("", m.Authentication())
		admin.PUT("", m.Authorize(h.UpdateDelivery, auth.RoleAdmin))
		admin.PATCH("/disable-advanced", m.Authorize(h.DisableAdvancedDelivery, auth.RoleAdmin))
	}

	discounts := api.Group("/discounts")
	{
		discounts.GET("", h.ListDiscounts)

		admin := discounts.Group("", m.Authentication())
		admin.POST("", m.Authorize(h.CreateDiscount, auth.RoleAdmin))
		admin.PUT("/:id", m.Authorize(h.UpdateDiscount, auth.RoleAdmin))
		admin.DELETE("/:id", m.Authorize(h.DeleteDiscount, auth.RoleAdmin))
	}

	store := api.Group("/store")
	{
		store.GET("", h.GetStore)

		admin := store.Group("", m.Authentication())
		admin.PUT("", m.Authorize(h.UpdateStore, auth.RoleAdmin))
	}

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// respondError is the single translation point from the error taxonomy
// to HTTP. Internal failures are logged with the trace id and the detail
// withheld from the client.
func respondError(c *gin.Context, err error) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	status := apperr.HTTPStatus(err)

	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String(logkey.TraceID, traceId),
			slog.String("path", c.Request.URL.Path),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(status, gin.H{"message": "Internal Server Error"})
		return
	}

	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind == apperr.KindInsufficientStock {
		c.AbortWithStatusJSON(status, gin.H{
			"message":        ae.Msg,
			"availableStock": ae.Available,
		})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"message": err.Error()})
}

// bind decodes and validates a JSON body, reporting failures through
// the shared taxonomy.
func (h *Handler) bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}
	if err := h.validate.Struct(v); err != nil {
		return apperr.Validationf("%v", err)
	}
	return nil
}
