package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hadevx/backend/internal/apperr"
	"github.com/hadevx/backend/internal/catalog"
	"github.com/hadevx/backend/internal/orders"
	"github.com/hadevx/backend/internal/stores/kafka"
	"github.com/hadevx/backend/middleware"
	"github.com/hadevx/backend/pkg/ctxmanage"
	"github.com/hadevx/backend/pkg/logkey"
)

// CreateOrder reserves stock and records the order. The owner email and
// the order-created event go out asynchronously; their failures never
// fail the checkout.
func (h *Handler) CreateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var no orders.NewOrder
	if err := h.bind(c, &no); err != nil {
		respondError(c, err)
		return
	}

	order, err := h.o.CreateOrder(c.Request.Context(), user, no)
	if err != nil {
		respondError(c, err)
		return
	}

	go h.mailer.OrderReceived(traceId, order.Order, user.Public())
	go h.publishOrderCreated(traceId, order.Order)

	c.JSON(http.StatusCreated, order)
}

func (h *Handler) publishOrderCreated(traceId string, order orders.Order) {
	if h.k == nil {
		return
	}
	event := kafka.OrderCreatedEvent{
		OrderId:    order.ID.Hex(),
		UserId:     order.User.Hex(),
		TotalPrice: order.TotalPrice,
		ItemCount:  len(order.Items),
		CreatedAt:  order.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal order-created event",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	if err := h.k.ProduceMessage(kafka.TopicOrderCreated, []byte(event.OrderId), data); err != nil {
		slog.Error("failed to produce order-created event",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, event.OrderId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	slog.Info("order-created event produced",
		slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, event.OrderId))
}

func (h *Handler) GetMyOrders(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	list, err := h.o.GetMyOrders(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrder returns one order. Customers can only read their own.
func (h *Handler) GetOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.o.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsAdmin && order.User != user.ID {
		respondError(c, apperr.NotFoundf("Order not found"))
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetUserOrders(c *gin.Context) {
	list, err := h.o.GetUserOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListOrders(c *gin.Context) {
	page := 1
	if raw := c.Query("pageNumber"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}

	result, err := h.o.ListOrders(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PayOrder marks an order paid from the admin dashboard. Receipt fields
// are optional here; the Stripe webhook supplies real ones.
func (h *Handler) PayOrder(c *gin.Context) {
	var receipt orders.PaymentResult
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&receipt); err != nil {
			respondError(c, apperr.Validationf("invalid request body: %v", err))
			return
		}
	}
	if receipt.UpdateTime == "" {
		receipt.UpdateTime = time.Now().UTC().Format(time.RFC3339)
	}

	order, err := h.o.MarkPaid(c.Request.Context(), c.Param("id"), receipt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) DeliverOrder(c *gin.Context) {
	order, err := h.o.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder cancels an order. Customers can only cancel their own;
// reserved stock stays consumed.
func (h *Handler) CancelOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if !user.IsAdmin {
		existing, err := h.o.GetOrderByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if existing.User != user.ID {
			respondError(c, apperr.NotFoundf("Order not found"))
			return
		}
	}

	order, err := h.o.MarkCanceled(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) OrderStats(c *gin.Context) {
	stats, err := h.o.OrderStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Revenue(c *gin.Context) {
	report, err := h.o.RevenueByMonth(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CheckStock evaluates requested quantities against the live catalog
// without reserving anything. The body is a bare array of query lines.
func (h *Handler) CheckStock(c *gin.Context) {
	var queries []catalog.StockQuery
	if err := c.ShouldBindJSON(&queries); err != nil {
		respondError(c, apperr.Validationf("invalid request body: %v", err))
		return
	}
	if len(queries) == 0 {
		respondError(c, apperr.Validationf("No items to check"))
		return
	}

	outOfStock, err := h.p.CheckStock(c.Request.Context(), queries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outOfStockItems": outOfStock})
}
