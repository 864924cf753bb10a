package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"

	"github.com/hadevx/backend/internal/orders"
	"github.com/hadevx/backend/internal/stores/kafka"
	"github.com/hadevx/backend/pkg/ctxmanage"
	"github.com/hadevx/backend/pkg/logkey"
)

// Webhook receives Stripe events. A successful payment intent marks the
// referenced order paid and emits one order-paid event per line item.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	const MaxBodyBytes = int64(65536)

	// Limit the request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	var event stripe.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		slog.Error("failed to bind Stripe event",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			slog.Error("failed to unmarshal payment intent",
				slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		orderId := paymentIntent.Metadata["order_id"]
		if orderId == "" {
			slog.Error("payment intent missing order_id metadata",
				slog.String(logkey.TraceID, traceId),
				slog.String("payment_intent", paymentIntent.ID))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing order_id metadata"})
			return
		}
		slog.Info("payment intent succeeded",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, orderId),
			slog.String("payment_intent", paymentIntent.ID))

		receipt := orders.PaymentResult{
			ID:           paymentIntent.ID,
			Status:       string(paymentIntent.Status),
			UpdateTime:   time.Now().UTC().Format(time.RFC3339),
			EmailAddress: paymentIntent.ReceiptEmail,
		}

		order, err := h.o.MarkPaid(c.Request.Context(), orderId, receipt)
		if err != nil {
			slog.Error("failed to mark order paid",
				slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, orderId),
				slog.String(logkey.ERROR, err.Error()))
			respondError(c, err)
			return
		}

		go h.publishOrderPaid(traceId, order)

		c.Status(http.StatusOK)

	default:
		slog.Info("unhandled Stripe event type",
			slog.String(logkey.TraceID, traceId),
			slog.String("event_type", string(event.Type)))
		c.JSON(http.StatusOK, gin.H{
			"message": "Event type not handled",
			"event":   event.Type,
		})
	}
}

func (h *Handler) publishOrderPaid(traceId string, order orders.Order) {
	if h.k == nil {
		return
	}
	for _, item := range order.Items {
		data, err := json.Marshal(kafka.OrderPaidEvent{
			OrderId:   order.ID.Hex(),
			ProductId: item.Product.Hex(),
			Quantity:  item.Qty,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Error("failed to marshal order-paid event",
				slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			return
		}
		if err := h.k.ProduceMessage(kafka.TopicOrderPaid, []byte(order.ID.Hex()), data); err != nil {
			slog.Error("failed to produce order-paid event",
				slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.ID.Hex()),
				slog.String(logkey.ERROR, err.Error()))
			return
		}
	}
	slog.Info("order-paid events produced",
		slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID.Hex()))
}
