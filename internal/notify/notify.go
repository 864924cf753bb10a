// Package notify delivers owner emails for new orders over SMTP. Sends
// go through a circuit breaker so a dead mail server cannot pile up
// blocked goroutines; delivery failures are logged and counted, never
// returned to the checkout path.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/hadevx/backend/internal/metrics"
	"github.com/hadevx/backend/internal/orders"
	"github.com/hadevx/backend/internal/users"
	"github.com/hadevx/backend/pkg/logkey"
)

const breakerName = "smtp-mailer"

type Config struct {
	Host       string
	Port       string
	Username   string
	Password   string
	From       string
	AdminEmail string
}

type Mailer struct {
	cfg Config
	cb  *gobreaker.CircuitBreaker
}

func NewMailer(cfg Config) *Mailer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			state := float64(0)
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(state)
			slog.Info("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return &Mailer{cfg: cfg, cb: cb}
}

// Enabled reports whether the mailer has enough configuration to send.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.Host != "" && m.cfg.AdminEmail != ""
}

// OrderReceived emails the store owner about a new order. Failures are
// swallowed after logging; checkout never waits on the mail server.
func (m *Mailer) OrderReceived(traceId string, order orders.Order, customer users.PublicUser) {
	if !m.Enabled() {
		return
	}

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.send(m.cfg.AdminEmail, "New Order Received", orderReceivedBody(order, customer))
	})
	if err != nil {
		metrics.NotificationFailures.Inc()
		slog.Error("failed to send order email",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID.Hex()),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	slog.Info("order email sent",
		slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID.Hex()))
}

func (m *Mailer) send(to, subject, body string) error {
	message := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{to}, message)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

func orderReceivedBody(order orders.Order, customer users.PublicUser) string {
	rows := ""
	for _, item := range order.Items {
		rows += fmt.Sprintf(
			"<tr><td>%s</td><td>%d</td><td>%s KD</td><td>%s KD</td></tr>",
			item.Name, item.Qty, money(item.Price), money(item.Price*float64(item.Qty)))
	}

	addr := order.ShippingAddress
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; color: #333;">
<h2>New Order Received</h2>
<p>You have received a new order. Details are below.</p>
<hr/>
<h3>Order Details</h3>
<p><strong>Order ID:</strong> %s</p>
<p><strong>Total Amount:</strong> %s KD</p>
<hr/>
<h3>Customer Information</h3>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Phone:</strong> %s</p>
<hr/>
<h3>Shipping Address</h3>
<p>%s,<br/>%s,<br/>Block %s, Street %s,<br/>House %s</p>
<hr/>
<h3>Order Items</h3>
<table style="width:100%%; border-collapse: collapse; text-align: left;">
<thead><tr><th>Product</th><th>Qty</th><th>Price</th><th>Total</th></tr></thead>
<tbody>%s</tbody>
</table>
</div>`,
		order.ID.Hex(), money(order.TotalPrice),
		customer.Name, customer.Email, customer.Phone,
		addr.Governorate, addr.City, addr.Block, addr.Street, addr.House,
		rows)
}
