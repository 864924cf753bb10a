package kafka

import "time"

const (
	TopicOrderCreated = `storefront.order-created`
	TopicOrderPaid    = `storefront.order-paid`
)

// OrderCreatedEvent is produced once per order after the stock
// reservation commits.
type OrderCreatedEvent struct {
	OrderId    string    `json:"order_id"`
	UserId     string    `json:"user_id"`
	TotalPrice float64   `json:"total_price"`
	ItemCount  int       `json:"item_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderPaidEvent is produced per order item when a payment settles.
type OrderPaidEvent struct {
	OrderId   string    `json:"order_id"`
	ProductId string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}
