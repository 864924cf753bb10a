package orders

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hadevx/backend/internal/catalog"
	"github.com/hadevx/backend/internal/users"
)

// OrderItem is a point-in-time copy of the purchased product line. Name
// and price are snapshotted at creation so historical orders are immune
// to later catalog edits.
type OrderItem struct {
	Name    string             `bson:"name" json:"name"`
	Qty     int                `bson:"qty" json:"qty"`
	Image   []catalog.Image    `bson:"image,omitempty" json:"image,omitempty"`
	Price   float64            `bson:"price" json:"price"`
	Product primitive.ObjectID `bson:"product" json:"product"`

	VariantID    primitive.ObjectID `bson:"variantId,omitempty" json:"variantId,omitempty"`
	VariantColor string             `bson:"variantColor,omitempty" json:"variantColor,omitempty"`
	VariantSize  string             `bson:"variantSize,omitempty" json:"variantSize,omitempty"`
	VariantImage []catalog.Image    `bson:"variantImage,omitempty" json:"variantImage,omitempty"`
}

type ShippingAddress struct {
	Governorate string `bson:"governorate" json:"governorate" validate:"required"`
	City        string `bson:"city" json:"city" validate:"required"`
	Block       string `bson:"block" json:"block" validate:"required"`
	Street      string `bson:"street" json:"street" validate:"required"`
	House       string `bson:"house" json:"house" validate:"required"`
}

// PaymentResult is the receipt snapshot stored when an order is paid.
type PaymentResult struct {
	ID           string `bson:"id,omitempty" json:"id,omitempty"`
	Status       string `bson:"status,omitempty" json:"status,omitempty"`
	UpdateTime   string `bson:"update_time,omitempty" json:"update_time,omitempty"`
	EmailAddress string `bson:"email_address,omitempty" json:"email_address,omitempty"`
}

type Order struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User  primitive.ObjectID `bson:"user" json:"user"`
	Items []OrderItem        `bson:"orderItems" json:"orderItems"`

	ShippingAddress ShippingAddress `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string          `bson:"paymentMethod" json:"paymentMethod"`
	PaymentResult   *PaymentResult  `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`

	ItemsPrice     float64 `bson:"itemsPrice" json:"itemsPrice"`
	ShippingPrice  float64 `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice     float64 `bson:"totalPrice" json:"totalPrice"`
	Coupon         string  `bson:"coupon,omitempty" json:"coupon,omitempty"`
	DiscountAmount float64 `bson:"discountAmount,omitempty" json:"discountAmount,omitempty"`

	// Status replaces the historical isPaid/isDelivered/isCanceled
	// booleans so contradictory combinations cannot be stored.
	Status      Status     `bson:"status" json:"status"`
	PaidAt      *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PopulatedOrder is an order with the customer projection attached; the
// outer user field overrides the embedded object id in JSON.
type PopulatedOrder struct {
	Order
	UserInfo users.PublicUser `json:"user"`
}

// NewOrderItem is one requested cart line.
type NewOrderItem struct {
	Product     string `json:"product" validate:"required"`
	VariantID   string `json:"variantId"`
	VariantSize string `json:"variantSize"`
	Qty         int    `json:"qty" validate:"required,gt=0"`
}

// NewOrder is the checkout request body.
type NewOrder struct {
	OrderItems      []NewOrderItem  `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required"`
	ItemsPrice      float64         `json:"itemsPrice" validate:"min=0"`
	ShippingPrice   float64         `json:"shippingPrice" validate:"min=0"`
	TotalPrice      float64         `json:"totalPrice" validate:"min=0"`
	IsPaid          bool            `json:"isPaid"`
	Coupon          string          `json:"coupon"`
	DiscountAmount  float64         `json:"discountAmount"`
}
