package settings

import "time"

// Singleton document keys. Each settings aggregate lives in exactly one
// document under a fixed id.
const (
	KeyDelivery = "delivery"
	KeyStore    = "store"
)

// ZoneFee is a per-zone delivery surcharge.
type ZoneFee struct {
	Zone string  `bson:"zone" json:"zone" validate:"required"`
	Fee  float64 `bson:"fee" json:"fee" validate:"gte=0"`
}

// Delivery is the delivery settings singleton.
type Delivery struct {
	ID                    string    `bson:"_id" json:"-"`
	Version               int64     `bson:"version" json:"version"`
	TimeToDeliver         string    `bson:"timeToDeliver" json:"timeToDeliver"`
	ShippingFee           float64   `bson:"shippingFee" json:"shippingFee"`
	MinDeliveryCost       float64   `bson:"minDeliveryCost" json:"minDeliveryCost"`
	FreeDeliveryThreshold float64   `bson:"freeDeliveryThreshold" json:"freeDeliveryThreshold"`
	ZoneFees              []ZoneFee `bson:"zoneFees" json:"zoneFees"`
	CreatedAt             time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UpdateDelivery carries a partial update. Nil fields are left untouched.
// A zero FreeDeliveryThreshold disables free delivery; an empty ZoneFees
// slice disables zone pricing.
type UpdateDelivery struct {
	TimeToDeliver         *string    `json:"timeToDeliver" validate:"omitempty,min=1"`
	ShippingFee           *float64   `json:"shippingFee" validate:"omitempty,gte=0"`
	MinDeliveryCost       *float64   `json:"minDeliveryCost" validate:"omitempty,gte=0"`
	FreeDeliveryThreshold *float64   `json:"freeDeliveryThreshold" validate:"omitempty,gte=0"`
	ZoneFees              *[]ZoneFee `json:"zoneFees" validate:"omitempty,dive"`
}

// Store is the storefront settings singleton.
type Store struct {
	ID                    string    `bson:"_id" json:"-"`
	Version               int64     `bson:"version" json:"version"`
	Status                string    `bson:"status" json:"status"`
	StoreName             string    `bson:"storeName" json:"storeName"`
	Email                 string    `bson:"email" json:"email"`
	Banner                string    `bson:"banner" json:"banner"`
	PhoneNumber           string    `bson:"phoneNumber" json:"phoneNumber"`
	Instagram             string    `bson:"instagram" json:"instagram"`
	Twitter               string    `bson:"twitter" json:"twitter"`
	Tiktok                string    `bson:"tiktok" json:"tiktok"`
	CashOnDeliveryEnabled bool      `bson:"cashOnDeliveryEnabled" json:"cashOnDeliveryEnabled"`
	CreatedAt             time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UpdateStore carries a partial update. Nil fields are left untouched.
type UpdateStore struct {
	Status                *string `json:"status" validate:"omitempty,oneof=active maintenance closed"`
	StoreName             *string `json:"storeName"`
	Email                 *string `json:"email" validate:"omitempty,email"`
	Banner                *string `json:"banner"`
	PhoneNumber           *string `json:"phoneNumber" validate:"omitempty,e164|numeric"`
	Instagram             *string `json:"instagram"`
	Twitter               *string `json:"twitter"`
	Tiktok                *string `json:"tiktok"`
	CashOnDeliveryEnabled *bool   `json:"cashOnDeliveryEnabled"`
}

func defaultDelivery(now time.Time) Delivery {
	return Delivery{
		ID:            KeyDelivery,
		TimeToDeliver: "today",
		ZoneFees:      []ZoneFee{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func defaultStore(now time.Time) Store {
	return Store{
		ID:                    KeyStore,
		Status:                "active",
		CashOnDeliveryEnabled: true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
