package coupons

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Coupon struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Code       string             `bson:"code" json:"code"`
	DiscountBy float64            `bson:"discountBy" json:"discountBy"`
	Categories []string           `bson:"categories" json:"categories"`

	// MaxUses is nil for unlimited coupons.
	MaxUses   *int `bson:"maxUses" json:"maxUses"`
	UsedCount int  `bson:"usedCount" json:"usedCount"`

	ExpiresAt *time.Time `bson:"expiresAt" json:"expiresAt"`
	IsActive  bool       `bson:"isActive" json:"isActive"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewCoupon is the admin creation payload.
type NewCoupon struct {
	Code       string     `json:"code" validate:"required"`
	DiscountBy float64    `json:"discountBy" validate:"required,gt=0,lte=1"`
	Categories []string   `json:"categories" validate:"required,min=1"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	MaxUses    *int       `json:"maxUses"`
	IsActive   *bool      `json:"isActive"`
}

// UpdateCoupon is a partial update; nil fields are left unchanged.
type UpdateCoupon struct {
	Code       *string    `json:"code"`
	DiscountBy *float64   `json:"discountBy"`
	Categories []string   `json:"categories"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	MaxUses    *int       `json:"maxUses"`
	ClearMax   bool       `json:"clearMaxUses"`
	IsActive   *bool      `json:"isActive"`
}

// Validation is the successful validate response.
type Validation struct {
	Valid      bool       `json:"valid"`
	Code       string     `json:"code"`
	DiscountBy float64    `json:"discountBy"`
	Categories []string   `json:"categories"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	MaxUses    *int       `json:"maxUses"`
	UsedCount  int        `json:"usedCount"`
}
