// Package coupons owns the coupon aggregate: admin CRUD, the pure
// checkout validation rules and the atomic redemption counter.
package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hadevx/backend/internal/apperr"
)

type Conf struct {
	col *mongo.Collection
}

func NewConf(db *mongo.Database) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{col: db.Collection("coupons")}, nil
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Usable applies the checkout rules to a loaded coupon. categoryIds may
// be empty, in which case the category-overlap rule is skipped.
func Usable(c Coupon, categoryIds []string, now time.Time) error {
	if !c.IsActive {
		return apperr.Validationf("Coupon is disabled")
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return apperr.Validationf("Coupon is expired")
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return apperr.Validationf("Coupon usage limit reached")
	}
	if len(categoryIds) > 0 {
		applies := false
		for _, want := range categoryIds {
			for _, have := range c.Categories {
				if want == have {
					applies = true
					break
				}
			}
		}
		if !applies {
			return apperr.Validationf("Coupon does not apply to selected items")
		}
	}
	return nil
}

// Validate is the pure read used at checkout; it never mutates usedCount.
func (c *Conf) Validate(ctx context.Context, code string, categoryIds []string) (Validation, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Validation{}, apperr.Validationf("Coupon code is required")
	}

	coupon, err := c.getByCode(ctx, normalized)
	if err != nil {
		return Validation{}, err
	}
	if err := Usable(coupon, categoryIds, time.Now()); err != nil {
		return Validation{}, err
	}

	return Validation{
		Valid:      true,
		Code:       coupon.Code,
		DiscountBy: coupon.DiscountBy,
		Categories: coupon.Categories,
		ExpiresAt:  coupon.ExpiresAt,
		MaxUses:    coupon.MaxUses,
		UsedCount:  coupon.UsedCount,
	}, nil
}

// Redeem increments usedCount, guarded so the cap can never be exceeded
// by concurrent checkouts: the filter requires the coupon to still be
// usable at write time.
func (c *Conf) Redeem(ctx context.Context, code string) error {
	normalized := NormalizeCode(code)
	now := time.Now()

	filter := bson.M{
		"code":     normalized,
		"isActive": true,
		"$or": []bson.M{
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$gt": now}},
		},
		"$expr": bson.M{"$or": []bson.M{
			{"$eq": []any{"$maxUses", nil}},
			{"$lt": []any{"$usedCount", "$maxUses"}},
		}},
	}

	res, err := c.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return apperr.Internalf(err, "redeeming coupon %s", normalized)
	}
	if res.ModifiedCount == 0 {
		// Distinguish an unusable coupon from an unknown code.
		coupon, err := c.getByCode(ctx, normalized)
		if err != nil {
			return err
		}
		if err := Usable(coupon, nil, now); err != nil {
			return err
		}
		return apperr.Validationf("Coupon could not be applied")
	}
	return nil
}

// Unredeem reverses a Redeem when the checkout it rode on fails.
func (c *Conf) Unredeem(ctx context.Context, code string) error {
	filter := bson.M{"code": NormalizeCode(code), "usedCount": bson.M{"$gt": 0}}
	_, err := c.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedCount": -1}})
	if err != nil {
		return apperr.Internalf(err, "unredeeming coupon %s", code)
	}
	return nil
}

func (c *Conf) CreateCoupon(ctx context.Context, nc NewCoupon) (Coupon, error) {
	normalized := NormalizeCode(nc.Code)
	if normalized == "" {
		return Coupon{}, apperr.Validationf("Coupon code is required")
	}
	if nc.DiscountBy <= 0 || nc.DiscountBy > 1 {
		return Coupon{}, apperr.Validationf("discountBy must be a number between 0 and 1 (e.g. 0.1 = 10%%)")
	}
	if len(nc.Categories) == 0 {
		return Coupon{}, apperr.Validationf("At least one category is required")
	}

	if _, err := c.getByCode(ctx, normalized); err == nil {
		return Coupon{}, apperr.Conflictf("Coupon code already exists")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return Coupon{}, err
	}

	now := time.Now().UTC()
	coupon := Coupon{
		ID:         primitive.NewObjectID(),
		Code:       normalized,
		DiscountBy: nc.DiscountBy,
		Categories: nc.Categories,
		MaxUses:    nc.MaxUses,
		ExpiresAt:  nc.ExpiresAt,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if nc.IsActive != nil {
		coupon.IsActive = *nc.IsActive
	}

	if _, err := c.col.InsertOne(ctx, coupon); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Coupon{}, apperr.Conflictf("Coupon code already exists")
		}
		return Coupon{}, apperr.Internalf(err, "inserting coupon")
	}
	return coupon, nil
}

func (c *Conf) UpdateCoupon(ctx context.Context, id string, uc UpdateCoupon) (Coupon, error) {
	coupon, err := c.GetCouponByID(ctx, id)
	if err != nil {
		return Coupon{}, err
	}

	if uc.Code != nil {
		normalized := NormalizeCode(*uc.Code)
		if normalized == "" {
			return Coupon{}, apperr.Validationf("Coupon code cannot be empty")
		}
		if normalized != coupon.Code {
			if _, err := c.getByCode(ctx, normalized); err == nil {
				return Coupon{}, apperr.Conflictf("Coupon code already exists")
			} else if !apperr.IsKind(err, apperr.KindNotFound) {
				return Coupon{}, err
			}
			coupon.Code = normalized
		}
	}
	if uc.DiscountBy != nil {
		if *uc.DiscountBy <= 0 || *uc.DiscountBy > 1 {
			return Coupon{}, apperr.Validationf("discountBy must be a number between 0 and 1")
		}
		coupon.DiscountBy = *uc.DiscountBy
	}
	if uc.Categories != nil {
		if len(uc.Categories) == 0 {
			return Coupon{}, apperr.Validationf("At least one category is required")
		}
		coupon.Categories = uc.Categories
	}
	if uc.ExpiresAt != nil {
		coupon.ExpiresAt = uc.ExpiresAt
	}
	if uc.ClearMax {
		coupon.MaxUses = nil
	} else if uc.MaxUses != nil {
		if *uc.MaxUses < 0 {
			return Coupon{}, apperr.Validationf("maxUses must be a number >= 0 or null")
		}
		coupon.MaxUses = uc.MaxUses
	}
	if uc.IsActive != nil {
		coupon.IsActive = *uc.IsActive
	}

	coupon.UpdatedAt = time.Now().UTC()
	if _, err := c.col.ReplaceOne(ctx, bson.M{"_id": coupon.ID}, coupon); err != nil {
		return Coupon{}, apperr.Internalf(err, "updating coupon %s", id)
	}
	return coupon, nil
}

// ToggleCoupon flips the active flag.
func (c *Conf) ToggleCoupon(ctx context.Context, id string) (Coupon, error) {
	coupon, err := c.GetCouponByID(ctx, id)
	if err != nil {
		return Coupon{}, err
	}
	coupon.IsActive = !coupon.IsActive
	coupon.UpdatedAt = time.Now().UTC()
	if _, err := c.col.ReplaceOne(ctx, bson.M{"_id": coupon.ID}, coupon); err != nil {
		return Coupon{}, apperr.Internalf(err, "toggling coupon %s", id)
	}
	return coupon, nil
}

func (c *Conf) DeleteCoupon(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFoundf("Coupon not found")
	}
	res, err := c.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Internalf(err, "deleting coupon %s", id)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFoundf("Coupon not found")
	}
	return nil
}

func (c *Conf) ListCoupons(ctx context.Context) ([]Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Internalf(err, "listing coupons")
	}
	defer cursor.Close(ctx)

	coupons := []Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, apperr.Internalf(err, "decoding coupons")
	}
	return coupons, nil
}

func (c *Conf) GetCouponByID(ctx context.Context, id string) (Coupon, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Coupon{}, apperr.NotFoundf("Coupon not found")
	}
	var coupon Coupon
	err = c.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&coupon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Coupon{}, apperr.NotFoundf("Coupon not found")
		}
		return Coupon{}, apperr.Internalf(err, "fetching coupon %s", id)
	}
	return coupon, nil
}

func (c *Conf) getByCode(ctx context.Context, normalized string) (Coupon, error) {
	var coupon Coupon
	err := c.col.FindOne(ctx, bson.M{"code": normalized}).Decode(&coupon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Coupon{}, apperr.NotFoundf("Invalid coupon")
		}
		return Coupon{}, apperr.Internalf(err, "fetching coupon %s", normalized)
	}
	return coupon, nil
}
