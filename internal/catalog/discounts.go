package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hadevx/backend/internal/apperr"
)

// discountedPrice computes price - price*fraction with decimal math so
// repeated application does not drift.
func discountedPrice(price, fraction float64) float64 {
	p := decimal.NewFromFloat(price)
	discounted := p.Sub(p.Mul(decimal.NewFromFloat(fraction)))
	f, _ := discounted.Round(3).Float64()
	return f
}

// CreateDiscount stores the discount and propagates the discounted price
// onto every product in the named categories.
func (c *Conf) CreateDiscount(ctx context.Context, discountBy float64, categories []string) (Discount, error) {
	if discountBy <= 0 || discountBy > 1 {
		return Discount{}, apperr.Validationf("discountBy must be a number between 0 and 1")
	}
	if len(categories) == 0 {
		return Discount{}, apperr.Validationf("At least one category is required")
	}

	discount := Discount{
		ID:         primitive.NewObjectID(),
		DiscountBy: discountBy,
		Categories: categories,
	}
	if _, err := c.discounts.InsertOne(ctx, discount); err != nil {
		return Discount{}, apperr.Internalf(err, "inserting discount")
	}

	if err := c.applyDiscount(ctx, discountBy, categories); err != nil {
		return Discount{}, err
	}
	return discount, nil
}

// applyDiscount rewrites the discount fields of each affected product
// individually because the discounted price depends on each price.
func (c *Conf) applyDiscount(ctx context.Context, discountBy float64, categories []string) error {
	cursor, err := c.products.Find(ctx, bson.M{"category": bson.M{"$in": categories}})
	if err != nil {
		return apperr.Internalf(err, "loading products for discount")
	}
	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return err
	}

	for _, p := range products {
		update := bson.M{"$set": bson.M{
			"hasDiscount":     discountBy > 0,
			"discountBy":      discountBy,
			"discountedPrice": discountedPrice(p.Price, discountBy),
			"updatedAt":       time.Now().UTC(),
		}}
		if _, err := c.products.UpdateOne(ctx, bson.M{"_id": p.ID}, update); err != nil {
			return apperr.Internalf(err, "discounting product %s", p.ID.Hex())
		}
	}
	return nil
}

func (c *Conf) UpdateDiscount(ctx context.Context, id string, discountBy *float64, categories []string) (Discount, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Discount{}, apperr.NotFoundf("Discount not found")
	}

	var discount Discount
	err = c.discounts.FindOne(ctx, bson.M{"_id": oid}).Decode(&discount)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Discount{}, apperr.NotFoundf("Discount not found")
		}
		return Discount{}, apperr.Internalf(err, "fetching discount %s", id)
	}

	if discountBy != nil {
		if *discountBy <= 0 || *discountBy > 1 {
			return Discount{}, apperr.Validationf("discountBy must be a number between 0 and 1")
		}
		discount.DiscountBy = *discountBy
	}
	if len(categories) > 0 {
		discount.Categories = categories
	}

	if _, err := c.discounts.ReplaceOne(ctx, bson.M{"_id": oid}, discount); err != nil {
		return Discount{}, apperr.Internalf(err, "updating discount %s", id)
	}
	if err := c.applyDiscount(ctx, discount.DiscountBy, discount.Categories); err != nil {
		return Discount{}, err
	}
	return discount, nil
}

// DeleteDiscount removes the discount and resets the affected products.
func (c *Conf) DeleteDiscount(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFoundf("Discount not found")
	}

	var discount Discount
	err = c.discounts.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&discount)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("Discount not found")
		}
		return apperr.Internalf(err, "deleting discount %s", id)
	}

	_, err = c.products.UpdateMany(ctx,
		bson.M{"category": bson.M{"$in": discount.Categories}},
		bson.M{
			"$set":   bson.M{"hasDiscount": false},
			"$unset": bson.M{"discountedPrice": "", "discountBy": ""},
		})
	if err != nil {
		return apperr.Internalf(err, "resetting discounted products")
	}
	return nil
}

func (c *Conf) ListDiscounts(ctx context.Context) ([]Discount, error) {
	cursor, err := c.discounts.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Internalf(err, "listing discounts")
	}
	defer cursor.Close(ctx)

	discounts := []Discount{}
	if err := cursor.All(ctx, &discounts); err != nil {
		return nil, apperr.Internalf(err, "decoding discounts")
	}
	return discounts, nil
}
