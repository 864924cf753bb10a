// Package catalog owns the product documents: CRUD, variant/size
// normalization, the countInStock invariant and discount propagation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hadevx/backend/internal/apperr"
)

type Conf struct {
	products   *mongo.Collection
	discounts  *mongo.Collection
	categories *mongo.Collection
}

func NewConf(db *mongo.Database) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{
		products:   db.Collection("products"),
		discounts:  db.Collection("discounts"),
		categories: db.Collection("categories"),
	}, nil
}

// normalize applies the write-time invariants: canonical colors and
// sizes, variant identities, and a recomputed stock total.
func normalize(p *Product) {
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID.IsZero() {
			v.ID = primitive.NewObjectID()
		}
		v.Color = NormalizeColor(v.Color)
		for j := range v.Sizes {
			v.Sizes[j].Size = NormalizeSize(v.Sizes[j].Size)
		}
	}
	p.RecomputeStock()
}

func (c *Conf) InsertProduct(ctx context.Context, np NewProduct, userID primitive.ObjectID) (Product, error) {
	now := time.Now().UTC()
	product := Product{
		ID:           primitive.NewObjectID(),
		User:         userID,
		Name:         np.Name,
		Image:        np.Image,
		Brand:        np.Brand,
		Category:     np.Category,
		Description:  np.Description,
		Price:        np.Price,
		CountInStock: np.CountInStock,
		Featured:     np.Featured,
		Variants:     np.Variants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	normalize(&product)

	if _, err := c.products.InsertOne(ctx, product); err != nil {
		return Product{}, apperr.Internalf(err, "inserting product")
	}
	return product, nil
}

func (c *Conf) GetProductByID(ctx context.Context, id string) (Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Product{}, apperr.NotFoundf("Product not found")
	}

	var product Product
	err = c.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Product{}, apperr.NotFoundf("Product not found")
		}
		return Product{}, apperr.Internalf(err, "fetching product %s", id)
	}
	return product, nil
}

// UpdateProductInDB applies a partial update, renormalizes and stores the
// whole document. Creation time and owner are preserved.
func (c *Conf) UpdateProductInDB(ctx context.Context, id string, up UpdateProduct) (Product, error) {
	product, err := c.GetProductByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	if up.Name != nil {
		product.Name = *up.Name
	}
	if up.Image != nil {
		product.Image = *up.Image
	}
	if up.Brand != nil {
		product.Brand = *up.Brand
	}
	if up.Category != nil {
		product.Category = *up.Category
	}
	if up.Description != nil {
		product.Description = *up.Description
	}
	if up.Price != nil {
		if *up.Price <= 0 {
			return Product{}, apperr.Validationf("price must be greater than zero")
		}
		product.Price = *up.Price
		if product.HasDiscount {
			product.DiscountedPrice = discountedPrice(product.Price, product.DiscountBy)
		}
	}
	if up.CountInStock != nil {
		if *up.CountInStock < 0 {
			return Product{}, apperr.Validationf("countInStock must not be negative")
		}
		product.CountInStock = *up.CountInStock
	}
	if up.Featured != nil {
		product.Featured = *up.Featured
	}
	if up.Variants != nil {
		product.Variants = *up.Variants
	}

	normalize(&product)
	product.UpdatedAt = time.Now().UTC()

	res, err := c.products.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return Product{}, apperr.Internalf(err, "updating product %s", id)
	}
	if res.MatchedCount == 0 {
		return Product{}, apperr.NotFoundf("Product not found")
	}
	return product, nil
}

func (c *Conf) DeleteProductFromDB(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFoundf("Product not found")
	}
	res, err := c.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Internalf(err, "deleting product %s", id)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFoundf("Product not found")
	}
	return nil
}

// ListProducts returns every product, newest first.
func (c *Conf) ListProducts(ctx context.Context) ([]Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Internalf(err, "listing products")
	}
	return decodeProducts(ctx, cursor)
}

// LatestProducts returns the n most recently created products.
func (c *Conf) LatestProducts(ctx context.Context, n int) ([]Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(n))
	cursor, err := c.products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Internalf(err, "listing latest products")
	}
	return decodeProducts(ctx, cursor)
}

func (c *Conf) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	cursor, err := c.products.Find(ctx, bson.M{"category": category})
	if err != nil {
		return nil, apperr.Internalf(err, "listing products in category %s", category)
	}
	return decodeProducts(ctx, cursor)
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]Product, error) {
	defer cursor.Close(ctx)
	var products []Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperr.Internalf(err, "decoding products")
	}
	return products, nil
}
