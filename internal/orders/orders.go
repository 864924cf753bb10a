// Package orders implements the stock reservation engine and the order
// ledger. Reservation is two-phase: a validation pass over batch-loaded
// products builds a plan, then each decrement is applied as a single
// conditional update whose filter embeds the stock requirement, so two
// concurrent checkouts can never both win the same units. A lost race is
// compensated and surfaced as insufficient stock.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hadevx/backend/internal/apperr"
	"github.com/hadevx/backend/internal/catalog"
	"github.com/hadevx/backend/internal/coupons"
	"github.com/hadevx/backend/internal/metrics"
	"github.com/hadevx/backend/internal/users"
	"github.com/hadevx/backend/pkg/logkey"
)

type Conf struct {
	orders     *mongo.Collection
	products   *mongo.Collection
	userDocs   *mongo.Collection
	couponConf *coupons.Conf
}

func NewConf(db *mongo.Database, couponConf *coupons.Conf) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if couponConf == nil {
		return nil, fmt.Errorf("coupons conf is nil")
	}
	return &Conf{
		orders:     db.Collection("orders"),
		products:   db.Collection("products"),
		userDocs:   db.Collection("users"),
		couponConf: couponConf,
	}, nil
}

// CreateOrder runs the whole checkout flow: authorization, validation,
// coupon redemption, stock reservation and order persistence. On any
// failure no stock mutation remains visible.
func (c *Conf) CreateOrder(ctx context.Context, user users.User, no NewOrder) (PopulatedOrder, error) {
	if user.IsBlocked {
		return PopulatedOrder{}, apperr.Authorizationf("Your account is blocked. You cannot place orders.")
	}
	if len(no.OrderItems) == 0 {
		return PopulatedOrder{}, apperr.Validationf("No order items")
	}

	productMap, err := c.loadProducts(ctx, no.OrderItems)
	if err != nil {
		return PopulatedOrder{}, err
	}

	res, err := buildReservation(no.OrderItems, productMap)
	if err != nil {
		return PopulatedOrder{}, err
	}

	if no.Coupon != "" {
		if err := c.couponConf.Redeem(ctx, no.Coupon); err != nil {
			return PopulatedOrder{}, err
		}
	}

	if err := c.applyReservation(ctx, res.ops); err != nil {
		c.unredeem(ctx, no.Coupon)
		return PopulatedOrder{}, err
	}

	c.recomputeStockTotals(ctx, res.variantProductIDs())

	now := time.Now().UTC()
	order := Order{
		ID:              primitive.NewObjectID(),
		User:            user.ID,
		Items:           res.items,
		ShippingAddress: no.ShippingAddress,
		PaymentMethod:   no.PaymentMethod,
		ItemsPrice:      no.ItemsPrice,
		ShippingPrice:   no.ShippingPrice,
		TotalPrice:      no.TotalPrice,
		Coupon:          coupons.NormalizeCode(no.Coupon),
		DiscountAmount:  no.DiscountAmount,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if no.IsPaid {
		order.Status = StatusPaid
		order.PaidAt = &now
	}

	if _, err := c.orders.InsertOne(ctx, order); err != nil {
		// The reservation is already committed; put the stock back.
		c.rollbackReservation(ctx, res.ops)
		c.unredeem(ctx, no.Coupon)
		return PopulatedOrder{}, apperr.Internalf(err, "inserting order")
	}

	metrics.OrdersTotal.WithLabelValues(string(order.Status)).Inc()
	return PopulatedOrder{Order: order, UserInfo: user.Public()}, nil
}

// loadProducts batch-loads every distinct referenced product in one
// query and keys the result by hex id.
func (c *Conf) loadProducts(ctx context.Context, items []NewOrderItem) (map[string]*catalog.Product, error) {
	seen := map[string]bool{}
	var ids []primitive.ObjectID
	for _, item := range items {
		if seen[item.Product] {
			continue
		}
		seen[item.Product] = true
		oid, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			return nil, apperr.NotFoundf("Product not found: %s", item.Product)
		}
		ids = append(ids, oid)
	}

	cursor, err := c.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Internalf(err, "loading products")
	}
	defer cursor.Close(ctx)

	var products []catalog.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperr.Internalf(err, "decoding products")
	}

	productMap := make(map[string]*catalog.Product, len(products))
	for i := range products {
		productMap[products[i].ID.Hex()] = &products[i]
	}
	return productMap, nil
}

// applyReservation executes the plan. Each op is a conditional update;
// a zero match count means a concurrent reservation consumed the stock
// after validation, in which case the ops already applied are reversed.
func (c *Conf) applyReservation(ctx context.Context, ops []stockOp) error {
	for i, op := range ops {
		filter, update, opts := decrement(op)
		res, err := c.products.UpdateOne(ctx, filter, update, opts...)
		if err != nil {
			c.rollbackReservation(ctx, ops[:i])
			return apperr.Internalf(err, "reserving stock for %s", op.productName)
		}
		if res.MatchedCount == 0 {
			metrics.StockConflicts.Inc()
			c.rollbackReservation(ctx, ops[:i])
			return c.insufficientNow(ctx, op)
		}
	}
	return nil
}

// decrement builds the conditional update for one op. The filter embeds
// stock >= qty so the decrement and the check are a single atomic step
// and stock can never go below zero.
func decrement(op stockOp) (bson.M, bson.M, []*options.UpdateOptions) {
	now := time.Now().UTC()
	switch op.kind {
	case opVariantSize:
		filter := bson.M{
			"_id": op.productID,
			"variants": bson.M{"$elemMatch": bson.M{
				"_id":   op.variantID,
				"sizes": bson.M{"$elemMatch": bson.M{"size": op.size, "stock": bson.M{"$gte": op.qty}}},
			}},
		}
		update := bson.M{
			"$inc": bson.M{"variants.$[v].sizes.$[s].stock": -op.qty, "countInStock": -op.qty},
			"$set": bson.M{"updatedAt": now},
		}
		opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"v._id": op.variantID},
			bson.M{"s.size": op.size, "s.stock": bson.M{"$gte": op.qty}},
		}})
		return filter, update, []*options.UpdateOptions{opts}

	case opVariantFlat:
		filter := bson.M{
			"_id":      op.productID,
			"variants": bson.M{"$elemMatch": bson.M{"_id": op.variantID, "stock": bson.M{"$gte": op.qty}}},
		}
		update := bson.M{
			"$inc": bson.M{"variants.$[v].stock": -op.qty, "countInStock": -op.qty},
			"$set": bson.M{"updatedAt": now},
		}
		opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"v._id": op.variantID},
		}})
		return filter, update, []*options.UpdateOptions{opts}

	default:
		filter := bson.M{"_id": op.productID, "countInStock": bson.M{"$gte": op.qty}}
		update := bson.M{
			"$inc": bson.M{"countInStock": -op.qty},
			"$set": bson.M{"updatedAt": now},
		}
		return filter, update, nil
	}
}

// rollbackReservation reverses applied decrements. Failures here are
// logged, not returned: the caller is already propagating the original
// error and a partial rollback must not mask it.
func (c *Conf) rollbackReservation(ctx context.Context, applied []stockOp) {
	for _, op := range applied {
		filter, update, opts := increment(op)
		if _, err := c.products.UpdateOne(ctx, filter, update, opts...); err != nil {
			slog.Error("rollback of stock decrement failed",
				slog.String(logkey.ProductID, op.productID.Hex()),
				slog.String(logkey.ERROR, err.Error()))
		}
	}
}

func increment(op stockOp) (bson.M, bson.M, []*options.UpdateOptions) {
	switch op.kind {
	case opVariantSize:
		filter := bson.M{"_id": op.productID, "variants._id": op.variantID}
		update := bson.M{"$inc": bson.M{"variants.$[v].sizes.$[s].stock": op.qty, "countInStock": op.qty}}
		opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"v._id": op.variantID},
			bson.M{"s.size": op.size},
		}})
		return filter, update, []*options.UpdateOptions{opts}

	case opVariantFlat:
		filter := bson.M{"_id": op.productID, "variants._id": op.variantID}
		update := bson.M{"$inc": bson.M{"variants.$[v].stock": op.qty, "countInStock": op.qty}}
		opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"v._id": op.variantID},
		}})
		return filter, update, []*options.UpdateOptions{opts}

	default:
		filter := bson.M{"_id": op.productID}
		update := bson.M{"$inc": bson.M{"countInStock": op.qty}}
		return filter, update, nil
	}
}

// insufficientNow reloads live stock to report the quantity actually
// available after losing the race.
func (c *Conf) insufficientNow(ctx context.Context, op stockOp) error {
	available := 0

	var product catalog.Product
	err := c.products.FindOne(ctx, bson.M{"_id": op.productID}).Decode(&product)
	if err == nil {
		q := catalog.StockQuery{ProductID: op.productID.Hex(), Qty: op.qty}
		if op.kind != opFlat {
			q.VariantID = op.variantID.Hex()
			q.Size = op.size
		}
		if rejected := catalog.EvaluateStock(q, &product); rejected != nil && rejected.AvailableStock != nil {
			available = *rejected.AvailableStock
		}
	}

	switch op.kind {
	case opVariantSize:
		return apperr.InsufficientStock(available, "Not enough stock for %s (%s/%s)",
			op.productName, op.variantColor, op.size)
	case opVariantFlat:
		return apperr.InsufficientStock(available, "Not enough stock for %s (%s)",
			op.productName, op.variantColor)
	default:
		return apperr.InsufficientStock(available, "Not enough stock for %s", op.productName)
	}
}

// recomputeStockTotals re-derives countInStock from the buckets of each
// touched variant product. The arithmetic $inc keeps the total right,
// but the invariant is recomputed rather than trusted.
func (c *Conf) recomputeStockTotals(ctx context.Context, ids []primitive.ObjectID) {
	for _, id := range ids {
		var product catalog.Product
		if err := c.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			slog.Error("recomputing stock total", slog.String(logkey.ProductID, id.Hex()),
				slog.String(logkey.ERROR, err.Error()))
			continue
		}
		product.RecomputeStock()
		_, err := c.products.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$set": bson.M{"countInStock": product.CountInStock}})
		if err != nil {
			slog.Error("storing recomputed stock total", slog.String(logkey.ProductID, id.Hex()),
				slog.String(logkey.ERROR, err.Error()))
		}
	}
}

func (c *Conf) unredeem(ctx context.Context, code string) {
	if code == "" {
		return
	}
	if err := c.couponConf.Unredeem(ctx, code); err != nil {
		slog.Error("unredeeming coupon after failed checkout",
			slog.String(logkey.CouponID, code), slog.String(logkey.ERROR, err.Error()))
	}
}

// orderNotFound is shared by the ledger lookups.
func orderNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
