package orders

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hadevx/backend/internal/apperr"
	"github.com/hadevx/backend/internal/metrics"
	"github.com/hadevx/backend/internal/users"
)

const pageSize = 50

// ListResult is the admin order listing page plus ledger-wide totals
// over non-canceled orders.
type ListResult struct {
	Orders       []PopulatedOrder `json:"orders"`
	Page         int              `json:"page"`
	Pages        int              `json:"pages"`
	Total        int              `json:"total"`
	TotalRevenue string           `json:"totalRevenue"`
	TotalItems   int              `json:"totalItems"`
}

// StatusCounts summarizes the ledger by lifecycle state.
type StatusCounts struct {
	Delivered  int64 `json:"delivered"`
	Canceled   int64 `json:"canceled"`
	Processing int64 `json:"processing"`
	Total      int64 `json:"total"`
}

// MonthRevenue is one bucket of the monthly revenue aggregate.
type MonthRevenue struct {
	Month        int     `bson:"_id" json:"_id"`
	TotalRevenue float64 `bson:"totalRevenue" json:"totalRevenue"`
}

// RevenueReport groups non-canceled revenue by calendar month.
type RevenueReport struct {
	Monthly      []MonthRevenue `json:"monthly"`
	TotalRevenue float64        `json:"totalRevenue"`
}

// MarkPaid transitions the order to paid and stores the payment receipt.
// Re-marking a paid order overwrites the receipt.
func (c *Conf) MarkPaid(ctx context.Context, id string, receipt PaymentResult) (Order, error) {
	order, err := c.getOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := checkTransition(order.Status, StatusPaid); err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	order.Status = StatusPaid
	order.PaidAt = &now
	order.PaymentResult = &receipt
	order.UpdatedAt = now

	if err := c.replaceOrder(ctx, order); err != nil {
		return Order{}, err
	}
	metrics.OrdersTotal.WithLabelValues(string(StatusPaid)).Inc()
	return order, nil
}

// MarkDelivered transitions the order to delivered.
func (c *Conf) MarkDelivered(ctx context.Context, id string) (Order, error) {
	order, err := c.getOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := checkTransition(order.Status, StatusDelivered); err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	order.Status = StatusDelivered
	order.DeliveredAt = &now
	order.UpdatedAt = now

	if err := c.replaceOrder(ctx, order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// MarkCanceled transitions the order to canceled. Reserved stock is not
// returned to the catalog.
func (c *Conf) MarkCanceled(ctx context.Context, id string) (Order, error) {
	order, err := c.getOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := checkTransition(order.Status, StatusCanceled); err != nil {
		return Order{}, err
	}

	order.Status = StatusCanceled
	order.UpdatedAt = time.Now().UTC()

	if err := c.replaceOrder(ctx, order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// GetMyOrders returns the caller's orders, newest first.
func (c *Conf) GetMyOrders(ctx context.Context, userID primitive.ObjectID) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.orders.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, apperr.Internalf(err, "listing orders for user %s", userID.Hex())
	}
	defer cursor.Close(ctx)

	var found []Order
	if err := cursor.All(ctx, &found); err != nil {
		return nil, apperr.Internalf(err, "decoding orders")
	}
	if len(found) == 0 {
		return nil, apperr.NotFoundf("Order not found")
	}
	return found, nil
}

// GetOrderByID returns one order with the customer populated.
func (c *Conf) GetOrderByID(ctx context.Context, id string) (PopulatedOrder, error) {
	order, err := c.getOrder(ctx, id)
	if err != nil {
		return PopulatedOrder{}, err
	}

	populated := PopulatedOrder{Order: order}
	var user users.PublicUser
	if err := c.userDocs.FindOne(ctx, bson.M{"_id": order.User}).Decode(&user); err == nil {
		populated.UserInfo = user
	}
	return populated, nil
}

// GetUserOrders returns every order of one user, for the admin view.
func (c *Conf) GetUserOrders(ctx context.Context, userID string) ([]Order, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.NotFoundf("No orders found for this user.")
	}

	cursor, err := c.orders.Find(ctx, bson.M{"user": oid})
	if err != nil {
		return nil, apperr.Internalf(err, "listing orders for user %s", userID)
	}
	defer cursor.Close(ctx)

	found := []Order{}
	if err := cursor.All(ctx, &found); err != nil {
		return nil, apperr.Internalf(err, "decoding orders")
	}
	return found, nil
}

// ListOrders returns one admin page, newest first, with revenue and item
// totals aggregated over all non-canceled orders.
func (c *Conf) ListOrders(ctx context.Context, page int) (ListResult, error) {
	if page < 1 {
		page = 1
	}

	total, err := c.orders.CountDocuments(ctx, bson.M{})
	if err != nil {
		return ListResult{}, apperr.Internalf(err, "counting orders")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(pageSize * (page - 1))).
		SetLimit(pageSize)
	cursor, err := c.orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		return ListResult{}, apperr.Internalf(err, "listing orders")
	}
	defer cursor.Close(ctx)

	pageOrders := []Order{}
	if err := cursor.All(ctx, &pageOrders); err != nil {
		return ListResult{}, apperr.Internalf(err, "decoding orders")
	}

	populated, err := c.populateUsers(ctx, pageOrders)
	if err != nil {
		return ListResult{}, err
	}

	totalRevenue, totalItems, err := c.ledgerTotals(ctx)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Orders:       populated,
		Page:         page,
		Pages:        int(math.Ceil(float64(total) / float64(pageSize))),
		Total:        int(total),
		TotalRevenue: decimal.NewFromFloat(totalRevenue).StringFixed(3),
		TotalItems:   totalItems,
	}, nil
}

// ledgerTotals sums revenue and item counts over non-canceled orders.
func (c *Conf) ledgerTotals(ctx context.Context) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": StatusCanceled}}}},
		{{Key: "$project", Value: bson.M{
			"totalPrice": 1,
			"itemsCount": bson.M{"$size": "$orderItems"},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"totalRevenue": bson.M{"$sum": "$totalPrice"},
			"totalItems":   bson.M{"$sum": "$itemsCount"},
		}}},
	}

	cursor, err := c.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, apperr.Internalf(err, "aggregating order totals")
	}
	defer cursor.Close(ctx)

	var totals []struct {
		TotalRevenue float64 `bson:"totalRevenue"`
		TotalItems   int     `bson:"totalItems"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return 0, 0, apperr.Internalf(err, "decoding order totals")
	}
	if len(totals) == 0 {
		return 0, 0, nil
	}
	return totals[0].TotalRevenue, totals[0].TotalItems, nil
}

// OrderStats counts orders per lifecycle state.
func (c *Conf) OrderStats(ctx context.Context) (StatusCounts, error) {
	var counts StatusCounts
	var err error

	if counts.Delivered, err = c.orders.CountDocuments(ctx, bson.M{"status": StatusDelivered}); err != nil {
		return StatusCounts{}, apperr.Internalf(err, "counting delivered orders")
	}
	if counts.Canceled, err = c.orders.CountDocuments(ctx, bson.M{"status": StatusCanceled}); err != nil {
		return StatusCounts{}, apperr.Internalf(err, "counting canceled orders")
	}
	if counts.Processing, err = c.orders.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []Status{StatusPending, StatusPaid}},
	}); err != nil {
		return StatusCounts{}, apperr.Internalf(err, "counting processing orders")
	}
	if counts.Total, err = c.orders.CountDocuments(ctx, bson.M{}); err != nil {
		return StatusCounts{}, apperr.Internalf(err, "counting orders")
	}
	return counts, nil
}

// RevenueByMonth groups non-canceled revenue by calendar month.
func (c *Conf) RevenueByMonth(ctx context.Context) (RevenueReport, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": StatusCanceled}}}},
		{{Key: "$group", Value: bson.M{
			"_id":          bson.M{"$month": "$createdAt"},
			"totalRevenue": bson.M{"$sum": "$totalPrice"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := c.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return RevenueReport{}, apperr.Internalf(err, "aggregating monthly revenue")
	}
	defer cursor.Close(ctx)

	monthly := []MonthRevenue{}
	if err := cursor.All(ctx, &monthly); err != nil {
		return RevenueReport{}, apperr.Internalf(err, "decoding monthly revenue")
	}

	total := decimal.Zero
	for _, m := range monthly {
		total = total.Add(decimal.NewFromFloat(m.TotalRevenue))
	}
	totalF, _ := total.Float64()

	return RevenueReport{Monthly: monthly, TotalRevenue: totalF}, nil
}

func (c *Conf) populateUsers(ctx context.Context, list []Order) ([]PopulatedOrder, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, o := range list {
		if !seen[o.User] {
			seen[o.User] = true
			ids = append(ids, o.User)
		}
	}

	byID := map[primitive.ObjectID]users.PublicUser{}
	if len(ids) > 0 {
		cursor, err := c.userDocs.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, apperr.Internalf(err, "loading order users")
		}
		defer cursor.Close(ctx)

		var found []users.PublicUser
		if err := cursor.All(ctx, &found); err != nil {
			return nil, apperr.Internalf(err, "decoding order users")
		}
		for _, u := range found {
			byID[u.ID] = u
		}
	}

	populated := make([]PopulatedOrder, 0, len(list))
	for _, o := range list {
		populated = append(populated, PopulatedOrder{Order: o, UserInfo: byID[o.User]})
	}
	return populated, nil
}

func (c *Conf) getOrder(ctx context.Context, id string) (Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Order{}, apperr.NotFoundf("Order not found")
	}

	var order Order
	err = c.orders.FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if err != nil {
		if orderNotFound(err) {
			return Order{}, apperr.NotFoundf("Order not found")
		}
		return Order{}, apperr.Internalf(err, "fetching order %s", id)
	}
	return order, nil
}

func (c *Conf) replaceOrder(ctx context.Context, order Order) error {
	res, err := c.orders.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return apperr.Internalf(err, "updating order %s", order.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("Order not found")
	}
	return nil
}
