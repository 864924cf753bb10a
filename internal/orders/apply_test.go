package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/hadevx/backend/internal/apperr"
	"github.com/hadevx/backend/internal/coupons"
	"github.com/hadevx/backend/internal/users"
)

func mockConf(mt *mtest.T) *Conf {
	mt.Helper()
	cp, err := coupons.NewConf(mt.DB)
	require.NoError(mt, err)
	c, err := NewConf(mt.DB, cp)
	require.NoError(mt, err)
	return c
}

func startedCommands(mt *mtest.T, name string) []*event.CommandStartedEvent {
	var matched []*event.CommandStartedEvent
	for _, evt := range mt.GetAllStartedEvents() {
		if evt.CommandName == name {
			matched = append(matched, evt)
		}
	}
	return matched
}

func firstUpdateStatement(mt *mtest.T, evt *event.CommandStartedEvent) bson.Raw {
	mt.Helper()
	return evt.Command.Lookup("updates").Array().Index(0).Value().Document()
}

func updateOK(matched int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: matched},
	)
}

func flatProductDoc(id primitive.ObjectID, name string, price float64, stock int) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "price", Value: price},
		{Key: "countInStock", Value: stock},
	}
}

func TestApplyReservation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("lost race reverses already applied decrements", func(mt *mtest.T) {
		c := mockConf(mt)
		won := stockOp{kind: opFlat, productID: primitive.NewObjectID(), qty: 2, productName: "Mug"}
		lost := stockOp{kind: opFlat, productID: primitive.NewObjectID(), qty: 1, productName: "Cap"}

		mt.AddMockResponses(
			updateOK(1), // first decrement lands
			updateOK(0), // second finds the stock already taken
			updateOK(1), // rollback of the first
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
				flatProductDoc(lost.productID, "Cap", 5, 0)),
		)

		err := c.applyReservation(context.Background(), []stockOp{won, lost})

		require.Error(mt, err)
		var ae *apperr.Error
		require.ErrorAs(mt, err, &ae)
		assert.Equal(mt, apperr.KindInsufficientStock, ae.Kind)
		assert.Equal(mt, 0, ae.Available)
		assert.Contains(mt, err.Error(), "Cap")

		updates := startedCommands(mt, "update")
		require.Len(mt, updates, 3)

		// The third update must be the compensating increment for the op
		// that had already been applied.
		rollback := firstUpdateStatement(mt, updates[2])
		assert.Equal(mt, won.productID, rollback.Lookup("q").Document().Lookup("_id").ObjectID())
		inc, ok := rollback.Lookup("u").Document().Lookup("$inc").Document().Lookup("countInStock").AsInt64OK()
		require.True(mt, ok)
		assert.Equal(mt, int64(2), inc)
	})

	mt.Run("losing the first op issues no rollback", func(mt *mtest.T) {
		c := mockConf(mt)
		op := stockOp{kind: opFlat, productID: primitive.NewObjectID(), qty: 3, productName: "Mug"}

		mt.AddMockResponses(
			updateOK(0),
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
				flatProductDoc(op.productID, "Mug", 5, 1)),
		)

		err := c.applyReservation(context.Background(), []stockOp{op})

		var ae *apperr.Error
		require.ErrorAs(mt, err, &ae)
		assert.Equal(mt, apperr.KindInsufficientStock, ae.Kind)
		// Availability is re-read live, not taken from the stale plan.
		assert.Equal(mt, 1, ae.Available)

		assert.Len(mt, startedCommands(mt, "update"), 1)
	})
}

func TestCreateOrder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reserves stock and persists the order", func(mt *mtest.T) {
		c := mockConf(mt)
		pid := primitive.NewObjectID()
		user := users.User{ID: primitive.NewObjectID(), Name: "Sara", Email: "sara@example.com"}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
				flatProductDoc(pid, "Mug", 10, 5)),
			updateOK(1),
			mtest.CreateSuccessResponse(),
		)

		order, err := c.CreateOrder(context.Background(), user, NewOrder{
			OrderItems:    []NewOrderItem{{Product: pid.Hex(), Qty: 2}},
			PaymentMethod: "cod",
			ItemsPrice:    20,
			TotalPrice:    20,
		})

		require.NoError(mt, err)
		assert.Equal(mt, StatusPending, order.Status)
		require.Len(mt, order.Items, 1)
		assert.Equal(mt, "Mug", order.Items[0].Name)
		assert.Equal(mt, 2, order.Items[0].Qty)
		assert.Equal(mt, pid, order.Items[0].Product)

		updates := startedCommands(mt, "update")
		require.Len(mt, updates, 1)
		stmt := firstUpdateStatement(mt, updates[0])
		guard, ok := stmt.Lookup("q").Document().Lookup("countInStock").Document().Lookup("$gte").AsInt64OK()
		require.True(mt, ok)
		assert.Equal(mt, int64(2), guard)

		assert.Len(mt, startedCommands(mt, "insert"), 1)
	})

	mt.Run("failed reservation returns the coupon use", func(mt *mtest.T) {
		c := mockConf(mt)
		pid := primitive.NewObjectID()
		user := users.User{ID: primitive.NewObjectID()}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
				flatProductDoc(pid, "Mug", 10, 5)),
			updateOK(1), // coupon redeemed
			updateOK(0), // reservation loses the race
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
				flatProductDoc(pid, "Mug", 10, 0)),
			updateOK(1), // coupon use handed back
		)

		_, err := c.CreateOrder(context.Background(), user, NewOrder{
			OrderItems:    []NewOrderItem{{Product: pid.Hex(), Qty: 5}},
			PaymentMethod: "cod",
			Coupon:        "shoes5",
		})

		require.Error(mt, err)
		assert.True(mt, apperr.IsKind(err, apperr.KindInsufficientStock))

		updates := startedCommands(mt, "update")
		require.Len(mt, updates, 3)

		unredeem := updates[2]
		assert.Equal(mt, "coupons", unredeem.Command.Lookup("update").StringValue())
		stmt := firstUpdateStatement(mt, unredeem)
		assert.Equal(mt, "SHOES5", stmt.Lookup("q").Document().Lookup("code").StringValue())
		dec, ok := stmt.Lookup("u").Document().Lookup("$inc").Document().Lookup("usedCount").AsInt64OK()
		require.True(mt, ok)
		assert.Equal(mt, int64(-1), dec)
	})

	mt.Run("failed insert restocks and returns the coupon use", func(mt *mtest.T) {
		c := mockConf(mt)
		pid := primitive.NewObjectID()
		user := users.User{ID: primitive.NewObjectID()}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch,
				flatProductDoc(pid, "Mug", 10, 5)),
			updateOK(1), // coupon redeemed
			updateOK(1), // reservation lands
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "dup"}),
			updateOK(1), // stock put back
			updateOK(1), // coupon use handed back
		)

		_, err := c.CreateOrder(context.Background(), user, NewOrder{
			OrderItems:    []NewOrderItem{{Product: pid.Hex(), Qty: 3}},
			PaymentMethod: "cod",
			Coupon:        "shoes5",
		})

		require.Error(mt, err)
		assert.True(mt, apperr.IsKind(err, apperr.KindInternal))

		updates := startedCommands(mt, "update")
		require.Len(mt, updates, 4)

		// Third update reverses the decrement with no stock guard on the
		// filter, so the restock always lands.
		restock := firstUpdateStatement(mt, updates[2])
		assert.Equal(mt, "products", updates[2].Command.Lookup("update").StringValue())
		assert.Equal(mt, pid, restock.Lookup("q").Document().Lookup("_id").ObjectID())
		_, guarded := restock.Lookup("q").Document().Lookup("countInStock").DocumentOK()
		assert.False(mt, guarded)
		inc, ok := restock.Lookup("u").Document().Lookup("$inc").Document().Lookup("countInStock").AsInt64OK()
		require.True(mt, ok)
		assert.Equal(mt, int64(3), inc)

		assert.Equal(mt, "coupons", updates[3].Command.Lookup("update").StringValue())
	})
}
