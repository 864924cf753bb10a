package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/hadevx/backend/internal/catalog"
	"github.com/hadevx/backend/internal/coupons"
	"github.com/hadevx/backend/internal/orders"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCheckStock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	newRouter := func(mt *mtest.T) *gin.Engine {
		p, err := catalog.NewConf(mt.DB)
		require.NoError(mt, err)
		h := NewHandler(p, nil, nil, nil, nil, nil)
		r := gin.New()
		r.POST("/api/orders/check-stock", h.CheckStock)
		return r
	}

	mt.Run("accepts a bare array body", func(mt *mtest.T) {
		r := newRouter(mt)
		pid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: pid},
			{Key: "name", Value: "Mug"},
			{Key: "countInStock", Value: 5},
		}))

		w := postJSON(r, "/api/orders/check-stock",
			fmt.Sprintf(`[{"productId":%q,"qty":2}]`, pid.Hex()))

		require.Equal(mt, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			OutOfStockItems []catalog.OutOfStockItem `json:"outOfStockItems"`
		}
		require.NoError(mt, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(mt, resp.OutOfStockItems)
	})

	mt.Run("reports short lines with live availability", func(mt *mtest.T) {
		r := newRouter(mt)
		pid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.products", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: pid},
			{Key: "name", Value: "Mug"},
			{Key: "countInStock", Value: 1},
		}))

		w := postJSON(r, "/api/orders/check-stock",
			fmt.Sprintf(`[{"productId":%q,"qty":3}]`, pid.Hex()))

		require.Equal(mt, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			OutOfStockItems []catalog.OutOfStockItem `json:"outOfStockItems"`
		}
		require.NoError(mt, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(mt, resp.OutOfStockItems, 1)
		require.NotNil(mt, resp.OutOfStockItems[0].AvailableStock)
		assert.Equal(mt, 1, *resp.OutOfStockItems[0].AvailableStock)
	})

	mt.Run("rejects an empty array", func(mt *mtest.T) {
		w := postJSON(newRouter(mt), "/api/orders/check-stock", `[]`)
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})

	mt.Run("rejects a non-array body", func(mt *mtest.T) {
		w := postJSON(newRouter(mt), "/api/orders/check-stock", `{"orderItems":[]}`)
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}

func TestListOrders_Pagination(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reads the pageNumber query", func(mt *mtest.T) {
		cp, err := coupons.NewConf(mt.DB)
		require.NoError(mt, err)
		o, err := orders.NewConf(mt.DB, cp)
		require.NoError(mt, err)
		h := NewHandler(nil, nil, o, nil, nil, nil)
		r := gin.New()
		r.GET("/api/orders", h.ListOrders)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.orders", mtest.FirstBatch,
				bson.D{{Key: "n", Value: 120}}), // count
			mtest.CreateCursorResponse(0, "test.orders", mtest.FirstBatch), // page
			mtest.CreateCursorResponse(0, "test.orders", mtest.FirstBatch), // totals
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/orders?pageNumber=3", nil)
		r.ServeHTTP(w, req)

		require.Equal(mt, http.StatusOK, w.Code, w.Body.String())
		var resp orders.ListResult
		require.NoError(mt, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(mt, 3, resp.Page)
		assert.Equal(mt, 3, resp.Pages)
		assert.Equal(mt, 120, resp.Total)

		var finds int
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName != "find" {
				continue
			}
			finds++
			skip, ok := evt.Command.Lookup("skip").AsInt64OK()
			require.True(mt, ok)
			assert.Equal(mt, int64(100), skip)
		}
		assert.Equal(mt, 1, finds)
	})
}
