package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEvaluateStock_ProductNotFound(t *testing.T) {
	q := StockQuery{ProductID: primitive.NewObjectID().Hex(), Qty: 1}

	out := EvaluateStock(q, nil)
	require.NotNil(t, out)
	assert.Equal(t, "Product not found", out.Reason)
}

func TestEvaluateStock_FlatStock(t *testing.T) {
	p := &Product{ID: primitive.NewObjectID(), Name: "Tee", CountInStock: 5}

	assert.Nil(t, EvaluateStock(StockQuery{ProductID: p.ID.Hex(), Qty: 5}, p))

	out := EvaluateStock(StockQuery{ProductID: p.ID.Hex(), Qty: 6}, p)
	require.NotNil(t, out)
	require.NotNil(t, out.AvailableStock)
	assert.Equal(t, 5, *out.AvailableStock)
}

func TestEvaluateStock_VariantNotFound(t *testing.T) {
	p := &Product{
		ID: primitive.NewObjectID(),
		Variants: []Variant{
			{ID: primitive.NewObjectID(), Color: "Black", Stock: 2},
		},
	}

	out := EvaluateStock(StockQuery{
		ProductID: p.ID.Hex(),
		VariantID: primitive.NewObjectID().Hex(),
		Qty:       1,
	}, p)
	require.NotNil(t, out)
	assert.Equal(t, "Variant not found", out.Reason)
}

func TestEvaluateStock_SizedVariant(t *testing.T) {
	variantID := primitive.NewObjectID()
	p := &Product{
		ID: primitive.NewObjectID(),
		Variants: []Variant{
			{ID: variantID, Color: "Black", Sizes: []SizeBucket{{Size: "M", Stock: 3}}},
		},
	}

	// case-insensitive size lookup
	assert.Nil(t, EvaluateStock(StockQuery{
		ProductID: p.ID.Hex(), VariantID: variantID.Hex(), Size: "m", Qty: 3,
	}, p))

	out := EvaluateStock(StockQuery{
		ProductID: p.ID.Hex(), VariantID: variantID.Hex(), Size: "M", Qty: 4,
	}, p)
	require.NotNil(t, out)
	require.NotNil(t, out.AvailableStock)
	assert.Equal(t, 3, *out.AvailableStock)

	out = EvaluateStock(StockQuery{
		ProductID: p.ID.Hex(), VariantID: variantID.Hex(), Size: "XL", Qty: 1,
	}, p)
	require.NotNil(t, out)
	assert.Equal(t, "Size not found", out.Reason)
}

func TestEvaluateStock_VariantFlatStock(t *testing.T) {
	variantID := primitive.NewObjectID()
	p := &Product{
		ID: primitive.NewObjectID(),
		Variants: []Variant{
			{ID: variantID, Color: "White", Stock: 2},
		},
	}

	assert.Nil(t, EvaluateStock(StockQuery{
		ProductID: p.ID.Hex(), VariantID: variantID.Hex(), Qty: 2,
	}, p))

	out := EvaluateStock(StockQuery{
		ProductID: p.ID.Hex(), VariantID: variantID.Hex(), Qty: 3,
	}, p)
	require.NotNil(t, out)
	require.NotNil(t, out.AvailableStock)
	assert.Equal(t, 2, *out.AvailableStock)
}
