package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hadevx/backend/internal/apperr"
	"github.com/hadevx/backend/internal/catalog"
)

func flatProduct(name string, price float64, stock int) *catalog.Product {
	return &catalog.Product{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Price:        price,
		CountInStock: stock,
	}
}

func sizedProduct(name string, price float64, color string, buckets ...catalog.SizeBucket) *catalog.Product {
	return &catalog.Product{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Price: price,
		Variants: []catalog.Variant{
			{ID: primitive.NewObjectID(), Color: color, Sizes: buckets},
		},
	}
}

func productMap(products ...*catalog.Product) map[string]*catalog.Product {
	m := map[string]*catalog.Product{}
	for _, p := range products {
		m[p.ID.Hex()] = p
	}
	return m
}

func TestBuildReservation_FlatProduct(t *testing.T) {
	tee := flatProduct("Tee", 10, 5)

	res, err := buildReservation(
		[]NewOrderItem{{Product: tee.ID.Hex(), Qty: 3}},
		productMap(tee),
	)
	require.NoError(t, err)

	require.Len(t, res.ops, 1)
	assert.Equal(t, opFlat, res.ops[0].kind)
	assert.Equal(t, 3, res.ops[0].qty)

	require.Len(t, res.items, 1)
	assert.Equal(t, "Tee", res.items[0].Name)
	assert.Equal(t, 10.0, res.items[0].Price)
	assert.Equal(t, tee.ID, res.items[0].Product)
}

func TestBuildReservation_InsufficientFlatStock(t *testing.T) {
	tee := flatProduct("Tee", 10, 2)

	_, err := buildReservation(
		[]NewOrderItem{{Product: tee.ID.Hex(), Qty: 5}},
		productMap(tee),
	)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 2, ae.Available)
}

func TestBuildReservation_SizeMatchIsCaseInsensitive(t *testing.T) {
	shirt := sizedProduct("Shirt", 25, "Black",
		catalog.SizeBucket{Size: "M", Stock: 4},
		catalog.SizeBucket{Size: "L", Stock: 1},
	)
	variantID := shirt.Variants[0].ID.Hex()

	res, err := buildReservation(
		[]NewOrderItem{{Product: shirt.ID.Hex(), VariantID: variantID, VariantSize: "m", Qty: 2}},
		productMap(shirt),
	)
	require.NoError(t, err)

	require.Len(t, res.items, 1)
	assert.Equal(t, "M", res.items[0].VariantSize)
	assert.Equal(t, "Black", res.items[0].VariantColor)

	require.Len(t, res.ops, 1)
	assert.Equal(t, opVariantSize, res.ops[0].kind)
	assert.Equal(t, "M", res.ops[0].size)
}

func TestBuildReservation_SizeRequired(t *testing.T) {
	shirt := sizedProduct("Shirt", 25, "Black", catalog.SizeBucket{Size: "M", Stock: 4})
	variantID := shirt.Variants[0].ID.Hex()

	_, err := buildReservation(
		[]NewOrderItem{{Product: shirt.ID.Hex(), VariantID: variantID, Qty: 1}},
		productMap(shirt),
	)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestBuildReservation_UnknownVariant(t *testing.T) {
	shirt := sizedProduct("Shirt", 25, "Black", catalog.SizeBucket{Size: "M", Stock: 4})

	_, err := buildReservation(
		[]NewOrderItem{{
			Product:     shirt.ID.Hex(),
			VariantID:   primitive.NewObjectID().Hex(),
			VariantSize: "M",
			Qty:         1,
		}},
		productMap(shirt),
	)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestBuildReservation_AllOrNothing(t *testing.T) {
	tee := flatProduct("Tee", 10, 5)

	res, err := buildReservation(
		[]NewOrderItem{
			{Product: tee.ID.Hex(), Qty: 1},
			{Product: primitive.NewObjectID().Hex(), Qty: 1},
		},
		productMap(tee),
	)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Empty(t, res.ops)
	assert.Empty(t, res.items)
}

func TestBuildReservation_SnapshotsDiscountedPrice(t *testing.T) {
	tee := flatProduct("Tee", 10, 5)
	tee.HasDiscount = true
	tee.DiscountBy = 0.2
	tee.DiscountedPrice = 8

	res, err := buildReservation(
		[]NewOrderItem{{Product: tee.ID.Hex(), Qty: 1}},
		productMap(tee),
	)
	require.NoError(t, err)
	assert.Equal(t, 8.0, res.items[0].Price)
}

func TestBuildReservation_VariantFlatStock(t *testing.T) {
	mug := &catalog.Product{
		ID:    primitive.NewObjectID(),
		Name:  "Mug",
		Price: 4,
		Variants: []catalog.Variant{
			{ID: primitive.NewObjectID(), Color: "White", Stock: 3},
		},
	}
	variantID := mug.Variants[0].ID.Hex()

	_, err := buildReservation(
		[]NewOrderItem{{Product: mug.ID.Hex(), VariantID: variantID, Qty: 4}},
		productMap(mug),
	)
	require.Error(t, err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindInsufficientStock, ae.Kind)
	assert.Equal(t, 3, ae.Available)
}

func TestReservation_VariantProductIDs(t *testing.T) {
	shirt := sizedProduct("Shirt", 25, "Black",
		catalog.SizeBucket{Size: "M", Stock: 4},
		catalog.SizeBucket{Size: "L", Stock: 4},
	)
	tee := flatProduct("Tee", 10, 5)
	variantID := shirt.Variants[0].ID.Hex()

	res, err := buildReservation(
		[]NewOrderItem{
			{Product: shirt.ID.Hex(), VariantID: variantID, VariantSize: "M", Qty: 1},
			{Product: shirt.ID.Hex(), VariantID: variantID, VariantSize: "L", Qty: 1},
			{Product: tee.ID.Hex(), Qty: 1},
		},
		productMap(shirt, tee),
	)
	require.NoError(t, err)

	ids := res.variantProductIDs()
	require.Len(t, ids, 1)
	assert.Equal(t, shirt.ID, ids[0])
}
