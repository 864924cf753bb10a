package orders

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hadevx/backend/internal/apperr"
	"github.com/hadevx/backend/internal/catalog"
)

// opKind selects which stock field a reservation op decrements.
type opKind int

const (
	opFlat opKind = iota
	opVariantFlat
	opVariantSize
)

// stockOp is one conditional decrement of the reservation plan.
type stockOp struct {
	kind      opKind
	productID primitive.ObjectID
	variantID primitive.ObjectID
	size      string
	qty       int

	// for error reporting only
	productName  string
	variantColor string
}

// reservation is the outcome of the validation pass: the decrements to
// apply and the item snapshots for the order document. Nothing has been
// mutated when a reservation is returned.
type reservation struct {
	ops   []stockOp
	items []OrderItem
}

// buildReservation validates every requested line against the batch of
// loaded products and assembles the plan. Validation is a separate pass
// from mutation so a failure on line N leaves lines 1..N-1 untouched.
func buildReservation(requested []NewOrderItem, productMap map[string]*catalog.Product) (reservation, error) {
	var res reservation

	for _, item := range requested {
		product, ok := productMap[item.Product]
		if !ok {
			return reservation{}, apperr.NotFoundf("Product not found: %s", item.Product)
		}

		snapshot := OrderItem{
			Name:    product.Name,
			Qty:     item.Qty,
			Image:   product.Image,
			Price:   product.SellingPrice(),
			Product: product.ID,
		}

		if product.HasVariants() {
			variant := product.Variant(item.VariantID)
			if variant == nil {
				return reservation{}, apperr.NotFoundf("Variant not found")
			}
			snapshot.VariantID = variant.ID
			snapshot.VariantColor = variant.Color
			snapshot.VariantImage = variant.Images

			if item.VariantSize != "" {
				bucket := variant.Size(item.VariantSize)
				if bucket == nil {
					return reservation{}, apperr.NotFoundf("Size not found")
				}
				if bucket.Stock < item.Qty {
					return reservation{}, apperr.InsufficientStock(bucket.Stock,
						"Not enough stock for %s (%s/%s)", product.Name, variant.Color, bucket.Size)
				}
				snapshot.VariantSize = bucket.Size
				res.ops = append(res.ops, stockOp{
					kind:         opVariantSize,
					productID:    product.ID,
					variantID:    variant.ID,
					size:         bucket.Size,
					qty:          item.Qty,
					productName:  product.Name,
					variantColor: variant.Color,
				})
			} else {
				if variant.HasSizes() {
					return reservation{}, apperr.Validationf("Size is required")
				}
				if variant.Stock < item.Qty {
					return reservation{}, apperr.InsufficientStock(variant.Stock,
						"Not enough stock for %s (%s)", product.Name, variant.Color)
				}
				res.ops = append(res.ops, stockOp{
					kind:         opVariantFlat,
					productID:    product.ID,
					variantID:    variant.ID,
					qty:          item.Qty,
					productName:  product.Name,
					variantColor: variant.Color,
				})
			}
		} else {
			if product.CountInStock < item.Qty {
				return reservation{}, apperr.InsufficientStock(product.CountInStock,
					"Not enough stock for %s", product.Name)
			}
			res.ops = append(res.ops, stockOp{
				kind:        opFlat,
				productID:   product.ID,
				qty:         item.Qty,
				productName: product.Name,
			})
		}

		res.items = append(res.items, snapshot)
	}

	return res, nil
}

// variantProductIDs returns the distinct products whose countInStock
// must be recomputed from buckets after the plan is applied.
func (r reservation) variantProductIDs() []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, op := range r.ops {
		if op.kind == opFlat || seen[op.productID] {
			continue
		}
		seen[op.productID] = true
		ids = append(ids, op.productID)
	}
	return ids
}
