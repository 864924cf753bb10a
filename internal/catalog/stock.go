package catalog

import (
	"context"
)

// StockQuery is one cart line of a pre-checkout availability check.
type StockQuery struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Size      string `json:"size,omitempty"`
	Qty       int    `json:"qty"`
}

// OutOfStockItem echoes the query plus why it cannot be fulfilled.
type OutOfStockItem struct {
	StockQuery
	Reason         string `json:"reason,omitempty"`
	AvailableStock *int   `json:"availableStock,omitempty"`
}

// EvaluateStock checks a single query against a loaded product. It
// returns nil when the quantity is available, otherwise the rejection.
// A nil product means the referenced id did not resolve.
func EvaluateStock(q StockQuery, p *Product) *OutOfStockItem {
	if p == nil {
		return &OutOfStockItem{StockQuery: q, Reason: "Product not found"}
	}

	if q.VariantID != "" {
		variant := p.Variant(q.VariantID)
		if variant == nil {
			return &OutOfStockItem{StockQuery: q, Reason: "Variant not found"}
		}

		if variant.HasSizes() {
			bucket := variant.Size(q.Size)
			if bucket == nil {
				return &OutOfStockItem{StockQuery: q, Reason: "Size not found"}
			}
			if q.Qty > bucket.Stock {
				available := bucket.Stock
				return &OutOfStockItem{StockQuery: q, AvailableStock: &available}
			}
			return nil
		}

		if q.Qty > variant.Stock {
			available := variant.Stock
			return &OutOfStockItem{StockQuery: q, AvailableStock: &available}
		}
		return nil
	}

	if q.Qty > p.CountInStock {
		available := p.CountInStock
		return &OutOfStockItem{StockQuery: q, AvailableStock: &available}
	}
	return nil
}

// CheckStock evaluates a cart against live stock and reports every line
// that cannot be fulfilled. It never mutates anything.
func (c *Conf) CheckStock(ctx context.Context, queries []StockQuery) ([]OutOfStockItem, error) {
	outOfStock := []OutOfStockItem{}
	for _, q := range queries {
		product, err := c.GetProductByID(ctx, q.ProductID)
		if err != nil {
			outOfStock = append(outOfStock, OutOfStockItem{StockQuery: q, Reason: "Product not found"})
			continue
		}
		if rejected := EvaluateStock(q, &product); rejected != nil {
			outOfStock = append(outOfStock, *rejected)
		}
	}
	return outOfStock, nil
}
