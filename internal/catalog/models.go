package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Image struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId,omitempty" json:"publicId,omitempty"`
}

// SizeBucket is the stock counter for one size of one variant. Labels are
// normalized at write time so lookups can compare for equality.
type SizeBucket struct {
	Size  string `bson:"size" json:"size"`
	Stock int    `bson:"stock" json:"stock"`
}

// Variant is a product sub-entity distinguished by color. It carries
// either sized buckets or, when sizes are not used, a flat stock count.
type Variant struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Color  string             `bson:"color" json:"color"`
	Images []Image            `bson:"images,omitempty" json:"images,omitempty"`
	Sizes  []SizeBucket       `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Stock  int                `bson:"stock,omitempty" json:"stock,omitempty"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User        primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Image       []Image            `bson:"image,omitempty" json:"image,omitempty"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`

	// CountInStock is the flat stock for variant-less products. When
	// variants exist it is always the recomputed sum over all buckets.
	CountInStock int       `bson:"countInStock" json:"countInStock"`
	Variants     []Variant `bson:"variants,omitempty" json:"variants,omitempty"`

	Featured        bool    `bson:"featured" json:"featured"`
	HasDiscount     bool    `bson:"hasDiscount" json:"hasDiscount"`
	DiscountBy      float64 `bson:"discountBy,omitempty" json:"discountBy,omitempty"`
	DiscountedPrice float64 `bson:"discountedPrice,omitempty" json:"discountedPrice,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewProduct is the creation payload.
type NewProduct struct {
	Name         string    `json:"name" validate:"required"`
	Image        []Image   `json:"image"`
	Brand        string    `json:"brand"`
	Category     string    `json:"category"`
	Description  string    `json:"description" validate:"required"`
	Price        float64   `json:"price" validate:"required,gt=0"`
	CountInStock int       `json:"countInStock" validate:"min=0"`
	Featured     bool      `json:"featured"`
	Variants     []Variant `json:"variants"`
}

// UpdateProduct is a partial update: nil means "leave unchanged", a
// pointer to the zero value means "set to zero". This replaces per-field
// presence probing at every call site.
type UpdateProduct struct {
	Name         *string    `json:"name"`
	Image        *[]Image   `json:"image"`
	Brand        *string    `json:"brand"`
	Category     *string    `json:"category"`
	Description  *string    `json:"description"`
	Price        *float64   `json:"price"`
	CountInStock *int       `json:"countInStock"`
	Featured     *bool      `json:"featured"`
	Variants     *[]Variant `json:"variants"`
}

// Discount applies a fraction off the price of every product in a set of
// categories.
type Discount struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	DiscountBy float64            `bson:"discountBy" json:"discountBy"`
	Categories []string           `bson:"category" json:"category"`
}

// HasVariants reports whether stock lives in variant buckets rather than
// the flat counter.
func (p *Product) HasVariants() bool { return len(p.Variants) > 0 }

// Variant finds a variant by its hex id.
func (p *Product) Variant(id string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID.Hex() == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// HasSizes reports whether the variant tracks stock per size.
func (v *Variant) HasSizes() bool { return len(v.Sizes) > 0 }

// Size finds a bucket by normalized-equal label comparison.
func (v *Variant) Size(label string) *SizeBucket {
	wanted := NormalizeSize(label)
	for i := range v.Sizes {
		if NormalizeSize(v.Sizes[i].Size) == wanted {
			return &v.Sizes[i]
		}
	}
	return nil
}

// SellingPrice is the price snapshotted onto order items: the discounted
// price when a discount is active, the list price otherwise.
func (p *Product) SellingPrice() float64 {
	if p.HasDiscount && p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.Price
}

// RecomputeStock re-derives CountInStock from the variant buckets. The
// stored value is never trusted after a mutation.
func (p *Product) RecomputeStock() {
	if !p.HasVariants() {
		if p.CountInStock < 0 {
			p.CountInStock = 0
		}
		return
	}
	total := 0
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.HasSizes() {
			for j := range v.Sizes {
				if v.Sizes[j].Stock < 0 {
					v.Sizes[j].Stock = 0
				}
				total += v.Sizes[j].Stock
			}
		} else {
			if v.Stock < 0 {
				v.Stock = 0
			}
			total += v.Stock
		}
	}
	p.CountInStock = total
}
