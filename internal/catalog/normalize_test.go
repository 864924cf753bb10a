package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"xl", "XL"},
		{" XL ", "XL"},
		{"xxl", "XXL"},
		{"2xl", "2XL"},
		{"4xl", "4XL"},
		{"medium", "Medium"},
		{"one size", "One Size"},
		{"onesize", "One Size"},
		{"os", "One Size"},
		{"free size", "Free Size"},
		{"42", "42"},
		{"eu 42", "EU 42"},
		{"us 9", "US 9"},
		{"slim fit", "Slim Fit"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSize(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeSize_Idempotent(t *testing.T) {
	inputs := []string{"xl", "medium", "one size", "eu 42", "42", "slim fit"}
	for _, in := range inputs {
		once := NormalizeSize(in)
		assert.Equal(t, once, NormalizeSize(once), "input %q", in)
	}
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "Black", NormalizeColor("black"))
	assert.Equal(t, "Black", NormalizeColor("BLACK"))
	assert.Equal(t, "Navy blue", NormalizeColor("navy BLUE"))
	assert.Equal(t, "", NormalizeColor("  "))
}

func TestRecomputeStock(t *testing.T) {
	p := Product{
		CountInStock: 99,
		Variants: []Variant{
			{Sizes: []SizeBucket{{Size: "M", Stock: 3}, {Size: "L", Stock: -2}}},
			{Stock: 4},
		},
	}
	p.RecomputeStock()

	assert.Equal(t, 7, p.CountInStock)
	assert.Equal(t, 0, p.Variants[0].Sizes[1].Stock, "negative buckets are clamped")
}

func TestRecomputeStock_FlatProduct(t *testing.T) {
	p := Product{CountInStock: -1}
	p.RecomputeStock()
	assert.Equal(t, 0, p.CountInStock)

	p = Product{CountInStock: 12}
	p.RecomputeStock()
	assert.Equal(t, 12, p.CountInStock)
}

func TestSellingPrice(t *testing.T) {
	p := Product{Price: 10}
	assert.Equal(t, 10.0, p.SellingPrice())

	p.HasDiscount = true
	p.DiscountedPrice = 8
	assert.Equal(t, 8.0, p.SellingPrice())

	// stale flag without a stored price falls back to list price
	p.DiscountedPrice = 0
	assert.Equal(t, 10.0, p.SellingPrice())
}
