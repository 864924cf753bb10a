package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool      { return &b }

func TestApplyDelivery_PartialUpdate(t *testing.T) {
	d := Delivery{
		TimeToDeliver:         "today",
		ShippingFee:           2,
		MinDeliveryCost:       5,
		FreeDeliveryThreshold: 20,
	}

	applyDelivery(&d, UpdateDelivery{ShippingFee: f64Ptr(3)})

	assert.Equal(t, 3.0, d.ShippingFee)
	assert.Equal(t, "today", d.TimeToDeliver)
	assert.Equal(t, 5.0, d.MinDeliveryCost)
	assert.Equal(t, 20.0, d.FreeDeliveryThreshold)
}

func TestApplyDelivery_ZeroThresholdDisables(t *testing.T) {
	d := Delivery{FreeDeliveryThreshold: 20}
	applyDelivery(&d, UpdateDelivery{FreeDeliveryThreshold: f64Ptr(0)})
	assert.Equal(t, 0.0, d.FreeDeliveryThreshold)
}

func TestApplyDelivery_ZoneFeesFiltered(t *testing.T) {
	d := Delivery{}
	fees := []ZoneFee{
		{Zone: " Hawally ", Fee: 1.5},
		{Zone: "", Fee: 2},
		{Zone: "Salmiya", Fee: -1},
	}
	applyDelivery(&d, UpdateDelivery{ZoneFees: &fees})

	assert.Equal(t, []ZoneFee{{Zone: "Hawally", Fee: 1.5}}, d.ZoneFees)
}

func TestApplyDelivery_EmptyZoneFeesDisables(t *testing.T) {
	d := Delivery{ZoneFees: []ZoneFee{{Zone: "Hawally", Fee: 1}}}
	empty := []ZoneFee{}
	applyDelivery(&d, UpdateDelivery{ZoneFees: &empty})
	assert.Empty(t, d.ZoneFees)
}

func TestApplyStore_PartialUpdate(t *testing.T) {
	s := Store{Status: "active", StoreName: "Hadevx", CashOnDeliveryEnabled: true}

	applyStore(&s, UpdateStore{
		Email:                 strPtr("  Owner@Example.COM "),
		CashOnDeliveryEnabled: boolPtr(false),
	})

	assert.Equal(t, "owner@example.com", s.Email)
	assert.False(t, s.CashOnDeliveryEnabled)
	assert.Equal(t, "active", s.Status)
	assert.Equal(t, "Hadevx", s.StoreName)
}

func TestApplyStore_SocialHandles(t *testing.T) {
	s := Store{}
	applyStore(&s, UpdateStore{
		Instagram: strPtr("@mystore"),
		Twitter:   strPtr("mystore"),
		Tiktok:    strPtr("@mystore"),
	})

	assert.Equal(t, "https://instagram.com/mystore", s.Instagram)
	assert.Equal(t, "https://x.com/mystore", s.Twitter)
	assert.Equal(t, "https://www.tiktok.com/@mystore", s.Tiktok)
}

func TestNormalizeSocial(t *testing.T) {
	assert.Equal(t, "https://instagram.com/shop", normalizeSocial("@shop", "https://instagram.com/"))
	assert.Equal(t, "https://x.com/shop", normalizeSocial("shop", "https://x.com/"))
	assert.Equal(t, "https://instagram.com/already", normalizeSocial("https://instagram.com/already", "https://x.com/"))
	assert.Equal(t, "", normalizeSocial("   ", "https://x.com/"))
}
