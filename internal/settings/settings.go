// Package settings stores singleton configuration documents for delivery
// pricing and the storefront. Each aggregate is one versioned document
// under a fixed id; updates are partial and guarded by the version so
// concurrent admin edits cannot silently overwrite each other.
package settings

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hadevx/backend/internal/apperr"
)

type Conf struct {
	col *mongo.Collection
}

func NewConf(db *mongo.Database) (*Conf, error) {
	if db == nil {
		return nil, apperr.Internalf(nil, "database is nil")
	}
	return &Conf{col: db.Collection("settings")}, nil
}

// GetDelivery returns the delivery settings, materializing defaults on
// first read.
func (c *Conf) GetDelivery(ctx context.Context) (Delivery, error) {
	var d Delivery
	err := c.col.FindOne(ctx, bson.M{"_id": KeyDelivery}).Decode(&d)
	if err == nil {
		return d, nil
	}
	if err != mongo.ErrNoDocuments {
		return Delivery{}, apperr.Internalf(err, "fetching delivery settings")
	}
	return c.seedDelivery(ctx)
}

// UpdateDelivery applies a partial update and bumps the version. A
// concurrent edit between read and write surfaces as a conflict.
func (c *Conf) UpdateDelivery(ctx context.Context, up UpdateDelivery) (Delivery, error) {
	d, err := c.GetDelivery(ctx)
	if err != nil {
		return Delivery{}, err
	}

	applyDelivery(&d, up)
	return c.saveDelivery(ctx, d)
}

// DisableAdvancedDelivery clears the free-delivery threshold and zone
// fees in one step.
func (c *Conf) DisableAdvancedDelivery(ctx context.Context) (Delivery, error) {
	var d Delivery
	err := c.col.FindOne(ctx, bson.M{"_id": KeyDelivery}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return Delivery{}, apperr.NotFoundf("Delivery settings not found")
		}
		return Delivery{}, apperr.Internalf(err, "fetching delivery settings")
	}

	d.FreeDeliveryThreshold = 0
	d.ZoneFees = []ZoneFee{}
	return c.saveDelivery(ctx, d)
}

// GetStore returns the storefront settings, materializing defaults on
// first read.
func (c *Conf) GetStore(ctx context.Context) (Store, error) {
	var s Store
	err := c.col.FindOne(ctx, bson.M{"_id": KeyStore}).Decode(&s)
	if err == nil {
		return s, nil
	}
	if err != mongo.ErrNoDocuments {
		return Store{}, apperr.Internalf(err, "fetching store settings")
	}
	return c.seedStore(ctx)
}

// UpdateStore applies a partial update and bumps the version.
func (c *Conf) UpdateStore(ctx context.Context, up UpdateStore) (Store, error) {
	s, err := c.GetStore(ctx)
	if err != nil {
		return Store{}, err
	}

	applyStore(&s, up)
	return c.saveStore(ctx, s)
}

// applyDelivery folds non-nil fields of the update into the document.
func applyDelivery(d *Delivery, up UpdateDelivery) {
	if up.TimeToDeliver != nil {
		d.TimeToDeliver = strings.TrimSpace(*up.TimeToDeliver)
	}
	if up.ShippingFee != nil {
		d.ShippingFee = *up.ShippingFee
	}
	if up.MinDeliveryCost != nil {
		d.MinDeliveryCost = *up.MinDeliveryCost
	}
	if up.FreeDeliveryThreshold != nil {
		d.FreeDeliveryThreshold = *up.FreeDeliveryThreshold
	}
	if up.ZoneFees != nil {
		fees := make([]ZoneFee, 0, len(*up.ZoneFees))
		for _, z := range *up.ZoneFees {
			zone := strings.TrimSpace(z.Zone)
			if zone == "" || z.Fee < 0 {
				continue
			}
			fees = append(fees, ZoneFee{Zone: zone, Fee: z.Fee})
		}
		d.ZoneFees = fees
	}
}

// applyStore folds non-nil fields of the update into the document.
// Social handles are expanded to full profile URLs.
func applyStore(s *Store, up UpdateStore) {
	if up.Status != nil {
		s.Status = *up.Status
	}
	if up.StoreName != nil {
		s.StoreName = strings.TrimSpace(*up.StoreName)
	}
	if up.Email != nil {
		s.Email = strings.ToLower(strings.TrimSpace(*up.Email))
	}
	if up.Banner != nil {
		s.Banner = strings.TrimSpace(*up.Banner)
	}
	if up.PhoneNumber != nil {
		s.PhoneNumber = strings.TrimSpace(*up.PhoneNumber)
	}
	if up.Instagram != nil {
		s.Instagram = normalizeSocial(*up.Instagram, "https://instagram.com/")
	}
	if up.Twitter != nil {
		s.Twitter = normalizeSocial(*up.Twitter, "https://x.com/")
	}
	if up.Tiktok != nil {
		s.Tiktok = normalizeSocial(*up.Tiktok, "https://www.tiktok.com/@")
	}
	if up.CashOnDeliveryEnabled != nil {
		s.CashOnDeliveryEnabled = *up.CashOnDeliveryEnabled
	}
}

// normalizeSocial turns a bare handle into a full profile URL. Values
// already carrying a scheme pass through unchanged.
func normalizeSocial(value, base string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v
	}
	v = strings.TrimPrefix(v, "@")
	return base + v
}

func (c *Conf) seedDelivery(ctx context.Context) (Delivery, error) {
	d := defaultDelivery(time.Now().UTC())
	if _, err := c.col.InsertOne(ctx, d); err != nil && !mongo.IsDuplicateKeyError(err) {
		return Delivery{}, apperr.Internalf(err, "seeding delivery settings")
	}
	// lost the insert race, someone else seeded it
	if err := c.col.FindOne(ctx, bson.M{"_id": KeyDelivery}).Decode(&d); err != nil {
		return Delivery{}, apperr.Internalf(err, "fetching delivery settings")
	}
	return d, nil
}

func (c *Conf) seedStore(ctx context.Context) (Store, error) {
	s := defaultStore(time.Now().UTC())
	if _, err := c.col.InsertOne(ctx, s); err != nil && !mongo.IsDuplicateKeyError(err) {
		return Store{}, apperr.Internalf(err, "seeding store settings")
	}
	if err := c.col.FindOne(ctx, bson.M{"_id": KeyStore}).Decode(&s); err != nil {
		return Store{}, apperr.Internalf(err, "fetching store settings")
	}
	return s, nil
}

// saveDelivery replaces the document guarded by the version it was read
// at, then bumps it.
func (c *Conf) saveDelivery(ctx context.Context, d Delivery) (Delivery, error) {
	prev := d.Version
	d.Version = prev + 1
	d.UpdatedAt = time.Now().UTC()

	res, err := c.col.ReplaceOne(ctx, bson.M{"_id": KeyDelivery, "version": prev}, d)
	if err != nil {
		return Delivery{}, apperr.Internalf(err, "saving delivery settings")
	}
	if res.MatchedCount == 0 {
		return Delivery{}, apperr.Conflictf("Delivery settings were modified concurrently, please retry")
	}
	return d, nil
}

func (c *Conf) saveStore(ctx context.Context, s Store) (Store, error) {
	prev := s.Version
	s.Version = prev + 1
	s.UpdatedAt = time.Now().UTC()

	res, err := c.col.ReplaceOne(ctx, bson.M{"_id": KeyStore, "version": prev}, s)
	if err != nil {
		return Store{}, apperr.Internalf(err, "saving store settings")
	}
	if res.MatchedCount == 0 {
		return Store{}, apperr.Conflictf("Store settings were modified concurrently, please retry")
	}
	return s, nil
}
