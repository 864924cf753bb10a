package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hadevx/backend/internal/apperr"
)

// Category is a flat product grouping, unique by name.
type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type NewCategory struct {
	Name string `json:"name" validate:"required,min=3"`
}

// CreateCategory inserts a category, rejecting duplicate names.
func (c *Conf) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	name := strings.TrimSpace(nc.Name)

	count, err := c.categories.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return Category{}, apperr.Internalf(err, "checking category %q", name)
	}
	if count > 0 {
		return Category{}, apperr.Conflictf("Category %s already exists", name)
	}

	now := time.Now().UTC()
	category := Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := c.categories.InsertOne(ctx, category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Category{}, apperr.Conflictf("Category %s already exists", name)
		}
		return Category{}, apperr.Internalf(err, "inserting category %q", name)
	}
	return category, nil
}

func (c *Conf) ListCategories(ctx context.Context) ([]Category, error) {
	cursor, err := c.categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Internalf(err, "listing categories")
	}
	defer cursor.Close(ctx)

	categories := []Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, apperr.Internalf(err, "decoding categories")
	}
	return categories, nil
}

// DeleteCategory removes a category by name.
func (c *Conf) DeleteCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)

	var category Category
	err := c.categories.FindOneAndDelete(ctx, bson.M{"name": name}).Decode(&category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Category{}, apperr.NotFoundf("Category not found")
		}
		return Category{}, apperr.Internalf(err, "deleting category %q", name)
	}
	return category, nil
}
