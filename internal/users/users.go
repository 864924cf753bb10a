// Package users is the read side of the externally owned identity
// service: the middleware resolves callers here and the order flow reads
// the blocked flag and contact details.
package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hadevx/backend/internal/apperr"
)

type Conf struct {
	col *mongo.Collection
}

func NewConf(db *mongo.Database) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{col: db.Collection("users")}, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, apperr.NotFoundf("user not found")
	}

	var user User
	err = c.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, apperr.NotFoundf("user not found")
		}
		return User{}, apperr.Internalf(err, "fetching user %s", id)
	}
	return user, nil
}

// Public returns the order-response projection of a user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}
