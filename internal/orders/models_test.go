package orders

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hadevx/backend/internal/users"
)

// The populated response must render the customer document under "user",
// shadowing the raw object id the order stores.
func TestPopulatedOrder_JSONUsesCustomerDocument(t *testing.T) {
	userID := primitive.NewObjectID()
	po := PopulatedOrder{
		Order: Order{
			ID:         primitive.NewObjectID(),
			User:       userID,
			Status:     StatusPending,
			TotalPrice: 12.5,
		},
		UserInfo: users.PublicUser{ID: userID, Name: "Huda", Email: "huda@example.com"},
	}

	raw, err := json.Marshal(po)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	user, ok := decoded["user"].(map[string]any)
	require.True(t, ok, "user should be the populated document, got %T", decoded["user"])
	assert.Equal(t, "Huda", user["name"])
	assert.Equal(t, "huda@example.com", user["email"])
}
