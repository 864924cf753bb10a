package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hadevx/backend/internal/auth"
	"github.com/hadevx/backend/internal/users"
)

type Mid struct {
	keys  *auth.Keys
	users *users.Conf
}

func NewMid(keys *auth.Keys, u *users.Conf) (*Mid, error) {
	if keys == nil {
		return nil, fmt.Errorf("keys are nil")
	}
	if u == nil {
		return nil, fmt.Errorf("users conf is nil")
	}
	return &Mid{keys: keys, users: u}, nil
}

// CurrentUser returns the user document the Authentication middleware
// resolved for this request.
func CurrentUser(c *gin.Context) (users.User, error) {
	user, ok := c.Request.Context().Value(auth.UserKey).(users.User)
	if !ok {
		return users.User{}, fmt.Errorf("no authenticated user on request")
	}
	return user, nil
}
