package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/utils"
)

const (
	UserKey      = "user"
	RequestIDKey = "request_id"
)

// SessionRequired rejects requests while no operator is signed in and stores
// the session user under UserKey. The upstream API enforces real authorization.
func SessionRequired(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := m.Current()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.Response{Code: http.StatusUnauthorized, Message: "not signed in"})
			return
		}
		user := s.User
		c.Set(UserKey, &user)
		c.Request = c.Request.WithContext(services.WithActor(c.Request.Context(), user.ID))
		c.Next()
	}
}

// RequireRoles lets only the listed roles through. It must run after SessionRequired.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok || !models.ParseRole(string(u.Role)).In(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.Response{Code: http.StatusForbidden, Message: "forbidden"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

// RequestID tags every request with X-Request-ID, keeping one the caller sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
