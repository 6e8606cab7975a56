package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wikimedia/readinglists/internal/config"
)

// ContextKeyOwnerID is where the middleware stores the resolved owner id.
const ContextKeyOwnerID = "auth_owner_id"

// Middleware resolves the request's owner id from its bearer token.
type Middleware struct {
	service *Service
	config  config.Auth
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, cfg config.Auth) *Middleware {
	return &Middleware{service: service, config: cfg}
}

// Handler returns a Gin handler that authenticates requests. In "none"
// mode every request is bound to the configured dev owner.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return func(c *gin.Context) {
			c.Set(ContextKeyOwnerID, m.config.DevOwnerID)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.Next()
			return
		}
		user, err := m.service.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextKeyOwnerID, user.ID)
		c.Next()
	}
}

// OwnerID extracts the authenticated owner id from the Gin context.
func OwnerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextKeyOwnerID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
