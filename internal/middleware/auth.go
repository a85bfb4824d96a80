package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-marketplace/internal/model"
)

const principalKey = "principal"

// TokenParser turns a bearer token into the caller's principal.
type TokenParser interface {
	ParseToken(token string) (model.Principal, error)
}

// Auth resolves the principal from the Authorization header, or from the access_token query
// parameter for websocket upgrades that cannot set headers.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			raw = strings.TrimSpace(header[len("Bearer "):])
		} else if q := c.Query("access_token"); q != "" {
			raw = q
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		principal, err := parser.ParseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole admits only principals holding one of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		for _, r := range roles {
			if p.Role == r && p.ID > 0 {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func GetPrincipal(c *gin.Context) model.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(model.Principal)
	return p
}

// OptionalAuth attaches the principal when a valid token is presented and lets anonymous calls through.
func OptionalAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			if p, err := parser.ParseToken(strings.TrimSpace(header[len("Bearer "):])); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}
