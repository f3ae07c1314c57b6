package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/edupanel/agenda-api/internal/models"
)

// ContextViewerKey is the gin context key storing resolved viewer claims.
const ContextViewerKey = "currentViewer"

// OptionalViewer attaches viewer claims when a valid token is present but
// never blocks the request. Requests without a token run on the unscoped
// read path and see events without visibility filtering.
func OptionalViewer(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims := &models.ViewerClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		c.Set(ContextViewerKey, claims)
		c.Next()
	}
}
