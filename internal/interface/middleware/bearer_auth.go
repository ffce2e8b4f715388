package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roamerhq/roamer-api/pkg/helpers"
	"github.com/roamerhq/roamer-api/pkg/response"
)

// CtxUserIDKey is where the verified caller id lands in the Gin context.
const CtxUserIDKey = "userID"

// BearerAuth verifies the Authorization: Bearer token and injects the caller
// identity into the request context. Missing header, malformed header, bad
// signature, and expired token all produce the same denial, so a caller
// learns nothing about why it was rejected. CORS preflights pass through.
func BearerAuth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			deny(c)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			deny(c)
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func deny(c *gin.Context) {
	resp := response.Error[any](c, http.StatusUnauthorized, "access denied", nil)
	c.AbortWithStatusJSON(resp.Status, resp)
}
