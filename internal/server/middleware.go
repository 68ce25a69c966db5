package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	headerUserID  = "X-User-ID"
	contextUserID = "user_id"
)

// RequireUserID extracts the caller identity set by the auth gateway. The
// billing core trusts the header; authentication happens upstream.
func RequireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "missing_user_id"})
			return
		}
		c.Set(contextUserID, userID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(contextUserID)
}
