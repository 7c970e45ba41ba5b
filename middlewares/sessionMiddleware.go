package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/servicecenter_backend/utils"
)

const (
	HeaderUserId   = "x-user-id"
	HeaderUserName = "x-user-name"
)

// SessionMiddleware records the acting user forwarded by the gateway so history rows carry it.
// Requests without the headers act as "System".
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if raw := strings.TrimSpace(c.GetHeader(HeaderUserId)); raw != "" {
			userId, err := strconv.Atoi(raw)
			if err != nil || userId < 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":  "invalid " + HeaderUserId + " header",
					"fields": map[string]string{HeaderUserId: "numeric"},
				})
				return
			}
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		if name := strings.TrimSpace(c.GetHeader(HeaderUserName)); name != "" {
			ctx = utils.SetUserNameInContext(ctx, name)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
