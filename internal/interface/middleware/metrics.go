package middleware

import (
	"expvar"
	"strconv"

	"github.com/gin-gonic/gin"
)

// exported under /api/debug/vars when debug metrics are on
var requestsByStatus = expvar.NewMap("http_requests_by_status")

// Metrics counts finished requests per status code.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		requestsByStatus.Add(strconv.Itoa(c.Writer.Status()), 1)
	}
}
