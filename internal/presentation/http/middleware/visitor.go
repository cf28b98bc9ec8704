package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/helderdigital/engage-go/internal/application/services"
)

// VisitorHeader carries the client-held visitor id on every request. The
// resolved id is echoed back so first-time visitors learn their new ULID.
const VisitorHeader = "X-Engage-Visitor-ID"

const visitorContextKey = "engageVisitorID"

// VisitorMiddleware resolves the visitor identity for each request: an empty
// or unknown inbound id is registered, and the resolved id lands in the gin
// context plus the response header.
func VisitorMiddleware(visitors *services.VisitorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, _ := visitors.GetOrCreate(c.GetHeader(VisitorHeader))
		c.Set(visitorContextKey, visitorID)
		c.Header(VisitorHeader, visitorID)
		c.Next()
	}
}

// GetVisitorID returns the resolved visitor id for the request.
func GetVisitorID(c *gin.Context) (string, bool) {
	visitorID := c.GetString(visitorContextKey)
	return visitorID, visitorID != ""
}
