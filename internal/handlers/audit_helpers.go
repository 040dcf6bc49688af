package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "request_id"

// requestIDFromContext returns the request id for audit records,
// minting one when the client did not send X-Request-ID so every money
// action stays traceable.
func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDContextKey, id)
	return id
}

// auditUserID returns the authenticated user id in the form the audit
// log stores it, or nil when the request carried no identity.
func auditUserID(c *gin.Context) *string {
	id := c.GetInt("userID")
	if id == 0 {
		return nil
	}
	s := strconv.Itoa(id)
	return &s
}
