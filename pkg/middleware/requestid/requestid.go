package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the id in both directions.
const Header = "X-Request-ID"

const (
	ginKey    = "request_id"
	maxLength = 128
)

type ctxKey struct{}

// Middleware tags each request with an id, reusing a sane inbound X-Request-ID.
// The id is stored on the gin context and on the request context so services
// that only see a context.Context can log it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !valid(id) {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(WithID(c.Request.Context(), id))
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

func valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

// WithID returns ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id stored by Middleware or WithID.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(ginKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return FromContext(c.Request.Context())
}
