package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Value(c)+"|"+FromContext(c.Request.Context()))
	})
	return router
}

func TestMiddlewareAssignsAndReusesIDs(t *testing.T) {
	router := newRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(Header)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated+"|"+generated, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "trace-42")
	router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-42", rec.Header().Get(Header))
	assert.Equal(t, "trace-42|trace-42", rec.Body.String())
}

func TestMiddlewareReplacesUnusableIDs(t *testing.T) {
	router := newRouter()

	for _, inbound := range []string{strings.Repeat("x", 200), "two words", "line\nbreak"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, inbound)
		router.ServeHTTP(rec, req)
		assert.Len(t, rec.Header().Get(Header), 36, inbound)
	}
}

func TestFromContext(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "abc", FromContext(WithID(context.Background(), "abc")))
}
