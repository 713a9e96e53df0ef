package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/unitime-api/internal/models"
	"github.com/noah-isme/unitime-api/internal/service"
	"github.com/noah-isme/unitime-api/pkg/middleware/requestid"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role models.UserRole) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID:      "user-1",
		Role:        role,
		InstituteID: "inst-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newProtectedRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestid.Middleware())
	tokens := service.NewTokenService(service.TokenConfig{Secret: testSecret})
	router.POST("/schedule/create_slot",
		JWT(tokens),
		RequireRoles(TimetableWriters...),
		Audit(logger, "create_slot"),
		func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"success": true}) },
	)
	return router
}

func doRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedule/create_slot", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	router := newProtectedRouter(nil)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "Bearer abc.def.ghi").Code)
}

func TestRequireRolesBlocksReadOnlyRoles(t *testing.T) {
	router := newProtectedRouter(nil)

	w := doRequest(router, "Bearer "+signToken(t, models.RoleStudent))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = doRequest(router, "Bearer "+signToken(t, models.RoleTeacher))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuditLogsSuccessfulWrites(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newProtectedRouter(zap.New(core))

	w := doRequest(router, "Bearer "+signToken(t, models.RoleDispatcher))
	require.Equal(t, http.StatusCreated, w.Code)

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "create_slot", fields["action"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, "DISPATCHER", fields["role"])
	assert.Equal(t, "inst-1", fields["institute_id"])
	assert.Equal(t, w.Header().Get(requestid.Header), fields["request_id"])

	doRequest(router, "Bearer "+signToken(t, models.RoleStudent))
	assert.Len(t, logs.FilterMessage("audit").All(), 1)
}

func TestMetricsMiddlewareObservesRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics, "/metrics"))
	router.GET("/semesters/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	for _, target := range []string{"/semesters/a", "/semesters/b", "/wp-login.php", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, target, nil)
		router.ServeHTTP(w, req)
	}

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)
	body := w.Body.String()
	assert.Contains(t, body, `path="/semesters/:id"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "wp-login")
}
