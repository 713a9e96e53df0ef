package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/pkg/middleware/requestid"
)

// Audit logs every successful timetable write with the acting user and its scope.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if claims := Actor(c); claims != nil {
			fields = append(fields,
				zap.String("user_id", claims.UserID),
				zap.String("role", string(claims.Role)),
				zap.String("institute_id", claims.InstituteID),
			)
		}
		logger.Info("audit", fields...)
	}
}
