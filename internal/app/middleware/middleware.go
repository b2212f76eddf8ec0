package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/domain/auth"
	"github.com/littletrip/littletrip-api/internal/app/observability/metrics"
)

const (
	userIDKey        = auth.ContextUserIDKey
	emailKey         = "email"
	usernameKey      = "username"
	isAdminKey       = "is_admin"
	authenticatedKey = "authenticated"
	deviceIDKey      = "device_id"
)

// DeviceIDHeader identifies an anonymous browser/device so its preference
// document survives across requests without an account.
const DeviceIDHeader = "X-Device-ID"

// CORSMiddleware handles CORS headers.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Device-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// OTELGinMiddleware instruments requests with OpenTelemetry spans.
func OTELGinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// RequestLogger logs every request with zap, including trace ids when a span
// is active.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		logger.Info("request", fields...)

		if m := metrics.Get(); m != nil {
			m.HTTPRequestsTotal.Add(c.Request.Context(), 1)
			m.HTTPRequestDuration.Record(c.Request.Context(), time.Since(start).Seconds())
		}
	}
}

// JWTAuthMiddleware validates the access token from the auth cookie or the
// Authorization header. With Optional set, unauthenticated requests pass
// through flagged as anonymous so the preference store can fall back to the
// per-device document.
func JWTAuthMiddleware(config auth.JWTConfig) gin.HandlerFunc {
	service := auth.NewJWTService()
	return func(c *gin.Context) {
		var tokenString string

		// Cookie first for browser sessions, then the Authorization header
		// for API clients.
		if cookie, err := c.Cookie("auth_token"); err == nil && cookie != "" {
			tokenString = cookie
		}
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && parts[0] == "Bearer" {
					tokenString = parts[1]
				}
			}
		}

		if tokenString == "" {
			if config.Optional {
				setAnonymous(c)
				c.Next()
				return
			}
			c.JSON(401, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := service.ValidateToken(config, tokenString)
		if err != nil {
			if config.Optional {
				setAnonymous(c)
				c.Next()
				return
			}
			c.JSON(401, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Set(usernameKey, claims.Username)
		c.Set(isAdminKey, claims.IsAdmin)
		c.Set(authenticatedKey, true)
		c.Set(deviceIDKey, c.GetHeader(DeviceIDHeader))
		c.Next()
	}
}

func setAnonymous(c *gin.Context) {
	c.Set(userIDKey, "")
	c.Set(authenticatedKey, false)
	c.Set(isAdminKey, false)
	c.Set(deviceIDKey, c.GetHeader(DeviceIDHeader))
}

// AdminRequired rejects requests whose token does not carry the admin flag.
// It must run after JWTAuthMiddleware.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(authenticatedKey) {
			c.JSON(401, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if !c.GetBool(isAdminKey) {
			c.JSON(403, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated user id, or "" for
// anonymous requests.
func GetUserIDFromContext(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetDeviceIDFromContext returns the anonymous device id, if any.
func GetDeviceIDFromContext(c *gin.Context) string {
	return c.GetString(deviceIDKey)
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(authenticatedKey)
}

// IsAdminFromContext reports whether the session carries the admin flag.
func IsAdminFromContext(c *gin.Context) bool {
	return c.GetBool(isAdminKey)
}
