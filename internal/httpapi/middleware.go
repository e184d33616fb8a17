package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shelfward/shelfward/internal/domain"
)

const (
	ctxKeyCaller    = "caller"
	headerRequestID = "X-Request-ID"

	logMsgRequest = "http request"
)

// RequestID attaches a request id to every response, generating one when
// the client did not send its own.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestLogger logs one structured line per request.
func (a *API) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if a.logger != nil {
			a.logger.Info(logMsgRequest,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", c.Writer.Status(),
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
				"request_id", c.Writer.Header().Get(headerRequestID),
			)
		}
	}
}

// AuthRequired validates the bearer credential and attaches the caller
// context to the request; requests without a valid token are rejected.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid Authorization header"})
			return
		}

		caller, parseErr := a.tokens.Parse(token)
		if parseErr != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(ctxKeyCaller, caller)
		c.Next()
	}
}

// OptionalAuth attaches the caller context when a valid token is present
// but lets anonymous requests through. Public read endpoints use it so
// privileged callers can opt into seeing inactive rows.
func (a *API) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if caller, parseErr := a.tokens.Parse(token); parseErr == nil {
				c.Set(ctxKeyCaller, caller)
			}
		}

		c.Next()
	}
}

// RequirePermission gates a route on one of the caller's permission flags.
func RequirePermission(allowed func(domain.Permissions) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := callerFrom(c)
		if !ok || !allowed(caller.Permissions) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden: insufficient permissions"})
			return
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", false
	}

	return token, true
}

// callerFrom returns the authenticated caller attached by AuthRequired or
// OptionalAuth. The zero caller with ok == false means anonymous.
func callerFrom(c *gin.Context) (domain.Caller, bool) {
	value, exists := c.Get(ctxKeyCaller)
	if !exists {
		return domain.Caller{}, false
	}

	caller, ok := value.(domain.Caller)

	return caller, ok
}
