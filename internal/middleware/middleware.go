package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/streambay/internal/helpers"
	"github.com/joshua-takyi/streambay/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const userContextKey = "user"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		requestID, _ := c.Get("request_id")

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency,
			"client_ip", clientIP,
		)
	}
}

// Auth is the request gate: it extracts the access token from the
// accessToken cookie or the Authorization header (cookie wins),
// verifies it and resolves the user, attaching the record to the
// request context. Anything short of that is a 401.
func Auth(tokens *helpers.TokenIssuer, userRepo models.UserRepo, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			abortUnauthorized(c, "unauthorized request")
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abortUnauthorized(c, "invalid access token")
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), id)
		if err != nil {
			// only a missing user means the token is stale; a store
			// failure is not the caller's fault
			if models.IsNotFound(err) {
				logger.Info("Access token resolved to no user", "user_id", claims.UserID)
				abortUnauthorized(c, "invalid access token")
				return
			}
			logger.Error("Failed to resolve user for access token", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				models.ErrorResponse(http.StatusInternalServerError, "failed to resolve user"))
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by the Auth middleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse(http.StatusUnauthorized, message))
}
