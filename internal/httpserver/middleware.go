package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

const (
	userCtxKey    = "user"
	tokenCtxKey   = "token"
	cartKeyCtxKey = "cartKey"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Info("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

func recoverer(logger *zap.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Error:   "INTERNAL",
			Message: "internal server error",
		})
	}
}

// optionalAuth attaches the user behind a valid bearer token. Requests without
// a token pass through; an invalid token is rejected.
func optionalAuth(users UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		u, err := users.LookupByToken(c.Request.Context(), token)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}
		c.Set(userCtxKey, u)
		c.Set(tokenCtxKey, token)
		c.Next()
	}
}

func requireUser(c *gin.Context) {
	if currentUser(c) == nil {
		abortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	c.Next()
}

func requireAdmin(c *gin.Context) {
	u := currentUser(c)
	if u == nil {
		abortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	if !u.IsAdmin() {
		abortError(c, http.StatusForbidden, "FORBIDDEN", "admin access required")
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func sessionKey(c *gin.Context) {
	key := c.Param("key")
	if !cartsvc.ValidKey(key) || strings.HasPrefix(key, "register:") {
		abortError(c, http.StatusNotFound, "NOT_FOUND", "cart not found")
		return
	}
	c.Set(cartKeyCtxKey, key)
	c.Next()
}

func registerKey(c *gin.Context) {
	key := cartsvc.RegisterKey(c.Param("registerId"))
	if !cartsvc.ValidKey(key) {
		abortError(c, http.StatusNotFound, "NOT_FOUND", "register not found")
		return
	}
	c.Set(cartKeyCtxKey, key)
	c.Next()
}

func cartKey(c *gin.Context) string {
	return c.GetString(cartKeyCtxKey)
}
