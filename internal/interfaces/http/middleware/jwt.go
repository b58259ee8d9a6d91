package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/infrastructure/auth"
	"github.com/procurement/backoffice/internal/infrastructure/logger"
	"github.com/procurement/backoffice/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService:       jwtService,
		SkipPaths:        []string{"/health", "/api/v1/system/ping"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig authenticates the acting user. The token subject
// becomes the actor that panel writes are attributed to.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, dto.ErrCodeUnauthorized, "Missing authorization header", auth.ErrInvalidToken)
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, dto.ErrCodeUnauthorized, "Invalid authorization header format", auth.ErrInvalidToken)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, dto.ErrCodeUnauthorized, "Missing token", auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.Validate(tokenString)
		if err != nil {
			code, message := tokenErrorCode(err)
			handleAuthError(c, cfg, code, message, err)
			return
		}
		actorID, err := claims.ActorID()
		if err != nil {
			code, message := tokenErrorCode(err)
			handleAuthError(c, cfg, code, message, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(logger.GinActorIDKey, actorID.String())
		c.Request = c.Request.WithContext(logger.WithActorID(c.Request.Context(), actorID.String()))

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful", zap.String("actor_id", actorID.String()))
		}
		c.Next()
	}
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, code, message string, err error) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, requestID(c)))
}

// tokenErrorCode maps a token validation error to an API error code and message
func tokenErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingActor), errors.Is(err, auth.ErrInvalidClaims):
		return dto.ErrCodeTokenInvalid, "Token does not identify an actor"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetActorID returns the authenticated actor, or false when the request is anonymous
func GetActorID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(logger.GinActorIDKey))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
