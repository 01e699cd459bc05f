package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/handmade/backend/internal/infrastructure/auth"
	"github.com/handmade/backend/internal/infrastructure/logger"
	"github.com/handmade/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Actor context keys and headers
const (
	ActorIDKey    = "actor_id"
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// ActorHeader names the actor when tokens are not required, for local
	// development and service-to-service calls inside the trusted network
	ActorHeader = "X-Actor-ID"
)

var errMissingToken = errors.New("missing bearer token")

// ActorAuthConfig holds configuration for the actor authentication middleware
type ActorAuthConfig struct {
	JWTService *auth.JWTService
	// Blacklist is optional; revoked tokens are rejected when set
	Blacklist auth.TokenBlacklist
	// Required rejects mutating requests without a bearer token. Reads stay
	// anonymous. When false the ActorHeader is accepted instead.
	Required bool
	// SkipPaths are paths that never carry an actor
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that never carry an actor
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultActorSkipPaths lists the health checks and API docs served without an actor
func DefaultActorSkipPaths() (paths, prefixes []string) {
	return []string{"/health", "/api/v1/health"}, []string{"/swagger"}
}

// ActorAuth resolves the authenticated actor of a request. A present but
// invalid token is always rejected; a missing one is rejected only on
// mutating methods when cfg.Required is set. Skipped paths bypass the
// middleware entirely. RequireActor guards the routes that need an actor.
func ActorAuth(cfg ActorAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

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

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			if cfg.Required && isMutating(c.Request.Method) {
				rejectAuth(c, log, errMissingToken, "Missing authorization header")
				return
			}
			if actor := strings.TrimSpace(c.GetHeader(ActorHeader)); actor != "" {
				setActor(c, actor)
			}
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			rejectAuth(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}

		claims, err := cfg.JWTService.ValidateToken(token)
		if err != nil {
			rejectAuth(c, log, err, "Token validation failed")
			return
		}

		if cfg.Blacklist != nil && claims.ID != "" {
			revoked, err := cfg.Blacklist.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				// Fail open: the blacklist store being down must not stop sales
				log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				rejectAuth(c, log, auth.ErrTokenRevoked, "Token has been revoked")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		setActor(c, claims.Actor())
		c.Next()
	}
}

// RequireActor rejects requests that carry no authenticated actor
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetActorID(c) == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		c.Next()
	}
}

func setActor(c *gin.Context, actor string) {
	c.Set(ActorIDKey, actor)
	c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), actor))
}

func rejectAuth(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Warn("Actor authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)

	code, message := dto.ErrCodeUnauthorized, "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		message = "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingActor):
		message = "Token carries no actor"
	case errors.Is(err, errMissingToken):
		message = "Authentication required"
	}
	abortWithError(c, code, message)
}

// GetActorID returns the authenticated actor of the request, or ""
func GetActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}

// GetJWTClaims returns the validated token claims, nil for header actors
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, ok := c.Get(JWTClaimsKey); ok {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
