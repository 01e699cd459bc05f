package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/handmade/backend/internal/infrastructure/auth"
	"github.com/handmade/backend/internal/interfaces/http/dto"
)

// SwaggerConfig guards the API documentation endpoint
type SwaggerConfig struct {
	Enabled bool
	// RequireAuth demands a valid bearer token; header actors are not enough
	RequireAuth bool
	// AllowedIPs accepts single addresses and CIDR ranges, empty allows all
	AllowedIPs []string
	JWTService *auth.JWTService
}

// SwaggerProtection answers 404 while the docs are disabled, then applies
// the IP allow list and the token check in that order.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	var (
		allowedNets []*net.IPNet
		allowedIPs  []net.IP
	)
	for _, entry := range cfg.AllowedIPs {
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil {
				allowedNets = append(allowedNets, network)
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			allowedIPs = append(allowedIPs, ip)
		}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWithError(c, dto.ErrCodeNotFound, "API documentation is not available")
			return
		}

		if len(cfg.AllowedIPs) > 0 && !isIPAllowed(net.ParseIP(c.ClientIP()), allowedIPs, allowedNets) {
			abortWithError(c, dto.ErrCodeForbidden, "Access to API documentation is restricted")
			return
		}

		if cfg.RequireAuth {
			token, ok := strings.CutPrefix(c.GetHeader(AuthHeaderKey), BearerPrefix)
			if !ok || token == "" || cfg.JWTService == nil {
				abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
				return
			}
			if _, err := cfg.JWTService.ValidateToken(token); err != nil {
				abortWithError(c, dto.ErrCodeUnauthorized, "Invalid token")
				return
			}
		}

		c.Next()
	}
}

func isIPAllowed(ip net.IP, allowedIPs []net.IP, allowedNets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range allowedIPs {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range allowedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
