package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/handmade/backend/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingActor     = errors.New("missing subject in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Roles carried by actor tokens
const (
	RoleMaker    = "maker"
	RoleOperator = "operator"
	RoleSystem   = "system"
)

// Claims are the actor claims the identity service signs. Subject is the
// actor id recorded on every audit entry.
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Actor returns the actor id
func (c *Claims) Actor() string {
	return c.Subject
}

// HasRole reports whether the token carries role
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// RemainingTTL is the time left until expiry, zero when already expired
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// JWTService verifies actor tokens. It can also sign them, which the
// identity service, tests and local tooling use.
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService creates a service for cfg
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.AccessTokenExpiration,
		now:        time.Now,
	}
}

// IssueToken signs an access token for actor
func (s *JWTService) IssueToken(actor, username string, roles ...string) (string, *Claims, error) {
	if actor == "" {
		return "", nil, ErrMissingActor
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   actor,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
		Username: username,
		Roles:    roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken parses and verifies a token: HMAC signature, issuer and
// time claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrMissingActor
	}
	return claims, nil
}
