// Package auth issues and validates the bearer tokens of the admin API.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/infrastructure/config"
)

// Scope grants access to a group of admin endpoints
type Scope string

const (
	// ScopeConnections allows saving, reading and disconnecting connections
	ScopeConnections Scope = "connections"
	// ScopeSync allows running syncs, sweeps, order imports and product pushes
	ScopeSync Scope = "sync"
	// ScopeOperator lets a token act for any merchant
	ScopeOperator Scope = "operator"
)

// DefaultAccessExpiration is used when none is configured
const DefaultAccessExpiration = time.Hour

// Common errors
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrTokenNotYetValid  = errors.New("token is not yet valid")
	ErrInvalidClaims     = errors.New("invalid token claims")
	ErrMissingMerchantID = errors.New("missing merchant_id in claims")
	ErrEmptySecret       = errors.New("jwt secret is empty")
)

// Claims are the admin token claims. Subject names the caller (a user or
// a service); MerchantID scopes every connection the token may touch.
type Claims struct {
	jwt.RegisteredClaims
	MerchantID string  `json:"merchant_id"`
	Scopes     []Scope `json:"scopes,omitempty"`
}

// HasScope reports whether the token carries scope
func (c *Claims) HasScope(scope Scope) bool {
	return slices.Contains(c.Scopes, scope)
}

// CanAccessMerchant reports whether the token may act for merchantID
func (c *Claims) CanAccessMerchant(merchantID string) bool {
	return c.MerchantID == merchantID || c.HasScope(ScopeOperator)
}

// ExpiresAtTime returns the expiry, or the zero time when unset
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedToken is a signed token and its expiry
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"` // Bearer
}

// IssueInput describes a token to mint
type IssueInput struct {
	Subject    string
	MerchantID string
	Scopes     []Scope
	// TTL overrides the configured expiration when positive
	TTL time.Duration
}

// TokenService signs and validates HS256 admin tokens
type TokenService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service
func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}
	expiration := cfg.AccessTokenExpiration
	if expiration <= 0 {
		expiration = DefaultAccessExpiration
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// Issue mints a signed token
func (s *TokenService) Issue(input IssueInput) (*IssuedToken, error) {
	if input.MerchantID == "" && !slices.Contains(input.Scopes, ScopeOperator) {
		return nil, ErrMissingMerchantID
	}
	ttl := input.TTL
	if ttl <= 0 {
		ttl = s.expiration
	}
	subject := input.Subject
	if subject == "" {
		subject = input.MerchantID
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		MerchantID: input.MerchantID,
		Scopes:     input.Scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{AccessToken: signed, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}

// Validate parses a token and checks its signature, timing and issuer
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.MerchantID == "" && !claims.HasScope(ScopeOperator) {
		return nil, ErrMissingMerchantID
	}
	return claims, nil
}

// Expiration returns the default token lifetime
func (s *TokenService) Expiration() time.Duration {
	return s.expiration
}
