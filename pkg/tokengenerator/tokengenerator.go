package tokengenerator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ACCESS_TOKEN_NAME is the cookie carrying the session token
const ACCESS_TOKEN_NAME = "access_token"

// DefaultAccessTokenExpiry matches a 30 day session
const DefaultAccessTokenExpiry = 30 * 24 * time.Hour

// Claims struct for JWT claims
type Claims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Role          string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenValue is a signed token and its expiry
type TokenValue struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// Subject carries the account fields written into a token
type Subject struct {
	ID            string
	Email         string
	EmailVerified bool
	Role          string
}

// JwtTokenGenerator signs and parses HS256 session tokens
type JwtTokenGenerator struct {
	Secret   string
	Issuer   string
	Audience string
	Expiry   time.Duration

	now func() time.Time
}

// Option configures a JwtTokenGenerator
type Option func(*JwtTokenGenerator)

// WithExpiry sets the token lifetime
func WithExpiry(expiry time.Duration) Option {
	return func(g *JwtTokenGenerator) {
		if expiry > 0 {
			g.Expiry = expiry
		}
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(g *JwtTokenGenerator) {
		g.now = now
	}
}

// NewJwtTokenGenerator creates a new JwtTokenGenerator
func NewJwtTokenGenerator(secret, issuer, audience string, opts ...Option) *JwtTokenGenerator {
	g := &JwtTokenGenerator{
		Secret:   secret,
		Issuer:   issuer,
		Audience: audience,
		Expiry:   DefaultAccessTokenExpiry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateToken signs a session token for subject
func (g *JwtTokenGenerator) GenerateToken(subject Subject) (TokenValue, error) {
	now := g.now().UTC()
	claims := Claims{
		Email:         subject.Email,
		EmailVerified: subject.EmailVerified,
		Role:          subject.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			Issuer:    g.Issuer,
			Subject:   subject.ID,
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{g.Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(g.Secret))
	if err != nil {
		slog.Error("Failed sign JWT Claim string!", "err", err)
		return TokenValue{}, err
	}
	return TokenValue{Token: ss, Expiry: claims.ExpiresAt.Time}, nil
}

// ParseToken parses and validates a token string
func (g *JwtTokenGenerator) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(g.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(g.Issuer),
		jwt.WithAudience(g.Audience),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		slog.Warn("Failed parse JWT string!", "err", err)
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("failed_parse_token_claims")
	}
	return claims, nil
}

// JWTAuth returns the verifier used by the auth middleware, sharing the
// signing secret.
func (g *JwtTokenGenerator) JWTAuth() *jwtauth.JWTAuth {
	return jwtauth.New(jwt.SigningMethodHS256.Alg(), []byte(g.Secret), nil)
}
