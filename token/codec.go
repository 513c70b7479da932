// Package token issues and validates the HS256 access and refresh tokens
// presented to the API, and locates them on incoming requests.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gromit-app/gromit/config"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrMissingSecret is returned when a codec is built without a signing secret
var ErrMissingSecret = errors.New("token signing secret is required")

// Claims is the payload carried by every token the API issues
type Claims struct {
	jwt.RegisteredClaims
	Kind        Kind     `json:"typ"`
	Authorities []string `json:"authorities,omitempty"`
}

// Pair is an access/refresh token pair handed to clients
type Pair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Codec signs and verifies tokens. It holds no mutable state after
// construction and is safe for concurrent use.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// Option customizes a Codec
type Option func(*Codec)

// WithClock overrides the time source used for issuing and expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec from the JWT configuration
func NewCodec(cfg config.JWTConfig, opts ...Option) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	c := &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	c.parser = jwt.NewParser(parserOpts...)

	return c, nil
}

// IssueAccess signs an access token for subject
func (c *Codec) IssueAccess(subject string, authorities []string) (string, error) {
	return c.issue(subject, KindAccess, authorities, c.accessTTL)
}

// IssueRefresh signs a refresh token for subject
func (c *Codec) IssueRefresh(subject string, authorities []string) (string, error) {
	return c.issue(subject, KindRefresh, authorities, c.refreshTTL)
}

// IssuePair signs a fresh access and refresh token for subject
func (c *Codec) IssuePair(subject string, authorities []string) (*Pair, error) {
	access, err := c.IssueAccess(subject, authorities)
	if err != nil {
		return nil, err
	}
	refresh, err := c.IssueRefresh(subject, authorities)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    c.now().Add(c.accessTTL).UTC(),
	}, nil
}

func (c *Codec) issue(subject string, kind Kind, authorities []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind:        kind,
		Authorities: authorities,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Validate reports whether tokenString is a correctly signed, unexpired access token.
// Malformed input is a normal false, never an error.
func (c *Codec) Validate(tokenString string) bool {
	return c.verify(tokenString, KindAccess)
}

// ValidateRefresh reports whether tokenString is a correctly signed, unexpired refresh token.
func (c *Codec) ValidateRefresh(tokenString string) bool {
	return c.verify(tokenString, KindRefresh)
}

func (c *Codec) verify(tokenString string, kind Kind) bool {
	if tokenString == "" {
		return false
	}
	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(tokenString, claims, c.keyFunc)
	if err != nil || !parsed.Valid {
		return false
	}
	return claims.Kind == kind && claims.Subject != ""
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

// DecodeClaims returns the claims of a token that already passed Validate or
// ValidateRefresh. Signature and time checks are not repeated.
func (c *Codec) DecodeClaims(tokenString string) Claims {
	claims := Claims{}
	_, _, _ = jwt.NewParser().ParseUnverified(tokenString, &claims)
	return claims
}
