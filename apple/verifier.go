package apple

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gromit-app/gromit/config"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultIssuer is the iss claim of every Apple identity token
	DefaultIssuer = "https://appleid.apple.com"

	// DefaultJWKSURL serves Apple's current signing keys
	DefaultJWKSURL = "https://appleid.apple.com/auth/keys"
)

var (
	// ErrInvalidToken is returned when the identity token is invalid
	ErrInvalidToken = errors.New("invalid identity token")

	// ErrTokenExpired is returned when the identity token has expired
	ErrTokenExpired = errors.New("identity token expired")

	// ErrJWKSFetchFailed is returned when Apple's key set cannot be fetched
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Verifier validates Sign in with Apple identity tokens
type Verifier struct {
	clientID   string
	issuer     string
	jwksURL    string
	httpClient *http.Client
	now        func() time.Time

	// Cache for JWKS
	jwksCache    *JWKS
	jwksCacheExp time.Time
	jwksCacheTTL time.Duration
	cacheMu      sync.RWMutex
	fetchGroup   singleflight.Group

	// Forced refetches on an unknown kid, at most one per refetchInterval
	refetchInterval time.Duration
	lastRefetch     time.Time

	// Cache for parsed public keys
	keyCache   map[string]*rsa.PublicKey
	keyCacheMu sync.RWMutex
}

// NewVerifier creates a new Apple identity token verifier
func NewVerifier(cfg config.AppleConfig) *Verifier {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.RefetchInterval == 0 {
		cfg.RefetchInterval = time.Minute
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}

	return &Verifier{
		clientID:        cfg.ClientID,
		issuer:          cfg.Issuer,
		jwksURL:         cfg.JWKSURL,
		jwksCacheTTL:    cfg.CacheTTL,
		refetchInterval: cfg.RefetchInterval,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		now:      time.Now,
		keyCache: make(map[string]*rsa.PublicKey),
	}
}

// Verify checks signature, issuer, audience and expiry of an identity token
// and returns the identity it asserts. Key set failures are reported as
// ErrJWKSFetchFailed so callers can tell an outage from a bad token.
func (v *Verifier) Verify(ctx context.Context, identityToken string) (*Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	var fetchErr error
	claims := &IdentityClaims{}
	token, err := parser.ParseWithClaims(identityToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}

		publicKey, err := v.getPublicKey(ctx, kid)
		if err != nil {
			if errors.Is(err, ErrJWKSFetchFailed) {
				fetchErr = err
			}
			return nil, fmt.Errorf("failed to get public key: %w", err)
		}
		return publicKey, nil
	})

	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims.Identity(), nil
}

// FetchJWKS fetches Apple's key set, serving from cache while it is fresh.
// Concurrent misses share a single request.
func (v *Verifier) FetchJWKS(ctx context.Context) (*JWKS, error) {
	v.cacheMu.RLock()
	if v.jwksCache != nil && v.now().Before(v.jwksCacheExp) {
		defer v.cacheMu.RUnlock()
		return v.jwksCache, nil
	}
	v.cacheMu.RUnlock()

	result, err, _ := v.fetchGroup.Do("jwks", func() (interface{}, error) {
		return v.download(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*JWKS), nil
}

func (v *Verifier) download(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrJWKSFetchFailed, err)
	}

	v.cacheMu.Lock()
	v.jwksCache = &jwks
	v.jwksCacheExp = v.now().Add(v.jwksCacheTTL)
	v.cacheMu.Unlock()

	return &jwks, nil
}

// getPublicKey retrieves the public key for a given kid.
// Apple rotates keys, so an unknown kid forces one refetch of the key set,
// unless another forced refetch happened within refetchInterval.
func (v *Verifier) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.keyCacheMu.RLock()
	if key, exists := v.keyCache[kid]; exists {
		v.keyCacheMu.RUnlock()
		return key, nil
	}
	v.keyCacheMu.RUnlock()

	jwk, err := v.findKey(ctx, kid)
	if err != nil {
		return nil, err
	}
	if jwk == nil && v.claimRefetch() {
		if jwk, err = v.findKey(ctx, kid); err != nil {
			return nil, err
		}
	}
	if jwk == nil {
		return nil, fmt.Errorf("key with kid %s not found in JWKS", kid)
	}

	publicKey, err := jwkToRSAPublicKey(jwk)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JWK to RSA public key: %w", err)
	}

	v.keyCacheMu.Lock()
	v.keyCache[kid] = publicKey
	v.keyCacheMu.Unlock()

	return publicKey, nil
}

func (v *Verifier) findKey(ctx context.Context, kid string) (*JWK, error) {
	jwks, err := v.FetchJWKS(ctx)
	if err != nil {
		return nil, err
	}
	for i := range jwks.Keys {
		if jwks.Keys[i].Kid == kid {
			return &jwks.Keys[i], nil
		}
	}
	return nil, nil
}

// claimRefetch drops the cached key set when a forced refetch is due and
// reports whether it did
func (v *Verifier) claimRefetch() bool {
	v.cacheMu.Lock()
	defer v.cacheMu.Unlock()

	now := v.now()
	if !v.lastRefetch.IsZero() && now.Sub(v.lastRefetch) < v.refetchInterval {
		return false
	}
	v.lastRefetch = now
	v.jwksCache = nil
	v.jwksCacheExp = time.Time{}
	return true
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	if jwk.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", jwk.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
