package middleware

import (
	"net/http"

	"github.com/gromit-app/gromit/services"
	"github.com/gromit-app/gromit/token"
	"go.uber.org/zap"
)

// TokenValidator validates gromit-issued tokens and decodes their claims
type TokenValidator interface {
	// Validate reports whether raw is a well-formed, unexpired access token
	Validate(raw string) bool

	// ValidateRefresh reports whether raw is a well-formed, unexpired refresh token
	ValidateRefresh(raw string) bool

	// DecodeClaims returns the claims of a token that already passed validation
	DecodeClaims(raw string) token.Claims
}

// Authenticator installs the request principal from the access or refresh token
type Authenticator struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(validator TokenValidator, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		logger:    logger,
	}
}

// Authenticate resolves the principal of the request.
//
// The access token wins when present. The refresh token is only consulted when
// no access token was sent. A request with neither proceeds anonymously and is
// left to the access policy. A present but invalid token fails the request.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := token.ExtractAccessToken(r); ok {
			if !a.validator.Validate(raw) {
				a.reject(w, r, SourceAccess, services.ErrInvalidAccessToken)
				return
			}
			a.install(w, r, next, raw, SourceAccess, services.ErrInvalidAccessToken)
			return
		}

		if raw, ok := token.ExtractRefreshToken(r); ok {
			if !a.validator.ValidateRefresh(raw) {
				a.reject(w, r, SourceRefresh, services.ErrInvalidRefreshToken)
				return
			}
			a.install(w, r, next, raw, SourceRefresh, services.ErrInvalidRefreshToken)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) install(w http.ResponseWriter, r *http.Request, next http.Handler, raw string, source Source, invalid error) {
	principal, err := ResolvePrincipal(a.validator.DecodeClaims(raw), source)
	if err != nil {
		a.logger.Warn("token subject rejected",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		ReportError(w, r, invalid)
		return
	}

	a.logger.Debug("request authenticated",
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("user_id", principal.UserID.String()),
		zap.String("source", string(principal.Source)))

	next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, source Source, err error) {
	a.logger.Warn("token validation failed",
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("source", string(source)),
		zap.String("path", r.URL.Path))
	ReportError(w, r, err)
}
