package middleware

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gromit-app/gromit/services"
	"go.uber.org/zap"
)

// AnyMethod matches every HTTP method in an AccessRule
const AnyMethod = "*"

// AccessRule declares whether requests matching (Method, Pattern) are public.
//
// Pattern uses path.Match syntax against the cleaned routing path, still
// percent-encoded when the request arrived that way. A trailing
// "/**" matches the prefix itself and everything below it.
type AccessRule struct {
	Method  string
	Pattern string
	Public  bool
}

func (rule AccessRule) matches(method, urlPath string) bool {
	if rule.Method != AnyMethod && !strings.EqualFold(rule.Method, method) {
		return false
	}
	if prefix, ok := strings.CutSuffix(rule.Pattern, "/**"); ok {
		return urlPath == prefix || prefix == "" || strings.HasPrefix(urlPath, prefix+"/")
	}
	matched, err := path.Match(rule.Pattern, urlPath)
	return err == nil && matched
}

// DefaultRules returns the gromit access table. Anything not listed requires a principal.
func DefaultRules() []AccessRule {
	return []AccessRule{
		{Method: http.MethodOptions, Pattern: "/**", Public: true},
		{Method: http.MethodPost, Pattern: "/users", Public: true},
		{Method: http.MethodGet, Pattern: "/users/check", Public: true},
		{Method: http.MethodGet, Pattern: "/users/check/*", Public: true},
		{Method: http.MethodGet, Pattern: "/users/github", Public: true},
		{Method: http.MethodGet, Pattern: "/users/github/*", Public: true},
		{Method: http.MethodPost, Pattern: "/login/apple", Public: true},
		{Method: http.MethodGet, Pattern: "/healthz", Public: true},
		{Method: http.MethodGet, Pattern: "/readyz", Public: true},
	}
}

// AccessPolicy decides, per request, whether a principal is required
type AccessPolicy struct {
	rules  []AccessRule
	logger *zap.Logger
}

// NewAccessPolicy creates an AccessPolicy; the rules are copied and never change afterwards
func NewAccessPolicy(rules []AccessRule, logger *zap.Logger) (*AccessPolicy, error) {
	copied := make([]AccessRule, len(rules))
	for i, rule := range rules {
		if rule.Method == "" {
			return nil, fmt.Errorf("access rule %d: method is required", i)
		}
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("access rule %d: pattern %q must start with /", i, rule.Pattern)
		}
		if _, err := path.Match(strings.TrimSuffix(rule.Pattern, "/**"), ""); err != nil {
			return nil, fmt.Errorf("access rule %d: %w", i, err)
		}
		copied[i] = rule
	}
	return &AccessPolicy{rules: copied, logger: logger}, nil
}

// IsPublic reports whether the first rule matching the request marks it public
func (p *AccessPolicy) IsPublic(method, urlPath string) bool {
	cleaned := path.Clean("/" + urlPath)
	for _, rule := range p.rules {
		if rule.matches(method, cleaned) {
			return rule.Public
		}
	}
	return false
}

// Enforce rejects anonymous requests to protected routes
func (p *AccessPolicy) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil && !p.IsPublic(r.Method, routingPath(r)) {
			p.logger.Info("anonymous request to protected route",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			ReportError(w, r, services.ErrAuthenticationRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routingPath is the path chi dispatches on: the escaped path when the
// request carries one, so an encoded slash stays inside its segment.
func routingPath(r *http.Request) string {
	if r.URL.RawPath != "" {
		return r.URL.RawPath
	}
	return r.URL.Path
}

// RequireAuthority rejects requests whose principal lacks authority
func RequireAuthority(authority string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := RequirePrincipal(r)
			if err != nil {
				ReportError(w, r, err)
				return
			}

			if !principal.HasAuthority(authority) {
				logger.Warn("insufficient authority",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("required_authority", authority),
					zap.Strings("authorities", principal.Authorities),
					zap.String("user_id", principal.UserID.String()))
				ReportError(w, r, services.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
