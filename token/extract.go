package token

import (
	"net/http"
	"strings"
)

const (
	// RefreshTokenHeader carries the refresh token when no access token is sent
	RefreshTokenHeader = "X-Refresh-Token"

	// RefreshTokenCookie is consulted when the refresh header is absent
	RefreshTokenCookie = "refresh_token"

	bearerScheme = "bearer"
)

// ExtractAccessToken reads the bearer credential from the Authorization header.
// A missing or malformed header means no access token was presented.
func ExtractAccessToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != bearerScheme {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// ExtractRefreshToken reads the refresh credential from the X-Refresh-Token
// header, falling back to the refresh_token cookie.
func ExtractRefreshToken(r *http.Request) (string, bool) {
	if token := strings.TrimSpace(r.Header.Get(RefreshTokenHeader)); token != "" {
		return token, true
	}
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}
