package middleware

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/token"
)

// Source records which credential authenticated a request
type Source string

const (
	SourceAccess  Source = "access"
	SourceRefresh Source = "refresh"
)

// Principal is the authenticated identity of one request
type Principal struct {
	UserID      uuid.UUID
	Authorities []string
	Source      Source
}

// HasAuthority reports whether the principal was granted authority
func (p *Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// ResolvePrincipal maps validated token claims to a Principal
func ResolvePrincipal(claims token.Claims, source Source) (*Principal, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject %q is not a user id: %w", claims.Subject, err)
	}

	authorities := make([]string, len(claims.Authorities))
	copy(authorities, claims.Authorities)

	return &Principal{
		UserID:      userID,
		Authorities: authorities,
		Source:      source,
	}, nil
}
