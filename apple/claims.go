package apple

import (
	"encoding/json"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the claims of a Sign in with Apple identity token
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email          string   `json:"email,omitempty"`
	EmailVerified  flexBool `json:"email_verified,omitempty"`
	IsPrivateEmail flexBool `json:"is_private_email,omitempty"`
	Nonce          string   `json:"nonce,omitempty"`
}

// Identity is the Apple account asserted by a verified identity token
type Identity struct {
	Subject        string
	Email          string
	EmailVerified  bool
	IsPrivateEmail bool
}

// Identity converts verified claims to an Identity
func (c *IdentityClaims) Identity() *Identity {
	return &Identity{
		Subject:        c.Subject,
		Email:          c.Email,
		EmailVerified:  bool(c.EmailVerified),
		IsPrivateEmail: bool(c.IsPrivateEmail),
	}
}

// flexBool accepts both JSON booleans and the "true"/"false" strings Apple sends
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case bool:
		*b = flexBool(v)
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*b = flexBool(parsed)
	default:
		*b = false
	}
	return nil
}
