package domain

import "maps"

// Claims is the payload carried by a bearer token. It is an arbitrary
// mapping; the only key the service relies on is "email".
type Claims map[string]any

// Email returns the email claim, or "" when it is absent or not a string.
func (c Claims) Email() string {
	email, _ := c["email"].(string)
	return email
}

// Clone returns a shallow copy of the claims.
func (c Claims) Clone() Claims {
	if c == nil {
		return Claims{}
	}
	return maps.Clone(c)
}
