package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access-token payload minted by the institutional SSO.
// This service only validates tokens, it never issues them.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Roles         []Role   `json:"roles"`
	DepositorOf   []string `json:"depositor_of,omitempty"`
	AcceptedTerms bool     `json:"accepted_terms"`
	jwt.RegisteredClaims
}

// Principal materializes the claims into the engine's principal value.
func (c *JWTClaims) Principal() *Principal {
	if c == nil {
		return &Principal{Anonymous: true, Roles: map[Role]bool{}, DepositorOf: map[string]bool{}}
	}
	roles := make(map[Role]bool, len(c.Roles))
	for _, r := range c.Roles {
		roles[r] = true
	}
	depositorOf := make(map[string]bool, len(c.DepositorOf))
	for _, id := range c.DepositorOf {
		depositorOf[id] = true
	}
	return &Principal{
		UserID:        c.UserID,
		Roles:         roles,
		DepositorOf:   depositorOf,
		AcceptedTerms: c.AcceptedTerms,
	}
}
