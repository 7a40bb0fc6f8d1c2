package models

// Role names a capability group held by a principal.
type Role string

const (
	RoleArchivist Role = "ARCHIVIST"
	RoleDepositor Role = "DEPOSITOR"
	RoleUser      Role = "USER"
)

// Principal is the acting, already-authenticated user. It is supplied per
// request and never owned by the engine.
type Principal struct {
	UserID        string          `json:"userId"`
	Roles         map[Role]bool   `json:"roles"`
	DepositorOf   map[string]bool `json:"-"`
	AcceptedTerms bool            `json:"acceptedTerms"`
	Anonymous     bool            `json:"anonymous"`
}

// HasRole reports whether the principal holds the given role.
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	return p.Roles[role]
}

// IsArchivist reports whether the principal holds the archivist override.
func (p *Principal) IsArchivist() bool {
	return p.HasRole(RoleArchivist)
}

// IsDepositorOf reports whether the principal deposited the given dataset.
func (p *Principal) IsDepositorOf(datasetID string) bool {
	if p == nil {
		return false
	}
	return p.DepositorOf[datasetID]
}

// IsKnown reports whether the principal is an authenticated user that has
// accepted the general usage terms, which is what KNOWN_USER scopes admit.
func (p *Principal) IsKnown() bool {
	return p != nil && !p.Anonymous && p.AcceptedTerms
}
