package models

import "fmt"

// VisibleTo controls whether an item's existence and metadata may be shown.
type VisibleTo string

// AccessibleTo controls whether an item's content may be read or downloaded.
type AccessibleTo string

const (
	VisibleToAnyone    VisibleTo = "ANYONE"
	VisibleToKnownUser VisibleTo = "KNOWN_USER"
	VisibleToNone      VisibleTo = "NONE"

	AccessibleToAnyone    AccessibleTo = "ANYONE"
	AccessibleToKnownUser AccessibleTo = "KNOWN_USER"
	AccessibleToNone      AccessibleTo = "NONE"
)

// Group and request based scopes were retired by archive policy. They are
// rejected at the boundary so the evaluation engine never sees them.
var retiredScopes = map[string]struct{}{
	"RESTRICTED_GROUP":   {},
	"RESTRICTED_REQUEST": {},
}

// ParseVisibleTo validates a raw visibility scope value.
func ParseVisibleTo(raw string) (VisibleTo, error) {
	if _, retired := retiredScopes[raw]; retired {
		return "", fmt.Errorf("visibility scope %q is disabled by policy", raw)
	}
	switch VisibleTo(raw) {
	case VisibleToAnyone, VisibleToKnownUser, VisibleToNone:
		return VisibleTo(raw), nil
	}
	return "", fmt.Errorf("unknown visibility scope %q", raw)
}

// ParseAccessibleTo validates a raw accessibility scope value.
func ParseAccessibleTo(raw string) (AccessibleTo, error) {
	if _, retired := retiredScopes[raw]; retired {
		return "", fmt.Errorf("accessibility scope %q is disabled by policy", raw)
	}
	switch AccessibleTo(raw) {
	case AccessibleToAnyone, AccessibleToKnownUser, AccessibleToNone:
		return AccessibleTo(raw), nil
	}
	return "", fmt.Errorf("unknown accessibility scope %q", raw)
}

// VisibleToValues enumerates the scopes a UI may offer.
func VisibleToValues() []VisibleTo {
	return []VisibleTo{VisibleToAnyone, VisibleToKnownUser, VisibleToNone}
}

// AccessibleToValues enumerates the scopes a UI may offer.
func AccessibleToValues() []AccessibleTo {
	return []AccessibleTo{AccessibleToAnyone, AccessibleToKnownUser, AccessibleToNone}
}
