package models

import (
	"sort"
	"strings"
)

// ItemFilter narrows folder listings to files whose creator role,
// visibility and accessibility all fall in the configured sets. An empty
// set leaves that axis unconstrained. A nil filter matches everything.
type ItemFilter struct {
	creators map[CreatorRole]struct{}
	visible  map[VisibleTo]struct{}
	access   map[AccessibleTo]struct{}
	key      string
}

// NewItemFilter validates the raw axis values and builds the filter. Every
// value must parse under the same rules as the rights form, so retired
// scopes are rejected here too.
func NewItemFilter(creators, visible, access []string) (*ItemFilter, error) {
	f := &ItemFilter{
		creators: make(map[CreatorRole]struct{}, len(creators)),
		visible:  make(map[VisibleTo]struct{}, len(visible)),
		access:   make(map[AccessibleTo]struct{}, len(access)),
	}
	for _, raw := range creators {
		role, err := ParseCreatorRole(raw)
		if err != nil {
			return nil, err
		}
		f.creators[role] = struct{}{}
	}
	for _, raw := range visible {
		scope, err := ParseVisibleTo(raw)
		if err != nil {
			return nil, err
		}
		f.visible[scope] = struct{}{}
	}
	for _, raw := range access {
		scope, err := ParseAccessibleTo(raw)
		if err != nil {
			return nil, err
		}
		f.access[scope] = struct{}{}
	}
	f.key = filterKey(f)
	return f, nil
}

// Empty reports whether no axis is constrained.
func (f *ItemFilter) Empty() bool {
	return f == nil || (len(f.creators) == 0 && len(f.visible) == 0 && len(f.access) == 0)
}

// Key returns a canonical representation of the filter. Two filters built
// from the same values in any order share a key, so key comparison detects
// filter changes.
func (f *ItemFilter) Key() string {
	if f == nil {
		return ""
	}
	return f.key
}

// Matches reports whether the item passes every constrained axis.
func (f *ItemFilter) Matches(item *Item) bool {
	if f.Empty() {
		return true
	}
	if len(f.creators) > 0 {
		if _, ok := f.creators[item.CreatorRole]; !ok {
			return false
		}
	}
	if len(f.visible) > 0 {
		if _, ok := f.visible[item.VisibleTo]; !ok {
			return false
		}
	}
	if len(f.access) > 0 {
		if _, ok := f.access[item.AccessibleTo]; !ok {
			return false
		}
	}
	return true
}

func filterKey(f *ItemFilter) string {
	if f.Empty() {
		return ""
	}
	parts := make([]string, 0, len(f.creators)+len(f.visible)+len(f.access))
	for role := range f.creators {
		parts = append(parts, "c:"+string(role))
	}
	for scope := range f.visible {
		parts = append(parts, "v:"+string(scope))
	}
	for scope := range f.access {
		parts = append(parts, "a:"+string(scope))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
