// Package chat implements the relay core: who is connected, what role they
// hold, what has been said and who is banned. It never touches a socket; the
// transport layer feeds it inbound events and executes the effects it returns.
package chat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RoleKind distinguishes the two shapes a role may arrive in.
type RoleKind int

const (
	// RoleSingle is a role sent as one string.
	RoleSingle RoleKind = iota
	// RoleMultiple is a role sent as a list of strings.
	RoleMultiple
)

// Role is the tag (or set of tags) a client asserts at join time. It is used
// for authorization comparisons only, never for identity.
type Role struct {
	Kind RoleKind
	Tags []string
}

// SingleRole builds a role from one tag.
func SingleRole(tag string) Role {
	return Role{Kind: RoleSingle, Tags: []string{tag}}
}

// MultipleRole builds a role from a list of tags.
func MultipleRole(tags ...string) Role {
	return Role{Kind: RoleMultiple, Tags: append([]string(nil), tags...)}
}

// Normalize flattens the role into a sorted, de-duplicated set of lower-cased
// tags. Comma separated single strings ("admin, vip") are split as well.
func (r Role) Normalize() []string {
	seen := make(map[string]struct{}, len(r.Tags))
	out := make([]string, 0, len(r.Tags))
	for _, raw := range r.Tags {
		for _, part := range strings.Split(raw, ",") {
			tag := strings.ToLower(strings.TrimSpace(part))
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

// String renders the role the way it is shown in presence lists.
func (r Role) String() string {
	return strings.Join(r.Normalize(), ",")
}

// IsZero reports whether no tag was supplied.
func (r Role) IsZero() bool {
	return len(r.Normalize()) == 0
}

// MarshalJSON keeps the shape the client sent: a string for a single role and
// an array for a multiple one.
func (r Role) MarshalJSON() ([]byte, error) {
	if r.Kind == RoleMultiple {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		return json.Marshal(tags)
	}
	if len(r.Tags) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(r.Tags[0])
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (r *Role) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = SingleRole(single)
		return nil
	}

	var multiple []string
	if err := json.Unmarshal(data, &multiple); err != nil {
		return fmt.Errorf("role must be a string or an array of strings: %w", err)
	}
	*r = MultipleRole(multiple...)
	return nil
}
