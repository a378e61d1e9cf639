package chat

import "strings"

// MatchMode selects how role tags are compared against the moderator tags.
type MatchMode int

const (
	// MatchExact grants authority only when a normalized tag equals a
	// moderator tag.
	MatchExact MatchMode = iota
	// MatchSubstring grants authority when any tag contains a moderator tag.
	// This mirrors the permissive legacy check and will accept names such as
	// "not-an-administrator".
	MatchSubstring
)

// DefaultModeratorTags are the tags that authorize kick, ban and delete.
var DefaultModeratorTags = []string{"admin", "administrator", "moderator"}

// Guard decides whether a role may moderate. All moderator tags grant the same
// authority; there is no distinction between kick, ban and delete.
type Guard struct {
	tags map[string]struct{}
	mode MatchMode
}

// NewGuard builds a guard over the given tags. An empty list falls back to
// DefaultModeratorTags.
func NewGuard(mode MatchMode, tags ...string) *Guard {
	if len(tags) == 0 {
		tags = DefaultModeratorTags
	}
	g := &Guard{tags: make(map[string]struct{}, len(tags)), mode: mode}
	for _, tag := range MultipleRole(tags...).Normalize() {
		g.tags[tag] = struct{}{}
	}
	return g
}

// CanModerate reports whether role carries a moderator tag.
func (g *Guard) CanModerate(role Role) bool {
	for _, tag := range role.Normalize() {
		if g.mode == MatchExact {
			if _, ok := g.tags[tag]; ok {
				return true
			}
			continue
		}
		for mod := range g.tags {
			if strings.Contains(tag, mod) {
				return true
			}
		}
	}
	return false
}

// ParseMatchMode maps a configuration value to a MatchMode. Unknown values
// fall back to MatchExact.
func ParseMatchMode(value string) MatchMode {
	if strings.EqualFold(strings.TrimSpace(value), "substring") {
		return MatchSubstring
	}
	return MatchExact
}
