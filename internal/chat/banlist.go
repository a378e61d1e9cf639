package chat

import "strings"

// BanList is the set of banned stable identifiers. Entries never expire
// within the life of the process.
type BanList struct {
	ids map[string]struct{}
}

// NewBanList returns an empty ban list.
func NewBanList() *BanList {
	return &BanList{ids: make(map[string]struct{})}
}

// Add bans id and reports whether it was newly added.
func (b *BanList) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, ok := b.ids[id]; ok {
		return false
	}
	b.ids[id] = struct{}{}
	return true
}

// Contains reports whether id is banned.
func (b *BanList) Contains(id string) bool {
	_, ok := b.ids[strings.TrimSpace(id)]
	return ok
}

// Len returns the number of banned identifiers.
func (b *BanList) Len() int {
	return len(b.ids)
}
