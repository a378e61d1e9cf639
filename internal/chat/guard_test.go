package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGuardExact verifies exact tag matching against the default moderator tags.
func TestGuardExact(t *testing.T) {
	g := NewGuard(MatchExact)

	tests := []struct {
		role Role
		want bool
	}{
		{SingleRole("admin"), true},
		{SingleRole("Administrator"), true},
		{SingleRole("moderator"), true},
		{MultipleRole("member", "moderator"), true},
		{SingleRole("vip,admin"), true},
		{SingleRole("member"), false},
		{SingleRole("not-an-administrator"), false},
		{SingleRole("moderators"), false},
		{Role{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, g.CanModerate(tt.role))
		})
	}
}

// TestGuardSubstring verifies the permissive substring mode.
func TestGuardSubstring(t *testing.T) {
	g := NewGuard(MatchSubstring)

	assert.True(t, g.CanModerate(SingleRole("not-an-administrator")))
	assert.True(t, g.CanModerate(SingleRole("supermoderator")))
	assert.False(t, g.CanModerate(SingleRole("member")))
}

// TestGuardCustomTags verifies that configured tags replace the defaults.
func TestGuardCustomTags(t *testing.T) {
	g := NewGuard(MatchExact, "Owner")

	assert.True(t, g.CanModerate(SingleRole("owner")))
	assert.False(t, g.CanModerate(SingleRole("admin")))
}

// TestParseMatchMode verifies configuration values for the match mode.
func TestParseMatchMode(t *testing.T) {
	assert.Equal(t, MatchSubstring, ParseMatchMode(" Substring "))
	assert.Equal(t, MatchExact, ParseMatchMode("exact"))
	assert.Equal(t, MatchExact, ParseMatchMode("bogus"))
}
