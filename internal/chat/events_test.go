package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeInbound verifies decoding of every inbound event in object and bare form.
func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "join with single role",
			raw:  `{"event":"join","data":{"username":"alice","role":"member"}}`,
			want: Inbound{Type: EventJoin, Username: "alice", Role: SingleRole("member")},
		},
		{
			name: "join with role list and user id",
			raw:  `{"event":"join","data":{"username":"bob","role":["vip","moderator"],"userId":"u-7"}}`,
			want: Inbound{Type: EventJoin, Username: "bob", Role: MultipleRole("vip", "moderator"), UserID: "u-7"},
		},
		{
			name: "message object",
			raw:  `{"event":"message","data":{"text":"hi"}}`,
			want: Inbound{Type: EventMessage, Text: "hi"},
		},
		{
			name: "bare message",
			raw:  `{"event":"message","data":"hi"}`,
			want: Inbound{Type: EventMessage, Text: "hi"},
		},
		{
			name: "kick object",
			raw:  `{"event":"kickUser","data":{"target":"alice"}}`,
			want: Inbound{Type: EventKickUser, Target: "alice"},
		},
		{
			name: "bare kick",
			raw:  `{"event":"kickUser","data":"alice"}`,
			want: Inbound{Type: EventKickUser, Target: "alice"},
		},
		{
			name: "delete object",
			raw:  `{"event":"deleteMessage","data":{"id":1700000000123}}`,
			want: Inbound{Type: EventDeleteMessage, ID: 1700000000123},
		},
		{
			name: "bare delete",
			raw:  `{"event":"deleteMessage","data":42}`,
			want: Inbound{Type: EventDeleteMessage, ID: 42},
		},
		{
			name: "delete with string id",
			raw:  `{"event":"deleteMessage","data":{"id":"42"}}`,
			want: Inbound{Type: EventDeleteMessage, ID: 42},
		},
		{
			name: "ban object",
			raw:  `{"event":"ban","data":{"userId":"u-9"}}`,
			want: Inbound{Type: EventBan, UserID: "u-9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDecodeInboundMalformed verifies that malformed frames map to the sentinel errors.
func TestDecodeInboundMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"not json", `hello`, ErrMalformedPayload},
		{"missing event", `{"data":{}}`, ErrMalformedPayload},
		{"unknown event", `{"event":"dance","data":{}}`, ErrUnknownEvent},
		{"join without username", `{"event":"join","data":{"role":"admin"}}`, ErrMalformedPayload},
		{"join with bad role", `{"event":"join","data":{"username":"a","role":7}}`, ErrMalformedPayload},
		{"message without text", `{"event":"message","data":{}}`, ErrMalformedPayload},
		{"message without data", `{"event":"message"}`, ErrMalformedPayload},
		{"kick without target", `{"event":"kickUser","data":{"who":"x"}}`, ErrMalformedPayload},
		{"delete without id", `{"event":"deleteMessage","data":{}}`, ErrMalformedPayload},
		{"delete with text id", `{"event":"deleteMessage","data":{"id":"abc"}}`, ErrMalformedPayload},
		{"ban without user id", `{"event":"ban","data":{}}`, ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// TestOutboundWireShape checks the JSON envelope clients receive.
func TestOutboundWireShape(t *testing.T) {
	msg := ChatMessage{ID: 5, Author: "alice", Body: "hi", Kind: KindUser}
	out, err := json.Marshal(Outbound{Event: OutMessage, Data: msg})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "message", decoded["event"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "hi", data["text"])
	assert.Equal(t, "user", data["type"])
	assert.Contains(t, data, "time")
	assert.EqualValues(t, 5, data["id"])
}
