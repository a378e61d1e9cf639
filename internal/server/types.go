// Package server defines the hub's internal event type and helpers shared by
// client and hub logic.
package server

import (
	"strings"

	"github.com/Tyrowin/relaychat/internal/chat"
)

// clientEvent is a decoded frame waiting to be applied by the hub.
type clientEvent struct {
	client *Client
	event  chat.Inbound
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
