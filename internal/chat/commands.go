package chat

import (
	"strconv"
	"strings"
)

// parseCommand turns a moderator's slash command into the equivalent inbound
// event. It recognizes "/ban <userId>", "/delete <id>" and "/kick <username>".
// ok is false for anything else, including commands with a missing or
// malformed argument.
func parseCommand(text string) (Inbound, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Inbound{}, false
	}

	name, arg, _ := strings.Cut(text[1:], " ")
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Inbound{}, false
	}

	switch strings.ToLower(name) {
	case "ban":
		return Inbound{Type: EventBan, UserID: arg}, true
	case "delete":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return Inbound{}, false
		}
		return Inbound{Type: EventDeleteMessage, ID: id}, true
	case "kick":
		return Inbound{Type: EventKickUser, Target: arg}, true
	}
	return Inbound{}, false
}
