package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownEvent is returned for envelopes naming an event the relay
	// does not handle.
	ErrUnknownEvent = errors.New("chat: unknown event")
	// ErrMalformedPayload is returned when a required field is missing or has
	// the wrong type.
	ErrMalformedPayload = errors.New("chat: malformed payload")
)

// EventType names an inbound event.
type EventType string

const (
	EventJoin          EventType = "join"
	EventMessage       EventType = "message"
	EventKickUser      EventType = "kickUser"
	EventDeleteMessage EventType = "deleteMessage"
	EventBan           EventType = "ban"
)

// Inbound is a decoded client event. Only the fields relevant to Type are set.
type Inbound struct {
	Type     EventType
	Username string
	Role     Role
	UserID   string
	Text     string
	Target   string
	ID       int64
}

// OutboundType names an event sent to clients.
type OutboundType string

const (
	OutMessage        OutboundType = "message"
	OutMessageHistory OutboundType = "messageHistory"
	OutMessageDeleted OutboundType = "messageDeleted"
	OutUserList       OutboundType = "userList"
	OutKicked         OutboundType = "kicked"
	OutRoleConfirmed  OutboundType = "roleConfirmed"
)

// Outbound is the wire envelope for server events.
type Outbound struct {
	Event OutboundType `json:"event"`
	Data  any          `json:"data"`
}

// RoleConfirmation is the payload of a roleConfirmed event.
type RoleConfirmation struct {
	Role Role `json:"role"`
}

// EffectKind says how the transport should deliver an effect.
type EffectKind int

const (
	// EffectBroadcast delivers Event to every open connection.
	EffectBroadcast EffectKind = iota
	// EffectSend delivers Event to Target only.
	EffectSend
	// EffectClose force-closes Target.
	EffectClose
)

// Effect is one instruction for the transport, produced by Relay.
type Effect struct {
	Kind   EffectKind
	Target string
	Event  Outbound
}

func broadcast(event OutboundType, data any) Effect {
	return Effect{Kind: EffectBroadcast, Event: Outbound{Event: event, Data: data}}
}

func sendTo(target string, event OutboundType, data any) Effect {
	return Effect{Kind: EffectSend, Target: target, Event: Outbound{Event: event, Data: data}}
}

func closeConn(target string) Effect {
	return Effect{Kind: EffectClose, Target: target}
}

type envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinPayload struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	UserID   string `json:"userId"`
}

type messagePayload struct {
	Text *string `json:"text"`
}

type kickPayload struct {
	Target *string `json:"target"`
}

type deletePayload struct {
	ID json.RawMessage `json:"id"`
}

type banPayload struct {
	UserID *string `json:"userId"`
}

// DecodeInbound parses a client frame of the form {"event": ..., "data": ...}.
// Payloads that carry a single field may also be sent bare, e.g.
// {"event": "message", "data": "hi"}.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Event {
	case EventJoin:
		return decodeJoin(env.Data)
	case EventMessage:
		text, err := decodeStringField(env.Data, func(p *messagePayload) *string { return p.Text })
		if err != nil {
			return Inbound{}, err
		}
		return Inbound{Type: EventMessage, Text: text}, nil
	case EventKickUser:
		target, err := decodeStringField(env.Data, func(p *kickPayload) *string { return p.Target })
		if err != nil {
			return Inbound{}, err
		}
		return Inbound{Type: EventKickUser, Target: target}, nil
	case EventDeleteMessage:
		id, err := decodeDelete(env.Data)
		if err != nil {
			return Inbound{}, err
		}
		return Inbound{Type: EventDeleteMessage, ID: id}, nil
	case EventBan:
		userID, err := decodeStringField(env.Data, func(p *banPayload) *string { return p.UserID })
		if err != nil {
			return Inbound{}, err
		}
		return Inbound{Type: EventBan, UserID: userID}, nil
	case "":
		return Inbound{}, fmt.Errorf("%w: missing event name", ErrMalformedPayload)
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeJoin(data json.RawMessage) (Inbound, error) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Inbound{}, fmt.Errorf("%w: join: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(p.Username) == "" {
		return Inbound{}, fmt.Errorf("%w: join: username is required", ErrMalformedPayload)
	}
	return Inbound{Type: EventJoin, Username: p.Username, Role: p.Role, UserID: p.UserID}, nil
}

// decodeStringField accepts either a bare JSON string or an object whose
// single relevant field is picked by field.
func decodeStringField[P any](data json.RawMessage, field func(*P) *string) (string, error) {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	v := field(&p)
	if v == nil {
		return "", fmt.Errorf("%w: missing field", ErrMalformedPayload)
	}
	return *v, nil
}

func decodeDelete(data json.RawMessage) (int64, error) {
	if id, err := parseID(data); err == nil {
		return id, nil
	}

	var p deletePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("%w: deleteMessage: %v", ErrMalformedPayload, err)
	}
	if len(p.ID) == 0 {
		return 0, fmt.Errorf("%w: deleteMessage: id is required", ErrMalformedPayload)
	}
	id, err := parseID(p.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleteMessage: %v", ErrMalformedPayload, err)
	}
	return id, nil
}

// parseID accepts a JSON number or a numeric string.
func parseID(data json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(n.String()), 10, 64)
}
