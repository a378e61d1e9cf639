package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SystemAuthor is the username carried by server notices.
const SystemAuthor = "System"

const suspendedNotice = "You are suspended and cannot send messages."

// Options configures a Relay. The zero value is usable.
type Options struct {
	// HistorySize caps the replay buffer. Defaults to DefaultHistorySize.
	HistorySize int
	// Guard decides who may moderate. Defaults to exact matching against
	// DefaultModeratorTags.
	Guard *Guard
	// AnnounceJoins broadcasts a system notice when someone joins.
	AnnounceJoins bool
	// Now is the clock used for message ids and timestamps.
	Now func() time.Time
}

// Relay owns the registry, history and ban list of one chat room and applies
// inbound events to them. Every call is atomic with respect to the others;
// the returned effects are meant to be executed by the transport after the
// call returns.
type Relay struct {
	mu            sync.Mutex
	registry      *Registry
	history       *History
	bans          *BanList
	guard         *Guard
	clock         idClock
	announceJoins bool
}

// NewRelay builds an empty relay.
func NewRelay(opts Options) *Relay {
	if opts.Guard == nil {
		opts.Guard = NewGuard(MatchExact)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Relay{
		registry:      NewRegistry(),
		history:       NewHistory(opts.HistorySize),
		bans:          NewBanList(),
		guard:         opts.Guard,
		clock:         idClock{now: opts.Now},
		announceJoins: opts.AnnounceJoins,
	}
}

// Handle applies one inbound event from connID and returns the resulting
// effects. Events from connections without a session (other than join),
// unauthorized moderation attempts and references to unknown targets all
// produce no effects.
func (r *Relay) Handle(connID string, ev Inbound) []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Type == EventJoin {
		return r.join(connID, ev)
	}

	sender, ok := r.registry.Find(connID)
	if !ok {
		log.Debug().Str("conn", connID).Str("event", string(ev.Type)).Msg("Dropping event from connection without a session")
		return nil
	}

	switch ev.Type {
	case EventMessage:
		return r.message(sender, ev.Text)
	case EventKickUser, EventDeleteMessage, EventBan:
		return r.moderate(sender, ev)
	}
	return nil
}

// Connect records a new connection. No session exists until it joins, so
// there is nothing to announce.
func (r *Relay) Connect(connID string) []Effect {
	log.Debug().Str("conn", connID).Msg("Connection opened")
	return nil
}

// Disconnect removes connID's session, if any, and announces the departure.
func (r *Relay) Disconnect(connID string) []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.registry.Unregister(connID)
	if !ok {
		return nil
	}
	log.Info().Str("conn", connID).Str("username", s.Username).Msg("User left")
	return []Effect{
		broadcast(OutMessage, r.systemMessage(fmt.Sprintf("%s left the chat.", s.Username))),
		broadcast(OutUserList, r.registry.Presence()),
	}
}

// Sessions returns the live sessions in registration order.
func (r *Relay) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Snapshot()
}

// History returns the retained messages oldest first.
func (r *Relay) History() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Snapshot()
}

// IsBanned reports whether id is on the ban list.
func (r *Relay) IsBanned(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bans.Contains(id)
}

func (r *Relay) join(connID string, ev Inbound) []Effect {
	s := Session{
		ConnID:   connID,
		Username: strings.TrimSpace(ev.Username),
		Role:     ev.Role,
		UserID:   strings.TrimSpace(ev.UserID),
		JoinedAt: r.clock.now(),
	}
	if s.Username == "" {
		return nil
	}
	if err := r.registry.Register(s); err != nil {
		log.Warn().Err(err).Msg("Rejected join")
		return nil
	}
	log.Info().Str("conn", connID).Str("username", s.Username).Str("role", s.Role.String()).Msg("User joined")

	effects := []Effect{
		sendTo(connID, OutRoleConfirmed, RoleConfirmation{Role: s.Role}),
		sendTo(connID, OutMessageHistory, r.history.Snapshot()),
	}
	if r.announceJoins {
		effects = append(effects, broadcast(OutMessage, r.systemMessage(fmt.Sprintf("%s joined the chat.", s.Username))))
	}
	return append(effects, broadcast(OutUserList, r.registry.Presence()))
}

func (r *Relay) message(sender Session, text string) []Effect {
	if text == "" {
		return nil
	}
	if r.bans.Contains(sender.BanKey()) {
		log.Info().Str("username", sender.Username).Msg("Rejected message from suspended user")
		return []Effect{sendTo(sender.ConnID, OutMessage, r.systemMessage(suspendedNotice))}
	}
	if r.guard.CanModerate(sender.Role) {
		if cmd, ok := parseCommand(text); ok {
			return r.moderate(sender, cmd)
		}
	}

	id, at := r.clock.next()
	msg := ChatMessage{ID: id, Author: sender.Username, Body: text, Kind: KindUser, CreatedAt: at}
	r.history.Append(msg)
	return []Effect{broadcast(OutMessage, msg)}
}

func (r *Relay) moderate(sender Session, ev Inbound) []Effect {
	if !r.guard.CanModerate(sender.Role) {
		log.Info().Str("username", sender.Username).Str("event", string(ev.Type)).Msg("Ignoring unauthorized moderation attempt")
		return nil
	}
	if r.bans.Contains(sender.BanKey()) {
		log.Info().Str("username", sender.Username).Str("event", string(ev.Type)).Msg("Ignoring moderation from suspended user")
		return nil
	}

	switch ev.Type {
	case EventKickUser:
		return r.kick(sender, ev.Target)
	case EventDeleteMessage:
		return r.deleteMessage(sender, ev.ID)
	case EventBan:
		return r.ban(sender, ev.UserID)
	}
	return nil
}

func (r *Relay) kick(sender Session, target string) []Effect {
	victim, ok := r.registry.FindByUsername(target)
	if !ok {
		return nil
	}
	r.registry.Unregister(victim.ConnID)
	log.Info().Str("by", sender.Username).Str("username", victim.Username).Msg("User kicked")

	return []Effect{
		sendTo(victim.ConnID, OutKicked, struct{}{}),
		closeConn(victim.ConnID),
		broadcast(OutMessage, r.systemMessage(fmt.Sprintf("%s was kicked from the chat.", victim.Username))),
		broadcast(OutUserList, r.registry.Presence()),
	}
}

func (r *Relay) deleteMessage(sender Session, id int64) []Effect {
	if !r.history.RemoveByID(id) {
		return nil
	}
	log.Info().Str("by", sender.Username).Int64("id", id).Msg("Message deleted")
	return []Effect{broadcast(OutMessageDeleted, id)}
}

func (r *Relay) ban(sender Session, userID string) []Effect {
	userID = strings.TrimSpace(userID)
	if !r.bans.Add(userID) {
		return nil
	}
	log.Info().Str("by", sender.Username).Str("user_id", userID).Msg("User banned")
	return []Effect{broadcast(OutMessage, r.systemMessage(fmt.Sprintf("%s has been banned.", userID)))}
}

func (r *Relay) systemMessage(text string) ChatMessage {
	id, at := r.clock.next()
	return ChatMessage{ID: id, Author: SystemAuthor, Body: text, Kind: KindSystem, CreatedAt: at}
}
