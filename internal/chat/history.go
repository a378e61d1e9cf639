package chat

import "time"

// DefaultHistorySize is the number of messages replayed to newcomers.
const DefaultHistorySize = 50

// MessageKind tells user messages apart from server notices.
type MessageKind string

const (
	KindUser   MessageKind = "user"
	KindSystem MessageKind = "system"
)

// ChatMessage is one accepted message. Author is a snapshot of the sender's
// username at send time.
type ChatMessage struct {
	ID        int64       `json:"id"`
	Author    string      `json:"username"`
	Body      string      `json:"text"`
	Kind      MessageKind `json:"type"`
	CreatedAt time.Time   `json:"time"`
}

// History is a bounded FIFO of recent messages backed by a ring buffer.
// It is not safe for concurrent use; Relay serializes access.
type History struct {
	buf   []ChatMessage
	head  int
	count int
}

// NewHistory returns a ring holding at most size messages. A non-positive
// size falls back to DefaultHistorySize.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{buf: make([]ChatMessage, size)}
}

// Append adds msg at the tail, evicting the oldest message when full.
func (h *History) Append(msg ChatMessage) {
	if h.count < len(h.buf) {
		h.buf[(h.head+h.count)%len(h.buf)] = msg
		h.count++
		return
	}
	h.buf[h.head] = msg
	h.head = (h.head + 1) % len(h.buf)
}

// RemoveByID removes the first message with the given id and reports whether
// anything was removed.
func (h *History) RemoveByID(id int64) bool {
	for i := 0; i < h.count; i++ {
		if h.at(i).ID != id {
			continue
		}
		for j := i; j < h.count-1; j++ {
			h.buf[(h.head+j)%len(h.buf)] = h.at(j + 1)
		}
		h.count--
		h.buf[(h.head+h.count)%len(h.buf)] = ChatMessage{}
		return true
	}
	return false
}

// Snapshot returns the retained messages oldest first.
func (h *History) Snapshot() []ChatMessage {
	out := make([]ChatMessage, h.count)
	for i := range out {
		out[i] = h.at(i)
	}
	return out
}

// Len returns the number of retained messages.
func (h *History) Len() int {
	return h.count
}

// Cap returns the ring capacity.
func (h *History) Cap() int {
	return len(h.buf)
}

func (h *History) at(i int) ChatMessage {
	return h.buf[(h.head+i)%len(h.buf)]
}
