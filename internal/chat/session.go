package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a session's in-memory log. Messages are immutable
// once created and are never persisted.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// State is a session's lifecycle position. A session expires after its
// exchange limit and only an explicit Reset brings it back.
type State string

// Session states.
const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Session holds one conversation: the message log, the exchange counter,
// and the in-flight guard that keeps sends serial.
type Session struct {
	mu        sync.Mutex
	id        string
	userID    string
	messages  []Message
	exchanges int
	limit     int
	state     State
	inFlight  bool
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the opaque chat user identifier the session relays as.
func (s *Session) UserID() string { return s.userID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ExchangesLeft reports how many sends remain before the session expires.
func (s *Session) ExchangesLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit - s.exchanges
}

// Messages returns a copy of the log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) append(text string, isUser bool) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: time.Now().UTC(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// NewUserID generates an opaque per-client chat identifier.
func NewUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
