package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hostelmess/internal/webhook"
)

// Validation and lifecycle errors. Relay failures never surface as errors:
// they become user-facing bot messages in the log.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired, reset to continue")
	ErrEmptyMessage    = errors.New("message text required")
	ErrMessageTooLong  = errors.New("message too long")
	ErrSendInFlight    = errors.New("a send is already in flight")
)

// Relay is the narrow client the service needs to reach the chat webhook.
type Relay interface {
	Send(ctx context.Context, userID, text string) (string, error)
	Healthy(ctx context.Context) bool
}

// Service owns the in-memory session registry.
type Service struct {
	relay    Relay
	greeting string
	limit    int
	maxChars int

	mu       sync.RWMutex
	sessions map[string]*Session

	healthMu     sync.Mutex
	healthOK     bool
	healthProbed time.Time
	healthMaxAge time.Duration
}

// NewService creates a session registry relaying through the given client.
func NewService(relay Relay, greeting string, maxExchanges, maxChars int) *Service {
	if maxExchanges <= 0 {
		maxExchanges = 10
	}
	if maxChars <= 0 {
		maxChars = 200
	}
	return &Service{
		relay:        relay,
		greeting:     greeting,
		limit:        maxExchanges,
		maxChars:     maxChars,
		sessions:     make(map[string]*Session),
		healthMaxAge: 30 * time.Second,
	}
}

// Create starts a session seeded with the greeting. An empty userID gets a
// generated one.
func (s *Service) Create(userID string) *Session {
	if userID == "" {
		userID = NewUserID()
	}
	sess := &Session{
		id:     uuid.NewString(),
		userID: userID,
		limit:  s.limit,
		state:  StateActive,
	}
	if s.greeting != "" {
		sess.append(s.greeting, false)
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// Get looks up a session by id.
func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Send relays one user message and appends both sides of the exchange to
// the log. Relay failures are recovered into a user-facing bot message; the
// returned message is always the bot's side of the exchange.
func (s *Service) Send(ctx context.Context, sessionID, text string) (Message, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return Message{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.maxChars {
		return Message{}, ErrMessageTooLong
	}

	sess.mu.Lock()
	if sess.state == StateExpired {
		sess.mu.Unlock()
		return Message{}, ErrSessionExpired
	}
	if sess.inFlight {
		sess.mu.Unlock()
		return Message{}, ErrSendInFlight
	}
	sess.inFlight = true
	sess.append(text, true)
	sess.mu.Unlock()

	reply, sendErr := s.relay.Send(ctx, sess.userID, text)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.inFlight = false

	if sendErr != nil {
		logrus.WithError(sendErr).Warn("chat relay failed")
		return sess.append(shapeError(sendErr), false), nil
	}

	msg := sess.append(reply, false)
	sess.exchanges++
	if sess.exchanges >= sess.limit {
		sess.state = StateExpired
	}
	return msg, nil
}

// Reset transitions an expired (or active) session back to a fresh log.
// This replaces the widget's implicit page reload.
func (s *Service) Reset(sessionID string) (*Session, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.messages = nil
	sess.exchanges = 0
	sess.state = StateActive
	sess.inFlight = false
	if s.greeting != "" {
		sess.append(s.greeting, false)
	}
	return sess, nil
}

// Healthy reports webhook connectivity. The probe sends a real exchange,
// so the result is cached and refreshed at most once per max-age window
// to keep liveness checks from generating workflow traffic.
func (s *Service) Healthy(ctx context.Context) bool {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	if !s.healthProbed.IsZero() && time.Since(s.healthProbed) < s.healthMaxAge {
		return s.healthOK
	}
	s.healthOK = s.relay.Healthy(ctx)
	s.healthProbed = time.Now()
	return s.healthOK
}

// shapeError converts a relay failure into the friendly text the widget
// shows, keyed by failure class.
func shapeError(err error) string {
	const base = "I'm having trouble connecting to the server. "

	var httpErr *webhook.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Status {
		case 404:
			return base + "The chat service endpoint was not found."
		case 500:
			return base + "There's a server issue. Please try again later."
		}
		return base + "Please try again in a moment."
	}

	var netErr *webhook.NetworkError
	if errors.As(err, &netErr) {
		return base + "Please check your internet connection."
	}
	return base + "Please try again in a moment."
}
