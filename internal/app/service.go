package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jaminalder/tictactoe-history/internal/domain"
)

// Errors exposed by the service layer.
var ErrNotFound = errors.New("game not found")

// Rules is the board shape and history policy every new session starts with.
type Rules struct {
	Rows      int
	Cols      int
	WinLength int
	Mode      domain.HistoryMode
}

// DefaultRules is the classic 3x3 game with undo/redo truncation.
func DefaultRules() Rules {
	return Rules{Rows: 3, Cols: 3, WinLength: domain.DefaultWinLength, Mode: domain.Truncate}
}

// Session is one browser game. Values handed out by the service are copies.
type Session struct {
	ID      string
	State   domain.GameState
	Created time.Time
	Updated time.Time
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service owns every session's GameState and is the single place where
// intents are applied.
type Service struct {
	mu       sync.Mutex
	log      *slog.Logger
	rules    Rules
	sessions map[string]*Session
	subs     map[string]map[*subscriber]struct{}
	render   func(Session) []byte
	now      func() time.Time
}

// NewService creates a service. A nil logger discards output.
func NewService(logger *slog.Logger, rules Rules) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		log:      logger.With("component", "service"),
		rules:    rules,
		sessions: make(map[string]*Session),
		subs:     make(map[string]map[*subscriber]struct{}),
		render:   func(Session) []byte { return nil },
		now:      time.Now,
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(Session) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(Session) []byte { return nil }
		return
	}
	s.render = renderer
}

// Rules returns the rules new sessions start with.
func (s *Service) Rules() Rules { return s.rules }

// CreateGame creates and registers a new session.
func (s *Service) CreateGame() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newSessionID()
	if _, taken := s.sessions[id]; taken {
		return nil, fmt.Errorf("session id collision: %s", id)
	}
	now := s.now()
	r := s.rules
	sess := &Session{
		ID:      id,
		State:   domain.NewGame(r.Rows, r.Cols, r.WinLength, r.Mode),
		Created: now,
		Updated: now,
	}
	s.sessions[id] = sess
	s.log.Info("session created", "session", id, "mode", r.Mode.String())
	cp := *sess
	return &cp, nil
}

// Get returns a copy of the session if present.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *sess
	return &cp, true
}

// Dispatch applies an intent to the session's state and broadcasts the result.
// Rejected moves are not errors for the caller: the unchanged session is
// returned and nothing is broadcast. Only an unknown session is reported.
func (s *Service) Dispatch(ctx context.Context, id string, in domain.Intent) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	next, err := domain.Reduce(sess.State, in)
	if err != nil {
		cp := *sess
		s.mu.Unlock()
		s.log.DebugContext(ctx, "intent ignored",
			"session", id,
			"intent", domain.IntentName(in),
			"reason", err.Error(),
		)
		return &cp, nil
	}
	sess.State = next
	sess.Updated = s.now()
	cp := *sess

	// Sends never block; subscribers are only closed while s.mu is held.
	dropped := 0
	if set := s.subs[id]; len(set) > 0 {
		payload := s.render(cp)
		for sub := range set {
			select {
			case sub.ch <- payload:
			default:
				sub.close()
				delete(set, sub)
				dropped++
			}
		}
	}
	s.mu.Unlock()

	s.log.DebugContext(ctx, "intent applied",
		"session", id,
		"intent", domain.IntentName(in),
		"current", cp.State.Current,
		"entries", cp.State.Len(),
	)
	if dropped > 0 {
		s.log.Warn("dropped slow subscribers", "session", id, "count", dropped)
	}
	return &cp, nil
}

// Subscribe registers a subscriber for a session. The channel is closed when
// ctx ends, when unsubscribe is called, or when the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// Prune removes sessions idle for longer than ttl and closes their
// subscribers. It returns the number of sessions removed.
func (s *Service) Prune(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.Updated.After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		for sub := range s.subs[id] {
			sub.close()
		}
		delete(s.subs, id)
		removed++
	}
	s.mu.Unlock()

	if removed > 0 {
		s.log.Info("pruned idle sessions", "count", removed)
	}
	return removed
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune(ttl)
		}
	}
}
