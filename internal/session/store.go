// Package session tracks in-flight submissions in process memory. Sessions
// exist only for the lifetime of the process; nothing is persisted and an
// abandoned session is simply forgotten.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"avatarbooth/internal/domain"
)

// Session states beyond the terminal outcome states.
const (
	StateRunning = "running"
	StateError   = "error"
)

// Event is one progress observation, kept in order of arrival.
type Event struct {
	Stage   string    `json:"stage"`
	Attempt int       `json:"attempt,omitempty"`
	Status  string    `json:"status,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Snapshot is a copy of a session safe to hand to callers.
type Snapshot struct {
	ID        string          `json:"session_id"`
	Style     string          `json:"style"`
	State     string          `json:"state"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
	Outcome   *domain.Outcome `json:"outcome,omitempty"`
	Events    []Event         `json:"events"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type session struct {
	snap Snapshot
	subs map[chan Event]struct{}
	done bool
}

// Store holds sessions behind a mutex. Each submission owns exactly one
// session, so there is no cross-session coordination beyond the map itself.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	retain   time.Duration
	now      func() time.Time
}

// NewStore builds an empty store. Finished sessions are swept on the next
// Create once they are older than an hour.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		retain:   time.Hour,
		now:      time.Now,
	}
}

// Create registers a new running session and returns its snapshot.
func (s *Store) Create(style domain.Style) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	now := s.now()
	sess := &session{
		snap: Snapshot{
			ID:        uuid.NewString(),
			Style:     string(style),
			State:     StateRunning,
			CreatedAt: now,
			UpdatedAt: now,
		},
		subs: make(map[chan Event]struct{}),
	}
	s.sessions[sess.snap.ID] = sess
	return cloneSnapshot(sess.snap)
}

// Append records a progress event and fans it out to subscribers. Slow
// subscribers lose events rather than block the workflow.
func (s *Store) Append(id string, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.done {
		return
	}
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	sess.snap.Events = append(sess.snap.Events, ev)
	sess.snap.UpdatedAt = ev.At
	for ch := range sess.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Finish marks the session terminal with either an outcome or an error and
// closes all subscriber channels.
func (s *Store) Finish(id string, outcome *domain.Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.done {
		return
	}
	sess.done = true
	sess.snap.UpdatedAt = s.now()
	switch {
	case err != nil:
		sess.snap.State = StateError
		sess.snap.ErrorCode = domain.ErrorCode(err)
		sess.snap.Error = err.Error()
	case outcome != nil:
		sess.snap.State = string(outcome.State)
		out := *outcome
		sess.snap.Outcome = &out
	default:
		sess.snap.State = StateError
		sess.snap.ErrorCode = "internal"
		sess.snap.Error = "workflow finished without outcome"
	}
	for ch := range sess.subs {
		close(ch)
		delete(sess.subs, ch)
	}
}

// Snapshot returns a copy of the session.
func (s *Store) Snapshot(id string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, false
	}
	return cloneSnapshot(sess.snap), true
}

// Subscribe returns the events recorded so far plus a channel carrying the
// rest. The channel is closed when the session finishes; cancel detaches a
// listener that stops caring earlier.
func (s *Store) Subscribe(id string) (history []Event, ch <-chan Event, cancel func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, found := s.sessions[id]
	if !found {
		return nil, nil, nil, false
	}
	history = append([]Event(nil), sess.snap.Events...)
	events := make(chan Event, 16)
	if sess.done {
		close(events)
		return history, events, func() {}, true
	}
	sess.subs[events] = struct{}{}
	cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, still := sess.subs[events]; still {
			delete(sess.subs, events)
			close(events)
		}
	}
	return history, events, cancel, true
}

func (s *Store) pruneLocked() {
	cutoff := s.now().Add(-s.retain)
	for id, sess := range s.sessions {
		if sess.done && sess.snap.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func cloneSnapshot(snap Snapshot) Snapshot {
	out := snap
	out.Events = append([]Event(nil), snap.Events...)
	if snap.Outcome != nil {
		o := *snap.Outcome
		out.Outcome = &o
	}
	return out
}
