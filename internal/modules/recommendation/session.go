package recommendation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

// State is the position of a generation run. States only move forward.
type State int

const (
	StateStarted State = iota
	StateClearing
	StateGenerating
	StateParsing
	StateValidating
	StatePersisting
	StateCompleted
	StateFailed
)

var stateNames = [...]string{"started", "clearing", "generating", "parsing", "validating", "persisting", "completed", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }

type EventType string

const (
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one message on the progress stream.
type Event struct {
	Type    EventType
	Message string
	Current int
	Total   int
	Count   int
}

func (e Event) Terminal() bool { return e.Type == EventComplete || e.Type == EventError }

func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventProgress:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Current int       `json:"current"`
			Total   int       `json:"total"`
			Message string    `json:"message"`
		}{e.Type, e.Current, e.Total, e.Message})
	case EventComplete:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
			Count   int       `json:"count"`
		}{e.Type, e.Message, e.Count})
	default:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{e.Type, e.Message})
	}
}

// EventSink is the client-facing end of a session.
type EventSink interface {
	Send(Event) error
	Close() error
}

var ErrInvalidTransition = errors.New("invalid session transition")

const msgInterrupted = "Recommendation generation ended unexpectedly"

// Session sequences the events of one run. It guarantees at most one
// terminal event, always last, and closes the sink exactly once.
type Session struct {
	mu       sync.Mutex
	sink     EventSink
	log      *logger.Logger
	state    State
	detached bool
	closed   bool
	observer func(Event)
}

func NewSession(sink EventSink, log *logger.Logger) *Session {
	return &Session{sink: sink, log: log, state: StateStarted}
}

// Observe registers a callback invoked for every event emitted, after it has
// been handed to the sink.
func (s *Session) Observe(fn func(Event)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Advance moves to a later non-terminal state.
func (s *Session) Advance(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next.Terminal() || next <= s.state || s.state.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
	}
	s.log.Debug("Recommendation run state", "from", s.state.String(), "to", next.String())
	s.state = next
	return nil
}

func (s *Session) Status(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.emitLocked(Event{Type: EventStatus, Message: msg})
}

func (s *Session) Progress(current, total int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePersisting {
		return
	}
	s.emitLocked(Event{Type: EventProgress, Current: current, Total: total, Message: msg})
}

// Complete emits the success event. It is a no-op once the run is terminal.
func (s *Session) Complete(count int, msg string) {
	s.finish(StateCompleted, Event{Type: EventComplete, Message: msg, Count: count})
}

// Fail emits the error event. It is a no-op once the run is terminal.
func (s *Session) Fail(msg string) {
	s.finish(StateFailed, Event{Type: EventError, Message: msg})
}

func (s *Session) finish(state State, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.log.Debug("Recommendation run state", "from", s.state.String(), "to", state.String())
	s.state = state
	s.emitLocked(ev)
}

// Close terminates the stream. A run that never reached a terminal state is
// failed first so the client always sees a final event.
func (s *Session) Close() {
	s.Fail(msgInterrupted)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if err := s.sink.Close(); err != nil {
		s.log.Debug("Closing progress stream failed", "error", err)
	}
}

func (s *Session) emitLocked(ev Event) {
	if s.closed {
		return
	}
	if !s.detached {
		if err := s.sink.Send(ev); err != nil {
			// the client went away; the run itself keeps going
			s.detached = true
			s.log.Warn("Progress stream detached", "error", err, "event", string(ev.Type))
		}
	}
	if s.observer != nil {
		s.observer(ev)
	}
}
