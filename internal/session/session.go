// Package session implements the session lifecycle state machine: unInitialized → initialized → shuttingDown → terminated, and
// which JSON-RPC methods are valid in each state.
package session

import (
	"sync"
	"time"

	"github.com/macmcp/macmcp/internal/toolerr"
)

// State is one of the four session lifecycle states.
type State int

const (
	UnInitialized State = iota
	Initialized
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case UnInitialized:
		return "unInitialized"
	case Initialized:
		return "initialized"
	case ShuttingDown:
		return "shuttingDown"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session tracks lifecycle state for one connected JSON-RPC client.
type Session struct {
	mu sync.Mutex
	state State
	lastPing time.Time
}

func New() *Session {
	return &Session{state: UnInitialized}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize transitions unInitialized → initialized. Calling it again
// (a duplicate initialize) is rejected rather than silently accepted,
// since the method table below already requires initialize to run
// exactly once before any other method.
func (s *Session) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != UnInitialized {
		return toolerr.New(toolerr.InternalError, "session already initialized (state=%s)", s.state)
	}
	s.state = Initialized
	return nil
}

// BeginShutdown transitions initialized → shuttingDown. The caller is
// responsible for draining in-flight requests before calling Terminate.
func (s *Session) BeginShutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Initialized {
		return toolerr.New(toolerr.InternalError, "shutdown requested from state=%s", s.state)
	}
	s.state = ShuttingDown
	return nil
}

// Terminate transitions shuttingDown → terminated. Safe to call more than
// once (idempotent terminal state).
func (s *Session) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Terminated
}

// RecordPing stamps the current time as the most recent keepalive ping and
// returns the gap since the previous one (zero for the first ping).
func (s *Session) RecordPing() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var gap time.Duration
	if !s.lastPing.IsZero() {
		gap = now.Sub(s.lastPing)
	}
	s.lastPing = now
	return gap
}

// methodsByState enumerates which JSON-RPC methods are valid per state.
// Notifications (requests without an id, which the transport filters out
// before this table is consulted) are not part of this table — they never
// receive a response and are not subject to lifecycle gating.
var methodsByState = map[State]map[string]bool{
	UnInitialized: {
		"initialize": true,
		"ping": true,
	},
	Initialized: {
		"initialize": false, // explicitly rejected: already initialized
		"shutdown": true,
		"tools/list": true,
		"tools/call": true,
		"resources/list": true,
		"resources/read": true,
		"resources/templates/list": true,
		"ping": true,
	},
	ShuttingDown: {
		// In-flight requests finish; no new request is accepted except a
		// repeated shutdown (idempotent) and ping (keepalive during drain).
		"shutdown": true,
		"ping": true,
	},
	Terminated: {},
}

// Allows reports whether method may run in the session's current state.
func (s *Session) Allows(method string) bool {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	allowed, ok := methodsByState[st][method]
	return ok && allowed
}

// CheckMethod returns a toolerr.Error describing why method is not valid
// in the session's current state, or nil if it is valid.
func (s *Session) CheckMethod(method string) error {
	if s.Allows(method) {
		return nil
	}
	st := s.State()
	if st == UnInitialized && method != "initialize" {
		return toolerr.New(toolerr.InvalidScope, "method %q requires initialize first", method)
	}
	if st == ShuttingDown || st == Terminated {
		return toolerr.New(toolerr.InvalidScope, "method %q rejected: session is %s", method, st)
	}
	return toolerr.New(toolerr.InvalidScope, "method %q not valid in state %s", method, st)
}
