// Package call manages the lifecycle of active call sessions. Each session
// owns exactly one [voicemail.Classifier] and the metadata needed to report
// on the call; the [Manager] tracks sessions by call ID and keeps the
// active-call gauge honest.
package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/ringline/ringline/internal/observe"
	"github.com/ringline/ringline/pkg/voicemail"
)

// ErrCallActive is returned by [Manager.Begin] when a session with the same
// call ID already exists.
var ErrCallActive = errors.New("call: session already active")

// ErrNoSuchCall is returned when a call ID does not match any active session.
var ErrNoSuchCall = errors.New("call: no such session")

// Info is a point-in-time snapshot of a session, safe to hand out across
// goroutines and to serialise for the REST surface.
type Info struct {
	// CallID is the caller-supplied identifier for this call attempt.
	CallID string `json:"call_id"`

	// StartedAt is when the session was created.
	StartedAt time.Time `json:"started_at"`

	// State is the classifier state at snapshot time.
	State voicemail.State `json:"state"`

	// Confidence is the most recent voicemail-likelihood estimate.
	Confidence float64 `json:"confidence"`

	// Fragments is the number of transcript fragments accepted so far.
	Fragments int `json:"fragments"`

	// MessageLeft reports whether a message was delivered on this call.
	MessageLeft bool `json:"message_left"`
}

// Session is the per-call unit of work. It feeds transcript fragments to its
// classifier and records the resulting decisions and state transitions.
//
// The classifier itself is single-goroutine by contract; the session's mutex
// enforces that contract even when fragments arrive over both the WebSocket
// stream and the REST endpoint.
type Session struct {
	callID    string
	startedAt time.Time
	metrics   *observe.Metrics

	mu         sync.Mutex
	classifier *voicemail.Classifier
	fragments  int
}

// newSession creates a session with a fresh classifier.
func newSession(callID string, metrics *observe.Metrics) *Session {
	return &Session{
		callID:     callID,
		startedAt:  time.Now().UTC(),
		metrics:    metrics,
		classifier: voicemail.New(),
	}
}

// CallID returns the caller-supplied identifier for this session.
func (s *Session) CallID() string { return s.callID }

// HandleFragment feeds one transcript fragment to the classifier and returns
// the classification result. Invalid fragments are rejected with
// [voicemail.ErrInvalidInput] and leave the session unchanged. Once the
// classifier reaches a terminal state further fragments echo that state.
func (s *Session) HandleFragment(ctx context.Context, fragment string) (voicemail.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.classifier.State()
	start := time.Now()

	res, err := s.classifier.Classify(fragment)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFragmentError(ctx, "invalid_input")
		}
		return voicemail.Result{}, fmt.Errorf("call: classify fragment for %s: %w", s.callID, err)
	}
	s.fragments++

	if s.metrics != nil {
		s.metrics.ClassifyDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(observe.Attr("state", string(res.State))))
		s.metrics.RecordDecision(ctx, string(res.State), string(res.Action))
		if res.State != before {
			s.metrics.RecordTransition(ctx, string(before), string(res.State))
		}
	}

	if res.State != before {
		observe.Logger(ctx).Info("call state transition",
			"call_id", s.callID,
			"from", before,
			"to", res.State,
			"confidence", res.Confidence,
			"action", res.Action,
		)
	}

	return res, nil
}

// Info returns a snapshot of the session's current state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		CallID:      s.callID,
		StartedAt:   s.startedAt,
		State:       s.classifier.State(),
		Confidence:  s.classifier.Confidence(),
		Fragments:   s.fragments,
		MessageLeft: s.classifier.MessageLeft(),
	}
}

// Manager tracks active call sessions by call ID.
// All exported methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	metrics  *observe.Metrics
}

// NewManager creates an empty Manager. A nil metrics disables instrumentation
// for the manager and every session it creates.
func NewManager(metrics *observe.Metrics) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		metrics:  metrics,
	}
}

// Begin creates a session for callID. Returns [ErrCallActive] if a session
// with that ID already exists.
func (m *Manager) Begin(ctx context.Context, callID string) (*Session, error) {
	if callID == "" {
		return nil, fmt.Errorf("call: call ID must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[callID]; ok {
		return nil, fmt.Errorf("%w (id=%s)", ErrCallActive, callID)
	}

	s := newSession(callID, m.metrics)
	m.sessions[callID] = s

	if m.metrics != nil {
		m.metrics.ActiveCalls.Add(ctx, 1)
	}
	slog.Info("call session started", "call_id", callID, "active", len(m.sessions))

	return s, nil
}

// Get returns the session for callID, or [ErrNoSuchCall].
func (m *Manager) Get(callID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[callID]
	if !ok {
		return nil, fmt.Errorf("%w (id=%s)", ErrNoSuchCall, callID)
	}
	return s, nil
}

// End discards the session for callID. Returns [ErrNoSuchCall] if no such
// session exists.
func (m *Manager) End(ctx context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[callID]
	if !ok {
		return fmt.Errorf("%w (id=%s)", ErrNoSuchCall, callID)
	}
	delete(m.sessions, callID)

	if m.metrics != nil {
		m.metrics.ActiveCalls.Add(ctx, -1)
	}

	info := s.Info()
	slog.Info("call session ended",
		"call_id", callID,
		"state", info.State,
		"fragments", info.Fragments,
		"message_left", info.MessageLeft,
		"active", len(m.sessions),
	)

	return nil
}

// List returns snapshots of all active sessions, sorted by call ID for
// stable output.
func (m *Manager) List() []Info {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(a.CallID, b.CallID)
	})
	return infos
}

// ActiveCount returns the number of active sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
