// Package vadmock provides struct-based test doubles for internal/vad's
// Engine and Session interfaces, mirroring glyphoxa's hand-written
// pkg/provider/vad/mock package: no mocking framework, recorded calls for
// assertions.
package vadmock

import (
	"sync"

	"github.com/BlaiseCz/VoicePage/internal/vad"
)

// NewSessionCall records a single invocation of Engine.NewSession.
type NewSessionCall struct {
	Cfg vad.Config
}

// Engine is a mock implementation of vad.Engine.
type Engine struct {
	mu sync.Mutex

	// Session is returned by NewSession. If nil, a fresh default Session is
	// returned instead.
	Session vad.Session

	// NewSessionErr, if non-nil, is returned as the error from NewSession.
	NewSessionErr error

	NewSessionCalls []NewSessionCall
}

func (e *Engine) NewSession(cfg vad.Config) (vad.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.NewSessionCalls = append(e.NewSessionCalls, NewSessionCall{Cfg: cfg})
	if e.NewSessionErr != nil {
		return nil, e.NewSessionErr
	}
	if e.Session != nil {
		return e.Session, nil
	}
	return &Session{}, nil
}

// Reset clears all recorded calls. Thread-safe.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.NewSessionCalls = nil
}

var _ vad.Engine = (*Engine)(nil)

// ProcessFrameCall records a single invocation of Session.ProcessFrame.
type ProcessFrameCall struct {
	Samples []float32
}

// Session is a mock implementation of vad.Session.
type Session struct {
	mu sync.Mutex

	// EventsResult is returned by every ProcessFrame call.
	EventsResult []vad.Event

	// ProcessFrameErr, if non-nil, is returned by every ProcessFrame call.
	ProcessFrameErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	ProcessFrameCalls []ProcessFrameCall
	ResetCallCount    int
	CloseCallCount    int
}

func (s *Session) ProcessFrame(samples []float32) ([]vad.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	s.ProcessFrameCalls = append(s.ProcessFrameCalls, ProcessFrameCall{Samples: cp})
	return s.EventsResult, s.ProcessFrameErr
}

func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResetCallCount++
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return s.CloseErr
}

// ResetCalls clears all recorded call history. Thread-safe.
func (s *Session) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ProcessFrameCalls = nil
	s.ResetCallCount = 0
	s.CloseCallCount = 0
}

var _ vad.Session = (*Session)(nil)
