// Package asrmock provides a struct-based test double for asr.Engine,
// mirroring glyphoxa's hand-written pkg/provider/*/mock packages.
package asrmock

import (
	"context"
	"sync"

	"github.com/BlaiseCz/VoicePage/internal/asr"
)

// TranscribeCall records a single invocation of Engine.Transcribe.
type TranscribeCall struct {
	Samples []float32
}

// Engine is a mock implementation of asr.Engine.
type Engine struct {
	mu sync.Mutex

	// TranscriptResult is returned by every Transcribe call whose samples
	// are non-empty.
	TranscriptResult string

	InitErr       error
	TranscribeErr error
	CloseErr      error

	InitCallCount   int
	TranscribeCalls []TranscribeCall
	CloseCallCount  int
}

var _ asr.Engine = (*Engine)(nil)

func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.InitCallCount++
	return e.InitErr
}

func (e *Engine) Transcribe(ctx context.Context, samples []float32) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	e.TranscribeCalls = append(e.TranscribeCalls, TranscribeCall{Samples: cp})
	if e.TranscribeErr != nil {
		return "", e.TranscribeErr
	}
	if len(samples) == 0 {
		return "", nil
	}
	return e.TranscriptResult, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CloseCallCount++
	return e.CloseErr
}

// ResetCalls clears all recorded call history. Thread-safe.
func (e *Engine) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.InitCallCount = 0
	e.TranscribeCalls = nil
	e.CloseCallCount = 0
}
