// Package kwsmock provides a struct-based test double for internal/kws's
// Engine interface, mirroring vadmock/asrmock: no mocking framework,
// recorded calls for assertions.
package kwsmock

import (
	"sync"

	"github.com/BlaiseCz/VoicePage/internal/kws"
)

// ProcessFrameCall records a single invocation of Engine.ProcessFrame.
type ProcessFrameCall struct {
	Samples []float32
}

// Engine is a mock implementation of kws.Engine.
type Engine struct {
	mu sync.Mutex

	// onDetect is the callback passed to NewEngine. ProcessFrame never
	// invokes it; detections are driven only through Fire.
	onDetect kws.Callback

	// ProcessFrameErr, if non-nil, is returned by every ProcessFrame call.
	ProcessFrameErr error

	// WarmUpErr, if non-nil, is returned by WarmUp.
	WarmUpErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	ProcessFrameCalls []ProcessFrameCall
	WarmUpCallCount   int
	StopCallCount     int
	CloseCallCount    int
}

// NewEngine constructs an Engine that invokes onDetect whenever the caller
// invokes Fire.
func NewEngine(onDetect kws.Callback) *Engine {
	return &Engine{onDetect: onDetect}
}

// Fire synchronously invokes the registered detection callback, simulating
// a keyword firing out of ProcessFrame.
func (e *Engine) Fire(d kws.Detection) {
	if e.onDetect != nil {
		e.onDetect(d)
	}
}

func (e *Engine) ProcessFrame(samples []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	e.ProcessFrameCalls = append(e.ProcessFrameCalls, ProcessFrameCall{Samples: cp})
	return e.ProcessFrameErr
}

func (e *Engine) WarmUp() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.WarmUpCallCount++
	return e.WarmUpErr
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StopCallCount++
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
	e.ProcessFrameCalls = nil
	e.WarmUpCallCount = 0
	e.StopCallCount = 0
	e.CloseCallCount = 0
}

var _ kws.Engine = (*Engine)(nil)
