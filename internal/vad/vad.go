// Package vad converts a stream of 80ms PCM frames into speech-start and
// speech-end boundary events during an active capture window (spec §4.2).
// The package is a narrow provider-interface (Engine -> Session) in the same
// shape as glyphoxa's pkg/provider/vad, with the session owning both the
// 512-sample re-chunking and the Idle/Speech boundary state machine so every
// backend gets identical boundary semantics regardless of how it computes a
// frame's speech probability.
package vad

// WindowSamples is the VAD model's native window size: 512 samples (32ms at
// 16kHz), per spec §4.2.
const WindowSamples = 512

// StateSize is the recurrent state tensor's per-layer hidden dimension.
// The full state tensor shape is [2, 1, StateSize].
const StateSize = 128

// Config carries the boundary-detection thresholds (spec §4.2, §6
// "Configuration"); defaults match the spec's stated values.
type Config struct {
	StartThreshold      float64
	EndThreshold        float64
	SilenceDurationMs   int
	MinSpeechDurationMs int
}

// DefaultConfig returns the spec-mandated default thresholds.
func DefaultConfig() Config {
	return Config{
		StartThreshold:      0.5,
		EndThreshold:        0.35,
		SilenceDurationMs:   1000,
		MinSpeechDurationMs: 250,
	}
}

// EventType discriminates the two boundary callbacks the engine emits.
type EventType string

const (
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
)

// Event is one boundary callback, carrying the probability that triggered it.
type Event struct {
	Type        EventType
	Probability float64
}

// Session processes one audio source frame at a time and reports zero or
// more boundary events (a single 80ms frame may complete more than one
// 32ms window). ProcessFrame must never be called concurrently with itself.
type Session interface {
	ProcessFrame(samples []float32) ([]Event, error)
	Reset() error
	Close() error
}

// Engine constructs Sessions bound to a particular model backend.
type Engine interface {
	NewSession(cfg Config) (Session, error)
}

// Backend is the narrow per-window inference capability a concrete engine
// implements; Session (in session.go) owns chunking and the state machine so
// every Backend only has to answer "what's the speech probability of this
// exact 512-sample window".
type Backend interface {
	// Infer runs one inference over exactly WindowSamples samples.
	Infer(window []float32) (float32, error)

	// ResetState reinitializes the recurrent state tensor to zeros. Called
	// by the Session on every Idle -> Speech transition (spec §4.2 "On
	// start-detection the engine must re-initialize its recurrent state").
	ResetState() error

	// Close releases backend resources.
	Close() error
}
