package vad

import "log/slog"

// boundaryState is the Idle/Speech state machine inside the VAD engine
// (spec §4.2).
type boundaryState int

const (
	stateIdle boundaryState = iota
	stateSpeech
)

// windowDurationMs is the wall-clock duration of one WindowSamples window:
// 512 samples / 16000 Hz * 1000.
const windowDurationMs = WindowSamples * 1000 / 16000

type session struct {
	cfg     Config
	backend Backend

	buf []float32

	state         boundaryState
	elapsedMs     int64
	speechStartMs int64
	lastSpeechMs  int64

	log *slog.Logger
}

// newSession wraps backend with the spec §4.2 re-chunking and boundary
// state machine.
func newSession(backend Backend, cfg Config, log *slog.Logger) *session {
	if log == nil {
		log = slog.Default()
	}
	return &session{
		cfg:     cfg,
		backend: backend,
		buf:     make([]float32, 0, WindowSamples*2),
		log:     log,
	}
}

// ProcessFrame implements Session.
func (s *session) ProcessFrame(samples []float32) ([]Event, error) {
	s.buf = append(s.buf, samples...)

	var events []Event
	for len(s.buf) >= WindowSamples {
		window := s.buf[:WindowSamples]
		s.buf = s.buf[WindowSamples:]
		s.elapsedMs += windowDurationMs

		prob, err := s.backend.Infer(window)
		if err != nil {
			s.log.Warn("vad: chunk inference failed, skipping window", "error", err)
			continue
		}

		if ev, ok := s.transition(float64(prob)); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// transition advances the boundary state machine by one probability sample
// (spec §4.2).
func (s *session) transition(p float64) (Event, bool) {
	switch s.state {
	case stateIdle:
		if p >= s.cfg.StartThreshold {
			if err := s.backend.ResetState(); err != nil {
				s.log.Warn("vad: recurrent state reset failed", "error", err)
			}
			s.state = stateSpeech
			s.speechStartMs = s.elapsedMs
			s.lastSpeechMs = s.elapsedMs
			return Event{Type: EventSpeechStart, Probability: p}, true
		}
	case stateSpeech:
		if p >= s.cfg.EndThreshold {
			s.lastSpeechMs = s.elapsedMs
			return Event{}, false
		}
		silence := s.elapsedMs - s.lastSpeechMs
		spoken := s.elapsedMs - s.speechStartMs
		if silence >= int64(s.cfg.SilenceDurationMs) && spoken >= int64(s.cfg.MinSpeechDurationMs) {
			s.state = stateIdle
			return Event{Type: EventSpeechEnd, Probability: p}, true
		}
	}
	return Event{}, false
}

// Reset implements Session: clears the chunk buffer and returns to Idle.
func (s *session) Reset() error {
	s.buf = s.buf[:0]
	s.state = stateIdle
	s.elapsedMs = 0
	s.speechStartMs = 0
	s.lastSpeechMs = 0
	return s.backend.ResetState()
}

// Close implements Session.
func (s *session) Close() error {
	return s.backend.Close()
}

var _ Session = (*session)(nil)
