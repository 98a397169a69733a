// Package audio defines the PCM frame type that flows from the (external)
// audio source into the KWS pipeline, the VAD engine, and the capture
// buffer (spec §3).
package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// SampleRate is the fixed input sample rate in Hz. The core never resamples;
// the audio source collaborator is responsible for delivering frames already
// at this rate.
const SampleRate = 16000

// FrameSamples is the fixed number of samples per frame: 80 ms at 16 kHz.
const FrameSamples = 1280

// Frame is a fixed-size block of mono, single-precision PCM samples in
// [-1, 1]. Every frame produced by the audio source must contain exactly
// FrameSamples samples (spec §3 "PCM Frame" invariant).
type Frame struct {
	Samples [FrameSamples]float32
}

// Validator checks incoming raw sample slices against the fixed frame size
// before they are wrapped as a Frame, logging once per distinct failure mode
// rather than once per bad sample (mirrors the warn-once discipline the
// teacher's pkg/audio/convert.go FormatConverter uses for malformed PCM).
type Validator struct {
	warnedOnce sync.Once
}

// ErrWrongFrameSize is wrapped by Validate's returned error.
type ErrWrongFrameSize struct {
	Got int
}

func (e *ErrWrongFrameSize) Error() string {
	return fmt.Sprintf("audio: frame has %d samples, want %d", e.Got, FrameSamples)
}

// Validate returns a Frame built from samples, or an error if samples does
// not contain exactly FrameSamples values. The first violation is logged at
// Warn; subsequent violations in the same Validator are not re-logged.
func (v *Validator) Validate(samples []float32) (Frame, error) {
	if len(samples) != FrameSamples {
		v.warnedOnce.Do(func() {
			slog.Warn("audio: dropping malformed frame",
				"got", len(samples),
				"want", FrameSamples,
			)
		})
		return Frame{}, &ErrWrongFrameSize{Got: len(samples)}
	}
	var f Frame
	copy(f.Samples[:], samples)
	return f, nil
}

// ToInt16Clamped scales samples from [-1, 1] to the 16-bit integer range and
// clamps, per spec §4.1 step 1 ("Scale samples ... clamp").
func ToInt16Clamped(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32768
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
