// Package kws implements the keyword-spotting pipeline (spec §4.1): a
// three-stage streaming topology (mel -> embedding -> per-keyword
// classifier) over overlapping windows of an incoming 80ms PCM frame
// stream, with per-keyword cooldown and unconditional raw-score publishing
// for UI metering.
//
// Tensor-session mechanics are grounded on nupi's SileroEngine: package-level
// sync.Once environment init, reused input/output tensors, Destroy() on
// Close (spec SPEC_FULL §4.1). The three stages are
// represented as narrow Backend interfaces so the pipeline's framing and
// cooldown logic is identical under the ONNX-backed native build and the
// deterministic stub build.
package kws

import "log/slog"

// rawAudioRingSilence is the initial silence-padding sample count (30ms
// context, spec §4.1).
const rawAudioRingSilence = 480

// rawAudioRingCap caps the raw-audio ring at 2 seconds of 16kHz audio.
const rawAudioRingCap = 32000

const (
	melRingCap        = 100
	melFrameWidth     = 32
	melWindowFrames   = 76
	embedDim          = 96
	embedRingCap      = 120
	embedWindowFrames = 16
)

// DefaultCooldownMs is the spec-mandated default per-keyword cooldown.
const DefaultCooldownMs = 1500

// WarmUpFrames is the number of silent frames that must be pushed through
// the pipeline before live audio to pre-fill the mel and embedding rings
// (spec §4.1 "Warm-up").
const WarmUpFrames = 15

// MelBackend runs the mel-spectrogram stage. input is the most recent
// 1280+480 raw samples; output is zero or more new mel frames, each
// melFrameWidth wide, in chronological order.
type MelBackend interface {
	Infer(input []float32) ([][]float32, error)
	Close() error
}

// EmbeddingBackend runs the embedding stage over a window of melWindowFrames
// mel frames shaped [1, 76, 32, 1], returning one embedDim-dimensional
// vector.
type EmbeddingBackend interface {
	Infer(window [][]float32) ([]float32, error)
	Close() error
}

// ClassifierBackend scores one keyword over a window of embedWindowFrames
// embedding vectors shaped [1, 16, 96].
type ClassifierBackend interface {
	Infer(window [][]float32) (float32, error)
	Close() error
}

// KeywordConfig is one loaded keyword's threshold and classifier.
type KeywordConfig struct {
	Keyword    string
	Threshold  float64
	CooldownMs int64
	Classifier ClassifierBackend
}

// Detection is one fired keyword callback (spec §4.1 step 5).
type Detection struct {
	Keyword string
	Score   float64
}

// Callback receives fired keyword detections.
type Callback func(Detection)

// RawScoreObserver receives every keyword's raw score on every classifier
// run, regardless of threshold, for live UI metering (spec §4.1 step 4).
type RawScoreObserver func(keyword string, score float64)

// Engine is the capability internal/engine depends on; Pipeline is the sole
// concrete implementation, but the interface lets engine tests substitute
// kwsmock.Engine.
type Engine interface {
	// ProcessFrame feeds one FrameSamples-length PCM frame through all
	// three stages, firing Callback for any keyword whose score clears its
	// threshold and cooldown.
	ProcessFrame(samples []float32) error

	// WarmUp pushes WarmUpFrames silent frames through the pipeline to
	// pre-fill the mel and embedding rings (spec §4.1 "Warm-up").
	WarmUp() error

	// Stop clears all three rings.
	Stop()

	// Close releases the mel, embedding, and every classifier session.
	Close() error
}

var defaultLogger = slog.Default()
