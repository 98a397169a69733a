// Package asr defines the pluggable transcription capability consumed by the
// engine (spec §4.3): transform one captured utterance into one transcript
// string. Two backends are provided: whispercpp (a CGO binding, the
// production path) and onnxref (a reference encoder/decoder implementation
// run entirely through ONNX Runtime).
package asr

import "context"

// Engine transcribes a single captured utterance. Implementations must
// return an empty string immediately for empty input (spec §4.3) and must
// not retry internally.
type Engine interface {
	// Init loads models and/or opens sessions. Failure is fatal and should
	// surface as ASR_INIT_FAILED to the caller.
	Init(ctx context.Context) error

	// Transcribe converts samples (mono float32 PCM at 16kHz) into text.
	// Failure here should surface as ASR_FAILED and abort the in-flight
	// request.
	Transcribe(ctx context.Context, samples []float32) (string, error)

	// Close releases all sessions/model resources.
	Close() error
}
