// Package whispercpp implements internal/asr.Engine using the whisper.cpp
// CGO bindings, grounded on glyphoxa's pkg/provider/stt/whisper NativeProvider.
// Unlike the teacher's streaming session (which runs its own RMS-based
// silence-detection loop over a live audio channel), this engine receives an
// already-segmented utterance from internal/vad and transcribes it directly:
// there is no buffering or silence detection left to do here.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/BlaiseCz/VoicePage/internal/asr"
)

const defaultLanguage = "en"

// Engine loads a whisper.cpp model once and creates a fresh context per
// Transcribe call, following the teacher's "model shared, context per call"
// discipline (whisper.cpp contexts are not safe for concurrent use, the
// model is).
type Engine struct {
	modelPath string
	language  string

	model whisperlib.Model
}

// Option configures an Engine before Init.
type Option func(*Engine)

// WithLanguage sets the BCP-47 language code passed to whisper.cpp.
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

// New returns an Engine that will load modelPath on Init.
func New(modelPath string, opts ...Option) *Engine {
	e := &Engine{modelPath: modelPath, language: defaultLanguage}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Init(ctx context.Context) error {
	if e.modelPath == "" {
		return errors.New("whispercpp: model path must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("whispercpp: context already cancelled: %w", err)
	}
	model, err := whisperlib.New(e.modelPath)
	if err != nil {
		return fmt.Errorf("whispercpp: load model %q: %w", e.modelPath, err)
	}
	e.model = model
	return nil
}

// Transcribe runs one whisper.cpp inference over samples and returns the
// concatenated segment text. Empty input returns "" immediately (spec §4.3).
func (e *Engine) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("whispercpp: %w", err)
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whispercpp: create context: %w", err)
	}
	if err := wctx.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("whispercpp: set language %q: %w", e.language, err)
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whispercpp: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whispercpp: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

func (e *Engine) Close() error {
	if e.model != nil {
		err := e.model.Close()
		e.model = nil
		return err
	}
	return nil
}

var _ asr.Engine = (*Engine)(nil)
