package onnxref

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/errgroup"

	"github.com/BlaiseCz/VoicePage/internal/asr"
)

const (
	sampleRate    = 16000
	encoderHidden = 384 // matches a "tiny"-class encoder/decoder pair
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Config carries the on-disk model artifacts and decode limits (spec §6
// "Configuration": ASR backend selection, model paths, maxTokens).
type Config struct {
	LibPath       string
	EncoderPath   string
	DecoderPath   string
	VocabPath     string
	LanguageToken string
	MaxTokens     int
}

// DefaultMaxTokens is the spec-mandated greedy-decode cap.
const DefaultMaxTokens = 128

// Engine implements asr.Engine using separately-loaded ONNX encoder and
// decoder sessions plus a greedy autoregressive decode loop (spec §4.3).
type Engine struct {
	cfg   Config
	vocab *Vocab

	encoder *ort.AdvancedSession
	encIn   *ort.Tensor[float32] // [1, 80, 3000]
	encOut  *ort.Tensor[float32] // [1, 1500, H]

	decoder *ort.AdvancedSession
}

// New returns an Engine configured by cfg. Call Init before use.
func New(cfg Config) *Engine {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Engine{cfg: cfg}
}

// Init loads the vocabulary and both ONNX sessions concurrently (spec
// SPEC_FULL §5: encoder and decoder session construction is independent and
// I/O-bound, joined with errgroup). Failure here is fatal and should
// surface as ASR_INIT_FAILED.
func (e *Engine) Init(ctx context.Context) error {
	ortInitOnce.Do(func() {
		if e.cfg.LibPath != "" {
			ort.SetSharedLibraryPath(e.cfg.LibPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return fmt.Errorf("onnxref: initialize onnx runtime: %w", ortInitErr)
	}

	vocab, err := LoadVocab(e.cfg.VocabPath, e.cfg.LanguageToken)
	if err != nil {
		return fmt.Errorf("onnxref: %w", err)
	}
	e.vocab = vocab

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.initEncoder()
	})
	g.Go(func() error {
		return e.initDecoder()
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("onnxref: %w", err)
	}
	return nil
}

func (e *Engine) initEncoder() error {
	encIn, err := ort.NewEmptyTensor[float32](ort.NewShape(1, melChannels, targetFrames))
	if err != nil {
		return fmt.Errorf("create encoder input tensor: %w", err)
	}
	encOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, targetFrames/2, encoderHidden))
	if err != nil {
		encIn.Destroy()
		return fmt.Errorf("create encoder output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		e.cfg.EncoderPath,
		[]string{"mel"},
		[]string{"hidden_states"},
		[]ort.Value{encIn},
		[]ort.Value{encOut},
		nil,
	)
	if err != nil {
		encIn.Destroy()
		encOut.Destroy()
		return fmt.Errorf("create encoder session: %w", err)
	}
	e.encoder, e.encIn, e.encOut = session, encIn, encOut
	return nil
}

func (e *Engine) initDecoder() error {
	session, err := ort.NewDynamicAdvancedSession(
		e.cfg.DecoderPath,
		[]string{"tokens", "encoder_hidden_states"},
		[]string{"logits"},
		nil,
	)
	if err != nil {
		return fmt.Errorf("create decoder session: %w", err)
	}
	e.decoder = session
	return nil
}

// Transcribe runs the encoder once, then greedily decodes tokens one at a
// time until the end-of-transcript token or maxTokens (spec §4.3 steps 3-5).
func (e *Engine) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("onnxref: %w", err)
	}

	mel := ComputeLogMel(samples, sampleRate)
	melFlat := e.encIn.GetData()
	for ch := 0; ch < melChannels; ch++ {
		copy(melFlat[ch*targetFrames:(ch+1)*targetFrames], mel[ch])
	}

	if err := e.encoder.Run(); err != nil {
		return "", fmt.Errorf("onnxref: encoder inference: %w", err)
	}

	hidden := append([]float32(nil), e.encOut.GetData()...)
	hiddenShape := ort.NewShape(1, targetFrames/2, encoderHidden)
	hiddenTensor, err := ort.NewTensor(hiddenShape, hidden)
	if err != nil {
		return "", fmt.Errorf("onnxref: wrap encoder output: %w", err)
	}
	defer hiddenTensor.Destroy()

	tokens := append([]int64(nil), e.vocab.Prompt()...)

	for step := 0; step < e.cfg.MaxTokens; step++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("onnxref: %w", err)
		}

		tokTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(tokens))), append([]int64(nil), tokens...))
		if err != nil {
			return "", fmt.Errorf("onnxref: build token tensor: %w", err)
		}

		outputs := []ort.Value{nil}
		err = e.decoder.Run([]ort.Value{tokTensor, hiddenTensor}, outputs)
		tokTensor.Destroy()
		if err != nil {
			return "", fmt.Errorf("onnxref: decoder inference: %w", err)
		}

		logits, ok := outputs[0].(*ort.Tensor[float32])
		if !ok {
			return "", fmt.Errorf("onnxref: unexpected decoder output type")
		}
		next := argmaxLastStep(logits.GetData(), len(tokens))
		logits.Destroy()

		if next == int64(e.vocab.EndOfTranscript) {
			break
		}
		tokens = append(tokens, next)
	}

	return e.vocab.Decode(tokens[len(e.vocab.Prompt()):]), nil
}

// argmaxLastStep returns the argmax over the vocabulary dimension at the
// final decoded position of a [1, seqLen, vocabSize] logits tensor.
func argmaxLastStep(logits []float32, seqLen int) int64 {
	if seqLen == 0 || len(logits) == 0 {
		return -1
	}
	vocabSize := len(logits) / seqLen
	start := (seqLen - 1) * vocabSize
	best, bestIdx := logits[start], 0
	for i := 1; i < vocabSize; i++ {
		if v := logits[start+i]; v > best {
			best, bestIdx = v, i
		}
	}
	return int64(bestIdx)
}

func (e *Engine) Close() error {
	if e.decoder != nil {
		e.decoder.Destroy()
		e.decoder = nil
	}
	if e.encoder != nil {
		e.encoder.Destroy()
		e.encoder = nil
	}
	if e.encIn != nil {
		e.encIn.Destroy()
		e.encIn = nil
	}
	if e.encOut != nil {
		e.encOut.Destroy()
		e.encOut = nil
	}
	return nil
}

var _ asr.Engine = (*Engine)(nil)
