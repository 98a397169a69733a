//go:build onnx

package kws

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/errgroup"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initONNXRuntime(libPath string) error {
	ortInitOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// NativeAvailable reports that the ONNX-backed KWS backends are compiled in.
func NativeAvailable() bool { return true }

// ModelPaths names the on-disk ONNX artifacts for the three KWS stages
// (spec §6 "Configuration": KWS model paths).
type ModelPaths struct {
	LibPath        string
	MelPath        string
	EmbeddingPath  string
	ClassifierPath map[string]string // keyword -> classifier model path
}

// LoadNativeBackends loads the mel, embedding, and every per-keyword
// classifier session concurrently (SPEC_FULL §5: independent, I/O-bound
// session construction joined with errgroup), following nupi's SileroEngine
// tensor-reuse discipline for each.
func LoadNativeBackends(ctx context.Context, paths ModelPaths) (MelBackend, EmbeddingBackend, map[string]ClassifierBackend, error) {
	if err := initONNXRuntime(paths.LibPath); err != nil {
		return nil, nil, nil, fmt.Errorf("kws: initialize onnx runtime: %w", err)
	}

	var (
		mel   MelBackend
		embed EmbeddingBackend
		mu    sync.Mutex
		clfs  = make(map[string]ClassifierBackend, len(paths.ClassifierPath))
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := newONNXMelBackend(paths.MelPath)
		if err != nil {
			return fmt.Errorf("mel stage: %w", err)
		}
		mel = b
		return nil
	})
	g.Go(func() error {
		b, err := newONNXEmbeddingBackend(paths.EmbeddingPath)
		if err != nil {
			return fmt.Errorf("embedding stage: %w", err)
		}
		embed = b
		return nil
	})
	for keyword, path := range paths.ClassifierPath {
		keyword, path := keyword, path
		g.Go(func() error {
			b, err := newONNXClassifierBackend(path)
			if err != nil {
				return fmt.Errorf("classifier %q: %w", keyword, err)
			}
			mu.Lock()
			clfs[keyword] = b
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("kws: %w", err)
	}
	return mel, embed, clfs, nil
}

// --- mel stage ---

type onnxMelBackend struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func newONNXMelBackend(path string) (*onnxMelBackend, error) {
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1280+rawAudioRingSilence))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 5, melFrameWidth))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(path,
		[]string{"input"}, []string{"output"},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &onnxMelBackend{session: session, input: input, output: output}, nil
}

func (b *onnxMelBackend) Infer(input []float32) ([][]float32, error) {
	copy(b.input.GetData(), input)
	if err := b.session.Run(); err != nil {
		return nil, fmt.Errorf("kws: mel inference: %w", err)
	}
	data := b.output.GetData()
	nFrames := len(data) / melFrameWidth
	out := make([][]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		frame := make([]float32, melFrameWidth)
		copy(frame, data[i*melFrameWidth:(i+1)*melFrameWidth])
		out[i] = frame
	}
	return out, nil
}

func (b *onnxMelBackend) Close() error {
	b.session.Destroy()
	b.input.Destroy()
	b.output.Destroy()
	return nil
}

// --- embedding stage ---

type onnxEmbeddingBackend struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func newONNXEmbeddingBackend(path string) (*onnxEmbeddingBackend, error) {
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, melWindowFrames, melFrameWidth, 1))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, embedDim))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(path,
		[]string{"input"}, []string{"output"},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &onnxEmbeddingBackend{session: session, input: input, output: output}, nil
}

func (b *onnxEmbeddingBackend) Infer(window [][]float32) ([]float32, error) {
	data := b.input.GetData()
	for i, frame := range window {
		copy(data[i*melFrameWidth:(i+1)*melFrameWidth], frame)
	}
	if err := b.session.Run(); err != nil {
		return nil, fmt.Errorf("kws: embedding inference: %w", err)
	}
	out := make([]float32, embedDim)
	copy(out, b.output.GetData())
	return out, nil
}

func (b *onnxEmbeddingBackend) Close() error {
	b.session.Destroy()
	b.input.Destroy()
	b.output.Destroy()
	return nil
}

// --- classifier stage ---

type onnxClassifierBackend struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func newONNXClassifierBackend(path string) (*onnxClassifierBackend, error) {
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, embedWindowFrames, embedDim))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(path,
		[]string{"input"}, []string{"output"},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &onnxClassifierBackend{session: session, input: input, output: output}, nil
}

func (b *onnxClassifierBackend) Infer(window [][]float32) (float32, error) {
	data := b.input.GetData()
	for i, frame := range window {
		copy(data[i*embedDim:(i+1)*embedDim], frame)
	}
	if err := b.session.Run(); err != nil {
		return 0, fmt.Errorf("kws: classifier inference: %w", err)
	}
	return b.output.GetData()[0], nil
}

func (b *onnxClassifierBackend) Close() error {
	b.session.Destroy()
	b.input.Destroy()
	b.output.Destroy()
	return nil
}

var (
	_ MelBackend        = (*onnxMelBackend)(nil)
	_ EmbeddingBackend  = (*onnxEmbeddingBackend)(nil)
	_ ClassifierBackend = (*onnxClassifierBackend)(nil)
)
