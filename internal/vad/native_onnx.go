//go:build onnx

package vad

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortInitOnce guards the package-level ONNX Runtime environment, shared by
// every onnxBackend instance (spec §5: model sessions are owned solely by
// the engine that uses them, but the runtime environment itself is global).
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

const sampleRate = 16000

// onnxBackend runs the Silero-shaped VAD model via ONNX Runtime, following
// the tensor-reuse and explicit-zeroing discipline of nupi's SileroEngine.
type onnxBackend struct {
	session *ort.AdvancedSession

	inputTensor *ort.Tensor[float32] // [1, 512]
	stateTensor *ort.Tensor[float32] // [2, 1, 128]
	srTensor    *ort.Tensor[int64]   // scalar

	outputTensor *ort.Tensor[float32] // [1, 1]
	stateNTensor *ort.Tensor[float32] // [2, 1, 128]
}

// NewONNXEngine initialises the ONNX Runtime environment and returns an
// Engine that loads the VAD model at modelPath on each NewSession call. Only
// runtime initialisation fails here; a missing or invalid model file is
// reported by NewSession.
func NewONNXEngine(libPath, modelPath string) (Engine, error) {
	ortInitOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("vad: initialize onnx runtime: %w", ortInitErr)
	}
	return &onnxEngine{modelPath: modelPath}, nil
}

type onnxEngine struct {
	modelPath string
}

func (e *onnxEngine) NewSession(cfg Config) (Session, error) {
	backend, err := newONNXBackend(e.modelPath)
	if err != nil {
		return nil, err
	}
	return newSession(backend, cfg, nil), nil
}

func newONNXBackend(modelPath string) (*onnxBackend, error) {
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, WindowSamples))
	if err != nil {
		return nil, fmt.Errorf("vad: create input tensor: %w", err)
	}
	stateTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, StateSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("vad: create state tensor: %w", err)
	}
	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(sampleRate)})
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		return nil, fmt.Errorf("vad: create sr tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		return nil, fmt.Errorf("vad: create output tensor: %w", err)
	}
	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, StateSize))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("vad: create stateN tensor: %w", err)
	}

	clearFloat32Slice(stateTensor.GetData())
	clearFloat32Slice(stateNTensor.GetData())

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		[]ort.Value{inputTensor, stateTensor, srTensor},
		[]ort.Value{outputTensor, stateNTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		stateNTensor.Destroy()
		return nil, fmt.Errorf("vad: create session: %w", err)
	}

	return &onnxBackend{
		session:      session,
		inputTensor:  inputTensor,
		stateTensor:  stateTensor,
		srTensor:     srTensor,
		outputTensor: outputTensor,
		stateNTensor: stateNTensor,
	}, nil
}

func (b *onnxBackend) Infer(window []float32) (float32, error) {
	copy(b.inputTensor.GetData(), window)

	if err := b.session.Run(); err != nil {
		return 0, fmt.Errorf("vad: inference: %w", err)
	}

	prob := b.outputTensor.GetData()[0]
	copy(b.stateTensor.GetData(), b.stateNTensor.GetData())
	return prob, nil
}

func (b *onnxBackend) ResetState() error {
	clearFloat32Slice(b.stateTensor.GetData())
	return nil
}

func (b *onnxBackend) Close() error {
	if b.session != nil {
		b.session.Destroy()
		b.session = nil
	}
	b.inputTensor.Destroy()
	b.stateTensor.Destroy()
	b.srTensor.Destroy()
	b.outputTensor.Destroy()
	b.stateNTensor.Destroy()
	return nil
}

func clearFloat32Slice(s []float32) {
	for i := range s {
		s[i] = 0
	}
}

// NativeAvailable reports that the ONNX-backed VAD engine is compiled in.
func NativeAvailable() bool { return true }

var _ Backend = (*onnxBackend)(nil)
var _ Engine = (*onnxEngine)(nil)
