package vad

// stubBackend returns a fixed probability and performs no real inference.
// Used when the module is built without the onnx tag, or in tests that
// only need to exercise the chunking/state-machine logic deterministically.
type stubBackend struct {
	probability float32
}

// NewStubEngine returns an Engine whose sessions always report probability.
func NewStubEngine(probability float32) Engine {
	return &stubEngine{probability: probability}
}

type stubEngine struct {
	probability float32
}

func (e *stubEngine) NewSession(cfg Config) (Session, error) {
	return newSession(&stubBackend{probability: e.probability}, cfg, nil), nil
}

func (b *stubBackend) Infer(window []float32) (float32, error) {
	return b.probability, nil
}

func (b *stubBackend) ResetState() error { return nil }

func (b *stubBackend) Close() error { return nil }

var _ Backend = (*stubBackend)(nil)
var _ Engine = (*stubEngine)(nil)
