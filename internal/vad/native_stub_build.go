//go:build !onnx

package vad

import "errors"

// ErrNativeUnavailable indicates the ONNX-backed VAD engine is not compiled
// in (build without -tags onnx).
var ErrNativeUnavailable = errors.New("vad: onnx backend not available (build without -tags onnx)")

// NativeAvailable reports that no ONNX-backed engine is compiled in.
func NativeAvailable() bool { return false }

// NewONNXEngine returns an error when built without the onnx tag.
func NewONNXEngine(_, _ string) (Engine, error) {
	return nil, ErrNativeUnavailable
}
