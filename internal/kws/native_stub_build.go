//go:build !onnx

package kws

import (
	"context"
	"errors"
)

// ErrNativeUnavailable is returned by LoadNativeBackends when the binary was
// built without the onnx tag.
var ErrNativeUnavailable = errors.New("kws: built without onnx tag, native backends unavailable")

// NativeAvailable reports that this build has no ONNX-backed KWS backends.
func NativeAvailable() bool { return false }

// ModelPaths mirrors the onnx-tagged build's type so callers can construct
// it unconditionally regardless of build tag.
type ModelPaths struct {
	LibPath        string
	MelPath        string
	EmbeddingPath  string
	ClassifierPath map[string]string
}

// LoadNativeBackends always fails in builds without the onnx tag; callers
// fall back to NewStubMelBackend/NewStubEmbeddingBackend/NewStubClassifierBackend.
func LoadNativeBackends(_ context.Context, _ ModelPaths) (MelBackend, EmbeddingBackend, map[string]ClassifierBackend, error) {
	return nil, nil, nil, ErrNativeUnavailable
}
