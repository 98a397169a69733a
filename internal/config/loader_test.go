package config_test

import (
	"strings"
	"testing"

	"github.com/BlaiseCz/VoicePage/internal/config"
)

func TestValidate_InvalidCollisionPolicy(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("engine:\n  collision_policy: retry\n"))
	if err == nil || !strings.Contains(err.Error(), "collision_policy") {
		t.Fatalf("expected a collision_policy error, got: %v", err)
	}
}

func TestValidate_FuzzyThresholdOutOfRange(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("engine:\n  fuzzy_threshold: 1.5\n"))
	if err == nil || !strings.Contains(err.Error(), "fuzzy_threshold") {
		t.Fatalf("expected a fuzzy_threshold error, got: %v", err)
	}
}

func TestValidate_CaptureTimeoutMustBePositive(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("engine:\n  capture_timeout_ms: 0\n"))
	if err == nil || !strings.Contains(err.Error(), "capture_timeout_ms") {
		t.Fatalf("expected a capture_timeout_ms error, got: %v", err)
	}
}

func TestValidate_DuplicateKeywordNames(t *testing.T) {
	t.Parallel()
	yaml := `
kws:
  keywords:
    - name: open
      classifier_path: /models/a.onnx
    - name: open
      classifier_path: /models/b.onnx
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected a duplicate keyword error, got: %v", err)
	}
}

func TestValidate_KeywordRequiresClassifierPath(t *testing.T) {
	t.Parallel()
	yaml := `
kws:
  keywords:
    - name: open
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "classifier_path") {
		t.Fatalf("expected a classifier_path error, got: %v", err)
	}
}

func TestValidate_WhisperCPPRequiresModelPath(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("asr:\n  backend: whispercpp\n"))
	if err == nil || !strings.Contains(err.Error(), "asr.model_path") {
		t.Fatalf("expected an asr.model_path error, got: %v", err)
	}
}

func TestValidate_ONNXRefRequiresModelPaths(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("asr:\n  backend: onnxref\n"))
	if err == nil {
		t.Fatal("expected errors for missing onnxref model paths")
	}
	for _, want := range []string{"encoder_path", "decoder_path", "vocab_path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_UnknownASRBackend(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("asr:\n  backend: vosk\n  model_path: x\n"))
	if err == nil || !strings.Contains(err.Error(), "asr.backend") {
		t.Fatalf("expected an asr.backend error, got: %v", err)
	}
}

func TestValidate_DevBridgeRequiresListenAddrWhenEnabled(t *testing.T) {
	t.Parallel()
	yaml := `
asr:
  backend: whispercpp
  model_path: /models/ggml-base.en.bin
dev_bridge:
  enabled: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "dev_bridge.listen_addr") {
		t.Fatalf("expected a dev_bridge.listen_addr error, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
asr:
  backend: whispercpp
  model_path: /models/ggml-base.en.bin
logging:
  level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected a logging.level error, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/path/voicepage.yaml")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
