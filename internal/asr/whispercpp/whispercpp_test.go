package whispercpp_test

import (
	"context"
	"os"
	"testing"

	"github.com/BlaiseCz/VoicePage/internal/asr/whispercpp"
)

// testModelPath reads the model path from WHISPER_MODEL_PATH, skipping the
// test if it is unset (no model binary ships with this repository).
func testModelPath(t *testing.T) string {
	t.Helper()
	p := os.Getenv("WHISPER_MODEL_PATH")
	if p == "" {
		t.Skip("WHISPER_MODEL_PATH not set; skipping native whisper test")
	}
	return p
}

func TestInitEmptyPathReturnsError(t *testing.T) {
	e := whispercpp.New("")
	if err := e.Init(context.Background()); err == nil {
		t.Fatal("expected error for empty model path, got nil")
	}
}

func TestTranscribeEmptySamplesReturnsEmptyString(t *testing.T) {
	modelPath := testModelPath(t)
	e := whispercpp.New(modelPath)
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer e.Close()

	text, err := e.Transcribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty transcript, got %q", text)
	}
}

func TestTranscribeCancelledContext(t *testing.T) {
	modelPath := testModelPath(t)
	e := whispercpp.New(modelPath)
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Transcribe(ctx, make([]float32, 1600)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
