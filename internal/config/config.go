// Package config loads and validates the static, per-process VoicePage
// configuration (spec.md §6 "Configuration"): engine thresholds, the KWS/VAD/
// ASR model artifacts, the devtools bridge, and logging. There is no
// runtime-reload or multi-provider-swap concept here: VoicePage wires one
// backend of each kind for the lifetime of the process.
package config

import (
	"log/slog"

	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// Config is the root configuration structure, decoded from YAML.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	KWS       KWSConfig       `yaml:"kws"`
	VAD       VADConfig       `yaml:"vad"`
	ASR       ASRConfig       `yaml:"asr"`
	DevBridge DevBridgeConfig `yaml:"dev_bridge"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EngineConfig carries the resolver/capture thresholds spec.md §6 lists by
// name: collisionPolicy, fuzzyThreshold, fuzzyMargin, captureTimeoutMs,
// highlightMs, globalDenySelectors.
type EngineConfig struct {
	CollisionPolicy     voicepage.CollisionPolicy `yaml:"collision_policy"`
	FuzzyThreshold      float64                   `yaml:"fuzzy_threshold"`
	FuzzyMargin         float64                   `yaml:"fuzzy_margin"`
	CaptureTimeoutMs    int                       `yaml:"capture_timeout_ms"`
	HighlightMs         int                       `yaml:"highlight_ms"`
	GlobalDenySelectors string                    `yaml:"global_deny_selectors"`
}

// KeywordConfig is one loaded wake/command keyword: its classifier model and
// detection threshold (spec.md §6; default threshold 0.5 per keyword).
type KeywordConfig struct {
	Name           string  `yaml:"name"`
	ClassifierPath string  `yaml:"classifier_path"`
	Threshold      float64 `yaml:"threshold"`
	CooldownMs     int64   `yaml:"cooldown_ms"`
}

// KWSConfig carries the shared mel/embedding models plus the per-keyword
// classifiers.
type KWSConfig struct {
	LibPath       string          `yaml:"lib_path"`
	MelPath       string          `yaml:"mel_path"`
	EmbeddingPath string          `yaml:"embedding_path"`
	Keywords      []KeywordConfig `yaml:"keywords"`
}

// VADConfig carries the Silero-shaped boundary-detection model and
// thresholds (spec.md §4.2, §6).
type VADConfig struct {
	LibPath             string  `yaml:"lib_path"`
	ModelPath           string  `yaml:"model_path"`
	StartThreshold      float64 `yaml:"start_threshold"`
	EndThreshold        float64 `yaml:"end_threshold"`
	SilenceDurationMs   int     `yaml:"silence_duration_ms"`
	MinSpeechDurationMs int     `yaml:"min_speech_duration_ms"`
}

// ASRBackend selects which internal/asr implementation to construct.
type ASRBackend string

const (
	ASRBackendWhisperCPP ASRBackend = "whispercpp"
	ASRBackendONNXRef    ASRBackend = "onnxref"
)

// IsValid reports whether b is one of the known ASR backends.
func (b ASRBackend) IsValid() bool {
	switch b {
	case ASRBackendWhisperCPP, ASRBackendONNXRef:
		return true
	}
	return false
}

// ASRConfig carries the backend selection and its model artifacts. ModelPath
// and Language are used by whispercpp; LibPath/EncoderPath/DecoderPath/
// VocabPath/LanguageToken by onnxref (spec.md §4.3, §6).
type ASRConfig struct {
	Backend       ASRBackend `yaml:"backend"`
	ModelPath     string     `yaml:"model_path"`
	Language      string     `yaml:"language"`
	LibPath       string     `yaml:"lib_path"`
	EncoderPath   string     `yaml:"encoder_path"`
	DecoderPath   string     `yaml:"decoder_path"`
	VocabPath     string     `yaml:"vocab_path"`
	LanguageToken string     `yaml:"language_token"`
	MaxTokens     int        `yaml:"max_tokens"`
}

// DevBridgeConfig configures the loopback devtools event relay (SPEC_FULL.md
// §6 "Devtools bridge").
type DevBridgeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// LogLevel is a validated slog level name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the known levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// Level converts to the slog representation, defaulting to Info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggingConfig carries the process-wide log level.
type LoggingConfig struct {
	Level LogLevel `yaml:"level"`
}

// Default returns the spec-mandated default configuration (spec.md §6).
func Default() Config {
	return Config{
		Engine: EngineConfig{
			CollisionPolicy:  voicepage.PolicyDisambiguate,
			FuzzyThreshold:   0.7,
			FuzzyMargin:      0.15,
			CaptureTimeoutMs: 5000,
			HighlightMs:      300,
		},
		VAD: VADConfig{
			StartThreshold:      0.5,
			EndThreshold:        0.35,
			SilenceDurationMs:   1000,
			MinSpeechDurationMs: 250,
		},
		ASR: ASRConfig{
			Backend:   ASRBackendWhisperCPP,
			MaxTokens: 128,
		},
		Logging: LoggingConfig{Level: LogLevelInfo},
	}
}
