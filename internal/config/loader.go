package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, merges it over [Default],
// and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, merges zero-valued fields
// against [Default], and validates the result. Useful in tests where configs
// are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyKeywordDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyKeywordDefaults fills the per-keyword threshold and cooldown with the
// spec-mandated defaults (spec.md §6: kwsThreshold default 0.5) when the
// loaded YAML left them unset. Decoding over [Default] already seeds every
// other section; the Keywords slice needs an explicit per-element pass since
// YAML decoding replaces the slice wholesale rather than merging elements.
func applyKeywordDefaults(cfg *Config) {
	for i := range cfg.KWS.Keywords {
		if cfg.KWS.Keywords[i].Threshold == 0 {
			cfg.KWS.Keywords[i].Threshold = 0.5
		}
		if cfg.KWS.Keywords[i].CooldownMs == 0 {
			cfg.KWS.Keywords[i].CooldownMs = 1500
		}
	}
}

// Validate checks that cfg contains a coherent, in-range set of values. It
// returns a joined error listing every validation failure found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Engine.CollisionPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("engine.collision_policy %q is invalid; valid values: disambiguate, error", cfg.Engine.CollisionPolicy))
	}
	if cfg.Engine.FuzzyThreshold < 0 || cfg.Engine.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("engine.fuzzy_threshold %.2f is out of range [0, 1]", cfg.Engine.FuzzyThreshold))
	}
	if cfg.Engine.FuzzyMargin < 0 || cfg.Engine.FuzzyMargin > 1 {
		errs = append(errs, fmt.Errorf("engine.fuzzy_margin %.2f is out of range [0, 1]", cfg.Engine.FuzzyMargin))
	}
	if cfg.Engine.CaptureTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("engine.capture_timeout_ms must be positive, got %d", cfg.Engine.CaptureTimeoutMs))
	}
	if cfg.Engine.HighlightMs < 0 {
		errs = append(errs, fmt.Errorf("engine.highlight_ms must not be negative, got %d", cfg.Engine.HighlightMs))
	}

	if cfg.VAD.StartThreshold < 0 || cfg.VAD.StartThreshold > 1 {
		errs = append(errs, fmt.Errorf("vad.start_threshold %.2f is out of range [0, 1]", cfg.VAD.StartThreshold))
	}
	if cfg.VAD.EndThreshold < 0 || cfg.VAD.EndThreshold > 1 {
		errs = append(errs, fmt.Errorf("vad.end_threshold %.2f is out of range [0, 1]", cfg.VAD.EndThreshold))
	}
	if cfg.VAD.SilenceDurationMs <= 0 {
		errs = append(errs, fmt.Errorf("vad.silence_duration_ms must be positive, got %d", cfg.VAD.SilenceDurationMs))
	}
	if cfg.VAD.MinSpeechDurationMs < 0 {
		errs = append(errs, fmt.Errorf("vad.min_speech_duration_ms must not be negative, got %d", cfg.VAD.MinSpeechDurationMs))
	}

	namesSeen := make(map[string]int, len(cfg.KWS.Keywords))
	for i, kw := range cfg.KWS.Keywords {
		prefix := fmt.Sprintf("kws.keywords[%d]", i)
		if kw.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if prev, ok := namesSeen[kw.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of keywords[%d]", prefix, kw.Name, prev))
		} else {
			namesSeen[kw.Name] = i
		}
		if kw.Threshold < 0 || kw.Threshold > 1 {
			errs = append(errs, fmt.Errorf("%s.threshold %.2f is out of range [0, 1]", prefix, kw.Threshold))
		}
		if kw.CooldownMs < 0 {
			errs = append(errs, fmt.Errorf("%s.cooldown_ms must not be negative, got %d", prefix, kw.CooldownMs))
		}
		if kw.ClassifierPath == "" {
			errs = append(errs, fmt.Errorf("%s.classifier_path is required", prefix))
		}
	}

	if !cfg.ASR.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("asr.backend %q is invalid; valid values: whispercpp, onnxref", cfg.ASR.Backend))
	}
	switch cfg.ASR.Backend {
	case ASRBackendWhisperCPP:
		if cfg.ASR.ModelPath == "" {
			errs = append(errs, errors.New("asr.model_path is required when backend is whispercpp"))
		}
	case ASRBackendONNXRef:
		if cfg.ASR.EncoderPath == "" {
			errs = append(errs, errors.New("asr.encoder_path is required when backend is onnxref"))
		}
		if cfg.ASR.DecoderPath == "" {
			errs = append(errs, errors.New("asr.decoder_path is required when backend is onnxref"))
		}
		if cfg.ASR.VocabPath == "" {
			errs = append(errs, errors.New("asr.vocab_path is required when backend is onnxref"))
		}
	}
	if cfg.ASR.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("asr.max_tokens must be positive, got %d", cfg.ASR.MaxTokens))
	}

	if cfg.DevBridge.Enabled && cfg.DevBridge.ListenAddr == "" {
		errs = append(errs, errors.New("dev_bridge.listen_addr is required when dev_bridge.enabled is true"))
	}

	if !cfg.Logging.Level.IsValid() {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level))
	}

	return errors.Join(errs...)
}
