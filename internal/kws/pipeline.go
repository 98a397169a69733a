package kws

import (
	"log/slog"
	"time"

	"github.com/BlaiseCz/VoicePage/internal/audio"
)

// Pipeline is the concrete Engine: the three-stage topology plus per-keyword
// cooldown tracking (spec §4.1).
type Pipeline struct {
	mel        MelBackend
	embedding  EmbeddingBackend
	keywords   []KeywordConfig
	onDetect   Callback
	rawObserve RawScoreObserver
	log        *slog.Logger

	rawRing   *sampleRing
	melRing   *frameRing
	embedRing *frameRing

	lastFired map[string]time.Time
}

// PipelineOption configures optional behavior on a Pipeline.
type PipelineOption func(*Pipeline)

// WithRawScoreObserver registers a callback invoked with every keyword's
// raw score on every classifier run (spec §4.1 step 4).
func WithRawScoreObserver(fn RawScoreObserver) PipelineOption {
	return func(p *Pipeline) { p.rawObserve = fn }
}

// WithLogger overrides the default slog.Logger used for swallowed per-frame
// inference errors.
func WithLogger(log *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// NewPipeline constructs a Pipeline. mel and embedding are owned solely by
// the returned Pipeline (spec §5); keywords' classifiers are too.
func NewPipeline(mel MelBackend, embedding EmbeddingBackend, keywords []KeywordConfig, onDetect Callback, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		mel:       mel,
		embedding: embedding,
		keywords:  keywords,
		onDetect:  onDetect,
		log:       defaultLogger,
		rawRing:   newSampleRing(rawAudioRingCap, rawAudioRingSilence),
		melRing:   newFrameRing(melRingCap),
		embedRing: newFrameRing(embedRingCap),
		lastFired: map[string]time.Time{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFrame implements Engine (spec §4.1 steps 1-5).
func (p *Pipeline) ProcessFrame(samples []float32) error {
	scaled := audio.ToInt16Clamped(samples)
	raw := make([]float32, len(scaled))
	for i, v := range scaled {
		raw[i] = float32(v)
	}
	p.rawRing.push(raw)

	melInput := p.rawRing.last(len(samples) + rawAudioRingSilence)
	melFrames, err := p.mel.Infer(melInput)
	if err != nil {
		p.log.Warn("kws: mel stage inference failed, skipping frame", "error", err)
		return nil
	}
	for _, mf := range melFrames {
		affine := make([]float32, len(mf))
		for i, v := range mf {
			affine[i] = v/10 + 2
		}
		p.melRing.push(affine)
	}

	if p.melRing.len() >= melWindowFrames {
		window := p.melRing.last(melWindowFrames)
		embedding, err := p.embedding.Infer(window)
		if err != nil {
			p.log.Warn("kws: embedding stage inference failed, skipping frame", "error", err)
			return nil
		}
		p.embedRing.push(embedding)
	}

	if p.embedRing.len() >= embedWindowFrames {
		window := p.embedRing.last(embedWindowFrames)
		now := time.Now()
		for _, kw := range p.keywords {
			score, err := kw.Classifier.Infer(window)
			if err != nil {
				p.log.Warn("kws: classifier inference failed, skipping keyword", "keyword", kw.Keyword, "error", err)
				continue
			}
			if p.rawObserve != nil {
				p.rawObserve(kw.Keyword, float64(score))
			}
			if float64(score) < kw.Threshold {
				continue
			}
			cooldown := kw.CooldownMs
			if cooldown <= 0 {
				cooldown = DefaultCooldownMs
			}
			if last, ok := p.lastFired[kw.Keyword]; ok && now.Sub(last) < time.Duration(cooldown)*time.Millisecond {
				continue
			}
			p.lastFired[kw.Keyword] = now
			if p.onDetect != nil {
				p.onDetect(Detection{Keyword: kw.Keyword, Score: float64(score)})
			}
		}
	}

	return nil
}

// WarmUp implements Engine (spec §4.1 "Warm-up").
func (p *Pipeline) WarmUp() error {
	silence := make([]float32, 1280)
	for i := 0; i < WarmUpFrames; i++ {
		if err := p.ProcessFrame(silence); err != nil {
			return err
		}
	}
	return nil
}

// Stop implements Engine: clears all three rings.
func (p *Pipeline) Stop() {
	p.rawRing.clear(rawAudioRingSilence)
	p.melRing.clear()
	p.embedRing.clear()
	p.lastFired = map[string]time.Time{}
}

// Close implements Engine: releases the mel, embedding, and every
// classifier session.
func (p *Pipeline) Close() error {
	var firstErr error
	if err := p.mel.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.embedding.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, kw := range p.keywords {
		if err := kw.Classifier.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Engine = (*Pipeline)(nil)
