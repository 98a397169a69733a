// Package engine implements the finite state machine that orchestrates
// keyword detection, speech capture, transcription, target resolution, and
// action execution (spec §4.8). It is the sole consumer of
// internal/kws, internal/vad, and internal/asr, and the sole producer onto
// internal/eventbus.
//
// Wiring note: kws.Engine's detection callback is supplied at construction
// time (kws.NewPipeline), before an *Engine exists to receive it. Callers
// resolve this the way glyphoxa's internal/discord/bot.go registers
// handlers against a not-yet-running session: declare the *Engine variable
// first, build the kws.Engine with a closure that calls
// eng.HandleKeywordDetection, then construct the Engine itself.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BlaiseCz/VoicePage/internal/asr"
	"github.com/BlaiseCz/VoicePage/internal/domidx"
	"github.com/BlaiseCz/VoicePage/internal/domidx/element"
	"github.com/BlaiseCz/VoicePage/internal/eventbus"
	"github.com/BlaiseCz/VoicePage/internal/kws"
	"github.com/BlaiseCz/VoicePage/internal/matcher"
	"github.com/BlaiseCz/VoicePage/internal/reqid"
	"github.com/BlaiseCz/VoicePage/internal/vad"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// Config carries every engine-level setting from spec §6 "Configuration".
type Config struct {
	CollisionPolicy     voicepage.CollisionPolicy
	FuzzyThreshold      float64
	FuzzyMargin         float64
	CaptureTimeoutMs    int
	HighlightMs         int
	GlobalDenySelectors string
	VAD                 vad.Config
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		CollisionPolicy:  voicepage.PolicyDisambiguate,
		FuzzyThreshold:   0.7,
		FuzzyMargin:      0.15,
		CaptureTimeoutMs: 5000,
		HighlightMs:      300,
		VAD:              vad.DefaultConfig(),
	}
}

func (c Config) matcherConfig() matcher.Config {
	return matcher.Config{
		CollisionPolicy: c.CollisionPolicy,
		FuzzyThreshold:  c.FuzzyThreshold,
		FuzzyMargin:     c.FuzzyMargin,
	}
}

func (c Config) indexConfig() domidx.Config {
	return domidx.Config{GlobalDenySelectors: c.GlobalDenySelectors}
}

// Dependencies are the capabilities the Engine orchestrates; all are owned
// solely by the Engine once constructed (spec §5 "Shared resources").
type Dependencies struct {
	KWS      kws.Engine
	VAD      vad.Engine
	ASR      asr.Engine
	Document element.Document
}

// Engine is the state machine described in spec §4.8. The zero value is not
// usable; use New.
//
// Engine runs on a single logical thread of execution (spec §5): every
// exported method that reads or changes engine state, and every internal
// transition, executes under mu. Init, On, GetEventHistory and GetConfig do
// not take mu.
// Suspension points (ASR transcription, the capture timeout, the highlight
// delay) run on background goroutines that re-acquire mu before mutating
// state, and each checks the in-flight request id so a late callback for a
// retired request is dropped rather than acted on.
type Engine struct {
	mu  sync.Mutex
	log *slog.Logger

	kws kws.Engine
	vad vad.Engine
	asr asr.Engine
	doc element.Document

	cfg Config
	bus *eventbus.Bus

	state     voicepage.State
	requestID string

	currentIndex domidx.Index

	vadSession  vad.Session
	captureBuf  []float32
	captureCncl context.CancelFunc

	highlightCncl context.CancelFunc

	ambiguousCandidates []domidx.Target
	pendingTarget       *domidx.Target
	pendingAction       voicepage.Action
}

// New constructs an Engine in state LISTENING_OFF.
func New(deps Dependencies, cfg Config) *Engine {
	return &Engine{
		log:   slog.Default(),
		kws:   deps.KWS,
		vad:   deps.VAD,
		asr:   deps.ASR,
		doc:   deps.Document,
		cfg:   cfg,
		bus:   eventbus.New(),
		state: voicepage.StateListeningOff,
	}
}

// Init loads all models (spec §6 "init() — load all models; throw on
// failure"). A failure both returns an error and emits a matching
// EngineError event.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.kws.WarmUp(); err != nil {
		return e.failInit(voicepage.CodeKWSInitFailed, voicepage.ErrKWSInitFailed, err)
	}
	vadSession, err := e.vad.NewSession(e.cfg.VAD)
	if err != nil {
		return e.failInit(voicepage.CodeVADInitFailed, voicepage.ErrVADInitFailed, err)
	}
	if err := vadSession.Close(); err != nil {
		return e.failInit(voicepage.CodeVADInitFailed, voicepage.ErrVADInitFailed, err)
	}
	if err := e.asr.Init(ctx); err != nil {
		return e.failInit(voicepage.CodeASRInitFailed, voicepage.ErrASRInitFailed, err)
	}
	return nil
}

func (e *Engine) failInit(code voicepage.Code, sentinel error, cause error) error {
	wrapped := fmt.Errorf("%w: %w", sentinel, cause)
	e.emit(voicepage.EventEngineErrorType, "", voicepage.EngineErrorPayload{
		Code:    code,
		Message: wrapped.Error(),
	})
	return wrapped
}

// Destroy releases every session the Engine owns. The Engine must not be
// used afterward.
func (e *Engine) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.captureCncl != nil {
		e.captureCncl()
	}
	if e.highlightCncl != nil {
		e.highlightCncl()
	}
	var firstErr error
	if e.vadSession != nil {
		if err := e.vadSession.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.vadSession = nil
	}
	if err := e.kws.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.asr.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	e.state = voicepage.StateListeningOff
	return firstErr
}

// On registers an event listener (spec §6 "on(listener) -> unsubscribe").
func (e *Engine) On(listener eventbus.Listener) eventbus.Unsubscribe {
	return e.bus.On(listener)
}

// GetEventHistory returns every event emitted so far, oldest first.
func (e *Engine) GetEventHistory() []voicepage.Event {
	return e.bus.History()
}

// GetState returns the engine's current state.
func (e *Engine) GetState() voicepage.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// GetConfig returns the engine's configuration.
func (e *Engine) GetConfig() Config {
	return e.cfg
}

// GetCurrentIndex returns the most recently built Target Index. It is a
// snapshot; a new request discards and replaces it (spec §3 "Target Index").
func (e *Engine) GetCurrentIndex() domidx.Index {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentIndex
}

func (e *Engine) emit(t voicepage.EventType, requestID string, payload any) {
	e.bus.Emit(voicepage.Event{
		Type:      t,
		TS:        time.Now().UnixMilli(),
		RequestID: requestID,
		Payload:   payload,
	})
}

// newRequestID mints a fresh request id (spec §4.8 "Request identity").
func (e *Engine) newRequestID() string {
	return reqid.New()
}

// buildIndexLocked runs the indexer and, if it produced zero addressable targets,
// fails the request immediately: there is nothing for the matcher to ever
// resolve against (spec §7 error taxonomy includes
// MISCONFIG_NO_ADDRESSABLE_TARGETS for exactly this case, though §4.8's
// transition table does not spell out when it fires).
func (e *Engine) buildIndexLocked(requestID string) (domidx.Index, bool) {
	idx, err := domidx.Build(e.doc, e.cfg.indexConfig())
	if err != nil {
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeExecutionFailed,
			Message: err.Error(),
		})
		e.state = voicepage.StateListeningOn
		return domidx.Index{}, false
	}
	e.currentIndex = idx
	e.emit(voicepage.EventTargetIndexBuilt, requestID, voicepage.TargetIndexBuiltPayload{
		TargetCount: len(idx.Targets),
		Scope:       idx.Scope,
	})
	if len(idx.Targets) == 0 {
		e.emit(voicepage.EventTargetResolutionFailed, requestID, voicepage.TargetResolutionFailedPayload{
			Reason: voicepage.ReasonMisconfigured,
		})
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeMisconfigNoTargets,
			Message: "no addressable targets in scope",
		})
		e.state = voicepage.StateListeningOn
		return domidx.Index{}, false
	}
	return idx, true
}
