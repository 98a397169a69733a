package engine

import (
	"context"
	"time"

	"github.com/BlaiseCz/VoicePage/internal/action"
	"github.com/BlaiseCz/VoicePage/internal/domidx"
	"github.com/BlaiseCz/VoicePage/internal/kws"
	"github.com/BlaiseCz/VoicePage/internal/matcher"
	"github.com/BlaiseCz/VoicePage/internal/normalize"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

const (
	keywordOpen   = "open"
	keywordClick  = "click"
	keywordHelp   = "help"
	keywordStop   = "stop"
	keywordCancel = "cancel"
)

// HandleKeywordDetection is the kws.Callback the caller wires at
// construction (see the package doc comment's wiring note).
func (e *Engine) HandleKeywordDetection(d kws.Detection) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case voicepage.StateListeningOn:
		e.handleKeywordListeningOn(d)
	case voicepage.StateCapturingTarget:
		e.handleKeywordCapturing(d)
	default:
		// Keyword callbacks outside LISTENING_ON/CAPTURING_TARGET are
		// undefined inputs (spec §4.8): the KWS pipeline keeps running, but
		// the engine ignores them.
	}
}

func (e *Engine) handleKeywordListeningOn(d kws.Detection) {
	switch d.Keyword {
	case keywordOpen, keywordClick:
		e.emitKeywordDetected(d)
		e.startCaptureLocked()
	case keywordHelp:
		e.emitKeywordDetected(d)
	case keywordStop, keywordCancel:
		e.emitKeywordDetected(d)
		// no-op per the transition table
	}
}

func (e *Engine) handleKeywordCapturing(d kws.Detection) {
	switch d.Keyword {
	case keywordStop, keywordCancel:
		e.emitKeywordDetected(d)
		e.endCaptureLocked(voicepage.CaptureEndCancel)
	}
}

func (e *Engine) emitKeywordDetected(d kws.Detection) {
	e.emit(voicepage.EventKeywordDetected, e.requestID, voicepage.KeywordDetectedPayload{
		Keyword:       d.Keyword,
		Confidence:    d.Score,
		HasConfidence: true,
	})
}

// startCaptureLocked implements the LISTENING_ON -> CAPTURING_TARGET
// transition (spec §4.8).
func (e *Engine) startCaptureLocked() {
	requestID := e.newRequestID()
	e.requestID = requestID

	if _, ok := e.buildIndexLocked(requestID); !ok {
		return
	}

	vadSession, err := e.vad.NewSession(e.cfg.VAD)
	if err != nil {
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeVADInitFailed,
			Message: err.Error(),
		})
		e.state = voicepage.StateListeningOn
		return
	}

	e.vadSession = vadSession
	e.captureBuf = e.captureBuf[:0]
	e.state = voicepage.StateCapturingTarget
	e.emit(voicepage.EventCaptureStarted, requestID, voicepage.CaptureStartedPayload{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(e.cfg.CaptureTimeoutMs)*time.Millisecond)
	e.captureCncl = cancel
	go e.watchCaptureTimeout(ctx, requestID)
}

func (e *Engine) watchCaptureTimeout(ctx context.Context, requestID string) {
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		return // cancelled on state exit, not a real timeout
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.requestID == requestID && e.state == voicepage.StateCapturingTarget {
		e.endCaptureLocked(voicepage.CaptureEndTimeout)
	}
}

// endCaptureLocked implements the CAPTURING_TARGET exit transitions (spec
// §4.8): speech-end and timeout proceed to transcription; stop/cancel
// discard the buffer and return to LISTENING_ON.
func (e *Engine) endCaptureLocked(reason voicepage.CaptureEndReason) {
	requestID := e.requestID

	if e.captureCncl != nil {
		e.captureCncl()
		e.captureCncl = nil
	}
	if e.vadSession != nil {
		if err := e.vadSession.Close(); err != nil {
			e.log.Warn("engine: vad session close failed", "error", err)
		}
		e.vadSession = nil
	}
	buf := e.captureBuf
	e.captureBuf = nil

	e.emit(voicepage.EventCaptureEnded, requestID, voicepage.CaptureEndedPayload{Reason: reason})

	if reason == voicepage.CaptureEndStop || reason == voicepage.CaptureEndCancel {
		e.state = voicepage.StateListeningOn
		return
	}

	e.state = voicepage.StateTranscribing
	e.emit(voicepage.EventTranscriptionStarted, requestID, voicepage.TranscriptionStartedPayload{})

	samples := make([]float32, len(buf))
	copy(samples, buf)
	go e.transcribeAsync(requestID, samples)
}

func (e *Engine) transcribeAsync(requestID string, samples []float32) {
	transcript, err := e.asr.Transcribe(context.Background(), samples)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.requestID != requestID || e.state != voicepage.StateTranscribing {
		return // request retired while transcription was in flight
	}

	if err != nil {
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeASRFailed,
			Message: err.Error(),
		})
		e.state = voicepage.StateListeningOn
		return
	}
	if transcript == "" {
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeNoSpeechDetected,
			Message: voicepage.ErrNoSpeechDetected.Error(),
		})
		e.state = voicepage.StateListeningOn
		return
	}

	e.emit(voicepage.EventTranscriptReady, requestID, voicepage.TranscriptReadyPayload{Transcript: transcript})
	e.resolveTargetLocked(requestID, transcript)
}

// resolveTargetLocked implements RESOLVING_TARGET (spec §4.6, §4.8). Caller
// holds mu.
func (e *Engine) resolveTargetLocked(requestID, transcript string) {
	e.state = voicepage.StateResolvingTarget
	result := matcher.Resolve(normalize.Normalize(transcript), e.currentIndex, e.cfg.matcherConfig())

	switch result.Kind {
	case matcher.Unique:
		t := *result.Target
		e.emit(voicepage.EventTargetResolved, requestID, voicepage.TargetResolvedPayload{
			TargetID: t.ID,
			Label:    t.Label,
			Match:    result.Match,
		})
		e.proposeAndMaybeExecuteLocked(requestID, t)

	case matcher.Ambiguous:
		candidateIDs := make([]string, len(result.Candidates))
		for i, c := range result.Candidates {
			candidateIDs[i] = c.ID
		}
		e.emit(voicepage.EventTargetResolutionFailed, requestID, voicepage.TargetResolutionFailedPayload{
			Reason:  voicepage.ReasonAmbiguous,
			Details: map[string]any{"candidates": candidateIDs},
		})
		e.ambiguousCandidates = result.Candidates
		e.state = voicepage.StateError

	case matcher.NoMatch:
		e.emit(voicepage.EventTargetResolutionFailed, requestID, voicepage.TargetResolutionFailedPayload{
			Reason: voicepage.ReasonNoMatch,
		})
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeNoMatch,
			Message: "no target matched the transcript",
		})
		e.state = voicepage.StateListeningOn

	case matcher.Misconfiguration:
		e.emit(voicepage.EventTargetResolutionFailed, requestID, voicepage.TargetResolutionFailedPayload{
			Reason:  voicepage.ReasonMisconfigured,
			Details: map[string]any{"duplicateGroups": result.DuplicateGroups},
		})
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeMisconfigDuplicate,
			Message: "duplicate normalized labels under collision policy error",
		})
		e.state = voicepage.StateListeningOn
	}
}

// proposeAndMaybeExecuteLocked implements RESOLVING_TARGET's unique-match
// exits: straight to execution after a highlight delay, or to
// AWAITING_CONFIRMATION for high-risk targets. Caller holds mu.
func (e *Engine) proposeAndMaybeExecuteLocked(requestID string, t domidx.Target) {
	act := action.DefaultAction(t.El)
	e.emit(voicepage.EventActionProposed, requestID, voicepage.ActionProposedPayload{
		Action:   act,
		TargetID: t.ID,
		Risk:     t.Risk,
	})

	if t.Risk == voicepage.RiskHigh {
		e.pendingTarget = &t
		e.pendingAction = act
		e.emit(voicepage.EventConfirmationRequired, requestID, voicepage.ConfirmationRequiredPayload{
			Action:   act,
			TargetID: t.ID,
			Label:    t.Label,
		})
		e.state = voicepage.StateAwaitingConfirmation
		return
	}

	e.armHighlightLocked(requestID, t, act)
}

func (e *Engine) armHighlightLocked(requestID string, t domidx.Target, act voicepage.Action) {
	e.state = voicepage.StateExecuting
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(e.cfg.HighlightMs)*time.Millisecond)
	e.highlightCncl = cancel
	go e.watchHighlight(ctx, requestID, t, act)
}

func (e *Engine) watchHighlight(ctx context.Context, requestID string, t domidx.Target, act voicepage.Action) {
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.requestID == requestID && e.state == voicepage.StateExecuting {
		e.runActionLocked(requestID, t, act)
	}
}

// runActionLocked executes the resolved action and returns to
// LISTENING_ON (spec §4.8 EXECUTING -> LISTENING_ON). Caller holds mu.
func (e *Engine) runActionLocked(requestID string, t domidx.Target, act voicepage.Action) {
	if e.highlightCncl != nil {
		e.highlightCncl()
		e.highlightCncl = nil
	}

	err := action.Execute(t.El, act)
	ok := err == nil
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	e.emit(voicepage.EventActionExecuted, requestID, voicepage.ActionExecutedPayload{
		Action:   act,
		TargetID: t.ID,
		OK:       ok,
		Error:    errStr,
	})
	if err != nil {
		e.emit(voicepage.EventEngineErrorType, requestID, voicepage.EngineErrorPayload{
			Code:    voicepage.CodeExecutionFailed,
			Message: errStr,
		})
	}

	e.pendingTarget = nil
	e.pendingAction = ""
	e.state = voicepage.StateListeningOn
}
