package engine

import (
	"fmt"

	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// ErrEngineBusy is returned by SimulateTranscript whenever the engine is not
// in LISTENING_ON: while a request is in flight, and also while listening is
// off.
var ErrEngineBusy = fmt.Errorf("engine: a request is already in flight")

// ErrNotAwaitingConfirmation is returned by ConfirmAction/CancelConfirmation
// outside AWAITING_CONFIRMATION.
var ErrNotAwaitingConfirmation = fmt.Errorf("engine: not awaiting confirmation")

// ErrNoAmbiguousSelection is returned by SelectDisambiguationTarget outside
// the ambiguous ERROR hold, or for an unknown target id.
var ErrNoAmbiguousSelection = fmt.Errorf("engine: no ambiguous selection pending")

// StartListening implements LISTENING_OFF -> LISTENING_ON. A call while
// already listening is ignored (spec §4.8: undefined inputs are ignored).
func (e *Engine) StartListening() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != voicepage.StateListeningOff {
		return
	}
	e.state = voicepage.StateListeningOn
	e.emit(voicepage.EventListeningChanged, "", voicepage.ListeningChangedPayload{Enabled: true})
}

// StopListening implements LISTENING_ON -> LISTENING_OFF, plus the
// cancellation-first behavior spec §5 describes: "a user-initiated
// stopListening while a request is in-flight first cancels that request,
// then disables KWS."
func (e *Engine) StopListening() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == voicepage.StateListeningOff {
		return
	}

	e.cancelInFlightLocked()

	e.kws.Stop()
	e.state = voicepage.StateListeningOff
	e.emit(voicepage.EventListeningChanged, "", voicepage.ListeningChangedPayload{Enabled: false})
}

// Cancel aborts the in-flight request, if any, without disabling listening
// (spec §5 "Cancellation").
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelInFlightLocked()
}

// cancelInFlightLocked aborts whatever request is in flight, returning the
// engine to LISTENING_ON. States with no defined cancel behavior (spec
// §4.8's table only defines it for CAPTURING_TARGET, the ambiguous ERROR
// hold, and AWAITING_CONFIRMATION) are left untouched. Caller holds mu.
func (e *Engine) cancelInFlightLocked() {
	switch e.state {
	case voicepage.StateCapturingTarget:
		e.endCaptureLocked(voicepage.CaptureEndCancel)
	case voicepage.StateError:
		if e.ambiguousCandidates != nil {
			e.ambiguousCandidates = nil
			e.state = voicepage.StateListeningOn
		}
	case voicepage.StateAwaitingConfirmation:
		e.pendingTarget = nil
		e.pendingAction = ""
		e.state = voicepage.StateListeningOn
	}
}

// SimulateTranscript bypasses the audio stages entirely (spec §4.8
// "Simulate-transcript path"): a new request id is minted, the index is
// built, TranscriptReady is emitted synchronously, and resolution proceeds.
// Returns ErrEngineBusy if the engine is not in LISTENING_ON.
func (e *Engine) SimulateTranscript(transcript string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != voicepage.StateListeningOn {
		return ErrEngineBusy
	}

	requestID := e.newRequestID()
	e.requestID = requestID

	if _, ok := e.buildIndexLocked(requestID); !ok {
		return nil
	}

	e.emit(voicepage.EventTranscriptReady, requestID, voicepage.TranscriptReadyPayload{Transcript: transcript})
	e.resolveTargetLocked(requestID, transcript)
	return nil
}

// SelectDisambiguationTarget resolves an ambiguous hold by id (spec §4.8
// "ERROR (ambiguous hold) select target id"). Risk is still honored: a
// high-risk selection still requires confirmation, consistent with the
// "say what you see" safety model applying uniformly regardless of how a
// target was resolved.
func (e *Engine) SelectDisambiguationTarget(targetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != voicepage.StateError || e.ambiguousCandidates == nil {
		return ErrNoAmbiguousSelection
	}

	for _, c := range e.ambiguousCandidates {
		if c.ID == targetID {
			e.ambiguousCandidates = nil
			e.proposeAndMaybeExecuteLocked(e.requestID, c)
			return nil
		}
	}
	return ErrNoAmbiguousSelection
}

// ConfirmAction runs the pending action immediately, without a highlight
// delay (spec §4.8 "AWAITING_CONFIRMATION confirm -> EXECUTING").
func (e *Engine) ConfirmAction() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != voicepage.StateAwaitingConfirmation || e.pendingTarget == nil {
		return ErrNotAwaitingConfirmation
	}
	t := *e.pendingTarget
	act := e.pendingAction
	e.pendingTarget = nil
	e.pendingAction = ""
	e.state = voicepage.StateExecuting
	e.runActionLocked(e.requestID, t, act)
	return nil
}

// CancelConfirmation discards the pending action and returns to
// LISTENING_ON with no action taken (spec §4.8 "AWAITING_CONFIRMATION
// cancel -> LISTENING_ON: no action").
func (e *Engine) CancelConfirmation() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != voicepage.StateAwaitingConfirmation {
		return ErrNotAwaitingConfirmation
	}
	e.pendingTarget = nil
	e.pendingAction = ""
	e.state = voicepage.StateListeningOn
	return nil
}
