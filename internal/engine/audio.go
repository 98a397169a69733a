package engine

import (
	"github.com/BlaiseCz/VoicePage/internal/audio"
	"github.com/BlaiseCz/VoicePage/internal/vad"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// PushFrame feeds one PCM frame from the audio source into every listener
// appropriate for the current state (spec §5 "Shared resources"): KWS
// whenever listening is on, plus the VAD session and capture buffer while a
// capture is in progress. While LISTENING_OFF the frame is dropped
// entirely ("stop KWS; unwire frames").
func (e *Engine) PushFrame(frame audio.Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == voicepage.StateListeningOff {
		return
	}

	samples := frame.Samples[:]
	if err := e.kws.ProcessFrame(samples); err != nil {
		e.log.Warn("engine: kws frame processing failed", "error", err)
	}

	if e.state != voicepage.StateCapturingTarget {
		return
	}

	e.captureBuf = append(e.captureBuf, samples...)

	events, err := e.vadSession.ProcessFrame(samples)
	if err != nil {
		e.log.Warn("engine: vad frame processing failed", "error", err)
		return
	}
	for _, ev := range events {
		if ev.Type == vad.EventSpeechEnd {
			e.endCaptureLocked(voicepage.CaptureEndVAD)
			return
		}
	}
}
