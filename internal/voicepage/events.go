package voicepage

// EventType is the discriminator carried by every Event (spec §6).
type EventType string

const (
	EventListeningChanged        EventType = "ListeningChanged"
	EventKeywordDetected         EventType = "KeywordDetected"
	EventCaptureStarted          EventType = "CaptureStarted"
	EventCaptureEnded            EventType = "CaptureEnded"
	EventTranscriptionStarted    EventType = "TranscriptionStarted"
	EventTranscriptReady         EventType = "TranscriptReady"
	EventTargetIndexBuilt        EventType = "TargetIndexBuilt"
	EventTargetResolved          EventType = "TargetResolved"
	EventTargetResolutionFailed  EventType = "TargetResolutionFailed"
	EventActionProposed          EventType = "ActionProposed"
	EventConfirmationRequired    EventType = "ConfirmationRequired"
	EventActionExecuted          EventType = "ActionExecuted"
	EventEngineErrorType         EventType = "EngineError"
)

// Event is the tagged record broadcast on the event bus (spec §3, §6).
// Payload holds the variant-specific fields; callers type-assert against the
// concrete *Payload types declared below according to Type.
type Event struct {
	Type      EventType
	TS        int64 // milliseconds since epoch
	RequestID string
	Payload   any
}

type ListeningChangedPayload struct {
	Enabled bool
}

type KeywordDetectedPayload struct {
	Keyword    string
	Confidence float64
	HasConfidence bool
}

type CaptureStartedPayload struct{}

type CaptureEndedPayload struct {
	Reason CaptureEndReason
}

type TranscriptionStartedPayload struct{}

type TranscriptReadyPayload struct {
	Transcript string
}

type TargetIndexBuiltPayload struct {
	TargetCount int
	Scope       Scope
}

type TargetResolvedPayload struct {
	TargetID string
	Label    string
	Match    MatchKind
}

type TargetResolutionFailedPayload struct {
	Reason  ResolutionFailureReason
	Details map[string]any
}

type ActionProposedPayload struct {
	Action   Action
	TargetID string
	Risk     Risk
}

type ConfirmationRequiredPayload struct {
	Action   Action
	TargetID string
	Label    string
}

type ActionExecutedPayload struct {
	Action   Action
	TargetID string
	OK       bool
	Error    string
}

type EngineErrorPayload struct {
	Code    Code
	Message string
	Details map[string]any
}
