// Package observe provides application-wide observability primitives for
// VoicePage: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VoicePage metrics.
const meterName = "github.com/BlaiseCz/VoicePage"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// KWSFrameDuration tracks the per-frame keyword-spotting inference
	// latency (mel + embedding + classifier for one audio frame).
	KWSFrameDuration metric.Float64Histogram

	// VADFrameDuration tracks per-window VAD inference latency.
	VADFrameDuration metric.Float64Histogram

	// ASRDuration tracks transcription latency for a full capture buffer.
	// Use with attribute: attribute.String("backend", ...)
	ASRDuration metric.Float64Histogram

	// --- Counters ---

	// KeywordDetections counts keyword-spotting detections that passed
	// threshold and cooldown. Use with attribute:
	//   attribute.String("keyword", ...)
	KeywordDetections metric.Int64Counter

	// KeywordCooldownRejections counts detections suppressed by the
	// per-keyword cooldown window.
	//   attribute.String("keyword", ...)
	KeywordCooldownRejections metric.Int64Counter

	// VADBoundaryEvents counts speech-start/speech-end boundary callbacks.
	//   attribute.String("type", "speech-start"|"speech-end")
	VADBoundaryEvents metric.Int64Counter

	// ResolverOutcomes counts target-resolution results by kind. Use with
	// attribute: attribute.String("kind", "unique"|"ambiguous"|"no_match"|
	// "misconfiguration")
	ResolverOutcomes metric.Int64Counter

	// ActionExecutions counts executed default actions. Use with
	// attributes: attribute.String("action", ...), attribute.Bool("ok", ...)
	ActionExecutions metric.Int64Counter

	// EventsEmitted counts events published on the event bus, by type.
	//   attribute.String("event_type", ...)
	EventsEmitted metric.Int64Counter

	// ListenerPanics counts event-bus listener panics recovered by
	// internal/eventbus.
	ListenerPanics metric.Int64Counter

	// --- Error counters ---

	// EngineErrors counts EngineError events by code.
	//   attribute.String("code", ...)
	EngineErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveRequests tracks the number of in-flight voice requests (0 or 1
	// for a single-tab engine; kept as a gauge for symmetry with
	// multi-engine deployments such as one engine per browser tab served by
	// a shared devtools bridge process).
	ActiveRequests metric.Int64UpDownCounter

	// --- HTTP middleware (devtools bridge upgrade endpoint) ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for the low-latency, sub-second stages of the voice pipeline.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.KWSFrameDuration, err = m.Float64Histogram("voicepage.kws.frame.duration",
		metric.WithDescription("Latency of one keyword-spotting frame inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VADFrameDuration, err = m.Float64Histogram("voicepage.vad.frame.duration",
		metric.WithDescription("Latency of one VAD window inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ASRDuration, err = m.Float64Histogram("voicepage.asr.duration",
		metric.WithDescription("Latency of transcribing one capture buffer."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.KeywordDetections, err = m.Int64Counter("voicepage.kws.detections",
		metric.WithDescription("Total keyword detections that passed threshold and cooldown, by keyword."),
	); err != nil {
		return nil, err
	}
	if met.KeywordCooldownRejections, err = m.Int64Counter("voicepage.kws.cooldown_rejections",
		metric.WithDescription("Total keyword detections suppressed by the per-keyword cooldown, by keyword."),
	); err != nil {
		return nil, err
	}
	if met.VADBoundaryEvents, err = m.Int64Counter("voicepage.vad.boundary_events",
		metric.WithDescription("Total VAD speech-start/speech-end boundary events, by type."),
	); err != nil {
		return nil, err
	}
	if met.ResolverOutcomes, err = m.Int64Counter("voicepage.resolver.outcomes",
		metric.WithDescription("Total target-resolution outcomes, by kind."),
	); err != nil {
		return nil, err
	}
	if met.ActionExecutions, err = m.Int64Counter("voicepage.action.executions",
		metric.WithDescription("Total default actions executed, by action and success."),
	); err != nil {
		return nil, err
	}
	if met.EventsEmitted, err = m.Int64Counter("voicepage.eventbus.emitted",
		metric.WithDescription("Total events published on the event bus, by event type."),
	); err != nil {
		return nil, err
	}
	if met.ListenerPanics, err = m.Int64Counter("voicepage.eventbus.listener_panics",
		metric.WithDescription("Total event-bus listener panics recovered."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.EngineErrors, err = m.Int64Counter("voicepage.engine.errors",
		metric.WithDescription("Total EngineError events, by code."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveRequests, err = m.Int64UpDownCounter("voicepage.engine.active_requests",
		metric.WithDescription("Number of in-flight voice requests."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voicepage.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordKeywordDetected is a convenience method that records a keyword
// detection counter increment.
func (m *Metrics) RecordKeywordDetected(ctx context.Context, keyword string) {
	m.KeywordDetections.Add(ctx, 1, metric.WithAttributes(attribute.String("keyword", keyword)))
}

// RecordKeywordCooldownRejected records a detection suppressed by cooldown.
func (m *Metrics) RecordKeywordCooldownRejected(ctx context.Context, keyword string) {
	m.KeywordCooldownRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("keyword", keyword)))
}

// RecordVADBoundary records a VAD speech-start/speech-end boundary event.
func (m *Metrics) RecordVADBoundary(ctx context.Context, eventType string) {
	m.VADBoundaryEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}

// RecordResolverOutcome records a target-resolution outcome by kind.
func (m *Metrics) RecordResolverOutcome(ctx context.Context, kind string) {
	m.ResolverOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordActionExecuted records an executed default action and its outcome.
func (m *Metrics) RecordActionExecuted(ctx context.Context, action string, ok bool) {
	m.ActionExecutions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
			attribute.Bool("ok", ok),
		),
	)
}

// RecordEventEmitted records one event-bus publish by event type.
func (m *Metrics) RecordEventEmitted(ctx context.Context, eventType string) {
	m.EventsEmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// RecordListenerPanic records one recovered event-bus listener panic.
func (m *Metrics) RecordListenerPanic(ctx context.Context) {
	m.ListenerPanics.Add(ctx, 1)
}

// RecordEngineError records an EngineError event by code.
func (m *Metrics) RecordEngineError(ctx context.Context, code string) {
	m.EngineErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}
