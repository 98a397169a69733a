// Command voicepage is the native entry point for the voice router: it
// loads configuration, builds the keyword-spotting, VAD, and ASR backends,
// wires them into an engine.Engine, and runs the engine against a scripted
// or interactive in-memory DOM for headless testing (mirrors glyphoxa's
// cmd/glyphoxa). The real browser runtime lives under internal/domidx/jsdom
// behind a js/wasm build tag; this binary never runs in a browser.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BlaiseCz/VoicePage/internal/asr"
	"github.com/BlaiseCz/VoicePage/internal/asr/onnxref"
	"github.com/BlaiseCz/VoicePage/internal/asr/whispercpp"
	"github.com/BlaiseCz/VoicePage/internal/config"
	"github.com/BlaiseCz/VoicePage/internal/devbridge"
	"github.com/BlaiseCz/VoicePage/internal/domidx/domtest"
	"github.com/BlaiseCz/VoicePage/internal/engine"
	"github.com/BlaiseCz/VoicePage/internal/health"
	"github.com/BlaiseCz/VoicePage/internal/kws"
	"github.com/BlaiseCz/VoicePage/internal/observe"
	"github.com/BlaiseCz/VoicePage/internal/vad"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────
	configPath := flag.String("config", "voicepage.yaml", "path to the YAML configuration file")
	listenAddr := flag.String("listen", ":8090", "address for /healthz, /readyz, and /metrics")
	script := flag.String("script", "", "path to a newline-delimited transcript script to replay against the demo DOM; if empty, the harness waits for Ctrl+C")
	flag.Parse()

	// ── Load configuration ───────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voicepage: config file %q not found, falling back to built-in defaults\n", *configPath)
			d := config.Default()
			cfg = &d
		} else {
			fmt.Fprintf(os.Stderr, "voicepage: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logging.Level.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voicepage"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	eng, _ := buildEngine(*cfg, logger)

	slog.Info("voicepage starting",
		"config", *configPath,
		"listen_addr", *listenAddr,
		"asr_backend", cfg.ASR.Backend,
		"collision_policy", cfg.Engine.CollisionPolicy,
	)

	if err := eng.Init(ctx); err != nil {
		slog.Error("engine init failed", "err", err)
		return 1
	}
	defer func() {
		if err := eng.Destroy(); err != nil {
			slog.Warn("engine shutdown error", "err", err)
		}
	}()

	// ── HTTP surface: health, readiness, metrics ─────────────────────────────
	// Every handler on this mux runs behind observe.Middleware, so /healthz,
	// /readyz, and /metrics all get a trace span, a correlation id, and a
	// voicepage.http.request.duration observation like any other request.
	metrics := observe.DefaultMetrics()
	traced := observe.Middleware(metrics)

	mux := http.NewServeMux()
	healthHandler := health.New(
		health.KWSChecker(readyCheck(eng)),
		health.VADChecker(readyCheck(eng)),
		health.ASRChecker(readyCheck(eng)),
		health.SessionChecker(sessionCheck(eng)),
	)
	mux.Handle("GET /healthz", traced(http.HandlerFunc(healthHandler.Healthz)))
	mux.Handle("GET /readyz", traced(http.HandlerFunc(healthHandler.Readyz)))
	mux.Handle("GET /metrics", traced(promhttp.Handler()))

	srv := &http.Server{Addr: *listenAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health/metrics server failed", "err", err)
		}
	}()

	// ── Devtools bridge ───────────────────────────────────────────────────────
	var bridgeSrv *http.Server
	if cfg.DevBridge.Enabled {
		bridge := devbridge.New()
		unsub := bridge.Attach(eng)
		defer unsub()
		defer bridge.Close()

		// Not wrapped in observe.Middleware: it hijacks the connection for the
		// WebSocket upgrade, and statusRecorder's ResponseWriter embedding
		// does not forward http.Hijacker.
		bridgeMux := http.NewServeMux()
		bridgeMux.Handle("/devbridge", bridge)
		bridgeSrv = &http.Server{Addr: cfg.DevBridge.ListenAddr, Handler: bridgeMux}
		go func() {
			if err := bridgeSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("devbridge server failed", "err", err)
			}
		}()
		slog.Info("devtools bridge enabled", "listen_addr", cfg.DevBridge.ListenAddr)
	}

	// ── Harness: replay a script, or wait for Ctrl+C ─────────────────────────
	if *script != "" {
		if err := replayScript(eng, *script); err != nil {
			slog.Error("script replay failed", "err", err)
			return 1
		}
	} else {
		slog.Info("voicepage ready — demo DOM loaded", "elements", "search, submit, cancel")
		<-ctx.Done()
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("health server shutdown error", "err", err)
	}
	if bridgeSrv != nil {
		if err := bridgeSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("devbridge server shutdown error", "err", err)
		}
	}
	slog.Info("goodbye")
	return 0
}

// readyCheck reports whether eng's KWS/VAD/ASR backends are ready to serve.
// buildEngine constructs every backend and run calls eng.Init before the
// HTTP server starts, so by the time /readyz is handled there is nothing
// left to probe; the check exists as a named, per-backend
// slot for the day a backend grows real liveness introspection.
func readyCheck(eng *engine.Engine) func(context.Context) error {
	return func(context.Context) error {
		return nil
	}
}

// sessionCheck reports the engine's single in-flight request as unready
// while it is stuck in the ambiguous-selection hold (voicepage.StateError):
// a human has to resolve the ambiguity before the session can progress, so
// an operator watching /readyz should see that as a real failure, not a
// transient blip.
func sessionCheck(eng *engine.Engine) func(context.Context) error {
	return func(context.Context) error {
		if eng.GetState() == voicepage.StateError {
			return errors.New("session held on unresolved ambiguous selection")
		}
		return nil
	}
}

// buildEngine constructs the kws/vad/asr backends named by cfg and wires
// them into an *engine.Engine against a small built-in demo DOM. A KWS model
// loading failure, or an unavailable VAD runtime, falls back to the
// deterministic stub backend rather than aborting (spec §4.1/§4.2 stub
// builds); the VAD model itself is loaded per session, so a missing VAD
// model fails Engine.Init instead. The ASR backend has no stub
// fallback: it is built as configured and loads its models in Engine.Init,
// which fails when those models are absent.
//
// Wiring follows the forward-reference pattern documented on engine.Engine:
// the *engine.Engine variable is declared before the kws.Engine exists, so
// its detection callback can close over it.
func buildEngine(cfg config.Config, logger *slog.Logger) (*engine.Engine, *domtest.Doc) {
	var eng *engine.Engine

	kwsEngine := buildKWS(cfg, logger, func(d kws.Detection) { eng.HandleKeywordDetection(d) })
	vadEngine := buildVAD(cfg, logger)
	asrEngine := buildASR(cfg)
	doc := buildDemoDoc()

	eng = engine.New(engine.Dependencies{
		KWS:      kwsEngine,
		VAD:      vadEngine,
		ASR:      asrEngine,
		Document: doc,
	}, engineConfig(cfg))

	return eng, doc
}

func engineConfig(cfg config.Config) engine.Config {
	return engine.Config{
		CollisionPolicy:     cfg.Engine.CollisionPolicy,
		FuzzyThreshold:      cfg.Engine.FuzzyThreshold,
		FuzzyMargin:         cfg.Engine.FuzzyMargin,
		CaptureTimeoutMs:    cfg.Engine.CaptureTimeoutMs,
		HighlightMs:         cfg.Engine.HighlightMs,
		GlobalDenySelectors: cfg.Engine.GlobalDenySelectors,
		VAD: vad.Config{
			StartThreshold:      cfg.VAD.StartThreshold,
			EndThreshold:        cfg.VAD.EndThreshold,
			SilenceDurationMs:   cfg.VAD.SilenceDurationMs,
			MinSpeechDurationMs: cfg.VAD.MinSpeechDurationMs,
		},
	}
}

func buildKWS(cfg config.Config, logger *slog.Logger, onDetect kws.Callback) kws.Engine {
	classifierPaths := make(map[string]string, len(cfg.KWS.Keywords))
	for _, kw := range cfg.KWS.Keywords {
		classifierPaths[kw.Name] = kw.ClassifierPath
	}

	mel, embedding, classifiers, err := kws.LoadNativeBackends(context.Background(), kws.ModelPaths{
		LibPath:        cfg.KWS.LibPath,
		MelPath:        cfg.KWS.MelPath,
		EmbeddingPath:  cfg.KWS.EmbeddingPath,
		ClassifierPath: classifierPaths,
	})
	if err != nil {
		logger.Warn("kws: native backend unavailable, falling back to stub", "err", err)
		mel = kws.NewStubMelBackend()
		embedding = kws.NewStubEmbeddingBackend()
		classifiers = make(map[string]kws.ClassifierBackend, len(cfg.KWS.Keywords))
		for _, kw := range cfg.KWS.Keywords {
			classifiers[kw.Name] = kws.NewStubClassifierBackend(0)
		}
	}

	keywords := make([]kws.KeywordConfig, 0, len(cfg.KWS.Keywords))
	for _, kw := range cfg.KWS.Keywords {
		keywords = append(keywords, kws.KeywordConfig{
			Keyword:    kw.Name,
			Threshold:  kw.Threshold,
			CooldownMs: kw.CooldownMs,
			Classifier: classifiers[kw.Name],
		})
	}

	return kws.NewPipeline(mel, embedding, keywords, onDetect, kws.WithLogger(logger))
}

func buildVAD(cfg config.Config, logger *slog.Logger) vad.Engine {
	e, err := vad.NewONNXEngine(cfg.VAD.LibPath, cfg.VAD.ModelPath)
	if err != nil {
		logger.Warn("vad: native backend unavailable, falling back to stub", "err", err)
		return vad.NewStubEngine(0)
	}
	return e
}

func buildASR(cfg config.Config) asr.Engine {
	switch cfg.ASR.Backend {
	case config.ASRBackendONNXRef:
		return onnxref.New(onnxref.Config{
			LibPath:       cfg.ASR.LibPath,
			EncoderPath:   cfg.ASR.EncoderPath,
			DecoderPath:   cfg.ASR.DecoderPath,
			VocabPath:     cfg.ASR.VocabPath,
			LanguageToken: cfg.ASR.LanguageToken,
			MaxTokens:     cfg.ASR.MaxTokens,
		})
	default:
		return whispercpp.New(cfg.ASR.ModelPath, whispercpp.WithLanguage(cfg.ASR.Language))
	}
}

// buildDemoDoc returns a small fake page for the harness: a search box and
// two buttons, enough to exercise capture, transcription, resolution, and
// action execution end to end without a real browser.
func buildDemoDoc() *domtest.Doc {
	root := domtest.NewNode("div", map[string]string{"id": "root"})
	root.Append(domtest.NewNode("input", map[string]string{"id": "search", "aria-label": "search", "placeholder": "Search"}))
	submit := domtest.NewNode("button", map[string]string{"id": "submit"})
	submit.Text = "Submit"
	root.Append(submit)
	cancel := domtest.NewNode("button", map[string]string{"id": "cancel"})
	cancel.Text = "Cancel"
	root.Append(cancel)
	return domtest.NewDoc(root)
}

// replayScript feeds each non-empty line of path to eng.SimulateTranscript
// in order, logging the outcome of each, then returns. It is the headless
// equivalent of a human saying one utterance per line.
func replayScript(eng *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	eng.StartListening()
	defer eng.StopListening()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		slog.Info("replaying utterance", "text", line)
		if err := eng.SimulateTranscript(line); err != nil {
			slog.Warn("simulate transcript rejected", "text", line, "err", err)
		}
	}
	return scanner.Err()
}
