// Package matcher resolves a normalized transcript against a Target Index:
// exact match first, then conservative fuzzy matching with a margin
// requirement (spec §4.6). The matcher is pure and allocation-bounded in the
// size of the target index; it never suspends.
package matcher

import (
	"github.com/antzucaro/matchr"

	"github.com/BlaiseCz/VoicePage/internal/domidx"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// Kind discriminates the four possible resolution outcomes.
type Kind string

const (
	Unique           Kind = "unique"
	Ambiguous        Kind = "ambiguous"
	NoMatch          Kind = "no_match"
	Misconfiguration Kind = "misconfiguration"
)

// Result is the outcome of a single Resolve call.
type Result struct {
	Kind Kind

	// Target is set when Kind == Unique.
	Target *domidx.Target

	// Candidates is set when Kind == Ambiguous: every exact match in index
	// order, or, when there is no exact match, every target at or above the
	// fuzzy threshold, best first.
	Candidates []domidx.Target

	// Match records whether Target was resolved via exact or fuzzy
	// matching. Only meaningful when Kind == Unique.
	Match voicepage.MatchKind

	// DuplicateGroups maps a normalized label to the target ids sharing it,
	// populated when Kind == Misconfiguration due to duplicate labels.
	DuplicateGroups map[string][]string
}

// Config carries the resolver thresholds (spec §6 "Configuration").
type Config struct {
	CollisionPolicy voicepage.CollisionPolicy
	FuzzyThreshold  float64
	FuzzyMargin     float64
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		CollisionPolicy: voicepage.PolicyDisambiguate,
		FuzzyThreshold:  0.7,
		FuzzyMargin:     0.15,
	}
}

// Resolve implements spec §4.6 steps 1-4 exactly.
func Resolve(transcript string, idx domidx.Index, cfg Config) Result {
	if cfg.CollisionPolicy == voicepage.PolicyError {
		if dupes := findDuplicateLabels(idx.Targets); len(dupes) > 0 {
			return Result{Kind: Misconfiguration, DuplicateGroups: dupes}
		}
	}

	if exact := exactMatches(transcript, idx.Targets); len(exact) > 0 {
		if len(exact) == 1 {
			t := exact[0]
			return Result{Kind: Unique, Target: &t, Match: voicepage.MatchExact}
		}
		if cfg.CollisionPolicy == voicepage.PolicyError {
			return Result{Kind: Misconfiguration, DuplicateGroups: groupByLabel(exact)}
		}
		return Result{Kind: Ambiguous, Candidates: exact}
	}

	scored := fuzzyScores(transcript, idx.Targets, cfg.FuzzyThreshold)
	if len(scored) == 0 {
		return Result{Kind: NoMatch}
	}
	if len(scored) == 1 {
		t := scored[0].target
		return Result{Kind: Unique, Target: &t, Match: voicepage.MatchFuzzy}
	}

	top, second := scored[0], scored[1]
	if top.score-second.score >= cfg.FuzzyMargin {
		t := top.target
		return Result{Kind: Unique, Target: &t, Match: voicepage.MatchFuzzy}
	}

	candidates := make([]domidx.Target, len(scored))
	for i, s := range scored {
		candidates[i] = s.target
	}
	return Result{Kind: Ambiguous, Candidates: candidates}
}

// findDuplicateLabels scans the full index for normalized labels shared by
// two or more targets, independent of the transcript (spec §4.6 step 1).
func findDuplicateLabels(targets []domidx.Target) map[string][]string {
	byLabel := map[string][]string{}
	for _, t := range targets {
		byLabel[t.Label] = append(byLabel[t.Label], t.ID)
	}
	dupes := map[string][]string{}
	for label, ids := range byLabel {
		if len(ids) >= 2 {
			dupes[label] = ids
		}
	}
	return dupes
}

func groupByLabel(targets []domidx.Target) map[string][]string {
	groups := map[string][]string{}
	for _, t := range targets {
		groups[t.Label] = append(groups[t.Label], t.ID)
	}
	return groups
}

// exactMatches collects every target whose normalized label equals
// transcript, plus every target containing transcript in its synonym list.
func exactMatches(transcript string, targets []domidx.Target) []domidx.Target {
	var out []domidx.Target
	for _, t := range targets {
		if t.Label == transcript {
			out = append(out, t)
			continue
		}
		for _, syn := range t.Synonyms {
			if syn == transcript {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

type scoredTarget struct {
	target domidx.Target
	score  float64
}

// fuzzyScores computes, for each target, the best edit-distance similarity
// across its label and its synonyms, keeps those at or above threshold, and
// sorts them descending (spec §4.6 step 3).
func fuzzyScores(transcript string, targets []domidx.Target, threshold float64) []scoredTarget {
	var out []scoredTarget
	for _, t := range targets {
		best := similarity(transcript, t.Label)
		for _, syn := range t.Synonyms {
			if s := similarity(transcript, syn); s > best {
				best = s
			}
		}
		if best >= threshold {
			out = append(out, scoredTarget{target: t, score: best})
		}
	}
	sortDescending(out)
	return out
}

// similarity computes 1 - d(a, b) / max(|a|, |b|) using Levenshtein edit
// distance (spec §4.6 step 3).
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	d := matchr.Levenshtein(a, b)
	return 1 - float64(d)/float64(maxLen)
}

func sortDescending(s []scoredTarget) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].score > s[j-1].score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
