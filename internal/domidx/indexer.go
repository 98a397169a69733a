// Package domidx scans the current visible document and produces the
// Target Index the matcher resolves transcripts against (spec §4.5).
package domidx

import (
	"fmt"
	"strings"

	"github.com/BlaiseCz/VoicePage/internal/domidx/element"
	"github.com/BlaiseCz/VoicePage/internal/normalize"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// Target describes one addressable element (spec §3 "DOM Target").
type Target struct {
	ID       string
	El       element.Element
	RawLabel string
	Label    string
	Synonyms []string
	Risk     voicepage.Risk
}

// Index is a snapshot of addressable elements taken at the start of one
// request (spec §3 "Target Index"). It must be discarded on the next index
// build and never cached across requests.
type Index struct {
	Targets []Target
	Scope   voicepage.Scope
}

// Config carries the subset of engine configuration the indexer needs.
type Config struct {
	// GlobalDenySelectors is a comma-separated selector list; any eligible
	// element matching one of them is excluded unless data-voice-allow
	// overrides it.
	GlobalDenySelectors string
}

var nativeInteractiveTags = map[string]bool{
	"button":   true,
	"select":   true,
	"textarea": true,
}

var roleEligible = map[string]bool{
	"button":   true,
	"link":     true,
	"tab":      true,
	"menuitem": true,
	"option":   true,
}

var textEntryTags = map[string]bool{
	"input":    true,
	"textarea": true,
}

// buildState is the per-Build working state; nextStable numbers the
// data-voice-id values stamped by one Build call and starts at zero each call.
type buildState struct {
	cfg        Config
	denySel    []simpleSelector
	doc        element.Document
	nextStable int
	docOrder   map[element.Element]int
	orderSeq   int
}

// Build computes the current Target Index from doc. It selects a scope root
// (the topmost visible modal, or the whole document), walks the scope root
// for eligible, visible, non-denied elements, derives each one's label and
// synonyms, and stamps a stable data-voice-id on elements that lack one.
func Build(doc element.Document, cfg Config) (Index, error) {
	st := &buildState{
		cfg:      cfg,
		denySel:  parseSelectorList(cfg.GlobalDenySelectors),
		doc:      doc,
		docOrder: map[element.Element]int{},
	}

	root := doc.Root()
	st.assignOrder(root)

	scopeRoot, scope := st.selectScopeRoot(root)

	var targets []Target
	st.walkEligible(scopeRoot, func(el element.Element) {
		t, ok := st.buildTarget(el)
		if ok {
			targets = append(targets, t)
		}
	})

	return Index{Targets: targets, Scope: scope}, nil
}

func (st *buildState) assignOrder(el element.Element) {
	st.docOrder[el] = st.orderSeq
	st.orderSeq++
	for _, c := range el.Children() {
		st.assignOrder(c)
	}
}

// isModalCandidate reports whether el matches one of the scope-root
// triggers in spec §4.5.
func isModalCandidate(el element.Element) bool {
	if el.Tag() == "dialog" {
		if _, ok := el.Attr("open"); ok {
			return true
		}
	}
	ariaModal, hasAriaModal := el.Attr("aria-modal")
	if hasAriaModal && ariaModal == "true" {
		return true
	}
	if v, ok := el.Attr("data-voice-modal"); ok && v == "true" {
		return true
	}
	return false
}

func (st *buildState) selectScopeRoot(root element.Element) (element.Element, voicepage.Scope) {
	var candidates []element.Element
	var walk func(el element.Element)
	walk = func(el element.Element) {
		if isVisible(el) && isModalCandidate(el) {
			candidates = append(candidates, el)
		}
		for _, c := range el.Children() {
			walk(c)
		}
	}
	walk(root)

	if len(candidates) == 0 {
		return root, voicepage.ScopePage
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.StackIndex() > best.StackIndex() {
			best = c
			continue
		}
		if c.StackIndex() == best.StackIndex() && st.docOrder[c] > st.docOrder[best] {
			best = c
		}
	}
	return best, voicepage.ScopeModal
}

// walkEligible visits every eligible candidate element in scopeRoot's
// subtree (including scopeRoot itself) in document order.
func (st *buildState) walkEligible(scopeRoot element.Element, visit func(element.Element)) {
	var walk func(el element.Element)
	walk = func(el element.Element) {
		if isEligibleCandidate(el) {
			visit(el)
		}
		for _, c := range el.Children() {
			walk(c)
		}
	}
	walk(scopeRoot)
}

// isEligibleCandidate reports whether el is a candidate for indexing,
// ignoring label derivation (spec §4.5 "Eligibility").
func isEligibleCandidate(el element.Element) bool {
	if _, ok := el.Attr("data-voice-label"); ok {
		return true
	}
	tag := el.Tag()
	if nativeInteractiveTags[tag] {
		return true
	}
	if tag == "a" {
		if _, ok := el.Attr("href"); ok {
			return true
		}
	}
	if tag == "input" {
		if t, ok := el.Attr("type"); !ok || t != "hidden" {
			return true
		}
		return false
	}
	if tag == "summary" {
		if p, ok := el.Parent(); ok && p.Tag() == "details" {
			return true
		}
	}
	if roleEligible[el.Role()] {
		return true
	}
	return false
}

// isVisible implements spec §4.5 "Visibility".
func isVisible(el element.Element) bool {
	if el.Hidden() {
		return false
	}
	if el.AriaHidden() {
		return false
	}
	if el.DisplayNone() {
		return false
	}
	if el.VisibilityHidden() {
		return false
	}
	return el.HasVisibleRect()
}

// isDenied implements spec §4.5 "Allow/deny".
func (st *buildState) isDenied(el element.Element) bool {
	if v, ok := el.Attr("data-voice-deny"); ok && v == "true" {
		return true
	}
	if matchesAny(st.denySel, el) {
		if v, ok := el.Attr("data-voice-allow"); ok && v == "true" {
			return false
		}
		return true
	}
	return false
}

// buildTarget derives a Target from el, returning ok=false if el is not
// visible, is denied, or yields no label.
func (st *buildState) buildTarget(el element.Element) (Target, bool) {
	if !isVisible(el) {
		return Target{}, false
	}
	if st.isDenied(el) {
		return Target{}, false
	}

	label := st.deriveLabel(el)
	if label == "" {
		return Target{}, false
	}

	id, ok := el.Attr("data-voice-id")
	if !ok || id == "" {
		id = fmt.Sprintf("vp-%d", st.nextStable)
		st.nextStable++
		el.SetAttr("data-voice-id", id)
	}

	var risk voicepage.Risk
	if v, ok := el.Attr("data-voice-risk"); ok && v == "high" {
		risk = voicepage.RiskHigh
	}

	return Target{
		ID:       id,
		El:       el,
		RawLabel: label,
		Label:    normalize.Normalize(label),
		Synonyms: parseSynonyms(el),
		Risk:     risk,
	}, true
}

func parseSynonyms(el element.Element) []string {
	v, ok := el.Attr("data-voice-synonyms")
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		n := normalize.Normalize(p)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// deriveLabel implements spec §4.5 "Label derivation": the first
// non-empty source wins.
func (st *buildState) deriveLabel(el element.Element) string {
	if v, ok := el.Attr("data-voice-label"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := el.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := el.Attr("aria-labelledby"); ok && strings.TrimSpace(v) != "" {
		if joined := st.joinLabelledBy(v); joined != "" {
			return joined
		}
	}
	if textEntryTags[el.Tag()] || el.Tag() == "select" {
		if v := st.associatedLabelText(el); v != "" {
			return v
		}
	}
	if v := el.VisibleText(); strings.TrimSpace(v) != "" {
		return v
	}
	if v := el.RawText(); strings.TrimSpace(v) != "" {
		return v
	}
	if textEntryTags[el.Tag()] {
		if v := el.Placeholder(); strings.TrimSpace(v) != "" {
			return v
		}
	}
	if v := el.Title(); strings.TrimSpace(v) != "" {
		return v
	}
	return ""
}

func (st *buildState) joinLabelledBy(idList string) string {
	var parts []string
	for _, id := range strings.Fields(idList) {
		if ref, ok := st.doc.ByID(id); ok {
			if t := strings.TrimSpace(ref.VisibleText()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// associatedLabelText finds a <label for=id> referencing el's id, or an
// ancestor <label> wrapping el.
func (st *buildState) associatedLabelText(el element.Element) string {
	if id, ok := el.Attr("id"); ok && id != "" {
		var found string
		var walk func(e element.Element)
		walk = func(e element.Element) {
			if found != "" {
				return
			}
			if e.Tag() == "label" {
				if forID, ok := e.Attr("for"); ok && forID == id {
					found = strings.TrimSpace(e.VisibleText())
					return
				}
			}
			for _, c := range e.Children() {
				walk(c)
			}
		}
		walk(st.doc.Root())
		if found != "" {
			return found
		}
	}

	p, ok := el.Parent()
	for ok {
		if p.Tag() == "label" {
			return strings.TrimSpace(p.VisibleText())
		}
		p, ok = p.Parent()
	}
	return ""
}
