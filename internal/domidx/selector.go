package domidx

import (
	"strings"

	"github.com/BlaiseCz/VoicePage/internal/domidx/element"
)

// simpleSelector is the subset of CSS the global deny list supports: an
// optional tag name plus any number of #id, .class, and [attr] / [attr=val]
// qualifiers, all of which must match (no combinators, no pseudo-classes).
// This is deliberately narrow — the indexer is host-neutral and has no
// access to a real CSS engine; deny rules are expected to be simple
// authoring conventions like "[data-analytics]" or "button.danger".
type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	name     string
	value    string
	hasValue bool
}

// parseSelectorList splits a comma-separated selector list into individual
// simpleSelectors, skipping blank entries.
func parseSelectorList(s string) []simpleSelector {
	var out []simpleSelector
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, parseSimpleSelector(part))
	}
	return out
}

func parseSimpleSelector(s string) simpleSelector {
	var sel simpleSelector
	for len(s) > 0 {
		switch s[0] {
		case '#':
			end := qualifierEnd(s[1:])
			sel.id = s[1 : 1+end]
			s = s[1+end:]
		case '.':
			end := qualifierEnd(s[1:])
			sel.classes = append(sel.classes, s[1:1+end])
			s = s[1+end:]
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				s = ""
				break
			}
			inner := s[1:end]
			s = s[end+1:]
			if eq := strings.IndexByte(inner, '='); eq >= 0 {
				val := strings.Trim(inner[eq+1:], `"'`)
				sel.attrs = append(sel.attrs, attrMatch{name: strings.TrimSpace(inner[:eq]), value: val, hasValue: true})
			} else {
				sel.attrs = append(sel.attrs, attrMatch{name: strings.TrimSpace(inner)})
			}
		default:
			end := qualifierEnd(s)
			sel.tag = strings.ToLower(s[:end])
			s = s[end:]
		}
	}
	return sel
}

// qualifierEnd returns the index of the next qualifier start (#, ., [) in s,
// or len(s) if none.
func qualifierEnd(s string) int {
	for i, r := range s {
		if r == '#' || r == '.' || r == '[' {
			return i
		}
	}
	return len(s)
}

func (sel simpleSelector) matches(el element.Element) bool {
	if sel.tag != "" && sel.tag != el.Tag() {
		return false
	}
	if sel.id != "" {
		v, ok := el.Attr("id")
		if !ok || v != sel.id {
			return false
		}
	}
	if len(sel.classes) > 0 {
		classAttr, _ := el.Attr("class")
		tokens := strings.Fields(classAttr)
		for _, want := range sel.classes {
			if !contains(tokens, want) {
				return false
			}
		}
	}
	for _, am := range sel.attrs {
		v, ok := el.Attr(am.name)
		if !ok {
			return false
		}
		if am.hasValue && v != am.value {
			return false
		}
	}
	return true
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// matchesAny reports whether el matches any selector in the list.
func matchesAny(selectors []simpleSelector, el element.Element) bool {
	for _, sel := range selectors {
		if sel.matches(el) {
			return true
		}
	}
	return false
}
