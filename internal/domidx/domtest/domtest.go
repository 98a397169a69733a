// Package domtest provides an in-memory fake implementation of
// element.Element and element.Document for use in indexer, matcher, and
// engine tests, and by the cmd/voicepage scripted test harness. It mirrors
// the hand-written struct-based mock packages used elsewhere in the module
// (no mocking framework, recorded calls for assertions).
package domtest

import (
	"strings"

	"github.com/BlaiseCz/VoicePage/internal/domidx/element"
)

// defaultRoles maps native tags to their implicit ARIA role, used by
// Element.Role when no explicit role attribute is set.
var defaultRoles = map[string]string{
	"button": "button",
	"a":      "link",
	"option": "option",
}

// Node is a fake DOM element. Build a tree by nesting Node literals (or
// appending to Children) and wrap the root in a Doc.
type Node struct {
	TagName  string
	Attrs    map[string]string
	Text     string // VisibleText/RawText; set one value for both in tests
	Rect     bool   // HasVisibleRect result; defaults true unless explicitly hidden
	Stack    int
	Parent_  *Node
	Kids     []*Node

	// Actionable call recording.
	ClickCalls          int
	FocusCalls          int
	ScrollIntoViewCalls int
	ActionErr           error
}

// NewNode creates a Node with the given tag and attributes, visible by
// default.
func NewNode(tag string, attrs map[string]string) *Node {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Node{TagName: tag, Attrs: attrs, Rect: true}
}

// Append adds child as a direct child of n, wiring up the parent link.
func (n *Node) Append(child *Node) *Node {
	child.Parent_ = n
	n.Kids = append(n.Kids, child)
	return n
}

func (n *Node) Tag() string { return n.TagName }

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[name] = value
}

func (n *Node) Role() string {
	if v, ok := n.Attrs["role"]; ok {
		return v
	}
	return defaultRoles[n.TagName]
}

func (n *Node) Hidden() bool {
	_, ok := n.Attrs["hidden"]
	return ok
}

func (n *Node) AriaHidden() bool {
	v, ok := n.Attrs["aria-hidden"]
	return ok && v == "true"
}

func (n *Node) DisplayNone() bool {
	return n.Attrs["style-display"] == "none"
}

func (n *Node) VisibilityHidden() bool {
	return n.Attrs["style-visibility"] == "hidden"
}

func (n *Node) HasVisibleRect() bool { return n.Rect }

func (n *Node) StackIndex() int { return n.Stack }

func (n *Node) VisibleText() string {
	return strings.TrimSpace(n.Text)
}

func (n *Node) RawText() string {
	return strings.TrimSpace(n.Text)
}

func (n *Node) Placeholder() string { return n.Attrs["placeholder"] }

func (n *Node) Title() string { return n.Attrs["title"] }

func (n *Node) Parent() (element.Element, bool) {
	if n.Parent_ == nil {
		return nil, false
	}
	return n.Parent_, true
}

func (n *Node) Children() []element.Element {
	out := make([]element.Element, len(n.Kids))
	for i, k := range n.Kids {
		out[i] = k
	}
	return out
}

func (n *Node) Click() error {
	n.ClickCalls++
	return n.ActionErr
}

func (n *Node) Focus() error {
	n.FocusCalls++
	return n.ActionErr
}

func (n *Node) ScrollIntoView() error {
	n.ScrollIntoViewCalls++
	return n.ActionErr
}

var (
	_ element.Element    = (*Node)(nil)
	_ element.Actionable = (*Node)(nil)
)

// Doc is a fake element.Document backed by a Node tree.
type Doc struct {
	RootNode *Node
}

// NewDoc wraps root as a document.
func NewDoc(root *Node) *Doc {
	return &Doc{RootNode: root}
}

func (d *Doc) Root() element.Element { return d.RootNode }

func (d *Doc) ByID(id string) (element.Element, bool) {
	var found *Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if found != nil {
			return
		}
		if v, ok := n.Attrs["id"]; ok && v == id {
			found = n
			return
		}
		for _, k := range n.Kids {
			walk(k)
		}
	}
	walk(d.RootNode)
	if found == nil {
		return nil, false
	}
	return found, true
}

var _ element.Document = (*Doc)(nil)
