//go:build js && wasm

// Package jsdom binds element.Element and element.Document onto the real
// browser DOM via syscall/js. This is the one genuinely browser-specific
// package in VoicePage; everything else is portable Go, consistent with
// spec §9's "Browser-specific audio ingestion" design note applied equally
// to DOM access. It has no third-party dependency because there is no Go
// ecosystem alternative for raw DOM access from GOOS=js.
package jsdom

import (
	"strings"
	"syscall/js"

	"github.com/BlaiseCz/VoicePage/internal/domidx/element"
)

// Element wraps a js.Value referring to a DOM Element.
type Element struct {
	v js.Value
}

// Wrap returns an element.Element backed by the given js.Value.
func Wrap(v js.Value) *Element { return &Element{v: v} }

func (e *Element) Tag() string {
	return strings.ToLower(e.v.Get("tagName").String())
}

func (e *Element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e *Element) SetAttr(name, value string) {
	e.v.Call("setAttribute", name, value)
}

func (e *Element) Role() string {
	if v, ok := e.Attr("role"); ok {
		return v
	}
	switch e.Tag() {
	case "button":
		return "button"
	case "a":
		if _, ok := e.Attr("href"); ok {
			return "link"
		}
	case "option":
		return "option"
	}
	return ""
}

func (e *Element) Hidden() bool {
	_, ok := e.Attr("hidden")
	return ok
}

func (e *Element) AriaHidden() bool {
	v, ok := e.Attr("aria-hidden")
	return ok && v == "true"
}

func (e *Element) computedStyle() js.Value {
	return js.Global().Get("window").Call("getComputedStyle", e.v)
}

func (e *Element) DisplayNone() bool {
	return e.computedStyle().Get("display").String() == "none"
}

func (e *Element) VisibilityHidden() bool {
	return e.computedStyle().Get("visibility").String() == "hidden"
}

func (e *Element) HasVisibleRect() bool {
	rects := e.v.Call("getClientRects")
	length := rects.Get("length").Int()
	for i := 0; i < length; i++ {
		r := rects.Call("item", i)
		if r.Get("width").Float() > 0 && r.Get("height").Float() > 0 {
			return true
		}
	}
	return false
}

func (e *Element) StackIndex() int {
	z := e.computedStyle().Get("zIndex").String()
	if z == "auto" || z == "" {
		return 0
	}
	var n int
	var neg bool
	for i, r := range z {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func (e *Element) VisibleText() string {
	return strings.TrimSpace(e.v.Get("innerText").String())
}

func (e *Element) RawText() string {
	return strings.TrimSpace(e.v.Get("textContent").String())
}

func (e *Element) Placeholder() string {
	v, _ := e.Attr("placeholder")
	return v
}

func (e *Element) Title() string {
	v, _ := e.Attr("title")
	return v
}

func (e *Element) Parent() (element.Element, bool) {
	p := e.v.Get("parentElement")
	if p.IsNull() || p.IsUndefined() {
		return nil, false
	}
	return Wrap(p), true
}

func (e *Element) Children() []element.Element {
	kids := e.v.Get("children")
	n := kids.Get("length").Int()
	out := make([]element.Element, n)
	for i := 0; i < n; i++ {
		out[i] = Wrap(kids.Call("item", i))
	}
	return out
}

func (e *Element) Click() error {
	e.v.Call("click")
	return nil
}

func (e *Element) Focus() error {
	e.v.Call("focus")
	return nil
}

func (e *Element) ScrollIntoView() error {
	opts := js.Global().Get("Object").New()
	opts.Set("behavior", "smooth")
	opts.Set("block", "center")
	e.v.Call("scrollIntoView", opts)
	return nil
}

var (
	_ element.Element    = (*Element)(nil)
	_ element.Actionable = (*Element)(nil)
)

// Document wraps the global document object.
type Document struct{}

// NewDocument returns a Document bound to the page's global document.
func NewDocument() *Document { return &Document{} }

func (d *Document) Root() element.Element {
	return Wrap(js.Global().Get("document").Get("documentElement"))
}

func (d *Document) ByID(id string) (element.Element, bool) {
	v := js.Global().Get("document").Call("getElementById", id)
	if v.IsNull() || v.IsUndefined() {
		return nil, false
	}
	return Wrap(v), true
}

var _ element.Document = (*Document)(nil)
