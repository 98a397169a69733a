// Package action executes the default action for a resolved target (spec
// §4.7). It depends only on the element.Actionable capability so it runs
// identically against jsdom and domtest.
package action

import (
	"github.com/BlaiseCz/VoicePage/internal/domidx/element"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// DefaultAction classifies a target element into one of the four default
// actions, per spec §4.7.
func DefaultAction(el element.Element) voicepage.Action {
	switch el.Tag() {
	case "button", "a":
		return voicepage.ActionClick
	case "input", "select", "textarea":
		return voicepage.ActionFocus
	case "summary":
		if p, ok := el.Parent(); ok && p.Tag() == "details" {
			return voicepage.ActionActivate
		}
	}

	switch el.Role() {
	case "button", "link":
		return voicepage.ActionClick
	case "tab", "menuitem", "option":
		return voicepage.ActionActivate
	}

	return voicepage.ActionScrollFocus
}

// Execute runs action against el. It never retries; the caller decides
// whether to surface the returned error as an ActionExecuted failure.
func Execute(el element.Element, act voicepage.Action) error {
	actionable, ok := el.(element.Actionable)
	if !ok {
		return element.ErrNotActionable
	}

	switch act {
	case voicepage.ActionClick, voicepage.ActionActivate:
		return actionable.Click()
	case voicepage.ActionFocus:
		return actionable.Focus()
	case voicepage.ActionScrollFocus:
		if err := actionable.ScrollIntoView(); err != nil {
			return err
		}
		// Best effort: not every scrolled-to element is focusable.
		_ = actionable.Focus()
		return nil
	default:
		return element.ErrUnknownAction
	}
}
