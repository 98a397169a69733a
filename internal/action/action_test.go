package action

import (
	"errors"
	"testing"

	"github.com/BlaiseCz/VoicePage/internal/domidx/domtest"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

func TestDefaultActionButton(t *testing.T) {
	n := domtest.NewNode("button", nil)
	if got := DefaultAction(n); got != voicepage.ActionClick {
		t.Fatalf("expected click, got %v", got)
	}
}

func TestDefaultActionAnchor(t *testing.T) {
	n := domtest.NewNode("a", map[string]string{"href": "/x"})
	if got := DefaultAction(n); got != voicepage.ActionClick {
		t.Fatalf("expected click, got %v", got)
	}
}

func TestDefaultActionTextInput(t *testing.T) {
	n := domtest.NewNode("input", map[string]string{"type": "text"})
	if got := DefaultAction(n); got != voicepage.ActionFocus {
		t.Fatalf("expected focus, got %v", got)
	}
}

func TestDefaultActionTab(t *testing.T) {
	n := domtest.NewNode("div", map[string]string{"role": "tab"})
	if got := DefaultAction(n); got != voicepage.ActionActivate {
		t.Fatalf("expected activate, got %v", got)
	}
}

func TestDefaultActionSummaryUnderDetails(t *testing.T) {
	details := domtest.NewNode("details", nil)
	summary := domtest.NewNode("summary", nil)
	details.Append(summary)
	if got := DefaultAction(summary); got != voicepage.ActionActivate {
		t.Fatalf("expected activate, got %v", got)
	}
}

func TestDefaultActionFallsBackToScrollFocus(t *testing.T) {
	n := domtest.NewNode("div", nil)
	if got := DefaultAction(n); got != voicepage.ActionScrollFocus {
		t.Fatalf("expected scroll_focus, got %v", got)
	}
}

func TestExecuteClick(t *testing.T) {
	n := domtest.NewNode("button", nil)
	if err := Execute(n, voicepage.ActionClick); err != nil {
		t.Fatal(err)
	}
	if n.ClickCalls != 1 {
		t.Fatalf("expected 1 click call, got %d", n.ClickCalls)
	}
}

func TestExecuteScrollFocusBestEffortFocus(t *testing.T) {
	n := domtest.NewNode("div", nil)
	if err := Execute(n, voicepage.ActionScrollFocus); err != nil {
		t.Fatal(err)
	}
	if n.ScrollIntoViewCalls != 1 || n.FocusCalls != 1 {
		t.Fatalf("expected scroll+focus calls, got scroll=%d focus=%d", n.ScrollIntoViewCalls, n.FocusCalls)
	}
}

func TestExecutePropagatesError(t *testing.T) {
	n := domtest.NewNode("button", nil)
	n.ActionErr = errors.New("boom")
	if err := Execute(n, voicepage.ActionClick); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestExecuteNeverRetries(t *testing.T) {
	n := domtest.NewNode("button", nil)
	n.ActionErr = errors.New("boom")
	_ = Execute(n, voicepage.ActionClick)
	if n.ClickCalls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", n.ClickCalls)
	}
}
