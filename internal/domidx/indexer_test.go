package domidx

import (
	"testing"

	"github.com/BlaiseCz/VoicePage/internal/domidx/domtest"
	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

func TestBuildIndexBasicButton(t *testing.T) {
	root := domtest.NewNode("div", nil)
	btn := domtest.NewNode("button", nil)
	btn.Text = "Submit"
	root.Append(btn)
	doc := domtest.NewDoc(root)

	idx, err := Build(doc, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Scope != voicepage.ScopePage {
		t.Fatalf("expected page scope, got %v", idx.Scope)
	}
	if len(idx.Targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(idx.Targets))
	}
	if idx.Targets[0].Label != "submit" {
		t.Fatalf("expected label 'submit', got %q", idx.Targets[0].Label)
	}
	if _, ok := btn.Attr("data-voice-id"); !ok {
		t.Fatal("expected stable id to be stamped")
	}
}

func TestBuildIndexSynonymsAndOverrideLabel(t *testing.T) {
	root := domtest.NewNode("div", nil)
	link := domtest.NewNode("a", map[string]string{
		"href":                "/billing",
		"data-voice-label":    "Billing",
		"data-voice-synonyms": "invoices, payments",
	})
	root.Append(link)
	doc := domtest.NewDoc(root)

	idx, err := Build(doc, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(idx.Targets))
	}
	tgt := idx.Targets[0]
	if tgt.Label != "billing" {
		t.Fatalf("expected label 'billing', got %q", tgt.Label)
	}
	if len(tgt.Synonyms) != 2 || tgt.Synonyms[0] != "invoices" || tgt.Synonyms[1] != "payments" {
		t.Fatalf("unexpected synonyms: %v", tgt.Synonyms)
	}
}

func TestBuildIndexDenyAndAllow(t *testing.T) {
	root := domtest.NewNode("div", nil)
	denied := domtest.NewNode("button", map[string]string{"data-voice-deny": "true"})
	denied.Text = "Delete"
	globalDenied := domtest.NewNode("button", map[string]string{"class": "tracking"})
	globalDenied.Text = "Track"
	allowed := domtest.NewNode("button", map[string]string{"class": "tracking", "data-voice-allow": "true"})
	allowed.Text = "Allowed"
	root.Append(denied).Append(globalDenied).Append(allowed)
	doc := domtest.NewDoc(root)

	idx, err := Build(doc, Config{GlobalDenySelectors: ".tracking"})
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Targets) != 1 {
		t.Fatalf("expected 1 target, got %d: %+v", len(idx.Targets), idx.Targets)
	}
	if idx.Targets[0].Label != "allowed" {
		t.Fatalf("expected 'allowed' to survive, got %q", idx.Targets[0].Label)
	}
}

func TestBuildIndexModalScope(t *testing.T) {
	root := domtest.NewNode("div", nil)
	bgClose := domtest.NewNode("button", nil)
	bgClose.Text = "Close"
	root.Append(bgClose)

	dialog := domtest.NewNode("div", map[string]string{"role": "dialog", "aria-modal": "true"})
	dialogClose := domtest.NewNode("button", nil)
	dialogClose.Text = "Close"
	dialog.Append(dialogClose)
	root.Append(dialog)

	doc := domtest.NewDoc(root)
	idx, err := Build(doc, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Scope != voicepage.ScopeModal {
		t.Fatalf("expected modal scope, got %v", idx.Scope)
	}
	if len(idx.Targets) != 1 {
		t.Fatalf("expected only the dialog's button, got %d", len(idx.Targets))
	}
	if idx.Targets[0].El != dialogClose {
		t.Fatal("expected the dialog's close button to be the only target")
	}
}

func TestBuildIndexHiddenExcluded(t *testing.T) {
	root := domtest.NewNode("div", nil)
	hidden := domtest.NewNode("button", map[string]string{"hidden": ""})
	hidden.Text = "Hidden"
	root.Append(hidden)
	doc := domtest.NewDoc(root)

	idx, err := Build(doc, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Targets) != 0 {
		t.Fatalf("expected hidden button to be excluded, got %d targets", len(idx.Targets))
	}
}
