package model

import "testing"

func TestSplitAttributeParsesEditorAndCapID(t *testing.T) {
	editorID, capID, ok := SplitAttribute("editor-1/core.create")
	if !ok {
		t.Fatal("expected a well-formed attribute to parse")
	}
	if editorID != "editor-1" || capID != "core.create" {
		t.Fatalf("got editorID=%q capID=%q", editorID, capID)
	}
}

func TestSplitAttributeSplitsOnFirstSlashOnly(t *testing.T) {
	editorID, capID, ok := SplitAttribute("editor-1/ext.path/with/slashes")
	if !ok {
		t.Fatal("expected a well-formed attribute to parse")
	}
	if editorID != "editor-1" || capID != "ext.path/with/slashes" {
		t.Fatalf("got editorID=%q capID=%q", editorID, capID)
	}
}

func TestSplitAttributeRejectsMissingSlash(t *testing.T) {
	_, _, ok := SplitAttribute("malformed")
	if ok {
		t.Fatal("expected a slash-less attribute to be rejected")
	}
}

func TestAttributeBuildsCanonicalForm(t *testing.T) {
	if got := Attribute("editor-1", "core.create"); got != "editor-1/core.create" {
		t.Fatalf("got %q", got)
	}
}

func TestAttributeRoundTripsThroughSplitAttribute(t *testing.T) {
	editorID, capID, ok := SplitAttribute(Attribute("editor-9", "core.link"))
	if !ok || editorID != "editor-9" || capID != "core.link" {
		t.Fatalf("round trip failed: editorID=%q capID=%q ok=%v", editorID, capID, ok)
	}
}
