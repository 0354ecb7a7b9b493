package model

import (
	"encoding/json"
	"testing"
)

func TestNewEditorWithTypeDefaultsEmptyToHuman(t *testing.T) {
	e := NewEditorWithType("editor-1", "Alice", "")
	if e.EditorType != EditorHuman {
		t.Fatalf("expected empty type to default to Human, got %q", e.EditorType)
	}
}

func TestEditorUnmarshalDefaultsMissingType(t *testing.T) {
	var e Editor
	if err := json.Unmarshal([]byte(`{"editor_id":"editor-1","name":"Alice"}`), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.EditorType != EditorHuman {
		t.Fatalf("expected missing editor_type to default to Human, got %q", e.EditorType)
	}
}

func TestEditorUnmarshalPreservesExplicitType(t *testing.T) {
	var e Editor
	if err := json.Unmarshal([]byte(`{"editor_id":"bot-1","name":"Botty","editor_type":"Bot"}`), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.EditorType != EditorBot {
		t.Fatalf("expected explicit Bot type to be preserved, got %q", e.EditorType)
	}
}
