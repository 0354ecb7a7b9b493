package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteMarkdownBlockProducesBodyMD(t *testing.T) {
	dir := t.TempDir()
	err := Write(dir, "block-1", "markdown", "notes", map[string]any{"markdown": "# hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "block-block-1", "body.md"))
	if err != nil {
		t.Fatalf("unexpected error reading snapshot: %v", err)
	}
	if string(got) != "# hello" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestWriteCodeBlockUsesNameExtension(t *testing.T) {
	dir := t.TempDir()
	err := Write(dir, "block-1", "code", "main.go", map[string]any{"text": "package main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "block-block-1", "body.go")); err != nil {
		t.Fatalf("expected body.go to exist: %v", err)
	}
}

func TestWriteCodeBlockWithoutExtensionFallsBackToTxt(t *testing.T) {
	dir := t.TempDir()
	err := Write(dir, "block-1", "code", "Makefile", map[string]any{"text": "all:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "block-block-1", "body.txt")); err != nil {
		t.Fatalf("expected body.txt fallback to exist: %v", err)
	}
}

func TestWriteDirectoryBlockProducesJSON(t *testing.T) {
	dir := t.TempDir()
	err := Write(dir, "block-1", "directory", "folder", map[string]any{"entries": []string{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "block-block-1", "body.json"))
	if err != nil {
		t.Fatalf("unexpected error reading snapshot: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected non-empty json snapshot")
	}
}

func TestWriteMissingContentIsSilentNoOp(t *testing.T) {
	dir := t.TempDir()
	err := Write(dir, "block-1", "markdown", "notes", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "block-block-1", "body.md")); !os.IsNotExist(err) {
		t.Fatal("expected no snapshot file to be written for missing content")
	}
}

func TestWriteUnknownBlockTypeIsSilentNoOp(t *testing.T) {
	dir := t.TempDir()
	err := Write(dir, "block-1", "mystery", "thing", map[string]any{"markdown": "irrelevant"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "block-block-1"))
	if len(entries) != 0 {
		t.Fatalf("expected no snapshot files for an unknown block type, got %v", entries)
	}
}
