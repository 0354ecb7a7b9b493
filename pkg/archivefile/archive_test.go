package archivefile

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestNewArchiveHasOnlyAManifest(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	entries, err := os.ReadDir(a.TempPath())
	if err != nil {
		t.Fatalf("unexpected error reading temp dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != manifestFilename {
		t.Fatalf("expected a fresh archive's temp dir to hold only its manifest, got %v", entries)
	}
	if a.Manifest().FormatVersion != CurrentFormatVersion {
		t.Fatalf("expected format version %d, got %d", CurrentFormatVersion, a.Manifest().FormatVersion)
	}
	if a.Manifest().CreatedAt == "" {
		t.Fatal("expected a non-empty created_at timestamp")
	}
}

func TestOpenReadsBackManifestWrittenBySave(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	os.WriteFile(a.EventDBPath(), []byte("db"), 0o644)
	originalManifest := a.Manifest()

	elfPath := filepath.Join(t.TempDir(), "archive.elf")
	if err := a.Save(elfPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Close()

	reopened, err := Open(elfPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reopened.Close()

	if reopened.Manifest() != originalManifest {
		t.Fatalf("expected manifest to round-trip, got %+v want %+v", reopened.Manifest(), originalManifest)
	}
}

func TestOpenTreatsMissingManifestAsZeroValue(t *testing.T) {
	elfPath := filepath.Join(t.TempDir(), "legacy.elf")
	out, err := os.Create(elfPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zw := zip.NewWriter(out)
	w, _ := zw.Create("events.db")
	w.Write([]byte("db"))
	zw.Close()
	out.Close()

	a, err := Open(elfPath)
	if err != nil {
		t.Fatalf("unexpected error opening a manifest-less archive: %v", err)
	}
	defer a.Close()
	if a.Manifest().FormatVersion != 0 {
		t.Fatalf("expected zero-value manifest for a legacy archive, got %+v", a.Manifest())
	}
}

func TestSaveThenOpenRoundTrips(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(a.EventDBPath(), []byte("db-bytes"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blockDir := filepath.Join(a.TempPath(), "block-1")
	if err := os.MkdirAll(blockDir, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(blockDir, "body.md"), []byte("# hi"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	elfPath := filepath.Join(t.TempDir(), "archive.elf")
	if err := a.Save(elfPath); err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	reopened, err := Open(elfPath)
	if err != nil {
		t.Fatalf("unexpected error reopening: %v", err)
	}
	defer reopened.Close()

	dbBytes, err := os.ReadFile(reopened.EventDBPath())
	if err != nil {
		t.Fatalf("unexpected error reading db: %v", err)
	}
	if string(dbBytes) != "db-bytes" {
		t.Fatalf("expected db-bytes to round-trip, got %q", dbBytes)
	}
	bodyBytes, err := os.ReadFile(filepath.Join(reopened.TempPath(), "block-1", "body.md"))
	if err != nil {
		t.Fatalf("unexpected error reading body.md: %v", err)
	}
	if string(bodyBytes) != "# hi" {
		t.Fatalf("expected body.md to round-trip, got %q", bodyBytes)
	}
}

func TestOpenRejectsPathTraversalBeforeExtractingAnything(t *testing.T) {
	elfPath := filepath.Join(t.TempDir(), "malicious.elf")
	out, err := os.Create(elfPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zw := zip.NewWriter(out)
	w, err := zw.Create("safe.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Write([]byte("safe"))
	w, err = zw.Create("../escape.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Write([]byte("escape"))
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out.Close()

	_, err = Open(elfPath)
	if err == nil {
		t.Fatal("expected path traversal entry to be rejected")
	}
}

func TestOpenRejectsAbsolutePath(t *testing.T) {
	elfPath := filepath.Join(t.TempDir(), "malicious.elf")
	out, err := os.Create(elfPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zw := zip.NewWriter(out)
	w, err := zw.Create("/etc/passwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Write([]byte("nope"))
	zw.Close()
	out.Close()

	_, err = Open(elfPath)
	if err == nil {
		t.Fatal("expected absolute-path entry to be rejected")
	}
}

func TestValidateEntryPathAcceptsOrdinaryRelativePaths(t *testing.T) {
	if err := validateEntryPath("block-1/body.md"); err != nil {
		t.Fatalf("unexpected error for an ordinary relative path: %v", err)
	}
	if err := validateEntryPath("events.db"); err != nil {
		t.Fatalf("unexpected error for a root-level file: %v", err)
	}
}
