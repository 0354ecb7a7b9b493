package main

import (
	"path/filepath"
	"testing"
)

func TestRequireArchiveFlagRejectsEmptyPath(t *testing.T) {
	original := archivePath
	defer func() { archivePath = original }()

	archivePath = ""
	if err := requireArchiveFlag(); err == nil {
		t.Fatal("expected an error when --archive is empty")
	}

	archivePath = "/tmp/example.elf"
	if err := requireArchiveFlag(); err != nil {
		t.Fatalf("unexpected error with a non-empty path: %v", err)
	}
}

func TestOpenSessionCreatesArchiveWhenPathDoesNotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.elf")

	s, err := openSession(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.closeWithoutSaving()
}

func TestSaveAndCloseThenReopenRoundTripsAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.elf")

	s, err := openSession(path)
	if err != nil {
		t.Fatalf("unexpected error creating session: %v", err)
	}
	if err := s.saveAndClose(path); err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}

	reopened, err := openSession(path)
	if err != nil {
		t.Fatalf("unexpected error reopening: %v", err)
	}
	reopened.closeWithoutSaving()
}
