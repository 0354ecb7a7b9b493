// Package archivefile reads and writes the .elf archive format: a zip
// file containing events.db at its root plus a block-{id}/ directory per
// block with derived content. The temp directory backing an open archive
// is exactly what the engine actor treats as its scratch directory.
package archivefile

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/elfiee/elfiee/pkg/model"
)

const dbFilename = "events.db"

// Archive is an open .elf archive backed by a temp directory on disk.
type Archive struct {
	tempDir  string
	dbPath   string
	manifest Manifest
}

// New creates a brand new empty archive in a fresh temp directory. The
// caller is responsible for creating an event store at EventDBPath().
func New() (*Archive, error) {
	dir, err := os.MkdirTemp("", "elfiee-archive-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	manifest, err := writeManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return &Archive{tempDir: dir, dbPath: filepath.Join(dir, dbFilename), manifest: manifest}, nil
}

// Manifest returns the archive's format version and creation time.
func (a *Archive) Manifest() Manifest { return a.manifest }

// Open extracts an existing .elf file into a fresh temp directory.
//
// Every entry's path is validated before ANYTHING is extracted: a
// path-traversal or absolute-path entry must fail before a single byte is
// written to disk, not partway through extraction. Entry sizes are not
// checked.
func Open(elfPath string) (*Archive, error) {
	r, err := zip.OpenReader(elfPath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := validateEntryPath(f.Name); err != nil {
			return nil, err
		}
	}

	dir, err := os.MkdirTemp("", "elfiee-archive-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	for _, f := range r.File {
		outPath := filepath.Join(dir, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return nil, fmt.Errorf("create dir %s: %w", f.Name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return nil, fmt.Errorf("create parent dir for %s: %w", f.Name, err)
		}
		if err := extractFile(f, outPath); err != nil {
			return nil, err
		}
	}

	manifest, err := readManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return &Archive{tempDir: dir, dbPath: filepath.Join(dir, dbFilename), manifest: manifest}, nil
}

// validateEntryPath rejects any zip entry that could escape the
// extraction root: absolute paths, ".." traversal components, and
// (defensively) empty names.
func validateEntryPath(name string) error {
	if name == "" {
		return model.ArchiveInvalid("empty zip entry name")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return model.ArchiveInvalid("absolute path in archive entry: " + name)
	}
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return model.ArchiveInvalid("path traversal in archive entry: " + name)
		}
	}
	return nil
}

func extractFile(f *zip.File, outPath string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o200)
	if err != nil {
		return fmt.Errorf("create file %s: %w", outPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}

// Save writes every file under the archive's temp directory into a new
// .elf zip file at elfPath, streaming each file rather than buffering it
// whole in memory.
func (a *Archive) Save(elfPath string) error {
	out, err := os.Create(elfPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", elfPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.Walk(a.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(a.tempDir, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("add entry %s: %w", rel, err)
		}
		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// EventDBPath returns the path the event store should open within this
// archive's temp directory.
func (a *Archive) EventDBPath() string { return a.dbPath }

// TempPath returns the archive's backing temp directory — the same
// directory the engine actor uses as its scratch directory for block
// content and snapshots.
func (a *Archive) TempPath() string { return a.tempDir }

// Close removes the archive's temp directory entirely.
func (a *Archive) Close() error {
	return os.RemoveAll(a.tempDir)
}
