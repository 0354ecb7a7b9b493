// Package snapshot writes derived, human-readable files alongside the event
// log so external tools (symlinks, migration scripts, quick-look previews)
// have something to read without decoding events. The event log remains the
// source of truth; every file this package writes can be regenerated from
// it.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Write writes the derived snapshot file for a block into
// <tempDir>/block-{blockID}/{filename}, creating the directory if needed.
// Missing content (e.g. an empty markdown body) is a silent no-op, not an
// error — snapshots are best-effort derived data.
func Write(tempDir, blockID, blockType, blockName string, contents map[string]any) error {
	blockDir := filepath.Join(tempDir, "block-"+blockID)
	if err := os.MkdirAll(blockDir, 0o755); err != nil {
		return fmt.Errorf("create block directory: %w", err)
	}

	content, ok, err := extractContent(blockType, contents)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}
	if !ok {
		return nil
	}

	filename := filename(blockType, blockName)
	path := filepath.Join(blockDir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", filename, err)
	}
	return nil
}

func filename(blockType, blockName string) string {
	switch blockType {
	case "markdown":
		return "body.md"
	case "directory":
		return "body.json"
	case "code":
		ext := strings.TrimPrefix(filepath.Ext(blockName), ".")
		if ext == "" {
			return "body.txt"
		}
		return "body." + ext
	default:
		return "body.txt"
	}
}

func extractContent(blockType string, contents map[string]any) (string, bool, error) {
	switch blockType {
	case "markdown":
		s, ok := contents["markdown"].(string)
		return s, ok, nil
	case "code":
		s, ok := contents["text"].(string)
		return s, ok, nil
	case "directory":
		entries, ok := contents["entries"]
		if !ok {
			return "", false, nil
		}
		pretty, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return "", false, err
		}
		return string(pretty), true, nil
	default:
		return "", false, nil
	}
}
