package archivefile

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const manifestFilename = "manifest.yaml"

// CurrentFormatVersion is the archive layout version written into every
// newly created archive's manifest. Open does not reject a manifest with
// an older version; callers that care about forward migrations can compare
// Archive.Manifest().FormatVersion themselves.
const CurrentFormatVersion = 1

// Manifest is the small YAML sidecar recording facts about the archive
// that aren't derivable from the event log itself: the on-disk layout
// version and when the archive was first created.
type Manifest struct {
	FormatVersion int    `yaml:"format_version"`
	CreatedAt     string `yaml:"created_at"`
}

func writeManifest(dir string) (Manifest, error) {
	m := Manifest{
		FormatVersion: CurrentFormatVersion,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := yaml.Marshal(m)
	if err != nil {
		return Manifest{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFilename), raw, 0o644); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// readManifest tolerates a missing manifest.yaml: an archive saved before
// the manifest existed simply reports the zero-value Manifest rather than
// failing to open.
func readManifest(dir string) (Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFilename))
	if os.IsNotExist(err) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
