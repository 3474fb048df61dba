package builder

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	manifestFileName = "manifest.json"
	manifestVersion  = 1
)

// artifactManifest indexes every artifact written by a persist pass so
// deploy tooling can diff checksums without re-reading document bodies.
type artifactManifest struct {
	Version     int                `json:"version"`
	GeneratedAt time.Time          `json:"generated_at"`
	Artifacts   []manifestArtifact `json:"artifacts"`
}

type manifestArtifact struct {
	Path     string `json:"path"`
	Locale   string `json:"locale,omitempty"`
	Category string `json:"category"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

func (m *artifactManifest) add(req WriteFileRequest) {
	m.Artifacts = append(m.Artifacts, manifestArtifact{
		Path:     req.Path,
		Locale:   req.Locale,
		Category: string(req.Category),
		Checksum: req.Checksum,
		Size:     req.Size,
	})
}

// marshal renders the manifest with entries sorted by path for
// deterministic output.
func (m *artifactManifest) marshal() ([]byte, error) {
	sort.Slice(m.Artifacts, func(i, j int) bool {
		return m.Artifacts[i].Path < m.Artifacts[j].Path
	})
	return json.MarshalIndent(m, "", "  ")
}
