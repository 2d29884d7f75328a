package augment

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// manifestVersion is bumped when the manifest format changes.
const manifestVersion = "1"

// ManifestFile is the manifest's filename inside the output directory.
const ManifestFile = "augment-manifest.json"

// Manifest records, per source image, the outputs generated from it and the
// transform parameters behind each one. All methods are safe for concurrent
// use.
type Manifest struct {
	mu   sync.Mutex
	path string
	data ManifestData
}

// ManifestData is the top-level structure persisted as JSON.
type ManifestData struct {
	Version string                    `json:"version"`
	Seed    int64                     `json:"seed"`
	Entries map[string]*ManifestEntry `json:"entries"` // keyed by source path
}

// ManifestEntry records the augmentation of a single source image.
type ManifestEntry struct {
	ContentHash string           `json:"contentHash"` // SHA-256 of source file
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Outputs     []ManifestOutput `json:"outputs"`
}

// ManifestOutput describes one generated file.
type ManifestOutput struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Params   Params `json:"params"`
}

// LoadManifest returns the manifest stored at path. A missing, corrupt or
// outdated file yields an empty manifest that will replace it on Save.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{
		path: path,
		data: ManifestData{
			Version: manifestVersion,
			Entries: make(map[string]*ManifestEntry),
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var d ManifestData
	if err := json.Unmarshal(raw, &d); err != nil {
		// Corrupt manifest, start fresh.
		return m, nil
	}
	if d.Version != manifestVersion {
		return m, nil
	}
	if d.Entries == nil {
		d.Entries = make(map[string]*ManifestEntry)
	}
	m.data = d
	return m, nil
}

// SetSeed records the seed of the current run.
func (m *Manifest) SetSeed(seed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Seed = seed
}

// Record adds or replaces the entry for source.
func (m *Manifest) Record(source string, e *ManifestEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Entries[source] = e
}

// Remove deletes the entry for source.
func (m *Manifest) Remove(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data.Entries, source)
}

// Entry returns the entry for source, if any.
func (m *Manifest) Entry(source string) (*ManifestEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data.Entries[source]
	return e, ok
}

// Len returns the number of recorded sources.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.Entries)
}

// Save writes the manifest to disk, creating its directory if needed.
func (m *Manifest) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	return os.WriteFile(m.path, data, 0o644)
}

// HashFile computes the SHA-256 hex digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
