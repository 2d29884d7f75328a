package augment

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest_Missing(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.data.Version != manifestVersion {
		t.Errorf("version = %q; want %q", m.data.Version, manifestVersion)
	}
	if m.Len() != 0 {
		t.Errorf("entries = %d; want 0", m.Len())
	}
}

func TestLoadManifest_Existing(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	d := ManifestData{
		Version: manifestVersion,
		Seed:    9,
		Entries: map[string]*ManifestEntry{
			"in/a.jpg": {
				ContentHash: "abc123",
				Width:       10,
				Height:      10,
				Outputs: []ManifestOutput{
					{Index: 0, Filename: "a_aug_0.jpg", Params: Params{Angle: 1, Scale: 1}},
				},
			},
		},
	}
	data, _ := json.MarshalIndent(d, "", "  ")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := m.Entry("in/a.jpg")
	if !ok {
		t.Fatal("expected existing entry")
	}
	if e.Outputs[0].Params.Angle != 1 {
		t.Errorf("params = %+v", e.Outputs[0].Params)
	}
	if m.data.Seed != 9 {
		t.Errorf("seed = %d; want 9", m.data.Seed)
	}
}

func TestLoadManifest_CorruptStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	if err := os.WriteFile(path, []byte("{bad json"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("entries = %d; want 0 (fresh start)", m.Len())
	}
}

func TestLoadManifest_VersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	raw := `{"version":"0","entries":{"x.jpg":{"contentHash":"h"}}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("entries = %d; want 0 after version mismatch", m.Len())
	}
}

func TestManifest_RecordSaveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", ManifestFile)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	m.SetSeed(77)
	m.Record("in/b.png", &ManifestEntry{ContentHash: "h1", Width: 3, Height: 4})
	m.Record("in/b.png", &ManifestEntry{ContentHash: "h2", Width: 3, Height: 4})
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := again.Entry("in/b.png")
	if !ok || e.ContentHash != "h2" {
		t.Errorf("entry = %+v; want replaced hash h2", e)
	}
	if again.data.Seed != 77 {
		t.Errorf("seed = %d; want 77", again.data.Seed)
	}
}

func TestManifest_Remove(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	m.Record("in/a.png", &ManifestEntry{ContentHash: "h"})
	m.Remove("in/a.png")
	m.Remove("in/missing.png")
	if m.Len() != 0 {
		t.Errorf("entries = %d; want 0", m.Len())
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a")
	p2 := filepath.Join(dir, "b")
	_ = os.WriteFile(p1, []byte("same"), 0o644)
	_ = os.WriteFile(p2, []byte("same"), 0o644)

	h1, err := HashFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := HashFile(p2)
	if h1 != h2 {
		t.Error("identical content should hash identically")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d; want 64 hex chars", len(h1))
	}

	if _, err := HashFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
