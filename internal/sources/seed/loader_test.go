package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "seed.yaml")

	yamlContent := `---
- Japan:
    - Kyoto:
        priority: must
        sights: [Fushimi Inari]
`

	err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644)
	if err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	loader := NewLoader(yamlPath)
	f, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(f) != 1 {
		t.Fatalf("Load() returned %d groups, want 1", len(f))
	}
	kyoto := f[0]["Japan"][0]["Kyoto"]
	if kyoto.Priority != "must" || len(kyoto.Sights) != 1 {
		t.Errorf("Kyoto = %+v", kyoto)
	}
}

func TestLoaderLoadPreview(t *testing.T) {
	f, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f) == 0 {
		t.Fatal("Load() returned empty preview")
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/seed.yaml")
	_, err := loader.Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("- Italy: [unclosed")); err == nil {
		t.Error("Parse() should fail on malformed yaml")
	}
}
