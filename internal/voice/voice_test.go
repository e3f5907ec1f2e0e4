package voice

import (
	"os"
	"path/filepath"
	"testing"
)

// installFakeVoice writes the files Resolve expects for v under voicesDir.
func installFakeVoice(t *testing.T, voicesDir string, v Voice) {
	t.Helper()

	base := filepath.Join(voicesDir, v.Dir)
	if err := os.MkdirAll(filepath.Join(base, "espeak-ng-data"), 0o755); err != nil {
		t.Fatalf("mkdir voice dir: %v", err)
	}
	for _, name := range []string{v.ModelFile, "tokens.txt"} {
		if err := os.WriteFile(filepath.Join(base, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestCatalog_ContainsAmyAndRyan(t *testing.T) {
	ids := map[string]bool{}
	for _, v := range Catalog() {
		ids[v.ID] = true

		if v.URL == "" || v.Archive == "" || v.Dir == "" || v.ModelFile == "" {
			t.Errorf("voice %q has incomplete catalog entry: %+v", v.ID, v)
		}
		if v.SampleRate != 16000 {
			t.Errorf("voice %q sample rate = %d; want 16000", v.ID, v.SampleRate)
		}
	}

	for _, want := range []string{"amy", "ryan"} {
		if !ids[want] {
			t.Errorf("catalog is missing voice %q", want)
		}
	}
}

func TestVoice_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	v := Catalog()[0]

	if got := len(v.MissingFiles(dir)); got != 3 {
		t.Errorf("MissingFiles on empty dir = %d entries; want 3", got)
	}

	installFakeVoice(t, dir, v)

	if missing := v.MissingFiles(dir); len(missing) != 0 {
		t.Errorf("MissingFiles after install = %v; want none", missing)
	}
	if !v.Installed(dir) {
		t.Error("Installed = false after install; want true")
	}
}

func TestVoice_MissingFilesRejectsDirectoryAsModel(t *testing.T) {
	dir := t.TempDir()
	v := Catalog()[0]
	installFakeVoice(t, dir, v)

	// Replace the model file with a directory of the same name.
	modelPath := v.Paths(dir).Model
	if err := os.Remove(modelPath); err != nil {
		t.Fatalf("remove model: %v", err)
	}
	if err := os.Mkdir(modelPath, 0o755); err != nil {
		t.Fatalf("mkdir in place of model: %v", err)
	}

	if v.Installed(dir) {
		t.Error("Installed = true with directory in place of model file")
	}
}

func TestNewManager_NoOverlay(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	if got := len(m.List()); got != len(Catalog()) {
		t.Errorf("List() = %d voices; want %d", got, len(Catalog()))
	}
}

func TestNewManager_OverlayAddsAndOverrides(t *testing.T) {
	dir := t.TempDir()

	overlay := `{"voices":[
		{"id":"amy","label":"Amy (custom)","dir":"custom-amy","model_file":"amy.onnx","sample_rate":22050},
		{"id":"kathleen","label":"Female (Kathleen)","dir":"vits-piper-en_US-kathleen-low","model_file":"en_US-kathleen-low.onnx","sample_rate":16000}
	]}`
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	if got := len(m.List()); got != len(Catalog())+1 {
		t.Errorf("List() = %d voices; want %d", got, len(Catalog())+1)
	}

	amy, err := m.Lookup("amy")
	if err != nil {
		t.Fatalf("Lookup(amy) error: %v", err)
	}
	if amy.Dir != "custom-amy" {
		t.Errorf("overlay did not override amy: Dir = %q", amy.Dir)
	}
	if amy.SampleRate != 22050 {
		t.Errorf("overridden amy sample rate = %d; want 22050", amy.SampleRate)
	}

	if _, err := m.Lookup("kathleen"); err != nil {
		t.Errorf("Lookup(kathleen) error: %v", err)
	}
}

func TestNewManager_RejectsMalformedOverlay(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	if _, err := NewManager(dir); err == nil {
		t.Fatal("expected error for malformed overlay")
	}
}

func TestNewManager_RejectsInvalidOverlayVoice(t *testing.T) {
	dir := t.TempDir()
	overlay := `{"voices":[{"id":"","dir":"d","model_file":"m.onnx","sample_rate":16000}]}`
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	if _, err := NewManager(dir); err == nil {
		t.Fatal("expected error for overlay voice with empty id")
	}
}

func TestManager_Resolve(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	if _, _, err := m.Resolve("amy"); err == nil {
		t.Fatal("Resolve(amy) succeeded with no files installed")
	}

	if _, _, err := m.Resolve("nope"); err == nil {
		t.Fatal("Resolve(nope) succeeded for unknown id")
	}

	installFakeVoice(t, dir, Catalog()[0])

	v, paths, err := m.Resolve("amy")
	if err != nil {
		t.Fatalf("Resolve(amy) error: %v", err)
	}
	if v.ID != "amy" {
		t.Errorf("resolved voice ID = %q; want amy", v.ID)
	}
	if filepath.Base(paths.Tokens) != "tokens.txt" {
		t.Errorf("tokens path = %q; want .../tokens.txt", paths.Tokens)
	}
}
