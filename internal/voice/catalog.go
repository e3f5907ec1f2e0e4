// Package voice describes the installable voice models and resolves their
// on-disk state.
package voice

import (
	"fmt"
	"os"
	"path/filepath"
)

// Voice describes one installable VITS piper voice.
type Voice struct {
	// ID is the short identifier used on the command line ("amy", "ryan").
	ID string `json:"id"`
	// Label is the human-readable name shown in listings.
	Label string `json:"label"`
	// Dir is the voice directory name under the voices dir.
	Dir string `json:"dir"`
	// ModelFile is the ONNX graph filename inside Dir.
	ModelFile string `json:"model_file"`
	// Archive is the release archive filename.
	Archive string `json:"archive"`
	// URL is the archive download location.
	URL string `json:"url"`
	// SHA256 is the pinned archive checksum; empty means the checksum is
	// recorded into the lock manifest on first download instead.
	SHA256 string `json:"sha256"`
	// SampleRate is the voice's native output rate in Hz.
	SampleRate int `json:"sample_rate"`
}

const releaseBase = "https://github.com/k2-fsa/sherpa-onnx/releases/download/tts-models/"

// Catalog returns the built-in voices. IDs and archives match the sherpa-onnx
// piper release names.
func Catalog() []Voice {
	return []Voice{
		{
			ID:         "amy",
			Label:      "Female (Amy)",
			Dir:        "vits-piper-en_US-amy-low",
			ModelFile:  "en_US-amy-low.onnx",
			Archive:    "vits-piper-en_US-amy-low.tar.bz2",
			URL:        releaseBase + "vits-piper-en_US-amy-low.tar.bz2",
			SampleRate: 16000,
		},
		{
			ID:         "ryan",
			Label:      "Male (Ryan)",
			Dir:        "vits-piper-en_US-ryan-low",
			ModelFile:  "en_US-ryan-low.onnx",
			Archive:    "vits-piper-en_US-ryan-low.tar.bz2",
			URL:        releaseBase + "vits-piper-en_US-ryan-low.tar.bz2",
			SampleRate: 16000,
		},
	}
}

// Paths holds the resolved file locations a loaded voice needs.
type Paths struct {
	Model   string
	Tokens  string
	DataDir string
}

// Paths resolves the voice's file locations under voicesDir.
func (v Voice) Paths(voicesDir string) Paths {
	base := filepath.Join(voicesDir, v.Dir)
	return Paths{
		Model:   filepath.Join(base, v.ModelFile),
		Tokens:  filepath.Join(base, "tokens.txt"),
		DataDir: filepath.Join(base, "espeak-ng-data"),
	}
}

// Installed reports whether all files the engine needs are present.
func (v Voice) Installed(voicesDir string) bool {
	return len(v.MissingFiles(voicesDir)) == 0
}

// MissingFiles returns the voice files absent under voicesDir. The model and
// tokens must be regular files; espeak-ng-data must be a directory.
func (v Voice) MissingFiles(voicesDir string) []string {
	p := v.Paths(voicesDir)

	var missing []string
	for _, f := range []string{p.Model, p.Tokens} {
		fi, err := os.Stat(f)
		if err != nil || fi.IsDir() {
			missing = append(missing, f)
		}
	}

	fi, err := os.Stat(p.DataDir)
	if err != nil || !fi.IsDir() {
		missing = append(missing, p.DataDir)
	}

	return missing
}

func (v Voice) validate() error {
	if v.ID == "" {
		return fmt.Errorf("voice has empty id")
	}
	if v.Dir == "" {
		return fmt.Errorf("voice %q has empty dir", v.ID)
	}
	if v.ModelFile == "" {
		return fmt.Errorf("voice %q has empty model file", v.ID)
	}
	if v.SampleRate <= 0 {
		return fmt.Errorf("voice %q has invalid sample rate %d", v.ID, v.SampleRate)
	}
	return nil
}
