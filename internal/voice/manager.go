package voice

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type manifest struct {
	Voices []Voice `json:"voices"`
}

// Manager resolves voice IDs against the built-in catalog plus an optional
// voices.json overlay in the voices directory. Overlay entries may add new
// voices or override catalog entries with the same ID.
type Manager struct {
	voicesDir string
	voices    []Voice
	byID      map[string]Voice
}

// ManifestName is the optional overlay file looked up inside the voices dir.
const ManifestName = "voices.json"

// NewManager builds a Manager for voicesDir. A missing overlay file is not an
// error; a malformed one is.
func NewManager(voicesDir string) (*Manager, error) {
	if voicesDir == "" {
		return nil, errors.New("voices dir is required")
	}

	m := &Manager{
		voicesDir: voicesDir,
		byID:      make(map[string]Voice),
	}

	for _, v := range Catalog() {
		m.add(v)
	}

	overlayPath := filepath.Join(voicesDir, ManifestName)
	data, err := os.ReadFile(overlayPath)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read voice manifest: %w", err)
	}

	var overlay manifest
	if err := json.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("decode voice manifest: %w", err)
	}

	for _, v := range overlay.Voices {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("voice manifest %s: %w", overlayPath, err)
		}
		m.add(v)
	}

	return m, nil
}

func (m *Manager) add(v Voice) {
	if _, exists := m.byID[v.ID]; exists {
		for i := range m.voices {
			if m.voices[i].ID == v.ID {
				m.voices[i] = v
				break
			}
		}
	} else {
		m.voices = append(m.voices, v)
	}
	m.byID[v.ID] = v
}

// VoicesDir returns the directory voices are resolved against.
func (m *Manager) VoicesDir() string { return m.voicesDir }

// List returns all known voices in catalog-then-overlay order.
func (m *Manager) List() []Voice {
	return append([]Voice(nil), m.voices...)
}

// Lookup returns the voice with the given ID.
func (m *Manager) Lookup(id string) (Voice, error) {
	v, ok := m.byID[id]
	if !ok {
		return Voice{}, fmt.Errorf("unknown voice id %q", id)
	}
	return v, nil
}

// Resolve returns the voice and its on-disk paths, failing if any required
// file is missing. This is the gate between provisioning and engine load.
func (m *Manager) Resolve(id string) (Voice, Paths, error) {
	v, err := m.Lookup(id)
	if err != nil {
		return Voice{}, Paths{}, err
	}

	if missing := v.MissingFiles(m.voicesDir); len(missing) > 0 {
		return Voice{}, Paths{}, fmt.Errorf(
			"voice %q is not installed (missing %s); run 'offlinetts setup --voice %s'",
			id, missing[0], id,
		)
	}

	return v, v.Paths(m.voicesDir), nil
}
