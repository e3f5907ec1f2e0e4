// Package doctor provides environment preflight checks for offlinetts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gen2brain/malgo"

	"github.com/example/offline-tts/internal/voice"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// ProbeFunc checks a component and returns an error when it is unavailable.
type ProbeFunc func() error

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// DataDir is verified to exist and be writable.
	DataDir string
	// VoicesDir is the directory holding installed voices.
	VoicesDir string
	// Voices lists the voice IDs to verify; empty means every known voice.
	Voices []string
	// ProbeAudio checks that a playback backend can be initialized.
	// Nil uses the default malgo probe.
	ProbeAudio ProbeFunc
	// SkipAudio skips the playback check (headless hosts, serve-only use).
	SkipAudio bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- data directory ---------------------------------------------------
	if err := checkWritableDir(cfg.DataDir); err != nil {
		res.fail(fmt.Sprintf("data dir %q: %v", cfg.DataDir, err))
		fmt.Fprintf(w, "%s data dir %s: %v\n", FailMark, cfg.DataDir, err)
	} else {
		fmt.Fprintf(w, "%s data dir: %s\n", PassMark, cfg.DataDir)
	}

	// ---- voices -----------------------------------------------------------
	checkVoices(cfg, w, &res)

	// ---- audio playback ---------------------------------------------------
	if cfg.SkipAudio {
		fmt.Fprintf(w, "%s audio playback: skipped\n", PassMark)
	} else {
		probe := cfg.ProbeAudio
		if probe == nil {
			probe = probePlaybackBackend
		}
		if err := probe(); err != nil {
			res.fail(fmt.Sprintf("audio playback: %v", err))
			fmt.Fprintf(w, "%s audio playback: unavailable (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s audio playback: backend available\n", PassMark)
		}
	}

	return res
}

func checkVoices(cfg Config, w io.Writer, res *Result) {
	mgr, err := voice.NewManager(cfg.VoicesDir)
	if err != nil {
		res.fail(fmt.Sprintf("voice manifest: %v", err))
		fmt.Fprintf(w, "%s voice manifest: %v\n", FailMark, err)
		return
	}

	ids := cfg.Voices
	if len(ids) == 0 {
		for _, v := range mgr.List() {
			ids = append(ids, v.ID)
		}
	}

	for _, id := range ids {
		v, err := mgr.Lookup(id)
		if err != nil {
			res.fail(fmt.Sprintf("voice %q: %v", id, err))
			fmt.Fprintf(w, "%s voice %s: unknown\n", FailMark, id)
			continue
		}

		missing := v.MissingFiles(cfg.VoicesDir)
		if len(missing) > 0 {
			res.fail(fmt.Sprintf("voice %q: missing %s", id, filepath.Base(missing[0])))
			fmt.Fprintf(w, "%s voice %s: not installed; run 'offlinetts setup --voice %s'\n", FailMark, id, id)
		} else {
			fmt.Fprintf(w, "%s voice %s: installed (%s)\n", PassMark, id, v.Label)
		}
	}
}

// checkWritableDir verifies dir exists, is a directory, and accepts writes.
func checkWritableDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("not a directory")
	}

	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

func probePlaybackBackend() error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return err
	}
	_ = ctx.Uninit()
	ctx.Free()
	return nil
}
