// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    v, paths := testutil.RequireVoice(t, "amy")
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gen2brain/malgo"

	"github.com/example/offline-tts/internal/voice"
)

// RequireVoice skips the test if the voice identified by id is not installed
// under the voices directory. The directory defaults to "voices" relative to
// the current working directory and can be overridden with the
// OFFLINETTS_VOICES_DIR environment variable. On success it returns the voice
// and its resolved file paths.
func RequireVoice(tb testing.TB, id string) (voice.Voice, voice.Paths) {
	tb.Helper()

	dir := os.Getenv("OFFLINETTS_VOICES_DIR")
	if dir == "" {
		dir = filepath.Join("..", "..", "voices")
	}

	mgr, err := voice.NewManager(dir)
	if err != nil {
		tb.Skipf("voices directory not usable at %q: %v", dir, err)
	}

	v, paths, err := mgr.Resolve(id)
	if err != nil {
		tb.Skipf("voice %q not available: %v", id, err)
	}
	return v, paths
}

// RequireAudioDevice skips the test when no playback backend can be
// initialized (headless CI hosts).
func RequireAudioDevice(tb testing.TB) {
	tb.Helper()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		tb.Skipf("no audio backend available: %v", err)
	}
	_ = ctx.Uninit()
	ctx.Free()
}
