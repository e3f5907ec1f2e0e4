package provision

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/offline-tts/internal/voice"
)

// Options configures a provisioning run.
type Options struct {
	// VoicesDir is where voice directories and the lock manifest live.
	VoicesDir string
	// Voices limits the run to the given IDs; empty means every catalog and
	// overlay voice.
	Voices []string
	// KeepArchives leaves the downloaded .tar.bz2 next to the voice dirs
	// instead of deleting it after extraction.
	KeepArchives bool
	// Stdout receives human-readable progress lines.
	Stdout io.Writer
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Run provisions the requested voices. It creates the voices directory if
// absent, then for each voice: skips when complete, otherwise downloads the
// archive (verified against the pinned checksum or the lock manifest),
// extracts it, and confirms the voice files are present. The lock manifest is
// rewritten at the end of a successful run.
func Run(opts Options) error {
	if opts.VoicesDir == "" {
		return fmt.Errorf("voices dir is required")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 0}
	}

	if err := os.MkdirAll(opts.VoicesDir, 0o755); err != nil {
		return fmt.Errorf("create voices dir: %w", err)
	}

	mgr, err := voice.NewManager(opts.VoicesDir)
	if err != nil {
		return err
	}

	voices, err := selectVoices(mgr, opts.Voices)
	if err != nil {
		return err
	}

	lockPath := filepath.Join(opts.VoicesDir, LockName)
	lock := readLockManifest(lockPath)
	lock.Generated = time.Now().UTC().Format(time.RFC3339)

	for _, v := range voices {
		if err := ensureVoice(mgr, v, &lock, opts); err != nil {
			return fmt.Errorf("provision voice %q: %w", v.ID, err)
		}
	}

	if err := writeLockManifest(lockPath, lock); err != nil {
		return err
	}
	fmt.Fprintf(opts.Stdout, "wrote lock manifest: %s\n", lockPath)
	return nil
}

func selectVoices(mgr *voice.Manager, ids []string) ([]voice.Voice, error) {
	if len(ids) == 0 {
		return mgr.List(), nil
	}

	out := make([]voice.Voice, 0, len(ids))
	for _, id := range ids {
		v, err := mgr.Lookup(strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func ensureVoice(mgr *voice.Manager, v voice.Voice, lock *lockManifest, opts Options) error {
	if v.Installed(mgr.VoicesDir()) {
		fmt.Fprintf(opts.Stdout, "skip %s (already installed)\n", v.ID)
		return nil
	}

	if v.URL == "" || v.Archive == "" {
		return fmt.Errorf("no archive pinned; place the voice files under %s manually",
			filepath.Join(mgr.VoicesDir(), v.Dir))
	}

	// The pinned catalog checksum wins; otherwise fall back to the checksum
	// recorded on a previous download of the same URL.
	expected := strings.ToLower(v.SHA256)
	if expected == "" {
		if rec, ok := lock.Archives[v.Archive]; ok && rec.URL == v.URL {
			expected = strings.ToLower(rec.SHA256)
		}
	}

	archivePath := filepath.Join(mgr.VoicesDir(), v.Archive)
	cached, err := existingMatches(archivePath, expected)
	if err != nil {
		return err
	}

	actual := expected
	if cached {
		fmt.Fprintf(opts.Stdout, "reuse %s (checksum match)\n", v.Archive)
	} else {
		fmt.Fprintf(opts.Stdout, "download %s -> %s\n", v.URL, archivePath)
		actual, err = downloadArchive(opts.Client, v.URL, archivePath, opts.Stdout)
		if err != nil {
			return err
		}
		if expected != "" && actual != expected {
			return &ChecksumError{Name: v.Archive, Expected: expected, Actual: actual}
		}
		fmt.Fprintf(opts.Stdout, "verified %s (sha256=%s)\n", v.Archive, actual)
	}

	fmt.Fprintf(opts.Stdout, "extract %s\n", v.Archive)
	if err := extractTarBz2(archivePath, mgr.VoicesDir()); err != nil {
		return err
	}

	if missing := v.MissingFiles(mgr.VoicesDir()); len(missing) > 0 {
		return fmt.Errorf("archive did not contain expected files (missing %s)", missing[0])
	}

	lock.Archives[v.Archive] = lockRecord{URL: v.URL, SHA256: actual}

	if !opts.KeepArchives {
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove archive: %w", err)
		}
	}

	fmt.Fprintf(opts.Stdout, "installed %s (%s)\n", v.ID, v.Label)
	return nil
}
