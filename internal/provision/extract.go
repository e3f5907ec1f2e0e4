package provision

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxEntrySize caps a single extracted file. Voice archives hold ONNX graphs
// of a few tens of MiB; anything past this is a malformed or hostile archive.
const maxEntrySize = 512 << 20

// extractTarBz2 unpacks a .tar.bz2 archive into destDir. Entry paths are
// validated so no file can escape destDir. Symlinks and other special entry
// types are skipped; voice archives contain only directories and regular
// files.
func extractTarBz2(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	return untar(bzip2.NewReader(f), destDir)
}

// untar unpacks a plain tar stream into destDir.
func untar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		target, err := secureJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if hdr.Size > maxEntrySize {
				return fmt.Errorf("archive entry %s exceeds size limit", hdr.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			if err := writeEntry(target, tr, hdr.Size); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		default:
			// Hard links, symlinks, devices: not expected in voice archives.
			continue
		}
	}
}

func writeEntry(target string, r io.Reader, size int64) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, io.LimitReader(r, size))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

// secureJoin joins name under dir and rejects any result escaping dir.
func secureJoin(dir, name string) (string, error) {
	dir = filepath.Clean(dir)
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("archive entry %q has absolute path", name)
	}

	target := filepath.Join(dir, cleaned)
	if target != dir && !strings.HasPrefix(target, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}
