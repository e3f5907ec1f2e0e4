package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

// runGoBuild is swapped in tests to avoid invoking the toolchain.
var runGoBuild = func(cmd *exec.Cmd) error { return cmd.Run() }

func newPackageCmd() *cobra.Command {
	var outputName string
	var distDir string
	var skipClean bool

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Build a standalone offlinetts executable into dist/",
		Long: `Package removes previous build artifacts, then compiles the offlinetts
binary with a trimmed, stripped build into the dist directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !skipClean {
				for _, dir := range []string{"build", distDir} {
					if err := os.RemoveAll(dir); err != nil {
						return fmt.Errorf("clean %s: %w", dir, err)
					}
				}
			}

			if err := os.MkdirAll(distDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", distDir, err)
			}

			name := outputName
			if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
				name += ".exe"
			}
			outPath := filepath.Join(distDir, name)

			build := exec.CommandContext(cmd.Context(), "go", "build",
				"-trimpath",
				"-ldflags", "-s -w",
				"-o", outPath,
				"./cmd/offlinetts",
			)
			build.Stdout = os.Stdout
			build.Stderr = os.Stderr

			if err := runGoBuild(build); err != nil {
				return fmt.Errorf("go build failed: %w", err)
			}

			_, _ = fmt.Fprintf(os.Stdout, "packaged %s\n", outPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&outputName, "output-name", "OfflineTTS", "Name of the packaged executable")
	cmd.Flags().StringVar(&distDir, "dist-dir", "dist", "Output directory for the packaged executable")
	cmd.Flags().BoolVar(&skipClean, "skip-clean", false, "Keep existing build/ and dist/ directories")

	return cmd
}
