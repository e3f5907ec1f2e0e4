package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadSynthText_FlagWins(t *testing.T) {
	got, err := readSynthText("from flag", strings.NewReader("from stdin"))
	if err != nil {
		t.Fatalf("readSynthText: %v", err)
	}
	if got != "from flag" {
		t.Errorf("got %q; want flag text", got)
	}
}

func TestReadSynthText_FallsBackToStdin(t *testing.T) {
	got, err := readSynthText("", strings.NewReader("  piped text \n"))
	if err != nil {
		t.Fatalf("readSynthText: %v", err)
	}
	if got != "piped text" {
		t.Errorf("got %q; want trimmed stdin text", got)
	}
}

func TestReadSynthText_EmptyEverywhere(t *testing.T) {
	_, err := readSynthText("", strings.NewReader("   \n"))
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestWriteSynthOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := writeSynthOutput(path, []byte("wav-bytes"), nil); err != nil {
		t.Fatalf("writeSynthOutput: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "wav-bytes" {
		t.Errorf("file content = %q", data)
	}
}

func TestWriteSynthOutput_Stdout(t *testing.T) {
	var buf bytes.Buffer

	if err := writeSynthOutput("-", []byte("wav-bytes"), &buf); err != nil {
		t.Fatalf("writeSynthOutput: %v", err)
	}
	if buf.String() != "wav-bytes" {
		t.Errorf("stdout content = %q", buf.String())
	}
}

func TestWriteSynthOutput_StdoutNilWriter(t *testing.T) {
	if err := writeSynthOutput("-", []byte("x"), nil); err == nil {
		t.Fatal("expected error for nil stdout writer")
	}
}

func TestNewSynthCmd_HasChunkFlag(t *testing.T) {
	cmd := newSynthCmd()

	f := cmd.Flags().Lookup("max-chunk-chars")
	if f == nil {
		t.Fatal("expected --max-chunk-chars flag to be registered")
	}
	if f.DefValue != "0" {
		t.Errorf("default = %q; want 0 (service default)", f.DefValue)
	}
}
