package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/offline-tts/internal/config"
	"github.com/example/offline-tts/internal/testutil"
	"github.com/example/offline-tts/internal/voice"
)

// fakeEngine returns one sample per input character at a fixed rate.
type fakeEngine struct {
	rate   int
	closed bool
	calls  []string
	err    error
}

func (f *fakeEngine) Synthesize(_ context.Context, text string) ([]float32, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.calls = append(f.calls, text)
	return make([]float32, len(text)), f.rate, nil
}

func (f *fakeEngine) SampleRate() int { return f.rate }
func (f *fakeEngine) Close()          { f.closed = true }

// installVoices creates a voices dir with installed fake voices and returns
// a manager over it.
func installVoices(t *testing.T, ids ...string) (*voice.Manager, string) {
	t.Helper()

	dir := t.TempDir()

	manifest := `{"voices":[`
	for i, id := range ids {
		if i > 0 {
			manifest += ","
		}
		manifest += fmt.Sprintf(`{"id":%q,"label":%q,"dir":"%s-dir","model_file":"model.onnx","archive":"%s.tar.bz2","url":"http://invalid/%s.tar.bz2","sample_rate":16000}`,
			id, id, id, id, id)

		vdir := filepath.Join(dir, id+"-dir")
		for _, f := range []string{"model.onnx", "tokens.txt"} {
			mustWriteFile(t, filepath.Join(vdir, f))
		}
		if err := os.MkdirAll(filepath.Join(vdir, "espeak-ng-data"), 0o755); err != nil {
			t.Fatalf("mkdir espeak-ng-data: %v", err)
		}
	}
	manifest += "]}"

	if err := os.WriteFile(filepath.Join(dir, voice.ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	mgr, err := voice.NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr, dir
}

func mustWriteFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(voiceID string) config.Config {
	cfg := config.DefaultConfig()
	cfg.TTS.Voice = voiceID
	return cfg
}

func newTestService(t *testing.T, voiceID string, mgr *voice.Manager, engines map[string]*fakeEngine) *Service {
	t.Helper()

	factory := func(paths voice.Paths, _ EngineOptions) (Engine, error) {
		// Key engines by the voice directory name.
		id := filepath.Base(filepath.Dir(paths.Model))
		e, ok := engines[id]
		if !ok {
			return nil, fmt.Errorf("no fake engine for %s", id)
		}
		return e, nil
	}

	svc, err := newService(testConfig(voiceID), mgr, nil, factory)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestService_Synthesize(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	samples, rate, err := svc.Synthesize(context.Background(), "Hello there.")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d; want 16000", rate)
	}
	if len(samples) == 0 {
		t.Error("no samples returned")
	}
	if len(engine.calls) != 1 {
		t.Errorf("engine called %d times; want 1", len(engine.calls))
	}
}

func TestService_SynthesizeChunksLongInput(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	// Many sentences, well past the per-chunk character bound.
	input := ""
	for i := 0; i < 60; i++ {
		input += "This sentence is repeated to exceed the chunk limit. "
	}

	samples, _, err := svc.Synthesize(context.Background(), input)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if len(engine.calls) < 2 {
		t.Errorf("engine called %d times; want multiple chunks", len(engine.calls))
	}

	// Concatenation preserves total length (fake yields 1 sample per char).
	var wantSamples int
	for _, c := range engine.calls {
		wantSamples += len(c)
	}
	if len(samples) != wantSamples {
		t.Errorf("samples = %d; want %d", len(samples), wantSamples)
	}
}

func TestService_SynthesizeChunkedHonorsBound(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	input := "First sentence here. Second sentence here. Third sentence here."

	// Well inside the default bound, so the default path takes one call.
	if _, _, err := svc.Synthesize(context.Background(), input); err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("engine called %d times with default bound; want 1", len(engine.calls))
	}

	// A tight explicit bound forces one call per sentence.
	engine.calls = nil
	if _, _, err := svc.SynthesizeChunked(context.Background(), input, 25); err != nil {
		t.Fatalf("SynthesizeChunked error: %v", err)
	}
	if len(engine.calls) != 3 {
		t.Errorf("engine called %d times with bound 25; want 3", len(engine.calls))
	}
	for _, c := range engine.calls {
		if len(c) > 25 {
			t.Errorf("chunk %q exceeds the 25-char bound", c)
		}
	}

	// Zero falls back to the default bound.
	engine.calls = nil
	if _, _, err := svc.SynthesizeChunked(context.Background(), input, 0); err != nil {
		t.Fatalf("SynthesizeChunked error: %v", err)
	}
	if len(engine.calls) != 1 {
		t.Errorf("engine called %d times with bound 0; want 1", len(engine.calls))
	}
}

func TestService_SynthesizeFlattensNewlines(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	if _, _, err := svc.Synthesize(context.Background(), "line one\nline two"); err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if got := engine.calls[0]; got != "line one line two" {
		t.Errorf("engine received %q; want flattened text", got)
	}
}

func TestService_SynthesizeEmptyInput(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	_, _, err := svc.Synthesize(context.Background(), "   \n ")
	if err == nil {
		t.Fatal("expected error for whitespace-only input")
	}
	if len(engine.calls) != 0 {
		t.Error("engine was called for empty input")
	}
}

func TestService_SynthesizeCancelledContext(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.Synthesize(ctx, "Hello.")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v; want context.Canceled", err)
	}
}

func TestService_SetVoiceSwitchesEngine(t *testing.T) {
	mgr, _ := installVoices(t, "alpha", "beta")
	alpha := &fakeEngine{rate: 16000}
	beta := &fakeEngine{rate: 22050}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{
		"alpha-dir": alpha,
		"beta-dir":  beta,
	})

	if err := svc.SetVoice("beta"); err != nil {
		t.Fatalf("SetVoice error: %v", err)
	}

	if !alpha.closed {
		t.Error("previous engine was not closed")
	}
	if got := svc.Voice(); got != "beta" {
		t.Errorf("Voice() = %q; want beta", got)
	}
	if got := svc.SampleRate(); got != 22050 {
		t.Errorf("SampleRate() = %d; want 22050", got)
	}
}

func TestService_SetVoiceSameVoiceIsNoOp(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	if err := svc.SetVoice("alpha"); err != nil {
		t.Fatalf("SetVoice error: %v", err)
	}
	if engine.closed {
		t.Error("engine was closed by a same-voice switch")
	}
}

func TestService_SetVoiceUnknownKeepsCurrent(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	if err := svc.SetVoice("nope"); err == nil {
		t.Fatal("expected error for unknown voice")
	}
	if got := svc.Voice(); got != "alpha" {
		t.Errorf("Voice() = %q after failed switch; want alpha", got)
	}
	if engine.closed {
		t.Error("active engine was closed by a failed switch")
	}
}

func TestService_SynthesizeWAV(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	data, err := svc.SynthesizeWAV(context.Background(), "Hello there, this is a test.")
	if err != nil {
		t.Fatalf("SynthesizeWAV error: %v", err)
	}

	testutil.AssertValidWAV(t, data, 16000)
}

func TestService_CloseReleasesEngine(t *testing.T) {
	mgr, _ := installVoices(t, "alpha")
	engine := &fakeEngine{rate: 16000}
	svc := newTestService(t, "alpha", mgr, map[string]*fakeEngine{"alpha-dir": engine})

	svc.Close()

	if !engine.closed {
		t.Error("Close did not release the engine")
	}
	if _, _, err := svc.Synthesize(context.Background(), "Hello."); err == nil {
		t.Error("expected error after Close")
	}
}
