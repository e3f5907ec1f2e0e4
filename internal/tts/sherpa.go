package tts

import (
	"context"
	"fmt"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/example/offline-tts/internal/voice"
)

// SherpaEngine runs a VITS piper voice through sherpa-onnx.
// Generate calls go through a mutex: the underlying C object is not safe for
// concurrent use.
type SherpaEngine struct {
	mu   sync.Mutex
	tts  *sherpa.OfflineTts
	opts EngineOptions
	rate int
}

var _ Engine = (*SherpaEngine)(nil)

// NewSherpaEngine loads the voice model files at paths into a sherpa-onnx
// offline synthesizer.
func NewSherpaEngine(paths voice.Paths, opts EngineOptions) (*SherpaEngine, error) {
	opts = opts.withDefaults()

	config := sherpa.OfflineTtsConfig{}
	config.Model.Vits.Model = paths.Model
	config.Model.Vits.Tokens = paths.Tokens
	config.Model.Vits.DataDir = paths.DataDir
	config.Model.NumThreads = opts.Threads
	config.Model.Provider = "cpu"

	tts := sherpa.NewOfflineTts(&config)
	if tts == nil {
		return nil, fmt.Errorf("load voice model %s: synthesizer creation failed", paths.Model)
	}

	return &SherpaEngine{
		tts:  tts,
		opts: opts,
		rate: tts.SampleRate(),
	}, nil
}

// Synthesize generates audio for text. Generation is a single blocking
// inference call; the context is honored between acquiring the engine and
// starting it, not during.
func (e *SherpaEngine) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tts == nil {
		return nil, 0, fmt.Errorf("synthesizer is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	generated := e.tts.Generate(text, e.opts.SpeakerID, e.opts.Speed)
	if generated == nil || len(generated.Samples) == 0 {
		return nil, 0, fmt.Errorf("synthesis produced no audio for %d chars", len(text))
	}

	return generated.Samples, generated.SampleRate, nil
}

// SampleRate returns the model's native output rate in Hz.
func (e *SherpaEngine) SampleRate() int {
	return e.rate
}

// Close releases the sherpa-onnx synthesizer.
func (e *SherpaEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tts != nil {
		sherpa.DeleteOfflineTts(e.tts)
		e.tts = nil
	}
}
