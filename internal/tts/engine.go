// Package tts turns text into audio samples. The synthesis backend is
// sherpa-onnx running a VITS piper voice; Service adds text preparation,
// chunking and voice switching on top of it.
package tts

import "context"

// Engine is a loaded synthesis backend for a single voice.
type Engine interface {
	// Synthesize converts text to mono float32 samples and reports the
	// sample rate they were generated at.
	Synthesize(ctx context.Context, text string) ([]float32, int, error)

	// SampleRate returns the engine's output sample rate in Hz.
	SampleRate() int

	// Close releases the backend resources. The engine is unusable after.
	Close()
}

// EngineOptions carries the generation parameters shared by all backends.
type EngineOptions struct {
	// SpeakerID selects the speaker in multi-speaker models. Piper voices
	// are single-speaker, so this is normally 0.
	SpeakerID int

	// Speed scales the speaking rate; 1.0 is the model's native pace.
	Speed float32

	// Threads is the number of CPU threads for inference.
	Threads int
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.Speed <= 0 {
		o.Speed = 1.0
	}
	if o.Threads < 1 {
		o.Threads = 1
	}
	return o
}
