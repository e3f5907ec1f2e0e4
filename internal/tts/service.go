package tts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/offline-tts/internal/audio"
	"github.com/example/offline-tts/internal/config"
	"github.com/example/offline-tts/internal/text"
	"github.com/example/offline-tts/internal/voice"
)

// defaultChunkChars bounds the text handed to the engine per inference call.
// Long inputs are split at sentence boundaries and the audio concatenated.
const defaultChunkChars = 500

// EngineFactory builds an Engine for a resolved voice. Tests swap it for a
// fake; production code uses NewSherpaEngine.
type EngineFactory func(paths voice.Paths, opts EngineOptions) (Engine, error)

// Service synthesizes text with the configured voice and supports switching
// voices at runtime. Safe for concurrent use.
type Service struct {
	voices  *voice.Manager
	opts    EngineOptions
	factory EngineFactory
	logger  *slog.Logger

	mu      sync.Mutex
	engine  Engine
	voiceID string
}

// NewService loads the voice named in cfg and returns a ready Service.
func NewService(cfg config.Config, voices *voice.Manager, logger *slog.Logger) (*Service, error) {
	return newService(cfg, voices, logger, func(paths voice.Paths, opts EngineOptions) (Engine, error) {
		return NewSherpaEngine(paths, opts)
	})
}

func newService(cfg config.Config, voices *voice.Manager, logger *slog.Logger, factory EngineFactory) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		voices: voices,
		opts: EngineOptions{
			SpeakerID: cfg.TTS.SpeakerID,
			Speed:     float32(cfg.TTS.Speed),
			Threads:   cfg.TTS.Threads,
		},
		factory: factory,
		logger:  logger,
	}

	if err := s.SetVoice(cfg.TTS.Voice); err != nil {
		return nil, err
	}
	return s, nil
}

// SetVoice switches the active voice, loading its model and releasing the
// previous one. On failure the previous voice stays active.
func (s *Service) SetVoice(id string) error {
	v, paths, err := s.voices.Resolve(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.voiceID == v.ID {
		return nil
	}

	engine, err := s.factory(paths, s.opts)
	if err != nil {
		return fmt.Errorf("load voice %q: %w", v.ID, err)
	}

	if s.engine != nil {
		s.engine.Close()
	}
	s.engine = engine
	s.voiceID = v.ID

	s.logger.Info("voice loaded", "voice", v.ID, "sample_rate", engine.SampleRate())
	return nil
}

// Voice returns the ID of the active voice.
func (s *Service) Voice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceID
}

// SampleRate returns the active voice's output rate in Hz.
func (s *Service) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return 0
	}
	return s.engine.SampleRate()
}

// Voices lists all known voices with their installed state.
func (s *Service) Voices() []voice.Voice {
	return s.voices.List()
}

// Synthesize normalizes input, splits it into sentence chunks and returns the
// concatenated audio with its sample rate.
func (s *Service) Synthesize(ctx context.Context, input string) ([]float32, int, error) {
	return s.SynthesizeChunked(ctx, input, 0)
}

// SynthesizeChunked is Synthesize with an explicit per-chunk character bound.
// maxChars <= 0 uses the default.
func (s *Service) SynthesizeChunked(ctx context.Context, input string, maxChars int) ([]float32, int, error) {
	if maxChars <= 0 {
		maxChars = defaultChunkChars
	}

	normalized, err := text.Normalize(input)
	if err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	engine := s.engine
	voiceID := s.voiceID
	s.mu.Unlock()

	if engine == nil {
		return nil, 0, fmt.Errorf("no voice loaded")
	}

	chunks := text.ChunkBySentence(text.Flatten(normalized), maxChars)

	var samples []float32
	rate := engine.SampleRate()
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		part, partRate, err := engine.Synthesize(ctx, chunk)
		if err != nil {
			return nil, 0, fmt.Errorf("synthesize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		rate = partRate
		samples = append(samples, part...)
	}

	s.logger.Debug("synthesis complete",
		"voice", voiceID,
		"chars", len(normalized),
		"chunks", len(chunks),
		"samples", len(samples),
		"sample_rate", rate,
	)
	return samples, rate, nil
}

// SynthesizeWAV synthesizes input and encodes the result as a mono 16-bit
// PCM WAV file at the voice's native rate.
func (s *Service) SynthesizeWAV(ctx context.Context, input string) ([]byte, error) {
	return s.SynthesizeWAVChunked(ctx, input, 0)
}

// SynthesizeWAVChunked is SynthesizeWAV with an explicit per-chunk character
// bound. maxChars <= 0 uses the default.
func (s *Service) SynthesizeWAVChunked(ctx context.Context, input string, maxChars int) ([]byte, error) {
	samples, rate, err := s.SynthesizeChunked(ctx, input, maxChars)
	if err != nil {
		return nil, err
	}
	return audio.EncodeWAV(samples, rate)
}

// Close releases the active engine.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
		s.voiceID = ""
	}
}
