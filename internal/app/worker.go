// Package app drives the interactive speak session: a worker goroutine that
// owns the synthesizer and a line-oriented session loop on top of it.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/offline-tts/internal/voice"
)

// Synthesizer is the slice of the tts service the session needs.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]float32, int, error)
	SetVoice(id string) error
	Voice() string
	Voices() []voice.Voice
}

// EventKind discriminates worker events.
type EventKind int

const (
	// EventVoiceLoaded reports a completed voice switch.
	EventVoiceLoaded EventKind = iota
	// EventAudio carries synthesized samples ready for playback or saving.
	EventAudio
	// EventError reports a failed command.
	EventError
)

// Event is emitted by the worker for each processed command.
type Event struct {
	Kind    EventKind
	Voice   string    // EventVoiceLoaded
	Text    string    // EventAudio: the input that was synthesized
	Samples []float32 // EventAudio
	Rate    int       // EventAudio, in Hz
	Err     error     // EventError
}

type workerCommand struct {
	voiceID string // non-empty: switch voice
	text    string // non-empty: synthesize
	ctx     context.Context
}

// Worker serializes synthesis and voice switches on a single goroutine, so
// the engine never sees concurrent commands and the caller stays responsive.
type Worker struct {
	synth  Synthesizer
	logger *slog.Logger

	cmds   chan workerCommand
	events chan Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewWorker starts the worker goroutine. Close releases it.
func NewWorker(synth Synthesizer, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		synth:  synth,
		logger: logger,
		cmds:   make(chan workerCommand, 8),
		events: make(chan Event, 8),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

// SetVoice queues a voice switch. The outcome arrives as an event.
func (w *Worker) SetVoice(id string) {
	w.submit(workerCommand{voiceID: id, ctx: context.Background()})
}

// Synthesize queues text for synthesis. The audio arrives as an event.
func (w *Worker) Synthesize(ctx context.Context, text string) {
	w.submit(workerCommand{text: text, ctx: ctx})
}

func (w *Worker) submit(cmd workerCommand) {
	select {
	case <-w.done:
	case w.cmds <- cmd:
	}
}

// Events returns the channel carrying command outcomes. It is closed when
// the worker shuts down.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Close stops the worker after the queued commands finish and closes the
// event channel.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}

func (w *Worker) loop() {
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return
		case cmd := <-w.cmds:
			w.handle(cmd)
		}
	}
}

func (w *Worker) handle(cmd workerCommand) {
	switch {
	case cmd.voiceID != "":
		if err := w.synth.SetVoice(cmd.voiceID); err != nil {
			w.logger.Warn("voice switch failed", "voice", cmd.voiceID, "error", err)
			w.emit(Event{Kind: EventError, Err: err})
			return
		}
		w.emit(Event{Kind: EventVoiceLoaded, Voice: cmd.voiceID})

	case cmd.text != "":
		samples, rate, err := w.synth.Synthesize(cmd.ctx, cmd.text)
		if err != nil {
			w.logger.Warn("synthesis failed", "error", err)
			w.emit(Event{Kind: EventError, Err: err})
			return
		}
		w.emit(Event{Kind: EventAudio, Text: cmd.text, Samples: samples, Rate: rate})
	}
}

func (w *Worker) emit(ev Event) {
	select {
	case <-w.done:
	case w.events <- ev:
	}
}
