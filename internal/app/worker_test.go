package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/offline-tts/internal/voice"
)

// fakeSynth yields one sample per input character at a fixed rate and accepts
// the voices it was created with.
type fakeSynth struct {
	mu     sync.Mutex
	rate   int
	active string
	known  []string
	calls  []string
	err    error
}

func newFakeSynth(voices ...string) *fakeSynth {
	return &fakeSynth{rate: 16000, active: voices[0], known: voices}
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) ([]float32, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	f.calls = append(f.calls, text)
	return make([]float32, len(text)), f.rate, nil
}

func (f *fakeSynth) SetVoice(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.known {
		if v == id {
			f.active = id
			return nil
		}
	}
	return fmt.Errorf("voice %q is not installed", id)
}

func (f *fakeSynth) Voice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeSynth) Voices() []voice.Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]voice.Voice, 0, len(f.known))
	for _, id := range f.known {
		out = append(out, voice.Voice{ID: id, Label: "Voice " + id, SampleRate: f.rate})
	}
	return out
}

func nextEvent(t *testing.T, w *Worker) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("event channel closed unexpectedly")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for worker event")
		return Event{}
	}
}

func TestWorker_Synthesize(t *testing.T) {
	w := NewWorker(newFakeSynth("amy"), nil)
	defer w.Close()

	w.Synthesize(context.Background(), "hello")

	ev := nextEvent(t, w)
	if ev.Kind != EventAudio {
		t.Fatalf("event kind = %d; want EventAudio", ev.Kind)
	}
	if ev.Text != "hello" {
		t.Errorf("event text = %q; want hello", ev.Text)
	}
	if len(ev.Samples) != 5 || ev.Rate != 16000 {
		t.Errorf("event audio = %d samples @ %d Hz", len(ev.Samples), ev.Rate)
	}
}

func TestWorker_SetVoice(t *testing.T) {
	w := NewWorker(newFakeSynth("amy", "ryan"), nil)
	defer w.Close()

	w.SetVoice("ryan")

	ev := nextEvent(t, w)
	if ev.Kind != EventVoiceLoaded || ev.Voice != "ryan" {
		t.Fatalf("event = %+v; want EventVoiceLoaded for ryan", ev)
	}
}

func TestWorker_SetVoiceUnknown(t *testing.T) {
	w := NewWorker(newFakeSynth("amy"), nil)
	defer w.Close()

	w.SetVoice("nope")

	ev := nextEvent(t, w)
	if ev.Kind != EventError || ev.Err == nil {
		t.Fatalf("event = %+v; want EventError", ev)
	}
}

func TestWorker_CommandsProcessedInOrder(t *testing.T) {
	synth := newFakeSynth("amy")
	w := NewWorker(synth, nil)
	defer w.Close()

	w.Synthesize(context.Background(), "one")
	w.Synthesize(context.Background(), "two")
	w.Synthesize(context.Background(), "three")

	for _, want := range []string{"one", "two", "three"} {
		ev := nextEvent(t, w)
		if ev.Kind != EventAudio || ev.Text != want {
			t.Fatalf("event = %+v; want audio for %q", ev, want)
		}
	}
}

func TestWorker_CloseClosesEvents(t *testing.T) {
	w := NewWorker(newFakeSynth("amy"), nil)

	w.Close()

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatal("received event after Close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event channel not closed after Close")
	}

	// Submitting after close must not block or panic.
	w.Synthesize(context.Background(), "late")
	w.Close()
}
