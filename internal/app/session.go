package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/example/offline-tts/internal/audio"
)

// Player is the slice of the audio player the session needs.
type Player interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
	Pause()
	Resume()
	Stop()
}

// DefaultSavePath is where /save writes when no path is given.
const DefaultSavePath = "output.wav"

// SessionOptions configures an interactive session.
type SessionOptions struct {
	Input  io.Reader // defaults to os.Stdin
	Output io.Writer // defaults to os.Stdout
	// Playback disables audio output when false; synthesized audio is then
	// only kept for /save.
	Playback bool
	Logger   *slog.Logger
}

// Session is the interactive speak loop: plain lines are synthesized and
// played, slash commands control the session.
type Session struct {
	worker   *Worker
	player   Player
	playback bool
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger

	lastSamples []float32
	lastRate    int

	playWG sync.WaitGroup
}

// NewSession wires a session over a synthesizer and a player. The player may
// be nil when opts.Playback is false.
func NewSession(synth Synthesizer, player Player, opts SessionOptions) *Session {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Session{
		worker:   NewWorker(synth, opts.Logger),
		player:   player,
		playback: opts.Playback && player != nil,
		in:       opts.Input,
		out:      opts.Output,
		logger:   opts.Logger,
	}
}

// Run reads lines until /quit, EOF or context cancellation.
func (s *Session) Run(ctx context.Context) error {
	defer s.shutdown()

	fmt.Fprintln(s.out, "Type text to speak it. /help lists commands.")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(s.out)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := s.command(ctx, line)
			if err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := s.speak(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Session) command(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprint(s.out, `Commands:
  /voice <id>   switch voice
  /voices       list voices
  /save [path]  write the last synthesized audio as WAV (default `+DefaultSavePath+`)
  /pause        pause playback
  /resume       resume playback
  /stop         stop playback
  /quit         leave the session
`)
		return false, nil

	case "/voices":
		active := s.worker.synth.Voice()
		for _, v := range s.worker.synth.Voices() {
			mark := " "
			if v.ID == active {
				mark = "*"
			}
			fmt.Fprintf(s.out, "%s %s\t%s\n", mark, v.ID, v.Label)
		}
		return false, nil

	case "/voice":
		if arg == "" {
			return false, fmt.Errorf("usage: /voice <id>")
		}
		return false, s.switchVoice(ctx, arg)

	case "/save":
		if arg == "" {
			arg = DefaultSavePath
		}
		return false, s.save(arg)

	case "/pause":
		if s.player != nil {
			s.player.Pause()
		}
		return false, nil

	case "/resume":
		if s.player != nil {
			s.player.Resume()
		}
		return false, nil

	case "/stop":
		if s.player != nil {
			s.player.Stop()
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %q; /help lists commands", cmd)
	}
}

func (s *Session) switchVoice(ctx context.Context, id string) error {
	s.worker.SetVoice(id)

	ev, err := s.waitEvent(ctx)
	if err != nil {
		return err
	}
	if ev.Kind == EventError {
		return ev.Err
	}
	fmt.Fprintf(s.out, "voice: %s\n", ev.Voice)
	return nil
}

func (s *Session) speak(ctx context.Context, line string) error {
	s.worker.Synthesize(ctx, line)

	ev, err := s.waitEvent(ctx)
	if err != nil {
		return err
	}
	if ev.Kind == EventError {
		return ev.Err
	}

	s.lastSamples = ev.Samples
	s.lastRate = ev.Rate

	if !s.playback {
		fmt.Fprintf(s.out, "synthesized %d samples (playback off)\n", len(ev.Samples))
		return nil
	}

	// Cut off anything still playing before starting the new utterance.
	s.player.Stop()
	s.playWG.Wait()

	s.playWG.Add(1)
	go func() {
		defer s.playWG.Done()
		err := s.player.Play(ctx, ev.Samples, ev.Rate)
		if err != nil && !errors.Is(err, audio.ErrPlaybackStopped) && !errors.Is(err, context.Canceled) {
			s.logger.Warn("playback failed", "error", err)
		}
	}()
	return nil
}

func (s *Session) save(path string) error {
	if len(s.lastSamples) == 0 {
		return fmt.Errorf("nothing synthesized yet")
	}

	data, err := audio.EncodeWAV(s.lastSamples, s.lastRate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(s.out, "saved %s\n", path)
	return nil
}

// waitEvent returns the next worker event. Commands are submitted one at a
// time, so the next event is always the response to the last command.
func (s *Session) waitEvent(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-s.worker.Events():
		if !ok {
			return Event{}, fmt.Errorf("session worker stopped")
		}
		return ev, nil
	}
}

func (s *Session) shutdown() {
	if s.player != nil {
		s.player.Stop()
	}
	s.playWG.Wait()
	s.worker.Close()
}
