package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// ErrPlayerClosed is returned by Play after Close.
var ErrPlayerClosed = errors.New("player is closed")

// ErrPlaybackStopped is returned by Play when Stop interrupts an active
// playback.
var ErrPlaybackStopped = errors.New("playback stopped")

// Player plays float32 PCM through the default output device via malgo
// (miniaudio). At most one playback runs at a time; Pause, Resume and Stop
// act on the active one.
type Player struct {
	ctx          *malgo.AllocatedContext
	bufferFrames uint32

	mu      sync.Mutex
	device  *malgo.Device
	paused  bool
	stopped chan struct{}
	closed  bool
}

// NewPlayer initializes the audio backend. bufferFrames sets the device
// period size; values <= 0 fall back to 512.
func NewPlayer(bufferFrames int) (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize playback context: %w", err)
	}

	if bufferFrames <= 0 {
		bufferFrames = 512
	}

	return &Player{
		ctx:          ctx,
		bufferFrames: uint32(bufferFrames),
	}, nil
}

// Play blocks until the samples finish, the context is cancelled, or Stop is
// called. Samples are mono and played at sampleRate.
func (p *Player) Play(ctx context.Context, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}
	if sampleRate < 1 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	if p.device != nil {
		p.mu.Unlock()
		return errors.New("playback already in progress")
	}
	stopped := make(chan struct{})
	p.stopped = stopped
	p.paused = false
	p.mu.Unlock()

	pcm := Float32ToBytes(samples)
	pos := 0
	done := make(chan struct{})

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = ExpectedChannels
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = p.bufferFrames
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			needed := int(frameCount) * ExpectedChannels * 2
			if pos >= len(pcm) {
				for i := range out[:needed] {
					out[i] = 0
				}
				select {
				case done <- struct{}{}:
				default:
				}
				return
			}

			end := pos + needed
			if end > len(pcm) {
				end = len(pcm)
			}
			copy(out, pcm[pos:end])
			for i := end - pos; i < needed; i++ {
				out[i] = 0
			}
			pos = end
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		p.clearDevice()
		return fmt.Errorf("initialize playback device: %w", err)
	}

	p.mu.Lock()
	p.device = device
	p.mu.Unlock()

	defer func() {
		p.clearDevice()
		device.Uninit()
	}()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stopped:
		return ErrPlaybackStopped
	case <-done:
		return nil
	}
}

// Pause suspends the active playback. No-op when nothing is playing or
// already paused.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil || p.paused {
		return
	}
	if err := p.device.Stop(); err == nil {
		p.paused = true
	}
}

// Resume continues a paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil || !p.paused {
		return
	}
	if err := p.device.Start(); err == nil {
		p.paused = false
	}
}

// Stop aborts the active playback, unblocking Play. Safe to call when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped == nil {
		return
	}
	select {
	case <-p.stopped:
		// already stopped
	default:
		close(p.stopped)
	}
}

// Paused reports whether the active playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device != nil && p.paused
}

// Playing reports whether a playback is active (paused counts as active).
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device != nil
}

func (p *Player) clearDevice() {
	p.mu.Lock()
	p.device = nil
	p.paused = false
	p.stopped = nil
	p.mu.Unlock()
}

// Close releases the audio backend. Active playback should be stopped first.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}
