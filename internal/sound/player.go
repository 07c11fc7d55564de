package sound

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/alarm-controller/internal/clock"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
)

// Player turns sound selections into playback.
type Player interface {
	// Play starts the sound, replacing whatever is playing.
	Play(ctx context.Context, sound domain.Sound) error
	// Silence stops the current playback.
	Silence(ctx context.Context)
	// IsPlaying tells whether a playback is in progress.
	IsPlaying() bool
	// OnTick advances the playback; it is called on every scheduler iteration.
	OnTick(ctx context.Context)
}

// Output is the physical sounder driven by TimedPlayer.
type Output interface {
	// Start begins emitting the sound.
	Start(ctx context.Context, sound domain.Sound) error
	// Stop ends any emission.
	Stop(ctx context.Context) error
}

// durations is how long each sound lasts.
//
//nolint:gochecknoglobals // Read-only lookup table.
var durations = map[domain.Sound]time.Duration{
	domain.SoundSensorChimeOpened: 500 * time.Millisecond,
	domain.SoundSensorChimeClosed: 500 * time.Millisecond,
	domain.SoundSensorFault:       1500 * time.Millisecond,
	domain.SoundAlarmArm:          time.Second,
	domain.SoundAlarmDisarm:       time.Second,
	domain.SoundAlarmArming:       10 * time.Second,
	domain.SoundAlarmTriggered:    3 * time.Second,
	domain.SoundAlarmSounding:     30 * time.Second,
}

// Duration returns the length of a sound, zero for SoundNone and unknown values.
func Duration(sound domain.Sound) time.Duration {
	return durations[sound]
}

// errUnknownSound is returned when asked to play a sound without a duration.
var errUnknownSound = errors.New("unknown sound")

// TimedPlayer plays each sound for its fixed duration on an Output.
// The controller loop calls OnTick; the metrics scrape may call IsPlaying
// concurrently, hence the mutex.
type TimedPlayer struct {
	// output is the sounder.
	output Output
	// clock paces the playback.
	clock clock.Clock

	// mu guards the fields below.
	mu sync.Mutex
	// current is the sound being played, SoundNone when idle.
	current domain.Sound
	// until is when the current sound ends.
	until time.Time
}

// NewTimedPlayer creates a player over output.
func NewTimedPlayer(output Output, c clock.Clock) *TimedPlayer {
	return &TimedPlayer{
		output: output,
		clock:  c,
	}
}

// Play starts sound on the output for its duration.
func (p *TimedPlayer) Play(ctx context.Context, sound domain.Sound) error {
	duration := Duration(sound)
	if duration <= 0 {
		return fmt.Errorf("play %s: %w", sound, errUnknownSound)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.output.Start(ctx, sound); err != nil {
		return fmt.Errorf("play %s: %w", sound, err)
	}

	p.current = sound
	p.until = p.clock.Now().Add(duration)

	return nil
}

// Silence stops the output right away.
func (p *TimedPlayer) Silence(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stop(ctx)
}

// IsPlaying tells whether a sound is still within its duration.
func (p *TimedPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current != domain.SoundNone
}

// Current returns the sound being played.
func (p *TimedPlayer) Current() domain.Sound {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

// OnTick stops the output once the current sound has run its course.
func (p *TimedPlayer) OnTick(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == domain.SoundNone || p.clock.Now().Before(p.until) {
		return
	}

	p.stop(ctx)
}

// stop ends the playback; the caller holds mu.
func (p *TimedPlayer) stop(ctx context.Context) {
	if p.current == domain.SoundNone {
		return
	}

	if err := p.output.Stop(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to stop sounder", "sound", p.current, "error", err)
	}

	p.current = domain.SoundNone
	p.until = time.Time{}
}

// LogOutput is an Output that only logs, for controllers without a siren.
type LogOutput struct{}

// Start logs the sound.
func (LogOutput) Start(ctx context.Context, sound domain.Sound) error {
	logger.InfoKV(ctx, "Playing sound", "sound", sound, "duration", Duration(sound))

	return nil
}

// Stop logs the end of playback.
func (LogOutput) Stop(ctx context.Context) error {
	logger.Debug(ctx, "Sound stopped")

	return nil
}
