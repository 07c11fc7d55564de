package sound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-controller/internal/clock"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

var errTestOutput = errors.New("test output error")

// recordingOutput is an Output that remembers its calls.
type recordingOutput struct {
	// started lists the sounds passed to Start.
	started []domain.Sound
	// stops counts calls to Stop.
	stops int
	// startErr is returned from Start when set.
	startErr error
}

// Start records the sound or fails with startErr.
func (o *recordingOutput) Start(_ context.Context, sound domain.Sound) error {
	if o.startErr != nil {
		return o.startErr
	}

	o.started = append(o.started, sound)

	return nil
}

// Stop counts the call.
func (o *recordingOutput) Stop(context.Context) error {
	o.stops++

	return nil
}

// TestTimedPlayer_PlaysForDuration verifies a sound ends on the first tick past its duration.
func TestTimedPlayer_PlaysForDuration(t *testing.T) {
	t.Parallel()

	output := new(recordingOutput)
	c := clock.Fake(time.Unix(1000, 0))
	p := NewTimedPlayer(output, c)

	require.False(t, p.IsPlaying())
	require.NoError(t, p.Play(context.Background(), domain.SoundAlarmArm))
	require.True(t, p.IsPlaying())
	require.Equal(t, domain.SoundAlarmArm, p.Current())

	c.Advance(Duration(domain.SoundAlarmArm) - time.Millisecond)
	p.OnTick(context.Background())
	require.True(t, p.IsPlaying())

	c.Advance(time.Millisecond)
	p.OnTick(context.Background())
	require.False(t, p.IsPlaying())
	require.Equal(t, 1, output.stops)

	// Idle ticks do not touch the output.
	p.OnTick(context.Background())
	require.Equal(t, 1, output.stops)
}

// TestTimedPlayer_Silence verifies Silence stops right away and is idempotent.
func TestTimedPlayer_Silence(t *testing.T) {
	t.Parallel()

	output := new(recordingOutput)
	p := NewTimedPlayer(output, clock.Fake(time.Unix(1000, 0)))

	require.NoError(t, p.Play(context.Background(), domain.SoundAlarmSounding))
	p.Silence(context.Background())
	p.Silence(context.Background())

	require.False(t, p.IsPlaying())
	require.Equal(t, 1, output.stops)
}

// TestTimedPlayer_Errors covers unknown sounds and output failures.
func TestTimedPlayer_Errors(t *testing.T) {
	t.Parallel()

	output := &recordingOutput{startErr: errTestOutput}
	p := NewTimedPlayer(output, clock.Fake(time.Unix(1000, 0)))

	require.ErrorIs(t, p.Play(context.Background(), domain.SoundNone), errUnknownSound)
	require.ErrorIs(t, p.Play(context.Background(), domain.SoundSensorFault), errTestOutput)
	require.False(t, p.IsPlaying())
}

// TestDuration ensures every playable sound has a duration.
func TestDuration(t *testing.T) {
	t.Parallel()

	for s := domain.SoundSensorChimeOpened; s <= domain.SoundAlarmSounding; s++ {
		require.Positive(t, Duration(s), s.String())
	}

	require.Zero(t, Duration(domain.SoundNone))
}

// TestLogOutput checks the log-only output never fails.
func TestLogOutput(t *testing.T) {
	t.Parallel()

	p := NewTimedPlayer(LogOutput{}, clock.Fake(time.Unix(1000, 0)))
	require.NoError(t, p.Play(context.Background(), domain.SoundSensorChimeOpened))
	p.Silence(context.Background())
	require.False(t, p.IsPlaying())
}
