package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFake_AdvanceAndSet verifies that fake time moves only when asked.
func TestFake_AdvanceAndSet(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	require.Equal(t, start, c.Now())

	c.Advance(90 * time.Second)
	require.Equal(t, start.Add(90*time.Second), c.Now())
	require.Equal(t, 90*time.Second, Since(c, start))

	c.Set(start.Add(-time.Hour))
	require.Equal(t, -time.Hour, Since(c, start))
}

// TestReal_Now ensures the real clock tracks the system clock.
func TestReal_Now(t *testing.T) {
	t.Parallel()

	require.WithinDuration(t, time.Now(), Real().Now(), time.Second)
}
