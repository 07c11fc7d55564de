package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.dat"))

	value, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, ValueUnknown, value)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns every code.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "alarm_state.dat")
	repo := NewFileRepository(file)

	for _, want := range []Value{ValueArmed, ValueTriggered, ValueError, ValueDisarmed} {
		require.NoError(t, repo.Save(context.Background(), want))

		got, err := repo.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, []byte{formatVersion, byte(ValueDisarmed)}, contents)
}

// TestFileRepository_Corrupt checks that unrecognised contents read back as unknown, not as an error.
func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"empty":            {},
		"unknown legacy":   {7},
		"unknown code":     {formatVersion, 9},
		"future version":   {2, byte(ValueArmed)},
		"trailing garbage": {formatVersion, byte(ValueArmed), 0},
	}

	for name, contents := range cases {
		file := filepath.Join(t.TempDir(), "state.dat")
		require.NoError(t, os.WriteFile(file, contents, 0o600))

		value, err := NewFileRepository(file).Load(context.Background())
		require.NoError(t, err, name)
		require.Equal(t, ValueUnknown, value, name)
	}
}

// TestFileRepository_LegacyByte accepts the single-byte layout.
func TestFileRepository_LegacyByte(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.dat")
	require.NoError(t, os.WriteFile(file, []byte{byte(ValueTriggered)}, 0o600))

	value, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, ValueTriggered, value)
}

// TestValue_StateMapping verifies the mapping between runtime states and codes.
func TestValue_StateMapping(t *testing.T) {
	t.Parallel()

	require.Equal(t, ValueDisarmed, FromState(domain.StateDisarmed))
	require.Equal(t, ValueArmed, FromState(domain.StateArmed))
	require.Equal(t, ValueArmed, FromState(domain.StateArming))
	require.Equal(t, ValueTriggered, FromState(domain.StateTriggered))

	state, ok := ValueTriggered.State()
	require.True(t, ok)
	require.Equal(t, domain.StateTriggered, state)

	state, ok = ValueError.State()
	require.False(t, ok)
	require.Equal(t, domain.StateDisarmed, state)

	_, ok = ValueUnknown.State()
	require.False(t, ok)
}
