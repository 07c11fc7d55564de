package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Contains(t, Full(), Commit)
}

// TestKV ensures the logger pairs are balanced and carry the version.
func TestKV(t *testing.T) {
	t.Parallel()

	kv := KV()
	require.Len(t, kv, 6)
	require.Equal(t, "version", kv[0])
	require.Equal(t, Version, kv[1])
}
