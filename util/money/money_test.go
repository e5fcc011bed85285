package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	require.EqualValues(t, 5000, ToMinor(50))
	require.EqualValues(t, 4999, ToMinor(49.99))
	require.EqualValues(t, 5000, ToMinor(49.999))
	require.EqualValues(t, 1, ToMinor(0.01))
	require.EqualValues(t, 0, ToMinor(0))

	// float representation of 0.29 must not truncate to 28
	require.EqualValues(t, 29, ToMinor(0.29))
}

func TestToMajor(t *testing.T) {
	require.InDelta(t, 50.0, ToMajor(5000), 1e-9)
	require.InDelta(t, 0.01, ToMajor(1), 1e-9)
	require.InDelta(t, 0.0, ToMajor(0), 1e-9)
}

func TestRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 12345, 99999999} {
		require.Equal(t, minor, ToMinor(ToMajor(minor)))
	}
}
