package uhlc

import (
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestNTP64FromDurationRoundsUp(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{
		0,
		time.Nanosecond,
		time.Millisecond,
		time.Second,
		1500 * time.Millisecond,
		3*time.Hour + 7*time.Nanosecond,
	} {
		secs := uint64(d / time.Second)
		nanos := uint64(d % time.Second)
		truncated := NTP64(secs<<32 + nanos*fracPerSec/nanoPerSec)

		got := NTP64FromDuration(d)
		require.Greater(t, got, truncated, "duration %v", d)
		require.Equal(t, truncated+1, got, "duration %v", d)
	}
}

func TestNTP64ToDurationIsCloseToSource(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{
		time.Millisecond,
		time.Second,
		1500 * time.Millisecond,
		time.Hour + 123456789*time.Nanosecond,
	} {
		back := NTP64FromDuration(d).ToDuration()
		require.InDelta(t, float64(d), float64(back), 1, "duration %v", d)
	}
}

func TestNTP64FromDurationPanicsBeyondSecondsRange(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NTP64FromDuration(time.Duration(math.MaxInt64))
	})
}

func TestNTP64Accessors(t *testing.T) {
	t.Parallel()

	v := NTP64(uint64(7)<<32 | fracPerSec/2)
	require.Equal(t, uint32(7), v.AsSecs())
	require.Equal(t, uint32(nanoPerSec/2), v.SubsecNanos())
	require.Equal(t, time.Unix(7, int64(nanoPerSec/2)).UTC(), v.ToTime())
}

func TestNTP64DecimalRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []NTP64{0, 1, 1 << 32, 7386690599959157260, ^NTP64(0)} {
		parsed, err := ParseNTP64(v.String())
		require.NoError(t, err)
		require.Equal(t, v, parsed)
	}

	var parseErr *ParseError
	_, err := ParseNTP64("not-a-number")
	require.Error(t, err)
	require.True(t, errors.As(err, &parseErr))

	_, err = ParseNTP64("-1")
	require.Error(t, err)
}

func TestNTP64RFC3339(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1970-01-01T00:00:00.000000000Z", NTP64(0).ToRFC3339())

	// The human-readable form is lossy but must stay within rounding
	// distance of the original value.
	v := NTP64FromDuration(12345*time.Second + 678912345*time.Nanosecond)
	parsed, err := ParseNTP64RFC3339(v.ToRFC3339())
	require.NoError(t, err)
	require.Equal(t, v.AsSecs(), parsed.AsSecs())
	require.InDelta(t, float64(v.SubsecNanos()), float64(parsed.SubsecNanos()), 1)

	var parseErr *ParseError
	_, err = ParseNTP64RFC3339("yesterday at noon")
	require.Error(t, err)
	require.True(t, errors.As(err, &parseErr))

	_, err = ParseNTP64RFC3339("1969-12-31T23:59:59.000000000Z")
	require.Error(t, err)
}
