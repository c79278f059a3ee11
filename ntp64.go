package uhlc

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// CSIZE is the number of low-order bits of an NTP64 reserved as the HLC
// logical counter when the value is owned by a clock.
const CSIZE = 4

const (
	// cmask selects the logical counter bits, lmask the time bits.
	cmask = uint64(1)<<CSIZE - 1
	lmask = ^cmask

	// maxNbSec is the largest seconds magnitude representable in the
	// 32-bit seconds part.
	maxNbSec   = uint64(1)<<32 - 1
	fracPerSec = uint64(1) << 32
	fracMask   = uint64(1)<<32 - 1
	nanoPerSec = uint64(time.Second)
)

// rfc3339Nanos keeps the full nine fraction digits so formatted times
// have a fixed width.
const rfc3339Nanos = "2006-01-02T15:04:05.000000000Z"

// NTP64 is a 64-bit fixed-point time in the RFC-5905 format: the high 32
// bits count seconds, the low 32 bits the fraction of a second. It does
// not define an epoch by itself; only ToTime, ToRFC3339 and the RFC3339
// parser assume it is relative to the Unix epoch.
//
// Arithmetic uses the native + and - operators with plain wraparound
// semantics. When an NTP64 is held by an HLC, its low CSIZE bits carry
// the logical counter and must be masked off before comparing against a
// raw physical reading.
type NTP64 uint64

// NTP64FromDuration converts a duration since some epoch into an NTP64.
// The fraction is rounded up by one unit so the result always compares
// strictly greater than the truncated conversion. Durations whose
// seconds part exceeds the 32-bit range are a programming error and
// panic.
func NTP64FromDuration(d time.Duration) NTP64 {
	secs := uint64(d / time.Second)
	if secs > maxNbSec {
		panic(fmt.Sprintf("uhlc: duration %v exceeds the NTP64 seconds range", d))
	}
	nanos := uint64(d % time.Second)
	return NTP64(secs<<32 + nanos*fracPerSec/nanoPerSec + 1)
}

// AsSecs returns the 32-bit seconds part.
func (t NTP64) AsSecs() uint32 {
	return uint32(t >> 32)
}

// SubsecNanos returns the fraction part converted to nanoseconds,
// truncated to the nearest representable value.
func (t NTP64) SubsecNanos() uint32 {
	frac := uint64(t) & fracMask
	return uint32(frac * nanoPerSec / fracPerSec)
}

// ToDuration converts to a time.Duration. The conversion is lossy: the
// fraction rounds to nanosecond precision.
func (t NTP64) ToDuration() time.Duration {
	return time.Duration(t.AsSecs())*time.Second + time.Duration(t.SubsecNanos())
}

// ToTime interprets the value as relative to the Unix epoch.
func (t NTP64) ToTime() time.Time {
	return time.Unix(int64(t.AsSecs()), int64(t.SubsecNanos())).UTC()
}

// String returns the value as an unsigned decimal integer. This form is
// lossless and round-trips through ParseNTP64.
func (t NTP64) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// ToRFC3339 returns a human-readable UTC time with nanosecond precision.
// The conversion is lossy and not required to round-trip.
func (t NTP64) ToRFC3339() string {
	return t.ToTime().Format(rfc3339Nanos)
}

// ParseNTP64 parses the decimal form produced by String.
func ParseNTP64(s string) (NTP64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Input: s, cause: errors.WithStack(err)}
	}
	return NTP64(v), nil
}

// ParseNTP64RFC3339 parses a human-readable RFC3339 time into an NTP64
// relative to the Unix epoch. Times before the epoch are rejected.
func ParseNTP64RFC3339(s string) (NTP64, error) {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, &ParseError{Input: s, cause: errors.WithStack(err)}
	}
	d := parsed.Sub(time.Unix(0, 0))
	if d < 0 {
		return 0, &ParseError{Input: s, cause: errors.New("time predates the Unix epoch")}
	}
	return NTP64FromDuration(d), nil
}
