package uhlc

import "fmt"

// SizeError reports an ID built from an oversized byte source, or from
// the reserved zero value (Size 0).
type SizeError struct {
	Size int
}

func (e *SizeError) Error() string {
	if e.Size == 0 {
		return "ID must not be the zero value (reserved as unset)"
	}
	return fmt.Sprintf("maximum ID size (%d bytes) exceeded: %d", MaxIDSize, e.Size)
}

// ParseError reports malformed textual input: a bad hexadecimal ID, a
// bad time value, or a Timestamp missing its '/' separator.
type ParseError struct {
	Input string
	cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %v", e.Input, e.cause)
}

func (e *ParseError) Unwrap() error {
	return e.cause
}

// DriftError reports an incoming Timestamp whose physical time exceeds
// the local clock by more than the configured maximum delta. The local
// clock state is left unmodified; reacting to the rejection (ignore,
// alert, disconnect the peer) is the caller's policy.
type DriftError struct {
	ID      ID
	Delta   NTP64
	MsgTime NTP64
	Now     NTP64
}

func (e *DriftError) Error() string {
	return fmt.Sprintf(
		"incoming timestamp from %s exceeding delta %dms is rejected: %s vs. now: %s",
		e.ID, e.Delta.ToDuration().Milliseconds(), e.MsgTime, e.Now,
	)
}
