package uhlc

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Timestamp is an immutable pair of an NTP64 time and the ID of the HLC
// that produced it. Timestamps are totally ordered: primary key is the
// time, ties are broken by the id, so two timestamps produced in the
// same physical tick by two different nodes still compare unequal.
//
// The textual form is "<time>/<id>" with the id in hexadecimal. With the
// decimal time encoding the conversion is bijective; the RFC3339 time
// encoding is for display only and loses precision.
type Timestamp struct {
	time NTP64
	id   ID
}

// NewTimestamp builds a Timestamp from a time and the producing HLC's id.
func NewTimestamp(t NTP64, id ID) Timestamp {
	return Timestamp{time: t, id: id}
}

// Time returns the NTP64 time part.
func (ts Timestamp) Time() NTP64 {
	return ts.time
}

// ID returns the id of the HLC that produced this Timestamp.
func (ts Timestamp) ID() ID {
	return ts.id
}

// DiffDuration returns ts − other as a Duration. The caller must ensure
// ts >= other; no underflow protection is provided.
func (ts Timestamp) DiffDuration(other Timestamp) time.Duration {
	return (ts.time - other.time).ToDuration()
}

// Compare orders two Timestamps by time, then by id. It returns -1, 0
// or +1.
func (ts Timestamp) Compare(other Timestamp) int {
	switch {
	case ts.time < other.time:
		return -1
	case ts.time > other.time:
		return 1
	}
	return ts.id.Compare(other.id)
}

// Before reports whether ts orders strictly before other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.Compare(other) < 0
}

// Equal reports whether both Timestamps hold the same time and id.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts == other
}

// String returns the bijective "<decimal time>/<hex id>" form.
func (ts Timestamp) String() string {
	return ts.time.String() + "/" + ts.id.String()
}

// ToRFC3339String returns the lossy human-readable form, e.g.
// "2024-07-01T13:51:12.129693000Z/33".
func (ts Timestamp) ToRFC3339String() string {
	return ts.time.ToRFC3339() + "/" + ts.id.String()
}

func splitTimestamp(s string) (string, string, error) {
	i := strings.IndexByte(s, '/')
	if i < 0 {
		return "", "", &ParseError{Input: s, cause: errors.New("no '/' separator found")}
	}
	return s[:i], s[i+1:], nil
}

// ParseTimestamp parses the bijective decimal form produced by String.
// It splits on the first '/' and returns a *ParseError if the separator
// is absent or either half fails to parse.
func ParseTimestamp(s string) (Timestamp, error) {
	stime, sid, err := splitTimestamp(s)
	if err != nil {
		return Timestamp{}, err
	}
	t, err := ParseNTP64(stime)
	if err != nil {
		return Timestamp{}, err
	}
	id, err := ParseID(sid)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{time: t, id: id}, nil
}

// ParseTimestampRFC3339 parses the lossy human-readable form. The result
// is not required to equal the Timestamp it was formatted from.
func ParseTimestampRFC3339(s string) (Timestamp, error) {
	stime, sid, err := splitTimestamp(s)
	if err != nil {
		return Timestamp{}, err
	}
	t, err := ParseNTP64RFC3339(stime)
	if err != nil {
		return Timestamp{}, err
	}
	id, err := ParseID(sid)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{time: t, id: id}, nil
}

// MarshalText implements encoding.TextMarshaler using the bijective
// decimal form.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(text []byte) error {
	parsed, err := ParseTimestamp(string(text))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler: 8 big-endian bytes
// of time followed by the canonical id bytes.
func (ts Timestamp) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8, 8+ts.id.Size())
	binary.BigEndian.PutUint64(b, uint64(ts.time))
	return append(b, ts.id.Bytes()...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (ts *Timestamp) UnmarshalBinary(data []byte) error {
	if len(data) < 9 {
		return errors.Newf("timestamp binary form requires at least 9 bytes, got %d", len(data))
	}
	id, err := NewID(data[8:])
	if err != nil {
		return errors.WithStack(err)
	}
	ts.time = NTP64(binary.BigEndian.Uint64(data[:8]))
	ts.id = id
	return nil
}
