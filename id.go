package uhlc

import (
	"encoding/hex"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// MaxIDSize is the maximum size of an ID in bytes.
const MaxIDSize = 16

// ID identifies one HLC instance and is embedded in every Timestamp it
// produces. It holds 1 to 16 significant bytes in little-endian order
// inside a fixed buffer, so it is copyable without heap allocation.
//
// The zero value is invalid: it is reserved to mean "unset" and every
// constructor rejects it.
//
// Two IDs are ordered by the numeric magnitude of their little-endian
// decoded 128-bit value, not by lexicographic byte comparison.
type ID struct {
	buf  [MaxIDSize]byte
	size uint8
}

// NewID builds an ID from 1 to 16 little-endian bytes. It returns a
// *SizeError if the slice is empty, longer than MaxIDSize, or decodes to
// the reserved zero value. Insignificant high (trailing) zero bytes are
// trimmed from the stored size.
func NewID(b []byte) (ID, error) {
	if len(b) == 0 || len(b) > MaxIDSize {
		return ID{}, &SizeError{Size: len(b)}
	}
	var id ID
	copy(id.buf[:], b)
	for i := MaxIDSize - 1; i >= 0; i-- {
		if id.buf[i] != 0 {
			id.size = uint8(i + 1)
			break
		}
	}
	if id.size == 0 {
		return ID{}, &SizeError{Size: 0}
	}
	return id, nil
}

// RandomID returns a new ID drawn from the non-zero 128-bit space.
func RandomID() ID {
	for {
		u := uuid.New()
		var b [MaxIDSize]byte
		// The UUID is big-endian; IDs are little-endian on the wire.
		for i := range b {
			b[i] = u[MaxIDSize-1-i]
		}
		id, err := NewID(b[:])
		if err == nil {
			return id
		}
	}
}

// ParseID decodes a hexadecimal string into an ID. Non-canonical input
// with trailing zero bytes is accepted and re-encodes in canonical form.
// It returns a *ParseError on empty input, odd length, invalid hex
// characters, oversized input, or the zero value.
func ParseID(s string) (ID, error) {
	if s == "" {
		return ID{}, &ParseError{Input: s, cause: errors.New("empty ID string")}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, &ParseError{Input: s, cause: errors.WithStack(err)}
	}
	id, err := NewID(b)
	if err != nil {
		return ID{}, &ParseError{Input: s, cause: err}
	}
	return id, nil
}

// Size returns the number of significant bytes.
func (id ID) Size() int {
	return int(id.size)
}

// Bytes returns a copy of the significant little-endian bytes.
func (id ID) Bytes() []byte {
	b := make([]byte, id.size)
	copy(b, id.buf[:id.size])
	return b
}

// IsZero reports whether the ID is the invalid "unset" value.
func (id ID) IsZero() bool {
	return id.size == 0
}

// Compare orders two IDs by the numeric magnitude of their little-endian
// decoded value. It returns -1, 0 or +1.
func (id ID) Compare(other ID) int {
	for i := MaxIDSize - 1; i >= 0; i-- {
		switch {
		case id.buf[i] < other.buf[i]:
			return -1
		case id.buf[i] > other.buf[i]:
			return 1
		}
	}
	return 0
}

// Equal reports whether both IDs hold the same value.
func (id ID) Equal(other ID) bool {
	return id == other
}

// Hash64 returns a 64-bit murmur3 hash of the significant bytes.
func (id ID) Hash64() uint64 {
	return murmur3.Sum64(id.buf[:id.size])
}

// String returns the canonical upper-case hexadecimal form, with no
// insignificant trailing zero bytes.
func (id ID) String() string {
	return fmt.Sprintf("%X", id.buf[:id.size])
}

// MarshalText implements encoding.TextMarshaler using the canonical
// hexadecimal form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler using the canonical
// little-endian byte form.
func (id ID) MarshalBinary() ([]byte, error) {
	return id.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	parsed, err := NewID(data)
	if err != nil {
		return errors.WithStack(err)
	}
	*id = parsed
	return nil
}
