package fastimport

import (
	"strconv"
	"strings"
)

// SizeUnit is the unit suffix of a FileSize value.
type SizeUnit int

const (
	UnitB SizeUnit = iota
	UnitK
	UnitM
	UnitG
)

func (u SizeUnit) String() string {
	switch u {
	case UnitB:
		return ""
	case UnitK:
		return "k"
	case UnitM:
		return "m"
	case UnitG:
		return "g"
	}
	return ""
}

// FileSize is an integer value carrying the unit it was written with
// (case-insensitive k/m/g on the wire, not case-preserved on emit).
type FileSize struct {
	Value uint32
	Unit  SizeUnit
}

// ErrInvalidFileSize is returned when a size string, less any k/m/g suffix,
// is not an unsigned 32-bit integer.
type ErrInvalidFileSize struct{ Text string }

func (e ErrInvalidFileSize) Error() string { return "invalid file size: " + strconv.Quote(e.Text) }

// ParseFileSize parses a git option-style size value: an unsigned integer
// optionally followed by a case-insensitive k/m/g suffix.
func ParseFileSize(text string) (FileSize, error) {
	unit := UnitB
	digits := text
	if n := len(text); n > 0 {
		switch text[n-1] {
		case 'k', 'K':
			unit, digits = UnitK, text[:n-1]
		case 'm', 'M':
			unit, digits = UnitM, text[:n-1]
		case 'g', 'G':
			unit, digits = UnitG, text[:n-1]
		}
	}
	digits = strings.TrimSpace(digits)
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return FileSize{}, ErrInvalidFileSize{Text: text}
	}
	return FileSize{Value: uint32(v), Unit: unit}, nil
}

// Bytes returns the size in bytes, applying the unit's power-of-1024 factor.
func (s FileSize) Bytes() uint64 {
	v := uint64(s.Value)
	switch s.Unit {
	case UnitK:
		return v << 10
	case UnitM:
		return v << 20
	case UnitG:
		return v << 30
	default:
		return v
	}
}

// String renders the size with a lower-case unit suffix, as the emitter
// writes it; case and any leading zeros in the original text are not
// preserved round-trip.
func (s FileSize) String() string {
	return strconv.FormatUint(uint64(s.Value), 10) + s.Unit.String()
}
