package coord

import (
	"errors"
	"fmt"
	"strconv"
)

// CompactLen is the length of the compact text form: three 16-digit hex fields.
const CompactLen = 48

// ErrMalformedCoordinateText is the sentinel wrapped by every ParseError.
var ErrMalformedCoordinateText = errors.New("malformed coordinate text")

// ParseError describes why a compact coordinate string could not be decoded.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedCoordinateText, e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrMalformedCoordinateText }

// CompactString encodes c as 48 lowercase hex characters: radius, latitude
// and longitude, each as a big-endian two's-complement int64.
func (c SphericalCoordinate) CompactString() string {
	return fmt.Sprintf("%016x%016x%016x", uint64(c.r), uint64(c.lat), uint64(c.lon))
}

// ParseCompact decodes the output of CompactString. The input must be exactly
// CompactLen lowercase hex digits; anything else yields a *ParseError. The decoded
// fields are normalized the same way New normalizes them.
func ParseCompact(s string) (SphericalCoordinate, error) {
	if len(s) != CompactLen {
		return SphericalCoordinate{}, &ParseError{
			Text:   s,
			Reason: fmt.Sprintf("expected %d characters, got %d", CompactLen, len(s)),
		}
	}

	for i := 0; i < len(s); i++ {
		if b := s[i]; (b < '0' || b > '9') && (b < 'a' || b > 'f') {
			return SphericalCoordinate{}, &ParseError{
				Text:   s,
				Reason: fmt.Sprintf("byte %d is %q, want a lowercase hex digit", i, b),
			}
		}
	}

	var fields [3]int64
	for i := range fields {
		part := s[i*16 : (i+1)*16]
		bits, err := strconv.ParseUint(part, 16, 64)
		if err != nil {
			return SphericalCoordinate{}, &ParseError{
				Text:   s,
				Reason: fmt.Sprintf("field %d is not hex: %q", i, part),
			}
		}
		fields[i] = int64(bits)
	}
	return New(fields[0], fields[1], fields[2]), nil
}

// MarshalText implements encoding.TextMarshaler using the compact form.
func (c SphericalCoordinate) MarshalText() ([]byte, error) {
	return []byte(c.CompactString()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the compact form.
func (c *SphericalCoordinate) UnmarshalText(text []byte) error {
	parsed, err := ParseCompact(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
