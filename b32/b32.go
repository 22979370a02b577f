// Package b32 implements the base32 presentation format used for
// GuardTime key fingerprints and publication strings: standard base32
// with '=' padding, an optional fixed-width dash grouping, and a
// trailing CRC32 appended before encoding so a human-typed string can
// be integrity-checked on the way back in.
package b32

import (
	"encoding/base32"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel errors
var (
	ErrEmptyInput   = fmt.Errorf("b32: empty input")
	ErrCRCMismatch  = fmt.Errorf("b32: CRC32 mismatch")
	ErrBadGroupSize = fmt.Errorf("b32: group size must be >= 0")
)

// Ungrouped disables dash grouping in Encode/EncodeChecked.
const Ungrouped = 0

// DefaultGroupSize is the conventional dash-grouping width used for
// GuardTime publication strings and key fingerprints.
const DefaultGroupSize = 8

// Encode returns the base32 (RFC 4648, '=' padded) encoding of data,
// inserting a '-' every groupSize characters. groupSize == Ungrouped
// disables grouping.
func Encode(data []byte, groupSize int) (string, error) {
	if groupSize < 0 {
		return "", ErrBadGroupSize
	}
	encoded := base32.StdEncoding.EncodeToString(data)
	if groupSize == Ungrouped {
		return encoded, nil
	}
	return group(encoded, groupSize), nil
}

// EncodeChecked appends a big-endian CRC32 (IEEE polynomial) of data
// before base32-encoding it, so the result can be validated with
// DecodeChecked without needing any other context.
func EncodeChecked(data []byte, groupSize int) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	sum := crc32.ChecksumIEEE(data)
	withCRC := make([]byte, len(data)+4)
	copy(withCRC, data)
	withCRC[len(data)+0] = byte(sum >> 24)
	withCRC[len(data)+1] = byte(sum >> 16)
	withCRC[len(data)+2] = byte(sum >> 8)
	withCRC[len(data)+3] = byte(sum)
	return Encode(withCRC, groupSize)
}

// Decode reverses Encode: dashes are stripped before base32 decoding.
func Decode(s string) ([]byte, error) {
	cleaned := strings.ReplaceAll(s, "-", "")
	data, err := base32.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base32")
	}
	return data, nil
}

// DecodeChecked reverses EncodeChecked and verifies the trailing CRC32,
// returning only the original payload (CRC stripped) on success.
func DecodeChecked(s string) ([]byte, error) {
	data, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, errors.Wrap(ErrCRCMismatch, "input shorter than a CRC32 trailer")
	}
	payload := data[:len(data)-4]
	trailer := data[len(data)-4:]
	want := crc32.ChecksumIEEE(payload)
	got := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
	if want != got {
		return nil, ErrCRCMismatch
	}
	return payload, nil
}

func group(s string, size int) string {
	if size == 0 || size >= len(s) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i += size {
		if i > 0 {
			b.WriteByte('-')
		}
		end := i + size
		if end > len(s) {
			end = len(s)
		}
		b.WriteString(s[i:end])
	}
	return b.String()
}
