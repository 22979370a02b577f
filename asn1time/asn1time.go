// Package asn1time decodes ASN.1 UTCTime and GeneralizedTime values to a
// zone-aware 64-bit POSIX epoch, independent of encoding/asn1's built-in
// (and looser) time.Time unmarshaling.
package asn1time

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Sentinel errors
var (
	ErrUnsupportedTag = fmt.Errorf("asn1time: unsupported tag (want UTCTime or GeneralizedTime)")
	ErrMalformed      = fmt.Errorf("asn1time: malformed time value")
	ErrOverflow       = fmt.Errorf("asn1time: epoch value overflows a 32-bit time_t")
)

// ASN.1 universal tag numbers for the two time types this package
// understands.
const (
	TagUTCTime         = 23
	TagGeneralizedTime = 24
)

// UTCTime layouts, per DER rules both with and without explicit
// seconds; DER always uses the "Z" (UTC) form, but the decoder accepts
// an explicit numeric offset too since some TSAs emit it.
var utcLayouts = []string{
	"060102150405Z0700",
	"0601021504Z0700",
}

var generalizedLayouts = []string{
	"20060102150405Z0700",
	"20060102150405.999999999Z0700",
}

// Decode parses the raw content bytes of an ASN.1 UTCTime or
// GeneralizedTime value (as produced by asn1.RawValue.Bytes) and returns
// the POSIX epoch seconds it represents. tag must be TagUTCTime or
// TagGeneralizedTime.
func Decode(tag int, contentBytes []byte) (int64, error) {
	var layouts []string
	switch tag {
	case TagUTCTime:
		layouts = utcLayouts
	case TagGeneralizedTime:
		layouts = generalizedLayouts
	default:
		return 0, errors.Wrapf(ErrUnsupportedTag, "tag %d", tag)
	}

	s := string(contentBytes)
	var t time.Time
	var err error
	for _, layout := range layouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0, errors.Wrapf(ErrMalformed, "value %q: %v", s, err)
	}

	if tag == TagUTCTime {
		// X.690: UTCTime two-digit years 00-49 -> 2000-2049, 50-99 -> 1950-1999.
		year := t.Year() % 100
		century := 1900
		if year < 50 {
			century = 2000
		}
		t = time.Date(century+year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	}

	return t.Unix(), nil
}

// CheckInt32Range reports whether epoch fits in a signed 32-bit
// time_t, the overflow check applied on 32-bit builds. The
// verification orchestrator calls this
// on implicit history-derived registration times and treats failure as
// a syntactic error rather than a hard abort.
func CheckInt32Range(epoch int64) error {
	if epoch < math.MinInt32 || epoch > math.MaxInt32 {
		return ErrOverflow
	}
	return nil
}
