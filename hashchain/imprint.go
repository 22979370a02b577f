package hashchain

import (
	"bytes"
	"fmt"
)

// Sentinel errors
var (
	ErrEmptyImprint = fmt.Errorf("hashchain: empty imprint")
	ErrImprintSize  = fmt.Errorf("hashchain: imprint length does not match its algorithm's digest size")
	ErrImprintAlgo  = fmt.Errorf("hashchain: unknown imprint algorithm id")
)

// Imprint is the concatenation of a one-byte algorithm id and that
// algorithm's fixed-length digest: algorithmId || digest.
type Imprint []byte

// NewImprint builds an Imprint from an algorithm id and a digest whose
// length must already match that algorithm's digest size.
func NewImprint(algorithm byte, digest []byte) (Imprint, error) {
	size, ok := DigestSize(algorithm)
	if !ok {
		return nil, ErrImprintAlgo
	}
	if len(digest) != size {
		return nil, ErrImprintSize
	}
	out := make(Imprint, 1+size)
	out[0] = algorithm
	copy(out[1:], digest)
	return out, nil
}

// ParseImprint validates that b is a well-formed data imprint: non-empty,
// first byte a known algorithm id, remaining bytes exactly that
// algorithm's digest size.
func ParseImprint(b []byte) (Imprint, error) {
	if len(b) == 0 {
		return nil, ErrEmptyImprint
	}
	size, ok := DigestSize(b[0])
	if !ok {
		return nil, ErrImprintAlgo
	}
	if len(b)-1 != size {
		return nil, ErrImprintSize
	}
	out := make(Imprint, len(b))
	copy(out, b)
	return out, nil
}

// Algorithm returns the imprint's algorithm id.
func (i Imprint) Algorithm() byte {
	if len(i) == 0 {
		return 0
	}
	return i[0]
}

// Digest returns the imprint's digest bytes (without the algorithm id).
func (i Imprint) Digest() []byte {
	if len(i) < 1 {
		return nil
	}
	return i[1:]
}

// Equal reports structural equality: identical algorithm id and digest
// bytes.
func (i Imprint) Equal(other Imprint) bool {
	return bytes.Equal(i, other)
}
