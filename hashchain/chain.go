// Package hashchain implements the hash-chain primitive shared by hash
// chain recomputation and the location/history shape decoder: a chain
// is an ordered sequence of (direction, algorithm, sibling, level)
// steps that folds a starting imprint into a single final digest.
package hashchain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors
var (
	ErrTruncatedStep    = fmt.Errorf("hashchain: truncated step")
	ErrBadDirection     = fmt.Errorf("hashchain: direction byte must be 0 or 1")
	ErrUnknownAlgorithm = fmt.Errorf("hashchain: unknown hash-algorithm id")
)

// Step is one link of a hash chain, exactly as laid out on the wire:
// direction (1 byte), algorithm (1 byte), sibling imprint
// (algorithm's digest-size bytes), level (1 byte).
type Step struct {
	Direction byte
	Algorithm byte
	Sibling   []byte
	Level     byte
}

// ParseStep decodes a single step from its raw wire bytes. raw must
// contain exactly one step: 1 + 1 + digestSize(algorithm) + 1 bytes,
// no more, no less. Each step is carried as its own ASN.1 OCTET
// STRING, so there is never a "rest" to return.
func ParseStep(raw []byte) (Step, error) {
	if len(raw) < 3 {
		return Step{}, errors.Wrapf(ErrTruncatedStep, "got %d bytes", len(raw))
	}
	direction := raw[0]
	if direction != 0 && direction != 1 {
		return Step{}, errors.Wrapf(ErrBadDirection, "got %d", direction)
	}
	algorithm := raw[1]
	size, ok := DigestSize(algorithm)
	if !ok {
		return Step{}, errors.Wrapf(ErrUnknownAlgorithm, "id %d", algorithm)
	}
	want := 1 + 1 + size + 1
	if len(raw) != want {
		return Step{}, errors.Wrapf(ErrTruncatedStep, "want %d bytes for algorithm %d, got %d", want, algorithm, len(raw))
	}
	sibling := make([]byte, size)
	copy(sibling, raw[2:2+size])
	return Step{
		Direction: direction,
		Algorithm: algorithm,
		Sibling:   sibling,
		Level:     raw[2+size],
	}, nil
}

// ParseChain decodes a full ordered sequence of raw per-step byte
// slices (as carried in a SEQUENCE OF OCTET STRING) into Steps,
// failing on the first malformed step.
func ParseChain(raw [][]byte) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for idx, r := range raw {
		s, err := ParseStep(r)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", idx)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// LevelsNonDecreasing reports whether steps[i].Level is monotonically
// non-decreasing across the chain, the location-chain well-formedness
// invariant.
func LevelsNonDecreasing(steps []Step) bool {
	last := -1
	for _, s := range steps {
		if int(s.Level) < last {
			return false
		}
		last = int(s.Level)
	}
	return true
}

// Fold applies steps in order to prevDigest, producing a new digest.
// The hash function for the first step is firstAlgorithm (the
// algorithm of the imprint prevDigest came from, e.g. the signed
// attributes digest algorithm) regardless of steps[0].Algorithm; every
// subsequent step folds using its own Algorithm field.
func Fold(prevDigest []byte, steps []Step, firstAlgorithm byte) (digest []byte, algorithm byte, err error) {
	digest = prevDigest
	algorithm = firstAlgorithm
	for i, s := range steps {
		alg := s.Algorithm
		if i == 0 {
			alg = firstAlgorithm
		}
		digest, err = foldOne(digest, alg, s.Direction, s.Sibling)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "step %d", i)
		}
		algorithm = alg
	}
	return digest, algorithm, nil
}

func foldOne(prev []byte, algorithm, direction byte, sibling []byte) ([]byte, error) {
	h, ok := NewHash(algorithm)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "id %d", algorithm)
	}
	if direction == 0 {
		h.Write(prev)
		h.Write(sibling)
	} else {
		h.Write(sibling)
		h.Write(prev)
	}
	return h.Sum(nil), nil
}
