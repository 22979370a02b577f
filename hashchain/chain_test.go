package hashchain

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStepBytes(direction, algorithm byte, sibling []byte, level byte) []byte {
	out := make([]byte, 0, 2+len(sibling)+1)
	out = append(out, direction, algorithm)
	out = append(out, sibling...)
	out = append(out, level)
	return out
}

func TestParseStepRoundTrip(t *testing.T) {
	sibling := make([]byte, 32)
	for i := range sibling {
		sibling[i] = byte(i)
	}
	raw := buildStepBytes(1, SHA256, sibling, 5)

	step, err := ParseStep(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(1), step.Direction)
	assert.Equal(t, SHA256, step.Algorithm)
	assert.Equal(t, sibling, step.Sibling)
	assert.Equal(t, byte(5), step.Level)
}

func TestParseStepRejectsBadDirection(t *testing.T) {
	sibling := make([]byte, 32)
	raw := buildStepBytes(2, SHA256, sibling, 0)
	_, err := ParseStep(raw)
	assert.ErrorIs(t, err, ErrBadDirection)
}

func TestParseStepRejectsUnknownAlgorithm(t *testing.T) {
	raw := buildStepBytes(0, 0xAA, make([]byte, 4), 0)
	_, err := ParseStep(raw)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestParseStepRejectsTruncation(t *testing.T) {
	raw := buildStepBytes(0, SHA256, make([]byte, 32), 0)
	_, err := ParseStep(raw[:len(raw)-1])
	assert.ErrorIs(t, err, ErrTruncatedStep)
}

func TestLevelsNonDecreasing(t *testing.T) {
	steps := []Step{{Level: 1}, {Level: 1}, {Level: 3}}
	assert.True(t, LevelsNonDecreasing(steps))

	bad := []Step{{Level: 3}, {Level: 1}}
	assert.False(t, LevelsNonDecreasing(bad))
}

func TestFoldDeterministic(t *testing.T) {
	sibling := make([]byte, 32)
	for i := range sibling {
		sibling[i] = byte(i + 1)
	}
	steps := []Step{
		{Direction: 0, Algorithm: SHA256, Sibling: sibling, Level: 1},
		{Direction: 1, Algorithm: SHA256, Sibling: sibling, Level: 2},
	}
	prev := make([]byte, 32)

	digest1, alg1, err := Fold(prev, steps, SHA256)
	require.NoError(t, err)
	digest2, alg2, err := Fold(prev, steps, SHA256)
	require.NoError(t, err)

	assert.Equal(t, digest1, digest2)
	assert.Equal(t, alg1, alg2)
}

func TestFoldMatchesManualHash(t *testing.T) {
	prev := make([]byte, 32)
	for i := range prev {
		prev[i] = byte(i)
	}
	sibling := make([]byte, 32)
	for i := range sibling {
		sibling[i] = byte(255 - i)
	}
	steps := []Step{{Direction: 0, Algorithm: SHA256, Sibling: sibling, Level: 1}}

	digest, alg, err := Fold(prev, steps, SHA256)
	require.NoError(t, err)
	assert.Equal(t, SHA256, alg)

	h := sha256.New()
	h.Write(prev)
	h.Write(sibling)
	assert.Equal(t, h.Sum(nil), digest)
}

func TestFoldUsesFirstAlgorithmOverrideOnly(t *testing.T) {
	prev := make([]byte, 32)
	sibling224 := make([]byte, 28)
	steps := []Step{
		{Direction: 0, Algorithm: SHA224, Sibling: sibling224, Level: 1},
		{Direction: 0, Algorithm: SHA224, Sibling: sibling224, Level: 2},
	}

	// The first step folds under firstAlgorithm, not its own Algorithm.
	digest, alg, err := Fold(prev, steps[:1], SHA256)
	require.NoError(t, err)
	assert.Equal(t, SHA256, alg)
	assert.Len(t, digest, 32)

	// Every later step folds under its own Algorithm.
	digest, alg, err = Fold(prev, steps, SHA256)
	require.NoError(t, err)
	assert.Equal(t, SHA224, alg)
	assert.Len(t, digest, 28)
}
