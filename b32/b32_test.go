package b32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a}

	encoded, err := Encode(data, DefaultGroupSize)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestEncodeUngrouped(t *testing.T) {
	data := []byte("hello world")
	encoded, err := Encode(data, Ungrouped)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "-")

	grouped, err := Encode(data, 4)
	require.NoError(t, err)
	assert.Contains(t, grouped, "-")
}

func TestEncodeCheckedRoundTrip(t *testing.T) {
	data := []byte("publication-string-payload")
	encoded, err := EncodeChecked(data, DefaultGroupSize)
	require.NoError(t, err)

	decoded, err := DecodeChecked(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDecodeCheckedDetectsCorruption(t *testing.T) {
	data := []byte("publication-string-payload")
	encoded, err := EncodeChecked(data, DefaultGroupSize)
	require.NoError(t, err)

	// Flip a character in the payload portion to corrupt the CRC check.
	corrupted := []byte(encoded)
	for i, c := range corrupted {
		if c != '-' {
			if c == 'A' {
				corrupted[i] = 'B'
			} else {
				corrupted[i] = 'A'
			}
			break
		}
	}

	_, err = DecodeChecked(string(corrupted))
	assert.Error(t, err)
}

func TestEncodeCheckedRejectsEmpty(t *testing.T) {
	_, err := EncodeChecked(nil, DefaultGroupSize)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEncodeRejectsNegativeGroupSize(t *testing.T) {
	_, err := Encode([]byte("x"), -1)
	assert.ErrorIs(t, err, ErrBadGroupSize)
}
