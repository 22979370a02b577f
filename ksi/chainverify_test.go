package ksi

import (
	"crypto/x509/pkix"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAttrsAsSetReplacesLeadingTag(t *testing.T) {
	attrs := []Attribute{{Type: OIDAttributeContentType, Values: attrWithOID(t, OIDAttributeContentType, nil).Values}}
	out, err := signedAttrsAsSet(attrs)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, byte(0x31), out[0])
}

func TestAlgorithmFromOIDRoundTrips(t *testing.T) {
	for id, oid := range hashAlgorithmOID {
		alg := pkix.AlgorithmIdentifier{Algorithm: oid}
		got, ok := algorithmFromOID(alg)
		require.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestHashEqualDetectsDifference(t *testing.T) {
	assert.True(t, hashEqual([]byte{1, 2, 3}, []byte{1, 2, 3}))
	assert.False(t, hashEqual([]byte{1, 2, 3}, []byte{1, 2, 4}))
	assert.False(t, hashEqual([]byte{1, 2}, []byte{1, 2, 3}))
}

func TestRecomputeImprintRejectsUnknownServerAlgorithm(t *testing.T) {
	ts := &Timestamp{
		timeSignature: TimeSignature{
			PublishedData: PublishedData{PublicationImprint: []byte{0xEE, 0x01, 0x02}},
		},
	}
	_, err := recomputeImprint(ts)
	assert.ErrorIs(t, err, ErrUntrustedHashAlgorithm)
}
