package ksi

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"

	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/gt-ksi/ksi-go/location"
	"github.com/pkg/errors"
)

// hashAlgorithmOID maps the stable wire algorithm ids to
// their ASN.1 AlgorithmIdentifier OIDs, as carried in messageImprint
// and signer-info digest-algorithm fields.
var hashAlgorithmOID = map[byte]asn1.ObjectIdentifier{
	hashchain.SHA1:      {1, 3, 14, 3, 2, 26},
	hashchain.SHA256:    {2, 16, 840, 1, 101, 3, 4, 2, 1},
	hashchain.RIPEMD160: {1, 3, 36, 3, 2, 1},
	hashchain.SHA224:    {2, 16, 840, 1, 101, 3, 4, 2, 4},
	hashchain.SHA384:    {2, 16, 840, 1, 101, 3, 4, 2, 2},
	hashchain.SHA512:    {2, 16, 840, 1, 101, 3, 4, 2, 3},
}

var oidToHashAlgorithm = func() map[string]byte {
	m := make(map[string]byte, len(hashAlgorithmOID))
	for id, oid := range hashAlgorithmOID {
		m[oid.String()] = id
	}
	return m
}()

// algorithmFromOID recovers a wire algorithm id from an
// AlgorithmIdentifier, failing if the OID isn't one of the six known
// algorithms.
func algorithmFromOID(alg pkix.AlgorithmIdentifier) (byte, bool) {
	id, ok := oidToHashAlgorithm[alg.Algorithm.String()]
	return id, ok
}

// BuildTimestampRequest builds a DER TimeStampReq over a document
// digest: {version=1, messageImprint={alg, digest}}, no policy, no
// nonce, no extensions. digest must already be exactly
// algorithm's fixed digest size.
func BuildTimestampRequest(algorithm byte, digest []byte) ([]byte, error) {
	size, ok := hashchain.DigestSize(algorithm)
	if !ok {
		return nil, errors.Wrap(ErrUntrustedHashAlgorithm, "unknown algorithm id")
	}
	if len(digest) != size {
		return nil, errors.Wrapf(ErrInvalidArgument, "digest length %d does not match algorithm size %d", len(digest), size)
	}
	oid, ok := hashAlgorithmOID[algorithm]
	if !ok {
		return nil, errors.Wrap(ErrUntrustedHashAlgorithm, "no OID for algorithm id")
	}

	req := TimeStampReq{
		Version: 1,
		MessageImprint: MessageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: oid, Parameters: asn1.NullRawValue},
			HashedMessage: digest,
		},
	}
	out, err := asn1.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}
	return out, nil
}

// BuildExtensionRequest builds a DER CertTokenRequest for an existing
// short-term timestamp: {version=1, historyIdentifier}, where
// historyIdentifier is derived from the time signature's history
// chain shape plus its embedded publicationIdentifier.
func BuildExtensionRequest(t *Timestamp) ([]byte, error) {
	ts := t.TimeSignature()
	steps, err := hashchain.ParseChain(ts.History)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidLinkingInfo, err.Error())
	}

	registeredTime, err := location.RegisteredTime(steps, ts.PublishedData.PublicationIdentifier.Int64())
	if err != nil {
		return nil, errors.Wrap(ErrInvalidLinkingInfo, err.Error())
	}

	req := CertTokenRequest{
		Version:           1,
		HistoryIdentifier: big.NewInt(registeredTime),
	}
	out, err := asn1.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}
	return out, nil
}
