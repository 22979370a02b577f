package ksi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oidSHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}

// buildFixtureDER assembles a complete, validly-signed short-term token:
// one self-signed RSA certificate, a TSTInfo over a fixed document
// digest, empty location/history chains, and a PKI signature over
// PublishedData. It returns the token's DER and the PublishedData it
// carries, so callers can build a matching extension response.
func buildFixtureDER(t *testing.T) ([]byte, PublishedData) {
	t.Helper()
	return buildFixtureWithHistory(t, nil)
}

// buildFixtureWithHistory is buildFixtureDER with a caller-supplied
// history chain: the published imprint is the genuine fold of the
// signed attributes through that chain, so extension tests can splice
// real additional steps onto a real prefix.
func buildFixtureWithHistory(t *testing.T, history [][]byte) ([]byte, PublishedData) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test aggregator"},
		NotBefore:    time.Unix(1_600_000_000, 0),
		NotAfter:     time.Unix(1_900_000_000, 0),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	documentDigest := make([]byte, 32)
	tstInfo := TSTInfo{
		Version: 1,
		Policy:  asn1.ObjectIdentifier{1, 2, 3},
		MessageImprint: MessageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: hashAlgorithmOID[hashchain.SHA256], Parameters: asn1.NullRawValue},
			HashedMessage: documentDigest,
		},
		SerialNumber: big.NewInt(42),
		GenTime:      genTimeRaw(t, "20230101000000Z"),
	}
	tstInfoDER, err := asn1.Marshal(tstInfo)
	require.NoError(t, err)
	tstInfoDigest := sha256.Sum256(tstInfoDER)

	contentTypeDER, err := asn1.Marshal(OIDTSTInfo)
	require.NoError(t, err)
	digestDER, err := asn1.Marshal(tstInfoDigest[:])
	require.NoError(t, err)
	attrs := []Attribute{
		attrWithOID(t, OIDAttributeContentType, contentTypeDER),
		attrWithOID(t, OIDAttributeMessageDigest, digestDER),
	}

	// The location chain is always empty here, so the aggregation
	// input is the signed-attributes imprint folded through history.
	finalImprint := foldPublishedImprint(t, attrs, history)

	publishedData := PublishedData{
		PublicationIdentifier: big.NewInt(1_700_000_000),
		PublicationImprint:    finalImprint,
	}
	publishedDataDER, err := asn1.Marshal(publishedData)
	require.NoError(t, err)
	pdDigest := sha256.Sum256(publishedDataDER)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, pdDigest[:])
	require.NoError(t, err)

	timeSignature := TimeSignature{
		History:       history,
		PublishedData: publishedData,
		PKSignature: PKSignedData{
			SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: oidSHA256WithRSA, Parameters: asn1.NullRawValue},
			SignatureValue:     sig,
		},
	}
	tsDER, err := asn1.Marshal(timeSignature)
	require.NoError(t, err)

	octetTLV, err := asn1.Marshal(tstInfoDER)
	require.NoError(t, err)

	signerInfo := SignerInfo{
		Version: 1,
		IssuerAndSerial: IssuerAndSerial{
			Issuer:       asn1.RawValue{FullBytes: cert.RawIssuer},
			SerialNumber: cert.SerialNumber,
		},
		DigestAlgorithm:    pkix.AlgorithmIdentifier{Algorithm: hashAlgorithmOID[hashchain.SHA256], Parameters: asn1.NullRawValue},
		AuthenticatedAttrs: attrs,
		SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: OIDTimeSignature},
		Signature:          tsDER,
	}

	signedData := SignedData{
		Version:          3,
		DigestAlgorithms: []pkix.AlgorithmIdentifier{{Algorithm: hashAlgorithmOID[hashchain.SHA256], Parameters: asn1.NullRawValue}},
		EncapContentInfo: EncapsulatedContentInfo{
			EContentType: OIDTSTInfo,
			EContent:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: octetTLV},
		},
		Certificates: asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: certDER},
		SignerInfos:  []SignerInfo{signerInfo},
	}
	sdDER, err := asn1.Marshal(signedData)
	require.NoError(t, err)

	ci := ContentInfo{
		ContentType: OIDSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: sdDER},
	}
	der, err := asn1.Marshal(ci)
	require.NoError(t, err)
	return der, publishedData
}

// genTimeRaw builds a GeneralizedTime RawValue carrying value verbatim,
// for fields (like TSTInfo.GenTime) that capture the raw ASN.1 value
// rather than decoding it into a time.Time.
func genTimeRaw(t *testing.T, value string) asn1.RawValue {
	t.Helper()
	raw, err := asn1.Marshal(asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagGeneralizedTime, Bytes: []byte(value)})
	require.NoError(t, err)
	return asn1.RawValue{FullBytes: raw}
}

// foldPublishedImprint computes the published imprint a token with
// the given signed attributes and history chain must carry: the
// signed-attributes SET is hashed, folded through the chain, and the
// result hashed once more as a data imprint. This is the same
// derivation recomputeImprint performs on a decoded token.
func foldPublishedImprint(t *testing.T, attrs []Attribute, chain [][]byte) hashchain.Imprint {
	t.Helper()
	setBytes, err := signedAttrsAsSet(attrs)
	require.NoError(t, err)
	attrDigest := sha256.Sum256(setBytes)

	steps, err := hashchain.ParseChain(chain)
	require.NoError(t, err)
	folded, foldedAlg, err := hashchain.Fold(attrDigest[:], steps, hashchain.SHA256)
	require.NoError(t, err)

	finalDigest := sha256.Sum256(append([]byte{foldedAlg}, folded...))
	imprint, err := hashchain.NewImprint(hashchain.SHA256, finalDigest[:])
	require.NoError(t, err)
	return imprint
}

// extensionResponseDER wraps an aggregation chain and its published
// data in a granted CertTokenResponse, the shape Extend consumes.
func extensionResponseDER(t *testing.T, aggregation [][]byte, published PublishedData) []byte {
	t.Helper()
	ct := certToken{Version: 1, Aggregation: aggregation, PublishedData: published}
	ctDER, err := asn1.Marshal(ct)
	require.NoError(t, err)
	resp := CertTokenResponse{
		Status:    PKIStatusInfo{Status: StatusGranted},
		CertToken: asn1.RawValue{FullBytes: ctDER},
	}
	respDER, err := asn1.Marshal(resp)
	require.NoError(t, err)
	return respDER
}

func TestDecodeEncodeRoundTripsFixture(t *testing.T) {
	der, _ := buildFixtureDER(t)

	ts, err := Decode(der)
	require.NoError(t, err)
	assert.False(t, ts.IsExtended())
	assert.Equal(t, 1, ts.TSTInfo().Version)

	out, err := ts.Encode()
	require.NoError(t, err)

	again, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, ts.TimeSignature().PublishedData.PublicationIdentifier, again.TimeSignature().PublishedData.PublicationIdentifier)
	assert.True(t, hashEqual(ts.TimeSignature().PublishedData.PublicationImprint, again.TimeSignature().PublishedData.PublicationImprint))
}

func TestVerifyFreshShortTermTokenHasNoErrors(t *testing.T) {
	der, _ := buildFixtureDER(t)
	ts, err := Decode(der)
	require.NoError(t, err)

	info, err := Verify(ts, VerifyOptions{})
	require.NoError(t, err)
	assert.Zero(t, info.Errors)
	assert.NotZero(t, info.Status&StatusPublicKeySignaturePresent)
	assert.NotEmpty(t, info.PublicKeyFingerprint)
	assert.Equal(t, int64(1_700_000_000), info.RegisteredTime)
}

func TestVerifyCorruptedImprintOnlySetsHashchainFailure(t *testing.T) {
	der, _ := buildFixtureDER(t)
	ts, err := Decode(der)
	require.NoError(t, err)

	corrupted := *ts
	imprint := append([]byte(nil), ts.TimeSignature().PublishedData.PublicationImprint...)
	imprint[5] ^= 0xFF
	corrupted.timeSignature.PublishedData.PublicationImprint = imprint
	// Drop the PKI signature so this exercises only chain recomputation,
	// not the (now-mismatched) signature over the original PublishedData.
	corrupted.timeSignature.PKSignature = PKSignedData{}

	info, err := Verify(&corrupted, VerifyOptions{})
	require.NoError(t, err)
	assert.NotZero(t, info.Errors&ErrorHashchainVerificationFailure)
	assert.Zero(t, info.Errors&ErrorSyntacticCheckFailure)
	assert.Zero(t, info.Errors&ErrorPublicKeySignatureFailure)
}

func TestExtendThenVerifyHasNoErrors(t *testing.T) {
	der, publishedData := buildFixtureDER(t)
	ts, err := Decode(der)
	require.NoError(t, err)

	extended, err := Extend(ts, extensionResponseDER(t, nil, publishedData))
	require.NoError(t, err)
	assert.True(t, extended.IsExtended())

	info, err := Verify(extended, VerifyOptions{})
	require.NoError(t, err)
	assert.Zero(t, info.Errors)
	assert.NotEmpty(t, info.PublicationString)
}

func TestExtendWithLongerAggregationChain(t *testing.T) {
	history := [][]byte{rawStep(t, 0, 1)}
	der, _ := buildFixtureWithHistory(t, history)
	ts, err := Decode(der)
	require.NoError(t, err)

	// The aggregation keeps the existing history as its prefix and
	// adds two genuine steps; the new published data is the real fold
	// of the full chain, closed at a later publication round.
	aggregation := [][]byte{history[0], rawStep(t, 1, 2), rawStep(t, 0, 3)}
	published := PublishedData{
		PublicationIdentifier: big.NewInt(1_710_000_000),
		PublicationImprint:    foldPublishedImprint(t, ts.SignerInfo().AuthenticatedAttrs, aggregation),
	}

	extended, err := Extend(ts, extensionResponseDER(t, aggregation, published))
	require.NoError(t, err)
	assert.True(t, extended.IsExtended())
	assert.Len(t, extended.TimeSignature().History, 3)

	info, err := Verify(extended, VerifyOptions{})
	require.NoError(t, err)
	assert.Zero(t, info.Errors)
	assert.NotEmpty(t, info.PublicationString)
}

func TestExtendRejectsTamperedAggregationTail(t *testing.T) {
	history := [][]byte{rawStep(t, 0, 1)}
	der, _ := buildFixtureWithHistory(t, history)
	ts, err := Decode(der)
	require.NoError(t, err)

	aggregation := [][]byte{history[0], rawStep(t, 1, 2)}
	published := PublishedData{
		PublicationIdentifier: big.NewInt(1_710_000_000),
		PublicationImprint:    foldPublishedImprint(t, ts.SignerInfo().AuthenticatedAttrs, aggregation),
	}

	// Corrupt a sibling byte in the new tail step: the prefix still
	// matches and levels stay monotonic, but the fold no longer
	// reaches the published imprint.
	tampered := append([][]byte(nil), aggregation...)
	tail := append([]byte(nil), tampered[1]...)
	tail[5] ^= 0xFF
	tampered[1] = tail

	_, err = Extend(ts, extensionResponseDER(t, tampered, published))
	assert.ErrorIs(t, err, ErrCannotExtend)
}

func TestExtendRejectsSecondExtension(t *testing.T) {
	der, publishedData := buildFixtureDER(t)
	ts, err := Decode(der)
	require.NoError(t, err)

	respDER := extensionResponseDER(t, nil, publishedData)
	extended, err := Extend(ts, respDER)
	require.NoError(t, err)

	_, err = Extend(extended, respDER)
	assert.ErrorIs(t, err, ErrAlreadyExtended)
}
