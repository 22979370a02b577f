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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSignedCert(t *testing.T, priv *rsa.PrivateKey, serial int64) (*x509.Certificate, []byte) {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "pki test cert"},
		NotBefore:    time.Unix(1_600_000_000, 0),
		NotAfter:     time.Unix(1_900_000_000, 0),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, der
}

func timestampWithSignerCert(t *testing.T, cert *x509.Certificate, certDER []byte, ts TimeSignature) *Timestamp {
	t.Helper()
	return &Timestamp{
		content: SignedData{
			Certificates: asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: certDER},
			SignerInfos: []SignerInfo{{
				IssuerAndSerial: IssuerAndSerial{
					Issuer:       asn1.RawValue{FullBytes: cert.RawIssuer},
					SerialNumber: cert.SerialNumber,
				},
			}},
		},
		timeSignature: ts,
	}
}

func TestVerifyPKISignatureAcceptsValidRSASignature(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert, certDER := selfSignedCert(t, priv, 1)

	publishedData := PublishedData{PublicationIdentifier: big.NewInt(1), PublicationImprint: []byte{1, 2, 3}}
	der, err := asn1.Marshal(publishedData)
	require.NoError(t, err)
	digest := sha256.Sum256(der)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)

	ts := timestampWithSignerCert(t, cert, certDER, TimeSignature{
		PublishedData: publishedData,
		PKSignature: PKSignedData{
			SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: oidSHA256WithRSA, Parameters: asn1.NullRawValue},
			SignatureValue:     sig,
		},
	})

	assert.NoError(t, verifyPKISignature(ts))
}

func TestVerifyPKISignatureRejectsTamperedSignature(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert, certDER := selfSignedCert(t, priv, 1)

	publishedData := PublishedData{PublicationIdentifier: big.NewInt(1), PublicationImprint: []byte{1, 2, 3}}
	der, err := asn1.Marshal(publishedData)
	require.NoError(t, err)
	digest := sha256.Sum256(der)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)
	sig[0] ^= 0xFF

	ts := timestampWithSignerCert(t, cert, certDER, TimeSignature{
		PublishedData: publishedData,
		PKSignature: PKSignedData{
			SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: oidSHA256WithRSA, Parameters: asn1.NullRawValue},
			SignatureValue:     sig,
		},
	})

	assert.ErrorIs(t, verifyPKISignature(ts), ErrInvalidSignature)
}

func TestVerifyPKISignatureSkipsWhenAbsent(t *testing.T) {
	ts := &Timestamp{timeSignature: TimeSignature{}}
	assert.NoError(t, verifyPKISignature(ts))
}

func TestVerifyPKISignatureRejectsUntrustedAlgorithm(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert, certDER := selfSignedCert(t, priv, 1)

	ts := timestampWithSignerCert(t, cert, certDER, TimeSignature{
		PublishedData: PublishedData{PublicationIdentifier: big.NewInt(1), PublicationImprint: []byte{1, 2, 3}},
		PKSignature: PKSignedData{
			SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 3, 4}},
			SignatureValue:     []byte{0x01},
		},
	})

	assert.ErrorIs(t, verifyPKISignature(ts), ErrUntrustedSignatureAlgo)
}

func TestVerifyPKISignatureRejectsNonNullParameters(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cert, certDER := selfSignedCert(t, priv, 1)

	ts := timestampWithSignerCert(t, cert, certDER, TimeSignature{
		PublishedData: PublishedData{PublicationIdentifier: big.NewInt(1), PublicationImprint: []byte{1, 2, 3}},
		PKSignature: PKSignedData{
			SignatureAlgorithm: pkix.AlgorithmIdentifier{
				Algorithm:  oidSHA256WithRSA,
				Parameters: asn1.RawValue{FullBytes: []byte{0x02, 0x01, 0x00}}, // INTEGER 0, not NULL
			},
			SignatureValue: []byte{0x01},
		},
	})

	assert.ErrorIs(t, verifyPKISignature(ts), ErrUntrustedSignatureAlgo)
}

func TestFindSignerCertificateRejectsMissingCert(t *testing.T) {
	ts := &Timestamp{
		content: SignedData{
			SignerInfos: []SignerInfo{{
				IssuerAndSerial: IssuerAndSerial{SerialNumber: big.NewInt(99)},
			}},
		},
	}
	_, err := findSignerCertificate(ts)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestIsASN1Null(t *testing.T) {
	assert.True(t, isASN1Null(asn1.NullRawValue))
	assert.False(t, isASN1Null(asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagInteger}))
}

func TestParseCertificateBagEmpty(t *testing.T) {
	certs, err := parseCertificateBag(asn1.RawValue{})
	require.NoError(t, err)
	assert.Empty(t, certs)
}
