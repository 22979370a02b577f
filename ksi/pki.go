package ksi

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"math/big"

	"github.com/pkg/errors"
)

// trustedSignatureDigest maps an AlgorithmIdentifier's OID to the
// crypto.Hash used to digest the signed data before verification.
// Only algorithms with an absent or explicit-NULL parameter are
// accepted.
var trustedSignatureDigest = map[string]crypto.Hash{
	"1.2.840.113549.1.1.11": crypto.SHA256, // sha256WithRSAEncryption
	"1.2.840.113549.1.1.12": crypto.SHA384, // sha384WithRSAEncryption
	"1.2.840.113549.1.1.13": crypto.SHA512, // sha512WithRSAEncryption
	"1.2.840.10045.4.3.2":   crypto.SHA256, // ecdsa-with-SHA256
	"1.2.840.10045.4.3.3":   crypto.SHA384, // ecdsa-with-SHA384
	"1.2.840.10045.4.3.4":   crypto.SHA512, // ecdsa-with-SHA512
}

// verifyPKISignature is only invoked when
// TimeSignature.PKSignature is present. It finds the signing
// certificate in the token's cert bag, DER-encodes PublishedData, and
// verifies the signature over its digest with the certificate's
// public key.
func verifyPKISignature(t *Timestamp) error {
	ts := t.timeSignature
	if len(ts.PKSignature.SignatureValue) == 0 {
		return nil
	}

	cert, err := findSignerCertificate(t)
	if err != nil {
		return err
	}

	publishedDataDER, err := asn1.Marshal(ts.PublishedData)
	if err != nil {
		return errors.Wrap(ErrCryptoFailure, err.Error())
	}

	algOID := ts.PKSignature.SignatureAlgorithm.Algorithm.String()
	digestAlg, ok := trustedSignatureDigest[algOID]
	if !ok {
		return errors.Wrap(ErrUntrustedSignatureAlgo, algOID)
	}
	params := ts.PKSignature.SignatureAlgorithm.Parameters
	if len(params.FullBytes) != 0 && !isASN1Null(params) {
		return errors.Wrap(ErrUntrustedSignatureAlgo, "signatureAlgorithm parameters must be absent or NULL")
	}

	h := digestAlg.New()
	h.Write(publishedDataDER)
	digest := h.Sum(nil)

	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, digestAlg, digest, ts.PKSignature.SignatureValue); err != nil {
			return errors.Wrap(ErrInvalidSignature, err.Error())
		}
	case *ecdsa.PublicKey:
		var sig struct{ R, S *big.Int }
		if _, err := asn1.Unmarshal(ts.PKSignature.SignatureValue, &sig); err != nil {
			return errors.Wrap(ErrCryptoFailure, err.Error())
		}
		if !ecdsa.Verify(pub, digest, sig.R, sig.S) {
			return ErrInvalidSignature
		}
	default:
		return errors.Wrap(ErrCryptoFailure, "unsupported public key type")
	}
	return nil
}

func isASN1Null(v asn1.RawValue) bool {
	return v.Class == asn1.ClassUniversal && v.Tag == asn1.TagNull
}

// findSignerCertificate locates, in the token's cert bag, the
// certificate matching the signer-info's issuer and serial number.
func findSignerCertificate(t *Timestamp) (*x509.Certificate, error) {
	certs, err := parseCertificateBag(t.content.Certificates)
	if err != nil {
		return nil, err
	}
	want := t.SignerInfo().IssuerAndSerial
	for _, cert := range certs {
		if want.SerialNumber != nil && cert.SerialNumber != nil &&
			want.SerialNumber.Cmp(cert.SerialNumber) == 0 &&
			bytesEqualRaw(want.Issuer, cert.RawIssuer) {
			return cert, nil
		}
	}
	return nil, errors.Wrap(ErrInvalidFormat, "signing certificate not found in cert bag")
}

// parseCertificateBag decodes the IMPLICIT [0] SET OF Certificate
// carried by SignedData.Certificates into parsed x509 certificates.
func parseCertificateBag(raw asn1.RawValue) ([]*x509.Certificate, error) {
	if len(raw.Bytes) == 0 {
		return nil, nil
	}
	rest := raw.Bytes
	var certs []*x509.Certificate
	for len(rest) > 0 {
		var one asn1.RawValue
		var err error
		rest, err = asn1.Unmarshal(rest, &one)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidFormat, err.Error())
		}
		cert, err := x509.ParseCertificate(one.FullBytes)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidFormat, err.Error())
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

func bytesEqualRaw(a asn1.RawValue, b []byte) bool {
	return hashEqual(a.FullBytes, b)
}
