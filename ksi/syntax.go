package ksi

import (
	"encoding/asn1"

	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/pkg/errors"
)

// checkSyntax enforces the token's ordered structural invariants,
// failing on the first violation.
func checkSyntax(t *Timestamp) error {
	sd := t.content
	tstInfo := t.tstInfo
	ts := t.timeSignature

	if sd.Version != 3 || tstInfo.Version != 1 || t.SignerInfo().Version != 1 {
		return errors.Wrap(ErrUnsupportedFormat, "unexpected SignedData/TSTInfo/SignerInfo version")
	}

	sigAlg := t.SignerInfo().SignatureAlgorithm
	if !sigAlg.Algorithm.Equal(OIDTimeSignature) {
		return errors.Wrap(ErrUnsupportedFormat, "signer-info signature algorithm is not TimeSignature")
	}
	if len(sigAlg.Parameters.FullBytes) != 0 && !isASN1Null(sigAlg.Parameters) {
		return errors.Wrap(ErrUnsupportedFormat, "TimeSignature algorithm parameters must be absent or NULL")
	}

	for _, ext := range tstInfo.Extensions {
		if ext.Critical {
			return errors.Wrap(ErrUnsupportedFormat, "unrecognized critical TSTInfo extension")
		}
	}

	if _, err := hashchain.ParseImprint(ts.PublishedData.PublicationImprint); err != nil {
		return errors.Wrap(ErrInvalidFormat, err.Error())
	}

	locationSteps, err := hashchain.ParseChain(ts.Location)
	if err != nil {
		return errors.Wrap(ErrInvalidLinkingInfo, err.Error())
	}
	if _, err := hashchain.ParseChain(ts.History); err != nil {
		return errors.Wrap(ErrInvalidLinkingInfo, err.Error())
	}
	if !hashchain.LevelsNonDecreasing(locationSteps) {
		return errors.Wrap(ErrInvalidLinkingInfo, "location chain levels are not non-decreasing")
	}

	if err := checkAuthenticatedAttrs(t.SignerInfo().AuthenticatedAttrs); err != nil {
		return err
	}

	return nil
}

// checkAuthenticatedAttrs requires a contentType attribute with value
// TSTInfo and a messageDigest attribute with an octet-string value.
func checkAuthenticatedAttrs(attrs []Attribute) error {
	var haveContentType, haveMessageDigest bool
	for _, attr := range attrs {
		switch {
		case attr.Type.Equal(OIDAttributeContentType):
			var oid asn1.ObjectIdentifier
			if _, err := asn1.Unmarshal(attr.Values.Bytes, &oid); err != nil {
				return errors.Wrap(ErrInvalidFormat, err.Error())
			}
			if !oid.Equal(OIDTSTInfo) {
				return errors.Wrap(ErrInvalidFormat, "contentType attribute is not TSTInfo")
			}
			haveContentType = true
		case attr.Type.Equal(OIDAttributeMessageDigest):
			var digest []byte
			if _, err := asn1.Unmarshal(attr.Values.Bytes, &digest); err != nil {
				return errors.Wrap(ErrInvalidFormat, err.Error())
			}
			haveMessageDigest = true
		}
	}
	if !haveContentType || !haveMessageDigest {
		return errors.Wrap(ErrInvalidFormat, "missing contentType or messageDigest signed attribute")
	}
	return nil
}

// messageDigestAttrValue extracts the messageDigest signed attribute's
// octet-string value, used by chain recomputation.
func messageDigestAttrValue(attrs []Attribute) ([]byte, bool) {
	for _, attr := range attrs {
		if !attr.Type.Equal(OIDAttributeMessageDigest) {
			continue
		}
		var digest []byte
		if _, err := asn1.Unmarshal(attr.Values.Bytes, &digest); err != nil {
			return nil, false
		}
		return digest, true
	}
	return nil, false
}
