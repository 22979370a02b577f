package ksi

import (
	"encoding/asn1"

	"github.com/pkg/errors"
)

// Timestamp is a decoded CMS token plus its two cached projections,
// kept in sync: the projections are always the current decode of the
// token's own bytes. A Timestamp is never mutated in place:
// every operation that changes its content (Extend) builds and returns
// a new Timestamp.
type Timestamp struct {
	content       SignedData
	tstInfo       TSTInfo
	timeSignature TimeSignature
}

// TSTInfo returns the token's cached RFC 3161 body.
func (t *Timestamp) TSTInfo() TSTInfo { return t.tstInfo }

// TimeSignature returns the token's cached GuardTime payload.
func (t *Timestamp) TimeSignature() TimeSignature { return t.timeSignature }

// IsExtended reports whether the token is long-term: no embedded PKI
// signature.
func (t *Timestamp) IsExtended() bool {
	return len(t.timeSignature.PKSignature.SignatureValue) == 0
}

// SignerInfo returns the token's single signer-info.
func (t *Timestamp) SignerInfo() SignerInfo { return t.content.SignerInfos[0] }

// Decode parses der as a CMS-wrapped GuardTime timestamp token.
// Failure is always ErrInvalidFormat (wrapped with the underlying
// cause): malformed ASN.1, non-SignedData content, detached content,
// wrong encapsulated content type, or a signer-info count other than
// one.
func Decode(der []byte) (*Timestamp, error) {
	var ci ContentInfo
	if _, err := asn1.Unmarshal(der, &ci); err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	if !ci.ContentType.Equal(OIDSignedData) {
		return nil, errors.Wrap(ErrInvalidFormat, "content type is not SignedData")
	}

	var sd SignedData
	if _, err := asn1.Unmarshal(ci.Content.Bytes, &sd); err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	if !sd.EncapContentInfo.EContentType.Equal(OIDTSTInfo) {
		return nil, errors.Wrap(ErrInvalidFormat, "encapsulated content is not TSTInfo")
	}
	if len(sd.EncapContentInfo.EContent.Bytes) == 0 {
		return nil, errors.Wrap(ErrInvalidFormat, "detached content is not supported")
	}
	if len(sd.SignerInfos) != 1 {
		return nil, errors.Wrap(ErrInvalidFormat, "expected exactly one signer-info")
	}

	ts := &Timestamp{content: sd}
	if err := ts.refreshProjections(); err != nil {
		return nil, err
	}
	return ts, nil
}

// Encode re-emits the canonical DER of the underlying CMS token.
func (t *Timestamp) Encode() ([]byte, error) {
	sdBytes, err := asn1.Marshal(t.content)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}
	ci := ContentInfo{
		ContentType: OIDSignedData,
		Content: asn1.RawValue{
			Class:      asn1.ClassContextSpecific,
			Tag:        0,
			IsCompound: true,
			Bytes:      sdBytes,
		},
	}
	out, err := asn1.Marshal(ci)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}
	return out, nil
}

// refreshProjections re-derives tstInfo and timeSignature from the
// current content, the core of the "decoded-and-frozen value" design:
// this is the only place those fields are ever assigned.
func (t *Timestamp) refreshProjections() error {
	// EContent is tagged "explicit,tag:0": stripping the explicit
	// wrapper leaves the complete inner OCTET STRING TLV (tag and
	// all), not its bare content, so a second unmarshal into []byte is
	// needed to reach the DER-encoded TSTInfo.
	var octets []byte
	if _, err := asn1.Unmarshal(t.content.EncapContentInfo.EContent.Bytes, &octets); err != nil {
		return errors.Wrap(ErrInvalidFormat, err.Error())
	}
	var tstInfo TSTInfo
	if _, err := asn1.Unmarshal(octets, &tstInfo); err != nil {
		return errors.Wrap(ErrInvalidFormat, err.Error())
	}

	signer := t.content.SignerInfos[0]
	var timeSignature TimeSignature
	if _, err := asn1.Unmarshal(signer.Signature, &timeSignature); err != nil {
		return errors.Wrap(ErrInvalidFormat, err.Error())
	}

	t.tstInfo = tstInfo
	t.timeSignature = timeSignature
	return nil
}

// withTimeSignature returns a new Timestamp whose single signer-info's
// Signature field carries ts DER-encoded, and whose cert bag is
// cleared if dropCerts is set. The receiver is left untouched.
func (t *Timestamp) withTimeSignature(ts TimeSignature, dropCerts bool) (*Timestamp, error) {
	encoded, err := asn1.Marshal(ts)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}

	next := *t
	signer := next.content.SignerInfos[0]
	signer.Signature = encoded
	signers := make([]SignerInfo, len(next.content.SignerInfos))
	copy(signers, next.content.SignerInfos)
	signers[0] = signer
	next.content.SignerInfos = signers

	if dropCerts {
		next.content.Certificates = asn1.RawValue{}
	}

	if err := next.refreshProjections(); err != nil {
		return nil, err
	}
	return &next, nil
}
