package ksi

import (
	"encoding/asn1"

	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/pkg/errors"
)

// recomputeImprint performs the full aggregation recomputation:
// it rebuilds the published imprint from the signed attributes through
// the location chain, the history chain, and a final hash, returning
// the result for comparison against TimeSignature.PublishedData's
// imprint.
func recomputeImprint(t *Timestamp) ([]byte, error) {
	ts := t.timeSignature

	if len(ts.PublishedData.PublicationImprint) == 0 {
		return nil, errors.Wrap(ErrInvalidFormat, "empty publicationImprint")
	}
	algServer := ts.PublishedData.PublicationImprint[0]
	if !hashchain.KnownAlgorithm(algServer) {
		return nil, errors.Wrap(ErrUntrustedHashAlgorithm, "publicationImprint algorithm")
	}
	if len(t.content.SignerInfos) != 1 {
		return nil, errors.Wrap(ErrInvalidFormat, "expected exactly one signer-info")
	}
	signer := t.SignerInfo()
	algClient, ok := algorithmFromOID(signer.DigestAlgorithm)
	if !ok || !hashchain.KnownAlgorithm(algClient) {
		return nil, errors.Wrap(ErrUntrustedHashAlgorithm, "signer digestAlgorithm")
	}

	// Step 1: sanity between the signed-attributes digest and TSTInfo.
	tstInfoDER, err := asn1.Marshal(t.tstInfo)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}
	h, ok := hashchain.NewHash(algClient)
	if !ok {
		return nil, errors.Wrap(ErrUntrustedHashAlgorithm, "algClient")
	}
	h.Write(tstInfoDER)
	tstInfoDigest := h.Sum(nil)

	messageDigest, ok := messageDigestAttrValue(signer.AuthenticatedAttrs)
	if !ok {
		return nil, errors.Wrap(ErrWrongSignedData, "missing messageDigest attribute")
	}
	if !hashEqual(tstInfoDigest, messageDigest) {
		return nil, errors.Wrap(ErrWrongSignedData, "TSTInfo digest does not match messageDigest attribute")
	}

	// Step 2: input to the aggregation. DER-encode the signed
	// attributes as a CMS SET OF and hash with algClient.
	setBytes, err := signedAttrsAsSet(signer.AuthenticatedAttrs)
	if err != nil {
		return nil, err
	}
	h, _ = hashchain.NewHash(algClient)
	h.Write(setBytes)
	digest := h.Sum(nil)

	imprint, err := hashchain.NewImprint(algClient, digest)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}

	// Step 3: fold the location chain.
	locationSteps, err := hashchain.ParseChain(ts.Location)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidLinkingInfo, err.Error())
	}
	folded, foldedAlg, err := hashchain.Fold(imprint.Digest(), locationSteps, algClient)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAggregation, err.Error())
	}

	// Step 4: fold the history chain. Level is ignored here; it is
	// only a monotonicity invariant on the location chain.
	historySteps, err := hashchain.ParseChain(ts.History)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidLinkingInfo, err.Error())
	}
	folded, foldedAlg, err = hashchain.Fold(folded, historySteps, foldedAlg)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAggregation, err.Error())
	}

	// Step 5: final hash under algServer.
	finalHash, ok := hashchain.NewHash(algServer)
	if !ok {
		return nil, errors.Wrap(ErrUntrustedHashAlgorithm, "algServer")
	}
	finalHash.Write([]byte{foldedAlg})
	finalHash.Write(folded)
	finalDigest := finalHash.Sum(nil)

	finalImprint, err := hashchain.NewImprint(algServer, finalDigest)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}
	return finalImprint, nil
}

func hashEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// signedAttrsAsSet re-DER-encodes attrs using the universal SET OF tag
// (0x31) in place of the IMPLICIT [0] tag they carry inside
// SignerInfo. CMS signs the SET OF form of the signed attributes,
// not the wire's implicit-tagged form.
func signedAttrsAsSet(attrs []Attribute) ([]byte, error) {
	raw, err := asn1.Marshal(attrs)
	if err != nil {
		return nil, errors.Wrap(ErrCryptoFailure, err.Error())
	}
	// asn1.Marshal of a []Attribute slice produces a SEQUENCE OF
	// (tag 0x30); swap it for SET OF (tag 0x31), the bytes of a DER
	// SET OF and SEQUENCE OF differ only in that leading tag octet.
	if len(raw) == 0 {
		return raw, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	out[0] = 0x31
	return out, nil
}
