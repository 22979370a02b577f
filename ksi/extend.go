package ksi

import (
	"bytes"
	"encoding/asn1"

	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/pkg/errors"
)

// Extend splices a gateway's extension response into an existing
// short-term Timestamp, producing a new long-term Timestamp. The
// input is never mutated; on any error nothing observable changes.
//
// Fails with ErrAlreadyExtended if short does not carry a pkSignature
// (nothing to extend), and with ErrCannotExtend if the response's
// aggregation chain does not share a consistent prefix with short's
// existing history chain or does not fold to the published imprint
// the certToken claims.
func Extend(short *Timestamp, responseDER []byte) (*Timestamp, error) {
	if short.IsExtended() {
		return nil, ErrAlreadyExtended
	}

	certTokenDER, err := decodeCertTokenResponse(responseDER)
	if err != nil {
		return nil, err
	}

	var ct certToken
	if _, err := asn1.Unmarshal(certTokenDER, &ct); err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	if ct.Version != 1 {
		return nil, errors.Wrap(ErrUnsupportedFormat, "certToken.version != 1")
	}
	for _, ext := range ct.Extensions {
		if ext.Critical {
			return nil, errors.Wrap(ErrUnsupportedFormat, "unrecognized critical extension in certToken")
		}
	}

	nextTS := short.TimeSignature()
	nextTS.History = ct.Aggregation
	nextTS.PublishedData = ct.PublishedData
	nextTS.PKSignature = PKSignedData{}
	nextTS.PubReference = nil

	candidate, err := short.withTimeSignature(nextTS, true)
	if err != nil {
		return nil, err
	}
	if err := checkExtendConsistency(short.TimeSignature(), ct, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// checkExtendConsistency verifies the splice from both ends: the
// portion of ct.Aggregation overlapping the existing history chain
// must match it byte-for-byte, and the extended chain, spliced into
// candidate, must actually fold to the published imprint the
// certToken claims. An aggregation whose prefix lines up but whose
// tail reaches a different imprint is rejected here rather than left
// for a later Verify to flag.
func checkExtendConsistency(ts TimeSignature, ct certToken, candidate *Timestamp) error {
	if err := checkAggregationPrefix(ts, ct); err != nil {
		return err
	}

	recomputed, err := recomputeImprint(candidate)
	if err != nil {
		return errors.Wrap(ErrCannotExtend, err.Error())
	}
	if !hashEqual(recomputed, ct.PublishedData.PublicationImprint) {
		return errors.Wrap(ErrCannotExtend, "extended chain does not fold to the published imprint")
	}
	return nil
}

// checkAggregationPrefix verifies that the existing history chain is
// a genuine prefix of ct.Aggregation, not an unrelated chain for a
// different round, and that the extended chain is well-formed.
func checkAggregationPrefix(ts TimeSignature, ct certToken) error {
	if len(ct.Aggregation) < len(ts.History) {
		return errors.Wrap(ErrCannotExtend, "extended chain is shorter than existing history")
	}
	for i, step := range ts.History {
		if !bytes.Equal(step, ct.Aggregation[i]) {
			return errors.Wrapf(ErrCannotExtend, "aggregation step %d diverges from existing history", i)
		}
	}

	newSteps, err := hashchain.ParseChain(ct.Aggregation)
	if err != nil {
		return errors.Wrap(ErrCannotExtend, err.Error())
	}
	if !hashchain.LevelsNonDecreasing(newSteps) {
		return errors.Wrap(ErrCannotExtend, "extended chain levels are not monotonic")
	}
	return nil
}
