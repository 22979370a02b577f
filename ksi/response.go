package ksi

import (
	"encoding/asn1"

	"github.com/pkg/errors"
)

// failureInfoError maps a PKIStatusInfo failure-info bit position to
// the SyntaxError it represents.
var failureInfoError = map[PKIFailureInfo]SyntaxError{
	FailureBadAlg:           ErrPKIBadAlg,
	FailureBadRequest:       ErrPKIBadRequest,
	FailureBadDataFormat:    ErrPKIBadDataFormat,
	FailureUnacceptedPolicy: ErrUnacceptedPolicy,
	FailureExtendLater:      ErrNonstdExtendLater,
	FailureExtensionOverdue: ErrNonstdExtensionOverdue,
}

// checkStatus validates a PKIStatusInfo, succeeding for granted /
// grantedWithMods and mapping every other status, combined with its
// failure-info bits, to a SyntaxError.
func checkStatus(status PKIStatusInfo) error {
	switch status.Status {
	case StatusGranted, StatusGrantedWithMods:
		return nil
	}
	for bit, sentinel := range failureInfoError {
		if bitSet(status.FailInfo, int(bit)) {
			return sentinel
		}
	}
	return errors.Wrapf(ErrProtocolMismatch, "gateway status %d with no recognized failure-info bit", status.Status)
}

func bitSet(bits asn1.BitString, position int) bool {
	return bits.At(position) == 1
}

// CreateFromResponse decodes a TimeStampResp, checks its status, and
// adopts the enclosed timeStampToken as a fresh short-term Timestamp.
// No signature verification happens here; that is Verify's job.
func CreateFromResponse(der []byte) (*Timestamp, error) {
	var resp TimeStampResp
	if _, err := asn1.Unmarshal(der, &resp); err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	if err := checkStatus(resp.Status); err != nil {
		return nil, err
	}
	if len(resp.TimeStampToken.FullBytes) == 0 {
		return nil, errors.Wrap(ErrInvalidFormat, "granted status with no timeStampToken")
	}
	return Decode(resp.TimeStampToken.FullBytes)
}

// decodeCertTokenResponse decodes a CertTokenResponse and checks its
// status, returning the enclosed certToken's raw DER for the caller
// (Extend) to unmarshal and splice.
func decodeCertTokenResponse(der []byte) ([]byte, error) {
	var resp CertTokenResponse
	if _, err := asn1.Unmarshal(der, &resp); err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	if err := checkStatus(resp.Status); err != nil {
		return nil, err
	}
	if len(resp.CertToken.FullBytes) == 0 {
		return nil, errors.Wrap(ErrInvalidFormat, "granted status with no certToken")
	}
	return resp.CertToken.FullBytes, nil
}
