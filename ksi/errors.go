package ksi

import (
	"fmt"

	"github.com/pkg/errors"
)

// SyntaxError is the "is this even well-formed" axis of the error
// taxonomy: malformed wire data, unsupported versions, untrusted
// algorithms, and gateway-reported protocol failures.
type SyntaxError string

const (
	ErrInvalidArgument         SyntaxError = "INVALID_ARGUMENT"
	ErrInvalidFormat           SyntaxError = "INVALID_FORMAT"
	ErrUnsupportedFormat       SyntaxError = "UNSUPPORTED_FORMAT"
	ErrInvalidLinkingInfo      SyntaxError = "INVALID_LINKING_INFO"
	ErrUntrustedHashAlgorithm  SyntaxError = "UNTRUSTED_HASH_ALGORITHM"
	ErrUntrustedSignatureAlgo  SyntaxError = "UNTRUSTED_SIGNATURE_ALGORITHM"
	ErrDifferentHashAlgorithms SyntaxError = "DIFFERENT_HASH_ALGORITHMS"
	ErrPKIBadAlg               SyntaxError = "PKI_BAD_ALG"
	ErrPKIBadRequest           SyntaxError = "PKI_BAD_REQUEST"
	ErrPKIBadDataFormat        SyntaxError = "PKI_BAD_DATA_FORMAT"
	ErrProtocolMismatch        SyntaxError = "PROTOCOL_MISMATCH"
	ErrUnacceptedPolicy        SyntaxError = "UNACCEPTED_POLICY"
	ErrNonstdExtendLater       SyntaxError = "NONSTD_EXTEND_LATER"
	ErrNonstdExtensionOverdue  SyntaxError = "NONSTD_EXTENSION_OVERDUE"
)

func (e SyntaxError) Error() string { return string(e) }

// SemanticError is the "well-formed but wrong" axis: document
// mismatches, failed chain recomputation, failed signature checks,
// publications-file trust failures.
type SemanticError string

const (
	ErrWrongDocument       SemanticError = "WRONG_DOCUMENT"
	ErrWrongSizeOfHistory  SemanticError = "WRONG_SIZE_OF_HISTORY"
	ErrRequestTimeMismatch SemanticError = "REQUEST_TIME_MISMATCH"
	ErrInvalidLengthBytes  SemanticError = "INVALID_LENGTH_BYTES"
	ErrInvalidAggregation  SemanticError = "INVALID_AGGREGATION"
	ErrInvalidSignature    SemanticError = "INVALID_SIGNATURE"
	ErrWrongSignedData     SemanticError = "WRONG_SIGNED_DATA"
	ErrTrustPointNotFound  SemanticError = "TRUST_POINT_NOT_FOUND"
	ErrInvalidTrustPoint   SemanticError = "INVALID_TRUST_POINT"
	ErrCannotExtend        SemanticError = "CANNOT_EXTEND"
	ErrAlreadyExtended     SemanticError = "ALREADY_EXTENDED"
	ErrKeyNotPublished     SemanticError = "KEY_NOT_PUBLISHED"
	ErrCertTicketTooOld    SemanticError = "CERT_TICKET_TOO_OLD"
	ErrCertNotTrusted      SemanticError = "CERT_NOT_TRUSTED"
)

func (e SemanticError) Error() string { return string(e) }

// SystemError is the "something outside the protocol broke" axis:
// resource exhaustion, crypto-library internal failures, overflow.
type SystemError string

const (
	ErrOutOfMemory   SystemError = "OUT_OF_MEMORY"
	ErrIO            SystemError = "IO_ERROR"
	ErrTimeOverflow  SystemError = "TIME_OVERFLOW"
	ErrCryptoFailure SystemError = "CRYPTO_FAILURE"
	ErrPKISystemFail SystemError = "PKI_SYSTEM_FAILURE"
	ErrUnknown       SystemError = "UNKNOWN_ERROR"
)

func (e SystemError) Error() string { return string(e) }

// Code returns the flat GT_*-style status code string for e, which
// must be a SyntaxError, SemanticError, or SystemError. It exists only
// at C-compatible boundaries (httpapi's JSON error field); library
// code should match on the typed sentinel, not this string.
func Code(err error) string {
	switch e := errors.Cause(err).(type) {
	case SyntaxError:
		return "GT_" + string(e)
	case SemanticError:
		return "GT_" + string(e)
	case SystemError:
		return "GT_" + string(e)
	default:
		return fmt.Sprintf("GT_UNKNOWN_ERROR(%v)", err)
	}
}
