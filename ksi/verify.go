package ksi

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"

	"github.com/gt-ksi/ksi-go/asn1time"
	"github.com/gt-ksi/ksi-go/b32"
	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/gt-ksi/ksi-go/location"
	"github.com/gt-ksi/ksi-go/publication"
	"github.com/pkg/errors"
)

// is32BitPlatform is the classic Go int-size probe: true when running
// where int is 32 bits. Registration times that overflow a 32-bit
// time_t are rejected only on such platforms, without a build tag.
const is32BitPlatform = ^uint(0)>>32 == 0

// Status bits: which optional checks ran.
const (
	StatusDocumentHashChecked         = 1 << 0
	StatusPublicationChecked          = 1 << 1
	StatusPublicKeySignaturePresent   = 1 << 2
	StatusPublicationReferencePresent = 1 << 3
)

// Error bits: which checks failed.
const (
	ErrorSyntacticCheckFailure        = 1 << 0
	ErrorHashchainVerificationFailure = 1 << 1
	ErrorPublicKeySignatureFailure    = 1 << 2
)

// ShortTermFingerprintAlgorithm is the hardcoded hash algorithm for a
// short-term token's key fingerprint, independent of whatever the
// publications file's key-hash table advertises (see DESIGN.md).
const ShortTermFingerprintAlgorithm = hashchain.SHA256

// KeyPublicationTimePolicy derives the "published" time of a signing
// certificate's key, for the CERT_TICKET_TOO_OLD check. Defaults to
// DefaultKeyPublicationTimePolicy.
type KeyPublicationTimePolicy func(cert *x509.Certificate, keyHash publication.KeyHash) int64

// DefaultKeyPublicationTimePolicy reproduces the original tool's
// behavior: the certificate's notBefore time.
func DefaultKeyPublicationTimePolicy(cert *x509.Certificate, _ publication.KeyHash) int64 {
	return cert.NotBefore.Unix()
}

// VerificationInfo is the implicit + explicit result of Verify, plus
// the status/error bitmaps.
type VerificationInfo struct {
	LocationID           uint64  `json:"location_id"`
	LocationName         *string `json:"location_name,omitempty"`
	RegisteredTime       int64   `json:"registered_time"`
	PublicKeyFingerprint string  `json:"public_key_fingerprint,omitempty"` // set iff short-term
	PublicationString    string  `json:"publication_string,omitempty"`    // set iff extended

	// Explicit is set only when VerifyOptions.Explicit is true and
	// carries every displayable field of the token. Decoding it
	// never fails: a sub-field that can't be recovered is left at
	// its zero value.
	Explicit *ExplicitInfo `json:"explicit,omitempty"`

	Status uint32 `json:"verification_status"`
	Errors uint32 `json:"verification_errors"`
}

// VerifyOptions configures an optional Verify pass. DocumentHash, when
// non-empty, drives the checkDocumentHash auxiliary check; Oracle,
// when non-nil, drives checkPublication/checkPublicKey.
type VerifyOptions struct {
	DocumentAlgorithm        byte
	DocumentHash             []byte
	Oracle                   publication.Oracle
	KeyPublicationTimePolicy KeyPublicationTimePolicy

	// Explicit requests the explicit VerificationInfo block.
	Explicit bool
}

// Verify runs the full verification pass: structural check, implicit
// extraction, chain recomputation, and, when present, PKI signature
// verification. It never short-circuits: every sub-check contributes
// its own error bit, and a VerificationInfo is always returned unless
// a hard system error occurs.
func Verify(t *Timestamp, opts VerifyOptions) (VerificationInfo, error) {
	info := VerificationInfo{}

	if err := checkSyntax(t); err != nil {
		info.Errors |= ErrorSyntacticCheckFailure
	}

	locationSteps, locErr := hashchain.ParseChain(t.timeSignature.Location)
	historySteps, histErr := hashchain.ParseChain(t.timeSignature.History)
	var registeredTime int64
	if locErr != nil || histErr != nil {
		info.Errors |= ErrorSyntacticCheckFailure
	} else {
		loc, err := location.Decode(locationSteps)
		if err != nil {
			info.Errors |= ErrorSyntacticCheckFailure
		} else {
			info.LocationID = loc.LocationID
			info.LocationName = loc.LocationName
		}

		registered, err := location.RegisteredTime(historySteps, t.timeSignature.PublishedData.PublicationIdentifier.Int64())
		switch {
		case err != nil:
			info.Errors |= ErrorSyntacticCheckFailure
			info.RegisteredTime = 0
		case is32BitPlatform && asn1time.CheckInt32Range(registered) != nil:
			info.Errors |= ErrorSyntacticCheckFailure
			info.RegisteredTime = 0
		default:
			info.RegisteredTime = registered
			registeredTime = registered
		}
	}

	if finalImprint, err := recomputeImprint(t); err != nil {
		info.Errors |= ErrorHashchainVerificationFailure
	} else if !hashEqual(finalImprint, t.timeSignature.PublishedData.PublicationImprint) {
		info.Errors |= ErrorHashchainVerificationFailure
	}

	if t.IsExtended() {
		fingerprint, err := publicationString(t)
		if err == nil {
			info.PublicationString = fingerprint
		}
		if len(t.timeSignature.PubReference) > 0 {
			info.Status |= StatusPublicationReferencePresent
		}
	} else {
		info.Status |= StatusPublicKeySignaturePresent
		if err := verifyPKISignature(t); err != nil {
			info.Errors |= ErrorPublicKeySignatureFailure
		}
		fingerprint, err := shortTermFingerprint(t)
		if err == nil {
			info.PublicKeyFingerprint = fingerprint
		}
	}

	if len(opts.DocumentHash) > 0 {
		info.Status |= StatusDocumentHashChecked
		if err := checkDocumentHash(t, opts.DocumentAlgorithm, opts.DocumentHash); err != nil {
			info.Errors |= ErrorSyntacticCheckFailure
		}
	}

	if opts.Oracle != nil {
		info.Status |= StatusPublicationChecked
		if err := checkPublication(t, opts.Oracle); err != nil {
			info.Errors |= ErrorHashchainVerificationFailure
		}
		if err := checkPublicKey(t, registeredTime, opts.Oracle, opts.KeyPublicationTimePolicy); err != nil {
			info.Errors |= ErrorPublicKeySignatureFailure
		}
	}

	if opts.Explicit {
		explicit := DecodeExplicit(t)
		info.Explicit = &explicit
	}

	return info, nil
}

// publicationString renders PublishedData||crc32 as a base32 string.
func publicationString(t *Timestamp) (string, error) {
	der, err := asn1.Marshal(t.timeSignature.PublishedData)
	if err != nil {
		return "", errors.Wrap(ErrCryptoFailure, err.Error())
	}
	return b32.EncodeChecked(der, b32.DefaultGroupSize)
}

// shortTermFingerprint renders the SHA-256 (hardcoded, see DESIGN.md)
// fingerprint of the signing certificate's DER public key.
func shortTermFingerprint(t *Timestamp) (string, error) {
	cert, err := findSignerCertificate(t)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	imprint, err := hashchain.NewImprint(ShortTermFingerprintAlgorithm, h[:])
	if err != nil {
		return "", errors.Wrap(ErrCryptoFailure, err.Error())
	}
	return b32.EncodeChecked(imprint, b32.DefaultGroupSize)
}

// checkDocumentHash compares TSTInfo.messageImprint to a supplied
// document digest.
func checkDocumentHash(t *Timestamp, algorithm byte, digest []byte) error {
	want, ok := algorithmFromOID(t.tstInfo.MessageImprint.HashAlgorithm)
	if !ok {
		return errors.Wrap(ErrUntrustedHashAlgorithm, "TSTInfo messageImprint algorithm")
	}
	if want != algorithm {
		return ErrDifferentHashAlgorithms
	}
	if !hashEqual(t.tstInfo.MessageImprint.HashedMessage, digest) {
		return ErrWrongDocument
	}
	return nil
}

// checkPublication fetches the published data for the token's
// publicationIdentifier from oracle and compares it structurally
// against the token's own PublishedData.
func checkPublication(t *Timestamp, oracle publication.Oracle) error {
	want := publication.PublishedData{
		Identifier: t.timeSignature.PublishedData.PublicationIdentifier.Int64(),
		Imprint:    t.timeSignature.PublishedData.PublicationImprint,
	}
	got, ok := oracle.GetPublishedData(want.Identifier)
	if !ok {
		return ErrTrustPointNotFound
	}
	if !got.Equal(want) {
		return ErrInvalidTrustPoint
	}
	return nil
}

// checkPublicKey hashes the signer certificate's DER public key with
// each algorithm the publications file's key-hash table uses until a
// match is found, then requires the key's publication time to be no
// later than registeredTime.
func checkPublicKey(t *Timestamp, registeredTime int64, oracle publication.Oracle, policy KeyPublicationTimePolicy) error {
	if policy == nil {
		policy = DefaultKeyPublicationTimePolicy
	}
	cert, err := findSignerCertificate(t)
	if err != nil {
		return err
	}

	for _, kh := range oracle.KeyHashes() {
		algorithm := kh.Imprint.Algorithm()
		h, ok := hashchain.NewHash(algorithm)
		if !ok {
			continue
		}
		h.Write(cert.RawSubjectPublicKeyInfo)
		if !hashEqual(h.Sum(nil), kh.Imprint.Digest()) {
			continue
		}
		publishedAt := policy(cert, kh)
		if publishedAt > registeredTime {
			return ErrCertTicketTooOld
		}
		return nil
	}
	return ErrKeyNotPublished
}
