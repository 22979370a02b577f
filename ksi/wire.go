// Package ksi implements the client-side library for GuardTime keyless
// timestamps: building timestamp/extension requests, decoding gateway
// responses into tokens, extending short-term tokens into long-term
// ones, and verifying tokens against a document hash and/or a
// publications oracle.
package ksi

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
)

// OIDs this package recognizes on the wire.
var (
	OIDData       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	OIDSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	OIDTSTInfo    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 4}

	OIDAttributeContentType   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 3}
	OIDAttributeMessageDigest = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 4}

	// OIDTimeSignature is the GuardTime TimeSignature algorithm
	// identifier carried in the single signer-info's
	// SignatureAlgorithm field; its Signature field then holds the
	// DER encoding of TimeSignature rather than a plain PKCS#1
	// signature value.
	OIDTimeSignature = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 27868, 4, 1}
)

// ContentInfo is the outermost CMS structure: a content type and its
// type-specific payload.
type ContentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,tag:0"`
}

// SignedData is CMS SignedData (RFC 5652), restricted by this package
// to the shape a GuardTime token carries: a set of digest algorithms
// (its size is not checked), encapsulated TSTInfo, zero or more
// certificates, exactly one signer-info.
type SignedData struct {
	Version          int
	DigestAlgorithms []pkix.AlgorithmIdentifier `asn1:"set"`
	EncapContentInfo EncapsulatedContentInfo
	Certificates     asn1.RawValue `asn1:"optional,tag:0"`
	SignerInfos      []SignerInfo  `asn1:"set"`
}

// EncapsulatedContentInfo holds the signed content: for a GuardTime
// token, eContentType is TSTInfo and eContent is present (the token is
// never detached).
type EncapsulatedContentInfo struct {
	EContentType asn1.ObjectIdentifier
	EContent     asn1.RawValue `asn1:"optional,explicit,tag:0"`
}

// SignerInfo describes the signer and carries, in SignatureAlgorithm /
// Signature, either a conventional PKCS#1 signature or, for
// GuardTime tokens, the TimeSignature OID and its DER payload.
type SignerInfo struct {
	Version            int
	IssuerAndSerial    IssuerAndSerial
	DigestAlgorithm    pkix.AlgorithmIdentifier
	AuthenticatedAttrs []Attribute `asn1:"optional,tag:0,set"`
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Signature          []byte
}

// IssuerAndSerial identifies the signer's certificate by issuer DN and
// serial number, exactly as CMS IssuerAndSerialNumber.
type IssuerAndSerial struct {
	Issuer       asn1.RawValue
	SerialNumber *big.Int
}

// Attribute is one signed attribute: an OID and a SET of values.
type Attribute struct {
	Type   asn1.ObjectIdentifier
	Values asn1.RawValue `asn1:"set"`
}

// MessageImprint is the (algorithm, hashed message) pair RFC 3161
// calls messageImprint, reused for both TSTInfo and TimeStampReq.
type MessageImprint struct {
	HashAlgorithm pkix.AlgorithmIdentifier
	HashedMessage []byte
}

// Accuracy is TSTInfo's optional sub-second precision triple.
type Accuracy struct {
	Seconds int `asn1:"optional"`
	Millis  int `asn1:"optional,tag:0"`
	Micros  int `asn1:"optional,tag:1"`
}

// TSTInfo is the RFC 3161 time-stamp token body.
type TSTInfo struct {
	Version        int
	Policy         asn1.ObjectIdentifier
	MessageImprint MessageImprint
	SerialNumber   *big.Int
	GenTime        asn1.RawValue
	Accuracy       Accuracy         `asn1:"optional"`
	Ordering       bool             `asn1:"optional,default:false"`
	Nonce          *big.Int         `asn1:"optional"`
	TSA            asn1.RawValue    `asn1:"optional,tag:0"`
	Extensions     []pkix.Extension `asn1:"optional,tag:1"`
}

// chainStep is TimeSignature.location/.history's element shape: each
// hash-chain step is carried as the raw bytes hashchain.ParseStep
// expects, wrapped in its own OCTET STRING.
type chainStep = []byte

// PublishedData is (publicationIdentifier, publicationImprint), the
// value a round's root contributes to the publications file.
type PublishedData struct {
	PublicationIdentifier *big.Int
	PublicationImprint    []byte
}

// KeyCommitmentRef is an optional opaque reference inside pkSignature,
// rendered as UTF-8 when printable, hex otherwise.
type KeyCommitmentRef = []byte

// PKSignedData is TimeSignature's optional embedded PKI signature over
// PublishedData, present iff the token is short-term.
type PKSignedData struct {
	SignatureAlgorithm pkix.AlgorithmIdentifier
	SignatureValue     []byte
	KeyCommitmentRefs  []KeyCommitmentRef `asn1:"optional,tag:0"`
}

// TimeSignature is the GuardTime-specific payload carried as the
// signer-info's Signature field.
type TimeSignature struct {
	Location      []chainStep
	History       []chainStep
	PublishedData PublishedData
	PKSignature   PKSignedData `asn1:"optional,tag:0"`
	PubReference  [][]byte     `asn1:"optional,tag:1"`
}

// TimeStampReq is the RFC 3161 timestamp request this library builds:
// always version 1, no policy, no nonce, no extensions.
type TimeStampReq struct {
	Version        int
	MessageImprint MessageImprint
	ReqPolicy      asn1.ObjectIdentifier `asn1:"optional"`
	Nonce          *big.Int              `asn1:"optional"`
	CertReq        bool                  `asn1:"optional,default:false"`
	Extensions     []pkix.Extension      `asn1:"optional,tag:0"`
}

// PKIFailureInfo mirrors RFC 3161's FailureInfo bit positions this
// package maps to SyntaxError values.
type PKIFailureInfo int

const (
	FailureBadAlg           PKIFailureInfo = 0
	FailureBadRequest       PKIFailureInfo = 2
	FailureBadDataFormat    PKIFailureInfo = 5
	FailureUnacceptedPolicy PKIFailureInfo = 15
	FailureExtendLater      PKIFailureInfo = 100
	FailureExtensionOverdue PKIFailureInfo = 101
)

// PKIStatus mirrors RFC 3161's PKIStatus values.
type PKIStatus int

const (
	StatusGranted                PKIStatus = 0
	StatusGrantedWithMods        PKIStatus = 1
	StatusRejection              PKIStatus = 2
	StatusWaiting                PKIStatus = 3
	StatusRevocationWarning      PKIStatus = 4
	StatusRevocationNotification PKIStatus = 5
)

// PKIStatusInfo is the gateway's response status block.
type PKIStatusInfo struct {
	Status       PKIStatus
	StatusString []string       `asn1:"optional"`
	FailInfo     asn1.BitString `asn1:"optional"`
}

// TimeStampResp is the gateway's response to a TimeStampReq.
type TimeStampResp struct {
	Status         PKIStatusInfo
	TimeStampToken asn1.RawValue `asn1:"optional"`
}

// CertTokenRequest asks the gateway to extend a short-term token; the
// identifier is derived from the history chain's shape.
type CertTokenRequest struct {
	Version           int
	HistoryIdentifier *big.Int
}

// certToken is the extension half's payload: a longer aggregation
// chain plus the publication it now reaches.
type certToken struct {
	Version       int
	Aggregation   []chainStep
	PublishedData PublishedData
	Extensions    []pkix.Extension `asn1:"optional,tag:0"`
}

// CertTokenResponse is the gateway's response to a CertTokenRequest.
type CertTokenResponse struct {
	Status    PKIStatusInfo
	CertToken asn1.RawValue `asn1:"optional"`
}
