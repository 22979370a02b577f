package ksi

import (
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"math/big"
	"unicode/utf8"

	"github.com/gt-ksi/ksi-go/asn1time"
	"github.com/gt-ksi/ksi-go/hashchain"
)

// AttributeInfo is one signed attribute rendered for display: its OID
// and the hex of its DER-encoded value.
type AttributeInfo struct {
	OID      string `json:"oid"`
	ValueHex string `json:"value_hex"`
}

// StepInfo is one hash-chain step rendered for display.
type StepInfo struct {
	Direction  byte   `json:"direction"`
	Algorithm  byte   `json:"algorithm"`
	SiblingHex string `json:"sibling_hex"`
	Level      byte   `json:"level"`
}

// ExplicitInfo is every field the explicit VerificationInfo block
// exposes, decoded straight from the token. It is
// produced best-effort: a sub-field this package cannot decode (an
// unparseable GenTime, an absent certificate, a malformed chain) is
// left at its zero value rather than aborting the whole decode, since
// this block exists for human/debugging consumption, not for a check
// that can fail.
type ExplicitInfo struct {
	ContentType      string `json:"content_type"`
	EncapContentType string `json:"encap_content_type"`

	SignedDataVersion int `json:"signed_data_version"`
	TSTInfoVersion    int `json:"tst_info_version"`
	SignerInfoVersion int `json:"signer_info_version"`

	DigestAlgorithms []string `json:"digest_algorithms"`

	Policy                  string `json:"policy"`
	MessageImprintAlgorithm byte   `json:"message_imprint_algorithm"`
	MessageImprintValueHex  string `json:"message_imprint_value_hex"`
	SerialNumber            string `json:"serial_number"`
	GenTime                 int64  `json:"gen_time"`
	AccuracyMillis          int64  `json:"accuracy_millis"`
	Nonce                   string `json:"nonce,omitempty"`
	TSAName                 string `json:"tsa_name,omitempty"`

	SignerCertificatePEM  string `json:"signer_certificate_pem,omitempty"`
	SignerIssuer          string `json:"signer_issuer"`
	SignerSerialNumber    string `json:"signer_serial_number"`
	SignerDigestAlgorithm string `json:"signer_digest_algorithm"`

	SignedAttributes []AttributeInfo `json:"signed_attributes"`

	SignerInfoSignatureAlgorithm string `json:"signer_info_signature_algorithm"`

	LocationChain []StepInfo `json:"location_chain"`
	HistoryChain  []StepInfo `json:"history_chain"`

	PublicationIdentifier int64  `json:"publication_identifier"`
	PublicationImprintHex string `json:"publication_imprint_hex"`

	PKISignaturePresent  bool     `json:"pki_signature_present"`
	PKISignatureOID      string   `json:"pki_signature_oid,omitempty"`
	PKISignatureValueHex string   `json:"pki_signature_value_hex,omitempty"`
	KeyCommitmentRefs    []string `json:"key_commitment_refs,omitempty"`
	PubReferences        []string `json:"pub_references,omitempty"`
}

// DecodeExplicit decodes every displayable field of the token,
// straight off t's cached projections.
// It never returns an error: fields it cannot decode are left at
// their zero value.
func DecodeExplicit(t *Timestamp) ExplicitInfo {
	sd := t.content
	tstInfo := t.tstInfo
	ts := t.timeSignature
	signer := t.SignerInfo()

	info := ExplicitInfo{
		ContentType:       OIDSignedData.String(),
		EncapContentType:  sd.EncapContentInfo.EContentType.String(),
		SignedDataVersion: sd.Version,
		TSTInfoVersion:    tstInfo.Version,
		SignerInfoVersion: signer.Version,
		Policy:            tstInfo.Policy.String(),

		MessageImprintAlgorithm: 0,
		SerialNumber:            bigIntString(tstInfo.SerialNumber),
		Nonce:                   bigIntString(tstInfo.Nonce),

		SignerIssuer:          hex.EncodeToString(signer.IssuerAndSerial.Issuer.FullBytes),
		SignerSerialNumber:    bigIntString(signer.IssuerAndSerial.SerialNumber),
		SignerDigestAlgorithm: signer.DigestAlgorithm.Algorithm.String(),

		SignerInfoSignatureAlgorithm: signer.SignatureAlgorithm.Algorithm.String(),

		PublicationIdentifier: bigIntInt64(ts.PublishedData.PublicationIdentifier),
		PublicationImprintHex: hex.EncodeToString(ts.PublishedData.PublicationImprint),
	}

	if alg, ok := algorithmFromOID(tstInfo.MessageImprint.HashAlgorithm); ok {
		info.MessageImprintAlgorithm = alg
	}
	info.MessageImprintValueHex = hex.EncodeToString(tstInfo.MessageImprint.HashedMessage)

	for _, da := range sd.DigestAlgorithms {
		info.DigestAlgorithms = append(info.DigestAlgorithms, da.Algorithm.String())
	}

	if genTime, ok := decodeRawTime(tstInfo.GenTime); ok {
		info.GenTime = genTime
	}
	info.AccuracyMillis = int64(tstInfo.Accuracy.Seconds)*1000 +
		int64(tstInfo.Accuracy.Millis) +
		int64(tstInfo.Accuracy.Micros)/1000

	if name, ok := decodeGeneralName(tstInfo.TSA); ok {
		info.TSAName = name
	}

	if cert, err := findSignerCertificate(t); err == nil {
		info.SignerCertificatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
	}

	for _, attr := range signer.AuthenticatedAttrs {
		info.SignedAttributes = append(info.SignedAttributes, AttributeInfo{
			OID:      attr.Type.String(),
			ValueHex: hex.EncodeToString(attr.Values.Bytes),
		})
	}

	info.LocationChain = stepInfos(ts.Location)
	info.HistoryChain = stepInfos(ts.History)

	if len(ts.PKSignature.SignatureValue) > 0 {
		info.PKISignaturePresent = true
		info.PKISignatureOID = ts.PKSignature.SignatureAlgorithm.Algorithm.String()
		info.PKISignatureValueHex = hex.EncodeToString(ts.PKSignature.SignatureValue)
		for _, ref := range ts.PKSignature.KeyCommitmentRefs {
			info.KeyCommitmentRefs = append(info.KeyCommitmentRefs, printableOrHex(ref))
		}
	}
	for _, ref := range ts.PubReference {
		info.PubReferences = append(info.PubReferences, printableOrHex(ref))
	}

	return info
}

func bigIntString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func bigIntInt64(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

// stepInfos renders a raw chain (SEQUENCE OF OCTET STRING) as readable
// StepInfo values, skipping the whole chain rather than panicking if a
// step is malformed; explicit decoding is best-effort display.
func stepInfos(raw [][]byte) []StepInfo {
	steps, err := hashchain.ParseChain(raw)
	if err != nil {
		return nil
	}
	out := make([]StepInfo, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepInfo{
			Direction:  s.Direction,
			Algorithm:  s.Algorithm,
			SiblingHex: hex.EncodeToString(s.Sibling),
			Level:      s.Level,
		})
	}
	return out
}

// decodeRawTime decodes a TSTInfo.GenTime RawValue, which may carry
// either UTCTime or GeneralizedTime depending on the issuing gateway.
func decodeRawTime(raw asn1.RawValue) (int64, bool) {
	if len(raw.FullBytes) == 0 {
		return 0, false
	}
	epoch, err := asn1time.Decode(raw.Tag, raw.Bytes)
	if err != nil {
		return 0, false
	}
	return epoch, true
}

// decodeGeneralName makes a best-effort attempt at rendering a
// GeneralName CHOICE as a human string: if the tag's content is valid
// UTF-8 it's used directly, otherwise the whole TLV is hex-encoded.
func decodeGeneralName(raw asn1.RawValue) (string, bool) {
	if len(raw.FullBytes) == 0 {
		return "", false
	}
	if utf8.Valid(raw.Bytes) && len(raw.Bytes) > 0 {
		return string(raw.Bytes), true
	}
	return hex.EncodeToString(raw.FullBytes), true
}

// printableOrHex renders an opaque reference as UTF-8 when every byte
// is printable, hex otherwise.
func printableOrHex(b []byte) string {
	if utf8.Valid(b) {
		printable := true
		for _, r := range string(b) {
			if r < 0x20 || r == utf8.RuneError {
				printable = false
				break
			}
		}
		if printable {
			return string(b)
		}
	}
	return hex.EncodeToString(b)
}
