// Package publication defines the out-of-band publications-file oracle
// the verification core consumes as a pure lookup: no file parsing, no
// publications-file signature checking, no network I/O. Those concerns
// belong to a separate collaborator; this package only types the
// interface and the two value shapes that cross it.
package publication

import "github.com/gt-ksi/ksi-go/hashchain"

// PublishedData is the (identifier, imprint) pair a round's root
// contributes to a trust-anchor publication file. Identifier is a
// POSIX-seconds timestamp; Imprint is algorithmId || digest.
type PublishedData struct {
	Identifier int64
	Imprint    hashchain.Imprint
}

// Equal reports structural equality: both the identifier and the
// imprint must match.
func (p PublishedData) Equal(other PublishedData) bool {
	return p.Identifier == other.Identifier && p.Imprint.Equal(other.Imprint)
}

// KeyHash is one entry of the publications file's key-hash table: the
// imprint (algorithmId || digest) of a signing certificate's DER public
// key, and the time that key was considered published.
//
// KeyPublicationTime's exact semantics are set by the publications-file
// collaborator, not here (see DESIGN.md): it
// is whatever the publications-file collaborator chose to record as
// "published", most naturally a certificate's notBefore time. This
// package only carries the value. During verification,
// ksi.KeyPublicationTimePolicy decides which time counts as the key's
// publication time; ksi's default policy uses the certificate's
// notBefore and does not read KeyPublicationTime.
type KeyHash struct {
	Imprint            hashchain.Imprint
	KeyPublicationTime int64
}

// Oracle is the pure lookup surface the verification core needs from a
// publications file. Implementations own every other concern: parsing,
// signature verification over the file itself, caching, network
// fetch/refresh.
type Oracle interface {
	// GetPublishedData returns the published data for a given
	// publication identifier, or ok=false if this oracle has no
	// record for it.
	GetPublishedData(identifier int64) (data PublishedData, ok bool)

	// KeyHashes returns every (imprint, publication time) entry this
	// oracle knows about, in no particular order.
	KeyHashes() []KeyHash
}

// StaticOracle is a trivial in-memory Oracle, useful for tests and for
// wiring a demo CLI/HTTP layer without a real publications-file
// collaborator. It is not a publications-file parser.
type StaticOracle struct {
	byIdentifier map[int64]PublishedData
	keyHashes    []KeyHash
}

// NewStaticOracle builds a StaticOracle from an explicit list of
// published-data records and key hashes.
func NewStaticOracle(data []PublishedData, keyHashes []KeyHash) *StaticOracle {
	byIdentifier := make(map[int64]PublishedData, len(data))
	for _, d := range data {
		byIdentifier[d.Identifier] = d
	}
	return &StaticOracle{byIdentifier: byIdentifier, keyHashes: keyHashes}
}

// GetPublishedData implements Oracle.
func (s *StaticOracle) GetPublishedData(identifier int64) (PublishedData, bool) {
	d, ok := s.byIdentifier[identifier]
	return d, ok
}

// KeyHashes implements Oracle.
func (s *StaticOracle) KeyHashes() []KeyHash {
	return s.keyHashes
}
