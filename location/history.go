package location

import "github.com/gt-ksi/ksi-go/hashchain"

// RegisteredTime recovers the registration time implicit in a history
// chain's shape: the chain's direction bits, read MSB-first in
// traversal order (root-ward), are a binary offset in seconds
// backwards from publicationIdentifier: the round-tick count between
// the record's aggregation round and the publication it chains into.
//
// publicationIdentifier is the PublishedData.Identifier the history
// chain's root folds into (recovered independently by chain
// recomputation); RegisteredTime only interprets shape, it does not
// verify the chain's digests.
func RegisteredTime(steps []hashchain.Step, publicationIdentifier int64) (int64, error) {
	var offset int64
	for _, s := range steps {
		offset = offset<<1 | int64(s.Direction)
	}
	registered := publicationIdentifier - offset
	if registered < 0 {
		return 0, ErrInvalidLinkingInfo
	}
	return registered, nil
}
