package ksi

import (
	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/gt-ksi/ksi-go/location"
)

// Ordering is the result of isEarlierThan.
type Ordering int

const (
	OrderUnknown Ordering = iota
	OrderEarlier
	OrderNotEarlier
)

// IsEarlierThan compares two timestamps by their recovered
// registration times. It is antisymmetric: a
// and b can never both report OrderEarlier relative to each other. If
// either timestamp's registration time cannot be recovered, it
// returns OrderUnknown rather than guessing.
func IsEarlierThan(a, b *Timestamp) Ordering {
	ta, okA := registeredTimeOf(a)
	tb, okB := registeredTimeOf(b)
	if !okA || !okB {
		return OrderUnknown
	}
	if ta < tb {
		return OrderEarlier
	}
	return OrderNotEarlier
}

func registeredTimeOf(t *Timestamp) (int64, bool) {
	steps, err := hashchain.ParseChain(t.timeSignature.History)
	if err != nil {
		return 0, false
	}
	registered, err := location.RegisteredTime(steps, t.timeSignature.PublishedData.PublicationIdentifier.Int64())
	if err != nil {
		return 0, false
	}
	return registered, true
}
