// Package location recovers the two pieces of information the
// GuardTime wire format hides in chain geometry rather than spelling
// out explicitly: the registration time (from a history chain's
// shape) and the issuing aggregator's location id / human name (from
// a location chain's shape and embedded SHA-224 "name tag" siblings).
//
// Decoding is a single pure pass over a materialized []hashchain.Step:
// each step is first checked for an embedded name tag, and only steps
// that are not name tags contribute a bit to the level-crossing bit
// buckets. The pass is iterative and never recurses on
// attacker-controlled depth.
package location

import (
	"fmt"
	"strings"

	"github.com/gt-ksi/ksi-go/hashchain"
	"github.com/pkg/errors"
)

// Sentinel errors
var (
	ErrInvalidLinkingInfo = fmt.Errorf("location: malformed hash-chain field")
)

// Region level thresholds. Each constant is the *upper*
// level at which that region's fields are extracted from the
// accumulated bit bucket.
const (
	localToStateLevel    = 22
	stateToNationalLevel = 42
	nationalToTopLevel   = 64
	topToHasherLevel     = 80
)

// Field widths (in bits) extracted at each region boundary.
const (
	addressBitsState    = 2
	slotBitsState       = 2
	addressBitsNational = 3
	slotBitsNational    = 2
	addressBitsTop      = 3
	slotBitsTop         = 3
)

// clusterMask keeps every *_cluster / client_id field to the 16 bits
// Info.LocationID's packing formula allocates it.
const clusterMask = 0xFFFF

// Info is everything location/history decoding recovers.
type Info struct {
	LocationID   uint64
	LocationName *string // nil if no tier contributed a name
	Hasher       int
}

// Decode walks a location chain once and recovers Info. Steps must
// already be syntactically valid (hashchain.ParseChain succeeded,
// levels non-decreasing); Decode does not re-validate chain shape,
// it interprets it.
func Decode(steps []hashchain.Step) (Info, error) {
	d := &decoder{}
	for _, s := range steps {
		if err := d.step(s); err != nil {
			return Info{}, err
		}
	}
	d.flushClientID()

	locationID := (uint64(d.nationalCluster)&clusterMask)<<48 |
		(uint64(d.stateCluster)&clusterMask)<<32 |
		(uint64(d.localCluster)&clusterMask)<<16 |
		(uint64(d.clientID) & clusterMask)

	return Info{
		LocationID:   locationID,
		LocationName: d.humanName(),
		Hasher:       d.hasher,
	}, nil
}

type decoder struct {
	region int // 0=local, 1=state, 2=national, 3=top/hasher
	bucket []byte

	localMachine, localSlot       uint64
	stateMachine, stateSlot       uint64
	nationalMachine, nationalSlot uint64
	localCluster, stateCluster    uint64
	nationalCluster, clientID     uint64

	localName, stateName, nationalName *string

	hasher      int
	hasherKnown bool

	crossedLocal, crossedState, crossedNational, crossedTop bool
}

func (d *decoder) step(s hashchain.Step) error {
	if name, ok, err := checkName(s); err != nil {
		return err
	} else if ok {
		d.assignName(name)
		return nil
	}

	// not a name tag: count its bit
	bit := byte(1 - s.Direction)
	d.bucket = append([]byte{bit}, d.bucket...)

	level := int(s.Level)
	switch {
	case !d.crossedLocal && level >= localToStateLevel:
		d.crossLocal()
	case d.crossedLocal && !d.crossedState && level >= stateToNationalLevel:
		d.crossState()
	case d.crossedState && !d.crossedNational && level >= nationalToTopLevel:
		d.crossNational()
	case d.crossedNational && !d.crossedTop && level >= topToHasherLevel:
		d.crossTop(s)
	}
	return nil
}

func (d *decoder) crossLocal() {
	d.localMachine, d.bucket = collectBits(d.bucket, addressBitsState)
	d.localSlot, d.bucket = collectBits(d.bucket, slotBitsState)
	d.clientID = remainder(d.bucket)
	d.bucket = nil
	d.region = 1
	d.crossedLocal = true
}

func (d *decoder) crossState() {
	d.stateMachine, d.bucket = collectBits(d.bucket, addressBitsNational)
	d.stateSlot, d.bucket = collectBits(d.bucket, slotBitsNational)
	d.localCluster = remainder(d.bucket)
	d.bucket = nil
	d.region = 2
	d.crossedState = true
}

func (d *decoder) crossNational() {
	d.nationalMachine, d.bucket = collectBits(d.bucket, addressBitsTop)
	d.nationalSlot, d.bucket = collectBits(d.bucket, slotBitsTop)
	d.stateCluster = remainder(d.bucket)
	d.bucket = nil
	d.region = 3
	d.crossedNational = true
}

func (d *decoder) crossTop(s hashchain.Step) {
	d.nationalCluster = remainder(d.bucket)
	d.bucket = nil
	d.crossedTop = true

	// Two hasher-id conventions coexist in the wild: a
	// level byte of 0xFF marks a chain built under the old
	// convention, where the hasher id is carried in the direction
	// bit instead of the level value.
	if s.Level == 0xFF {
		d.hasher = 1 + int(s.Direction)
	} else {
		d.hasher = int(s.Level) - topToHasherLevel
	}
	d.hasherKnown = true
}

// flushClientID covers chains that never reach the local->state
// crossing at all (a lone client, no aggregator tiers above it): the
// whole bucket is the client id.
func (d *decoder) flushClientID() {
	if !d.crossedLocal {
		d.clientID = remainder(d.bucket)
	}
}

func (d *decoder) assignName(name string) {
	switch d.region {
	case 0:
		d.localName = &name
	case 1:
		d.stateName = &name
	case 2:
		d.nationalName = &name
	}
}

// humanName renders "national : state : local", substituting
// "[<cluster>]" for any tier that has no name; no client component is
// rendered. If no tier has a name at all, it returns nil.
func (d *decoder) humanName() *string {
	if d.nationalName == nil && d.stateName == nil && d.localName == nil {
		return nil
	}
	part := func(name *string, cluster uint64) string {
		if name != nil {
			return *name
		}
		return fmt.Sprintf("[%d]", cluster)
	}
	parts := []string{
		part(d.nationalName, d.nationalCluster),
		part(d.stateName, d.stateCluster),
		part(d.localName, d.localCluster),
	}
	s := strings.Join(parts, " : ")
	return &s
}

// collectBits removes the first n bits from the front of bucket
// (the most-recently-prepended end) and returns them packed MSB-first
// into a value, along with the remaining bits.
func collectBits(bucket []byte, n int) (uint64, []byte) {
	if n > len(bucket) {
		n = len(bucket)
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<1 | uint64(bucket[i])
	}
	return v, bucket[n:]
}

// remainder packs every bit left in bucket MSB-first into a value.
func remainder(bucket []byte) uint64 {
	v, _ := collectBits(bucket, len(bucket))
	return v
}

// checkName detects embedded aggregator name tags: a step is a name tag,
// not a numeric bit source, when its direction is 1, its sibling was
// hashed with SHA-224, the sibling's first byte is 0x00, its second
// byte is a valid length L with 2+L <= 28, and every byte from 2+L
// onward is zero. The bytes [2:2+L) are then a UTF-8 node name.
func checkName(s hashchain.Step) (string, bool, error) {
	if s.Direction != 1 || s.Algorithm != hashchain.SHA224 {
		return "", false, nil
	}
	sib := s.Sibling
	if len(sib) != 28 {
		return "", false, errors.Wrap(ErrInvalidLinkingInfo, "SHA-224 sibling must be 28 bytes")
	}
	if sib[0] != 0x00 {
		return "", false, nil
	}
	length := int(sib[1])
	if 2+length > 28 {
		return "", false, nil
	}
	for i := 2 + length; i < 28; i++ {
		if sib[i] != 0 {
			return "", false, nil
		}
	}
	return string(sib[2 : 2+length]), true, nil
}
