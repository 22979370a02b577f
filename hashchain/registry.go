package hashchain

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/ripemd160"
)

// Hash-algorithm ids, stable on the wire.
const (
	SHA1      byte = 0
	SHA256    byte = 1
	RIPEMD160 byte = 2
	SHA224    byte = 3
	SHA384    byte = 4
	SHA512    byte = 5
)

var digestSizes = map[byte]int{
	SHA1:      20,
	SHA256:    32,
	RIPEMD160: 20,
	SHA224:    28,
	SHA384:    48,
	SHA512:    64,
}

var hashConstructors = map[byte]func() hash.Hash{
	SHA1:      sha1.New,
	SHA256:    sha256.New,
	RIPEMD160: ripemd160.New,
	SHA224:    sha256.New224,
	SHA384:    sha512.New384,
	SHA512:    sha512.New,
}

// DigestSize reports the fixed digest size in bytes for a known
// hash-algorithm id, and whether the id is known at all.
func DigestSize(algorithm byte) (int, bool) {
	size, ok := digestSizes[algorithm]
	return size, ok
}

// NewHash returns a fresh hash.Hash for a known hash-algorithm id.
func NewHash(algorithm byte) (hash.Hash, bool) {
	ctor, ok := hashConstructors[algorithm]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// KnownAlgorithm reports whether algorithm is one of the six wire ids.
func KnownAlgorithm(algorithm byte) bool {
	_, ok := digestSizes[algorithm]
	return ok
}
