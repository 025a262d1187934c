package crypto

import (
	"crypto/sha256"
	"fmt"
	"hash"

	blake2b "github.com/minio/blake2b-simd"
	"golang.org/x/crypto/ripemd160"
)

// PersonalizationSize is the fixed BLAKE2b personalization length.
const PersonalizationSize = 16

// NewBlake2b256 creates a BLAKE2b-256 hash with the given personalization.
// The personalization is a separate BLAKE2b parameter, not a key, and must be
// exactly 16 bytes for every Zcash digest.
func NewBlake2b256(personalization []byte) (hash.Hash, error) {
	if len(personalization) != PersonalizationSize {
		return nil, fmt.Errorf("personalization must be %d bytes, got %d",
			PersonalizationSize, len(personalization))
	}
	return blake2b.New(&blake2b.Config{
		Size:   32,
		Person: personalization,
	})
}

// Blake2b256 hashes data under the given personalization.
func Blake2b256(personalization []byte, data []byte) ([32]byte, error) {
	var digest [32]byte
	h, err := NewBlake2b256(personalization)
	if err != nil {
		return digest, err
	}
	h.Write(data)
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// DoubleSHA256 returns SHA256(SHA256(data)).
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Hash160 returns RIPEMD160(SHA256(data)), the 20-byte hash committed to by
// P2PKH and P2SH scripts.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}
