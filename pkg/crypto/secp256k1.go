// Package crypto implements the primitives transparent signing depends on.
//
// Transparent inputs in Zcash use Bitcoin-style secp256k1 ECDSA signatures
// over a 32-byte digest. This package provides key management, signature
// operations and the hash functions used by scripts and digests.
//
// Key formats:
//   - Private keys: WIF (Wallet Import Format) or raw 32 bytes
//   - Public keys: compressed 33-byte or uncompressed 65-byte SEC encoding
//   - Signatures: DER-encoded, low-S
package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// WIF version bytes.
const (
	WIFMainnet byte = 0x80
	WIFTestnet byte = 0xef
)

// PrivateKey wraps a secp256k1 private key together with the encoding its
// public key is committed under.
type PrivateKey struct {
	key        *secp256k1.PrivateKey
	compressed bool
}

// PublicKey wraps a secp256k1 public key.
type PublicKey struct {
	key        *secp256k1.PublicKey
	compressed bool
}

// ParsePrivateKeyWIF parses a WIF-encoded private key. The trailing 0x01
// flag selects compressed public key serialization.
func ParsePrivateKeyWIF(wif string) (*PrivateKey, error) {
	keyBytes, compressed, err := decodeWIF(wif)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(keyBytes), compressed: compressed}, nil
}

// PrivateKeyFromBytes creates a compressed-pubkey private key from raw bytes.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(keyBytes), compressed: true}, nil
}

// GeneratePrivateKey returns a fresh random key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &PrivateKey{key: key, compressed: true}, nil
}

// Sign creates a deterministic (RFC 6979) ECDSA signature over hash and
// returns it DER-encoded.
func (pk *PrivateKey) Sign(hash [32]byte) ([]byte, error) {
	sig := ecdsa.Sign(pk.key, hash[:])
	return sig.Serialize(), nil
}

// PublicKey derives the public key.
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey(), compressed: pk.compressed}
}

// Bytes returns the raw 32-byte private key.
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// Compressed reports whether the public key serializes compressed.
func (pk *PrivateKey) Compressed() bool {
	return pk.compressed
}

// Bytes returns the SEC encoding selected when the key was parsed.
func (pub *PublicKey) Bytes() []byte {
	if pub.compressed {
		return pub.key.SerializeCompressed()
	}
	return pub.key.SerializeUncompressed()
}

// SerializeCompressed returns the 33-byte compressed public key.
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// Hash160 returns RIPEMD160(SHA256(pub.Bytes())).
func (pub *PublicKey) Hash160() []byte {
	return Hash160(pub.Bytes())
}

// Equal reports whether both keys serialize identically.
func (pub *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && bytes.Equal(pub.Bytes(), other.Bytes())
}

// ParsePublicKey parses a 33-byte compressed or 65-byte uncompressed key.
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != 33 && len(pubKeyBytes) != 65 {
		return nil, fmt.Errorf("public key must be 33 or 65 bytes, got %d", len(pubKeyBytes))
	}

	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &PublicKey{key: pubKey, compressed: len(pubKeyBytes) == 33}, nil
}

// VerifySignature verifies a DER-encoded ECDSA signature.
func VerifySignature(pubkey *PublicKey, hash [32]byte, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}

	return sig.Verify(hash[:], pubkey.key)
}

// decodeWIF decodes a WIF-encoded private key.
// WIF format: version_byte || private_key (32 bytes) || [compression_flag] || checksum (4 bytes)
func decodeWIF(wif string) ([]byte, bool, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != 37 && len(decoded) != 38 {
		return nil, false, errors.New("invalid WIF length")
	}

	version := decoded[0]
	if version != WIFMainnet && version != WIFTestnet {
		return nil, false, fmt.Errorf("invalid WIF version byte: 0x%02x", version)
	}

	checksumOffset := len(decoded) - 4
	payload := decoded[:checksumOffset]
	checksum := DoubleSHA256(payload)
	if !bytes.Equal(decoded[checksumOffset:], checksum[:4]) {
		return nil, false, errors.New("WIF checksum mismatch")
	}

	compressed := len(payload) == 34
	if compressed && payload[33] != 0x01 {
		return nil, false, fmt.Errorf("invalid WIF compression flag: 0x%02x", payload[33])
	}

	return payload[1:33], compressed, nil
}

// EncodeWIF encodes a private key to WIF format.
func EncodeWIF(privateKey []byte, compressed bool, testnet bool) (string, error) {
	if len(privateKey) != 32 {
		return "", errors.New("private key must be 32 bytes")
	}

	version := WIFMainnet
	if testnet {
		version = WIFTestnet
	}

	payload := make([]byte, 0, 38)
	payload = append(payload, version)
	payload = append(payload, privateKey...)
	if compressed {
		payload = append(payload, 0x01)
	}

	checksum := DoubleSHA256(payload)
	payload = append(payload, checksum[:4]...)

	return base58.Encode(payload), nil
}
