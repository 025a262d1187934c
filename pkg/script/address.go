package script

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
)

// Network carries the two-byte base58check prefixes of transparent addresses.
type Network struct {
	Name             string
	PubKeyHashPrefix [2]byte
	ScriptHashPrefix [2]byte
	TestNet          bool
}

var (
	// MainNet addresses start with t1 (P2PKH) and t3 (P2SH).
	MainNet = &Network{
		Name:             "mainnet",
		PubKeyHashPrefix: [2]byte{0x1c, 0xb8},
		ScriptHashPrefix: [2]byte{0x1c, 0xbd},
	}

	// TestNet addresses start with tm (P2PKH) and t2 (P2SH).
	TestNet = &Network{
		Name:             "testnet",
		PubKeyHashPrefix: [2]byte{0x1d, 0x25},
		ScriptHashPrefix: [2]byte{0x1c, 0xba},
		TestNet:          true,
	}
)

// NetworkByName resolves "mainnet" or "testnet".
func NetworkByName(name string) (*Network, error) {
	switch name {
	case MainNet.Name, "main":
		return MainNet, nil
	case TestNet.Name, "test", "regtest":
		return TestNet, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

// AddressKind distinguishes P2PKH from P2SH addresses.
type AddressKind uint8

const (
	PubKeyHash AddressKind = iota
	ScriptHash
)

// Address is a decoded transparent address.
type Address struct {
	Network *Network
	Kind    AddressKind
	Hash    [20]byte
}

var ErrAddressChecksum = errors.New("address checksum mismatch")

// DecodeAddress parses a base58check transparent address, trying each
// network in turn. With no networks given, mainnet and testnet are tried.
func DecodeAddress(addr string, networks ...*Network) (*Address, error) {
	decoded := base58.Decode(addr)
	if len(decoded) != 26 {
		return nil, fmt.Errorf("invalid address length %d", len(decoded))
	}

	payload, checksum := decoded[:22], decoded[22:]
	sum := crypto.DoubleSHA256(payload)
	if !bytes.Equal(checksum, sum[:4]) {
		return nil, ErrAddressChecksum
	}

	if len(networks) == 0 {
		networks = []*Network{MainNet, TestNet}
	}

	var prefix [2]byte
	copy(prefix[:], payload[:2])
	for _, net := range networks {
		a := &Address{Network: net}
		copy(a.Hash[:], payload[2:])
		switch prefix {
		case net.PubKeyHashPrefix:
			a.Kind = PubKeyHash
			return a, nil
		case net.ScriptHashPrefix:
			a.Kind = ScriptHash
			return a, nil
		}
	}
	return nil, fmt.Errorf("unknown address prefix %x", prefix)
}

// NewAddressFromPublicKey returns the P2PKH address of pub.
func NewAddressFromPublicKey(pub *crypto.PublicKey, net *Network) *Address {
	a := &Address{Network: net, Kind: PubKeyHash}
	copy(a.Hash[:], pub.Hash160())
	return a
}

// String encodes the address as base58check.
func (a *Address) String() string {
	prefix := a.Network.PubKeyHashPrefix
	if a.Kind == ScriptHash {
		prefix = a.Network.ScriptHashPrefix
	}
	payload := make([]byte, 0, 26)
	payload = append(payload, prefix[:]...)
	payload = append(payload, a.Hash[:]...)
	sum := crypto.DoubleSHA256(payload)
	return base58.Encode(append(payload, sum[:4]...))
}

// Script returns the locking script that pays to the address.
func (a *Address) Script() Script {
	var s Script
	if a.Kind == ScriptHash {
		s, _ = NewScriptHashOut(a.Hash[:])
	} else {
		s, _ = NewPublicKeyHashOut(a.Hash[:])
	}
	return s
}
