// Package script implements the subset of transparent scripts that signing
// needs: parsing into chunks, P2PKH/P2SH template matching and builders, and
// OP_CODESEPARATOR removal for legacy digests. Scripts are never executed.
package script

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Opcodes used by the standard templates.
const (
	OP_0             byte = 0x00
	OP_PUSHDATA1     byte = 0x4c
	OP_PUSHDATA2     byte = 0x4d
	OP_PUSHDATA4     byte = 0x4e
	OP_DUP           byte = 0x76
	OP_EQUAL         byte = 0x87
	OP_EQUALVERIFY   byte = 0x88
	OP_HASH160       byte = 0xa9
	OP_CODESEPARATOR byte = 0xab
	OP_CHECKSIG      byte = 0xac
)

var opcodeNames = map[byte]string{
	OP_0:             "OP_0",
	OP_DUP:           "OP_DUP",
	OP_EQUAL:         "OP_EQUAL",
	OP_EQUALVERIFY:   "OP_EQUALVERIFY",
	OP_HASH160:       "OP_HASH160",
	OP_CODESEPARATOR: "OP_CODESEPARATOR",
	OP_CHECKSIG:      "OP_CHECKSIG",
}

// Script is a raw serialized script.
type Script []byte

// Chunk is one parsed script element: an opcode, with Data set for pushes.
type Chunk struct {
	Opcode byte
	Data   []byte
}

// IsPush reports whether the chunk pushes data.
func (c Chunk) IsPush() bool {
	return c.Opcode <= OP_PUSHDATA4
}

// Chunks parses the script into opcodes and pushes. A push that runs past the
// end of the script is an error.
func (s Script) Chunks() ([]Chunk, error) {
	var chunks []Chunk
	for pos := 0; pos < len(s); {
		chunk, next, err := s.chunkAt(pos)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
		pos = next
	}
	return chunks, nil
}

func (s Script) chunkAt(pos int) (Chunk, int, error) {
	op := s[pos]
	pos++

	var size int
	switch {
	case op > OP_0 && op < OP_PUSHDATA1:
		size = int(op)
	case op == OP_PUSHDATA1:
		if pos+1 > len(s) {
			return Chunk{}, 0, fmt.Errorf("truncated OP_PUSHDATA1 length at %d", pos)
		}
		size = int(s[pos])
		pos++
	case op == OP_PUSHDATA2:
		if pos+2 > len(s) {
			return Chunk{}, 0, fmt.Errorf("truncated OP_PUSHDATA2 length at %d", pos)
		}
		size = int(binary.LittleEndian.Uint16(s[pos:]))
		pos += 2
	case op == OP_PUSHDATA4:
		if pos+4 > len(s) {
			return Chunk{}, 0, fmt.Errorf("truncated OP_PUSHDATA4 length at %d", pos)
		}
		size = int(binary.LittleEndian.Uint32(s[pos:]))
		pos += 4
	default:
		return Chunk{Opcode: op}, pos, nil
	}

	if size > len(s)-pos {
		return Chunk{}, 0, fmt.Errorf("push of %d bytes at %d exceeds script length %d", size, pos, len(s))
	}
	data := make([]byte, size)
	copy(data, s[pos:pos+size])
	return Chunk{Opcode: op, Data: data}, pos + size, nil
}

// IsPublicKeyHashOut matches OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG.
func (s Script) IsPublicKeyHashOut() bool {
	return len(s) == 25 &&
		s[0] == OP_DUP &&
		s[1] == OP_HASH160 &&
		s[2] == 20 &&
		s[23] == OP_EQUALVERIFY &&
		s[24] == OP_CHECKSIG
}

// IsScriptHashOut matches OP_HASH160 <20 bytes> OP_EQUAL.
func (s Script) IsScriptHashOut() bool {
	return len(s) == 23 &&
		s[0] == OP_HASH160 &&
		s[1] == 20 &&
		s[22] == OP_EQUAL
}

// PublicKeyHash returns the 20-byte hash embedded in a P2PKH locking script.
func (s Script) PublicKeyHash() ([]byte, error) {
	if !s.IsPublicKeyHashOut() {
		return nil, fmt.Errorf("not a public key hash output script")
	}
	out := make([]byte, 20)
	copy(out, s[3:23])
	return out, nil
}

// IsPublicKeyHashIn matches <signature||hashtype> <pubkey>.
func (s Script) IsPublicKeyHashIn() bool {
	chunks, err := s.Chunks()
	if err != nil || len(chunks) != 2 {
		return false
	}
	sig, pub := chunks[0].Data, chunks[1].Data
	if len(sig) < 9 || len(sig) > 73 {
		return false
	}
	return isPublicKeyEncoding(pub)
}

func isPublicKeyEncoding(pub []byte) bool {
	switch len(pub) {
	case 33:
		return pub[0] == 0x02 || pub[0] == 0x03
	case 65:
		return pub[0] == 0x04
	default:
		return false
	}
}

// RemoveCodeSeparators returns a copy of the script with every
// OP_CODESEPARATOR opcode dropped. Push data equal to 0xab is kept. An
// unparseable tail is copied unchanged.
func (s Script) RemoveCodeSeparators() Script {
	out := make(Script, 0, len(s))
	for pos := 0; pos < len(s); {
		_, next, err := s.chunkAt(pos)
		if err != nil {
			return append(out, s[pos:]...)
		}
		if s[pos] != OP_CODESEPARATOR {
			out = append(out, s[pos:next]...)
		}
		pos = next
	}
	return out
}

// Equal compares scripts byte for byte.
func (s Script) Equal(other Script) bool {
	return bytes.Equal(s, other)
}

// String renders the script in the usual assembly notation.
func (s Script) String() string {
	chunks, err := s.Chunks()
	if err != nil {
		return "<invalid script " + hex.EncodeToString(s) + ">"
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		switch {
		case c.IsPush() && c.Opcode != OP_0:
			parts = append(parts, hex.EncodeToString(c.Data))
		case opcodeNames[c.Opcode] != "":
			parts = append(parts, opcodeNames[c.Opcode])
		default:
			parts = append(parts, fmt.Sprintf("0x%02x", c.Opcode))
		}
	}
	return strings.Join(parts, " ")
}

// NewPublicKeyHashOut builds a P2PKH locking script for a 20-byte hash.
func NewPublicKeyHashOut(pubKeyHash []byte) (Script, error) {
	if len(pubKeyHash) != 20 {
		return nil, fmt.Errorf("public key hash must be 20 bytes, got %d", len(pubKeyHash))
	}
	s := make(Script, 0, 25)
	s = append(s, OP_DUP, OP_HASH160, 20)
	s = append(s, pubKeyHash...)
	return append(s, OP_EQUALVERIFY, OP_CHECKSIG), nil
}

// NewScriptHashOut builds a P2SH locking script for a 20-byte hash.
func NewScriptHashOut(scriptHash []byte) (Script, error) {
	if len(scriptHash) != 20 {
		return nil, fmt.Errorf("script hash must be 20 bytes, got %d", len(scriptHash))
	}
	s := make(Script, 0, 23)
	s = append(s, OP_HASH160, 20)
	s = append(s, scriptHash...)
	return append(s, OP_EQUAL), nil
}

// NewPublicKeyHashIn builds the P2PKH unlocking script
// <DER signature || hash type> <public key>.
func NewPublicKeyHashIn(pubKey []byte, derSig []byte, hashType byte) Script {
	sig := make([]byte, 0, len(derSig)+1)
	sig = append(sig, derSig...)
	sig = append(sig, hashType)

	s := make(Script, 0, len(sig)+len(pubKey)+2)
	s = appendPush(s, sig)
	return appendPush(s, pubKey)
}

// appendPush emits the shortest push for data.
func appendPush(s Script, data []byte) Script {
	n := len(data)
	switch {
	case n < int(OP_PUSHDATA1):
		s = append(s, byte(n))
	case n <= 0xff:
		s = append(s, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		s = append(s, OP_PUSHDATA2)
		s = binary.LittleEndian.AppendUint16(s, uint16(n))
	default:
		s = append(s, OP_PUSHDATA4)
		s = binary.LittleEndian.AppendUint32(s, uint32(n))
	}
	return append(s, data...)
}
