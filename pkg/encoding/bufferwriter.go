// Package encoding provides the append-only byte writer and the matching
// cursor reader used for every consensus encoding in this module.
//
// Multi-byte integers are written in the byte order named by the method.
// Hashes and transaction IDs are kept in display order by callers and
// flipped with WriteReverse/ReadReverse at the wire boundary.
package encoding

import (
	"encoding/binary"
	"math/big"
)

// BufferWriter accumulates byte chunks in append order. Nothing is rewritten
// in place; Bytes flattens the chunks into a fresh slice.
type BufferWriter struct {
	bufs [][]byte
	size int
}

// NewBufferWriter returns an empty writer.
func NewBufferWriter() *BufferWriter {
	return &BufferWriter{}
}

// Write appends a copy of p. It satisfies io.Writer so hashers and
// binary.Write can target the writer directly.
func (w *BufferWriter) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	w.push(buf)
	return len(p), nil
}

func (w *BufferWriter) push(buf []byte) *BufferWriter {
	w.bufs = append(w.bufs, buf)
	w.size += len(buf)
	return w
}

// WriteBytes appends a copy of p and returns the writer for chaining.
func (w *BufferWriter) WriteBytes(p []byte) *BufferWriter {
	_, _ = w.Write(p)
	return w
}

// WriteReverse appends a byte-reversed copy of p.
func (w *BufferWriter) WriteReverse(p []byte) *BufferWriter {
	return w.push(Reverse(p))
}

func (w *BufferWriter) WriteUInt8(n uint8) *BufferWriter {
	return w.push([]byte{n})
}

func (w *BufferWriter) WriteUInt16BE(n uint16) *BufferWriter {
	return w.push(binary.BigEndian.AppendUint16(nil, n))
}

func (w *BufferWriter) WriteUInt16LE(n uint16) *BufferWriter {
	return w.push(binary.LittleEndian.AppendUint16(nil, n))
}

func (w *BufferWriter) WriteUInt32BE(n uint32) *BufferWriter {
	return w.push(binary.BigEndian.AppendUint32(nil, n))
}

func (w *BufferWriter) WriteUInt32LE(n uint32) *BufferWriter {
	return w.push(binary.LittleEndian.AppendUint32(nil, n))
}

func (w *BufferWriter) WriteInt32LE(n int32) *BufferWriter {
	return w.push(binary.LittleEndian.AppendUint32(nil, uint32(n)))
}

// WriteUInt64BEBN writes the low 64 bits of a non-negative n, big-endian.
// Values of 2^64 or more are truncated.
func (w *BufferWriter) WriteUInt64BEBN(n *big.Int) *BufferWriter {
	return w.push(uint64Buf(n))
}

// WriteUInt64LEBN writes the low 64 bits of a non-negative n, little-endian.
func (w *BufferWriter) WriteUInt64LEBN(n *big.Int) *BufferWriter {
	return w.WriteReverse(uint64Buf(n))
}

// WriteInt64LEBN writes n as a 64-bit two's-complement little-endian value.
// Negative values are assembled from two 32-bit limbs of the magnitude: the
// high limb is inverted and the low limb complemented, with the borrow
// carried into the high limb when the low limb is zero.
func (w *BufferWriter) WriteInt64LEBN(n *big.Int) *BufferWriter {
	if n.Sign() >= 0 {
		return w.WriteUInt64LEBN(n)
	}

	mag := new(big.Int).Neg(n)
	bit32 := new(big.Int).Lsh(big.NewInt(1), 32)
	hi, lo := new(big.Int).DivMod(mag, bit32, new(big.Int))

	high := ^uint32(hi.Uint64())
	low := uint32(lo.Uint64())
	if low != 0 {
		low = uint32(uint64(1<<32) - uint64(low))
	} else {
		high++
	}

	lowBuf := make([]byte, 4)
	highBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lowBuf, low)
	binary.LittleEndian.PutUint32(highBuf, high)
	w.push(lowBuf)
	return w.push(highBuf)
}

// WriteVarintNum writes n as a compact size.
func (w *BufferWriter) WriteVarintNum(n uint64) *BufferWriter {
	return w.push(VarintBufNum(n))
}

// WriteVarintBN writes the low 64 bits of n as a compact size.
func (w *BufferWriter) WriteVarintBN(n *big.Int) *BufferWriter {
	return w.push(VarintBufBN(n))
}

// WriteVarLengthBytes writes a compact-size length prefix followed by p.
func (w *BufferWriter) WriteVarLengthBytes(p []byte) *BufferWriter {
	w.WriteVarintNum(uint64(len(p)))
	return w.WriteBytes(p)
}

// Len reports the number of bytes written so far.
func (w *BufferWriter) Len() int {
	return w.size
}

// Bytes concatenates all chunks in append order.
func (w *BufferWriter) Bytes() []byte {
	out := make([]byte, 0, w.size)
	for _, b := range w.bufs {
		out = append(out, b...)
	}
	return out
}

// VarintBufNum encodes n as a compact size:
//
//	n < 0xfd         1 byte
//	n <= 0xffff      0xfd + uint16 LE
//	n <= 0xffffffff  0xfe + uint32 LE
//	otherwise        0xff + uint64 LE
func VarintBufNum(n uint64) []byte {
	switch {
	case n < 253:
		return []byte{byte(n)}
	case n < 0x10000:
		return binary.LittleEndian.AppendUint16([]byte{253}, uint16(n))
	case n < 0x100000000:
		return binary.LittleEndian.AppendUint32([]byte{254}, uint32(n))
	default:
		return binary.LittleEndian.AppendUint64([]byte{255}, n)
	}
}

// VarintBufBN is VarintBufNum over the low 64 bits of n.
func VarintBufBN(n *big.Int) []byte {
	return VarintBufNum(binary.BigEndian.Uint64(uint64Buf(n)))
}

// Reverse returns a reversed copy of b.
func Reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func uint64Buf(n *big.Int) []byte {
	buf := make([]byte, 8)
	raw := n.Bytes()
	if len(raw) > 8 {
		raw = raw[len(raw)-8:]
	}
	copy(buf[8-len(raw):], raw)
	return buf
}
