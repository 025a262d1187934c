package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

// BufferReader is a forward-only cursor over a byte slice. Every read either
// consumes exactly the requested bytes or fails with io.ErrUnexpectedEOF.
type BufferReader struct {
	buf []byte
	pos int
}

// NewBufferReader returns a reader positioned at the start of buf.
func NewBufferReader(buf []byte) *BufferReader {
	return &BufferReader{buf: buf}
}

// Remaining reports how many bytes are left.
func (r *BufferReader) Remaining() int {
	return len(r.buf) - r.pos
}

// Finished reports whether the cursor reached the end.
func (r *BufferReader) Finished() bool {
	return r.pos >= len(r.buf)
}

// Read returns a copy of the next n bytes.
func (r *BufferReader) Read(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w",
			n, r.pos, r.Remaining(), io.ErrUnexpectedEOF)
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadReverse returns the next n bytes reversed.
func (r *BufferReader) ReadReverse(n int) ([]byte, error) {
	b, err := r.Read(n)
	if err != nil {
		return nil, err
	}
	return Reverse(b), nil
}

func (r *BufferReader) ReadUInt8() (uint8, error) {
	b, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *BufferReader) ReadUInt16LE() (uint16, error) {
	b, err := r.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *BufferReader) ReadUInt32LE() (uint32, error) {
	b, err := r.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *BufferReader) ReadInt32LE() (int32, error) {
	n, err := r.ReadUInt32LE()
	return int32(n), err
}

func (r *BufferReader) ReadUInt64LE() (uint64, error) {
	b, err := r.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64LE reads a 64-bit two's-complement little-endian value.
func (r *BufferReader) ReadInt64LE() (int64, error) {
	n, err := r.ReadUInt64LE()
	return int64(n), err
}

// ReadUInt64LEBN reads an unsigned 64-bit little-endian value as a big.Int.
func (r *BufferReader) ReadUInt64LEBN() (*big.Int, error) {
	n, err := r.ReadUInt64LE()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(n), nil
}

// ReadVarintNum reads a compact size.
func (r *BufferReader) ReadVarintNum() (uint64, error) {
	first, err := r.ReadUInt8()
	if err != nil {
		return 0, err
	}
	switch first {
	case 253:
		n, err := r.ReadUInt16LE()
		return uint64(n), err
	case 254:
		n, err := r.ReadUInt32LE()
		return uint64(n), err
	case 255:
		return r.ReadUInt64LE()
	default:
		return uint64(first), nil
	}
}

// ReadVarLengthBytes reads a compact-size length followed by that many bytes.
func (r *BufferReader) ReadVarLengthBytes() ([]byte, error) {
	n, err := r.ReadVarintNum()
	if err != nil {
		return nil, fmt.Errorf("reading length: %w", err)
	}
	if n > uint64(r.Remaining()) {
		return nil, fmt.Errorf("length %d exceeds remaining %d: %w",
			n, r.Remaining(), io.ErrUnexpectedEOF)
	}
	return r.Read(int(n))
}
