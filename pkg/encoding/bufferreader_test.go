package encoding

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferReader(t *testing.T) {
	w := NewBufferWriter()
	w.WriteUInt8(7).
		WriteUInt16LE(0x0102).
		WriteUInt32LE(0xdeadbeef).
		WriteInt32LE(-5).
		WriteReverse([]byte{1, 2, 3}).
		WriteVarLengthBytes([]byte("abc"))

	r := NewBufferReader(w.Bytes())

	u8, err := r.ReadUInt8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), u8)

	u16, err := r.ReadUInt16LE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u32, err := r.ReadUInt32LE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	i32, err := r.ReadInt32LE()
	require.NoError(t, err)
	assert.Equal(t, int32(-5), i32)

	rev, err := r.ReadReverse(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, rev)

	b, err := r.ReadVarLengthBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)

	assert.True(t, r.Finished())
	assert.Equal(t, 0, r.Remaining())
}

func TestBufferReaderShort(t *testing.T) {
	r := NewBufferReader([]byte{1, 2, 3})

	_, err := r.Read(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, 3, r.Remaining(), "failed read must not advance")

	_, err = NewBufferReader([]byte{0x05, 0x01}).ReadVarLengthBytes()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = NewBufferReader([]byte{0xfd, 0x01}).ReadVarintNum()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBufferReaderUInt64LEBN(t *testing.T) {
	r := NewBufferReader([]byte{0x00, 0xf2, 0x05, 0x2a, 0x01, 0x00, 0x00, 0x00})
	n, err := r.ReadUInt64LEBN()
	require.NoError(t, err)
	assert.Equal(t, int64(5000000000), n.Int64())
}
