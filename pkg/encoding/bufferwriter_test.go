package encoding

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestBufferWriterWrite(t *testing.T) {
	t.Run("single write round trips", func(t *testing.T) {
		b := []byte{0x00, 0x01, 0xfe, 0xff}
		w := NewBufferWriter()
		w.WriteBytes(b)
		assert.Equal(t, b, w.Bytes())
		assert.Equal(t, 4, w.Len())
	})

	t.Run("writes concatenate in call order", func(t *testing.T) {
		w := NewBufferWriter()
		w.WriteBytes([]byte{1, 2}).WriteBytes([]byte{3}).WriteBytes(nil).WriteBytes([]byte{4, 5})
		assert.Equal(t, []byte{1, 2, 3, 4, 5}, w.Bytes())
	})

	t.Run("caller buffer is copied", func(t *testing.T) {
		b := []byte{9, 9}
		w := NewBufferWriter()
		n, err := w.Write(b)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		b[0] = 0
		assert.Equal(t, []byte{9, 9}, w.Bytes())
	})

	t.Run("empty writer", func(t *testing.T) {
		assert.Empty(t, NewBufferWriter().Bytes())
	})
}

func TestBufferWriterReverse(t *testing.T) {
	b := hexDecode(t, "0102030405")
	once := NewBufferWriter().WriteReverse(b).Bytes()
	assert.Equal(t, hexDecode(t, "0504030201"), once)

	twice := NewBufferWriter().WriteReverse(once).Bytes()
	assert.Equal(t, b, twice)
	assert.Equal(t, hexDecode(t, "0102030405"), b, "input must not be modified")
}

func TestBufferWriterFixedWidth(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *BufferWriter)
		want  string
	}{
		{"uint8", func(w *BufferWriter) { w.WriteUInt8(0xab) }, "ab"},
		{"uint16be", func(w *BufferWriter) { w.WriteUInt16BE(0x0102) }, "0102"},
		{"uint16le", func(w *BufferWriter) { w.WriteUInt16LE(0x0102) }, "0201"},
		{"uint32be", func(w *BufferWriter) { w.WriteUInt32BE(0x01020304) }, "01020304"},
		{"uint32le", func(w *BufferWriter) { w.WriteUInt32LE(0x01020304) }, "04030201"},
		{"int32le negative", func(w *BufferWriter) { w.WriteInt32LE(-1) }, "ffffffff"},
		{"int32le positive", func(w *BufferWriter) { w.WriteInt32LE(1) }, "01000000"},
		{"uint64bebn", func(w *BufferWriter) { w.WriteUInt64BEBN(big.NewInt(0x0102)) }, "0000000000000102"},
		{"uint64lebn", func(w *BufferWriter) { w.WriteUInt64LEBN(big.NewInt(5000000000)) }, "00f2052a01000000"},
		{"uint64lebn max", func(w *BufferWriter) { w.WriteUInt64LEBN(new(big.Int).SetUint64(^uint64(0))) }, "ffffffffffffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewBufferWriter()
			tt.write(w)
			assert.Equal(t, tt.want, hex.EncodeToString(w.Bytes()))
		})
	}
}

func TestBufferWriterInt64LEBN(t *testing.T) {
	tests := []struct {
		name string
		n    *big.Int
		want string
	}{
		{"zero", big.NewInt(0), "0000000000000000"},
		{"positive", big.NewInt(1), "0100000000000000"},
		{"minus one", big.NewInt(-1), "ffffffffffffffff"},
		{"minus two", big.NewInt(-2), "feffffffffffffff"},
		{"minus 2^32", big.NewInt(-(1 << 32)), "00000000ffffffff"},
		{"minus 2^32 minus one", big.NewInt(-(1 << 32) - 1), "fffffffffeffffff"},
		{"min int64", big.NewInt(-1 << 63), "0000000000000080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBufferWriter().WriteInt64LEBN(tt.n).Bytes()
			assert.Equal(t, tt.want, hex.EncodeToString(got))

			// Limbs must land in separate buffers.
			v, err := NewBufferReader(got).ReadInt64LE()
			require.NoError(t, err)
			assert.Equal(t, tt.n.Int64(), v)
		})
	}
}

func TestVarint(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "00"},
		{252, "fc"},
		{253, "fdfd00"},
		{0xffff, "fdffff"},
		{0x10000, "fe00000100"},
		{0xffffffff, "feffffffff"},
		{0x100000000, "ff0000000001000000"},
		{^uint64(0), "ffffffffffffffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			buf := VarintBufNum(tt.n)
			assert.Equal(t, tt.want, hex.EncodeToString(buf))
			assert.Equal(t, buf, VarintBufBN(new(big.Int).SetUint64(tt.n)))
			assert.Equal(t, buf, NewBufferWriter().WriteVarintNum(tt.n).Bytes())

			got, err := NewBufferReader(buf).ReadVarintNum()
			require.NoError(t, err)
			assert.Equal(t, tt.n, got)
		})
	}
}
