package crypto

import (
	"encoding/hex"
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

func TestNewBlake2b256(t *testing.T) {
	t.Run("rejects short personalization", func(t *testing.T) {
		_, err := NewBlake2b256([]byte("ZcashSigHash"))
		assert.Error(t, err)
	})

	t.Run("personalization separates domains", func(t *testing.T) {
		data := []byte("same input")
		a, err := Blake2b256([]byte("ZcashPrevoutHash"), data)
		require.NoError(t, err)
		b, err := Blake2b256([]byte("ZcashSequencHash"), data)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)

		again, err := Blake2b256([]byte("ZcashPrevoutHash"), data)
		require.NoError(t, err)
		assert.Equal(t, a, again)
	})
}

func TestDoubleSHA256(t *testing.T) {
	got := DoubleSHA256([]byte("hello"))
	assert.Equal(t,
		"9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50",
		hex.EncodeToString(got[:]))
}

func TestHash160(t *testing.T) {
	// Generator point, compressed.
	pub := hexDecode(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(Hash160(pub)))
}
