package sighash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

func TestSignVerify(t *testing.T) {
	key, err := crypto.PrivateKeyFromBytes(seqBytes(32, 0x01))
	require.NoError(t, err)

	tx := testTransaction(t)
	in := tx.Inputs[0]
	code, value := scriptCode(in), in.Output.ValueBuffer()

	sig, err := Sign(tx, key, transaction.SighashAll, 0, code, value)
	require.NoError(t, err)

	ok, err := Verify(tx, sig, transaction.SighashAll, key.PublicKey(), 0, code, value)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("different hash type", func(t *testing.T) {
		ok, err := Verify(tx, sig, transaction.SighashNone, key.PublicKey(), 0, code, value)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("different input", func(t *testing.T) {
		ok, err := Verify(tx, sig, transaction.SighashAll, key.PublicKey(), 1, code, value)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing hash type", func(t *testing.T) {
		_, err := Verify(tx, sig, 0, key.PublicKey(), 0, code, value)
		var perr *transaction.PreconditionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, transaction.ErrMissingHashType, perr.Code)

		_, err = Sign(tx, key, 0, 0, code, value)
		assert.ErrorAs(t, err, &perr)
	})
}
