package roles

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

func testKey(t *testing.T, fill byte) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.PrivateKeyFromBytes(bytes.Repeat([]byte{fill}, 32))
	require.NoError(t, err)
	return key
}

func lockFor(t *testing.T, key *crypto.PrivateKey) script.Script {
	t.Helper()
	lock, err := script.NewPublicKeyHashOut(key.PublicKey().Hash160())
	require.NoError(t, err)
	return lock
}

// buildDraft creates a two-input, one-output Draft; input i is locked to keys[i].
func buildDraft(t *testing.T, keys ...*crypto.PrivateKey) *Draft {
	t.Helper()
	creator, err := NewCreator(DefaultCreatorConfig())
	require.NoError(t, err)

	c := NewConstructor(creator.Create())
	for i, k := range keys {
		require.NoError(t, c.AddInput([32]byte{byte(i + 1)}, uint32(i), 10_000, lockFor(t, k), nil))
	}
	require.NoError(t, c.AddOutput(int64(len(keys))*10_000-1_000, lockFor(t, keys[0])))

	d, err := c.Finish()
	require.NoError(t, err)
	return d
}

func TestCreatorConfig(t *testing.T) {
	cfg := DefaultCreatorConfig()
	require.NoError(t, cfg.Validate())

	d := mustCreate(t, cfg)
	assert.Equal(t, FlagInputsModifiable|FlagOutputsModifiable, d.Modifiable)
	assert.True(t, d.Tx.IsSapling())

	bad := cfg
	bad.Version = 3
	_, err := NewCreator(bad)
	assert.Error(t, err)

	bad = cfg
	bad.VersionGroupID = transaction.OverwinterVersionGroupID
	_, err = NewCreator(bad)
	assert.Error(t, err)

	bad = cfg
	bad.ExpiryHeight = 500000000
	_, err = NewCreator(bad)
	assert.Error(t, err)
}

func mustCreate(t *testing.T, cfg CreatorConfig) *Draft {
	t.Helper()
	creator, err := NewCreator(cfg)
	require.NoError(t, err)
	return creator.Create()
}

func TestConstructor(t *testing.T) {
	key := testKey(t, 0x01)
	lock := lockFor(t, key)

	t.Run("sequence default and override", func(t *testing.T) {
		c := NewConstructor(mustCreate(t, DefaultCreatorConfig()))
		seq := uint32(0xfffffffe)
		require.NoError(t, c.AddInput([32]byte{1}, 0, 5, lock, nil))
		require.NoError(t, c.AddInput([32]byte{2}, 0, 5, lock, &seq))

		d, err := c.Finish()
		require.NoError(t, err)
		assert.Equal(t, transaction.DefaultSequence, d.Tx.Inputs[0].SequenceNumber)
		assert.Equal(t, seq, d.Tx.Inputs[1].SequenceNumber)
		assert.Equal(t, int64(10), c.Fee())
	})

	t.Run("rejections", func(t *testing.T) {
		c := NewConstructor(mustCreate(t, DefaultCreatorConfig()))
		assert.Error(t, c.AddInput([32]byte{1}, 0, -1, lock, nil))
		assert.Error(t, c.AddInput([32]byte{1}, 0, MaxMoney+1, lock, nil))
		assert.Error(t, c.AddInput([32]byte{1}, 0, 1, nil, nil))
		assert.Error(t, c.AddOutput(-5, lock))

		_, err := c.Finish()
		assert.Error(t, err, "no inputs")

		require.NoError(t, c.AddInput([32]byte{1}, 0, 1, lock, nil))
		require.NoError(t, c.AddOutput(2, lock))
		_, err = c.Finish()
		assert.Error(t, err, "overspend")
	})

	t.Run("locked draft", func(t *testing.T) {
		d := mustCreate(t, DefaultCreatorConfig())
		d.Modifiable = 0
		c := NewConstructor(d)
		assert.Error(t, c.AddInput([32]byte{1}, 0, 1, lock, nil))
		assert.Error(t, c.AddOutput(1, lock))
	})
}

func TestSignerModifiableFlags(t *testing.T) {
	tests := []struct {
		hashType transaction.SighashType
		want     uint8
	}{
		{transaction.SighashAll, 0},
		{transaction.SighashNone, FlagOutputsModifiable},
		{transaction.SighashSingle, FlagOutputsModifiable | FlagHasSighashSingle},
		{transaction.SighashAll | transaction.SighashAnyoneCanPay, FlagInputsModifiable},
		{transaction.SighashNone | transaction.SighashAnyoneCanPay, FlagInputsModifiable | FlagOutputsModifiable},
	}

	key := testKey(t, 0x01)
	for _, tt := range tests {
		t.Run(tt.hashType.String(), func(t *testing.T) {
			d := buildDraft(t, key)
			s := NewSigner(d)
			require.NoError(t, s.SignInput(0, key, tt.hashType))
			assert.Equal(t, tt.want, s.Finish().Modifiable)
		})
	}
}

func TestSignerSignAll(t *testing.T) {
	k1, k2, stranger := testKey(t, 0x01), testKey(t, 0x02), testKey(t, 0x03)
	d := buildDraft(t, k1, k2)

	var logs bytes.Buffer
	s := NewSigner(d).WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	n, err := s.SignAll([]*crypto.PrivateKey{stranger, k2}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, d.Tx.Inputs[0].Script)
	assert.True(t, d.Tx.Inputs[1].Script.IsPublicKeyHashIn())
	assert.Contains(t, logs.String(), "signed=1")

	n, err = s.SignAll([]*crypto.PrivateKey{k1, k2}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "already signed inputs are skipped")

	err = s.SignInput(0, stranger, transaction.SighashAll)
	var sigErr *transaction.SignatureError
	assert.True(t, errors.As(err, &sigErr))
}

func TestCombinerAndFinalizer(t *testing.T) {
	k1, k2 := testKey(t, 0x01), testKey(t, 0x02)
	base := buildDraft(t, k1, k2)

	a, b := base.Clone(), base.Clone()
	require.NoError(t, NewSigner(a).SignInput(0, k1, transaction.SighashAll))
	require.NoError(t, NewSigner(b).SignInput(1, k2, transaction.SighashAll))

	_, err := NewTxExtractor(a).Extract()
	assert.Error(t, err, "partially signed draft")

	combined, err := NewCombiner([]*Draft{a, b}).Combine()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), combined.Modifiable)
	assert.Empty(t, a.Tx.Inputs[1].Script, "inputs are not merged in place")

	f := NewSpendFinalizer(combined)
	require.NoError(t, f.Finalize())
	raw, err := NewTxExtractor(f.Finish()).Extract()
	require.NoError(t, err)

	parsed, err := transaction.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, combined.Tx.TxID(), parsed.TxID())

	t.Run("tampered signature", func(t *testing.T) {
		bad := combined.Clone()
		bad.Tx.Inputs[0].Script[10] ^= 0x01
		err := NewSpendFinalizer(bad).Finalize()
		var finErr *transaction.FinalizationError
		require.True(t, errors.As(err, &finErr))
	})

	t.Run("incompatible drafts", func(t *testing.T) {
		other := base.Clone()
		other.Tx.LockTime = 99
		_, err := NewCombiner([]*Draft{a, other}).Combine()
		assert.Error(t, err)

		other = base.Clone()
		other.Tx.Outputs[0].Value--
		_, err = NewCombiner([]*Draft{a, other}).Combine()
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewCombiner(nil).Combine()
		assert.Error(t, err)
	})
}

func TestShieldedConstructor(t *testing.T) {
	key := testKey(t, 0x01)
	d := buildDraft(t, key)
	c := NewConstructor(d)

	r := encoding.NewBufferReader(make([]byte, transaction.ShieldedOutputSize))
	out, err := transaction.ShieldedOutputFromBufferReader(r)
	require.NoError(t, err)
	require.NoError(t, c.AddShieldedOutput(out))
	require.NoError(t, c.SetShieldedBalance(-5_000, [64]byte{1}))
	assert.Error(t, c.SetShieldedBalance(MaxMoney+1, [64]byte{}))

	assert.Equal(t, int64(1_000-5_000), c.Fee())
	_, err = c.Finish()
	assert.Error(t, err)
}
