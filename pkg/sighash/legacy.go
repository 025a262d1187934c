package sighash

import (
	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// singleBugDigest is returned for SIGHASH_SINGLE when the input has no
// matching output: the number one as a little-endian uint256.
var singleBugDigest = [32]byte{0x01}

// Legacy computes the Bitcoin-style double-SHA256 signature digest used by
// transactions before version 4. The spent amount is not committed.
//
// The transaction is copied, the subscript (with OP_CODESEPARATOR removed)
// replaces the signed input's script and every other input script is
// emptied, then the copy is trimmed according to hashType before being
// serialized with the 4-byte hash type appended.
func Legacy(
	tx *transaction.Transaction,
	hashType transaction.SighashType,
	inputIndex int,
	subscript script.Script,
) ([32]byte, error) {
	if _, err := tx.Input(inputIndex); err != nil {
		return [32]byte{}, err
	}

	txCopy := tx.Clone()
	base := hashType.Base()

	for i, in := range txCopy.Inputs {
		in.Script = nil
		if i == inputIndex {
			in.Script = subscript.RemoveCodeSeparators()
		} else if base == transaction.SighashNone || base == transaction.SighashSingle {
			in.SequenceNumber = 0
		}
	}

	switch base {
	case transaction.SighashNone:
		txCopy.Outputs = nil
	case transaction.SighashSingle:
		if inputIndex >= len(txCopy.Outputs) {
			return singleBugDigest, nil
		}
		txCopy.Outputs = txCopy.Outputs[:inputIndex+1]
		for i := 0; i < inputIndex; i++ {
			txCopy.Outputs[i] = &transaction.Output{Value: -1}
		}
	}

	if hashType.AnyoneCanPay() {
		txCopy.Inputs = []*transaction.Input{txCopy.Inputs[inputIndex]}
	}

	w := txCopy.WriteTo(encoding.NewBufferWriter())
	w.WriteInt32LE(int32(hashType))
	return crypto.DoubleSHA256(w.Bytes()), nil
}
