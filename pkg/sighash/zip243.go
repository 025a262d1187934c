// Package sighash computes the digests transparent signatures commit to.
//
// Version 4 (Sapling) transactions use the ZIP 243 algorithm: a tree of
// personalized BLAKE2b-256 hashes over prevouts, sequences and outputs,
// bound to the Sapling consensus branch ID. Earlier versions use the
// Bitcoin-derived double-SHA256 algorithm (see legacy.go).
//
// References:
//   - ZIP 243: https://zips.z.cash/zip-0243
//   - ZIP 143 (the Overwinter predecessor, same structure)
package sighash

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// ZIP 243 personalization strings for BLAKE2b hashing.
const (
	PrevoutsHashPersonalization        = "ZcashPrevoutHash"
	SequenceHashPersonalization        = "ZcashSequencHash"
	OutputsHashPersonalization         = "ZcashOutputsHash"
	JoinSplitsHashPersonalization      = "ZcashJSplitsHash"
	ShieldedSpendsHashPersonalization  = "ZcashSSpendsHash"
	ShieldedOutputsHashPersonalization = "ZcashSOutputHash"
	SigHashPersonalizationPrefix       = "ZcashSigHash"
)

// saplingSigHashPersonalization is "ZcashSigHash" followed by the Sapling
// consensus branch ID in little-endian order (bb 09 b8 76).
var saplingSigHashPersonalization = binary.LittleEndian.AppendUint32(
	[]byte(SigHashPersonalizationPrefix), transaction.SaplingBranchID)

// ZIP243 computes the signature digest for input inputIndex of a v4
// transaction.
//
// scriptCode is the varint-prefixed locking script of the spent output and
// value its 8-byte little-endian amount. Sub-hashes that the hash type
// excludes are 32 zero bytes. SIGHASH_SINGLE with inputIndex past the last
// output also yields a zero outputs hash rather than an error.
func ZIP243(
	tx *transaction.Transaction,
	hashType transaction.SighashType,
	inputIndex int,
	scriptCode []byte,
	value []byte,
) ([32]byte, error) {
	var digest [32]byte

	input, err := tx.Input(inputIndex)
	if err != nil {
		return digest, err
	}
	if len(value) != 8 {
		return digest, &transaction.SighashError{
			InputIndex: inputIndex,
			Message:    fmt.Sprintf("value must be 8 bytes, got %d", len(value)),
		}
	}

	base := hashType.Base()

	var hashPrevouts, hashSequence, hashOutputs [32]byte
	if !hashType.AnyoneCanPay() {
		hashPrevouts = prevoutsHash(tx)
		if base != transaction.SighashSingle && base != transaction.SighashNone {
			hashSequence = sequenceHash(tx)
		}
	}

	switch {
	case base != transaction.SighashSingle && base != transaction.SighashNone:
		hashOutputs = outputsHash(tx.Outputs)
	case base == transaction.SighashSingle && inputIndex < len(tx.Outputs):
		hashOutputs = outputsHash(tx.Outputs[inputIndex : inputIndex+1])
	}

	var hashShieldedSpends, hashShieldedOutputs [32]byte
	if len(tx.ShieldedSpends) > 0 {
		hashShieldedSpends = shieldedSpendsHash(tx.ShieldedSpends)
	}
	if len(tx.ShieldedOutputs) > 0 {
		hashShieldedOutputs = shieldedOutputsHash(tx.ShieldedOutputs)
	}

	w := encoding.NewBufferWriter()
	w.WriteUInt32LE(tx.Version | transaction.OverwinterFlag)
	w.WriteUInt32LE(tx.VersionGroupID)
	w.WriteBytes(hashPrevouts[:])
	w.WriteBytes(hashSequence[:])
	w.WriteBytes(hashOutputs[:])
	w.WriteBytes(make([]byte, 32)) // hashJoinSplits, always empty here
	w.WriteBytes(hashShieldedSpends[:])
	w.WriteBytes(hashShieldedOutputs[:])
	w.WriteUInt32LE(tx.LockTime)
	w.WriteUInt32LE(tx.ExpiryHeight)
	w.WriteInt64LEBN(big.NewInt(tx.ValueBalance))
	w.WriteInt32LE(int32(hashType))

	// The input being signed, with scriptCode and amount in place of the
	// unlocking script.
	input.WriteOutpoint(w)
	w.WriteBytes(scriptCode)
	w.WriteBytes(value)
	w.WriteUInt32LE(input.SequenceNumber)

	h, err := crypto.NewBlake2b256(saplingSigHashPersonalization)
	if err != nil {
		return digest, &transaction.SighashError{InputIndex: inputIndex, Message: "creating hasher", Cause: err}
	}
	h.Write(w.Bytes())
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// prevoutsHash hashes every input's outpoint in order.
func prevoutsHash(tx *transaction.Transaction) [32]byte {
	w := encoding.NewBufferWriter()
	for _, in := range tx.Inputs {
		in.WriteOutpoint(w)
	}
	return personalHash(PrevoutsHashPersonalization, w)
}

// sequenceHash hashes every input's nSequence in order.
func sequenceHash(tx *transaction.Transaction) [32]byte {
	w := encoding.NewBufferWriter()
	for _, in := range tx.Inputs {
		w.WriteUInt32LE(in.SequenceNumber)
	}
	return personalHash(SequenceHashPersonalization, w)
}

// outputsHash hashes the serialized outputs (value || script).
func outputsHash(outputs []*transaction.Output) [32]byte {
	w := encoding.NewBufferWriter()
	for _, o := range outputs {
		o.WriteTo(w)
	}
	return personalHash(OutputsHashPersonalization, w)
}

// shieldedSpendsHash hashes cv || anchor || nullifier || rk || zkproof of
// every spend. Spend authorization signatures are excluded.
func shieldedSpendsHash(spends []*transaction.ShieldedSpend) [32]byte {
	w := encoding.NewBufferWriter()
	for _, s := range spends {
		s.WriteSighashFields(w)
	}
	return personalHash(ShieldedSpendsHashPersonalization, w)
}

// shieldedOutputsHash hashes the full encoding of every output.
func shieldedOutputsHash(outputs []*transaction.ShieldedOutput) [32]byte {
	w := encoding.NewBufferWriter()
	for _, o := range outputs {
		o.WriteTo(w)
	}
	return personalHash(ShieldedOutputsHashPersonalization, w)
}

func personalHash(personalization string, w *encoding.BufferWriter) [32]byte {
	// Every personalization above is a 16-byte constant.
	digest, _ := crypto.Blake2b256([]byte(personalization), w.Bytes())
	return digest
}
