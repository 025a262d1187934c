// Package transaction implements the Zcash v1-v4 transaction container:
// transparent inputs and outputs, Sapling spend and output descriptions,
// and their byte-exact wire encoding.
//
// Hashes (previous transaction IDs, note commitments, value commitments)
// are held in display order in the hex interchange form and reversed to
// wire order on encode.
package transaction

import (
	"fmt"
	"math/big"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
)

// Header constants.
const (
	OverwinterFlag uint32 = 1 << 31 // High bit of the header word

	OverwinterVersionGroupID uint32 = 0x03C48270 // v3
	SaplingVersionGroupID    uint32 = 0x892F2085 // v4

	SaplingVersion  uint32 = 4
	SaplingBranchID uint32 = 0x76B809BB // Consensus branch bound into every v4 digest

	DefaultSequence uint32 = 0xFFFFFFFF // Final, no relative lock
)

// SighashType selects which parts of the transaction a signature commits to.
// The low five bits hold the base type; AnyoneCanPay is an independent flag.
type SighashType uint32

const (
	SighashAll          SighashType = 0x01 // Sign all inputs and outputs
	SighashNone         SighashType = 0x02 // Sign all inputs, no outputs
	SighashSingle       SighashType = 0x03 // Sign all inputs, one output
	SighashAnyoneCanPay SighashType = 0x80 // Sign only this input
	SighashMask         SighashType = 0x1f
)

// Base returns the ALL/NONE/SINGLE subtype.
func (t SighashType) Base() SighashType { return t & SighashMask }

// AnyoneCanPay reports whether the ANYONECANPAY flag is set.
func (t SighashType) AnyoneCanPay() bool { return t&SighashAnyoneCanPay != 0 }

func (t SighashType) String() string {
	var name string
	switch t.Base() {
	case SighashAll:
		name = "ALL"
	case SighashNone:
		name = "NONE"
	case SighashSingle:
		name = "SINGLE"
	default:
		name = fmt.Sprintf("0x%02x", uint32(t.Base()))
	}
	if t.AnyoneCanPay() {
		name += "|ANYONECANPAY"
	}
	return name
}

// ParseSighashType accepts the names printed by String.
func ParseSighashType(s string) (SighashType, error) {
	switch s {
	case "ALL":
		return SighashAll, nil
	case "NONE":
		return SighashNone, nil
	case "SINGLE":
		return SighashSingle, nil
	case "ALL|ANYONECANPAY":
		return SighashAll | SighashAnyoneCanPay, nil
	case "NONE|ANYONECANPAY":
		return SighashNone | SighashAnyoneCanPay, nil
	case "SINGLE|ANYONECANPAY":
		return SighashSingle | SighashAnyoneCanPay, nil
	default:
		return 0, fmt.Errorf("unknown sighash type %q", s)
	}
}

// Output is a transparent output: a value in zatoshis and a locking script.
type Output struct {
	Value  int64
	Script script.Script
}

// ValueBuffer returns the value as the 8-byte little-endian buffer that
// digests commit to.
func (o *Output) ValueBuffer() []byte {
	return encoding.NewBufferWriter().WriteInt64LEBN(big.NewInt(o.Value)).Bytes()
}

// WriteTo emits value || varint(len(script)) || script.
func (o *Output) WriteTo(w *encoding.BufferWriter) *encoding.BufferWriter {
	if w == nil {
		w = encoding.NewBufferWriter()
	}
	w.WriteInt64LEBN(big.NewInt(o.Value))
	return w.WriteVarLengthBytes(o.Script)
}

// Input is a transparent input. Output references the output being spent;
// it is not part of the wire encoding but every digest needs it.
type Input struct {
	PrevTxID       [32]byte      // Display order (as shown by explorers)
	OutputIndex    uint32        // Index into the previous transaction's outputs
	SequenceNumber uint32        // nSequence
	Script         script.Script // Unlocking script, empty until signed
	Output         *Output       // Spent output, nil if unknown
}

// WriteOutpoint emits the reversed prevTxId and little-endian output index.
func (in *Input) WriteOutpoint(w *encoding.BufferWriter) *encoding.BufferWriter {
	return w.WriteReverse(in.PrevTxID[:]).WriteUInt32LE(in.OutputIndex)
}

// WriteTo emits outpoint || varint(len(script)) || script || sequence.
func (in *Input) WriteTo(w *encoding.BufferWriter) *encoding.BufferWriter {
	if w == nil {
		w = encoding.NewBufferWriter()
	}
	in.WriteOutpoint(w)
	w.WriteVarLengthBytes(in.Script)
	return w.WriteUInt32LE(in.SequenceNumber)
}

// Transaction is a Zcash transaction up to version 4 (Sapling).
type Transaction struct {
	Version        uint32 // Version without the overwinter bit
	Overwintered   bool   // fOverwintered, set for v3 and v4
	VersionGroupID uint32 // nVersionGroupId, only encoded when overwintered
	Inputs         []*Input
	Outputs        []*Output
	LockTime       uint32
	ExpiryHeight   uint32 // Only encoded when overwintered

	// Sapling bundle, v4 only.
	ValueBalance    int64 // Net value leaving the shielded pool
	ShieldedSpends  []*ShieldedSpend
	ShieldedOutputs []*ShieldedOutput
	BindingSig      [64]byte // Present on the wire when the bundle is non-empty
}

// New returns an empty v4 Sapling transaction.
func New() *Transaction {
	return &Transaction{
		Version:        SaplingVersion,
		Overwintered:   true,
		VersionGroupID: SaplingVersionGroupID,
	}
}

// Header returns the first four bytes' value: version with the overwinter bit.
func (tx *Transaction) Header() uint32 {
	if tx.Overwintered {
		return tx.Version | OverwinterFlag
	}
	return tx.Version
}

// IsSapling reports whether the transaction uses the v4 Sapling format.
func (tx *Transaction) IsSapling() bool {
	return tx.Overwintered && tx.Version >= SaplingVersion
}

// HasShieldedData reports whether any Sapling spend or output is present.
func (tx *Transaction) HasShieldedData() bool {
	return len(tx.ShieldedSpends) > 0 || len(tx.ShieldedOutputs) > 0
}

// Input returns the input at index or an out-of-range precondition error.
func (tx *Transaction) Input(index int) (*Input, error) {
	if index < 0 || index >= len(tx.Inputs) {
		return nil, &PreconditionError{
			Code:    ErrInputOutOfRange,
			Message: fmt.Sprintf("input index %d out of bounds (have %d inputs)", index, len(tx.Inputs)),
		}
	}
	return tx.Inputs[index], nil
}

// Clone returns a deep copy. Shielded descriptors are immutable and shared.
func (tx *Transaction) Clone() *Transaction {
	out := *tx
	out.Inputs = make([]*Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		cp := *in
		cp.Script = append(script.Script(nil), in.Script...)
		if in.Output != nil {
			o := *in.Output
			o.Script = append(script.Script(nil), in.Output.Script...)
			cp.Output = &o
		}
		out.Inputs[i] = &cp
	}
	out.Outputs = make([]*Output, len(tx.Outputs))
	for i, o := range tx.Outputs {
		cp := *o
		cp.Script = append(script.Script(nil), o.Script...)
		out.Outputs[i] = &cp
	}
	out.ShieldedSpends = append([]*ShieldedSpend(nil), tx.ShieldedSpends...)
	out.ShieldedOutputs = append([]*ShieldedOutput(nil), tx.ShieldedOutputs...)
	return &out
}
