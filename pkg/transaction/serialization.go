package transaction

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
)

// maxCount bounds list lengths read from the wire so a corrupt count cannot
// trigger a huge allocation.
const maxCount = 1 << 20

// WriteTo emits the full wire encoding:
//
//	header || [versionGroupId] || vin || vout || lockTime || [expiryHeight]
//	|| [valueBalance || vShieldedSpend || vShieldedOutput] || [nJoinSplit]
//	|| [bindingSig]
//
// JoinSplits are always encoded as an empty list.
func (tx *Transaction) WriteTo(w *encoding.BufferWriter) *encoding.BufferWriter {
	if w == nil {
		w = encoding.NewBufferWriter()
	}

	w.WriteUInt32LE(tx.Header())
	if tx.Overwintered {
		w.WriteUInt32LE(tx.VersionGroupID)
	}

	w.WriteVarintNum(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		in.WriteTo(w)
	}

	w.WriteVarintNum(uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		o.WriteTo(w)
	}

	w.WriteUInt32LE(tx.LockTime)
	if tx.Overwintered {
		w.WriteUInt32LE(tx.ExpiryHeight)
	}

	if tx.IsSapling() {
		w.WriteInt64LEBN(big.NewInt(tx.ValueBalance))
		w.WriteVarintNum(uint64(len(tx.ShieldedSpends)))
		for _, s := range tx.ShieldedSpends {
			s.WriteTo(w)
		}
		w.WriteVarintNum(uint64(len(tx.ShieldedOutputs)))
		for _, o := range tx.ShieldedOutputs {
			o.WriteTo(w)
		}
	}

	if tx.Version >= 2 {
		w.WriteVarintNum(0)
	}

	if tx.IsSapling() && tx.HasShieldedData() {
		w.WriteBytes(tx.BindingSig[:])
	}

	return w
}

// Serialize returns the wire encoding.
func (tx *Transaction) Serialize() []byte {
	return tx.WriteTo(nil).Bytes()
}

// Hash returns the double-SHA256 of the encoding in wire order.
func (tx *Transaction) Hash() [32]byte {
	return crypto.DoubleSHA256(tx.Serialize())
}

// TxID returns the transaction ID in display order, as hex.
func (tx *Transaction) TxID() string {
	h := tx.Hash()
	return hex.EncodeToString(encoding.Reverse(h[:]))
}

// Parse decodes a complete transaction. Trailing bytes are an error.
// Spent-output references are not part of the encoding and are left nil.
func Parse(data []byte) (*Transaction, error) {
	r := encoding.NewBufferReader(data)
	tx, err := readTransaction(r)
	if err != nil {
		return nil, err
	}
	if !r.Finished() {
		return nil, &ParseError{Message: fmt.Sprintf("%d trailing bytes", r.Remaining())}
	}
	return tx, nil
}

// ParseHex decodes a hex-encoded transaction.
func ParseHex(s string) (*Transaction, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, &ParseError{Message: "transaction is not valid hex", Cause: err}
	}
	return Parse(data)
}

func readTransaction(r *encoding.BufferReader) (*Transaction, error) {
	tx := &Transaction{}

	header, err := r.ReadUInt32LE()
	if err != nil {
		return nil, &ParseError{Message: "reading header", Cause: err}
	}
	tx.Overwintered = header&OverwinterFlag != 0
	tx.Version = header &^ OverwinterFlag

	if tx.Overwintered {
		if tx.VersionGroupID, err = r.ReadUInt32LE(); err != nil {
			return nil, &ParseError{Message: "reading version group ID", Cause: err}
		}
		if tx.VersionGroupID != OverwinterVersionGroupID && tx.VersionGroupID != SaplingVersionGroupID {
			return nil, &ParseError{Message: fmt.Sprintf("unsupported version group ID 0x%08x", tx.VersionGroupID)}
		}
	}

	inCount, err := readCount(r, "input count")
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]*Input, 0, inCount)
	for i := 0; i < inCount; i++ {
		in, err := readInput(r)
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("reading input %d", i), Cause: err}
		}
		tx.Inputs = append(tx.Inputs, in)
	}

	outCount, err := readCount(r, "output count")
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]*Output, 0, outCount)
	for i := 0; i < outCount; i++ {
		o, err := readOutput(r)
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("reading output %d", i), Cause: err}
		}
		tx.Outputs = append(tx.Outputs, o)
	}

	if tx.LockTime, err = r.ReadUInt32LE(); err != nil {
		return nil, &ParseError{Message: "reading lock time", Cause: err}
	}
	if tx.Overwintered {
		if tx.ExpiryHeight, err = r.ReadUInt32LE(); err != nil {
			return nil, &ParseError{Message: "reading expiry height", Cause: err}
		}
	}

	if tx.IsSapling() {
		if err := readSaplingBundle(r, tx); err != nil {
			return nil, err
		}
	}

	if tx.Version >= 2 {
		n, err := readCount(r, "joinsplit count")
		if err != nil {
			return nil, err
		}
		if n != 0 {
			return nil, &ParseError{Message: fmt.Sprintf("transactions with %d joinsplits are not supported", n)}
		}
	}

	if tx.IsSapling() && tx.HasShieldedData() {
		sig, err := r.Read(64)
		if err != nil {
			return nil, &ParseError{Message: "reading binding signature", Cause: err}
		}
		copy(tx.BindingSig[:], sig)
	}

	return tx, nil
}

func readSaplingBundle(r *encoding.BufferReader, tx *Transaction) error {
	vb, err := r.ReadInt64LE()
	if err != nil {
		return &ParseError{Message: "reading value balance", Cause: err}
	}
	tx.ValueBalance = vb

	n, err := readCount(r, "shielded spend count")
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		s, err := ShieldedSpendFromBufferReader(r)
		if err != nil {
			return err
		}
		tx.ShieldedSpends = append(tx.ShieldedSpends, s)
	}

	n, err = readCount(r, "shielded output count")
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		o, err := ShieldedOutputFromBufferReader(r)
		if err != nil {
			return err
		}
		tx.ShieldedOutputs = append(tx.ShieldedOutputs, o)
	}
	return nil
}

func readInput(r *encoding.BufferReader) (*Input, error) {
	in := &Input{}

	txid, err := r.ReadReverse(32)
	if err != nil {
		return nil, fmt.Errorf("reading prevout txid: %w", err)
	}
	copy(in.PrevTxID[:], txid)

	if in.OutputIndex, err = r.ReadUInt32LE(); err != nil {
		return nil, fmt.Errorf("reading prevout index: %w", err)
	}

	s, err := r.ReadVarLengthBytes()
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	in.Script = script.Script(s)

	if in.SequenceNumber, err = r.ReadUInt32LE(); err != nil {
		return nil, fmt.Errorf("reading sequence: %w", err)
	}

	return in, nil
}

func readOutput(r *encoding.BufferReader) (*Output, error) {
	value, err := r.ReadInt64LE()
	if err != nil {
		return nil, fmt.Errorf("reading value: %w", err)
	}

	s, err := r.ReadVarLengthBytes()
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	return &Output{Value: value, Script: script.Script(s)}, nil
}

func readCount(r *encoding.BufferReader, what string) (int, error) {
	n, err := r.ReadVarintNum()
	if err != nil {
		return 0, &ParseError{Message: "reading " + what, Cause: err}
	}
	if n > maxCount {
		return 0, &ParseError{Message: fmt.Sprintf("%s %d too large", what, n)}
	}
	return int(n), nil
}
