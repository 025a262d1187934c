// Package signing binds transparent inputs to the signing rules of their
// locking-script template.
//
// ForInput inspects the output an input spends and returns the matching
// Input implementation. Only pay-to-public-key-hash is supported; other
// templates are rejected rather than signed incorrectly.
package signing

import (
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// Input is the signing capability set of one transparent input. The set of
// implementations is closed.
type Input interface {
	// Sighash computes the digest a signature for this input commits to.
	Sighash(hashType transaction.SighashType) ([32]byte, error)

	// Signatures signs with key if key controls the input. A key that does
	// not match yields an empty slice and no error.
	Signatures(key *crypto.PrivateKey, hashType transaction.SighashType, keyHash []byte) ([]*TransactionSignature, error)

	// AddSignature verifies sig and installs the unlocking script.
	AddSignature(sig *TransactionSignature) error

	// ClearSignatures resets the unlocking script.
	ClearSignatures()

	// IsFullySigned reports whether the unlocking script is complete.
	IsFullySigned() bool

	// IsValidSignature checks sig against the digest for hashType.
	IsValidSignature(sig *TransactionSignature, hashType transaction.SighashType) (bool, error)

	// EstimateSize is the serialized size of the input once signed.
	EstimateSize() int

	sealed()
}

// TransactionSignature is a signature bound to the input it authorizes.
type TransactionSignature struct {
	PublicKey   *crypto.PublicKey
	PrevTxID    [32]byte // Display order
	OutputIndex uint32
	InputIndex  int
	Signature   []byte // DER-encoded, without the hash type byte
	SigType     transaction.SighashType
}

// ForInput selects the signing implementation for input index of tx from
// the locking script of the output it spends.
func ForInput(tx *transaction.Transaction, index int) (Input, error) {
	in, err := tx.Input(index)
	if err != nil {
		return nil, err
	}
	if in.Output == nil {
		return nil, missingOutput(index)
	}

	switch {
	case in.Output.Script.IsPublicKeyHashOut():
		return &PublicKeyHashInput{tx: tx, index: index}, nil
	default:
		return nil, &transaction.PreconditionError{
			Code:    transaction.ErrUnsupportedScript,
			Message: fmt.Sprintf("input %d spends an unsupported script: %s", index, in.Output.Script),
		}
	}
}

// outpointSize is prevTxId (32) + output index (4) + sequence (4).
const outpointSize = 32 + 4 + 4

func estimateInputSize(scriptSize int) int {
	return outpointSize + len(encoding.VarintBufNum(uint64(scriptSize))) + scriptSize
}

func missingOutput(index int) error {
	return &transaction.PreconditionError{
		Code:    transaction.ErrMissingOutput,
		Message: fmt.Sprintf("input %d has no spent output reference", index),
	}
}
