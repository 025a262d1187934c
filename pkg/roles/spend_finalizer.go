package roles

import (
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/signing"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// SpendFinalizer checks that every transparent input carries a complete
// unlocking script whose signature verifies.
//
// After finalization the Draft can no longer be modified and is ready for
// the TxExtractor.
type SpendFinalizer struct {
	draft *Draft
}

// NewSpendFinalizer creates a new SpendFinalizer.
func NewSpendFinalizer(d *Draft) *SpendFinalizer {
	return &SpendFinalizer{draft: d}
}

// Finalize verifies each input's unlocking script.
func (sf *SpendFinalizer) Finalize() error {
	for i := range sf.draft.Tx.Inputs {
		if err := sf.finalizeInput(i); err != nil {
			return err
		}
	}
	sf.draft.Modifiable &^= FlagInputsModifiable | FlagOutputsModifiable
	return nil
}

func (sf *SpendFinalizer) finalizeInput(index int) error {
	in, err := signing.ForInput(sf.draft.Tx, index)
	if err != nil {
		return &transaction.FinalizationError{
			Code:    transaction.ErrIncomplete,
			Message: fmt.Sprintf("input %d cannot be finalized", index),
			Cause:   err,
		}
	}
	if !in.IsFullySigned() {
		return &transaction.FinalizationError{
			Code:    transaction.ErrIncomplete,
			Message: fmt.Sprintf("input %d is not signed", index),
		}
	}

	sig, err := sf.signatureFromScript(index)
	if err != nil {
		return &transaction.FinalizationError{
			Code:    transaction.ErrIncomplete,
			Message: fmt.Sprintf("input %d has a malformed unlocking script", index),
			Cause:   err,
		}
	}
	valid, err := in.IsValidSignature(sig, sig.SigType)
	if err != nil {
		return &transaction.FinalizationError{
			Code:    transaction.ErrInvalidSignature,
			Message: fmt.Sprintf("input %d signature check failed", index),
			Cause:   err,
		}
	}
	if !valid {
		return &transaction.FinalizationError{
			Code:    transaction.ErrInvalidSignature,
			Message: fmt.Sprintf("input %d signature does not verify", index),
		}
	}
	return nil
}

// signatureFromScript splits <sig||hashType> <pubkey> back into a
// TransactionSignature.
func (sf *SpendFinalizer) signatureFromScript(index int) (*signing.TransactionSignature, error) {
	in := sf.draft.Tx.Inputs[index]
	chunks, err := in.Script.Chunks()
	if err != nil {
		return nil, err
	}
	if len(chunks) != 2 {
		return nil, fmt.Errorf("expected 2 pushes, got %d", len(chunks))
	}

	sigWithType := chunks[0].Data
	if len(sigWithType) < 2 {
		return nil, fmt.Errorf("signature push too short")
	}
	pub, err := crypto.ParsePublicKey(chunks[1].Data)
	if err != nil {
		return nil, err
	}

	return &signing.TransactionSignature{
		PublicKey:   pub,
		PrevTxID:    in.PrevTxID,
		OutputIndex: in.OutputIndex,
		InputIndex:  index,
		Signature:   sigWithType[:len(sigWithType)-1],
		SigType:     transaction.SighashType(sigWithType[len(sigWithType)-1]),
	}, nil
}

// Finish returns the finalized Draft.
func (sf *SpendFinalizer) Finish() *Draft {
	return sf.draft
}
