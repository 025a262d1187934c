package roles

import (
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// TxExtractor produces the network serialization of a finalized Draft.
type TxExtractor struct {
	draft *Draft
}

// NewTxExtractor creates a new TxExtractor.
func NewTxExtractor(d *Draft) *TxExtractor {
	return &TxExtractor{draft: d}
}

// Extract validates the Draft is finalized and returns the raw transaction.
func (te *TxExtractor) Extract() ([]byte, error) {
	if err := te.validate(); err != nil {
		return nil, err
	}
	return te.draft.Tx.Serialize(), nil
}

// Transaction returns the finalized transaction itself.
func (te *TxExtractor) Transaction() (*transaction.Transaction, error) {
	if err := te.validate(); err != nil {
		return nil, err
	}
	return te.draft.Tx, nil
}

func (te *TxExtractor) validate() error {
	if te.draft.Modifiable&(FlagInputsModifiable|FlagOutputsModifiable) != 0 {
		return fmt.Errorf("draft is not finalized (modifiable flags 0x%02x)", te.draft.Modifiable)
	}
	for i, in := range te.draft.Tx.Inputs {
		if len(in.Script) == 0 {
			return &transaction.FinalizationError{
				Code:    transaction.ErrIncomplete,
				Message: fmt.Sprintf("input %d has no unlocking script", i),
			}
		}
	}
	return nil
}
