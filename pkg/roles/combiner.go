package roles

import (
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// Combiner merges Drafts signed in parallel into a single Draft.
//
// Each party signs its own copy of the same unsigned transaction. The
// Combiner checks the copies describe the same transaction and collects
// the unlocking scripts from each of them.
type Combiner struct {
	drafts []*Draft
}

// NewCombiner creates a new Combiner over drafts of the same transaction.
func NewCombiner(drafts []*Draft) *Combiner {
	return &Combiner{drafts: drafts}
}

// Combine merges all drafts into a clone of the first one.
//
// Returns an error if:
//   - No drafts were given
//   - The drafts describe different transactions
//   - Two drafts carry different unlocking scripts for the same input
func (c *Combiner) Combine() (*Draft, error) {
	if len(c.drafts) == 0 {
		return nil, &transaction.CombineError{Message: "no drafts to combine"}
	}

	result := c.drafts[0].Clone()
	for i := 1; i < len(c.drafts); i++ {
		if err := c.mergeInto(result, c.drafts[i]); err != nil {
			return nil, &transaction.CombineError{
				Message: fmt.Sprintf("failed to merge draft %d", i),
				Cause:   err,
			}
		}
	}

	return result, nil
}

func (c *Combiner) mergeInto(dst, src *Draft) error {
	if err := c.validateCompatible(dst.Tx, src.Tx); err != nil {
		return err
	}

	for i, srcIn := range src.Tx.Inputs {
		if len(srcIn.Script) == 0 {
			continue
		}
		dstIn := dst.Tx.Inputs[i]
		switch {
		case len(dstIn.Script) == 0:
			dstIn.Script = append(dstIn.Script[:0:0], srcIn.Script...)
		case !dstIn.Script.Equal(srcIn.Script):
			return fmt.Errorf("input %d: %s: different unlocking scripts", i, transaction.ErrConflictingData)
		}
	}

	// A flag survives only if every signer left it set; FlagHasSighashSingle
	// is sticky.
	single := (dst.Modifiable | src.Modifiable) & FlagHasSighashSingle
	dst.Modifiable = (dst.Modifiable & src.Modifiable) | single
	return nil
}

// validateCompatible checks that a and b are the same unsigned transaction.
func (c *Combiner) validateCompatible(a, b *transaction.Transaction) error {
	if a.Version != b.Version {
		return fmt.Errorf("incompatible tx versions: %d != %d", a.Version, b.Version)
	}
	if a.VersionGroupID != b.VersionGroupID {
		return fmt.Errorf("incompatible version group IDs: 0x%08x != 0x%08x",
			a.VersionGroupID, b.VersionGroupID)
	}
	if a.LockTime != b.LockTime {
		return fmt.Errorf("incompatible lock times: %d != %d", a.LockTime, b.LockTime)
	}
	if a.ExpiryHeight != b.ExpiryHeight {
		return fmt.Errorf("incompatible expiry heights: %d != %d", a.ExpiryHeight, b.ExpiryHeight)
	}
	if a.ValueBalance != b.ValueBalance {
		return fmt.Errorf("incompatible value balances: %d != %d", a.ValueBalance, b.ValueBalance)
	}

	if len(a.Inputs) != len(b.Inputs) {
		return fmt.Errorf("incompatible input counts: %d != %d", len(a.Inputs), len(b.Inputs))
	}
	if len(a.Outputs) != len(b.Outputs) {
		return fmt.Errorf("incompatible output counts: %d != %d", len(a.Outputs), len(b.Outputs))
	}
	if len(a.ShieldedSpends) != len(b.ShieldedSpends) || len(a.ShieldedOutputs) != len(b.ShieldedOutputs) {
		return fmt.Errorf("incompatible shielded descriptions")
	}

	for i := range a.Inputs {
		ai, bi := a.Inputs[i], b.Inputs[i]
		if ai.PrevTxID != bi.PrevTxID {
			return fmt.Errorf("input %d has different prevout txid", i)
		}
		if ai.OutputIndex != bi.OutputIndex {
			return fmt.Errorf("input %d has different prevout index: %d != %d",
				i, ai.OutputIndex, bi.OutputIndex)
		}
		if ai.SequenceNumber != bi.SequenceNumber {
			return fmt.Errorf("input %d has different sequence numbers", i)
		}
	}

	for i := range a.Outputs {
		ao, bo := a.Outputs[i], b.Outputs[i]
		if ao.Value != bo.Value || !ao.Script.Equal(bo.Script) {
			return fmt.Errorf("output %d differs", i)
		}
	}

	return nil
}
