package roles

import (
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/zip321"
)

// MaxMoney is the total ZEC supply in zatoshis.
const MaxMoney int64 = 21000000 * 100000000

// Constructor adds inputs and outputs to a Draft.
type Constructor struct {
	draft *Draft
}

// NewConstructor wraps a Draft produced by the Creator.
func NewConstructor(d *Draft) *Constructor {
	return &Constructor{draft: d}
}

// AddInput adds a transparent input spending prevTxID:outputIndex, which
// holds value zatoshis locked by lockingScript. A nil sequence means final.
func (c *Constructor) AddInput(
	prevTxID [32]byte,
	outputIndex uint32,
	value int64,
	lockingScript script.Script,
	sequence *uint32,
) error {
	if c.draft.Modifiable&FlagInputsModifiable == 0 {
		return fmt.Errorf("inputs are not modifiable")
	}
	if err := checkValue(value); err != nil {
		return err
	}
	if len(lockingScript) == 0 {
		return fmt.Errorf("input %x:%d has an empty locking script", prevTxID, outputIndex)
	}
	for _, in := range c.draft.Tx.Inputs {
		if in.PrevTxID == prevTxID && in.OutputIndex == outputIndex {
			return fmt.Errorf("duplicate input %x:%d", prevTxID, outputIndex)
		}
	}

	seq := transaction.DefaultSequence
	if sequence != nil {
		seq = *sequence
	}

	c.draft.Tx.Inputs = append(c.draft.Tx.Inputs, &transaction.Input{
		PrevTxID:       prevTxID,
		OutputIndex:    outputIndex,
		SequenceNumber: seq,
		Script:         script.Script{},
		Output:         &transaction.Output{Value: value, Script: lockingScript},
	})
	return nil
}

// AddOutput adds a transparent output.
func (c *Constructor) AddOutput(value int64, lockingScript script.Script) error {
	if c.draft.Modifiable&FlagOutputsModifiable == 0 {
		return fmt.Errorf("outputs are not modifiable")
	}
	if err := checkValue(value); err != nil {
		return err
	}
	c.draft.Tx.Outputs = append(c.draft.Tx.Outputs, &transaction.Output{Value: value, Script: lockingScript})
	return nil
}

// AddPayment adds a transparent output for a payment request entry.
// Payments to shielded addresses or without an amount are rejected.
func (c *Constructor) AddPayment(p zip321.Payment, net *script.Network) error {
	if p.Amount == nil {
		return fmt.Errorf("payment to %s has no amount", p.Address)
	}
	if p.Memo != nil {
		return fmt.Errorf("payment to %s carries a memo, which transparent outputs cannot hold", p.Address)
	}
	lock, err := p.Script(net)
	if err != nil {
		return err
	}
	return c.AddOutput(*p.Amount, lock)
}

// AddShieldedSpend appends a prepared Sapling spend description.
func (c *Constructor) AddShieldedSpend(s *transaction.ShieldedSpend) error {
	if c.draft.Modifiable&FlagInputsModifiable == 0 {
		return fmt.Errorf("inputs are not modifiable")
	}
	c.draft.Tx.ShieldedSpends = append(c.draft.Tx.ShieldedSpends, s)
	return nil
}

// AddShieldedOutput appends a prepared Sapling output description.
func (c *Constructor) AddShieldedOutput(o *transaction.ShieldedOutput) error {
	if c.draft.Modifiable&FlagOutputsModifiable == 0 {
		return fmt.Errorf("outputs are not modifiable")
	}
	c.draft.Tx.ShieldedOutputs = append(c.draft.Tx.ShieldedOutputs, o)
	return nil
}

// SetShieldedBalance records the Sapling value balance and binding
// signature computed by the shielded prover.
func (c *Constructor) SetShieldedBalance(valueBalance int64, bindingSig [64]byte) error {
	if valueBalance > MaxMoney || valueBalance < -MaxMoney {
		return fmt.Errorf("value balance %d out of range", valueBalance)
	}
	c.draft.Tx.ValueBalance = valueBalance
	c.draft.Tx.BindingSig = bindingSig
	return nil
}

// Fee returns inputs minus outputs plus the value balance.
func (c *Constructor) Fee() int64 {
	var fee int64
	for _, in := range c.draft.Tx.Inputs {
		fee += in.Output.Value
	}
	for _, o := range c.draft.Tx.Outputs {
		fee -= o.Value
	}
	return fee + c.draft.Tx.ValueBalance
}

// Finish checks the transaction balances and returns the Draft.
func (c *Constructor) Finish() (*Draft, error) {
	if len(c.draft.Tx.Inputs) == 0 && len(c.draft.Tx.ShieldedSpends) == 0 {
		return nil, fmt.Errorf("transaction has no inputs")
	}
	if fee := c.Fee(); fee < 0 {
		return nil, fmt.Errorf("outputs exceed inputs by %d zatoshis", -fee)
	}
	return c.draft, nil
}

func checkValue(value int64) error {
	if value < 0 || value > MaxMoney {
		return fmt.Errorf("value %d out of range", value)
	}
	return nil
}
