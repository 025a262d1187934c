// Package api is the high-level entry point for building and signing
// Sapling-era transparent transactions.
//
//  1. ProposeTransaction - Creates a Draft with inputs and outputs
//  2. GetSighash - Computes the signature hash for an input
//  3. AppendSignature - Signs an input on a copy of the Draft
//  4. Combine - Merges Drafts signed in parallel
//  5. FinalizeAndExtract - Verifies every input and returns the raw tx
//  6. ParseTransaction / SerializeTransaction - Wire encoding/decoding
package api

import (
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/roles"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/signing"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/zip321"
)

// TransparentInput is a transparent UTXO to spend.
type TransparentInput struct {
	TxID         [32]byte      // Transaction ID, display order
	OutputIndex  uint32        // Output index
	Value        int64         // Value in zatoshis
	ScriptPubKey script.Script // Locking script
	Sequence     *uint32       // Sequence number (nil = 0xFFFFFFFF)
}

// TransparentOutput is a transparent output (e.g., change).
type TransparentOutput struct {
	Value        int64         // Value in zatoshis
	ScriptPubKey script.Script // Locking script
}

// TransactionProposal contains all inputs and outputs for a transaction.
type TransactionProposal struct {
	TransparentInputs  []TransparentInput
	TransparentOutputs []TransparentOutput

	// PaymentURI, when set, adds one output per payment in the request.
	PaymentURI string
	Network    *script.Network // Resolves PaymentURI addresses; defaults to MainNet

	// Sapling descriptions prepared elsewhere.
	ShieldedSpends  []*transaction.ShieldedSpend
	ShieldedOutputs []*transaction.ShieldedOutput
	ValueBalance    int64
	BindingSig      [64]byte

	ExpiryHeight uint32
	LockTime     uint32
}

// ProposeTransaction builds a Draft from a proposal using the Creator and
// Constructor roles.
func ProposeTransaction(proposal *TransactionProposal) (*roles.Draft, error) {
	cfg := roles.DefaultCreatorConfig()
	cfg.ExpiryHeight = proposal.ExpiryHeight
	cfg.LockTime = proposal.LockTime

	creator, err := roles.NewCreator(cfg)
	if err != nil {
		return nil, err
	}
	constructor := roles.NewConstructor(creator.Create())

	for _, input := range proposal.TransparentInputs {
		err := constructor.AddInput(
			input.TxID,
			input.OutputIndex,
			input.Value,
			input.ScriptPubKey,
			input.Sequence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add transparent input: %w", err)
		}
	}

	for _, output := range proposal.TransparentOutputs {
		if err := constructor.AddOutput(output.Value, output.ScriptPubKey); err != nil {
			return nil, fmt.Errorf("failed to add transparent output: %w", err)
		}
	}

	if proposal.PaymentURI != "" {
		req, err := zip321.Parse(proposal.PaymentURI)
		if err != nil {
			return nil, fmt.Errorf("invalid payment request: %w", err)
		}
		net := proposal.Network
		if net == nil {
			net = script.MainNet
		}
		for i, p := range req.Payments {
			if err := constructor.AddPayment(p, net); err != nil {
				return nil, fmt.Errorf("payment %d: %w", i, err)
			}
		}
	}

	for _, s := range proposal.ShieldedSpends {
		if err := constructor.AddShieldedSpend(s); err != nil {
			return nil, err
		}
	}
	for _, o := range proposal.ShieldedOutputs {
		if err := constructor.AddShieldedOutput(o); err != nil {
			return nil, err
		}
	}
	if len(proposal.ShieldedSpends) > 0 || len(proposal.ShieldedOutputs) > 0 {
		if err := constructor.SetShieldedBalance(proposal.ValueBalance, proposal.BindingSig); err != nil {
			return nil, err
		}
	}

	return constructor.Finish()
}

// GetSighash computes the signature hash for an input.
func GetSighash(d *roles.Draft, inputIndex int, hashType transaction.SighashType) ([32]byte, error) {
	in, err := signing.ForInput(d.Tx, inputIndex)
	if err != nil {
		return [32]byte{}, err
	}
	return in.Sighash(hashType)
}

// AppendSignature signs inputIndex on a copy of d and returns the copy.
// d itself is left unchanged so several parties can sign in parallel.
func AppendSignature(
	d *roles.Draft,
	inputIndex int,
	key *crypto.PrivateKey,
	hashType transaction.SighashType,
) (*roles.Draft, error) {
	signer := roles.NewSigner(d.Clone())
	if err := signer.SignInput(inputIndex, key, hashType); err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	return signer.Finish(), nil
}

// Combine merges Drafts with partial signatures.
func Combine(drafts []*roles.Draft) (*roles.Draft, error) {
	return roles.NewCombiner(drafts).Combine()
}

// FinalizeAndExtract verifies every input's signature and returns the
// network serialization.
func FinalizeAndExtract(d *roles.Draft) ([]byte, error) {
	finalizer := roles.NewSpendFinalizer(d)
	if err := finalizer.Finalize(); err != nil {
		return nil, err
	}
	return roles.NewTxExtractor(finalizer.Finish()).Extract()
}

// ParseTransaction decodes raw and attaches the outputs each input spends,
// in input order. spent may be nil when only inspection is needed.
func ParseTransaction(raw []byte, spent []*transaction.Output) (*roles.Draft, error) {
	tx, err := transaction.Parse(raw)
	if err != nil {
		return nil, err
	}
	if spent != nil {
		if len(spent) != len(tx.Inputs) {
			return nil, &transaction.PreconditionError{
				Code:    transaction.ErrMissingOutput,
				Message: fmt.Sprintf("got %d spent outputs for %d inputs", len(spent), len(tx.Inputs)),
			}
		}
		for i, o := range spent {
			tx.Inputs[i].Output = o
		}
	}
	return &roles.Draft{Tx: tx}, nil
}

// SerializeTransaction returns the wire encoding of d's transaction as it
// stands, signed or not.
func SerializeTransaction(d *roles.Draft) []byte {
	return d.Tx.Serialize()
}
