package roles

import (
	"fmt"
	"log/slog"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/signing"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// Signer adds signatures to transparent inputs.
//
// The Signer role:
//   - Computes the signature hash for each input it holds a key for
//   - Signs the digest and installs the unlocking script
//   - Updates modification flags based on SIGHASH types
//
// Multiple signers can operate on copies of the same Draft. The Combiner
// then merges their unlocking scripts.
type Signer struct {
	draft  *Draft
	logger *slog.Logger
}

// NewSigner creates a new Signer that logs to slog.Default().
func NewSigner(d *Draft) *Signer {
	return &Signer{draft: d, logger: slog.Default()}
}

// WithLogger replaces the Signer's logger.
func (s *Signer) WithLogger(logger *slog.Logger) *Signer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SignInput signs input inputIndex with key.
//
// Returns an error if:
//   - Input index is out of bounds or the input has no spent output
//   - The input's locking script is not pay-to-public-key-hash
//   - key does not control the input
func (s *Signer) SignInput(
	inputIndex int,
	key *crypto.PrivateKey,
	hashType transaction.SighashType,
) error {
	in, err := signing.ForInput(s.draft.Tx, inputIndex)
	if err != nil {
		return err
	}
	if hashType == 0 {
		hashType = transaction.SighashAll
	}

	sigs, err := in.Signatures(key, hashType, nil)
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		return &transaction.SignatureError{
			InputIndex: inputIndex,
			Code:       transaction.ErrInvalidInput,
			Message:    "key does not control this input",
		}
	}
	for _, sig := range sigs {
		if err := in.AddSignature(sig); err != nil {
			return err
		}
	}

	s.updateModifiableFlags(hashType)
	s.logger.Debug("signed input",
		slog.Int("input", inputIndex),
		slog.String("sighash_type", hashType.String()),
	)
	return nil
}

// SignAll tries each key against every unsigned input and returns the
// number of inputs signed. Inputs no key controls are left untouched.
func (s *Signer) SignAll(keys []*crypto.PrivateKey, hashType transaction.SighashType) (int, error) {
	if hashType == 0 {
		hashType = transaction.SighashAll
	}

	signed := 0
	for i := range s.draft.Tx.Inputs {
		in, err := signing.ForInput(s.draft.Tx, i)
		if err != nil {
			return signed, err
		}
		if in.IsFullySigned() {
			continue
		}
		for _, key := range keys {
			sigs, err := in.Signatures(key, hashType, nil)
			if err != nil {
				return signed, fmt.Errorf("signing input %d: %w", i, err)
			}
			if len(sigs) == 0 {
				continue
			}
			for _, sig := range sigs {
				if err := in.AddSignature(sig); err != nil {
					return signed, err
				}
			}
			signed++
			s.updateModifiableFlags(hashType)
			break
		}
	}

	s.logger.Info("signing pass complete",
		slog.Int("signed", signed),
		slog.Int("inputs", len(s.draft.Tx.Inputs)),
		slog.Int("keys", len(keys)),
	)
	return signed, nil
}

// updateModifiableFlags clears the flags for whatever a signature of
// hashType commits to.
//   - Without ANYONECANPAY, the signature commits to all inputs
//   - SIGHASH_ALL commits to all outputs
//   - SIGHASH_SINGLE is recorded so later outputs are added with care
func (s *Signer) updateModifiableFlags(hashType transaction.SighashType) {
	if !hashType.AnyoneCanPay() {
		s.draft.Modifiable &^= FlagInputsModifiable
	}

	switch hashType.Base() {
	case transaction.SighashAll:
		s.draft.Modifiable &^= FlagOutputsModifiable
	case transaction.SighashSingle:
		s.draft.Modifiable |= FlagHasSighashSingle
	}
}

// Finish returns the signed Draft.
func (s *Signer) Finish() *Draft {
	return s.draft
}
