package signing

import (
	"bytes"
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/sighash"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// PublicKeyHashScriptMaxSize bounds a P2PKH unlocking script:
// push(72-byte signature + hash type) + push(33-byte compressed key).
const PublicKeyHashScriptMaxSize = 73 + 34

// PublicKeyHashInput signs an input that spends a P2PKH output.
type PublicKeyHashInput struct {
	tx    *transaction.Transaction
	index int
}

func (p *PublicKeyHashInput) sealed() {}

func (p *PublicKeyHashInput) input() (*transaction.Input, error) {
	in, err := p.tx.Input(p.index)
	if err != nil {
		return nil, err
	}
	if in.Output == nil {
		return nil, missingOutput(p.index)
	}
	return in, nil
}

// ScriptCode returns varint(len(lockingScript)) || lockingScript, the
// script committed to by the Sapling digest.
func (p *PublicKeyHashInput) ScriptCode() ([]byte, error) {
	in, err := p.input()
	if err != nil {
		return nil, err
	}
	return encoding.NewBufferWriter().WriteVarLengthBytes(in.Output.Script).Bytes(), nil
}

// Sighash uses ZIP 243 for version 4 and later, committing to the spent
// amount, and the legacy digest over the locking script otherwise.
func (p *PublicKeyHashInput) Sighash(hashType transaction.SighashType) ([32]byte, error) {
	in, err := p.input()
	if err != nil {
		return [32]byte{}, err
	}
	if p.tx.Version >= transaction.SaplingVersion {
		code, _ := p.ScriptCode()
		return sighash.ZIP243(p.tx, hashType, p.index, code, in.Output.ValueBuffer())
	}
	return sighash.Legacy(p.tx, hashType, p.index, in.Output.Script)
}

// Signatures returns one signature when hash160 of key's public key (or the
// supplied keyHash) equals the hash in the locking script, and none
// otherwise. A zero hashType means SIGHASH_ALL.
func (p *PublicKeyHashInput) Signatures(
	key *crypto.PrivateKey,
	hashType transaction.SighashType,
	keyHash []byte,
) ([]*TransactionSignature, error) {
	in, err := p.input()
	if err != nil {
		return nil, err
	}
	if hashType == 0 {
		hashType = transaction.SighashAll
	}

	pub := key.PublicKey()
	if keyHash == nil {
		keyHash = pub.Hash160()
	}
	want, err := in.Output.Script.PublicKeyHash()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(keyHash, want) {
		return []*TransactionSignature{}, nil
	}

	digest, err := p.Sighash(hashType)
	if err != nil {
		return nil, err
	}
	der, err := key.Sign(digest)
	if err != nil {
		return nil, &transaction.SignatureError{
			InputIndex: p.index,
			Code:       transaction.ErrInvalidSignature,
			Message:    "signing failed",
			Cause:      err,
		}
	}

	return []*TransactionSignature{{
		PublicKey:   pub,
		PrevTxID:    in.PrevTxID,
		OutputIndex: in.OutputIndex,
		InputIndex:  p.index,
		Signature:   der,
		SigType:     hashType,
	}}, nil
}

// AddSignature installs <signature||sigtype> <pubkey> after checking the
// signature verifies under its own SigType.
func (p *PublicKeyHashInput) AddSignature(sig *TransactionSignature) error {
	in, err := p.input()
	if err != nil {
		return err
	}
	valid, err := p.IsValidSignature(sig, sig.SigType)
	if err != nil {
		return err
	}
	if !valid {
		return &transaction.SignatureError{
			InputIndex: p.index,
			Code:       transaction.ErrInvalidSignature,
			Message:    "signature is invalid",
		}
	}
	in.Script = script.NewPublicKeyHashIn(sig.PublicKey.Bytes(), sig.Signature, byte(sig.SigType))
	return nil
}

// ClearSignatures empties the unlocking script.
func (p *PublicKeyHashInput) ClearSignatures() {
	if in, err := p.tx.Input(p.index); err == nil {
		in.Script = script.Script{}
	}
}

// IsFullySigned reports whether the unlocking script has the P2PKH shape.
func (p *PublicKeyHashInput) IsFullySigned() bool {
	in, err := p.tx.Input(p.index)
	return err == nil && in.Script.IsPublicKeyHashIn()
}

// IsValidSignature recomputes the digest under hashType and verifies sig.
// sig is not modified. A signature made for another input is invalid here.
func (p *PublicKeyHashInput) IsValidSignature(
	sig *TransactionSignature,
	hashType transaction.SighashType,
) (bool, error) {
	in, err := p.input()
	if err != nil {
		return false, err
	}
	if sig == nil || sig.PublicKey == nil {
		return false, &transaction.PreconditionError{
			Code:    transaction.ErrInvalidSignature,
			Message: fmt.Sprintf("input %d: signature has no public key", p.index),
		}
	}
	if sig.InputIndex != p.index {
		return false, nil
	}

	if p.tx.Version >= transaction.SaplingVersion {
		code, _ := p.ScriptCode()
		return sighash.Verify(p.tx, sig.Signature, hashType, sig.PublicKey, p.index, code, in.Output.ValueBuffer())
	}

	if hashType == 0 {
		return false, &transaction.PreconditionError{
			Code:    transaction.ErrMissingHashType,
			Message: "signature hash type is not set",
		}
	}
	digest, err := sighash.Legacy(p.tx, hashType, p.index, in.Output.Script)
	if err != nil {
		return false, err
	}
	return crypto.VerifySignature(sig.PublicKey, digest, sig.Signature), nil
}

// EstimateSize assumes a compressed key and a maximal DER signature.
func (p *PublicKeyHashInput) EstimateSize() int {
	return estimateInputSize(PublicKeyHashScriptMaxSize)
}
