package sighash

import (
	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// Sign computes the ZIP 243 digest for the input and signs it, returning
// the DER-encoded signature. The caller appends the hash type byte when
// building the unlocking script.
func Sign(
	tx *transaction.Transaction,
	key *crypto.PrivateKey,
	hashType transaction.SighashType,
	inputIndex int,
	scriptCode []byte,
	value []byte,
) ([]byte, error) {
	if err := requireHashType(hashType); err != nil {
		return nil, err
	}

	digest, err := ZIP243(tx, hashType, inputIndex, scriptCode, value)
	if err != nil {
		return nil, err
	}

	sig, err := key.Sign(digest)
	if err != nil {
		return nil, &transaction.SignatureError{
			InputIndex: inputIndex,
			Code:       transaction.ErrInvalidSignature,
			Message:    "signing failed",
			Cause:      err,
		}
	}
	return sig, nil
}

// Verify recomputes the ZIP 243 digest under hashType and checks the
// DER-encoded signature against it. A zero hashType is a precondition error;
// a signature that does not verify is (false, nil).
func Verify(
	tx *transaction.Transaction,
	sig []byte,
	hashType transaction.SighashType,
	pub *crypto.PublicKey,
	inputIndex int,
	scriptCode []byte,
	value []byte,
) (bool, error) {
	if err := requireHashType(hashType); err != nil {
		return false, err
	}

	digest, err := ZIP243(tx, hashType, inputIndex, scriptCode, value)
	if err != nil {
		return false, err
	}

	return crypto.VerifySignature(pub, digest, sig), nil
}

func requireHashType(hashType transaction.SighashType) error {
	if hashType == 0 {
		return &transaction.PreconditionError{
			Code:    transaction.ErrMissingHashType,
			Message: "signature hash type is not set",
		}
	}
	return nil
}
