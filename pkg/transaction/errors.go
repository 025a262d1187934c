// Error types shared by the transaction, sighash and signing packages.
//
// Each type carries a machine-readable Code alongside a human-readable
// message. Types that wrap a lower-level failure expose it via Unwrap so
// callers can use errors.Is / errors.As.
package transaction

import "fmt"

// PreconditionError is returned when an operation is missing state it
// requires: a spent-output reference, a hash type, or a valid signature
// before installing it.
type PreconditionError struct {
	Code    string // Error code (e.g., ErrMissingOutput)
	Message string // Human-readable error message
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed [%s]: %s", e.Code, e.Message)
}

// SighashError is returned when a signature digest cannot be computed.
type SighashError struct {
	InputIndex int    // Index of the input that caused the error
	Message    string // Human-readable error message
	Cause      error  // Underlying error (if any)
}

func (e *SighashError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sighash error at input %d: %s: %v", e.InputIndex, e.Message, e.Cause)
	}
	return fmt.Sprintf("sighash error at input %d: %s", e.InputIndex, e.Message)
}

func (e *SighashError) Unwrap() error { return e.Cause }

// SignatureError is returned when a signature cannot be produced or does
// not verify for the input it is being attached to.
type SignatureError struct {
	InputIndex int    // Index of the input that caused the error
	Code       string // Error code (e.g., ErrInvalidSignature)
	Message    string // Human-readable error message
	Cause      error  // Underlying error (if any)
}

func (e *SignatureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("signature error [%s] at input %d: %s: %v", e.Code, e.InputIndex, e.Message, e.Cause)
	}
	return fmt.Sprintf("signature error [%s] at input %d: %s", e.Code, e.InputIndex, e.Message)
}

func (e *SignatureError) Unwrap() error { return e.Cause }

// ParseError is returned when wire bytes or hex parameters do not decode.
type ParseError struct {
	Message string // Human-readable error message
	Cause   error  // Underlying decode error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// CombineError is returned when parallel-signed copies of a transaction
// cannot be merged.
type CombineError struct {
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *CombineError) Error() string {
	return fmt.Sprintf("combine error: %s", e.Message)
}

func (e *CombineError) Unwrap() error { return e.Cause }

// FinalizationError is returned when a transaction cannot be extracted,
// typically because an input is not fully signed.
type FinalizationError struct {
	Code    string // Error code (e.g., ErrIncomplete)
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("finalization error [%s]: %s", e.Code, e.Message)
}

func (e *FinalizationError) Unwrap() error { return e.Cause }

// Error codes.
const (
	ErrMissingOutput     = "MISSING_OUTPUT"     // Input has no spent-output reference
	ErrMissingHashType   = "MISSING_HASH_TYPE"  // No sighash type supplied
	ErrInvalidSignature  = "INVALID_SIGNATURE"  // Signature does not verify
	ErrInputOutOfRange   = "INPUT_OUT_OF_RANGE" // Input index past the input list
	ErrUnsupportedScript = "UNSUPPORTED_SCRIPT" // Locking script has no signing template
	ErrInvalidInput      = "INVALID_INPUT"      // Proposal data is malformed
	ErrIncomplete        = "INCOMPLETE"         // Transaction is missing signatures
	ErrConflictingData   = "CONFLICTING_DATA"   // Conflicting data when combining
)
