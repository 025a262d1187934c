// Package roles splits transaction construction into roles that can run in
// different places or at different times:
//   - Creator: initializes an empty Draft with the header fields
//   - Constructor: adds transparent inputs/outputs and Sapling descriptors
//   - Signer: signs the inputs a set of keys controls
//   - Combiner: merges drafts signed in parallel
//   - SpendFinalizer: checks every input carries a valid unlocking script
//   - TxExtractor: produces the final transaction bytes
package roles

import (
	"fmt"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

// Draft is a transaction under construction together with the flags that
// say which parts may still change. Inputs keep their spent-output
// references so they can be signed.
type Draft struct {
	Tx         *transaction.Transaction
	Modifiable uint8
}

// Clone returns an independent copy, for handing to a parallel signer.
func (d *Draft) Clone() *Draft {
	return &Draft{Tx: d.Tx.Clone(), Modifiable: d.Modifiable}
}

// Modification flags for Draft.Modifiable.
const (
	FlagInputsModifiable  uint8 = 1 << 0 // Inputs may be added
	FlagOutputsModifiable uint8 = 1 << 1 // Outputs may be added
	FlagHasSighashSingle  uint8 = 1 << 2 // At least one input is signed with SIGHASH_SINGLE
)

// CreatorConfig holds the header fields every party agrees on.
type CreatorConfig struct {
	Version        uint32 // Transaction version; only 4 (Sapling) is built
	VersionGroupID uint32 // Must match the version
	LockTime       uint32 // nLockTime
	ExpiryHeight   uint32 // Block height after which the tx is invalid, 0 for none
}

// DefaultCreatorConfig returns a Sapling v4 configuration.
func DefaultCreatorConfig() CreatorConfig {
	return CreatorConfig{
		Version:        transaction.SaplingVersion,
		VersionGroupID: transaction.SaplingVersionGroupID,
	}
}

// Validate checks the configuration is a buildable v4 header.
func (c CreatorConfig) Validate() error {
	if c.Version != transaction.SaplingVersion {
		return fmt.Errorf("unsupported transaction version %d", c.Version)
	}
	if c.VersionGroupID != transaction.SaplingVersionGroupID {
		return fmt.Errorf("version group ID 0x%08x does not match version %d", c.VersionGroupID, c.Version)
	}
	if c.ExpiryHeight >= 500000000 {
		return fmt.Errorf("expiry height %d out of range", c.ExpiryHeight)
	}
	return nil
}

// Creator initializes a Draft with no inputs or outputs.
type Creator struct {
	cfg CreatorConfig
}

// NewCreator validates cfg.
func NewCreator(cfg CreatorConfig) (*Creator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &transaction.PreconditionError{Code: transaction.ErrInvalidInput, Message: err.Error()}
	}
	return &Creator{cfg: cfg}, nil
}

// Create returns an empty Draft that accepts inputs and outputs.
func (c *Creator) Create() *Draft {
	tx := transaction.New()
	tx.Version = c.cfg.Version
	tx.VersionGroupID = c.cfg.VersionGroupID
	tx.LockTime = c.cfg.LockTime
	tx.ExpiryHeight = c.cfg.ExpiryHeight
	tx.Inputs = []*transaction.Input{}
	tx.Outputs = []*transaction.Output{}

	return &Draft{
		Tx:         tx,
		Modifiable: FlagInputsModifiable | FlagOutputsModifiable,
	}
}
