package transaction

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
)

// Sapling descriptor field sizes.
const (
	GrothProofSize    = 48 + 96 + 48 // Groth16 proof (A, B, C)
	SpendAuthSigSize  = 64
	EncCiphertextSize = 1 + 11 + 8 + 32 + 512 + 16 // leading byte, diversifier, value, rcm, memo, AEAD tag
	OutCiphertextSize = 32 + 32 + 16               // pk_d, esk, AEAD tag

	ShieldedSpendSize  = 4*32 + GrothProofSize + SpendAuthSigSize
	ShieldedOutputSize = 3*32 + EncCiphertextSize + OutCiphertextSize + GrothProofSize
)

// ShieldedSpendParams is the hex interchange form of a Sapling spend.
// Cv, Anchor, Nullifier and Rk are in display order (reverse of wire
// order); ZKProof and SpendAuthSig are wire bytes.
type ShieldedSpendParams struct {
	Cv           string `json:"cv"`
	Anchor       string `json:"anchor"`
	Nullifier    string `json:"nullifier"`
	Rk           string `json:"rk"`
	ZKProof      string `json:"zkproof"`
	SpendAuthSig string `json:"spendAuthSig"`
}

// ShieldedSpend is a Sapling spend description. All fields hold wire-order
// bytes. Values are immutable once built.
type ShieldedSpend struct {
	cv           [32]byte
	anchor       [32]byte
	nullifier    [32]byte
	rk           [32]byte
	zkproof      [GrothProofSize]byte
	spendAuthSig [SpendAuthSigSize]byte
}

// NewShieldedSpend validates every field of p and builds the spend.
func NewShieldedSpend(p ShieldedSpendParams) (*ShieldedSpend, error) {
	s := &ShieldedSpend{}
	fields := []hexField{
		{"cv", p.Cv, s.cv[:], true},
		{"anchor", p.Anchor, s.anchor[:], true},
		{"nullifier", p.Nullifier, s.nullifier[:], true},
		{"rk", p.Rk, s.rk[:], true},
		{"zkproof", p.ZKProof, s.zkproof[:], false},
		{"spendAuthSig", p.SpendAuthSig, s.spendAuthSig[:], false},
	}
	if err := decodeHexFields(fields); err != nil {
		return nil, err
	}
	return s, nil
}

// ShieldedSpendFromBufferReader reads exactly ShieldedSpendSize bytes.
func ShieldedSpendFromBufferReader(r *encoding.BufferReader) (*ShieldedSpend, error) {
	s := &ShieldedSpend{}
	fields := []wireField{
		{"cv", s.cv[:]},
		{"anchor", s.anchor[:]},
		{"nullifier", s.nullifier[:]},
		{"rk", s.rk[:]},
		{"zkproof", s.zkproof[:]},
		{"spendAuthSig", s.spendAuthSig[:]},
	}
	if err := readWireFields(r, "shielded spend", fields); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteTo emits the spend into w, or into a fresh writer when w is nil.
func (s *ShieldedSpend) WriteTo(w *encoding.BufferWriter) *encoding.BufferWriter {
	if w == nil {
		w = encoding.NewBufferWriter()
	}
	return w.WriteBytes(s.cv[:]).
		WriteBytes(s.anchor[:]).
		WriteBytes(s.nullifier[:]).
		WriteBytes(s.rk[:]).
		WriteBytes(s.zkproof[:]).
		WriteBytes(s.spendAuthSig[:])
}

// Bytes returns the wire encoding.
func (s *ShieldedSpend) Bytes() []byte {
	return s.WriteTo(nil).Bytes()
}

// Params converts back to the hex interchange form.
func (s *ShieldedSpend) Params() ShieldedSpendParams {
	return ShieldedSpendParams{
		Cv:           displayHex(s.cv[:]),
		Anchor:       displayHex(s.anchor[:]),
		Nullifier:    displayHex(s.nullifier[:]),
		Rk:           displayHex(s.rk[:]),
		ZKProof:      hex.EncodeToString(s.zkproof[:]),
		SpendAuthSig: hex.EncodeToString(s.spendAuthSig[:]),
	}
}

// Nullifier returns the nullifier in wire order.
func (s *ShieldedSpend) Nullifier() [32]byte { return s.nullifier }

// WriteSighashFields emits every field except spendAuthSig, which the
// Sapling digest leaves out of hashShieldedSpends.
func (s *ShieldedSpend) WriteSighashFields(w *encoding.BufferWriter) *encoding.BufferWriter {
	return w.WriteBytes(s.cv[:]).
		WriteBytes(s.anchor[:]).
		WriteBytes(s.nullifier[:]).
		WriteBytes(s.rk[:]).
		WriteBytes(s.zkproof[:])
}

func (s *ShieldedSpend) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Params())
}

func (s *ShieldedSpend) UnmarshalJSON(data []byte) error {
	var p ShieldedSpendParams
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	parsed, err := NewShieldedSpend(p)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// ShieldedOutputParams is the hex interchange form of a Sapling output.
// Cv, Cmu and EphemeralKey are in display order.
type ShieldedOutputParams struct {
	Cv            string `json:"cv"`
	Cmu           string `json:"cm"`
	EphemeralKey  string `json:"ephemeralKey"`
	EncCiphertext string `json:"encCiphertext"`
	OutCiphertext string `json:"outCiphertext"`
	ZKProof       string `json:"zkproof"`
}

// ShieldedOutput is a Sapling output description in wire order.
type ShieldedOutput struct {
	cv            [32]byte
	cmu           [32]byte
	ephemeralKey  [32]byte
	encCiphertext [EncCiphertextSize]byte
	outCiphertext [OutCiphertextSize]byte
	zkproof       [GrothProofSize]byte
}

// NewShieldedOutput validates every field of p and builds the output.
func NewShieldedOutput(p ShieldedOutputParams) (*ShieldedOutput, error) {
	o := &ShieldedOutput{}
	fields := []hexField{
		{"cv", p.Cv, o.cv[:], true},
		{"cm", p.Cmu, o.cmu[:], true},
		{"ephemeralKey", p.EphemeralKey, o.ephemeralKey[:], true},
		{"encCiphertext", p.EncCiphertext, o.encCiphertext[:], false},
		{"outCiphertext", p.OutCiphertext, o.outCiphertext[:], false},
		{"zkproof", p.ZKProof, o.zkproof[:], false},
	}
	if err := decodeHexFields(fields); err != nil {
		return nil, err
	}
	return o, nil
}

// ShieldedOutputFromBufferReader reads exactly ShieldedOutputSize bytes.
func ShieldedOutputFromBufferReader(r *encoding.BufferReader) (*ShieldedOutput, error) {
	o := &ShieldedOutput{}
	fields := []wireField{
		{"cv", o.cv[:]},
		{"cm", o.cmu[:]},
		{"ephemeralKey", o.ephemeralKey[:]},
		{"encCiphertext", o.encCiphertext[:]},
		{"outCiphertext", o.outCiphertext[:]},
		{"zkproof", o.zkproof[:]},
	}
	if err := readWireFields(r, "shielded output", fields); err != nil {
		return nil, err
	}
	return o, nil
}

// WriteTo emits the output into w, or into a fresh writer when w is nil.
func (o *ShieldedOutput) WriteTo(w *encoding.BufferWriter) *encoding.BufferWriter {
	if w == nil {
		w = encoding.NewBufferWriter()
	}
	return w.WriteBytes(o.cv[:]).
		WriteBytes(o.cmu[:]).
		WriteBytes(o.ephemeralKey[:]).
		WriteBytes(o.encCiphertext[:]).
		WriteBytes(o.outCiphertext[:]).
		WriteBytes(o.zkproof[:])
}

// Bytes returns the wire encoding.
func (o *ShieldedOutput) Bytes() []byte {
	return o.WriteTo(nil).Bytes()
}

// Params converts back to the hex interchange form.
func (o *ShieldedOutput) Params() ShieldedOutputParams {
	return ShieldedOutputParams{
		Cv:            displayHex(o.cv[:]),
		Cmu:           displayHex(o.cmu[:]),
		EphemeralKey:  displayHex(o.ephemeralKey[:]),
		EncCiphertext: hex.EncodeToString(o.encCiphertext[:]),
		OutCiphertext: hex.EncodeToString(o.outCiphertext[:]),
		ZKProof:       hex.EncodeToString(o.zkproof[:]),
	}
}

func (o *ShieldedOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Params())
}

func (o *ShieldedOutput) UnmarshalJSON(data []byte) error {
	var p ShieldedOutputParams
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	parsed, err := NewShieldedOutput(p)
	if err != nil {
		return err
	}
	*o = *parsed
	return nil
}

type hexField struct {
	name    string
	value   string
	dst     []byte
	reverse bool
}

func decodeHexFields(fields []hexField) error {
	for _, f := range fields {
		if len(f.value) != 2*len(f.dst) {
			return &ParseError{Message: fmt.Sprintf("%s must be %d hex characters, got %d",
				f.name, 2*len(f.dst), len(f.value))}
		}
		b, err := hex.DecodeString(f.value)
		if err != nil {
			return &ParseError{Message: fmt.Sprintf("%s is not valid hex", f.name), Cause: err}
		}
		if f.reverse {
			b = encoding.Reverse(b)
		}
		copy(f.dst, b)
	}
	return nil
}

type wireField struct {
	name string
	dst  []byte
}

// readWireFields consumes all fields or none.
func readWireFields(r *encoding.BufferReader, what string, fields []wireField) error {
	total := 0
	for _, f := range fields {
		total += len(f.dst)
	}
	if r.Remaining() < total {
		return &ParseError{
			Message: fmt.Sprintf("%s needs %d bytes, have %d", what, total, r.Remaining()),
			Cause:   io.ErrUnexpectedEOF,
		}
	}
	for _, f := range fields {
		b, err := r.Read(len(f.dst))
		if err != nil {
			return &ParseError{Message: fmt.Sprintf("reading %s %s", what, f.name), Cause: err}
		}
		copy(f.dst, b)
	}
	return nil
}

func displayHex(wire []byte) string {
	return hex.EncodeToString(encoding.Reverse(wire))
}
