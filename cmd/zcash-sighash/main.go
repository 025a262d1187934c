// zcash-sighash CLI - Sapling signature hashes and P2PKH signing
//
// Example usage:
//
//	# Digest for input 0 of a v4 transaction
//	zcash-sighash sighash -tx <hex> -input 0 -script <hex> -value 5000000000
//
//	# Sign input 0 with a WIF key (P2PKH script derived from the key)
//	zcash-sighash sign -tx <hex> -input 0 -value 5000000000 -key <wif>
//
//	# Decode a transaction or a single shielded description
//	zcash-sighash parse-tx -tx <hex>
//	zcash-sighash decode-shielded -kind output -hex <hex>
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/api"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/crypto"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/encoding"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/roles"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/sighash"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/signing"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
	"github.com/suffix-labs/zcash-sapling-sign/pkg/zip321"
)

const version = "v0.2.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command func(args []string, stdout io.Writer, logger *slog.Logger) error

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	commands := map[string]command{
		"sighash":         cmdSighash,
		"sign":            cmdSign,
		"verify":          cmdVerify,
		"parse-tx":        cmdParseTx,
		"decode-shielded": cmdDecodeShielded,
		"parse-uri":       cmdParseURI,
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "zcash-sighash %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel()}))
	if err := cmd(args[1:], stdout, logger); err != nil {
		logger.Error("command failed", slog.String("command", args[0]), slog.Any("error", err))
		return 1
	}
	return 0
}

func logLevel() slog.Level {
	if os.Getenv("ZCASH_SIGHASH_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `zcash-sighash - Sapling (v4) signature hashes and transparent signing

Usage:
  zcash-sighash <command> [options]

Commands:
  sighash          Compute the signature hash for one input
  sign             Sign a P2PKH input and print the updated transaction
  verify           Check a DER signature against an input's digest
  parse-tx         Decode a raw transaction to JSON
  decode-shielded  Decode a shielded spend or output description to JSON
  parse-uri        Parse a ZIP 321 payment request URI
  version          Show version information
  help             Show this help message

Run "zcash-sighash <command> -h" for the options of a command.
Set ZCASH_SIGHASH_DEBUG=1 for debug logging.`)
}

// inputFlags are shared by the commands that work on one input.
type inputFlags struct {
	txHex     string
	index     int
	scriptHex string
	value     int64
	hashType  string
}

func (f *inputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.txHex, "tx", "", "raw transaction hex")
	fs.IntVar(&f.index, "input", 0, "input index")
	fs.StringVar(&f.scriptHex, "script", "", "locking script of the spent output (hex)")
	fs.Int64Var(&f.value, "value", 0, "value of the spent output in zatoshis")
	fs.StringVar(&f.hashType, "type", "ALL", "sighash type, e.g. ALL or SINGLE|ANYONECANPAY")
}

// load parses the transaction and attaches the spent output to the input.
func (f *inputFlags) load() (*roles.Draft, transaction.SighashType, error) {
	hashType, err := transaction.ParseSighashType(f.hashType)
	if err != nil {
		return nil, 0, err
	}
	raw, err := hex.DecodeString(f.txHex)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding -tx: %w", err)
	}
	d, err := api.ParseTransaction(raw, nil)
	if err != nil {
		return nil, 0, err
	}
	in, err := d.Tx.Input(f.index)
	if err != nil {
		return nil, 0, err
	}
	lock, err := hex.DecodeString(f.scriptHex)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding -script: %w", err)
	}
	in.Output = &transaction.Output{Value: f.value, Script: script.Script(lock)}
	return d, hashType, nil
}

func cmdSighash(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("sighash", flag.ContinueOnError)
	var f inputFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, hashType, err := f.load()
	if err != nil {
		return err
	}
	in, err := d.Tx.Input(f.index)
	if err != nil {
		return err
	}

	var digest [32]byte
	if d.Tx.Version >= transaction.SaplingVersion {
		code := encoding.NewBufferWriter().WriteVarLengthBytes(in.Output.Script).Bytes()
		digest, err = sighash.ZIP243(d.Tx, hashType, f.index, code, in.Output.ValueBuffer())
	} else {
		digest, err = sighash.Legacy(d.Tx, hashType, f.index, in.Output.Script)
	}
	if err != nil {
		return err
	}

	logger.Debug("computed sighash",
		slog.Int("input", f.index),
		slog.Uint64("version", uint64(d.Tx.Version)),
		slog.String("type", hashType.String()),
	)
	fmt.Fprintln(stdout, hex.EncodeToString(digest[:]))
	return nil
}

func cmdSign(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	var f inputFlags
	f.register(fs)
	wif := fs.String("key", "", "private key (WIF)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := crypto.ParsePrivateKeyWIF(*wif)
	if err != nil {
		return err
	}
	if f.scriptHex == "" {
		lock, err := script.NewPublicKeyHashOut(key.PublicKey().Hash160())
		if err != nil {
			return err
		}
		f.scriptHex = hex.EncodeToString(lock)
	}

	d, hashType, err := f.load()
	if err != nil {
		return err
	}
	signer := roles.NewSigner(d).WithLogger(logger)
	if err := signer.SignInput(f.index, key, hashType); err != nil {
		return err
	}

	fmt.Fprintln(stdout, hex.EncodeToString(api.SerializeTransaction(signer.Finish())))
	return nil
}

func cmdVerify(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	var f inputFlags
	f.register(fs)
	sigHex := fs.String("sig", "", "DER signature without the hash type byte (hex)")
	pubHex := fs.String("pubkey", "", "public key (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, hashType, err := f.load()
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(*sigHex)
	if err != nil {
		return fmt.Errorf("decoding -sig: %w", err)
	}
	pubBytes, err := hex.DecodeString(*pubHex)
	if err != nil {
		return fmt.Errorf("decoding -pubkey: %w", err)
	}
	pub, err := crypto.ParsePublicKey(pubBytes)
	if err != nil {
		return err
	}

	in, err := signing.ForInput(d.Tx, f.index)
	if err != nil {
		return err
	}
	valid, err := in.IsValidSignature(&signing.TransactionSignature{
		PublicKey:  pub,
		InputIndex: f.index,
		Signature:  sig,
		SigType:    hashType,
	}, hashType)
	if err != nil {
		return err
	}

	logger.Debug("verified signature", slog.Int("input", f.index), slog.Bool("valid", valid))
	if !valid {
		fmt.Fprintln(stdout, "invalid")
		return fmt.Errorf("signature does not verify")
	}
	fmt.Fprintln(stdout, "valid")
	return nil
}

type txInputJSON struct {
	PrevTxID    string `json:"prevTxId"`
	OutputIndex uint32 `json:"outputIndex"`
	Sequence    uint32 `json:"sequenceNumber"`
	Script      string `json:"script"`
}

type txOutputJSON struct {
	Value  int64  `json:"satoshis"`
	Script string `json:"script"`
}

type txJSON struct {
	TxID            string                        `json:"txid"`
	Version         uint32                        `json:"version"`
	Overwintered    bool                          `json:"fOverwintered"`
	VersionGroupID  uint32                        `json:"nVersionGroupId,omitempty"`
	LockTime        uint32                        `json:"nLockTime"`
	ExpiryHeight    uint32                        `json:"nExpiryHeight,omitempty"`
	ValueBalance    int64                         `json:"valueBalance"`
	Inputs          []txInputJSON                 `json:"inputs"`
	Outputs         []txOutputJSON                `json:"outputs"`
	ShieldedSpends  []*transaction.ShieldedSpend  `json:"spendDescs,omitempty"`
	ShieldedOutputs []*transaction.ShieldedOutput `json:"outputDescs,omitempty"`
}

func cmdParseTx(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("parse-tx", flag.ContinueOnError)
	txHex := fs.String("tx", "", "raw transaction hex")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tx, err := transaction.ParseHex(*txHex)
	if err != nil {
		return err
	}

	out := txJSON{
		TxID:            tx.TxID(),
		Version:         tx.Version,
		Overwintered:    tx.Overwintered,
		VersionGroupID:  tx.VersionGroupID,
		LockTime:        tx.LockTime,
		ExpiryHeight:    tx.ExpiryHeight,
		ValueBalance:    tx.ValueBalance,
		Inputs:          make([]txInputJSON, 0, len(tx.Inputs)),
		Outputs:         make([]txOutputJSON, 0, len(tx.Outputs)),
		ShieldedSpends:  tx.ShieldedSpends,
		ShieldedOutputs: tx.ShieldedOutputs,
	}
	for _, in := range tx.Inputs {
		out.Inputs = append(out.Inputs, txInputJSON{
			PrevTxID:    hex.EncodeToString(in.PrevTxID[:]),
			OutputIndex: in.OutputIndex,
			Sequence:    in.SequenceNumber,
			Script:      in.Script.String(),
		})
	}
	for _, o := range tx.Outputs {
		out.Outputs = append(out.Outputs, txOutputJSON{Value: o.Value, Script: o.Script.String()})
	}

	logger.Debug("parsed transaction", slog.String("txid", out.TxID), slog.Int("inputs", len(tx.Inputs)))
	return writeJSON(stdout, out)
}

func cmdDecodeShielded(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("decode-shielded", flag.ContinueOnError)
	kind := fs.String("kind", "output", "description kind: spend or output")
	descHex := fs.String("hex", "", "wire encoding of the description (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := hex.DecodeString(*descHex)
	if err != nil {
		return fmt.Errorf("decoding -hex: %w", err)
	}
	r := encoding.NewBufferReader(raw)

	var desc any
	switch *kind {
	case "spend":
		desc, err = transaction.ShieldedSpendFromBufferReader(r)
	case "output":
		desc, err = transaction.ShieldedOutputFromBufferReader(r)
	default:
		return fmt.Errorf("unknown description kind %q", *kind)
	}
	if err != nil {
		return err
	}
	if !r.Finished() {
		return fmt.Errorf("%d trailing bytes after %s description", r.Remaining(), *kind)
	}
	return writeJSON(stdout, desc)
}

func cmdParseURI(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("parse-uri", flag.ContinueOnError)
	network := fs.String("network", "", "resolve addresses on this network (main or test)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: zcash-sighash parse-uri [-network main|test] <uri>")
	}

	req, err := zip321.Parse(fs.Arg(0))
	if err != nil {
		return err
	}

	var net *script.Network
	if *network != "" {
		if net, err = script.NetworkByName(*network); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Payments: %d\n", len(req.Payments))
	for i, p := range req.Payments {
		fmt.Fprintf(stdout, "\nPayment %d:\n", i+1)
		fmt.Fprintf(stdout, "  Address: %s\n", p.Address)
		if p.Amount != nil {
			fmt.Fprintf(stdout, "  Amount:  %s ZEC\n", zip321.FormatAmount(*p.Amount))
		} else {
			fmt.Fprintln(stdout, "  Amount:  (user specified)")
		}
		if p.Memo != nil {
			fmt.Fprintf(stdout, "  Memo:    %s\n", *p.Memo)
		}
		if p.Label != nil {
			fmt.Fprintf(stdout, "  Label:   %s\n", *p.Label)
		}
		if p.Message != nil {
			fmt.Fprintf(stdout, "  Message: %s\n", *p.Message)
		}
		if net != nil {
			lock, err := p.Script(net)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "  Script:  %s\n", lock)
		}
	}

	logger.Debug("parsed payment request", slog.Int("payments", len(req.Payments)))
	fmt.Fprintf(stdout, "\nRe-encoded URI:\n%s\n", req.Encode())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
