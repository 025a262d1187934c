package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/transaction"
)

const (
	// Two P2PKH inputs, one output, expiry 500000.
	testTxHex = "0400008085202f8902bfbebdbcbbbab9b8b7b6b5b4b3b2b1b0afaeadacabaaa9a8a7a6a5a4a3a2a1a0" +
		"0100000000ffffffffdfdedddcdbdad9d8d7d6d5d4d3d2d1d0cfcecdcccbcac9c8c7c6c5c4c3c2c1c0" +
		"0000000000feffffff01f0ca052a010000001976a914751e76e8199196d454941c45d1b3a323f1433bd6" +
		"88ac0000000020a107000000000000000000000000"
	testLock = "76a914751e76e8199196d454941c45d1b3a323f1433bd688ac"
	// Private key 1, compressed; its hash160 is in testLock.
	testWIF = "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSighashCommand(t *testing.T) {
	code, out, errOut := runCLI(t, "sighash", "-tx", testTxHex, "-input", "0",
		"-script", testLock, "-value", "5000000000")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "140429706906e5a93c4a0403308620af1edd81fb2cbb17636b30ad9f7d351b2a\n", out)

	code, out, _ = runCLI(t, "sighash", "-tx", testTxHex, "-input", "1",
		"-script", testLock, "-value", "100000", "-type", "ALL")
	require.Equal(t, 0, code)
	assert.Equal(t, "9842944c31c381875a47196d8e4ac0936d5dcfcfa37fca6cb6b0e21d569f9447\n", out)

	code, _, errOut = runCLI(t, "sighash", "-tx", testTxHex, "-input", "5", "-script", testLock)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "command failed")

	code, _, _ = runCLI(t, "sighash", "-tx", testTxHex, "-type", "EVERYTHING")
	assert.Equal(t, 1, code)
}

func TestSignAndVerifyCommands(t *testing.T) {
	code, out, errOut := runCLI(t, "sign", "-tx", testTxHex, "-input", "0",
		"-value", "5000000000", "-key", testWIF)
	require.Equal(t, 0, code, errOut)

	signed, err := transaction.ParseHex(strings.TrimSpace(out))
	require.NoError(t, err)
	require.True(t, signed.Inputs[0].Script.IsPublicKeyHashIn())
	assert.Empty(t, signed.Inputs[1].Script)

	chunks, err := signed.Inputs[0].Script.Chunks()
	require.NoError(t, err)
	sig := chunks[0].Data
	assert.Equal(t, byte(transaction.SighashAll), sig[len(sig)-1])

	code, out, errOut = runCLI(t, "verify", "-tx", testTxHex, "-input", "0",
		"-script", testLock, "-value", "5000000000",
		"-sig", hex.EncodeToString(sig[:len(sig)-1]),
		"-pubkey", hex.EncodeToString(chunks[1].Data))
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "valid\n", out)

	// The digest commits to the amount.
	code, out, _ = runCLI(t, "verify", "-tx", testTxHex, "-input", "0",
		"-script", testLock, "-value", "5000000001",
		"-sig", hex.EncodeToString(sig[:len(sig)-1]),
		"-pubkey", hex.EncodeToString(chunks[1].Data))
	assert.Equal(t, 1, code)
	assert.Equal(t, "invalid\n", out)

	code, _, _ = runCLI(t, "sign", "-tx", testTxHex, "-input", "0", "-value", "1", "-key", "not-a-key")
	assert.Equal(t, 1, code)
}

func TestParseTxCommand(t *testing.T) {
	code, out, errOut := runCLI(t, "parse-tx", "-tx", testTxHex)
	require.Equal(t, 0, code, errOut)

	var got struct {
		Version      uint32 `json:"version"`
		ExpiryHeight uint32 `json:"nExpiryHeight"`
		Inputs       []struct {
			PrevTxID string `json:"prevTxId"`
		} `json:"inputs"`
		Outputs []struct {
			Value int64 `json:"satoshis"`
		} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, uint32(4), got.Version)
	assert.Equal(t, uint32(500000), got.ExpiryHeight)
	require.Len(t, got.Inputs, 2)
	assert.True(t, strings.HasPrefix(got.Inputs[0].PrevTxID, "a0a1a2"))
	require.Len(t, got.Outputs, 1)
	assert.Equal(t, int64(4999990000), got.Outputs[0].Value)

	code, _, _ = runCLI(t, "parse-tx", "-tx", testTxHex+"00")
	assert.Equal(t, 1, code)
}

func TestDecodeShieldedCommand(t *testing.T) {
	wire := make([]byte, transaction.ShieldedOutputSize)
	code, out, errOut := runCLI(t, "decode-shielded", "-kind", "output", "-hex", hex.EncodeToString(wire))
	require.Equal(t, 0, code, errOut)

	var params transaction.ShieldedOutputParams
	require.NoError(t, json.Unmarshal([]byte(out), &params))
	assert.Len(t, params.OutCiphertext, 2*transaction.OutCiphertextSize)

	code, _, _ = runCLI(t, "decode-shielded", "-kind", "spend", "-hex", hex.EncodeToString(wire))
	assert.Equal(t, 1, code, "948 bytes is not a whole spend")

	code, _, _ = runCLI(t, "decode-shielded", "-kind", "joinsplit", "-hex", "")
	assert.Equal(t, 1, code)
}

func TestParseURICommand(t *testing.T) {
	code, out, errOut := runCLI(t, "parse-uri", "-network", "test",
		"zcash:tmLPctKo9j49rtCSKpwEBpLBeykiTGomGQs?amount=1.5&label=coffee")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Amount:  1.5 ZEC")
	assert.Contains(t, out, "Label:   coffee")
	assert.Contains(t, out, "OP_DUP OP_HASH160 751e76e8199196d454941c45d1b3a323f1433bd6")

	code, _, _ = runCLI(t, "parse-uri")
	assert.Equal(t, 1, code)
}

func TestMiscCommands(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, version)

	code, out, _ = runCLI(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "decode-shielded")

	code, _, errOut := runCLI(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Unknown command")

	code, _, _ = runCLI(t)
	assert.Equal(t, 1, code)
}
