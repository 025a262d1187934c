package zip321

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
)

const (
	testAddr    = "tmLPctKo9j49rtCSKpwEBpLBeykiTGomGQs"
	mainnetAddr = "t1UYsZVJkLPeMjxEtACvSxfWuNmddpWfxzs"
	testLockHex = "76a914751e76e8199196d454941c45d1b3a323f1433bd688ac"
)

func TestParseSinglePayment(t *testing.T) {
	req, err := Parse("zcash:" + testAddr + "?amount=1.5&label=coffee&message=thanks")
	require.NoError(t, err)
	require.Len(t, req.Payments, 1)

	p := req.Payments[0]
	assert.Equal(t, testAddr, p.Address)
	require.NotNil(t, p.Amount)
	assert.Equal(t, int64(150000000), *p.Amount)
	require.NotNil(t, p.Label)
	assert.Equal(t, "coffee", *p.Label)
	require.NotNil(t, p.Message)
	assert.Equal(t, "thanks", *p.Message)
	assert.Nil(t, p.Memo)
}

func TestParseMultiplePayments(t *testing.T) {
	uri := "zcash:?address=" + testAddr + "&amount=0.0001" +
		"&address.2=" + mainnetAddr + "&amount.2=3" +
		"&address.1=" + testAddr + "&message.1=second"
	req, err := Parse(uri)
	require.NoError(t, err)
	require.Len(t, req.Payments, 3)

	assert.Equal(t, int64(10000), *req.Payments[0].Amount)
	assert.Nil(t, req.Payments[1].Amount)
	assert.Equal(t, "second", *req.Payments[1].Message)
	assert.Equal(t, mainnetAddr, req.Payments[2].Address)
	assert.Equal(t, int64(300000000), *req.Payments[2].Amount)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"no scheme", testAddr + "?amount=1"},
		{"empty", "zcash:"},
		{"missing address", "zcash:?amount=1"},
		{"indexed missing address", "zcash:" + testAddr + "?amount.1=1"},
		{"negative amount", "zcash:" + testAddr + "?amount=-1"},
		{"too many decimals", "zcash:" + testAddr + "?amount=0.000000001"},
		{"over supply", "zcash:" + testAddr + "?amount=21000001"},
		{"leading zero index", "zcash:?address.01=" + testAddr},
		{"index zero suffix", "zcash:?address.0=" + testAddr},
		{"duplicate parameter", "zcash:" + testAddr + "?amount=1&amount=2"},
		{"address twice", "zcash:" + testAddr + "?address=" + testAddr},
		{"required parameter", "zcash:" + testAddr + "?req-future=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.uri)
			assert.Error(t, err)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 100000000},
		{"0.00000001", 1},
		{"12.3456789", 1234567890},
		{"21000000", 2100000000000000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", ".5", "1.", "1e3", "0x10", "1.2.3"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.5", FormatAmount(150000000))
	assert.Equal(t, "0.00000001", FormatAmount(1))
	assert.Equal(t, "2", FormatAmount(200000000))
	assert.Equal(t, "0", FormatAmount(0))
}

func TestEncodeRoundTrip(t *testing.T) {
	amount := int64(123450000)
	label := "rent"
	single := &PaymentRequest{Payments: []Payment{{Address: testAddr, Amount: &amount, Label: &label}}}

	uri := single.Encode()
	assert.Equal(t, "zcash:"+testAddr+"?amount=1.2345&label=rent", uri)

	back, err := Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, single, back)

	multi := &PaymentRequest{Payments: []Payment{
		{Address: testAddr, Amount: &amount},
		{Address: mainnetAddr},
	}}
	back, err = Parse(multi.Encode())
	require.NoError(t, err)
	assert.Equal(t, multi, back)
}

func TestPaymentScript(t *testing.T) {
	p := Payment{Address: testAddr}

	lock, err := p.Script(script.TestNet)
	require.NoError(t, err)
	assert.Equal(t, testLockHex, hex.EncodeToString(lock))

	_, err = p.Script(script.MainNet)
	assert.Error(t, err)
}
