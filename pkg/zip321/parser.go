// Package zip321 parses and encodes ZIP 321 payment request URIs for
// transparent recipients.
//
//	zcash:<address>?amount=<amount>&label=<label>&message=<message>
//	zcash:?address=<a0>&amount=<v0>&address.1=<a1>&amount.1=<v1>
//
// Amounts are decimal ZEC with at most eight fractional digits and are
// held as zatoshis.
package zip321

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/suffix-labs/zcash-sapling-sign/pkg/script"
)

const (
	scheme = "zcash:"

	// ZatoshisPerZEC is the number of zatoshis in one ZEC.
	ZatoshisPerZEC int64 = 100000000

	maxIndex = 9999
)

// PaymentRequest is a parsed payment request. Payments are ordered by
// their parameter index.
type PaymentRequest struct {
	Payments []Payment
}

// Payment is one recipient of a payment request.
type Payment struct {
	Address string  // Recipient address
	Amount  *int64  // Zatoshis; nil when the payer chooses
	Memo    *string // base64url memo, only valid for shielded recipients
	Label   *string
	Message *string
}

// Script decodes the payment address for net and returns its locking script.
func (p Payment) Script(net *script.Network) (script.Script, error) {
	addr, err := script.DecodeAddress(p.Address, net)
	if err != nil {
		return nil, fmt.Errorf("payment address %q: %w", p.Address, err)
	}
	return addr.Script(), nil
}

// Parse parses a payment request URI.
func Parse(uri string) (*PaymentRequest, error) {
	if !strings.HasPrefix(strings.ToLower(uri), scheme) {
		return nil, fmt.Errorf("missing %q scheme", scheme)
	}
	rest := uri[len(scheme):]

	baseAddress, query, _ := strings.Cut(rest, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	byIndex := make(map[int]*Payment)
	get := func(idx int) *Payment {
		if p, ok := byIndex[idx]; ok {
			return p
		}
		p := &Payment{}
		byIndex[idx] = p
		return p
	}
	if baseAddress != "" {
		get(0).Address = baseAddress
	}

	for key, values := range params {
		if len(values) != 1 {
			return nil, fmt.Errorf("parameter %q appears %d times", key, len(values))
		}
		name, idx, err := splitParamName(key)
		if err != nil {
			return nil, err
		}
		value := values[0]
		p := get(idx)

		switch name {
		case "address":
			if idx == 0 && baseAddress != "" {
				return nil, fmt.Errorf("address given both in path and as a parameter")
			}
			p.Address = value
		case "amount":
			amount, err := ParseAmount(value)
			if err != nil {
				return nil, fmt.Errorf("payment %d invalid amount: %w", idx, err)
			}
			p.Amount = &amount
		case "memo":
			p.Memo = &value
		case "label":
			p.Label = &value
		case "message":
			p.Message = &value
		default:
			if strings.HasPrefix(name, "req-") {
				return nil, fmt.Errorf("unsupported required parameter %q", name)
			}
		}
	}

	if len(byIndex) == 0 {
		return nil, fmt.Errorf("no payments found in URI")
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	req := &PaymentRequest{Payments: make([]Payment, 0, len(indices))}
	for _, idx := range indices {
		p := byIndex[idx]
		if p.Address == "" {
			return nil, fmt.Errorf("payment %d missing address", idx)
		}
		req.Payments = append(req.Payments, *p)
	}
	return req, nil
}

// splitParamName splits "amount.3" into ("amount", 3). A name without a
// suffix has index 0. Leading zeros in the index are rejected.
func splitParamName(key string) (string, int, error) {
	name, suffix, ok := strings.Cut(key, ".")
	if !ok {
		return name, 0, nil
	}
	if suffix == "" || (len(suffix) > 1 && suffix[0] == '0') {
		return "", 0, fmt.Errorf("invalid parameter index in %q", key)
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 1 || idx > maxIndex {
		return "", 0, fmt.Errorf("invalid parameter index in %q", key)
	}
	return name, idx, nil
}

// ParseAmount converts a decimal ZEC string to zatoshis without going
// through floating point.
func ParseAmount(s string) (int64, error) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || !isDigits(whole) || (hasFrac && (frac == "" || !isDigits(frac))) {
		return 0, fmt.Errorf("not a valid amount: %q", s)
	}
	if len(frac) > 8 {
		return 0, fmt.Errorf("amount %q has more than 8 decimal places", s)
	}

	zec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || zec > 21000000 {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	var zat int64
	if frac != "" {
		frac += strings.Repeat("0", 8-len(frac))
		zat, _ = strconv.ParseInt(frac, 10, 64)
	}

	total := zec*ZatoshisPerZEC + zat
	if total > 21000000*ZatoshisPerZEC {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return total, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders zatoshis as decimal ZEC with trailing zeros removed.
func FormatAmount(zatoshis int64) string {
	str := fmt.Sprintf("%d.%08d", zatoshis/ZatoshisPerZEC, zatoshis%ZatoshisPerZEC)
	str = strings.TrimRight(str, "0")
	return strings.TrimRight(str, ".")
}

// Encode renders the request as a URI. A single payment uses the address
// path form; several payments use indexed parameters.
func (req *PaymentRequest) Encode() string {
	if len(req.Payments) == 1 {
		p := req.Payments[0]
		params := encodeParams(p, "")
		uri := scheme + p.Address
		if len(params) > 0 {
			uri += "?" + params.Encode()
		}
		return uri
	}

	params := url.Values{}
	for i, p := range req.Payments {
		suffix := ""
		if i > 0 {
			suffix = "." + strconv.Itoa(i)
		}
		params.Set("address"+suffix, p.Address)
		for k, v := range encodeParams(p, suffix) {
			params[k] = v
		}
	}
	return scheme + "?" + params.Encode()
}

func encodeParams(p Payment, suffix string) url.Values {
	params := url.Values{}
	if p.Amount != nil {
		params.Set("amount"+suffix, FormatAmount(*p.Amount))
	}
	if p.Memo != nil {
		params.Set("memo"+suffix, *p.Memo)
	}
	if p.Label != nil {
		params.Set("label"+suffix, *p.Label)
	}
	if p.Message != nil {
		params.Set("message"+suffix, *p.Message)
	}
	return params
}
