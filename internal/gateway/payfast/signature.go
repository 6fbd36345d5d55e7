// internal/gateway/payfast/signature.go
package payfast

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Param is one (key, value) pair of a signed request. Params are always
// carried as an ordered slice: the gateway mandates a fixed field order and
// rejects signatures computed over sorted fields.
type Param struct {
	Key   string
	Value string
}

// encode applies the gateway's form encoding to a value: trim surrounding
// whitespace, percent-encode, and render spaces as '+' rather than '%20'.
// The hash is computed over this exact representation.
func encode(v string) string {
	return url.QueryEscape(strings.TrimSpace(v))
}

// canonicalString builds the fixed-order key=value&... string that gets
// hashed. Pairs whose trimmed value is empty are dropped entirely; the
// passphrase, when configured, is appended last under the same encoding rule.
func canonicalString(params []Param, passphrase string) string {
	var b strings.Builder
	for _, p := range params {
		v := strings.TrimSpace(p.Value)
		if v == "" {
			continue
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(encode(v))
		b.WriteByte('&')
	}

	s := strings.TrimSuffix(b.String(), "&")

	if pp := strings.TrimSpace(passphrase); pp != "" {
		s += "&passphrase=" + encode(pp)
	}

	return s
}

// Sign computes the gateway content hash for an ordered parameter set:
// MD5 over the canonical string, rendered as lowercase hex. The caller's
// ordering is preserved verbatim.
func Sign(params []Param, passphrase string) string {
	sum := md5.Sum([]byte(canonicalString(params, passphrase)))
	return hex.EncodeToString(sum[:])
}

// FormatAmount renders a monetary value the way the gateway expects it
// inside signed strings: fixed-point with exactly two fraction digits.
// "3000" and "3000.00" hash differently, so every amount goes through here.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
