package payfast

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseParams() []Param {
	return []Param{
		{"merchant_id", "10000100"},
		{"merchant_key", "46f0cd694581a"},
		{"amount", "3000.00"},
		{"item_name", "Pocket Agency basic plan"},
	}
}

func TestSign_KnownVectors(t *testing.T) {
	tests := []struct {
		name       string
		params     []Param
		passphrase string
		expected   string
	}{
		{
			name:       "no passphrase",
			params:     baseParams(),
			passphrase: "",
			expected:   "490028f95ec7fc6afc89bf96376a664f",
		},
		{
			name:       "with passphrase",
			params:     baseParams(),
			passphrase: "jt7NOE43FZPn",
			expected:   "04b9d8f81e9b9bb8f8aa92fb9edddce3",
		},
		{
			name: "reversed order produces a different digest",
			params: []Param{
				{"item_name", "Pocket Agency basic plan"},
				{"amount", "3000.00"},
				{"merchant_key", "46f0cd694581a"},
				{"merchant_id", "10000100"},
			},
			passphrase: "",
			expected:   "b2cfd6a030e6064d95c496356748cbbf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sign(tt.params, tt.passphrase))
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	first := Sign(baseParams(), "jt7NOE43FZPn")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Sign(baseParams(), "jt7NOE43FZPn"))
	}
}

func TestSign_OrderIsSignificant(t *testing.T) {
	params := baseParams()

	reversed := make([]Param, len(params))
	for i, p := range params {
		reversed[len(params)-1-i] = p
	}

	assert.NotEqual(t, Sign(params, ""), Sign(reversed, ""),
		"reordering the input sequence must change the digest")
}

func TestCanonicalString_SpacesEncodeAsPlus(t *testing.T) {
	s := canonicalString([]Param{{"item_name", "Pocket Agency basic plan"}}, "")

	assert.Equal(t, "item_name=Pocket+Agency+basic+plan", s)
	assert.NotContains(t, s, "%20")
}

func TestCanonicalString_EmptyValuesSkipped(t *testing.T) {
	params := []Param{
		{"merchant_id", "10000100"},
		{"name_first", ""},
		{"name_last", "   "},
		{"amount", "3000.00"},
	}

	s := canonicalString(params, "")
	assert.Equal(t, "merchant_id=10000100&amount=3000.00", s)
}

func TestCanonicalString_ValuesTrimmed(t *testing.T) {
	s := canonicalString([]Param{{"email_address", "  jane@example.com  "}}, "")
	assert.Equal(t, "email_address=jane%40example.com", s)
}

func TestCanonicalString_PassphraseAppendedLast(t *testing.T) {
	s := canonicalString(baseParams(), "pass phrase")
	assert.True(t, strings.HasSuffix(s, "&passphrase=pass+phrase"))
}

func TestCanonicalString_WhitespacePassphraseIgnored(t *testing.T) {
	assert.Equal(t,
		canonicalString(baseParams(), ""),
		canonicalString(baseParams(), "   "),
	)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected string
	}{
		{"whole number gains two fraction digits", decimal.NewFromInt(3000), "3000.00"},
		{"already two digits", decimal.RequireFromString("2666.67"), "2666.67"},
		{"long fraction rounds half up", decimal.RequireFromString("2666.666666"), "2666.67"},
		{"zero", decimal.Zero, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatAmount(tt.amount))
		})
	}
}

func TestRedirectURL_SignatureAppendedLast(t *testing.T) {
	cfg := Config{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "jt7NOE43FZPn",
		ProcessURL:  "https://sandbox.payfast.co.za/eng/process",
		ReturnURL:   "https://app.example.com/payment/success",
		CancelURL:   "https://app.example.com/payment/cancelled",
		NotifyURL:   "https://api.example.com/api/v1/payfast/notify",
	}

	req := PaymentRequest{
		NameFirst:        "Jane",
		EmailAddress:     "jane@example.com",
		PaymentID:        "01J8ZC2V7NXAMPLE",
		Amount:           decimal.NewFromInt(3000),
		ItemName:         "Pocket Agency basic plan",
		SubscriptionType: SubscriptionTypeRecurring,
		RecurringAmount:  decimal.NewFromInt(3000),
		Frequency:        FrequencyMonthly,
		Cycles:           CyclesIndefinite,
	}

	u := cfg.RedirectURL(req)

	require.True(t, strings.HasPrefix(u, cfg.ProcessURL+"?"))
	assert.Contains(t, u, "amount=3000.00")
	assert.Contains(t, u, "item_name=Pocket+Agency+basic+plan")
	assert.NotContains(t, u, "%20")

	// signature is the final query parameter
	idx := strings.LastIndex(u, "&signature=")
	require.Greater(t, idx, 0)
	sig := u[idx+len("&signature="):]
	assert.Len(t, sig, 32)

	// the signature covers exactly the params that precede it
	params := cfg.paymentParams(req)
	assert.Equal(t, Sign(params, cfg.Passphrase), sig)

	// name_last is empty and must appear in neither the hash nor the URL
	assert.NotContains(t, u, "name_last")
}
