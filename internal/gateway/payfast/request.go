// internal/gateway/payfast/request.go
package payfast

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Subscription billing constants per the gateway's documentation.
const (
	SubscriptionTypeRecurring = 1
	FrequencyMonthly          = 3
	CyclesIndefinite          = 0
)

// Config carries the merchant credentials and endpoint URLs for one
// gateway account. Injected explicitly; there is no package-level state.
type Config struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	ProcessURL  string
	APIBaseURL  string
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
}

// PaymentRequest describes one outbound payment initiation for the hosted
// payment page.
type PaymentRequest struct {
	NameFirst         string
	NameLast          string
	EmailAddress      string
	PaymentID         string
	Amount            decimal.Decimal
	ItemName          string
	CustomStr1        string
	EmailConfirmation bool
	SubscriptionType  int
	RecurringAmount   decimal.Decimal
	Frequency         int
	Cycles            int
}

// paymentParams lays out the request fields in the gateway-mandated order.
// This order is part of the wire protocol: reordering (or alphabetising)
// produces a signature the gateway rejects.
func (c Config) paymentParams(req PaymentRequest) []Param {
	confirm := "0"
	if req.EmailConfirmation {
		confirm = "1"
	}

	return []Param{
		{"merchant_id", c.MerchantID},
		{"merchant_key", c.MerchantKey},
		{"return_url", c.ReturnURL},
		{"cancel_url", c.CancelURL},
		{"notify_url", c.NotifyURL},
		{"name_first", req.NameFirst},
		{"name_last", req.NameLast},
		{"email_address", req.EmailAddress},
		{"m_payment_id", req.PaymentID},
		{"amount", FormatAmount(req.Amount)},
		{"item_name", req.ItemName},
		{"custom_str1", req.CustomStr1},
		{"email_confirmation", confirm},
		{"subscription_type", strconv.Itoa(req.SubscriptionType)},
		{"recurring_amount", FormatAmount(req.RecurringAmount)},
		{"frequency", strconv.Itoa(req.Frequency)},
		{"cycles", strconv.Itoa(req.Cycles)},
	}
}

// RedirectURL builds the hosted-payment-page URL for a payment request,
// with the computed signature appended as the final parameter. The query
// string uses the same encoding and empty-value rules as the signature, so
// what the gateway receives is exactly what was signed.
func (c Config) RedirectURL(req PaymentRequest) string {
	params := c.paymentParams(req)
	sig := Sign(params, c.Passphrase)
	params = append(params, Param{"signature", sig})

	var b strings.Builder
	b.WriteString(c.ProcessURL)
	b.WriteByte('?')
	first := true
	for _, p := range params {
		v := strings.TrimSpace(p.Value)
		if v == "" {
			continue
		}
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(encode(v))
	}
	return b.String()
}
