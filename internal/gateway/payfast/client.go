// internal/gateway/payfast/client.go
package payfast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const apiVersion = "v1"

// Client talks to the gateway's subscription management API (cancel,
// recurring-amount update, ad hoc tokenised charge). Separate from the
// hosted payment page flow, which is redirect-only.
type Client struct {
	cfg    Config
	http   *retryablehttp.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &Client{
		cfg:    cfg,
		http:   rc,
		logger: logger,
	}
}

// apiSignature signs a management API call. Unlike the payment form, the
// management API hashes its parameters in alphabetical key order with the
// passphrase included as an ordinary parameter.
func (c *Client) apiSignature(timestamp string, body []Param) string {
	params := []Param{
		{"merchant-id", c.cfg.MerchantID},
		{"passphrase", c.cfg.Passphrase},
		{"timestamp", timestamp},
		{"version", apiVersion},
	}
	params = append(params, body...)
	return Sign(params, "")
}

// CancelSubscription cancels a tokenised subscription on the gateway side.
// Callers must not flip any local state unless this returns nil.
func (c *Client) CancelSubscription(ctx context.Context, token string) error {
	endpoint := fmt.Sprintf("%s/subscriptions/%s/cancel", c.cfg.APIBaseURL, url.PathEscape(token))
	return c.do(ctx, http.MethodPut, endpoint, nil)
}

// UpdateRecurringAmount changes the recurring charge on a tokenised
// subscription. The gateway expresses amounts in cents.
func (c *Client) UpdateRecurringAmount(ctx context.Context, token string, amount decimal.Decimal) error {
	endpoint := fmt.Sprintf("%s/subscriptions/%s/update", c.cfg.APIBaseURL, url.PathEscape(token))
	body := []Param{
		{"amount", strconv.FormatInt(toCents(amount), 10)},
	}
	return c.do(ctx, http.MethodPatch, endpoint, body)
}

// ChargeAdhoc bills a once-off amount against a tokenised subscription,
// used for prorated upgrade charges.
func (c *Client) ChargeAdhoc(ctx context.Context, token string, amount decimal.Decimal, itemName string) error {
	endpoint := fmt.Sprintf("%s/subscriptions/%s/adhoc", c.cfg.APIBaseURL, url.PathEscape(token))
	body := []Param{
		{"amount", strconv.FormatInt(toCents(amount), 10)},
		{"item_name", itemName},
	}
	return c.do(ctx, http.MethodPost, endpoint, body)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []Param) error {
	timestamp := time.Now().Format(time.RFC3339)

	var reqBody io.Reader
	if len(body) > 0 {
		form := url.Values{}
		for _, p := range body {
			form.Set(p.Key, p.Value)
		}
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}

	req.Header.Set("merchant-id", c.cfg.MerchantID)
	req.Header.Set("version", apiVersion)
	req.Header.Set("timestamp", timestamp)
	req.Header.Set("signature", c.apiSignature(timestamp, body))
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return xerrors.Wrap(xerrors.ErrGateway, err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("gateway returned non-success status",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response_body", respBody),
		)
		return fmt.Errorf("%w: status %d", xerrors.ErrGateway, resp.StatusCode)
	}

	return nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
