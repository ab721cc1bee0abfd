// Package receiptsink forwards payout receipts to the pay.party receipt API.
package receiptsink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"payparty/contexts/party/payout-service/domain/entities"
	"payparty/contexts/party/payout-service/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"
)

// receiptBody is the wire shape the receipt API stores. Amount is a 0x hex
// quantity and token is omitted for native payouts.
type receiptBody struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Token   string `json:"token,omitempty"`
	Txn     string `json:"txn"`
}

type Client struct {
	baseURL        string
	client         *http.Client
	maxElapsedTime time.Duration
	initialBackoff time.Duration
	logger         *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:         httpClient,
		maxElapsedTime: 10 * time.Second,
		initialBackoff: time.Second,
		logger:         logger.With("module", "party/payout-service", "layer", "adapter"),
	}
}

func (c *Client) PutReceipt(ctx context.Context, electionID string, receipt entities.Receipt) error {
	body := receiptBody{
		Account: receipt.Account,
		Amount:  hexutil.EncodeBig(receipt.Amount),
		Token:   receipt.Token,
		Txn:     receipt.Txn,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}
	endpoint := fmt.Sprintf("%s/party/%s/distribute", c.baseURL, url.PathEscape(strings.TrimSpace(electionID)))

	attempts := 0
	operation := func() error {
		attempts++
		return c.put(ctx, endpoint, payload)
	}

	backoffConfig := backoff.NewExponentialBackOff()
	backoffConfig.InitialInterval = c.initialBackoff
	backoffConfig.Multiplier = 1.5
	backoffConfig.MaxInterval = 4 * time.Second
	backoffConfig.MaxElapsedTime = c.maxElapsedTime

	if err := backoff.Retry(operation, backoff.WithContext(backoffConfig, ctx)); err != nil {
		c.logger.Warn("receipt delivery failed",
			"event", "party_receipt_put_failed",
			"election_id", electionID,
			"attempts", attempts,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to put receipt after %d attempts: %w", attempts, err)
	}
	c.logger.Info("receipt delivered",
		"event", "party_receipt_put",
		"election_id", electionID,
		"tx_hash", receipt.Txn,
	)
	return nil
}

// put classifies failures for the retry loop: a 4xx is permanent, a 5xx or
// transport error is retried.
func (c *Client) put(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send receipt: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return backoff.Permanent(fmt.Errorf("receipt rejected, status code: %d", resp.StatusCode))
	default:
		return fmt.Errorf("receipt api unavailable, status code: %d", resp.StatusCode)
	}
}

var _ ports.ReceiptSink = (*Client)(nil)
