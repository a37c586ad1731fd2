// Package client provides access to the node's public API over HTTP with
// retry support.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrNodeReturnedError indicates the node rejected the request.
var ErrNodeReturnedError = errors.New("node error")

// Tx is the transaction form returned by the node.
type Tx struct {
	Sender        database.Address `json:"sender"`
	SenderName    string           `json:"sender_name"`
	Recipient     database.Address `json:"recipient"`
	RecipientName string           `json:"recipient_name"`
	Amount        int64            `json:"amount"`
	Signature     string           `json:"signature,omitempty"`
	Reward        bool             `json:"reward"`
}

// Block is the block form returned by the node.
type Block struct {
	Number       int    `json:"number"`
	TimeStamp    int64  `json:"timestamp"`
	PrevHash     string `json:"previousHash"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
	Transactions []Tx   `json:"transactions"`
}

// Balance is the balance information for an address.
type Balance struct {
	Address     database.Address `json:"address"`
	Name        string           `json:"name"`
	Balance     int64            `json:"balance"`
	LatestBlock string           `json:"latest_block"`
	PendingTxs  int              `json:"pending"`
	ChainLength int              `json:"chain_length"`
}

// Validity is the result of validating the chain held by the node.
type Validity struct {
	Valid  bool `json:"valid"`
	Blocks int  `json:"blocks"`
}

// errorResponse matches the body the node sends for failed requests.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// =============================================================================

// config holds optional configuration parameters for the client.
type config struct {
	timeout      time.Duration // Maximum time to wait for a HTTP request
	retryWaitMin time.Duration // Minimum delay between retries
	retryWaitMax time.Duration // Maximum delay between retries
	retryMax     int           // Maximum number of retry attempts
}

// Option defines a functional option type used to customize the client.
type Option func(*config)

// WithTimeout configures the maximum duration for a single HTTP request.
// Mining requests can take a while, the default is 60 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithRetry configures the retry attempts and the wait range between them.
// Only GET and HEAD requests are retried.
func WithRetry(retryMax int, waitMin time.Duration, waitMax time.Duration) Option {
	return func(c *config) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// =============================================================================

// Client talks to a single node. Reads are retried, submissions and mining
// requests are sent once since the node does not detect duplicates.
type Client struct {
	url        string
	httpClient *retryablehttp.Client
	onceClient *retryablehttp.Client
}

// New constructs a client for the node at the specified url.
func New(url string, opts ...Option) *Client {
	cfg := config{
		timeout:      60 * time.Second,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 5 * time.Second,
		retryMax:     2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		url:        url,
		httpClient: newHTTPClient(cfg, cfg.retryMax),
		onceClient: newHTTPClient(cfg, 0),
	}
}

func newHTTPClient(cfg config, retryMax int) *retryablehttp.Client {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.HTTPClient.Timeout = cfg.timeout
	httpClient.RetryWaitMin = cfg.retryWaitMin
	httpClient.RetryWaitMax = cfg.retryWaitMax
	httpClient.RetryMax = retryMax
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return httpClient
}

// SubmitTransaction sends a signed transaction to the node's pending pool.
func (c *Client) SubmitTransaction(ctx context.Context, tx database.Tx) error {
	return c.do(ctx, http.MethodPost, "/v1/tx/submit", tx, nil)
}

// Mine asks the node to mine its pending pool. An empty reward address
// credits the node's own miner account.
func (c *Client) Mine(ctx context.Context, rewardAddress string) (Block, error) {
	req := struct {
		RewardAddress string `json:"reward_address"`
	}{
		RewardAddress: rewardAddress,
	}

	var block Block
	if err := c.do(ctx, http.MethodPost, "/v1/mining/mine", req, &block); err != nil {
		return Block{}, err
	}

	return block, nil
}

// Balance returns the balance for an address or a known account name.
func (c *Client) Balance(ctx context.Context, address string) (Balance, error) {
	var balance Balance
	if err := c.do(ctx, http.MethodGet, "/v1/balances/"+address, nil, &balance); err != nil {
		return Balance{}, err
	}

	return balance, nil
}

// Validate asks the node to check the integrity of its chain.
func (c *Client) Validate(ctx context.Context) (Validity, error) {
	var validity Validity
	if err := c.do(ctx, http.MethodGet, "/v1/chain/validate", nil, &validity); err != nil {
		return Validity{}, err
	}

	return validity, nil
}

// Chain returns every block held by the node.
func (c *Client) Chain(ctx context.Context) ([]Block, error) {
	var blocks []Block
	if err := c.do(ctx, http.MethodGet, "/v1/chain", nil, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// =============================================================================

func (c *Client) do(ctx context.Context, method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return err
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.httpClient
	if !idempotent(method) {
		httpClient = c.onceClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("%w: [%d]", ErrNodeReturnedError, resp.StatusCode)
		}
		return fmt.Errorf("%w: [%d] - %s", ErrNodeReturnedError, resp.StatusCode, er.Error)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// idempotent reports whether a request with the method can be sent again
// without changing the outcome on the node.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return false
}
