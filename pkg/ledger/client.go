package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"marketd/internal/market"
)

// ErrUnavailable marks a transport-level failure reaching the ledger daemon,
// as opposed to an error the daemon itself returned.
var ErrUnavailable = errors.New("ledger daemon unavailable")

// Client is a JSON-RPC client for the ledger daemon.
type Client struct {
	url        string
	username   string
	password   string
	httpClient *http.Client
	nextID     atomic.Int64
}

func NewClient(url, username, password string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	// Construct the POST request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ledger daemon error: %s", respBody)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("ledger daemon %s: %w", method, envelope.Error)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// OpenOrders lists open orders matching the query, ordered by block index
// ascending. Orders with no remaining quantity and expired orders are
// excluded daemon-side.
func (c *Client) OpenOrders(ctx context.Context, q market.OrderQuery) ([]market.Order, error) {
	filters := []filter{
		{Field: "get_asset", Op: "==", Value: q.GetAsset},
		{Field: "give_asset", Op: "==", Value: q.GiveAsset},
		{Field: "give_remaining", Op: "!=", Value: 0},
	}
	if q.FeeRequiredGTE != nil {
		filters = append(filters, filter{Field: "fee_required", Op: ">=", Value: *q.FeeRequiredGTE})
	}
	if q.FeeRequiredLTE != nil {
		filters = append(filters, filter{Field: "fee_required", Op: "<=", Value: *q.FeeRequiredLTE})
	}
	if q.FeeProvidedGTE != nil {
		filters = append(filters, filter{Field: "fee_provided", Op: ">=", Value: *q.FeeProvidedGTE})
	}
	if q.FeeProvidedLTE != nil {
		filters = append(filters, filter{Field: "fee_provided", Op: "<=", Value: *q.FeeProvidedLTE})
	}

	var orders []market.Order
	err := c.call(ctx, "get_orders", ordersParams{
		Filters:     filters,
		ShowExpired: false,
		OrderBy:     "block_index",
		OrderDir:    "asc",
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Callbacks lists supply-reduction callbacks for the asset, ordered by block
// index ascending.
func (c *Client) Callbacks(ctx context.Context, asset string) ([]market.Callback, error) {
	var callbacks []market.Callback
	err := c.call(ctx, "get_callbacks", []filter{
		{Field: "asset", Op: "==", Value: asset},
	}, &callbacks)
	if err != nil {
		return nil, err
	}
	return callbacks, nil
}

// IssuedSupply reports the ledger-wide total issuance of a reference asset
// in raw units.
func (c *Client) IssuedSupply(ctx context.Context, asset string) (int64, error) {
	var supply int64
	if err := c.call(ctx, "get_supply", map[string]string{"asset": asset}, &supply); err != nil {
		return 0, err
	}
	return supply, nil
}
