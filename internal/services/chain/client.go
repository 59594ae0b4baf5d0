// Package chain provides minimal JSON-RPC access to an EVM test network.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"kinetic/internal/config"
	"kinetic/internal/services"
)

// Client speaks the Ethereum JSON-RPC protocol over HTTP.
type Client struct {
	rpcURL     string
	httpClient *http.Client
	nextID     atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewFromConfig builds a client from the chain section of the config.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	client := &Client{
		rpcURL:     strings.TrimRight(cfg.Chain.RPCURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternal, "chain", method, "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternal, "chain", method,
			fmt.Sprintf("node returned %d", resp.StatusCode), nil)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return services.Wrap(services.ErrExternal, "chain", method, "decode response", err)
	}
	if decoded.Error != nil {
		return services.Wrap(services.ErrExternal, "chain", method,
			fmt.Sprintf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message), nil)
	}
	if result != nil {
		if err := json.Unmarshal(decoded.Result, result); err != nil {
			return services.Wrap(services.ErrExternal, "chain", method, "decode result", err)
		}
	}
	return nil
}

// ChainID returns the connected network's chain identifier.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var hexID string
	if err := c.call(ctx, "eth_chainId", []any{}, &hexID); err != nil {
		return 0, err
	}
	id, err := parseHexUint64(hexID)
	if err != nil {
		return 0, services.Wrap(services.ErrExternal, "chain", "eth_chainId", "malformed chain id "+hexID, err)
	}
	return id, nil
}

// SwitchChain asks the node to serve a different chain, the request shape
// wallet providers use for wallet_switchEthereumChain. Nodes that cannot
// switch answer with an rpc error.
func (c *Client) SwitchChain(ctx context.Context, chainID uint64) error {
	return c.call(ctx, "wallet_switchEthereumChain", []any{
		map[string]string{"chainId": fmt.Sprintf("0x%x", chainID)},
	}, nil)
}

// CallContract performs a read-only eth_call against a contract and returns
// the raw hex return data.
func (c *Client) CallContract(ctx context.Context, to, data string) (string, error) {
	var result string
	err := c.call(ctx, "eth_call", []any{
		map[string]string{"to": to, "data": data},
		"latest",
	}, &result)
	return result, err
}

// Accounts lists the addresses the node can sign for.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, "eth_accounts", []any{}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SendTransaction submits a node-signed transaction and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, from, to, data string) (string, error) {
	var hash string
	err := c.call(ctx, "eth_sendTransaction", []any{
		map[string]string{"from": from, "to": to, "data": data},
	}, &hash)
	return hash, err
}

// Log is one contract event emitted by a transaction.
type Log struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Receipt is the mined outcome of a transaction.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     string `json:"blockNumber"`
	Logs            []Log  `json:"logs"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == "0x1"
}

// TransactionReceipt fetches the receipt for a hash. A nil receipt with nil
// error means the transaction is not mined yet.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	var receipt *Receipt
	if err := c.call(ctx, "eth_getTransactionReceipt", []any{txHash}, &receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined or the deadline passes.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*Receipt, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		if time.Now().After(deadline) {
			return nil, services.Wrap(services.ErrExternal, "chain", "wait receipt",
				"transaction "+txHash+" not mined before deadline", nil)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func parseHexUint64(value string) (uint64, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if value == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	return strconv.ParseUint(value, 16, 64)
}
