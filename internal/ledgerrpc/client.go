// Package ledgerrpc is a thin JSON-RPC client for the external
// host ledger that the shield-pool, scramble-registry and SwapState
// programs run on. No ready-made Go client exists for this ledger, so
// this speaks the bare JSON-RPC 2.0 envelope directly over net/http.
package ledgerrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a minimal JSON-RPC 2.0 client bound to one host ledger
// endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Config holds connection parameters for a Client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// New constructs a Client. A zero Timeout defaults to 30s.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call issues a JSON-RPC request and unmarshals the result into out.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("ledgerrpc: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("ledgerrpc: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ledgerrpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ledgerrpc: %s: read body: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("ledgerrpc: %s: unmarshal envelope: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("ledgerrpc: %s: %d %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("ledgerrpc: %s: unmarshal result: %w", method, err)
	}
	return nil
}

// GetSlot returns the host's current slot.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.call(ctx, "getSlot", nil, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// RecentSlotHash is one entry of the host's recent-slot-hashes
// sysvar.
type RecentSlotHash struct {
	Slot uint64 `json:"slot"`
	Hash string `json:"hash"`
}

// GetRecentSlotHashes returns the retained window of (slot, hash)
// pairs the host tracks for PoW preimage freshness checks.
func (c *Client) GetRecentSlotHashes(ctx context.Context) ([]RecentSlotHash, error) {
	var out []RecentSlotHash
	if err := c.call(ctx, "getRecentSlotHashes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendTransaction submits a base64/base58-encoded signed transaction
// and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, encodedTx string) (string, error) {
	var sig string
	if err := c.call(ctx, "sendTransaction", []interface{}{encodedTx}, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

// SignatureStatus is the confirmation state of a submitted
// transaction.
type SignatureStatus struct {
	Slot               uint64 `json:"slot"`
	Confirmations      *int   `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string `json:"confirmationStatus"`
}

// GetSignatureStatuses polls the host's signature-status sysvar for a
// batch of transaction signatures.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	var out struct {
		Value []*SignatureStatus `json:"value"`
	}
	if err := c.call(ctx, "getSignatureStatuses", []interface{}{signatures}, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// AccountExists reports whether the account at address currently
// exists on the host ledger, used by the relay's nullifier
// already-on-chain preflight check.
func (c *Client) AccountExists(ctx context.Context, address string) (bool, error) {
	var out struct {
		Value interface{} `json:"value"`
	}
	if err := c.call(ctx, "getAccountInfo", []interface{}{address}, &out); err != nil {
		return false, err
	}
	return out.Value != nil, nil
}
