package rpcclient

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"
)

// accountInfoEnvelope matches getAccountInfo's {value: {data: [base64, enc], ...}} shape.
type accountInfoEnvelope struct {
	Value *accountInfoValue `json:"value"`
}

type accountInfoValue struct {
	Data [2]string `json:"data"` // [base64-or-base64+zstd blob, encoding]
}

// GetAccountInfo fetches and base64-decodes one account's data (spec.md §6:
// "Base64+zstd encoding is preferred for account reads over ~1 KB" -- this
// client always requests base64, leaving zstd negotiation to the cluster
// for large accounts since decompression is not required for the fixed,
// small account layouts this repo reads).
func (c *Client) GetAccountInfo(ctx context.Context, pubkey string) ([]byte, error) {
	var env accountInfoEnvelope
	err := c.CallContext(ctx, &env, "getAccountInfo", pubkey, map[string]string{"encoding": "base64"})
	if err != nil {
		return nil, errors.Wrap(err, "getAccountInfo")
	}
	if env.Value == nil {
		return nil, nil // account does not exist
	}
	return base64.StdEncoding.DecodeString(env.Value.Data[0])
}

type multiAccountsEnvelope struct {
	Value []*accountInfoValue `json:"value"`
}

// GetMultipleAccounts batches several account reads into one call.
func (c *Client) GetMultipleAccounts(ctx context.Context, pubkeys []string) ([][]byte, error) {
	var env multiAccountsEnvelope
	err := c.CallContext(ctx, &env, "getMultipleAccounts", pubkeys, map[string]string{"encoding": "base64"})
	if err != nil {
		return nil, errors.Wrap(err, "getMultipleAccounts")
	}
	out := make([][]byte, len(env.Value))
	for i, v := range env.Value {
		if v == nil {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return nil, errors.Wrap(err, "decode account data")
		}
		out[i] = b
	}
	return out, nil
}

// MemcmpFilter selects program accounts whose data matches bytes at offset.
type MemcmpFilter struct {
	Offset int    `json:"offset"`
	Bytes  string `json:"bytes"` // base58
}

type programAccountEntry struct {
	Pubkey  string            `json:"pubkey"`
	Account *accountInfoValue `json:"account"`
}

// GetProgramAccounts scans all accounts owned by programID, optionally
// filtered by data size and a memcmp filter (spec.md §4.5's deployer
// discovery: "indexed scan with a memcmp filter at the deploy-authority
// offset").
func (c *Client) GetProgramAccounts(ctx context.Context, programID string, dataSize int, filters []MemcmpFilter) ([]string, [][]byte, error) {
	cfg := map[string]interface{}{"encoding": "base64"}
	var rpcFilters []map[string]interface{}
	if dataSize > 0 {
		rpcFilters = append(rpcFilters, map[string]interface{}{"dataSize": dataSize})
	}
	for _, f := range filters {
		rpcFilters = append(rpcFilters, map[string]interface{}{
			"memcmp": map[string]interface{}{"offset": f.Offset, "bytes": f.Bytes},
		})
	}
	if len(rpcFilters) > 0 {
		cfg["filters"] = rpcFilters
	}

	var entries []programAccountEntry
	if err := c.CallContext(ctx, &entries, "getProgramAccounts", programID, cfg); err != nil {
		return nil, nil, errors.Wrap(err, "getProgramAccounts")
	}
	pubkeys := make([]string, len(entries))
	datas := make([][]byte, len(entries))
	for i, e := range entries {
		pubkeys[i] = e.Pubkey
		if e.Account != nil {
			b, err := base64.StdEncoding.DecodeString(e.Account.Data[0])
			if err != nil {
				return nil, nil, errors.Wrap(err, "decode account data")
			}
			datas[i] = b
		}
	}
	return pubkeys, datas, nil
}

// GetBalance returns an account's lamport balance.
func (c *Client) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	var env struct {
		Value uint64 `json:"value"`
	}
	if err := c.CallContext(ctx, &env, "getBalance", pubkey); err != nil {
		return 0, errors.Wrap(err, "getBalance")
	}
	return env.Value, nil
}

// GetSlot returns the cluster's current slot.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.CallContext(ctx, &slot, "getSlot"); err != nil {
		return 0, errors.Wrap(err, "getSlot")
	}
	return slot, nil
}

type latestBlockhashEnvelope struct {
	Value struct {
		Blockhash string `json:"blockhash"`
	} `json:"value"`
}

// GetLatestBlockhash returns the cluster's most recent blockhash, base58
// encoded.
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	var env latestBlockhashEnvelope
	if err := c.CallContext(ctx, &env, "getLatestBlockhash"); err != nil {
		return "", errors.Wrap(err, "getLatestBlockhash")
	}
	return env.Value.Blockhash, nil
}

// SignatureStatus is one entry of getSignatureStatuses' result.
type SignatureStatus struct {
	Slot               uint64 `json:"slot"`
	Confirmations      *int   `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string `json:"confirmationStatus"`
}

// GetSignatureStatuses classifies a batch of submitted signatures.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	var env struct {
		Value []*SignatureStatus `json:"value"`
	}
	err := c.RoundRobinCallContext(ctx, &env, "getSignatureStatuses", signatures, map[string]bool{"searchTransactionHistory": true})
	if err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses")
	}
	return env.Value, nil
}

// SendTransaction submits a base64-encoded signed transaction and returns
// its signature.
func (c *Client) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	var sig string
	opts := map[string]interface{}{"encoding": "base64", "skipPreflight": true}
	if err := c.CallContext(ctx, &sig, "sendTransaction", txBase64, opts); err != nil {
		return "", errors.Wrap(err, "sendTransaction")
	}
	return sig, nil
}

// GetSignaturesForAddress lists recent signatures touching an address.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]string, error) {
	var entries []struct {
		Signature string `json:"signature"`
	}
	err := c.RoundRobinCallContext(ctx, &entries, "getSignaturesForAddress", address, map[string]int{"limit": limit})
	if err != nil {
		return nil, errors.Wrap(err, "getSignaturesForAddress")
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Signature
	}
	return out, nil
}

// GetTransaction fetches a confirmed transaction and returns its meta, whose
// Err field holds the raw transaction error (nil if it succeeded).
func (c *Client) GetTransaction(ctx context.Context, signature string) (*TransactionMeta, error) {
	var tx struct {
		Meta *TransactionMeta `json:"meta"`
	}
	err := c.RoundRobinCallContext(ctx, &tx, "getTransaction", signature, map[string]interface{}{"encoding": "json", "maxSupportedTransactionVersion": 0})
	if err != nil {
		return nil, errors.Wrap(err, "getTransaction")
	}
	return tx.Meta, nil
}

// TransactionMeta is the subset of getTransaction's meta object this repo
// consumes: whether the tx reverted, and with what program error code.
type TransactionMeta struct {
	Err interface{} `json:"err"`
}
