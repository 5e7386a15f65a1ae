// Package rpcclient is a provider-rotation JSON-RPC client for the cluster
// endpoints consumed throughout the core (spec.md §6, §9). It generalizes
// the teacher's ec.c.CallContext(ctx, &result, method, args...) wrapper
// (client/bridge_client.go) from one fixed *rpc.Client to a rotating list,
// so a head-of-line call can fail over across providers per spec.md §9.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/chainmetrics"
	"github.com/pkg/errors"
)

var logger = chainlog.NewModuleLogger("rpcclient")

// Config mirrors internal/config.RPCConfig's shape without importing it,
// keeping this package dependency-free of the config loader.
type Config struct {
	HTTPEndpoints []string
	WSEndpoints   []string
	MinInterval   time.Duration
	MaxAttempts   int
	RetryDelay    time.Duration
}

// providerState tracks the per-provider minimum-interval gate (spec.md §9).
type providerState struct {
	mu       sync.Mutex
	lastCall time.Time
}

// Client rotates calls across a fixed list of cluster HTTP endpoints, per
// spec.md §9's "Retry across RPC providers" design note: head-of-line calls
// rotate provider[attempt mod N]; load-distributed calls use a fair
// round-robin counter.
type Client struct {
	cfg        Config
	httpClient *http.Client
	states     []*providerState
	rrCounter  uint64
}

// New constructs a Client over cfg's HTTP endpoints.
func New(cfg Config) (*Client, error) {
	if len(cfg.HTTPEndpoints) == 0 {
		return nil, errors.New("rpcclient: no HTTP endpoints configured")
	}
	states := make([]*providerState, len(cfg.HTTPEndpoints))
	for i := range states {
		states[i] = &providerState{}
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		states:     states,
	}, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// gate blocks until provider i's minimum call interval has elapsed.
func (c *Client) gate(i int) {
	st := c.states[i]
	st.mu.Lock()
	defer st.mu.Unlock()
	if wait := c.cfg.MinInterval - time.Since(st.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	st.lastCall = time.Now()
}

func (c *Client) callOnce(ctx context.Context, providerIdx int, method string, params []interface{}, out interface{}) error {
	c.gate(providerIdx)
	endpoint := c.cfg.HTTPEndpoints[providerIdx]

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post to %s", endpoint)
	}
	defer resp.Body.Close()

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return errors.Wrapf(err, "decode response from %s", endpoint)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return errors.Wrapf(err, "unmarshal result from %s", endpoint)
		}
	}
	return nil
}

// CallContext issues method(params...) against provider[attempt mod N],
// retrying up to cfg.MaxAttempts times with cfg.RetryDelay between
// attempts, and decodes the result into out. This is the head-of-line
// rotation path: account reads, slot/blockhash polling.
func (c *Client) CallContext(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	n := len(c.cfg.HTTPEndpoints)
	maxAttempts := c.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		providerIdx := attempt % n
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.callOnce(ctx, providerIdx, method, params, out)
		if err == nil {
			return nil
		}
		lastErr = err
		chainmetrics.RPCRetries.WithLabelValues(method, c.cfg.HTTPEndpoints[providerIdx]).Inc()
		logger.Debug("rpc call failed, retrying", "method", method, "provider", c.cfg.HTTPEndpoints[providerIdx], "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RetryDelay):
		}
	}
	return errors.Wrapf(lastErr, "rpc call %s exhausted %d attempts", method, maxAttempts)
}

// RoundRobinCallContext issues method(params...) using a fair round-robin
// provider counter, for load-distributed calls like signature/transaction
// fetching (spec.md §9), rather than always preferring provider 0 on the
// first attempt.
func (c *Client) RoundRobinCallContext(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	n := len(c.cfg.HTTPEndpoints)
	start := int(atomic.AddUint64(&c.rrCounter, 1)) % n

	maxAttempts := c.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		providerIdx := (start + attempt) % n
		err := c.callOnce(ctx, providerIdx, method, params, out)
		if err == nil {
			return nil
		}
		lastErr = err
		chainmetrics.RPCRetries.WithLabelValues(method, c.cfg.HTTPEndpoints[providerIdx]).Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RetryDelay):
		}
	}
	return errors.Wrapf(lastErr, "rpc call %s exhausted %d attempts", method, maxAttempts)
}
