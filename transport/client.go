package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/identity"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Target is one miner a message can be sent to.
type Target struct {
	UID            int64
	NetworkAddress string
}

// Client sends signed JSON request/reply exchanges to miner addresses with
// bounded concurrency, the Go analogue of the dendrite object the Python
// validator calls through.
type Client struct {
	hotkey identity.Hotkey
	http   *http.Client
}

// NewClient builds a Client that signs every request with hotkey.
func NewClient(hotkey identity.Hotkey) *Client {
	return &Client{hotkey: hotkey, http: &http.Client{}}
}

// send performs one signed HTTP exchange against target's address+path,
// enforcing timeout independently of the context deadline the same way the
// Python dispatch mixin wraps its dendrite call in both a synapse timeout
// and an outer asyncio.wait_for.
func send[Req, Rep any](ctx context.Context, c *Client, target Target, path string, req Req, timeout time.Duration) (*Rep, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s%s", target.NetworkAddress, path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	sig := c.hotkey.Sign(body)
	httpReq.Header.Set("X-Validator-Hotkey", c.hotkey.String())
	httpReq.Header.Set("X-Validator-Signature", fmt.Sprintf("%x", sig))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport: miner %s returned status %d: %s", target.NetworkAddress, resp.StatusCode, respBody)
	}

	var rep Rep
	if err := json.Unmarshal(respBody, &rep); err != nil {
		return nil, fmt.Errorf("transport: unmarshal response: %w", err)
	}
	return &rep, nil
}

// Result pairs a target with the outcome of one send call.
type Result[Rep any] struct {
	UID     int64
	Reply   *Rep
	Latency time.Duration
	Err     error
}

// Fanout sends req to every target concurrently, bounded by concurrency,
// and returns one Result per target. It never returns an error itself: a
// failed individual send is recorded in that target's Result.Err, mirroring
// the dispatch mixin's "never let one miner's exception abort the round"
// behaviour.
func Fanout[Req, Rep any](ctx context.Context, c *Client, targets []Target, path string, req Req, timeout time.Duration, concurrency int) []Result[Rep] {
	results := make([]Result[Rep], len(targets))
	sem := semaphore.NewWeighted(int64(concurrency))
	g, ctx := errgroup.WithContext(context.Background())

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result[Rep]{UID: target.UID, Err: err}
				return nil
			}
			defer sem.Release(1)

			start := time.Now()
			rep, err := send[Req, Rep](ctx, c, target, path, req, timeout)
			results[i] = Result[Rep]{UID: target.UID, Reply: rep, Latency: time.Since(start), Err: err}
			if err != nil {
				log.Debug("transport send failed", "uid", target.UID, "path", path, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
