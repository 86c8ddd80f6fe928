// Package sandboxclient talks to the external sandbox validation service
// that scores a miner's submitted workspace against a task's hidden
// invariants. The validator never evaluates Terraform itself; this client
// is the entire boundary to that external process.
package sandboxclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/model"
	"golang.org/x/time/rate"
)

// Client submits workspace zips for validation and polls health, retrying on
// 429 (honoring Retry-After) and 503 with exponential backoff, matching
// ValidationAPIClient.submit_validation's retry policy.
type Client struct {
	endpoint   string
	http       *http.Client
	maxRetries int
	bearer     string
	limiter    *rate.Limiter
}

// New builds a Client. timeout bounds every individual HTTP call;
// maxRetries is the number of retries after the first attempt (so
// maxRetries=2 means up to 3 total attempts), matching VALIDATION_API_RETRIES.
// No rate limit is applied until WithRateLimit is called.
func New(endpoint string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		endpoint:   endpoint,
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
}

// WithRateLimit caps outbound requests to the bundled sandbox instance at
// perSecond, smoothing bursts a pool of concurrent evaluation workers would
// otherwise send all at once against a process known to be fragile under
// load.
func (c *Client) WithRateLimit(perSecond float64) *Client {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// WithBearerToken attaches a bearer token (minted by
// identity.IssueSandboxToken) to every subsequent request, authenticating
// this validator to a sandbox service that doesn't understand hotkey
// signatures.
func (c *Client) WithBearerToken(token string) *Client {
	c.bearer = token
	return c
}

func (c *Client) authorize(req *http.Request) {
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
}

// Health checks /health and reports sandbox+token readiness.
func (c *Client) Health(ctx context.Context) (model.SandboxHealth, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.SandboxHealth{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return model.SandboxHealth{}, err
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return model.SandboxHealth{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.SandboxHealth{}, fmt.Errorf("sandboxclient: health check returned status %d", resp.StatusCode)
	}
	var health model.SandboxHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return model.SandboxHealth{}, fmt.Errorf("sandboxclient: decoding health response: %w", err)
	}
	return health, nil
}

// Validate submits one workspace zip for scoring, retrying per the policy
// above. It returns the response and the number of retries actually
// performed (ValidationOutcome.RetryCount).
func (c *Client) Validate(ctx context.Context, req model.SandboxValidateRequest) (*model.SandboxValidateResponse, int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("sandboxclient: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, retryAfter, err := c.attemptValidate(ctx, body)
		if err == nil {
			return resp, attempt, nil
		}
		lastErr = err

		if attempt >= c.maxRetries {
			break
		}
		wait := retryAfter
		if wait <= 0 {
			wait = backoff(attempt)
		}
		log.Warn("sandbox validate attempt failed, retrying", "attempt", attempt+1, "wait", wait, "err", err)
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, c.maxRetries, lastErr
}

// attemptValidate performs one HTTP round trip. A positive retryAfter return
// signals the caller should honor a server-specified delay (429's
// Retry-After) rather than the default exponential backoff.
func (c *Client) attemptValidate(ctx context.Context, body []byte) (*model.SandboxValidateResponse, time.Duration, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/validate", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var out model.SandboxValidateResponse
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, 0, fmt.Errorf("sandboxclient: unmarshal response: %w", err)
		}
		return &out, 0, nil
	case http.StatusTooManyRequests:
		retryAfter := time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, retryAfter, fmt.Errorf("sandboxclient: queue full (429), retry after %s", retryAfter)
	case http.StatusServiceUnavailable:
		return nil, 0, fmt.Errorf("sandboxclient: service unavailable (503)")
	default:
		return nil, 0, fmt.Errorf("sandboxclient: unexpected status %d: %s", resp.StatusCode, respBody)
	}
}

// backoff implements the 2**attempt exponential backoff the Python client
// uses between retries.
func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}
