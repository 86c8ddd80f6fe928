// Package generator talks to the external task-content generator the Task
// Generator facade delegates to: each call requests one fully-formed
// TaskSpec, the same boundary sandboxclient draws for validation, with the
// same request/decode/error shape.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/luxapientia/alphacore-sub000/model"
)

// Client requests one task at a time from the external generator's /generate
// endpoint, matching validator.TaskSource's one-task-per-call contract.
type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a Client bound to endpoint, with timeout bounding each HTTP
// call.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Count int `json:"count"`
}

// Generate requests a single TaskSpec from the external generator. It
// satisfies validator.TaskSource; generateValid is responsible for retrying
// when the returned task carries no invariants.
func (c *Client) Generate(ctx context.Context) (model.TaskSpec, error) {
	body, err := json.Marshal(generateRequest{Count: 1})
	if err != nil {
		return model.TaskSpec{}, fmt.Errorf("generator: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/generate", bytes.NewReader(body))
	if err != nil {
		return model.TaskSpec{}, fmt.Errorf("generator: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.TaskSpec{}, fmt.Errorf("generator: request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return model.TaskSpec{}, fmt.Errorf("generator: unexpected status %d: %s", resp.StatusCode, respBody)
	}

	var task model.TaskSpec
	if err := json.Unmarshal(respBody, &task); err != nil {
		return model.TaskSpec{}, fmt.Errorf("generator: unmarshal task: %w", err)
	}
	if task.TaskID == "" {
		return model.TaskSpec{}, fmt.Errorf("generator: response carried no task_id")
	}
	return task, nil
}
