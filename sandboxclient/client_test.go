package sandboxclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

func TestHealthReportsReadiness(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.SandboxHealth{Status: "ok", TokenReady: true, SandboxReady: true})
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 2)
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	require.True(t, h.Healthy())
}

func TestValidateRetriesOn503ThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(model.SandboxValidateResponse{
			JobID:  "job-1",
			TaskID: "t1",
			Result: model.SandboxResult{Status: "pass", Score: 0.7},
		})
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 2)
	// Keep the test fast: backoff(0) is 1s, acceptable for a unit test timeout.
	resp, retries, err := c.Validate(context.Background(), model.SandboxValidateRequest{
		WorkspaceZipPath: "/tmp/workspace.zip",
		TaskJSON:         map[string]any{"task_id": "t1"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, retries)
	require.Equal(t, 0.7, resp.Result.Score)
}

func TestValidateHonorsRetryAfterOn429(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(model.SandboxValidateResponse{
			JobID: "job-2", TaskID: "t1",
			Result: model.SandboxResult{Status: "pass", Score: 1.0},
		})
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 2)
	resp, retries, err := c.Validate(context.Background(), model.SandboxValidateRequest{TaskJSON: map[string]any{}})
	require.NoError(t, err)
	require.Equal(t, 1, retries)
	require.Equal(t, 1.0, resp.Result.Score)
}

func TestValidateFailsAfterExhaustingRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 1)
	_, _, err := c.Validate(context.Background(), model.SandboxValidateRequest{TaskJSON: map[string]any{}})
	require.Error(t, err)
}

func TestValidateZipStructureRejectsGarbage(t *testing.T) {
	require.Error(t, ValidateZipStructure([]byte("not a zip")))
}

func TestWithRateLimitAllowsRequestWithinLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(model.SandboxHealth{Status: "ok", TokenReady: true, SandboxReady: true})
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0).WithRateLimit(1000)
	_, err := c.Health(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWithBearerTokenSetsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(model.SandboxHealth{Status: "ok", TokenReady: true, SandboxReady: true})
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 0).WithBearerToken("tok-123")
	_, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", gotAuth)
}
