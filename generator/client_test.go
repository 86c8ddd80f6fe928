package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

func TestGenerateReturnsTaskSpec(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		_ = json.NewEncoder(w).Encode(model.TaskSpec{
			TaskID: "task-1",
			Prompt: "provision a vpc",
			Params: map[string]any{
				"task": map[string]any{"invariants": []any{"vpc_exists"}},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	task, err := c.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "task-1", task.TaskID)
	require.True(t, task.HasInvariants())
}

func TestGenerateRejectsMissingTaskID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.TaskSpec{Prompt: "no id"})
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Generate(context.Background())
	require.Error(t, err)
}

func TestGenerateSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Generate(context.Background())
	require.Error(t, err)
}
