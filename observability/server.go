package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

// Server is the optional, disabled-by-default HTTP surface for round
// observability. Wiring it up never changes round orchestration behavior;
// it is purely additive and guarded by Config.EnableHTTPEndpoints.
type Server struct {
	http *http.Server
	hub  *Hub
}

// NewServer builds the mux (GraphQL query endpoint, SSE heartbeat,
// websocket stream) wrapped in a permissive read-only CORS policy, the same
// way the teacher wraps its own RPC HTTP handler with rs/cors.
func NewServer(host string, port int, provider SummaryProvider, hub *Hub) (*Server, error) {
	gqlHandler, err := NewGraphQLHandler(provider)
	if err != nil {
		return nil, fmt.Errorf("observability: building graphql schema: %w", err)
	}
	sse := NewSSEBridge(hub)

	mux := http.NewServeMux()
	mux.Handle("/graphql", gqlHandler)
	mux.HandleFunc("/events", sse.Handler())
	mux.HandleFunc("/ws", WebsocketHandler(hub))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)

	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           corsHandler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		hub: hub,
	}, nil
}

// Hub returns the progress hub the round loop should publish into.
func (s *Server) Hub() *Hub { return s.hub }

// Serve blocks until ctx is cancelled, then shuts the HTTP server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("observability: http endpoints listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
