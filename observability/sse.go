package observability

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/donovanhide/eventsource"
)

const dispatchChannel = "dispatch-progress"

// progressSSEEvent adapts a ProgressEvent to eventsource.Event.
type progressSSEEvent struct {
	id   string
	data string
}

func (e progressSSEEvent) Id() string    { return e.id }
func (e progressSSEEvent) Event() string { return "progress" }
func (e progressSSEEvent) Data() string  { return e.data }

// SSEBridge forwards every Hub ProgressEvent onto an eventsource.Server so
// operators can `curl` a dispatch-progress heartbeat without a websocket
// client, mirroring the SSE surface described for the validator's HTTP
// endpoints.
type SSEBridge struct {
	srv *eventsource.Server
	seq uint64
}

// NewSSEBridge creates the bridge and subscribes it to hub for its
// lifetime; Handler serves the resulting stream.
func NewSSEBridge(hub *Hub) *SSEBridge {
	b := &SSEBridge{srv: eventsource.NewServer()}
	ch, _ := hub.subscribe()
	go func() {
		for ev := range ch {
			b.seq++
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			b.srv.Publish([]string{dispatchChannel}, progressSSEEvent{
				id:   fmt.Sprintf("%d", b.seq),
				data: string(data),
			})
		}
	}()
	return b
}

// Handler returns the http.HandlerFunc that serves the dispatch-progress
// SSE stream.
func (b *SSEBridge) Handler() http.HandlerFunc {
	return b.srv.Handler(dispatchChannel)
}
