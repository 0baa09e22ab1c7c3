package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/liltpanel/internal/api/models"
	"github.com/smazurov/liltpanel/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time transcoding lifecycle, output and settings events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"connected":                    models.ConnectedEvent{},
		events.NameTranscodingStarted:  events.TranscodingStartedEvent{},
		events.NameTranscodingStopped:  events.TranscodingStoppedEvent{},
		events.NameTranscodingOutput:   events.TranscodingOutputEvent{},
		events.NameTranscodingFinished: events.TranscodingFinishedEvent{},
		events.NameSettingsChanged:     events.SettingsChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		streamCtx, cancel := context.WithCancel(ctx)

		// Lifecycle and settings events are never dropped; they wait for
		// the client. Output lines arrive in bursts and are dropped when
		// the client falls behind.
		stateCh := make(chan any, 16)
		outputCh := make(chan any, 256)

		unsubscribers := []func(){
			events.SubscribeToChannelBlocking[events.TranscodingLifecycleEvent](s.eventBus, stateCh, streamCtx.Done()),
			events.SubscribeToChannelBlocking[events.SettingsChangedEvent](s.eventBus, stateCh, streamCtx.Done()),
			events.SubscribeToChannel[events.TranscodingOutputEvent](s.eventBus, outputCh),
		}
		defer func() {
			// Release forwarders blocked on stateCh.
			cancel()
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Subscribed first so no transition falls between this and the stream.
		connected := models.ConnectedEvent{}
		if s.options.Transcoder != nil {
			connected.Running = s.options.Transcoder.IsRunning()
		}
		if err := send.Data(connected); err != nil {
			return
		}

		for {
			var event any
			select {
			case <-streamCtx.Done():
				return
			case event = <-stateCh:
			case event = <-outputCh:
			}
			if lifecycle, ok := event.(events.TranscodingLifecycleEvent); ok {
				event = lifecycle.Payload()
			}
			if err := send.Data(event); err != nil {
				return
			}
		}
	})
}
