package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/sidecarhost/internal/events"
)

// registerSSERoutes registers the backend lifecycle event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Backend readiness, exit, spawn failure and shutdown events. " +
			"A backend-ready event is replayed on connect when the port is already known.",
		Tags:     []string{"events"},
		Security: withAuth(),
		Errors:   []int{401},
	}, map[string]any{
		"backend-ready":        events.BackendReadyEvent{},
		"backend-exited":       events.BackendExitedEvent{},
		"backend-spawn-failed": events.BackendSpawnFailedEvent{},
		"shutdown-started":     events.ShutdownStartedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.BackendReadyEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.BackendExitedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.BackendSpawnFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ShutdownStartedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Late subscribers would otherwise miss the one-shot readiness event.
		if st := s.options.Backend.Status(); st.PortKnown {
			if err := send.Data(events.BackendReadyEvent{Port: st.Port, Mode: st.Mode}); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
