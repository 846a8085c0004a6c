package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/revittco/storeadmin/internal/identity"
	"github.com/revittco/storeadmin/internal/resource"
)

const heartbeatInterval = 15 * time.Second

type eventsHandler struct {
	bus *resource.Bus
}

// stream sends store events as server-sent events, optionally filtered by
// ?resource=.
func (h *eventsHandler) stream(w http.ResponseWriter, r *http.Request) {
	ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(ch)

	flusher, ok := startSSE(w)
	if !ok {
		return
	}
	qResource := r.URL.Query().Get("resource")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if !matchFilter(evt.Resource, qResource) {
				continue
			}
			writeSSE(w, flusher, evt)
		case <-heartbeat.C:
			fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		}
	}
}

type authStreamHandler struct {
	svc *identity.Service
}

func (h *authStreamHandler) stream(w http.ResponseWriter, r *http.Request) {
	ch := h.svc.Subscribe()
	defer h.svc.Unsubscribe(ch)

	flusher, ok := startSSE(w)
	if !ok {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, flusher, evt)
		case <-heartbeat.C:
			fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		}
	}
}

func startSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()
	return flusher, true
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// matchFilter returns true if the filter is empty or matches the value.
func matchFilter(value, filter string) bool {
	return filter == "" || value == filter
}
