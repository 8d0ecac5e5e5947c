package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"finboard/internal/models"
	"finboard/internal/refresh"
	"finboard/internal/response"
	"finboard/pkg/logger"
)

type EventSource interface {
	Subscribe(buffer int) (<-chan refresh.Event, func())
	All() map[string]models.WidgetRuntimeState
}

type eventHandlers struct {
	ResponseHandler response.ResponseHandler
	Events          EventSource
}

func NewEventHandlers(deps *Deps) *eventHandlers {
	return &eventHandlers{
		ResponseHandler: deps.ResponseHandler,
		Events:          deps.Events,
	}
}

// Stream pushes widget state transitions to the browser as server-sent
// events. Each connection first receives a snapshot of every widget's
// current state, then live transitions until the client disconnects.
func (h *eventHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.ResponseHandler.WriteError(w, r, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, cancel := h.Events.Subscribe(64)
	defer cancel()

	log := logger.FromContext(r.Context())
	for id, st := range h.Events.All() {
		if err := writeEvent(w, refresh.Event{WidgetID: id, State: st}); err != nil {
			log.Debug("sse snapshot write failed", "error", err.Error())
			return
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				log.Debug("sse write failed", "error", err.Error())
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev refresh.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: widget-state\ndata: %s\n\n", payload)
	return err
}
