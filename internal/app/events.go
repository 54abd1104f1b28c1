package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cinebook/cinema-booking-system/internal/notifier"
)

// StreamEvents streams booking and catalog change events to the client as
// server-sent events. Each connection gets its own subscription; a client
// going away just ends the stream.
func (app *Application) StreamEvents(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.errorResponse(w, r, http.StatusNotImplemented, "Streaming is not supported by this connection")
		return
	}

	// The stream outlives the server's write timeout; lift the deadline
	// for this response only.
	err := http.NewResponseController(w).SetWriteDeadline(time.Time{})
	if err != nil {
		logger.Debug("could not clear write deadline", "error", err)
	}

	messages, err := app.subscriber.Subscribe(r.Context(), notifier.Topic)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Info("event stream opened")

	for {
		select {
		case <-r.Context().Done():
			logger.Info("event stream closed")
			return
		case msg, open := <-messages:
			if !open {
				return
			}

			kind := msg.Metadata.Get(notifier.MetadataKind)

			fmt.Fprintf(w, "event: %s\n", kind)
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()

			msg.Ack()
		}
	}
}
