package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rzbill/folio/internal/runtime"
	"github.com/rzbill/folio/pkg/folio"
	logpkg "github.com/rzbill/folio/pkg/log"
)

// WatchController streams book changes as Server-Sent Events.
type WatchController struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

func NewWatchController(rt *runtime.Runtime, logger logpkg.Logger) *WatchController {
	return &WatchController{rt: rt, logger: logger}
}

func (c *WatchController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/watch", c.handleWatch)
}

// changeEvent is the SSE data payload.
type changeEvent struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value"`
}

// sseSink formats events for Server-Sent Events.
type sseSink struct {
	w http.ResponseWriter
}

// Send writes one "data:" event, optionally named.
func (s sseSink) Send(event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	s.Flush()
	return nil
}

// Comment writes an SSE comment line, used to confirm the subscription.
func (s sseSink) Comment(text string) {
	_, _ = fmt.Fprintf(s.w, ": %s\n\n", text)
	s.Flush()
}

// Flush flushes the HTTP response writer if it supports flushing.
func (s sseSink) Flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}

// handleWatch subscribes to the book's change bus. Query parameters:
// book, key (only that key), filter (CEL), overflow, buffer.
func (c *WatchController) handleWatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, err := c.rt.Book(q.Get("book"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	var opts []folio.ObserveOption
	if f := q.Get("filter"); f != "" {
		opts = append(opts, folio.WithFilter(f))
	}
	if o := q.Get("overflow"); o != "" {
		policy, err := folio.ParseOverflow(o)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = append(opts, folio.WithOverflow(policy))
	}
	if n := parseBuffer(q.Get("buffer")); n > 0 {
		opts = append(opts, folio.WithBuffer(n))
	}

	if key := q.Get("key"); key != "" {
		sub, err := folio.ObserveUnsafe[any](b, key, opts...)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pump(c, w, r, sub, func(u folio.Unchecked[any]) changeEvent {
			return changeEvent{ID: u.ID.String(), Key: u.Key, Value: u.Raw()}
		})
		return
	}
	sub, err := b.Changes(opts...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pump(c, w, r, sub, func(ch folio.Change) changeEvent {
		return changeEvent{ID: ch.ID.String(), Key: ch.Key, Type: ch.Type, Value: ch.Value}
	})
}

func pump[T any](c *WatchController, w http.ResponseWriter, r *http.Request, sub *folio.Subscription[T], conv func(T) changeEvent) {
	defer sub.Close()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	sink := sseSink{w: w}
	sink.Comment("subscribed " + sub.ID())
	c.logger.Debug("watch started", logpkg.Str("subscription", sub.ID()))

	for {
		select {
		case <-r.Context().Done():
			return
		case v, ok := <-sub.C():
			if !ok {
				if err := sub.Err(); err != nil {
					_ = sink.Send("error", map[string]string{"error": err.Error()})
				}
				return
			}
			if err := sink.Send("", conv(v)); err != nil {
				c.logger.Debug("watch client gone", logpkg.Err(err))
				return
			}
		}
	}
}
