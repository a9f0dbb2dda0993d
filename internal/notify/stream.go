package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultHeartbeat is used by Serve when no positive interval is given.
const DefaultHeartbeat = 25 * time.Second

// reconnectDelayMillis is announced to EventSource clients via `retry:`.
const reconnectDelayMillis = 3000

// WriteEvent writes ev in SSE framing. Only `id:` and `data:` fields are
// written so browsers deliver the frame to their `onmessage` handler.
func WriteEvent(w io.Writer, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if ev.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.ID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

// Serve registers a subscription for identity and streams its events to w
// until the request context ends, the subscription is closed, or a write
// fails. The subscription is always unregistered on return.
func Serve(w http.ResponseWriter, r *http.Request, hub *Hub, identity int64, heartbeat time.Duration) error {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	sub := hub.Register(identity)
	defer hub.Unregister(sub)

	rc := http.NewResponseController(w)
	// the server-wide write timeout would cut long-lived streams
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		hub.logger.Debug("sse: write deadline not adjustable", slog.Any("err", err))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n: connected\n\n", reconnectDelayMillis); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return fmt.Errorf("sse: flush unsupported: %w", err)
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return nil
		case <-sub.Done():
			return drain(w, rc, sub)
		case ev := <-sub.Events():
			if err := WriteEvent(w, ev); err != nil {
				return fmt.Errorf("sse: write event: %w", err)
			}
			if err := rc.Flush(); err != nil {
				return fmt.Errorf("sse: flush: %w", err)
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return fmt.Errorf("sse: heartbeat: %w", err)
			}
			if err := rc.Flush(); err != nil {
				return fmt.Errorf("sse: flush: %w", err)
			}
		}
	}
}

// drain writes events still queued on a finished subscription.
func drain(w io.Writer, rc *http.ResponseController, sub *Subscription) error {
	for {
		select {
		case ev := <-sub.Events():
			if err := WriteEvent(w, ev); err != nil {
				return fmt.Errorf("sse: write event: %w", err)
			}
		default:
			if err := rc.Flush(); err != nil {
				return fmt.Errorf("sse: flush: %w", err)
			}
			return nil
		}
	}
}
