package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/logger"
)

const defaultHeartbeat = 15 * time.Second

// Stream serves a live query as Server-Sent Events. One "results" event is
// sent immediately, then one per change of the result.
func Stream(d deps.Deps) http.HandlerFunc {
	heartbeat := d.SSEHeartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		rc := http.NewResponseController(w)
		// Streams outlive the server write timeout.
		_ = rc.SetWriteDeadline(time.Time{})

		lq := d.Planner.Watch(q)
		defer lq.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func() error {
			if err := writeEvent(w, lq.Revision(), lq.Results()); err != nil {
				return err
			}
			return rc.Flush()
		}
		if err := send(); err != nil {
			return
		}

		d.Logger.Debug("stream opened",
			logger.String("sort", q.Sort.String()),
			logger.String("search", q.Search))

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-d.Closing:
				return
			case _, ok := <-lq.Updates():
				if !ok {
					return
				}
				if err := send(); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rev uint64, results []domain.Destination) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: results\ndata: %s\n\n", rev, payload)
	return err
}
