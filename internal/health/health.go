package health

import (
	"encoding/json"
	"net/http"
)

// QueueState is the slice of dispatcher state the health endpoint reports.
type QueueState interface {
	QueueDepth() int
	InFlight() int
}

type Status struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message,omitempty"`
	QueueDepth int    `json:"queue_depth"`
	InFlight   int    `json:"in_flight"`
}

// HTTPHandler reports the service health along with dispatcher load.
func HTTPHandler(q QueueState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := Status{OK: true, Message: "ok"}
		if q != nil {
			st.QueueDepth = q.QueueDepth()
			st.InFlight = q.InFlight()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}
