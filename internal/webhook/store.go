package webhook

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// recentErrorCap bounds the distinct error strings reported by Stats.
const recentErrorCap = 10

// Store keeps every delivery log in memory, guarded by a single lock.
// It is constructed explicitly and injected into the dispatcher; there is
// no process-wide instance.
type Store struct {
	mu    sync.RWMutex
	logs  map[string]*DeliveryLog
	clock Clock
}

// NewStore returns an empty store.
func NewStore(clock Clock) *Store {
	if clock == nil {
		clock = RealClock()
	}
	return &Store{
		logs:  make(map[string]*DeliveryLog),
		clock: clock,
	}
}

// Create registers a new queued delivery log.
func (s *Store) Create(deliveryID, destinationID string, p DeliveryPayload) DeliveryLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &DeliveryLog{
		DeliveryID:    deliveryID,
		DestinationID: destinationID,
		Payload:       p,
		State:         StateQueued,
		CreatedAt:     s.clock.Now(),
	}
	s.logs[deliveryID] = l
	return *l
}

// SetState moves a delivery to a new lifecycle state. Terminal logs are
// immutable and keep their state.
func (s *Store) SetState(deliveryID string, state DeliveryState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[deliveryID]; ok && l.CompletedAt == nil {
		l.State = state
	}
}

// AppendAttempt records one try against the delivery. Attempts are
// append-only; a finalized log rejects further writes.
func (s *Store) AppendAttempt(deliveryID string, att DeliveryAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[deliveryID]
	if !ok {
		return fmt.Errorf("delivery %s not found", deliveryID)
	}
	if l.CompletedAt != nil {
		return fmt.Errorf("delivery %s already completed", deliveryID)
	}
	l.Attempts = append(l.Attempts, att)
	return nil
}

// Complete finalizes the delivery with its result, exactly once.
func (s *Store) Complete(deliveryID string, res DeliveryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[deliveryID]
	if !ok {
		return fmt.Errorf("delivery %s not found", deliveryID)
	}
	if l.CompletedAt != nil {
		return fmt.Errorf("delivery %s already completed", deliveryID)
	}
	l.Result = &res
	l.CompletedAt = &res.CompletedAt
	if res.Success {
		l.State = StateSuccess
	} else {
		l.State = StateExhausted
	}
	return nil
}

// Get returns a copy of one delivery log.
func (s *Store) Get(deliveryID string) (DeliveryLog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logs[deliveryID]
	if !ok {
		return DeliveryLog{}, false
	}
	return copyLog(l), true
}

// Filter narrows a Query. Zero values mean "no constraint".
type Filter struct {
	DestinationID string
	EventType     string
	Success       *bool
	From          time.Time
	To            time.Time
	Limit         int
}

// DefaultQueryLimit applies when a filter leaves Limit unset.
const DefaultQueryLimit = 50

// Query returns matching logs sorted newest-first.
func (s *Store) Query(f Filter) []DeliveryLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DeliveryLog
	for _, l := range s.logs {
		if f.DestinationID != "" && l.DestinationID != f.DestinationID {
			continue
		}
		if f.EventType != "" && l.Payload.EventType != f.EventType {
			continue
		}
		if f.Success != nil {
			if l.Result == nil || l.Result.Success != *f.Success {
				continue
			}
		}
		if !f.From.IsZero() && l.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && l.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, copyLog(l))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats is the aggregate view over the store's current contents.
type Stats struct {
	Total              int            `json:"total"`
	Successful         int            `json:"successful"`
	Failed             int            `json:"failed"`
	AverageResponseMS  float64        `json:"average_response_ms"`
	SuccessRatePercent float64        `json:"success_rate_percent"`
	CountsByEventType  map[string]int `json:"counts_by_event_type"`
	RecentErrors       []string       `json:"recent_errors,omitempty"`
}

// ComputeStats walks the store on demand; nothing is maintained
// incrementally. An empty destinationID aggregates across all destinations.
func (s *Store) ComputeStats(destinationID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{CountsByEventType: make(map[string]int)}
	var latencySum int64
	var completed int

	type failedEntry struct {
		at  time.Time
		msg string
	}
	var failures []failedEntry

	for _, l := range s.logs {
		if destinationID != "" && l.DestinationID != destinationID {
			continue
		}
		st.Total++
		st.CountsByEventType[l.Payload.EventType]++
		if l.Result == nil {
			continue
		}
		completed++
		latencySum += l.Result.LatencyMS
		if l.Result.Success {
			st.Successful++
		} else {
			st.Failed++
			if l.Result.Error != "" {
				failures = append(failures, failedEntry{at: l.Result.CompletedAt, msg: l.Result.Error})
			}
		}
	}

	if completed > 0 {
		st.AverageResponseMS = float64(latencySum) / float64(completed)
		st.SuccessRatePercent = float64(st.Successful) / float64(completed) * 100
	}

	// Distinct error strings, most recent first.
	sort.Slice(failures, func(i, j int) bool { return failures[i].at.After(failures[j].at) })
	seen := make(map[string]bool)
	for _, f := range failures {
		if seen[f.msg] {
			continue
		}
		seen[f.msg] = true
		st.RecentErrors = append(st.RecentErrors, f.msg)
		if len(st.RecentErrors) >= recentErrorCap {
			break
		}
	}

	return st
}

// SweepOlderThan evicts terminal logs created before the cutoff and returns
// the count removed. Non-terminal logs are never touched.
func (s *Store) SweepOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, l := range s.logs {
		if !l.State.Terminal() {
			continue
		}
		if l.CreatedAt.Before(cutoff) {
			delete(s.logs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of logs currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

func copyLog(l *DeliveryLog) DeliveryLog {
	out := *l
	if l.Attempts != nil {
		out.Attempts = append([]DeliveryAttempt(nil), l.Attempts...)
	}
	if l.Result != nil {
		res := *l.Result
		out.Result = &res
	}
	if l.CompletedAt != nil {
		ts := *l.CompletedAt
		out.CompletedAt = &ts
	}
	return out
}
