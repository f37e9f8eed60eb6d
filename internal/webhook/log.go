package webhook

import "time"

// DeliveryState tracks where a delivery sits in its lifecycle.
// Queued is the only initial state; Success and Exhausted are terminal.
type DeliveryState string

const (
	StateQueued       DeliveryState = "queued"
	StateAttempting   DeliveryState = "attempting"
	StateWaitingRetry DeliveryState = "waiting_retry"
	StateSuccess      DeliveryState = "success"
	StateExhausted    DeliveryState = "exhausted"
)

// Terminal reports whether the state ends the delivery lifecycle.
func (s DeliveryState) Terminal() bool {
	return s == StateSuccess || s == StateExhausted
}

// DeliveryAttempt records a single HTTP try. Append-only once recorded.
type DeliveryAttempt struct {
	Number     int       `json:"number"` // 1-based
	At         time.Time `json:"at"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
}

// DeliveryResult is computed exactly once, after the last attempt.
type DeliveryResult struct {
	Success     bool      `json:"success"`
	StatusCode  int       `json:"status_code,omitempty"`
	LatencyMS   int64     `json:"latency_ms"` // queue to completion
	Error       string    `json:"error,omitempty"`
	RetryCount  int       `json:"retry_count"`
	CompletedAt time.Time `json:"completed_at"`
}

// DeliveryLog is the durable record of one delivery: the payload, every
// attempt in order, and the final result. It becomes immutable once
// CompletedAt is set.
type DeliveryLog struct {
	DeliveryID    string            `json:"delivery_id"`
	DestinationID string            `json:"destination_id"`
	Payload       DeliveryPayload   `json:"payload"`
	State         DeliveryState     `json:"state"`
	Attempts      []DeliveryAttempt `json:"attempts,omitempty"`
	Result        *DeliveryResult   `json:"result,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}
