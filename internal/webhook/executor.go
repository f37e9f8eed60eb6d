package webhook

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"
)

// Outcome is the normalized result of a single delivery attempt: an HTTP
// status code, or a transport-level error, plus the measured latency.
type Outcome struct {
	StatusCode int
	Err        error
	Latency    time.Duration
}

// Success reports whether the attempt landed a 2xx response.
func (o Outcome) Success() bool {
	return o.Err == nil && o.StatusCode >= 200 && o.StatusCode < 300
}

// Executor performs one HTTP POST attempt with a bounded timeout.
type Executor struct {
	client *http.Client
	clock  Clock
}

// NewExecutor returns an executor whose attempts are cut off after timeout.
func NewExecutor(timeout time.Duration, clock Clock) *Executor {
	if clock == nil {
		clock = RealClock()
	}
	return &Executor{
		client: &http.Client{Timeout: timeout},
		clock:  clock,
	}
}

// Do sends the pre-serialized payload to the destination. Any non-2xx status
// or transport failure comes back in the Outcome; Do itself never fails.
func (e *Executor) Do(ctx context.Context, cfg DestinationConfig, body []byte, eventType, deliveryID string, attempt int, signature string) Outcome {
	headers, err := BuildHeaders(cfg, eventType, deliveryID, attempt, signature)
	if err != nil {
		return Outcome{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Err: err}
	}
	req.Header = headers

	start := e.clock.Now()
	resp, doErr := e.client.Do(req)
	latency := e.clock.Now().Sub(start)
	status := 0
	if doErr == nil {
		status = resp.StatusCode
		_ = resp.Body.Close()
	}

	return Outcome{StatusCode: status, Err: doErr, Latency: latency}
}

// ClassifyReason buckets a failed attempt for metrics.
func ClassifyReason(doErr error, status int) string {
	if doErr != nil {
		errLower := strings.ToLower(doErr.Error())
		if strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline exceeded") {
			return "timeout"
		}
		if strings.Contains(errLower, "connection refused") {
			return "connection_refused"
		}
		if strings.Contains(errLower, "no such host") || strings.Contains(errLower, "dns") {
			return "dns_error"
		}
		return "network"
	}
	if status >= 500 {
		return "http_5xx"
	}
	if status == 429 {
		return "http_429"
	}
	if status >= 400 {
		return "http_4xx"
	}
	return "other"
}
