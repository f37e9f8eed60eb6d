package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/austindbirch/bugsignal/internal/logging"
	"github.com/austindbirch/bugsignal/internal/metrics"
	"github.com/austindbirch/bugsignal/internal/tracing"
)

// Engine drives one delivery through its attempt sequence: attempt, record,
// back off, retry, until a 2xx response or retry exhaustion. Every attempt
// lands in the store; the final result is written exactly once. Failure is
// reported through the result, never as an error to the caller.
type Engine struct {
	exec   *Executor
	store  *Store
	clock  Clock
	logger *logging.Logger
}

// NewEngine wires the executor and store into a retry engine.
func NewEngine(exec *Executor, store *Store, clock Clock) *Engine {
	if clock == nil {
		clock = RealClock()
	}
	return &Engine{
		exec:   exec,
		store:  store,
		clock:  clock,
		logger: logging.New("bugsignal-delivery"),
	}
}

// backoffDelay returns the sleep before the given 1-based attempt:
// none before the first, then base*multiplier^(n-1) capped at the policy max.
func backoffDelay(p RetryPolicy, attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := float64(p.BackoffBase) * math.Pow(p.BackoffMultiplier, float64(attempt-1))
	if d > float64(p.MaxBackoffDelay) {
		return p.MaxBackoffDelay
	}
	return time.Duration(d)
}

// Run executes the full attempt sequence for an already-registered delivery
// log. The ctx is only consulted between attempts; queued deliveries run
// with a background context and always reach a terminal state.
func (e *Engine) Run(ctx context.Context, cfg DestinationConfig, p DeliveryPayload, deliveryID string) DeliveryResult {
	ctx, span := tracing.StartSpan(ctx, "delivery.run",
		attribute.String("delivery_id", deliveryID),
		attribute.String("destination_id", cfg.ID),
		attribute.String("event_type", p.EventType),
	)
	defer span.End()

	policy := cfg.Retry.normalized()
	body, _ := json.Marshal(p)
	sig := Sign(cfg.Auth.SigningSecret, cfg.ID, body)

	queuedAt := e.clock.Now()
	if l, ok := e.store.Get(deliveryID); ok {
		queuedAt = l.CreatedAt
	}

	var (
		lastOut  Outcome
		attempts int
	)
	maxAttempts := policy.MaxRetries + 1

	for n := 1; n <= maxAttempts; n++ {
		if delay := backoffDelay(policy, n); delay > 0 {
			e.store.SetState(deliveryID, StateWaitingRetry)
			tracing.AddSpanEvent(ctx, "delivery.backoff",
				attribute.Int("attempt", n),
				attribute.String("delay", delay.String()),
			)
			select {
			case <-e.clock.After(delay):
			case <-ctx.Done():
				retries := attempts - 1
				if retries < 0 {
					retries = 0
				}
				return e.finalize(ctx, cfg, deliveryID, queuedAt, DeliveryResult{
					Success:    false,
					StatusCode: lastOut.StatusCode,
					Error:      ctx.Err().Error(),
					RetryCount: retries,
				})
			}
		}

		e.store.SetState(deliveryID, StateAttempting)
		out := e.exec.Do(ctx, cfg, body, p.EventType, deliveryID, n, sig)
		lastOut = out
		attempts = n

		att := DeliveryAttempt{
			Number:     n,
			At:         e.clock.Now(),
			StatusCode: out.StatusCode,
			Error:      errString(out.Err),
			LatencyMS:  out.Latency.Milliseconds(),
		}
		if err := e.store.AppendAttempt(deliveryID, att); err != nil {
			e.logger.WithContext(ctx).WithDelivery(deliveryID).WithError(err).Error("record attempt failed")
		}

		if out.Success() {
			metrics.RecordAttempt("success")
			tracing.AddSpanEvent(ctx, "delivery.success", attribute.Int("attempt", n))
			return e.finalize(ctx, cfg, deliveryID, queuedAt, DeliveryResult{
				Success:    true,
				StatusCode: out.StatusCode,
				RetryCount: n - 1,
			})
		}

		reason := ClassifyReason(out.Err, out.StatusCode)
		metrics.RecordAttempt("failure")
		span.SetAttributes(attribute.String("failure_reason", reason))
		e.logger.WithContext(ctx).WithDelivery(deliveryID).WithDestination(cfg.ID).WithFields(map[string]any{
			"attempt": n,
			"status":  out.StatusCode,
			"reason":  reason,
		}).WithError(out.Err).Warn("delivery attempt failed")

		if n < maxAttempts {
			metrics.RecordRetry(reason)
		}
	}

	tracing.AddSpanEvent(ctx, "delivery.exhausted", attribute.Int("attempts", attempts))
	res := DeliveryResult{
		Success:    false,
		StatusCode: lastOut.StatusCode,
		RetryCount: attempts - 1,
	}
	if lastOut.Err != nil {
		res.Error = lastOut.Err.Error()
	} else {
		res.Error = fmt.Sprintf("unexpected status %d", lastOut.StatusCode)
	}
	return e.finalize(ctx, cfg, deliveryID, queuedAt, res)
}

// finalize stamps the result, writes it to the store and emits metrics.
func (e *Engine) finalize(ctx context.Context, cfg DestinationConfig, deliveryID string, queuedAt time.Time, res DeliveryResult) DeliveryResult {
	now := e.clock.Now()
	res.CompletedAt = now
	res.LatencyMS = now.Sub(queuedAt).Milliseconds()

	if err := e.store.Complete(deliveryID, res); err != nil {
		e.logger.WithContext(ctx).WithDelivery(deliveryID).WithError(err).Error("finalize delivery failed")
	}

	status := "failed"
	if res.Success {
		status = "delivered"
	}
	metrics.RecordDelivery(status, cfg.ID, now.Sub(queuedAt))
	e.logger.WithContext(ctx).WithDelivery(deliveryID).WithDestination(cfg.ID).WithFields(map[string]any{
		"success":     res.Success,
		"retry_count": res.RetryCount,
		"latency_ms":  res.LatencyMS,
	}).Info("delivery finished")
	return res
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
