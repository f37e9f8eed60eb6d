package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2,
		MaxBackoffDelay:   time.Minute,
	}
}

func newTestEngine(t *testing.T) (*Engine, *Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	store := NewStore(clock)
	exec := NewExecutor(5*time.Second, clock)
	return NewEngine(exec, store, clock), store, clock
}

func runDelivery(t *testing.T, engine *Engine, store *Store, cfg DestinationConfig, p DeliveryPayload) (DeliveryResult, DeliveryLog) {
	t.Helper()
	const id = "delivery-test"
	store.Create(id, cfg.ID, p)
	res := engine.Run(context.Background(), cfg, p, id)
	l, ok := store.Get(id)
	if !ok {
		t.Fatal("delivery log missing after run")
	}
	return res, l
}

func TestBackoffDelay(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 0},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 4, want: 8 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(p, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	// Capped at the policy max and non-decreasing from there.
	capped := RetryPolicy{MaxRetries: 10, BackoffBase: time.Second, BackoffMultiplier: 2, MaxBackoffDelay: 5 * time.Second}
	prev := time.Duration(0)
	for n := 2; n <= 11; n++ {
		d := backoffDelay(capped, n)
		if d > capped.MaxBackoffDelay {
			t.Errorf("backoffDelay(attempt=%d) = %v exceeds cap %v", n, d, capped.MaxBackoffDelay)
		}
		if d < prev {
			t.Errorf("backoffDelay(attempt=%d) = %v decreased from %v", n, d, prev)
		}
		prev = d
	}
}

func TestRunFirstTrySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	engine, store, clock := newTestEngine(t)
	cfg := DestinationConfig{ID: "dest-1", URL: srv.URL, Retry: testPolicy()}

	res, l := runDelivery(t, engine, store, cfg, NewPayload("bug.created", "BUG-1", nil))

	if !res.Success {
		t.Fatalf("result.Success = false, error %q", res.Error)
	}
	if res.RetryCount != 0 {
		t.Errorf("result.RetryCount = %d, want 0", res.RetryCount)
	}
	if len(l.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(l.Attempts))
	}
	if l.State != StateSuccess {
		t.Errorf("state = %q, want %q", l.State, StateSuccess)
	}
	if l.CompletedAt == nil {
		t.Error("CompletedAt not set on terminal delivery")
	}
	if got := clock.Sleeps(); len(got) != 0 {
		t.Errorf("backoff sleeps = %v, want none", got)
	}
}

func TestRunEventualSuccess(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	engine, store, clock := newTestEngine(t)
	cfg := DestinationConfig{ID: "dest-1", URL: srv.URL, Retry: testPolicy()}

	res, l := runDelivery(t, engine, store, cfg, NewPayload("bug.updated", "BUG-2", nil))

	if !res.Success {
		t.Fatalf("result.Success = false, error %q", res.Error)
	}
	if res.RetryCount != 2 {
		t.Errorf("result.RetryCount = %d, want 2", res.RetryCount)
	}
	if len(l.Attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(l.Attempts))
	}
	// Invariant: attempts == retryCount+1 on success.
	if len(l.Attempts) != res.RetryCount+1 {
		t.Errorf("attempts = %d, want retryCount+1 = %d", len(l.Attempts), res.RetryCount+1)
	}
	for i, att := range l.Attempts {
		if att.Number != i+1 {
			t.Errorf("attempt[%d].Number = %d, want %d", i, att.Number, i+1)
		}
	}
	if l.Attempts[0].StatusCode != 500 || l.Attempts[2].StatusCode != 200 {
		t.Errorf("attempt statuses = %d..%d, want 500..200", l.Attempts[0].StatusCode, l.Attempts[2].StatusCode)
	}

	wantSleeps := []time.Duration{2 * time.Second, 4 * time.Second}
	sleeps := clock.Sleeps()
	if len(sleeps) != len(wantSleeps) {
		t.Fatalf("backoff sleeps = %v, want %v", sleeps, wantSleeps)
	}
	for i := range wantSleeps {
		if sleeps[i] != wantSleeps[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, sleeps[i], wantSleeps[i])
		}
	}
}

func TestRunRetryExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine, store, _ := newTestEngine(t)
	cfg := DestinationConfig{ID: "dest-1", URL: srv.URL, Retry: testPolicy()}

	res, l := runDelivery(t, engine, store, cfg, NewPayload("bug.closed", "BUG-3", nil))

	if res.Success {
		t.Fatal("result.Success = true, want false")
	}
	// Invariant: attempts == maxRetries+1 on exhaustion.
	if len(l.Attempts) != cfg.Retry.MaxRetries+1 {
		t.Errorf("attempts = %d, want %d", len(l.Attempts), cfg.Retry.MaxRetries+1)
	}
	if res.RetryCount != cfg.Retry.MaxRetries {
		t.Errorf("result.RetryCount = %d, want %d", res.RetryCount, cfg.Retry.MaxRetries)
	}
	if res.Error == "" {
		t.Error("result.Error empty on exhausted delivery")
	}
	if l.State != StateExhausted {
		t.Errorf("state = %q, want %q", l.State, StateExhausted)
	}
}

func TestRunTransportFailureRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	engine, store, _ := newTestEngine(t)
	cfg := DestinationConfig{ID: "dest-1", URL: url, Retry: RetryPolicy{MaxRetries: 1, BackoffBase: time.Second, BackoffMultiplier: 2, MaxBackoffDelay: time.Minute}}

	res, l := runDelivery(t, engine, store, cfg, NewPayload("bug.created", "BUG-4", nil))

	if res.Success {
		t.Fatal("result.Success = true, want false")
	}
	if len(l.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(l.Attempts))
	}
	for i, att := range l.Attempts {
		if att.Error == "" {
			t.Errorf("attempt[%d].Error empty, want transport error description", i)
		}
	}
	if !strings.Contains(res.Error, "connection refused") {
		t.Errorf("result.Error = %q, want a connection refused description", res.Error)
	}
}

func TestRunSignatureStableAcrossRetries(t *testing.T) {
	var mu sync.Mutex
	var sigs, attempts []string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sigs = append(sigs, r.Header.Get("X-Webhook-Signature"))
		attempts = append(attempts, r.Header.Get("X-Webhook-Attempt"))
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	engine, store, _ := newTestEngine(t)
	cfg := DestinationConfig{
		ID:    "dest-1",
		URL:   srv.URL,
		Auth:  AuthConfig{Kind: AuthBearer, Token: "t", SigningSecret: "shh"},
		Retry: testPolicy(),
	}

	res, _ := runDelivery(t, engine, store, cfg, NewPayload("bug.updated", "BUG-5", nil))
	if !res.Success {
		t.Fatalf("result.Success = false, error %q", res.Error)
	}

	if len(sigs) != 3 {
		t.Fatalf("server saw %d requests, want 3", len(sigs))
	}
	if sigs[0] == "" || sigs[0] != sigs[1] || sigs[1] != sigs[2] {
		t.Errorf("signature changed across retries: %v", sigs)
	}
	want := []string{"1", "2", "3"}
	for i := range want {
		if attempts[i] != want[i] {
			t.Errorf("attempt header[%d] = %q, want %q", i, attempts[i], want[i])
		}
	}
}
