package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExecutorDo(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantSuccess bool
	}{
		{name: "200 is success", status: http.StatusOK, wantSuccess: true},
		{name: "204 is success", status: http.StatusNoContent, wantSuccess: true},
		{name: "400 is failure", status: http.StatusBadRequest, wantSuccess: false},
		{name: "500 is failure", status: http.StatusInternalServerError, wantSuccess: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAttempt, gotEvent, gotDelivery string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAttempt = r.Header.Get("X-Webhook-Attempt")
				gotEvent = r.Header.Get("X-Webhook-Event")
				gotDelivery = r.Header.Get("X-Webhook-Delivery")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cfg := DestinationConfig{ID: "dest-1", URL: srv.URL}
			exec := NewExecutor(5*time.Second, RealClock())
			out := exec.Do(context.Background(), cfg, []byte(`{}`), "bug.created", "delivery-1", 2, "sig")

			if out.Success() != tt.wantSuccess {
				t.Errorf("Success() = %v, want %v (status %d)", out.Success(), tt.wantSuccess, out.StatusCode)
			}
			if out.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.status)
			}
			if gotAttempt != "2" || gotEvent != "bug.created" || gotDelivery != "delivery-1" {
				t.Errorf("envelope headers = (%q, %q, %q), want (2, bug.created, delivery-1)", gotAttempt, gotEvent, gotDelivery)
			}
		})
	}
}

func TestExecutorDoTransportError(t *testing.T) {
	// Closed server -> connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := DestinationConfig{ID: "dest-1", URL: url}
	exec := NewExecutor(time.Second, RealClock())
	out := exec.Do(context.Background(), cfg, []byte(`{}`), "bug.created", "d-1", 1, "sig")

	if out.Err == nil {
		t.Fatal("Do() Err = nil, want transport error")
	}
	if out.Success() {
		t.Error("Success() = true for a transport error")
	}
}

func TestExecutorDoTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	cfg := DestinationConfig{ID: "dest-1", URL: srv.URL}
	exec := NewExecutor(50*time.Millisecond, RealClock())
	out := exec.Do(context.Background(), cfg, []byte(`{}`), "bug.created", "d-1", 1, "sig")

	if out.Err == nil {
		t.Fatal("Do() Err = nil, want timeout error")
	}
	if got := ClassifyReason(out.Err, out.StatusCode); got != "timeout" {
		t.Errorf("ClassifyReason() = %q, want %q", got, "timeout")
	}
}

func TestClassifyReason(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{name: "timeout error", err: errors.New("context deadline exceeded (Client.Timeout exceeded)"), want: "timeout"},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), want: "connection_refused"},
		{name: "dns failure", err: errors.New("dial tcp: lookup nosuchhost: no such host"), want: "dns_error"},
		{name: "other network error", err: errors.New("EOF"), want: "network"},
		{name: "server error", status: 503, want: "http_5xx"},
		{name: "rate limited", status: 429, want: "http_429"},
		{name: "client error", status: 404, want: "http_4xx"},
		{name: "unclassified", status: 301, want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyReason(tt.err, tt.status); got != tt.want {
				t.Errorf("ClassifyReason(%v, %d) = %q, want %q", tt.err, tt.status, got, tt.want)
			}
		})
	}
}
