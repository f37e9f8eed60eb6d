package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/austindbirch/bugsignal/internal/webhook"
)

func newTestHandler(t *testing.T) (http.Handler, *webhook.Dispatcher) {
	t.Helper()
	store := webhook.NewStore(nil)
	engine := webhook.NewEngine(webhook.NewExecutor(5*time.Second, nil), store, nil)
	d := webhook.NewDispatcher(store, engine, nil, webhook.DispatcherOptions{})

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	return NewServer(d).Routes(nil, healthHandler, promhttp.Handler()), d
}

func deliveryBody(t *testing.T, url string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"destination": map[string]any{"id": "dest-1", "url": url},
		"payload":     map[string]any{"event_type": "bug.created", "subject_id": "BUG-1"},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(body)
}

func TestHandleEnqueue(t *testing.T) {
	handler, d := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/deliveries", deliveryBody(t, "https://example.com/hook")))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	id := resp["delivery_id"]
	if id == "" {
		t.Fatal("response missing delivery_id")
	}
	if l, ok := d.Store().Get(id); !ok || l.State != webhook.StateQueued {
		t.Errorf("delivery %s not queued in store", id)
	}
}

func TestHandleEnqueueRejectsInvalid(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "bad destination", body: `{"destination":{"id":"d","url":"ftp://x"},"payload":{"event_type":"bug.created"}}`},
		{name: "missing event type", body: `{"destination":{"id":"d","url":"https://example.com"},"payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/deliveries", bytes.NewReader([]byte(tt.body))))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleDeliverSync(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer receiver.Close()

	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/deliveries/sync", deliveryBody(t, receiver.URL)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res webhook.DeliveryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !res.Success {
		t.Errorf("result.Success = false, error %q", res.Error)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("result.StatusCode = %d, want 200", res.StatusCode)
	}
}

func TestHandleGet(t *testing.T) {
	handler, d := newTestHandler(t)
	id := d.Store().Create("d-1", "dest-1", webhook.NewPayload("bug.created", "BUG-1", nil)).DeliveryID

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/deliveries/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var l webhook.DeliveryLog
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatalf("unmarshal log: %v", err)
	}
	if l.DeliveryID != id {
		t.Errorf("DeliveryID = %s, want %s", l.DeliveryID, id)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/deliveries/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for unknown delivery = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleLogs(t *testing.T) {
	handler, d := newTestHandler(t)
	store := d.Store()
	store.Create("d-1", "dest-a", webhook.NewPayload("bug.created", "BUG-1", nil))
	store.Create("d-2", "dest-b", webhook.NewPayload("bug.resolved", "BUG-2", nil))

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantCode  int
	}{
		{name: "all", query: "", wantCount: 2, wantCode: http.StatusOK},
		{name: "by destination", query: "?destination_id=dest-a", wantCount: 1, wantCode: http.StatusOK},
		{name: "by event type", query: "?event_type=bug.resolved", wantCount: 1, wantCode: http.StatusOK},
		{name: "limit", query: "?limit=1", wantCount: 1, wantCode: http.StatusOK},
		{name: "bad success flag", query: "?success=maybe", wantCode: http.StatusBadRequest},
		{name: "bad from timestamp", query: "?from=yesterday", wantCode: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=-1", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/logs"+tt.query, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				Count int                   `json:"count"`
				Logs  []webhook.DeliveryLog `json:"logs"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Count != tt.wantCount || len(resp.Logs) != tt.wantCount {
				t.Errorf("count = %d (%d logs), want %d", resp.Count, len(resp.Logs), tt.wantCount)
			}
		})
	}
}

func TestHandleStats(t *testing.T) {
	handler, d := newTestHandler(t)
	store := d.Store()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("d-%d", i)
		store.Create(id, "dest-a", webhook.NewPayload("bug.created", "BUG-1", nil))
		store.Complete(id, webhook.DeliveryResult{Success: i < 2, LatencyMS: 30, CompletedAt: time.Now()})
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var st webhook.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if st.Total != 3 || st.Successful != 2 || st.Failed != 1 {
		t.Errorf("stats = %+v, want total 3, successful 2, failed 1", st)
	}
}

func TestHealthzUnauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
