package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeQueue struct {
	depth    int
	inFlight int
}

func (f fakeQueue) QueueDepth() int { return f.depth }
func (f fakeQueue) InFlight() int   { return f.inFlight }

func TestHTTPHandler(t *testing.T) {
	handler := HTTPHandler(fakeQueue{depth: 4, inFlight: 2})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if !st.OK {
		t.Error("OK = false, want true")
	}
	if st.QueueDepth != 4 || st.InFlight != 2 {
		t.Errorf("load = (%d, %d), want (4, 2)", st.QueueDepth, st.InFlight)
	}
}

func TestHTTPHandlerNilQueue(t *testing.T) {
	rec := httptest.NewRecorder()
	HTTPHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if !st.OK {
		t.Error("OK = false, want true with no queue wired")
	}
}
