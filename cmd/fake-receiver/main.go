package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/austindbirch/bugsignal/internal/config"
	"github.com/austindbirch/bugsignal/internal/webhook"
)

const sigHeader = "X-Webhook-Signature"

var (
	cfg      config.FakeReceiver
	reqCount = 0
)

func main() {
	cfg = config.FromEnv().FakeReceiver

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) })
	mux.HandleFunc("/hook", handleHook)

	log.Printf("fake-receiver listening on %s", cfg.Port)
	log.Fatal(http.ListenAndServe(cfg.Port, mux))
}

func handleHook(w http.ResponseWriter, r *http.Request) {
	reqCount++
	b, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	if cfg.ResponseDelayMS > 0 {
		time.Sleep(time.Duration(cfg.ResponseDelayMS) * time.Millisecond)
	}

	if cfg.SigningSecret != "" {
		got := r.Header.Get(sigHeader)
		if got == "" {
			http.Error(w, "missing signature", http.StatusUnauthorized)
			return
		}
		if !webhook.VerifySignature(cfg.SigningSecret, cfg.DestinationID, b, got) {
			log.Printf("fake-receiver signature mismatch delivery=%s attempt=%s",
				r.Header.Get("X-Webhook-Delivery"), r.Header.Get("X-Webhook-Attempt"))
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	// Simulate flakiness: first N requests -> 500
	if reqCount <= cfg.FailFirstN {
		log.Printf("FAILING (%d/%d) delivery=%s attempt=%s body=%s",
			reqCount, cfg.FailFirstN, r.Header.Get("X-Webhook-Delivery"), r.Header.Get("X-Webhook-Attempt"), truncate(string(b), 160))
		http.Error(w, "temporary failure", http.StatusInternalServerError)
		return
	}

	log.Printf("fake-receiver OK event=%s delivery=%s attempt=%s body=%q",
		r.Header.Get("X-Webhook-Event"), r.Header.Get("X-Webhook-Delivery"), r.Header.Get("X-Webhook-Attempt"), truncate(string(b), 160))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`ok`))
}

// truncate truncates a string to the specified length and adds an ellipsis if truncated
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
