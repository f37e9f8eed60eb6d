package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
)

const (
	// Version is the product version advertised in the User-Agent header.
	Version = "1.0.0"

	userAgent = "BugSignal-Webhook/" + Version

	sigHeader      = "X-Webhook-Signature"
	attemptHeader  = "X-Webhook-Attempt"
	eventHeader    = "X-Webhook-Event"
	deliveryHeader = "X-Webhook-Delivery"
)

// Sign computes the hex HMAC-SHA256 signature over the destination id and
// the serialized payload. The signature is stable across retries of the same
// payload; replay distinction is the receiver's job via the delivery id and
// attempt headers.
func Sign(secret, destinationID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(destinationID))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature against the expected one in
// constant time. Used by receivers (and the fake receiver).
func VerifySignature(secret, destinationID string, body []byte, got string) bool {
	want := Sign(secret, destinationID, body)
	return hmac.Equal([]byte(got), []byte(want))
}

// BuildHeaders produces the full header set for one attempt: content type,
// user agent, the X-Webhook-* envelope, config static headers, the auth
// header for the destination's auth kind, and the payload signature.
func BuildHeaders(cfg DestinationConfig, eventType, deliveryID string, attempt int, signature string) (http.Header, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", userAgent)
	h.Set(attemptHeader, strconv.Itoa(attempt))
	h.Set(eventHeader, eventType)
	h.Set(deliveryHeader, deliveryID)
	h.Set(sigHeader, signature)

	for k, v := range cfg.Headers {
		h.Set(k, v)
	}

	switch cfg.Auth.Kind {
	case AuthNone, "":
	case AuthBearer:
		h.Set("Authorization", "Bearer "+cfg.Auth.Token)
	case AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.Auth.Username + ":" + cfg.Auth.Password))
		h.Set("Authorization", "Basic "+creds)
	case AuthAPIKey:
		h.Set(cfg.Auth.APIKeyHeader, cfg.Auth.APIKey)
	default:
		return nil, fmt.Errorf("unknown auth kind %q", cfg.Auth.Kind)
	}

	return h, nil
}
