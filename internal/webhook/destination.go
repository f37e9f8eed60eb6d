package webhook

import (
	"fmt"
	"net/url"
	"time"
)

// AuthKind selects how outgoing requests to a destination authenticate.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthBearer AuthKind = "bearer"
	AuthBasic  AuthKind = "basic"
	AuthAPIKey AuthKind = "api-key"
)

// AuthConfig carries fully-resolved credential material for one destination.
// Secret resolution and rotation happen upstream; this core only consumes
// materialized values.
type AuthConfig struct {
	Kind         AuthKind `json:"kind"`
	Token        string   `json:"token,omitempty"`          // bearer
	Username     string   `json:"username,omitempty"`       // basic
	Password     string   `json:"password,omitempty"`       // basic
	APIKeyHeader string   `json:"api_key_header,omitempty"` // api-key
	APIKey       string   `json:"api_key,omitempty"`        // api-key
	// SigningSecret keys the HMAC signature attached to every request.
	SigningSecret string `json:"signing_secret,omitempty"`
}

// RetryPolicy bounds the retry loop for one destination.
type RetryPolicy struct {
	MaxRetries        int           `json:"max_retries"`
	BackoffBase       time.Duration `json:"backoff_base"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	MaxBackoffDelay   time.Duration `json:"max_backoff_delay"`
}

// DefaultRetryPolicy returns the policy applied when a destination leaves
// retry settings unset.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoffDelay:   time.Minute,
	}
}

// normalized fills zero-valued fields from the default policy.
func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = def.BackoffBase
	}
	if p.BackoffMultiplier < 1 {
		p.BackoffMultiplier = def.BackoffMultiplier
	}
	if p.MaxBackoffDelay <= 0 {
		p.MaxBackoffDelay = def.MaxBackoffDelay
	}
	return p
}

// DestinationConfig describes one external receiver. It is created by the
// configuration surface and read-only inside the delivery core.
type DestinationConfig struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	EventTypes []string          `json:"event_types,omitempty"`
	Auth       AuthConfig        `json:"auth"`
	Headers    map[string]string `json:"headers,omitempty"`
	Retry      RetryPolicy       `json:"retry"`
}

// Validate reports configuration errors that must fail fast at enqueue time
// instead of being retried.
func (c DestinationConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("destination id is required")
	}
	u, err := url.ParseRequestURI(c.URL)
	if err != nil {
		return fmt.Errorf("invalid destination url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid destination url scheme %q", u.Scheme)
	}
	switch c.Auth.Kind {
	case AuthNone, AuthBearer, AuthBasic, AuthAPIKey, "":
	default:
		return fmt.Errorf("unknown auth kind %q", c.Auth.Kind)
	}
	if c.Auth.Kind == AuthAPIKey && c.Auth.APIKeyHeader == "" {
		return fmt.Errorf("api-key auth requires a header name")
	}
	return nil
}

// SubscribesTo reports whether the destination wants the given event type.
// An empty subscription list means all event types.
func (c DestinationConfig) SubscribesTo(eventType string) bool {
	if len(c.EventTypes) == 0 {
		return true
	}
	for _, et := range c.EventTypes {
		if et == eventType {
			return true
		}
	}
	return false
}
