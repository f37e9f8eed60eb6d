// Package adapters maps a bug snapshot to the payload shapes expected by
// the supported destination families. All transforms are pure; none touch
// I/O or global state.
package adapters

import (
	"encoding/json"
	"strings"
	"time"
)

// Bug is the domain snapshot a lifecycle event carries.
type Bug struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Severity    string    `json:"severity"` // low | medium | high | critical
	Type        string    `json:"type,omitempty"`
	Component   string    `json:"component,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	Reporter    string    `json:"reporter,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// severityLevel maps bug severity to an error-tracker level.
func severityLevel(severity string) string {
	switch strings.ToLower(severity) {
	case "low":
		return "info"
	case "medium":
		return "warning"
	case "high", "critical":
		return "error"
	default:
		return "info"
	}
}

// severityColor maps bug severity to a chat attachment color.
func severityColor(severity string) string {
	switch strings.ToLower(severity) {
	case "low":
		return "#36a64f"
	case "medium":
		return "#ff9500"
	case "high":
		return "#ff0000"
	case "critical":
		return "#8b0000"
	default:
		return "#36a64f"
	}
}

// normalizeTitle flattens a title into a fingerprint-safe token.
func normalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	return strings.Join(strings.Fields(t), "-")
}

// ToMap converts an adapter payload into the generic data envelope carried
// by a delivery.
func ToMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
