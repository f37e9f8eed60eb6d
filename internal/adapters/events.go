package adapters

import "strings"

// MetricsEvent is the generic metrics-platform event shape.
type MetricsEvent struct {
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	DateHappened int64    `json:"date_happened"`
	Priority     string   `json:"priority"`   // normal | low
	AlertType    string   `json:"alert_type"` // info | warning | error
	Tags         []string `json:"tags"`
}

// ToMetricsEvent renders the snapshot as a metrics-platform event.
// High and critical severities get normal priority; everything else is low.
func ToMetricsEvent(b Bug) MetricsEvent {
	priority := "low"
	switch strings.ToLower(b.Severity) {
	case "high", "critical":
		priority = "normal"
	}
	return MetricsEvent{
		Title:        b.Title,
		Text:         b.Description,
		DateHappened: b.UpdatedAt.Unix(),
		Priority:     priority,
		AlertType:    severityLevel(b.Severity),
		Tags: []string{
			"bug_id:" + b.ID,
			"status:" + b.Status,
			"priority:" + b.Priority,
			"severity:" + b.Severity,
			"component:" + b.Component,
		},
	}
}
