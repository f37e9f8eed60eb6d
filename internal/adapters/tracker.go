package adapters

// TrackerPayload is the generic error-tracker shape.
type TrackerPayload struct {
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Level       string            `json:"level"`
	Tags        map[string]string `json:"tags"`
	Context     map[string]any    `json:"context,omitempty"`
	Fingerprint string            `json:"fingerprint"`
}

// ToTracker renders the snapshot for an error tracker. The fingerprint is a
// stable function of the bug id and normalized title so the receiver can
// deduplicate repeated notifications about the same bug.
func ToTracker(b Bug, context map[string]any) TrackerPayload {
	return TrackerPayload{
		Title:   b.Title,
		Message: b.Description,
		Level:   severityLevel(b.Severity),
		Tags: map[string]string{
			"bug_id":    b.ID,
			"status":    b.Status,
			"priority":  b.Priority,
			"type":      b.Type,
			"component": b.Component,
		},
		Context:     context,
		Fingerprint: b.ID + ":" + normalizeTitle(b.Title),
	}
}
