package webhook

import (
	"time"

	"github.com/google/uuid"
)

// PayloadMeta threads tracing metadata through a delivery.
type PayloadMeta struct {
	CorrelationID string    `json:"correlation_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// DeliveryPayload is the unit handed to the dispatcher: one event about one
// subject, destined for exactly one attempt sequence. Immutable once built.
type DeliveryPayload struct {
	EventType string         `json:"event_type"`
	SubjectID string         `json:"subject_id"`
	Data      map[string]any `json:"data,omitempty"`
	Meta      PayloadMeta    `json:"meta"`
}

// NewPayload builds a payload with a fresh correlation id.
func NewPayload(eventType, subjectID string, data map[string]any) DeliveryPayload {
	return DeliveryPayload{
		EventType: eventType,
		SubjectID: subjectID,
		Data:      data,
		Meta: PayloadMeta{
			CorrelationID: uuid.NewString(),
			OccurredAt:    time.Now().UTC(),
		},
	}
}
