package adapters

import (
	"fmt"
	"strings"
)

// ChatField is one key/value pair inside a chat attachment.
type ChatField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// ChatAttachment is a colored block holding the bug details.
type ChatAttachment struct {
	Color  string      `json:"color"`
	Fields []ChatField `json:"fields"`
	Footer string      `json:"footer"`
	Ts     int64       `json:"ts"`
}

// ChatMessage is the generic chat-channel shape: a one-line summary plus a
// single colored attachment.
type ChatMessage struct {
	Text        string           `json:"text"`
	Attachments []ChatAttachment `json:"attachments"`
}

// statusGlyph picks the marker prefixed to the chat summary line.
func statusGlyph(status string) string {
	switch strings.ToLower(status) {
	case "open", "new":
		return "\U0001F41B" // bug
	case "in_progress", "in-progress":
		return "\U0001F527" // wrench
	case "resolved", "fixed":
		return "✅" // check mark
	case "closed":
		return "\U0001F4E6" // package
	default:
		return "\U0001F514" // bell
	}
}

// ToChatMessage renders the snapshot as a chat notification.
func ToChatMessage(b Bug) ChatMessage {
	return ChatMessage{
		Text: fmt.Sprintf("%s %s [%s]", statusGlyph(b.Status), b.Title, b.ID),
		Attachments: []ChatAttachment{
			{
				Color: severityColor(b.Severity),
				Fields: []ChatField{
					{Title: "Status", Value: b.Status, Short: true},
					{Title: "Priority", Value: b.Priority, Short: true},
					{Title: "Severity", Value: b.Severity, Short: true},
					{Title: "Component", Value: b.Component, Short: true},
					{Title: "Assignee", Value: b.Assignee, Short: true},
					{Title: "Reporter", Value: b.Reporter, Short: true},
				},
				Footer: "BugSignal",
				Ts:     b.UpdatedAt.Unix(),
			},
		},
	}
}
