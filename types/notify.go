package types

const (
	NotifyTypeShareIntent      = "share_intent"       // a new intent was parsed
	NotifyTypeShareIntentReset = "share_intent_reset" // the held intent was cleared
	NotifyTypeShareIntentError = "share_intent_error"
	NotifyTypeSnapshot         = "snapshot"
)

// Notification represents a notification message structure
type Notification struct {
	Type       string         `json:"type,omitempty"`       // Notification type, e.g. "share_intent", "snapshot", etc.
	Title      string         `json:"title,omitempty"`      // Notification title
	Message    string         `json:"message,omitempty"`    // Notification message/content
	Data       map[string]any `json:"data,omitempty"`       // Additional data fields
	IsTextOnly bool           `json:"isTextOnly,omitempty"` // Indicates if this is plain text content
}

// NotifyHub receives notifications for broadcast to connected clients.
type NotifyHub interface {
	Broadcast(notification *Notification)
}
