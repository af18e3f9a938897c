package types

// BridgeEventName identifies a native bridge notification.
type BridgeEventName string

const (
	EventChange      BridgeEventName = "onChange"
	EventError       BridgeEventName = "onError"
	EventStateChange BridgeEventName = "onStateChange"
	EventDonate      BridgeEventName = "onDonate"
)

const (
	StatePending = "pending"
	StateNone    = "none"
)

// BridgeEvent is one notification from the native layer.
//   - onChange: Payload holds the raw share payload
//   - onError / onStateChange: Data holds the message or "pending" / "none"
//   - onDonate: Donate holds the donated conversation
type BridgeEvent struct {
	Name    BridgeEventName
	Data    string
	Payload Payload
	Donate  *DonateEventData
}

// DonateEventData is reported after a successful Siri / Direct Share donation.
type DonateEventData struct {
	ConversationID string `json:"conversationId"`
	Name           string `json:"name"`
	Content        string `json:"content,omitempty"`
}

// DirectShareContact is published as an Android direct share target.
type DirectShareContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageURL,omitempty"`
}

// DonateSendMessageOptions describes a conversation to donate for Direct
// Share targets (Android) or Siri suggestions (iOS).
type DonateSendMessageOptions struct {
	ConversationID string `json:"conversationId"`
	Name           string `json:"name"`
	ImageURL       string `json:"imageURL,omitempty"`
	Content        string `json:"content,omitempty"`
}
