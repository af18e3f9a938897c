package types

// Payload is a raw share payload as delivered by a native module. It is a
// closed set: IOSPayload or AndroidPayload.
type Payload interface {
	isPayload()
}

// IOSPayload is the JSON string emitted by the iOS module, e.g.
//
//	{ "files": [...], "type": "media" }
//	{ "weburls": [{"url": "...", "meta": "{\"title\":\"...\"}"}], "type": "weburl" }
//	{ "text": "...", "type": "text" }
type IOSPayload string

func (IOSPayload) isPayload() {}

// AndroidPayload is the structured map emitted by the Android module.
// Values are loosely typed: sizes and dimensions arrive as strings.
type AndroidPayload map[string]any

func (AndroidPayload) isPayload() {}

// NativeWebURL is one entry of the iOS "weburls" list. Meta is itself a JSON
// encoded object.
type NativeWebURL struct {
	URL  string `json:"url"`
	Meta string `json:"meta"`
}

// NativeFile merges the iOS and Android file shapes. Numeric fields are kept
// raw because either side may send them as numbers or strings.
type NativeFile struct {
	Path       string `json:"path,omitempty"`       // iOS: computed full path
	ContentURI string `json:"contentUri,omitempty"` // Android: source content:// uri
	FilePath   string `json:"filePath,omitempty"`   // Android: resolved path
	FileName   any    `json:"fileName,omitempty"`
	MimeType   any    `json:"mimeType,omitempty"`
	FileSize   any    `json:"fileSize,omitempty"`
	Width      any    `json:"width,omitempty"`
	Height     any    `json:"height,omitempty"`
	Duration   any    `json:"duration,omitempty"`
	Thumbnail  string `json:"thumbnail,omitempty"`
}

// NativeShareIntent is the decoded top-level payload of either platform.
type NativeShareIntent struct {
	Text           string         `json:"text,omitempty"`
	Type           string         `json:"type,omitempty"`
	Files          []NativeFile   `json:"files,omitempty"`
	WebURLs        []NativeWebURL `json:"weburls,omitempty"`
	ConversationID string         `json:"conversationId,omitempty"`
	Meta           map[string]any `json:"meta,omitempty"`
}
