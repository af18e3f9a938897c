package types

/*
 Canonical share intent, identical on both platforms.

{
  "type": "weburl", // text | file | media | weburl | null
  "text": "check this https://example.com/x",
  "webUrl": "https://example.com/x",
  "files": null,
  "conversationId": null,
  "meta": { "title": "Example" }
}

*/

// IntentType classifies the dominant content of a ShareIntent.
// The zero value is the "no content" type and encodes as JSON null.
type IntentType string

const (
	IntentTypeNone   IntentType = ""
	IntentTypeText   IntentType = "text"
	IntentTypeFile   IntentType = "file"
	IntentTypeMedia  IntentType = "media"
	IntentTypeWebURL IntentType = "weburl"
)

// MarshalJSON encodes IntentTypeNone as null.
func (t IntentType) MarshalJSON() ([]byte, error) {
	if t == IntentTypeNone {
		return []byte("null"), nil
	}
	return []byte(`"` + string(t) + `"`), nil
}

// UnmarshalJSON accepts null as IntentTypeNone.
func (t *IntentType) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || len(s) < 2 {
		*t = IntentTypeNone
		return nil
	}
	*t = IntentType(s[1 : len(s)-1])
	return nil
}

// ShareIntentMeta is free-form metadata attached to a share. "title" is the
// only key both platforms agree on.
type ShareIntentMeta map[string]string

const MetaTitle = "title"

// Title returns the title entry, or "" when missing.
func (m ShareIntentMeta) Title() string {
	if m == nil {
		return ""
	}
	return m[MetaTitle]
}

// ShareIntentFile is one shared attachment. Pointer fields are null when the
// native layer did not report them.
type ShareIntentFile struct {
	Path     string   `json:"path"`
	MimeType *string  `json:"mimeType"`
	FileName *string  `json:"fileName"`
	Size     *float64 `json:"size"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Duration *float64 `json:"duration"` // in ms
}

// ShareIntent is the unified record handed to consumers. It is replaced as a
// whole on every update and never edited in place.
type ShareIntent struct {
	Type           IntentType        `json:"type"`
	Text           *string           `json:"text"`
	WebURL         *string           `json:"webUrl"`
	Files          []ShareIntentFile `json:"files"`
	ConversationID *string           `json:"conversationId"`
	Meta           ShareIntentMeta   `json:"meta,omitempty"`
}

// DefaultShareIntent returns the empty record: every field null.
func DefaultShareIntent() ShareIntent {
	return ShareIntent{}
}

// HasContent reports whether the intent carries text, a url or files.
func (s ShareIntent) HasContent() bool {
	return s.Text != nil || s.WebURL != nil || len(s.Files) > 0
}

// IsEmpty reports whether s is the default record.
func (s ShareIntent) IsEmpty() bool {
	return s.Type == IntentTypeNone && !s.HasContent() && s.ConversationID == nil && len(s.Meta) == 0
}

// Clone returns a deep copy so snapshots handed to consumers cannot alias
// controller state.
func (s ShareIntent) Clone() ShareIntent {
	out := s
	if s.Files != nil {
		out.Files = make([]ShareIntentFile, len(s.Files))
		copy(out.Files, s.Files)
	}
	if s.Meta != nil {
		out.Meta = make(ShareIntentMeta, len(s.Meta))
		for k, v := range s.Meta {
			out.Meta[k] = v
		}
	}
	return out
}
