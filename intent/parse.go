package intent

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// ErrDecode is returned by Decode when the payload is not a JSON document at all.
var ErrDecode = errors.New("failed to decode share payload")

var webURLPattern = regexp.MustCompile(`(?i)https?://\S+`)

// Parse converts a raw native payload into a ShareIntent. It never fails:
// an empty or undecodable payload yields DefaultShareIntent.
func Parse(raw types.Payload, opts types.ShareIntentOptions) types.ShareIntent {
	result, _ := Decode(raw, opts)
	return result
}

// Decode is Parse with the top-level decode failure reported. The returned
// intent is always usable; on error it is the default record.
func Decode(raw types.Payload, opts types.ShareIntentOptions) (types.ShareIntent, error) {
	doc, err := toDocument(raw)
	if err != nil {
		if opts.Debug {
			tool.DefaultLogger.Debugf("[parse] %v", err)
		}
		return types.DefaultShareIntent(), err
	}
	if doc == nil {
		return types.DefaultShareIntent(), nil
	}

	result := normalize(doc)
	if opts.Debug {
		tool.DefaultLogger.Debugf("[parsed] type=%s files=%d text=%t webUrl=%t", typeName(result.Type), len(result.Files), result.Text != nil, result.WebURL != nil)
	}
	return result, nil
}

// toDocument turns either payload variant into a generic JSON object. A nil
// document with a nil error means "nothing was shared".
func toDocument(raw types.Payload) (map[string]any, error) {
	var decoded any
	switch p := raw.(type) {
	case nil:
		return nil, nil
	case types.IOSPayload:
		if strings.TrimSpace(string(p)) == "" {
			return nil, nil
		}
		if err := sonic.UnmarshalString(string(p), &decoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	case types.AndroidPayload:
		if len(p) == 0 {
			return nil, nil
		}
		decoded = plain(map[string]any(p))
	default:
		return nil, fmt.Errorf("%w: unexpected payload type %T", ErrDecode, raw)
	}

	doc, ok := decoded.(map[string]any)
	if !ok {
		return nil, nil
	}
	return doc, nil
}

// plain converts Go-native Android values to the shapes the JSON decoder
// yields for iOS: map[string]any, []any, float64, string, bool or nil. A value
// with no such form (NaN, infinities, structs, funcs) becomes nil on its own
// without touching its siblings.
func plain(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool:
		return val
	case float64:
		return finite(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return plain(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = plain(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = plain(rv.Index(i).Interface())
		}
		return out
	}
	return nil
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// normalize applies the branches in priority order: text, weburls, files.
func normalize(doc map[string]any) types.ShareIntent {
	conversationID := optionalString(doc, "conversationId", "conversationIdentifier")

	if text := stringValue(doc["text"]); text != "" {
		return fromText(text, doc, conversationID)
	}
	if entry, ok := firstWebURL(doc["weburls"]); ok {
		return fromWebURL(entry, conversationID)
	}
	return fromFiles(doc["files"], conversationID)
}

func fromText(text string, doc map[string]any, conversationID *string) types.ShareIntent {
	result := types.ShareIntent{
		Type:           types.IntentTypeText,
		Text:           &text,
		ConversationID: conversationID,
	}
	if found := FindWebURL(text); found != "" {
		result.Type = types.IntentTypeWebURL
		result.WebURL = &found
	}
	if meta, ok := doc["meta"].(map[string]any); ok {
		if title := stringValue(meta[types.MetaTitle]); title != "" {
			result.Meta = types.ShareIntentMeta{types.MetaTitle: title}
		}
	}
	return result
}

// FindWebURL returns the first http(s) url inside text, or "".
func FindWebURL(text string) string {
	return webURLPattern.FindString(text)
}

func firstWebURL(v any) (types.NativeWebURL, bool) {
	list, ok := v.([]any)
	if !ok {
		return types.NativeWebURL{}, false
	}
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		url := stringValue(entry["url"])
		if url == "" {
			continue
		}
		return types.NativeWebURL{URL: url, Meta: stringValue(entry["meta"])}, true
	}
	return types.NativeWebURL{}, false
}

func fromWebURL(entry types.NativeWebURL, conversationID *string) types.ShareIntent {
	text, webURL := entry.URL, entry.URL
	return types.ShareIntent{
		Type:           types.IntentTypeWebURL,
		Text:           &text,
		WebURL:         &webURL,
		ConversationID: conversationID,
		Meta:           parseMeta(entry.Meta),
	}
}

// parseMeta decodes the JSON encoded meta of a weburl entry. Any failure
// yields an empty, non-nil map.
func parseMeta(raw string) types.ShareIntentMeta {
	meta := types.ShareIntentMeta{}
	if raw == "" {
		return meta
	}
	var decoded map[string]any
	if err := sonic.UnmarshalString(raw, &decoded); err != nil {
		return meta
	}
	for k, v := range decoded {
		switch val := v.(type) {
		case string:
			meta[k] = val
		case float64, bool:
			meta[k] = fmt.Sprint(val)
		}
	}
	return meta
}

func fromFiles(v any, conversationID *string) types.ShareIntent {
	list, _ := v.([]any)
	files := make([]types.ShareIntentFile, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if file, ok := toShareFile(entry); ok {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return types.DefaultShareIntent()
	}

	result := types.ShareIntent{
		Type:           types.IntentTypeFile,
		Files:          files,
		ConversationID: conversationID,
	}
	if IsMedia(files) {
		result.Type = types.IntentTypeMedia
	}
	return result
}

// toShareFile maps one native file entry. Entries without any usable path
// are dropped; every other malformed field degrades to null.
func toShareFile(entry map[string]any) (types.ShareIntentFile, bool) {
	path := firstNonEmpty(
		stringValue(entry["path"]),
		stringValue(entry["filePath"]),
		stringValue(entry["contentUri"]),
	)
	if path == "" {
		return types.ShareIntentFile{}, false
	}

	size := numberValue(entry["fileSize"])
	if size == nil {
		size = numberValue(entry["size"])
	}
	if size != nil && *size < 0 {
		size = nil
	}

	return types.ShareIntentFile{
		Path:     path,
		MimeType: optionalString(entry, "mimeType"),
		FileName: optionalString(entry, "fileName"),
		Size:     size,
		Width:    numberValue(entry["width"]),
		Height:   numberValue(entry["height"]),
		Duration: numberValue(entry["duration"]),
	}, true
}

// IsMedia reports whether every file is an image or a video. A file with an
// unknown mime type disqualifies the whole list.
func IsMedia(files []types.ShareIntentFile) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if f.MimeType == nil {
			return false
		}
		mime := strings.ToLower(*f.MimeType)
		if !strings.HasPrefix(mime, "image/") && !strings.HasPrefix(mime, "video/") {
			return false
		}
	}
	return true
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func optionalString(doc map[string]any, keys ...string) *string {
	for _, k := range keys {
		if s := stringValue(doc[k]); s != "" {
			return &s
		}
	}
	return nil
}

// numberValue coerces a JSON number or a numeric string. Anything else,
// including NaN and infinities, is null.
func numberValue(v any) *float64 {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func typeName(t types.IntentType) string {
	if t == types.IntentTypeNone {
		return "null"
	}
	return string(t)
}
