package intent

import (
	"fmt"
	"strings"

	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// DataKind is the fragment of a share-extension deep link.
type DataKind string

const (
	DataKindMedia  DataKind = "media"
	DataKindFile   DataKind = "file"
	DataKindWebURL DataKind = "weburl"
	DataKindText   DataKind = "text"
	// DataKindDirect marks a link whose fragment is not a known kind; the
	// whole url is then the shared text.
	DataKindDirect DataKind = "direct"
)

// dataURLMarker sits between "<scheme>://" and the storage key.
const dataURLMarker = "dataUrl="

// DataURL is a parsed "<scheme>://dataUrl=<key>#<fragment>" link.
type DataURL struct {
	Scheme   string
	Key      string
	Kind     DataKind
	Fragment string
	Raw      string
}

// Scheme returns the app scheme used for share-extension links: the forced
// option first, then the first configured scheme.
func Scheme(opts types.ShareIntentOptions) string {
	if opts.Scheme != "" {
		if opts.Debug {
			tool.DefaultLogger.Debugf("[scheme] from options: %s", opts.Scheme)
		}
		return opts.Scheme
	}
	if len(opts.Schemes) > 0 {
		selected := opts.Schemes[0]
		if opts.Debug {
			if len(opts.Schemes) > 1 {
				tool.DefaultLogger.Debugf("[scheme] multiple configured (%s), using %s", strings.Join(opts.Schemes, ","), selected)
			} else {
				tool.DefaultLogger.Debugf("[scheme] from config: %s", selected)
			}
		}
		return selected
	}
	return ""
}

// ShareExtensionKey is the app-group storage key the share extension writes to.
func ShareExtensionKey(opts types.ShareIntentOptions) string {
	return Scheme(opts) + "ShareKey"
}

// BuildDataURL builds the link a share extension opens to hand control back.
func BuildDataURL(scheme, key string, kind DataKind) string {
	return fmt.Sprintf("%s://%s%s#%s", scheme, dataURLMarker, key, kind)
}

// IsShareDeepLink reports whether url is a share-extension hand-off for scheme.
func IsShareDeepLink(url, scheme string) bool {
	if url == "" || scheme == "" {
		return false
	}
	return strings.Contains(url, scheme+"://"+dataURLMarker)
}

// ParseDataURL splits a share-extension link into its parts. The key is
// required only for the known kinds; a direct link carries its content in
// the url itself.
func ParseDataURL(raw string) (DataURL, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return DataURL{}, fmt.Errorf("not a deep link: %q", raw)
	}
	host, fragment, ok := strings.Cut(rest, "#")
	if !ok || fragment == "" {
		return DataURL{}, fmt.Errorf("URL fragment is missing")
	}

	link := DataURL{Scheme: scheme, Fragment: fragment, Raw: raw}
	switch DataKind(fragment) {
	case DataKindMedia, DataKindFile, DataKindWebURL, DataKindText:
		link.Kind = DataKind(fragment)
	default:
		link.Kind = DataKindDirect
		return link, nil
	}

	if i := strings.IndexAny(host, "/?"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, "="); i >= 0 {
		link.Key = host[i+1:]
	} else {
		link.Key = host
	}
	if link.Key == "" {
		return DataURL{}, fmt.Errorf("cannot extract key from URL host")
	}
	return link, nil
}
