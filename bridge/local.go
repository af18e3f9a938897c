package bridge

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/moyoez/shareintent-go/intent"
	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// MaxRecentContacts caps the donated conversations kept for direct share.
const MaxRecentContacts = 10

// Local is an in-process native module. It keeps the Android pending-intent
// slot on the instance instead of in a process-wide singleton, reads iOS
// share-extension payloads from a Store, and records donations and
// published shortcuts.
type Local struct {
	platform types.Platform
	store    Store
	emitter  *Emitter

	mu        sync.Mutex
	pending   types.AndroidPayload
	isPending bool
	recent    []types.DirectShareContact
	shortcuts map[string]*shortcut
}

type shortcut struct {
	contact types.DirectShareContact
	uses    int
}

var _ Bridge = (*Local)(nil)

// NewLocal creates a local bridge for platform. A nil store means an
// in-memory app group.
func NewLocal(platform types.Platform, store Store) (*Local, error) {
	if store == nil {
		store = NewMemoryStore(DefaultPayloadTTL)
	}
	l := &Local{
		platform:  platform,
		store:     store,
		emitter:   NewEmitter(),
		shortcuts: make(map[string]*shortcut),
	}
	if n, ok := store.(KeyNotifier); ok {
		err := n.NotifyKeys(func(key string) {
			tool.DefaultLogger.Debugf("[bridge] app group key written: %s", key)
			l.emitter.EmitState(types.StatePending)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to watch app group: %w", err)
		}
	}
	return l, nil
}

// Close releases the store when it holds resources.
func (l *Local) Close() error {
	if c, ok := l.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Platform returns the platform this bridge emulates.
func (l *Local) Platform() types.Platform {
	return l.platform
}

// Subscribe opens a new event stream.
func (l *Local) Subscribe() (*Subscription, error) {
	return l.emitter.Subscribe(), nil
}

// Deliver stores an Android intent received while nobody fetched yet (cold
// start, or app in background) and announces it as pending.
func (l *Local) Deliver(payload types.AndroidPayload) {
	l.mu.Lock()
	l.pending = payload
	l.isPending = true
	l.mu.Unlock()
	l.emitter.EmitState(types.StatePending)
}

// Push emits an Android intent straight away, as for a new intent arriving
// while the app is in the foreground.
func (l *Local) Push(payload types.AndroidPayload) {
	l.emitter.EmitState(types.StatePending)
	l.emitter.EmitChange(payload)
}

// ReportError emits an onError event, as the native layer does for failures
// outside of a fetch.
func (l *Local) ReportError(message string) {
	l.emitter.EmitError(message)
}

// StageShare plays the share extension: it writes value under
// "<scheme>ShareKey" and returns the deep link that hands control back.
//   - media / file: []types.NativeFile
//   - weburl: []types.NativeWebURL
//   - text: []string
func (l *Local) StageShare(scheme string, kind intent.DataKind, value any) (string, error) {
	key := intent.ShareExtensionKey(types.ShareIntentOptions{Scheme: scheme})
	data, err := sonic.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode staged share: %w", err)
	}
	if err := l.store.Save(key, data); err != nil {
		return "", err
	}
	return intent.BuildDataURL(scheme, key, kind), nil
}

// GetShareIntent emits the waiting intent, if any. A deep link is resolved
// against the app group; anything else consumes the pending slot.
func (l *Local) GetShareIntent(ctx context.Context, urlHint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.Contains(urlHint, "://") {
		l.handleURL(urlHint)
		return nil
	}

	l.mu.Lock()
	payload := l.pending
	l.pending = nil
	l.isPending = false
	l.mu.Unlock()

	if payload != nil {
		l.emitter.EmitChange(payload)
	}
	l.emitter.EmitState(types.StateNone)
	return nil
}

// handleURL resolves a share-extension link. Failures are reported through
// onError, an empty slot emits nothing.
func (l *Local) handleURL(raw string) {
	link, err := intent.ParseDataURL(raw)
	if err != nil {
		l.emitter.EmitError(err.Error())
		return
	}

	var body string
	switch link.Kind {
	case intent.DataKindDirect:
		body, err = encodeText(raw, link.Fragment)
	case intent.DataKindMedia, intent.DataKindFile:
		data, ok := l.store.Load(link.Key)
		if !ok {
			return
		}
		body, err = encodeFiles(data, link.Kind)
	case intent.DataKindWebURL:
		data, ok := l.store.Load(link.Key)
		if !ok {
			return
		}
		body, err = encodeWebURLs(data)
	case intent.DataKindText:
		data, ok := l.store.Load(link.Key)
		if !ok {
			return
		}
		var texts []string
		if err = sonic.Unmarshal(data, &texts); err == nil {
			body, err = encodeText(strings.Join(texts, ","), string(link.Kind))
		}
	default:
		err = fmt.Errorf("File type is invalid: %s", link.Fragment)
	}
	if err != nil {
		l.emitter.EmitError(err.Error())
		return
	}
	l.emitter.EmitChange(types.IOSPayload(body))
}

func encodeText(text, kind string) (string, error) {
	return sonic.MarshalString(types.NativeShareIntent{Text: text, Type: kind})
}

func encodeFiles(data []byte, kind intent.DataKind) (string, error) {
	var stored []types.NativeFile
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return "", fmt.Errorf("failed to decode shared files: %v", err)
	}
	files := make([]types.NativeFile, 0, len(stored))
	for _, f := range stored {
		if !isResolvedPath(f.Path) {
			continue
		}
		if kind == intent.DataKindFile {
			f.Width, f.Height, f.Duration, f.Thumbnail = nil, nil, nil, ""
		} else if f.Thumbnail != "" && !isResolvedPath(f.Thumbnail) {
			f.Thumbnail = ""
		}
		files = append(files, f)
	}
	return sonic.MarshalString(types.NativeShareIntent{Files: files, Type: string(kind)})
}

func encodeWebURLs(data []byte) (string, error) {
	var urls []types.NativeWebURL
	if err := sonic.Unmarshal(data, &urls); err != nil {
		urls = nil
	}
	return sonic.MarshalString(types.NativeShareIntent{WebURLs: urls, Type: string(intent.DataKindWebURL)})
}

// isResolvedPath rejects bare asset identifiers the core cannot open.
func isResolvedPath(p string) bool {
	return strings.HasPrefix(p, "/") || strings.Contains(p, "://")
}

// ClearShareIntent drops the pending slot and the app-group entry for key.
func (l *Local) ClearShareIntent(key string) error {
	l.mu.Lock()
	l.pending = nil
	l.isPending = false
	l.mu.Unlock()
	if key == "" {
		return nil
	}
	return l.store.Delete(key)
}

// HasShareIntent reports the pending flag on Android and whether the app
// group holds key elsewhere.
func (l *Local) HasShareIntent(key string) (bool, error) {
	if l.platform == types.PlatformAndroid {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.isPending, nil
	}
	_, ok := l.store.Load(key)
	return ok, nil
}

// DonateSendMessage records the conversation as the most recent contact and
// emits onDonate.
func (l *Local) DonateSendMessage(ctx context.Context, conversationID, name, imageURL, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if conversationID == "" || name == "" {
		return fmt.Errorf("donateSendMessage requires both conversationId and name")
	}

	l.mu.Lock()
	recent := make([]types.DirectShareContact, 0, MaxRecentContacts)
	recent = append(recent, types.DirectShareContact{ID: conversationID, Name: name, ImageURL: imageURL})
	for _, c := range l.recent {
		if c.ID == conversationID || len(recent) == MaxRecentContacts {
			continue
		}
		recent = append(recent, c)
	}
	l.recent = recent
	l.mu.Unlock()

	l.emitter.Emit(types.BridgeEvent{
		Name: types.EventDonate,
		Donate: &types.DonateEventData{
			ConversationID: conversationID,
			Name:           name,
			Content:        content,
		},
	})
	return nil
}

// RecentContacts returns donated conversations, most recent first.
func (l *Local) RecentContacts() []types.DirectShareContact {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.DirectShareContact, len(l.recent))
	copy(out, l.recent)
	return out
}

// PublishDirectShareTargets replaces the published shortcuts. Contacts
// without id or name are skipped. Android only.
func (l *Local) PublishDirectShareTargets(ctx context.Context, contacts []types.DirectShareContact) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if l.platform != types.PlatformAndroid {
		return false, ErrUnsupported
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	next := make(map[string]*shortcut, len(contacts))
	for _, c := range contacts {
		if c.ID == "" || c.Name == "" {
			continue
		}
		uses := 0
		if prev, ok := l.shortcuts[c.ID]; ok {
			uses = prev.uses
		}
		next[c.ID] = &shortcut{contact: c, uses: uses}
	}
	l.shortcuts = next
	return len(next) > 0, nil
}

func (l *Local) ReportShortcutUsed(id string) error {
	if l.platform != types.PlatformAndroid {
		return ErrUnsupported
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.shortcuts[id]
	if !ok {
		return fmt.Errorf("unknown shortcut: %s", id)
	}
	s.uses++
	return nil
}

func (l *Local) RemoveShortcut(id string) error {
	if l.platform != types.PlatformAndroid {
		return ErrUnsupported
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.shortcuts, id)
	return nil
}

func (l *Local) RemoveAllShortcuts() error {
	if l.platform != types.PlatformAndroid {
		return ErrUnsupported
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shortcuts = make(map[string]*shortcut)
	return nil
}

// Shortcuts lists published shortcuts ordered by id.
func (l *Local) Shortcuts() []types.DirectShareContact {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.DirectShareContact, 0, len(l.shortcuts))
	for _, s := range l.shortcuts {
		out = append(out, s.contact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ShortcutUses returns how often id was reported as used.
func (l *Local) ShortcutUses(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.shortcuts[id]; ok {
		return s.uses
	}
	return 0
}
