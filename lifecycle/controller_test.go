package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/moyoez/shareintent-go/bridge"
	"github.com/moyoez/shareintent-go/intent"
	"github.com/moyoez/shareintent-go/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBridge records requests and lets a test decide what a fetch emits.
type fakeBridge struct {
	emitter *bridge.Emitter

	mu      sync.Mutex
	fetches []string
	clears  []string
	onFetch func(hint string) error
	subErr  error
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{emitter: bridge.NewEmitter()}
}

func (f *fakeBridge) GetShareIntent(_ context.Context, hint string) error {
	f.mu.Lock()
	f.fetches = append(f.fetches, hint)
	fn := f.onFetch
	f.mu.Unlock()
	if fn != nil {
		return fn(hint)
	}
	return nil
}

func (f *fakeBridge) ClearShareIntent(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears = append(f.clears, key)
	return nil
}

func (f *fakeBridge) HasShareIntent(string) (bool, error) { return false, nil }

func (f *fakeBridge) DonateSendMessage(context.Context, string, string, string, string) error {
	return nil
}

func (f *fakeBridge) PublishDirectShareTargets(context.Context, []types.DirectShareContact) (bool, error) {
	return true, nil
}

func (f *fakeBridge) ReportShortcutUsed(string) error { return nil }
func (f *fakeBridge) RemoveShortcut(string) error { return nil }
func (f *fakeBridge) RemoveAllShortcuts() error { return nil }

func (f *fakeBridge) Subscribe() (*bridge.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.emitter.Subscribe(), nil
}

func (f *fakeBridge) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func (f *fakeBridge) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clears)
}

func textPayload(text string) types.AndroidPayload {
	return types.AndroidPayload{"text": text, "type": "text"}
}

func startController(t *testing.T, b bridge.Bridge, opts types.ShareIntentOptions) *Controller {
	t.Helper()
	c := New(b, opts)
	t.Cleanup(c.Close)
	require.NoError(t, c.Start())
	return c
}

func eventually(t *testing.T, c *Controller, cond func(types.Snapshot) bool, msg string) types.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return cond(c.Snapshot()) }, 2*time.Second, 5*time.Millisecond, msg)
	return c.Snapshot()
}

func hasText(text string) func(types.Snapshot) bool {
	return func(s types.Snapshot) bool {
		return s.ShareIntent.Text != nil && *s.ShareIntent.Text == text
	}
}

func TestStartFetchesInitialIntent(t *testing.T) {
	fb := newFakeBridge()
	fb.onFetch = func(string) error {
		fb.emitter.EmitChange(textPayload("cold start"))
		return nil
	}

	c := startController(t, fb, types.ShareIntentOptions{Scheme: "myapp"})
	assert.True(t, c.IsReady())

	snap := eventually(t, c, hasText("cold start"), "initial intent not delivered")
	assert.True(t, snap.HasShareIntent)
	assert.Equal(t, types.IntentTypeText, snap.ShareIntent.Type)
	assert.Nil(t, snap.Error)
	assert.Equal(t, []string{""}, fb.fetches)
	assert.Equal(t, "myappShareKey", c.ShareExtensionKey())

	eventually(t, c, func(s types.Snapshot) bool { return s.State == types.StateReady }, "not ready")
}

func TestLastDeliveredIntentWins(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{})

	fb.emitter.EmitChange(textPayload("first"))
	fb.emitter.EmitChange(textPayload("second"))

	snap := eventually(t, c, hasText("second"), "second intent not applied")
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestParseErrorKeepsPreviousIntent(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{Platform: types.PlatformIOS})

	fb.emitter.EmitChange(types.IOSPayload(`{"text": "kept"}`))
	eventually(t, c, hasText("kept"), "intent not applied")

	fb.emitter.EmitChange(types.IOSPayload(`{broken`))
	snap := eventually(t, c, func(s types.Snapshot) bool { return s.State == types.StateError }, "parse error not reported")
	require.NotNil(t, snap.Error)
	assert.Equal(t, ParseErrorMessage, *snap.Error)
	require.NotNil(t, snap.ShareIntent.Text)
	assert.Equal(t, "kept", *snap.ShareIntent.Text)

	fb.emitter.EmitChange(types.IOSPayload(`{"text": "recovered"}`))
	snap = eventually(t, c, hasText("recovered"), "recovery not applied")
	assert.Nil(t, snap.Error)
	assert.Equal(t, types.StateReady, snap.State)
}

func TestBridgeErrorEvent(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{})

	fb.emitter.EmitError("File type is invalid: nope")
	snap := eventually(t, c, func(s types.Snapshot) bool { return s.Error != nil }, "error not stored")
	assert.Equal(t, "File type is invalid: nope", *snap.Error)
	assert.Equal(t, types.StateError, snap.State)
	assert.Equal(t, types.DefaultShareIntent(), snap.ShareIntent)
}

func TestFetchFailureSetsError(t *testing.T) {
	fb := newFakeBridge()
	fb.onFetch = func(string) error { return errors.New("bridge exploded") }
	c := startController(t, fb, types.ShareIntentOptions{})

	snap := eventually(t, c, func(s types.Snapshot) bool { return s.State == types.StateError }, "fetch error not reported")
	require.NotNil(t, snap.Error)
	assert.Equal(t, "bridge exploded", *snap.Error)
}

func TestSuccessfulFetchClearsFetchError(t *testing.T) {
	fb := newFakeBridge()
	var calls atomic.Int32
	fb.onFetch = func(string) error {
		if calls.Add(1) == 1 {
			return errors.New("bridge unavailable")
		}
		return nil
	}

	c := startController(t, fb, types.ShareIntentOptions{})
	eventually(t, c, func(s types.Snapshot) bool { return s.State == types.StateError && s.Error != nil }, "fetch error not recorded")

	c.Refresh()
	snap := eventually(t, c, func(s types.Snapshot) bool { return s.State == types.StateReady }, "second fetch did not recover")
	assert.Nil(t, snap.Error)
}

func TestOverlappingFetchFailureThenSuccess(t *testing.T) {
	fb := newFakeBridge()
	failFirst, passSecond := make(chan struct{}), make(chan struct{})
	var once1, once2 sync.Once
	releaseFirst := func() { once1.Do(func() { close(failFirst) }) }
	releaseSecond := func() { once2.Do(func() { close(passSecond) }) }
	var calls atomic.Int32
	fb.onFetch = func(string) error {
		if calls.Add(1) == 1 {
			<-failFirst
			return errors.New("timeout")
		}
		<-passSecond
		return nil
	}

	c := startController(t, fb, types.ShareIntentOptions{})
	t.Cleanup(releaseFirst)
	t.Cleanup(releaseSecond)

	c.Refresh()
	require.Eventually(t, func() bool { return fb.fetchCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	releaseFirst()
	eventually(t, c, func(s types.Snapshot) bool { return s.State == types.StateError }, "first fetch failure not recorded")

	releaseSecond()
	snap := eventually(t, c, func(s types.Snapshot) bool { return s.State == types.StateReady }, "second fetch did not recover")
	assert.Nil(t, snap.Error)
}

func TestRefreshWhileFetchOutstanding(t *testing.T) {
	fb := newFakeBridge()
	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	fb.onFetch = func(string) error {
		<-gate
		fb.emitter.EmitChange(textPayload("slow"))
		return nil
	}

	c := startController(t, fb, types.ShareIntentOptions{})
	t.Cleanup(release)

	c.Refresh()
	c.Refresh()
	require.Eventually(t, func() bool { return fb.fetchCount() == 3 }, 2*time.Second, 5*time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, types.StateFetching, snap.State)
	assert.False(t, snap.HasShareIntent)

	release()
	snap = eventually(t, c, func(s types.Snapshot) bool {
		return hasText("slow")(s) && s.State == types.StateReady
	}, "outstanding fetches did not settle")
	assert.Nil(t, snap.Error)
}

func TestStaleFetchAfterResetRepopulates(t *testing.T) {
	fb := newFakeBridge()
	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	fb.onFetch = func(string) error {
		<-gate
		fb.emitter.EmitChange(textPayload("stale"))
		return nil
	}

	c := startController(t, fb, types.ShareIntentOptions{})
	t.Cleanup(release)

	fb.emitter.EmitChange(textPayload("current"))
	eventually(t, c, hasText("current"), "current intent not delivered")
	c.Reset(true)
	cleared := c.Snapshot()
	require.False(t, cleared.HasShareIntent)
	assert.Equal(t, 1, fb.clearCount())

	// the fetch started before the reset still delivers afterwards
	release()
	snap := eventually(t, c, hasText("stale"), "stale fetch not applied")
	assert.True(t, snap.HasShareIntent)
	assert.Greater(t, snap.Generation, cleared.Generation)
}

func TestUnavailableBridge(t *testing.T) {
	c := New(nil, types.ShareIntentOptions{})
	t.Cleanup(c.Close)

	err := c.Start()
	require.ErrorIs(t, err, bridge.ErrUnavailable)
	assert.False(t, c.IsReady())
	assert.Equal(t, types.StateIdle, c.Snapshot().State)

	_, err = c.HasNativeShareIntent()
	assert.ErrorIs(t, err, bridge.ErrUnavailable)
}

func TestResetIsIdempotent(t *testing.T) {
	fb := newFakeBridge()
	var resets atomic.Int32
	c := startController(t, fb, types.ShareIntentOptions{
		Scheme:             "myapp",
		OnResetShareIntent: func() { resets.Add(1) },
	})

	c.Reset(true)
	assert.Zero(t, fb.clearCount(), "reset of an empty intent must not reach the bridge")
	assert.Zero(t, resets.Load())

	fb.emitter.EmitChange(textPayload("to be cleared"))
	eventually(t, c, hasText("to be cleared"), "intent not applied")

	c.Reset(true)
	c.Reset(true)
	assert.Equal(t, []string{"myappShareKey"}, fb.clears)
	assert.Equal(t, int32(1), resets.Load())

	snap := c.Snapshot()
	assert.Equal(t, types.DefaultShareIntent(), snap.ShareIntent)
	assert.False(t, snap.HasShareIntent)
	assert.Nil(t, snap.Error)
}

func TestResetWithoutClearingNative(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{})

	fb.emitter.EmitChange(textPayload("x"))
	eventually(t, c, hasText("x"), "intent not applied")

	c.Reset(false)
	assert.Zero(t, fb.clearCount())
	assert.False(t, c.Snapshot().HasShareIntent)
}

func TestBackgroundResetsIntent(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{})

	fb.emitter.EmitChange(textPayload("x"))
	eventually(t, c, hasText("x"), "intent not applied")

	c.SetAppState(types.AppStateBackground)
	assert.False(t, c.Snapshot().HasShareIntent)
	assert.Equal(t, 1, fb.clearCount())
}

func TestKeepIntentOnBackground(t *testing.T) {
	fb := newFakeBridge()
	keep := false
	c := startController(t, fb, types.ShareIntentOptions{ResetOnBackground: &keep})

	fb.emitter.EmitChange(textPayload("x"))
	eventually(t, c, hasText("x"), "intent not applied")

	c.SetAppState(types.AppStateInactive)
	assert.True(t, c.Snapshot().HasShareIntent)
	assert.Zero(t, fb.clearCount())
}

func TestBecomingActiveRefreshes(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{})
	require.Eventually(t, func() bool { return fb.fetchCount() == 1 }, time.Second, 5*time.Millisecond)

	c.SetAppState(types.AppStateActive)
	c.SetAppState(types.AppStateBackground)
	c.SetAppState(types.AppStateActive)
	require.Eventually(t, func() bool { return fb.fetchCount() == 2 }, time.Second, 5*time.Millisecond)

	c.SetAppState(types.AppStateInactive)
	c.SetAppState(types.AppStateBackground)
	assert.Equal(t, 2, fb.fetchCount())
}

func TestIOSFetchesOnlyOnShareLink(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{Platform: types.PlatformIOS, Schemes: []string{"myapp"}})

	assert.Zero(t, fb.fetchCount())
	assert.Equal(t, types.StateIdle, c.Snapshot().State)

	c.SetURL("myapp://home")
	assert.Zero(t, fb.fetchCount())

	link := intent.BuildDataURL("myapp", "myappShareKey", intent.DataKindText)
	c.SetURL(link)
	c.SetURL(link)
	require.Eventually(t, func() bool { return fb.fetchCount() == 1 }, time.Second, 5*time.Millisecond)

	// with the link still current, becoming active fetches it again
	c.SetAppState(types.AppStateBackground)
	c.SetAppState(types.AppStateActive)
	require.Eventually(t, func() bool { return fb.fetchCount() == 2 }, time.Second, 5*time.Millisecond)
	fb.mu.Lock()
	assert.Equal(t, []string{link, link}, fb.fetches)
	fb.mu.Unlock()
}

func TestDisabledControllerIsInert(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{Platform: types.PlatformWeb})

	assert.False(t, c.IsReady())
	assert.Zero(t, fb.emitter.Subscribers())
	assert.Zero(t, fb.fetchCount())

	c.Refresh()
	c.SetAppState(types.AppStateBackground)
	c.SetAppState(types.AppStateActive)
	c.Reset(true)
	assert.Zero(t, fb.fetchCount())
	assert.Zero(t, fb.clearCount())

	_, err := c.HasNativeShareIntent()
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.DonateSendMessage(context.Background(), types.DonateSendMessageOptions{ConversationID: "a", Name: "b"}), ErrDisabled)
	_, err = c.PublishDirectShareTargets(context.Background(), nil)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.ReportShortcutUsed("a"), ErrDisabled)
	assert.ErrorIs(t, c.RemoveShortcut("a"), ErrDisabled)
	assert.ErrorIs(t, c.RemoveAllShortcuts(), ErrDisabled)
}

func TestPendingStateAndDonation(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{})

	fb.emitter.EmitState(types.StatePending)
	eventually(t, c, func(s types.Snapshot) bool { return s.Pending }, "pending not recorded")

	fb.emitter.Emit(types.BridgeEvent{
		Name:   types.EventDonate,
		Donate: &types.DonateEventData{ConversationID: "c1", Name: "Alice"},
	})
	snap := eventually(t, c, func(s types.Snapshot) bool { return s.LastDonation != nil }, "donation not recorded")
	assert.Equal(t, "c1", snap.LastDonation.ConversationID)

	fb.emitter.EmitState(types.StateNone)
	eventually(t, c, func(s types.Snapshot) bool { return !s.Pending }, "pending not cleared")
}

func TestDonateValidation(t *testing.T) {
	fb := newFakeBridge()
	c := startController(t, fb, types.ShareIntentOptions{})

	assert.Error(t, c.DonateSendMessage(context.Background(), types.DonateSendMessageOptions{Name: "x"}))
	assert.Error(t, c.DonateSendMessage(context.Background(), types.DonateSendMessageOptions{ConversationID: "x"}))
	assert.NoError(t, c.DonateSendMessage(context.Background(), types.DonateSendMessageOptions{ConversationID: "x", Name: "y"}))
}

func TestWatcherSeesLatestSnapshot(t *testing.T) {
	fb := newFakeBridge()
	c := New(fb, types.ShareIntentOptions{})
	t.Cleanup(c.Close)

	w := c.Watch()
	first := <-w.C()
	assert.Equal(t, types.StateIdle, first.State)
	assert.False(t, first.IsReady)

	require.NoError(t, c.Start())
	fb.emitter.EmitChange(textPayload("a"))
	fb.emitter.EmitChange(textPayload("b"))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-w.C():
			if snap.ShareIntent.Text != nil && *snap.ShareIntent.Text == "b" {
				return
			}
		case <-deadline:
			t.Fatal("watcher never saw the latest intent")
		}
	}
}

func TestCloseStopsController(t *testing.T) {
	fb := newFakeBridge()
	c := New(fb, types.ShareIntentOptions{})
	require.NoError(t, c.Start())
	w := c.Watch()

	c.Close()
	assert.False(t, c.IsReady())
	assert.Zero(t, fb.emitter.Subscribers())

	for range w.C() {
	}
	_, open := <-c.Watch().C()
	assert.False(t, open)

	n := fb.fetchCount()
	c.Refresh()
	assert.Equal(t, n, fb.fetchCount())
	assert.Error(t, c.Start())
}

func TestLocalBridgeAndroidFlow(t *testing.T) {
	store, err := bridge.NewDirStore(t.TempDir())
	require.NoError(t, err)
	local, err := bridge.NewLocal(types.PlatformAndroid, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	local.Deliver(types.AndroidPayload{
		"type": "media",
		"files": []map[string]string{{
			"filePath": "/storage/emulated/0/DCIM/1.jpg",
			"mimeType": "image/jpeg",
			"fileName": "1.jpg",
		}},
	})

	c := startController(t, local, types.ShareIntentOptions{})
	snap := eventually(t, c, func(s types.Snapshot) bool { return s.ShareIntent.Type == types.IntentTypeMedia }, "pending intent not fetched")
	require.Len(t, snap.ShareIntent.Files, 1)
	assert.Equal(t, "/storage/emulated/0/DCIM/1.jpg", snap.ShareIntent.Files[0].Path)

	has, err := c.HasNativeShareIntent()
	require.NoError(t, err)
	assert.False(t, has)

	local.Push(textPayload("while in foreground"))
	eventually(t, c, hasText("while in foreground"), "pushed intent not applied")

	require.NoError(t, c.DonateSendMessage(context.Background(), types.DonateSendMessageOptions{ConversationID: "c1", Name: "Alice"}))
	eventually(t, c, func(s types.Snapshot) bool { return s.LastDonation != nil }, "donation not observed")
	assert.Len(t, local.RecentContacts(), 1)
}

func TestLocalBridgeIOSShareExtension(t *testing.T) {
	store, err := bridge.NewDirStore(t.TempDir())
	require.NoError(t, err)
	local, err := bridge.NewLocal(types.PlatformIOS, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	c := startController(t, local, types.ShareIntentOptions{Platform: types.PlatformIOS, Scheme: "myapp"})

	link, err := local.StageShare("myapp", intent.DataKindWebURL, []types.NativeWebURL{{URL: "https://example.com", Meta: `{"title":"Example"}`}})
	require.NoError(t, err)
	c.SetURL(link)

	snap := eventually(t, c, func(s types.Snapshot) bool { return s.ShareIntent.Type == types.IntentTypeWebURL }, "web url not delivered")
	require.NotNil(t, snap.ShareIntent.WebURL)
	assert.Equal(t, "https://example.com", *snap.ShareIntent.WebURL)
	assert.Equal(t, "Example", snap.ShareIntent.Meta.Title())

	has, err := c.HasNativeShareIntent()
	require.NoError(t, err)
	assert.True(t, has)

	c.SetAppState(types.AppStateBackground)
	has, err = c.HasNativeShareIntent()
	require.NoError(t, err)
	assert.False(t, has, "reset on background clears the app group entry")
}
