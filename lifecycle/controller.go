// Package lifecycle decides when the share intent is fetched from the native
// bridge, when it is cleared, and exposes the result to consumers.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moyoez/shareintent-go/bridge"
	"github.com/moyoez/shareintent-go/intent"
	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// ErrDisabled is returned by actions when the controller is disabled.
var ErrDisabled = errors.New("share intent is disabled")

// ParseErrorMessage is stored in the error slot when a payload cannot be decoded.
const ParseErrorMessage = "Failed to parse share intent"

// Controller owns the single ShareIntent slot. Only the controller writes
// it; consumers read snapshots.
//
// Fetches are not queued: two refreshes may race, and whichever onChange is
// delivered last wins. A fetch still in flight when Reset runs may fill the
// slot again afterwards.
type Controller struct {
	bridge bridge.Bridge
	opts   types.ShareIntentOptions
	scheme string
	key    string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	state       types.ControllerState
	shareIntent types.ShareIntent
	errMsg      *string
	fetchFailed bool // errMsg came from a failed GetShareIntent
	ready       bool
	pending     bool
	donation    *types.DonateEventData
	generation  uint64
	outstanding int
	url         string
	appState    types.AppState
	sub         *bridge.Subscription
	started     bool

	pubMu    sync.Mutex
	watchers map[*Watcher]struct{}
}

// New creates a controller. A nil bridge behaves as an absent native module.
func New(b bridge.Bridge, opts types.ShareIntentOptions) *Controller {
	if b == nil {
		b = bridge.Unavailable{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		bridge:      b,
		opts:        opts,
		scheme:      intent.Scheme(opts),
		key:         intent.ShareExtensionKey(opts),
		ctx:         ctx,
		cancel:      cancel,
		state:       types.StateIdle,
		shareIntent: types.DefaultShareIntent(),
		appState:    types.AppStateActive,
		watchers:    make(map[*Watcher]struct{}),
	}
}

func (c *Controller) debugf(format string, args ...any) {
	if c.opts.Debug {
		tool.DefaultLogger.Debugf("[shareintent] "+format, args...)
	}
}

func (c *Controller) disabled() bool {
	return c.opts.IsDisabled()
}

// ShareExtensionKey is the native storage key cleared on reset.
func (c *Controller) ShareExtensionKey() string {
	return c.key
}

// Start subscribes to the bridge, marks the controller ready and runs the
// initial fetch. A disabled controller stays idle and never becomes ready.
func (c *Controller) Start() error {
	if c.disabled() {
		c.debugf("share intent is disabled")
		return nil
	}

	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return fmt.Errorf("controller is closed")
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	sub, err := c.bridge.Subscribe()
	if err != nil {
		c.mu.Unlock()
		tool.DefaultLogger.Warnf("[shareintent] native module not available, share disabled: %v", err)
		return fmt.Errorf("failed to subscribe to native bridge: %w", err)
	}
	c.sub = sub
	c.started = true
	c.ready = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop(sub)

	c.publish()
	c.Refresh()
	return nil
}

// Close unsubscribes from the bridge and waits for the event loop and any
// fetch goroutine to return. Watchers are closed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancel()
	sub := c.sub
	c.sub = nil
	c.ready = false
	c.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
	c.wg.Wait()

	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	for w := range c.watchers {
		w.close()
		delete(c.watchers, w)
	}
}

func (c *Controller) loop(sub *bridge.Subscription) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-sub.Done():
			return
		case ev := <-sub.Events():
			c.apply(ev)
		}
	}
}

// apply folds one bridge event into the controller state.
func (c *Controller) apply(ev types.BridgeEvent) {
	switch ev.Name {
	case types.EventChange:
		c.debugf("onChange received")
		next, err := c.decode(ev.Payload)
		c.mu.Lock()
		if err != nil {
			c.debugf("error parsing intent: %v", err)
			msg := ParseErrorMessage
			c.errMsg = &msg
			c.fetchFailed = false
			c.state = types.StateError
		} else {
			c.shareIntent = next
			c.errMsg = nil
			c.fetchFailed = false
			c.generation++
			c.state = types.StateReady
		}
		c.mu.Unlock()
	case types.EventError:
		c.debugf("onError: %s", ev.Data)
		msg := ev.Data
		c.mu.Lock()
		c.errMsg = &msg
		c.fetchFailed = false
		c.state = types.StateError
		c.mu.Unlock()
	case types.EventStateChange:
		c.mu.Lock()
		c.pending = ev.Data == types.StatePending
		c.mu.Unlock()
	case types.EventDonate:
		if ev.Donate == nil {
			return
		}
		donation := *ev.Donate
		c.mu.Lock()
		c.donation = &donation
		c.mu.Unlock()
	default:
		c.debugf("ignoring unknown bridge event %q", ev.Name)
		return
	}
	c.publish()
}

// decode never lets a parser panic escape into the event loop.
func (c *Controller) decode(p types.Payload) (result types.ShareIntent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing share intent: %v", r)
		}
	}()
	return intent.Decode(p, c.opts)
}

// fetchHint picks the url handed to the bridge. The second value is false
// when there is nothing to fetch (iOS without a share-extension link).
func (c *Controller) fetchHint() (string, bool) {
	c.mu.RLock()
	url := c.url
	c.mu.RUnlock()
	if intent.IsShareDeepLink(url, c.scheme) {
		return url, true
	}
	if c.opts.ResolvedPlatform() == types.PlatformAndroid {
		return "", true
	}
	return "", false
}

// Refresh requests a fresh payload from the bridge without waiting for it.
func (c *Controller) Refresh() {
	if c.disabled() || c.ctx.Err() != nil {
		return
	}
	hint, ok := c.fetchHint()
	if !ok {
		c.debugf("no intent to fetch")
		return
	}
	requestID := tool.GenerateRequestID()
	c.debugf("refreshing intent %s hint=%q", requestID, hint)

	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.outstanding++
	c.state = types.StateFetching
	c.wg.Add(1)
	c.mu.Unlock()
	c.publish()

	go c.fetch(requestID, hint)
}

func (c *Controller) fetch(requestID, hint string) {
	defer c.wg.Done()
	err := c.bridge.GetShareIntent(c.ctx, hint)
	if c.ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	c.outstanding--
	if err != nil {
		msg := err.Error()
		c.errMsg = &msg
		c.fetchFailed = true
		c.state = types.StateError
	} else if c.outstanding == 0 && (c.state == types.StateFetching || (c.state == types.StateError && c.fetchFailed)) {
		// a successful transport supersedes an earlier failed one; an error
		// the bridge emitted during this fetch stays
		c.errMsg = nil
		c.fetchFailed = false
		c.state = types.StateReady
	}
	c.mu.Unlock()

	if err != nil {
		tool.DefaultLogger.Warnf("[shareintent] fetch %s failed: %v", requestID, err)
	} else {
		c.debugf("fetch %s delivered", requestID)
	}
	c.publish()
}

// Reset drops the held intent. With clearNative the bridge is told to
// forget its own copy too. Nothing happens when no intent is held.
func (c *Controller) Reset(clearNative bool) {
	if c.disabled() {
		return
	}
	c.mu.Lock()
	if !c.shareIntent.HasContent() {
		c.mu.Unlock()
		return
	}
	c.shareIntent = types.DefaultShareIntent()
	c.errMsg = nil
	c.fetchFailed = false
	c.generation++
	if c.state == types.StateError {
		c.state = types.StateReady
	}
	c.mu.Unlock()

	if clearNative {
		if err := c.bridge.ClearShareIntent(c.key); err != nil {
			c.debugf("clearShareIntent failed: %v", err)
		}
	}
	c.debugf("intent reset (clearNative=%t)", clearNative)
	c.publish()
	if c.opts.OnResetShareIntent != nil {
		c.opts.OnResetShareIntent()
	}
}

// SetURL records the deep-link url last opened by the OS. A changed url that
// is a share-extension hand-off triggers a refresh.
func (c *Controller) SetURL(url string) {
	c.mu.Lock()
	if url == c.url {
		c.mu.Unlock()
		return
	}
	c.url = url
	c.mu.Unlock()

	if c.disabled() {
		return
	}
	if intent.IsShareDeepLink(url, c.scheme) {
		c.debugf("share extension url received: %s", url)
		c.Refresh()
	}
}

// SetAppState feeds application lifecycle transitions. Becoming active
// refreshes; leaving active resets unless ResetOnBackground is false.
func (c *Controller) SetAppState(next types.AppState) {
	c.mu.Lock()
	prev := c.appState
	c.appState = next
	c.mu.Unlock()

	if c.disabled() || prev == next {
		return
	}
	switch {
	case next == types.AppStateActive:
		c.debugf("app became active, refreshing intent")
		c.Refresh()
	case prev == types.AppStateActive && (next == types.AppStateInactive || next == types.AppStateBackground):
		if !c.opts.ResetsOnBackground() {
			return
		}
		c.debugf("app moved to %s, resetting intent", next)
		c.Reset(true)
	}
}

// Snapshot returns the current state. The intent is a copy.
func (c *Controller) Snapshot() types.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := types.Snapshot{
		State:          c.state,
		IsReady:        c.ready,
		HasShareIntent: c.shareIntent.HasContent(),
		ShareIntent:    c.shareIntent.Clone(),
		Pending:        c.pending,
		Generation:     c.generation,
	}
	if c.errMsg != nil {
		msg := *c.errMsg
		snap.Error = &msg
	}
	if c.donation != nil {
		d := *c.donation
		snap.LastDonation = &d
	}
	return snap
}

// ShareIntent returns the held intent.
func (c *Controller) ShareIntent() types.ShareIntent {
	return c.Snapshot().ShareIntent
}

// IsReady reports whether bridge events are being received.
func (c *Controller) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// HasNativeShareIntent asks the bridge whether an intent is waiting.
func (c *Controller) HasNativeShareIntent() (bool, error) {
	if c.disabled() {
		return false, ErrDisabled
	}
	return c.bridge.HasShareIntent(c.key)
}
