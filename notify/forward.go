package notify

import (
	"context"

	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// Classify returns the notification type for the step from prev to next, or
// "" when nothing worth announcing happened.
func Classify(prev, next types.Snapshot) string {
	if next.Generation != prev.Generation {
		switch {
		case next.HasShareIntent:
			return types.NotifyTypeShareIntent
		case prev.HasShareIntent:
			return types.NotifyTypeShareIntentReset
		}
		return ""
	}
	if next.Error != nil && (prev.Error == nil || *prev.Error != *next.Error) {
		return types.NotifyTypeShareIntentError
	}
	return ""
}

// Forward relays controller snapshots until snaps is closed or ctx is done.
// Every snapshot goes to hub; share, reset and error transitions are also
// sent over the Unix socket.
func Forward(ctx context.Context, snaps <-chan types.Snapshot, hub types.NotifyHub, socketPath string) {
	var prev types.Snapshot
	first := true
	for {
		var snap types.Snapshot
		var ok bool
		select {
		case <-ctx.Done():
			return
		case snap, ok = <-snaps:
			if !ok {
				return
			}
		}

		if hub != nil {
			hub.Broadcast(SnapshotNotification(snap))
		}
		// the first snapshot is the baseline, not a transition
		if first {
			first = false
			prev = snap
			continue
		}

		var n *types.Notification
		switch Classify(prev, snap) {
		case types.NotifyTypeShareIntent:
			n = ShareIntentNotification(snap.ShareIntent)
		case types.NotifyTypeShareIntentReset:
			n = ResetNotification()
		case types.NotifyTypeShareIntentError:
			n = ErrorNotification(*snap.Error)
		}
		prev = snap
		if n == nil {
			continue
		}
		if err := SendNotification(n, socketPath); err != nil {
			tool.DefaultLogger.Debugf("[Notify] %s not delivered: %v", n.Type, err)
		}
	}
}
