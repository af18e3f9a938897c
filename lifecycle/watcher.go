package lifecycle

import (
	"sync"

	"github.com/moyoez/shareintent-go/types"
)

// Watcher receives controller snapshots. It holds at most one unread
// snapshot: a newer one replaces it, so a slow reader only ever sees the
// latest state.
type Watcher struct {
	ch     chan types.Snapshot
	once   sync.Once
	remove func(*Watcher)
}

// C returns the snapshot channel. It is closed when the watcher or the
// controller is closed.
func (w *Watcher) C() <-chan types.Snapshot {
	return w.ch
}

// Close stops delivery.
func (w *Watcher) Close() {
	if w.remove != nil {
		w.remove(w)
	}
}

func (w *Watcher) close() {
	w.once.Do(func() { close(w.ch) })
}

// offer replaces any unread snapshot with snap. Callers hold pubMu.
func (w *Watcher) offer(snap types.Snapshot) {
	select {
	case <-w.ch:
	default:
	}
	w.ch <- snap
}

// Watch registers a watcher primed with the current snapshot.
func (c *Controller) Watch() *Watcher {
	w := &Watcher{
		ch:     make(chan types.Snapshot, 1),
		remove: c.unwatch,
	}
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if c.ctx.Err() != nil {
		w.close()
		return w
	}
	c.watchers[w] = struct{}{}
	w.offer(c.Snapshot())
	return w
}

func (c *Controller) unwatch(w *Watcher) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if _, ok := c.watchers[w]; ok {
		delete(c.watchers, w)
		w.close()
	}
}

// publish hands the current snapshot to every watcher. The snapshot is
// taken under pubMu so the last publish always carries the latest state.
func (c *Controller) publish() {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if len(c.watchers) == 0 {
		return
	}
	snap := c.Snapshot()
	for w := range c.watchers {
		w.offer(snap)
	}
}
