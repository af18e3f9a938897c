package bridge

import (
	"sync"

	"github.com/moyoez/shareintent-go/types"
)

// SubscriptionBuffer is the number of events a subscriber may lag behind
// before Emit waits for it.
const SubscriptionBuffer = 64

// Subscription is one consumer's view of the bridge event stream.
type Subscription struct {
	events chan types.BridgeEvent
	done   chan struct{}
	once   sync.Once
	remove func(*Subscription)
}

// Events returns the event channel. It is never closed; select on Done too.
func (s *Subscription) Events() <-chan types.BridgeEvent {
	return s.events
}

// Done is closed once the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.remove != nil {
			s.remove(s)
		}
	})
}

// Emitter fans bridge events out to every open subscription, in order.
type Emitter struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEmitter creates an emitter without subscribers.
func NewEmitter() *Emitter {
	return &Emitter{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscription.
func (e *Emitter) Subscribe() *Subscription {
	s := &Subscription{
		events: make(chan types.BridgeEvent, SubscriptionBuffer),
		done:   make(chan struct{}),
		remove: e.unsubscribe,
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs[s] = struct{}{}
	return s
}

func (e *Emitter) unsubscribe(s *Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, s)
}

// Subscribers returns the number of open subscriptions.
func (e *Emitter) Subscribers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// Emit delivers ev to every subscription. Events are never dropped for an
// open subscription, so Emit waits when a buffer is full.
func (e *Emitter) Emit(ev types.BridgeEvent) {
	e.mu.RLock()
	subs := make([]*Subscription, 0, len(e.subs))
	for s := range e.subs {
		subs = append(subs, s)
	}
	e.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.events <- ev:
		case <-s.done:
		}
	}
}

// EmitChange emits an onChange event carrying payload.
func (e *Emitter) EmitChange(payload types.Payload) {
	e.Emit(types.BridgeEvent{Name: types.EventChange, Payload: payload})
}

// EmitError emits an onError event.
func (e *Emitter) EmitError(message string) {
	e.Emit(types.BridgeEvent{Name: types.EventError, Data: message})
}

// EmitState emits an onStateChange event, "pending" or "none".
func (e *Emitter) EmitState(state string) {
	e.Emit(types.BridgeEvent{Name: types.EventStateChange, Data: state})
}
