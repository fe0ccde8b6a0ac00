package events

import (
	"log"
	"sync"
)

// #region bus-interface

// Bus fans events out to subscribers. Shared across agents; implementations
// must be safe for concurrent Publish.
type Bus interface {
	Publish(ev Event)
}

// Handler receives one published event.
type Handler func(ev Event)

// #endregion bus-interface

// #region callback-bus

// CallbackBus is a registry-backed Bus. Handlers run synchronously on the
// publishing goroutine; a panicking handler is logged and skipped.
type CallbackBus struct {
	mu     sync.RWMutex
	byKind map[Kind][]Handler
	all    []Handler
}

// NewCallbackBus creates an empty bus.
func NewCallbackBus() *CallbackBus {
	return &CallbackBus{byKind: make(map[Kind][]Handler)}
}

// Subscribe registers h for one event kind.
func (b *CallbackBus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byKind[kind] = append(b.byKind[kind], h)
}

// SubscribeAll registers h for every event kind.
func (b *CallbackBus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers ev to kind-specific handlers, then catch-all handlers.
func (b *CallbackBus) Publish(ev Event) {
	b.mu.RLock()
	kindSubs := append([]Handler(nil), b.byKind[ev.EventKind()]...)
	allSubs := append([]Handler(nil), b.all...)
	b.mu.RUnlock()

	for _, h := range kindSubs {
		safeCall(h, ev)
	}
	for _, h := range allSubs {
		safeCall(h, ev)
	}
}

func safeCall(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BUS] handler panic on %s: %v", ev.EventKind(), r)
		}
	}()
	h(ev)
}

// #endregion callback-bus

// #region nop-bus

// NopBus discards everything. Useful default when the host wires no listeners.
type NopBus struct{}

// Publish drops ev.
func (NopBus) Publish(Event) {}

// #endregion nop-bus
