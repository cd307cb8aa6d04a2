package engine

import "sync"

// eventBus fans BlockChange events out to subscribers. Delivery is
// best-effort: a subscriber that stops draining loses events rather than
// stalling the mutation path.
type eventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan BlockChange
	closed bool
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan BlockChange)}
}

func (b *eventBus) subscribe(buffer int) (<-chan BlockChange, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan BlockChange, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *eventBus) publish(ev BlockChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *eventBus) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribe registers a block-change listener. The returned cancel function
// closes the channel and releases the subscription.
func (w *World) Subscribe(buffer int) (<-chan BlockChange, func()) {
	if buffer < 1 {
		buffer = 64
	}
	return w.events.subscribe(buffer)
}
