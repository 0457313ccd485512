package store

import "sync"

// Observable holds a value and notifies subscribers of every change.
// Subscriptions conflate: a slow subscriber only ever sees the latest value.
type Observable[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[int]chan T
	nextID int
}

func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set stores v and publishes it. Callers must not mutate v afterwards.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.value = v
	for _, ch := range o.subs {
		publish(ch, v)
	}
}

// Subscribe returns a channel that immediately receives the current value
// and then every later one. The returned func unsubscribes and closes the
// channel.
func (o *Observable[T]) Subscribe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	ch := make(chan T, 1)
	ch <- o.value
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			close(ch)
			o.mu.Unlock()
		})
	}
}

func publish[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	// Drop the stale value. Only Set sends and it holds the lock, so the
	// second send cannot block.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
