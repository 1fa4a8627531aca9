// Package viewstate holds the live list of recent sightings that every view
// renders, and forwards user mutations to the store.
//
// The list is never edited locally except for the favorite flag: each
// snapshot from the live query replaces it wholesale, so a write becomes
// visible when the backend echoes it back.
package viewstate

import (
	"sort"
	"sync"
)

// Source is the read-only side of an Observable.
type Source[T any] interface {
	// Value returns the current value and whether one has been set.
	Value() (T, bool)
	// Observe registers fn. It is called with the current value right away
	// when one is set, then once per update, in update order.
	Observe(fn func(T)) (unsubscribe func())
}

// Observable is a value with change notification. It has a single writer;
// notifications are serialized, so observers see values in the order they
// were set.
type Observable[T any] struct {
	deliver sync.Mutex

	mu        sync.RWMutex
	value     T
	set       bool
	observers map[int]func(T)
	next      int
}

// NewObservable returns an observable with no value.
func NewObservable[T any]() *Observable[T] {
	return &Observable[T]{observers: make(map[int]func(T))}
}

func (o *Observable[T]) Value() (T, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value, o.set
}

// Set stores v and notifies observers before returning.
func (o *Observable[T]) Set(v T) {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	o.value = v
	o.set = true
	ids := make([]int, 0, len(o.observers))
	for id := range o.observers {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := o.observer(id); ok {
			fn(v)
		}
	}
}

func (o *Observable[T]) Observe(fn func(T)) func() {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	id := o.next
	o.next++
	o.observers[id] = fn
	v, set := o.value, o.set
	o.mu.Unlock()

	if set {
		fn(v)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.observers, id)
			o.mu.Unlock()
		})
	}
}

// observer looks fn up again so an observer removed mid-delivery is skipped.
func (o *Observable[T]) observer(id int) (func(T), bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	fn, ok := o.observers[id]
	return fn, ok
}

// Observers returns the number of registered observers.
func (o *Observable[T]) Observers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.observers)
}

var _ Source[int] = (*Observable[int])(nil)
