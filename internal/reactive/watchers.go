// Package reactive provides the change-notification list shared by the
// console's state stores.
package reactive

import (
	"sort"
	"sync"
)

// Watchers is a set of callbacks notified with a value of type T. Callbacks
// are invoked outside the internal lock, in subscription order, so a callback
// may subscribe or cancel without deadlocking.
type Watchers[T any] struct {
	lock sync.Mutex
	next int
	fns  map[int]func(T)
}

// Add registers fn and returns a func that removes it. Cancel is idempotent.
func (w *Watchers[T]) Add(fn func(T)) (cancel func()) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.fns == nil {
		w.fns = make(map[int]func(T))
	}
	id := w.next
	w.next++
	w.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.lock.Lock()
			defer w.lock.Unlock()
			delete(w.fns, id)
		})
	}
}

// Notify calls every registered callback with v.
func (w *Watchers[T]) Notify(v T) {
	w.lock.Lock()
	ids := make([]int, 0, len(w.fns))
	for id := range w.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, w.fns[id])
	}
	w.lock.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the number of registered callbacks.
func (w *Watchers[T]) Len() int {
	w.lock.Lock()
	defer w.lock.Unlock()
	return len(w.fns)
}
