package query

import "sync"

// Observer binds a consumer to one query at a time. Changing the query's key
// or disabling it releases the previous key, so a pending request nobody
// else is watching gets abandoned.
type Observer[T any] struct {
	c *Client

	mu       sync.Mutex // held across client calls; order is Observer.mu then Client.mu
	key      Key
	enabled  bool
	attached bool
	closed   bool
}

// Observe creates an Observer for q. An enabled query with nothing cached
// starts fetching immediately.
func Observe[T any](c *Client, q Query[T]) *Observer[T] {
	o := &Observer[T]{c: c}
	o.SetQuery(q)
	return o
}

// SetQuery rebinds the observer. Binding to the key it already watches only
// refreshes the fetcher and never triggers a request.
func (o *Observer[T]) SetQuery(q Query[T]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	o.c.mu.Lock()
	defer o.c.mu.Unlock()

	if o.attached && q.Enabled && q.Key == o.key {
		if e, ok := o.c.lookupLocked(q.Key); ok {
			e.fetch = q.fetcher()
		}
		return
	}

	if o.attached {
		o.c.detachLocked(o.key)
		o.attached = false
	}
	o.key = q.Key
	o.enabled = q.Enabled
	if q.Enabled {
		o.c.attachLocked(q.Key, q.fetcher())
		o.attached = true
	}
}

// Key returns the key currently bound.
func (o *Observer[T]) Key() Key {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.key
}

// State returns the entry for the bound key. A disabled observer is idle.
func (o *Observer[T]) State() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.enabled || o.closed {
		return State[T]{Key: o.key, Status: StatusIdle}
	}
	return typedState[T](o.c.Snapshot(o.key))
}

// Refetch requests fresh data for the bound key. It does nothing while a
// request is already in flight or the observer is disabled.
func (o *Observer[T]) Refetch() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.attached {
		return false
	}
	return o.c.Refetch(o.key)
}

// Close releases the bound key. The cached entry stays available to later
// observers until it is garbage collected.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	if o.attached {
		o.c.mu.Lock()
		o.c.detachLocked(o.key)
		o.c.mu.Unlock()
		o.attached = false
	}
}
