// Package query caches the results of asynchronous requests by key.
//
// Each key moves through idle -> pending -> success|error. At most one request
// is in flight per key, and a result is applied only if the request that
// produced it is still the latest one issued for its key and the key is still
// wanted by an observer. Everything else is discarded on arrival.
//
// All state transitions happen under a single mutex, so each event is applied
// atomically. Subscribers are notified in transition order on one goroutine.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/gitglance/internal/log"
)

// ErrClosed is returned by Fetch once the client has been closed.
var ErrClosed = errors.New("query client closed")

// ErrDisabled is returned by Fetch for a query whose Enabled is false.
var ErrDisabled = errors.New("query disabled")

// Options configures a Client.
type Options struct {
	// GCTime is how long an unobserved, settled entry stays cached.
	// Zero keeps entries for the lifetime of the client.
	GCTime time.Duration
	// Now overrides the clock used for UpdatedAt. Defaults to time.Now.
	Now func() time.Time
}

type entry struct {
	key       Key
	status    Status
	data      any
	err       error
	seq       uint64 // request whose result may be applied; 0 when none
	epoch     uint64
	observers int
	fetch     Fetcher
	updatedAt time.Time
	waiters   []chan struct{}
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		Epoch:     e.epoch,
		UpdatedAt: e.updatedAt,
	}
}

type listener struct {
	id uint64
	fn func(Event)
}

// Client owns the cache entries and the requests that fill them.
type Client struct {
	mu        sync.Mutex
	entries   *cache.Cache
	flights   singleflight.Group
	now       func() time.Time
	seq       uint64
	closed    bool
	listeners map[uint64]func(Event)
	nextID    uint64
	queue     []Event

	ctx     context.Context
	cancel  context.CancelFunc
	fetches sync.WaitGroup

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewClient creates a Client and starts its notification goroutine.
func NewClient(opts Options) *Client {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if opts.GCTime > 0 {
		expiration, cleanup = opts.GCTime, opts.GCTime
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		entries:   cache.New(expiration, cleanup),
		now:       now,
		listeners: make(map[uint64]func(Event)),
		ctx:       ctx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	c.entries.OnEvicted(func(k string, _ any) {
		log.Debug(log.CatQuery, "Dropped cache entry", "key", k)
	})
	go c.dispatch()
	return c
}

// Close cancels in-flight requests, waits for them to return and stops
// notifications. Results arriving after Close are discarded.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, item := range c.entries.Items() {
		if e, ok := item.Object.(*entry); ok {
			c.wakeLocked(e)
		}
	}
	c.mu.Unlock()

	c.cancel()
	c.fetches.Wait()
	close(c.done)
	<-c.stopped
}

// Subscribe registers fn for every state transition. The returned function
// removes it. fn runs on the client's notification goroutine and may call
// back into the client.
func (c *Client) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Snapshot returns the current entry for key, or an idle snapshot.
func (c *Client) Snapshot(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lookupLocked(key); ok {
		return e.snapshot()
	}
	return Snapshot{Key: key, Status: StatusIdle}
}

// Refetch issues a new request for key if it has a fetcher and none is in
// flight. It reports whether a request is now pending.
func (c *Client) Refetch(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookupLocked(key)
	if !ok || e.fetch == nil || c.closed {
		return false
	}
	if e.status != StatusPending {
		c.startLocked(e)
		c.storeLocked(e)
	}
	return true
}

// Invalidate marks every key starting with prefix as stale. Observed keys
// refetch immediately, replacing any request already in flight; unobserved
// keys are dropped so the next observer fetches fresh data. It returns the
// number of keys affected.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}

	n := 0
	for k, item := range c.entries.Items() {
		e, ok := item.Object.(*entry)
		if !ok || !e.key.HasPrefix(prefix) {
			continue
		}
		n++
		if e.observers == 0 {
			c.entries.Delete(k)
			continue
		}
		// A request already in flight may have read data from before the
		// invalidation. Forget it so the new request does not join it; its
		// result fails the sequence check.
		if e.status == StatusPending {
			c.flights.Forget(k)
		}
		c.startLocked(e)
		c.storeLocked(e)
	}
	log.Debug(log.CatQuery, "Invalidated keys", "prefix", prefix.String(), "count", n)
	return n
}

// Fetch returns the cached value for q, or starts (or joins) the request for
// it and waits. The caller counts as an observer while waiting, so the
// request is not abandoned underneath it.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) (T, error) {
	var zero T
	if !q.Enabled {
		return zero, ErrDisabled
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	e := c.attachLocked(q.Key, q.fetcher())
	for {
		if c.closed {
			c.detachLocked(q.Key)
			c.mu.Unlock()
			return zero, ErrClosed
		}
		switch e.status {
		case StatusSuccess, StatusError:
			snap := e.snapshot()
			c.detachLocked(q.Key)
			c.mu.Unlock()
			st := typedState[T](snap)
			return st.Data, st.Err
		case StatusIdle:
			// Only reachable if the entry was reset underneath us; start over.
			c.startLocked(e)
			c.storeLocked(e)
		}

		w := make(chan struct{})
		e.waiters = append(e.waiters, w)
		c.mu.Unlock()

		select {
		case <-w:
		case <-ctx.Done():
			c.mu.Lock()
			c.detachLocked(q.Key)
			c.mu.Unlock()
			return zero, ctx.Err()
		}
		c.mu.Lock()
	}
}

func (c *Client) lookupLocked(key Key) (*entry, bool) {
	v, ok := c.entries.Get(key.String())
	if !ok {
		return nil, false
	}
	e, ok := v.(*entry)
	return e, ok
}

// storeLocked (re)writes e with an expiration matching its state: observed or
// pending entries never expire, the rest use the gc time.
func (c *Client) storeLocked(e *entry) {
	exp := cache.NoExpiration
	if e.observers == 0 && e.status != StatusPending {
		exp = cache.DefaultExpiration
	}
	c.entries.Set(e.key.String(), e, exp)
}

// attachLocked registers an observer on key and starts a request if the key
// has nothing cached. Success and error are terminal until invalidated.
func (c *Client) attachLocked(key Key, fetch Fetcher) *entry {
	e, ok := c.lookupLocked(key)
	if !ok {
		e = &entry{key: key, status: StatusIdle}
	}
	if fetch != nil {
		e.fetch = fetch
	}
	e.observers++
	if e.status == StatusIdle && !c.closed {
		c.startLocked(e)
	}
	c.storeLocked(e)
	return e
}

// detachLocked drops an observer. When the last observer leaves a pending
// key, its in-flight request is orphaned and its result will be discarded.
func (c *Client) detachLocked(key Key) {
	e, ok := c.lookupLocked(key)
	if !ok {
		return
	}
	if e.observers > 0 {
		e.observers--
	}
	if e.observers == 0 && e.status == StatusPending {
		log.Debug(log.CatQuery, "Abandoned in-flight request", "key", key.String(), "seq", e.seq)
		e.seq = 0
		e.status = StatusIdle
		e.data = nil
		e.err = nil
		c.wakeLocked(e)
		c.emitLocked(e)
	}
	c.storeLocked(e)
}

func (c *Client) startLocked(e *entry) {
	c.seq++
	seq := c.seq
	e.seq = seq
	e.status = StatusPending
	e.err = nil
	c.emitLocked(e)

	log.Debug(log.CatQuery, "Fetch started", "key", e.key.String(), "seq", seq)

	fetch := e.fetch
	key := e.key
	c.fetches.Add(1)
	go c.run(key, seq, fetch)
}

func (c *Client) run(key Key, seq uint64, fetch Fetcher) {
	defer c.fetches.Done()

	ch := c.flights.DoChan(key.String(), func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("query: fetch for %s panicked: %v", key, r)
			}
		}()
		return fetch(c.ctx)
	})

	select {
	case res := <-ch:
		c.resolve(key, seq, res.Val, res.Err)
	case <-c.ctx.Done():
	}
}

func (c *Client) resolve(key Key, seq uint64, val any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(key)
	if c.closed || !ok || e.seq != seq || e.status != StatusPending {
		log.Debug(log.CatQuery, "Discarded superseded result", "key", key.String(), "seq", seq)
		return
	}

	if err != nil {
		log.Debug(log.CatQuery, "Fetch failed", "key", key.String(), "seq", seq, "error", err)
		e.status = StatusError
		e.err = err
		e.data = nil
	} else {
		log.Debug(log.CatQuery, "Fetch succeeded", "key", key.String(), "seq", seq)
		e.status = StatusSuccess
		e.data = val
		e.err = nil
	}
	e.seq = 0
	e.epoch++
	e.updatedAt = c.now()
	c.wakeLocked(e)
	c.emitLocked(e)
	c.storeLocked(e)
}

func (c *Client) wakeLocked(e *entry) {
	for _, w := range e.waiters {
		close(w)
	}
	e.waiters = nil
}

func (c *Client) emitLocked(e *entry) {
	if c.closed {
		return
	}
	c.queue = append(c.queue, Event{Key: e.key, Snapshot: e.snapshot()})
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) dispatch() {
	defer close(c.stopped)
	for {
		select {
		case <-c.wake:
		case <-c.done:
			return
		}
		for {
			c.mu.Lock()
			batch := c.queue
			c.queue = nil
			ls := make([]listener, 0, len(c.listeners))
			for id, fn := range c.listeners {
				ls = append(ls, listener{id: id, fn: fn})
			}
			c.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			sort.Slice(ls, func(i, j int) bool { return ls[i].id < ls[j].id })
			for _, ev := range batch {
				for _, l := range ls {
					l.fn(ev)
				}
			}
		}
	}
}
