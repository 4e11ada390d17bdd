package query

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type result struct {
	val string
	err error
}

// pendingCall is one invocation of a controlledFetcher, held until answered.
type pendingCall struct {
	arg  string
	resp chan result
}

func (p *pendingCall) succeed(val string) { p.resp <- result{val: val} }
func (p *pendingCall) fail(err error)     { p.resp <- result{err: err} }

// controlledFetcher lets a test decide when and how each request resolves.
type controlledFetcher struct {
	calls chan *pendingCall
	count atomic.Int32

	mu   sync.Mutex
	args []string
}

func newControlledFetcher() *controlledFetcher {
	return &controlledFetcher{calls: make(chan *pendingCall, 64)}
}

func (f *controlledFetcher) fn(arg string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		f.count.Add(1)
		f.mu.Lock()
		f.args = append(f.args, arg)
		f.mu.Unlock()

		call := &pendingCall{arg: arg, resp: make(chan result, 1)}
		f.calls <- call
		select {
		case r := <-call.resp:
			return r.val, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (f *controlledFetcher) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for fetch call")
		return nil
	}
}

func (f *controlledFetcher) requireNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch call for %q", c.arg)
	case <-time.After(50 * time.Millisecond):
	}
}

func itemQuery(f *controlledFetcher, arg string) Query[string] {
	return Query[string]{
		Key:     NewKey("item", arg),
		Fn:      f.fn(arg),
		Enabled: arg != "",
	}
}

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	c := NewClient(opts)
	t.Cleanup(c.Close)
	return c
}

func requireEventuallyState[T any](t *testing.T, o *Observer[T], cond func(State[T]) bool) State[T] {
	t.Helper()
	var st State[T]
	require.Eventually(t, func() bool {
		st = o.State()
		return cond(st)
	}, waitTimeout, 2*time.Millisecond)
	return st
}
