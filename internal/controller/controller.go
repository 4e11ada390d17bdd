// Package controller holds the UI state of the shell: the greeting, the
// commit list, the selected commit and its detail. Data comes from the query
// cache over the command gateway; the controller keeps selection and data
// consistent while requests resolve out of order.
package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/zjrosen/gitglance/internal/gateway"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/host"
	"github.com/zjrosen/gitglance/internal/log"
	"github.com/zjrosen/gitglance/internal/query"
)

// CommitsKey identifies the commit list query.
func CommitsKey() query.Key {
	return query.NewKey("commits")
}

// CommitKey identifies the detail query for hash.
func CommitKey(hash string) query.Key {
	return query.NewKey("commit", hash)
}

// View is a consistent snapshot of everything the UI renders.
type View struct {
	Greeting     string
	GreetErr     error
	GreetPending bool
	Commits      query.State[[]domain.Commit]
	ActiveHash   string
	Detail       query.State[domain.CommitDetail]
}

// Controller owns selection and greeting state and the two cached queries.
type Controller struct {
	gw gateway.Invoker
	qc *query.Client

	commits *query.Observer[[]domain.Commit]
	detail  *query.Observer[domain.CommitDetail]

	// selectMu serializes selection changes so the stored hash and the
	// detail observer's key always move together.
	selectMu sync.Mutex

	mu           sync.Mutex
	activeHash   string
	greeting     string
	greetErr     error
	greetSeq     uint64
	greetPending int
	listeners    map[uint64]func()
	nextID       uint64
	closed       bool

	changed     chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	unsubscribe func()
}

// New creates a Controller and mounts the commit list query, which starts
// fetching immediately unless it is already cached in qc.
func New(gw gateway.Invoker, qc *query.Client) *Controller {
	c := &Controller{
		gw:        gw,
		qc:        qc,
		listeners: make(map[uint64]func()),
		changed:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	c.unsubscribe = qc.Subscribe(c.onQueryEvent)
	c.commits = query.Observe(qc, c.commitsQuery())
	c.detail = query.Observe(qc, c.detailQuery(""))
	go c.notifyLoop()
	return c
}

func (c *Controller) commitsQuery() query.Query[[]domain.Commit] {
	return query.Query[[]domain.Commit]{
		Key: CommitsKey(),
		Fn: func(ctx context.Context) ([]domain.Commit, error) {
			return gateway.Call[[]domain.Commit](ctx, c.gw, host.CmdGetCommits, nil)
		},
		Enabled: true,
	}
}

func (c *Controller) detailQuery(hash string) query.Query[domain.CommitDetail] {
	return query.Query[domain.CommitDetail]{
		Key: CommitKey(hash),
		Fn: func(ctx context.Context) (domain.CommitDetail, error) {
			return gateway.Call[domain.CommitDetail](ctx, c.gw, host.CmdGetCommit, gateway.Args{"hash": hash})
		},
		Enabled: hash != "",
	}
}

// Close unmounts both queries and stops notifications. The query client is
// owned by the caller and left open.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.unsubscribe()
	c.commits.Close()
	c.detail.Close()
	close(c.done)
	<-c.stopped
}

// SetActiveCommitHash selects a commit. It returns immediately; an empty hash
// clears the selection and disables the detail query.
func (c *Controller) SetActiveCommitHash(hash string) {
	c.selectMu.Lock()
	defer c.selectMu.Unlock()

	c.mu.Lock()
	if c.activeHash == hash {
		c.mu.Unlock()
		return
	}
	c.activeHash = hash
	c.mu.Unlock()

	log.Debug(log.CatControl, "Selected commit", "hash", hash)
	c.detail.SetQuery(c.detailQuery(hash))
	c.notify()
}

// ActiveCommitHash returns the current selection, or "" for none.
func (c *Controller) ActiveCommitHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeHash
}

// Commits returns the commit list query state.
func (c *Controller) Commits() query.State[[]domain.Commit] {
	return c.commits.State()
}

// CommitDetail returns the detail state for the current selection. It never
// returns data for a hash other than ActiveCommitHash.
func (c *Controller) CommitDetail() query.State[domain.CommitDetail] {
	c.selectMu.Lock()
	defer c.selectMu.Unlock()
	return c.detailLocked(c.ActiveCommitHash())
}

func (c *Controller) detailLocked(hash string) query.State[domain.CommitDetail] {
	want := CommitKey(hash)
	st := c.detail.State()
	if st.Key != want {
		status := query.StatusPending
		if hash == "" {
			status = query.StatusIdle
		}
		return query.State[domain.CommitDetail]{Key: want, Status: status}
	}
	return st
}

// RefreshCommits invalidates the commit list so it is fetched again.
func (c *Controller) RefreshCommits() {
	log.Debug(log.CatControl, "Refreshing commits")
	c.qc.Invalidate(CommitsKey())
}

// RefetchDetail asks for fresh detail of the current selection.
func (c *Controller) RefetchDetail() bool {
	return c.detail.Refetch()
}

// LoadCommitDetail selects hash and waits for its detail. It shares the
// in-flight request with the selection-driven query.
func (c *Controller) LoadCommitDetail(ctx context.Context, hash string) (domain.CommitDetail, error) {
	if hash == "" {
		return domain.CommitDetail{}, domain.ErrEmptyHash
	}
	c.SetActiveCommitHash(hash)
	return query.Fetch(ctx, c.qc, c.detailQuery(hash))
}

// LoadCommits waits for the commit list.
func (c *Controller) LoadCommits(ctx context.Context) ([]domain.Commit, error) {
	return query.Fetch(ctx, c.qc, c.commitsQuery())
}

// Greet invokes the greet command. Every call reaches the host; only the
// most recently started call may update the greeting. On failure the
// previous greeting stays and the error is kept for display.
func (c *Controller) Greet(ctx context.Context, name string) error {
	c.mu.Lock()
	c.greetSeq++
	seq := c.greetSeq
	c.greetPending++
	c.mu.Unlock()
	c.notify()

	greeting, err := gateway.Call[string](ctx, c.gw, host.CmdGreet, gateway.Args{"name": name})

	c.mu.Lock()
	c.greetPending--
	latest := seq == c.greetSeq
	if latest {
		if err != nil {
			c.greetErr = err
		} else {
			c.greeting = greeting
			c.greetErr = nil
		}
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		log.Debug(log.CatControl, "Greet failed", "latest", latest, "error", err)
		return err
	}
	if !latest {
		return ErrSuperseded
	}
	return nil
}

// ErrSuperseded is returned by Greet when a later submission started before
// this one finished, so its result was not applied.
var ErrSuperseded = errors.New("greeting superseded by a later submission")

// Greeting returns the current greeting text.
func (c *Controller) Greeting() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.greeting
}

// View returns a snapshot of all UI state.
func (c *Controller) View() View {
	c.selectMu.Lock()
	defer c.selectMu.Unlock()

	c.mu.Lock()
	v := View{
		Greeting:     c.greeting,
		GreetErr:     c.greetErr,
		GreetPending: c.greetPending > 0,
		ActiveHash:   c.activeHash,
	}
	c.mu.Unlock()

	v.Commits = c.commits.State()
	v.Detail = c.detailLocked(v.ActiveHash)
	return v
}

// Subscribe registers fn to be called after state changes. Calls are
// coalesced, so fn should read View rather than count invocations. fn runs
// on the controller's notification goroutine.
func (c *Controller) Subscribe(fn func()) func() {
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

func (c *Controller) onQueryEvent(ev query.Event) {
	if ev.Key == CommitsKey() || ev.Key == CommitKey(c.ActiveCommitHash()) {
		c.notify()
	}
}

func (c *Controller) notify() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

func (c *Controller) notifyLoop() {
	defer close(c.stopped)
	for {
		select {
		case <-c.changed:
		case <-c.done:
			return
		}
		c.mu.Lock()
		fns := make([]func(), 0, len(c.listeners))
		for _, fn := range c.listeners {
			fns = append(fns, fn)
		}
		c.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}
