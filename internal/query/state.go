package query

import (
	"context"
	"fmt"
	"time"
)

// Status is the lifecycle position of a query key.
type Status string

const (
	// StatusIdle means no request has been issued, or the last one was abandoned.
	StatusIdle Status = "idle"
	// StatusPending means a request is in flight.
	StatusPending Status = "pending"
	// StatusSuccess means the last applied request resolved with data.
	StatusSuccess Status = "success"
	// StatusError means the last applied request failed. No data is retained.
	StatusError Status = "error"
)

// Fetcher produces the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Snapshot is an untyped, point-in-time copy of one cache entry.
type Snapshot struct {
	Key       Key
	Status    Status
	Data      any
	Err       error
	Epoch     uint64 // number of results applied for this key
	UpdatedAt time.Time
}

// Event reports a state transition of one key.
type Event struct {
	Key      Key
	Snapshot Snapshot
}

// Query describes a typed, parameterized request.
type Query[T any] struct {
	Key     Key
	Fn      func(ctx context.Context) (T, error)
	Enabled bool
}

func (q Query[T]) fetcher() Fetcher {
	fn := q.Fn
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

// State is the typed view of a query's entry.
type State[T any] struct {
	Key       Key
	Status    Status
	Data      T
	Err       error
	Epoch     uint64
	UpdatedAt time.Time
}

// IsIdle reports whether no request is outstanding or settled.
func (s State[T]) IsIdle() bool { return s.Status == StatusIdle }

// IsPending reports whether a request is in flight.
func (s State[T]) IsPending() bool { return s.Status == StatusPending }

// IsSuccess reports whether Data holds a resolved value.
func (s State[T]) IsSuccess() bool { return s.Status == StatusSuccess }

// IsError reports whether the last request failed.
func (s State[T]) IsError() bool { return s.Status == StatusError }

func typedState[T any](snap Snapshot) State[T] {
	st := State[T]{
		Key:       snap.Key,
		Status:    snap.Status,
		Err:       snap.Err,
		Epoch:     snap.Epoch,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.Data != nil {
		data, ok := snap.Data.(T)
		if !ok {
			st.Status = StatusError
			st.Err = fmt.Errorf("query: key %s holds %T, not the requested type", snap.Key, snap.Data)
			return st
		}
		st.Data = data
	}
	return st
}
