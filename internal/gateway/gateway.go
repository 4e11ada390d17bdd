// Package gateway is the client's only boundary to the host process: a named
// command plus an argument mapping goes in, a JSON result or an error comes
// out. It performs no retries and does not interpret host error payloads.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyCommand is returned when Invoke is called without a command name.
var ErrEmptyCommand = errors.New("command name is required")

// Args is the argument mapping passed to a command.
type Args map[string]any

// Invoker marshals a command to the host and returns its raw result.
// Each call triggers exactly one host-side execution.
type Invoker interface {
	Invoke(ctx context.Context, name string, args Args) (json.RawMessage, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, name string, args Args) (json.RawMessage, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, name string, args Args) (json.RawMessage, error) {
	return f(ctx, name, args)
}

// Handler executes commands on the host side.
type Handler interface {
	Handle(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// TransportError means the call did not complete: the host was unreachable,
// the call was malformed, or the response could not be decoded.
type TransportError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("invoke %s: transport: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// HostError means the host executed the command and reported a failure.
// Code and Message are passed through from the host unchanged.
type HostError struct {
	Command string
	Code    string
	Message string
}

// Error implements the error interface.
func (e *HostError) Error() string {
	return fmt.Sprintf("invoke %s: host error %s: %s", e.Command, e.Code, e.Message)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsHost reports whether err is a HostError.
func IsHost(err error) bool {
	var he *HostError
	return errors.As(err, &he)
}

// Call invokes a command and decodes its result into T.
func Call[T any](ctx context.Context, inv Invoker, name string, args Args) (T, error) {
	var out T
	raw, err := inv.Invoke(ctx, name, args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &TransportError{Command: name, Err: fmt.Errorf("decoding result: %w", err)}
	}
	return out, nil
}

// errorCode extracts a host error code from err, defaulting to "internal".
func errorCode(err error) string {
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return "internal"
}
