package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zjrosen/gitglance/internal/log"
)

// Local invokes an in-process Handler. Args and results cross a JSON
// boundary so the client sees the same shapes a remote host would send.
type Local struct {
	handler Handler
}

var _ Invoker = (*Local)(nil)

// NewLocal creates an Invoker backed by h.
func NewLocal(h Handler) *Local {
	return &Local{handler: h}
}

// Invoke implements Invoker.
func (l *Local) Invoke(ctx context.Context, name string, args Args) (json.RawMessage, error) {
	if name == "" {
		return nil, &TransportError{Command: name, Err: ErrEmptyCommand}
	}

	rawArgs, err := marshalArgs(args)
	if err != nil {
		return nil, &TransportError{Command: name, Err: err}
	}

	result, err := l.handler.Handle(ctx, name, rawArgs)
	if err != nil {
		log.Debug(log.CatGateway, "Host reported failure", "command", name, "error", err)
		return nil, &HostError{Command: name, Code: errorCode(err), Message: err.Error()}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, &TransportError{Command: name, Err: fmt.Errorf("encoding result: %w", err)}
	}
	return raw, nil
}

func marshalArgs(args Args) (json.RawMessage, error) {
	if args == nil {
		return nil, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding args: %w", err)
	}
	return raw, nil
}
