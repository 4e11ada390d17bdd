package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitglance/internal/host"
)

type codedErr struct{ code string }

func (e codedErr) Error() string     { return "coded failure " + e.code }
func (e codedErr) ErrorCode() string { return e.code }

// fakeHandler records calls and answers a small fixed command set.
type fakeHandler struct {
	calls []string
	args  []json.RawMessage
}

func (f *fakeHandler) Handle(_ context.Context, name string, args json.RawMessage) (any, error) {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	switch name {
	case "echo":
		var m map[string]any
		if len(args) > 0 {
			if err := json.Unmarshal(args, &m); err != nil {
				return nil, err
			}
		}
		return m, nil
	case "fail":
		return nil, codedErr{code: "bad_thing"}
	case "plain_fail":
		return nil, errors.New("no code here")
	case "unencodable":
		return make(chan int), nil
	default:
		return "ok", nil
	}
}

func TestCall_DecodesResult(t *testing.T) {
	h := &fakeHandler{}
	out, err := Call[map[string]string](context.Background(), NewLocal(h), "echo", Args{"name": "Ada"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"name": "Ada"}, out)
	require.Equal(t, []string{"echo"}, h.calls)
}

func TestCall_DecodeFailureIsTransportError(t *testing.T) {
	_, err := Call[int](context.Background(), NewLocal(&fakeHandler{}), "other", nil)
	require.Error(t, err)
	require.True(t, IsTransport(err))
	require.False(t, IsHost(err))
}

func TestCall_PropagatesInvokerError(t *testing.T) {
	want := &TransportError{Command: "greet", Err: errors.New("unreachable")}
	inv := InvokerFunc(func(context.Context, string, Args) (json.RawMessage, error) {
		return nil, want
	})

	_, err := Call[string](context.Background(), inv, "greet", Args{"name": "Ada"})
	require.ErrorIs(t, err, want)
}

func TestErrorTypes(t *testing.T) {
	te := &TransportError{Command: "get_commits", Err: context.DeadlineExceeded}
	require.ErrorIs(t, te, context.DeadlineExceeded)
	require.Contains(t, te.Error(), "get_commits")

	he := &HostError{Command: "get_commit", Code: "commit_not_found", Message: "commit not found: abc"}
	require.True(t, IsHost(he))
	require.Contains(t, he.Error(), "commit_not_found")
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, "bad_thing", errorCode(codedErr{code: "bad_thing"}))
	require.Equal(t, "internal", errorCode(errors.New("plain")))

	cmdErr := &host.CommandError{Command: "get_commit", Code: host.CodeCommitNotFound, Err: errors.New("x")}
	require.Equal(t, host.CodeCommitNotFound, errorCode(cmdErr))
}
