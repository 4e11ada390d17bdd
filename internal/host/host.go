// Package host implements the command surface the client invokes: greet,
// get_commits and get_commit. It runs either in-process behind
// gateway.Local or remotely behind gateway.NewServer.
package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zjrosen/gitglance/internal/git/application"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/log"
)

// Command names.
const (
	CmdGreet      = "greet"
	CmdGetCommits = "get_commits"
	CmdGetCommit  = "get_commit"
)

// Error codes reported to callers in CommandError.
const (
	CodeUnknownCommand = "unknown_command"
	CodeInvalidArgs    = "invalid_args"
	CodeCommitNotFound = "commit_not_found"
	CodeNoRepository   = "no_repository"
	CodeInternal       = "internal"
)

// CommandError is a domain failure reported by a command handler.
type CommandError struct {
	Command string
	Code    string
	Err     error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the machine-readable failure code.
func (e *CommandError) ErrorCode() string {
	return e.Code
}

// Host executes commands against an optional commit repository.
type Host struct {
	repo        application.CommitReader
	commitLimit int
}

// Option configures a Host.
type Option func(*Host)

// WithCommitLimit caps the number of commits get_commits returns. 0 means all.
func WithCommitLimit(n int) Option {
	return func(h *Host) {
		h.commitLimit = n
	}
}

// New creates a Host. repo may be nil, in which case only greet succeeds.
func New(repo application.CommitReader, opts ...Option) *Host {
	h := &Host{repo: repo}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Greet formats the greeting returned by the greet command.
func Greet(name string) string {
	return fmt.Sprintf("Hello, %s! You've been greeted from Go!", name)
}

type greetArgs struct {
	Name *string `json:"name"`
}

type getCommitArgs struct {
	Hash string `json:"hash"`
}

// Handle dispatches a command by name. args is the JSON-encoded argument
// mapping and may be empty for commands that take none.
func (h *Host) Handle(ctx context.Context, name string, args json.RawMessage) (any, error) {
	log.Debug(log.CatHost, "Handling command", "command", name)

	switch name {
	case CmdGreet:
		var a greetArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, &CommandError{Command: name, Code: CodeInvalidArgs, Err: err}
		}
		if a.Name == nil {
			return nil, &CommandError{Command: name, Code: CodeInvalidArgs, Err: errors.New("missing name")}
		}
		return Greet(*a.Name), nil

	case CmdGetCommits:
		if h.repo == nil {
			return nil, &CommandError{Command: name, Code: CodeNoRepository, Err: domain.ErrNotGitRepo}
		}
		commits, err := h.repo.GetCommitLog(ctx, h.commitLimit)
		if err != nil {
			return nil, &CommandError{Command: name, Code: CodeInternal, Err: err}
		}
		return commits, nil

	case CmdGetCommit:
		if h.repo == nil {
			return nil, &CommandError{Command: name, Code: CodeNoRepository, Err: domain.ErrNotGitRepo}
		}
		var a getCommitArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, &CommandError{Command: name, Code: CodeInvalidArgs, Err: err}
		}
		detail, err := h.repo.GetCommit(ctx, a.Hash)
		switch {
		case errors.Is(err, domain.ErrEmptyHash):
			return nil, &CommandError{Command: name, Code: CodeInvalidArgs, Err: err}
		case errors.Is(err, domain.ErrCommitNotFound):
			return nil, &CommandError{Command: name, Code: CodeCommitNotFound, Err: err}
		case err != nil:
			return nil, &CommandError{Command: name, Code: CodeInternal, Err: err}
		}
		return detail, nil

	default:
		return nil, &CommandError{Command: name, Code: CodeUnknownCommand, Err: fmt.Errorf("unknown command %q", name)}
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding args: %w", err)
	}
	return nil
}
