// Package application defines ports (interfaces) for git operations.
package application

import (
	"context"

	domain "github.com/zjrosen/gitglance/internal/git/domain"
)

// CommitReader defines the read-only history operations the host needs.
// This abstraction allows for easy testing with mock implementations.
type CommitReader interface {
	// GetCommitLog returns the most recent commits reachable from HEAD, newest
	// first, up to limit. A limit of 0 means no limit.
	// Returns an empty slice for empty repositories.
	GetCommitLog(ctx context.Context, limit int) ([]domain.Commit, error)
	// GetCommit returns the detail for a full or abbreviated hash.
	// Returns ErrCommitNotFound if the hash does not resolve.
	GetCommit(ctx context.Context, hash string) (domain.CommitDetail, error)
	// GitDir returns the path of the repository's .git directory.
	GitDir() string
}
