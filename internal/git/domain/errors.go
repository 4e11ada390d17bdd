package domain

import "errors"

// Git-specific errors for history reads.
var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrCommitNotFound indicates the hash does not resolve to a commit.
	ErrCommitNotFound = errors.New("commit not found")

	// ErrEmptyHash indicates a commit lookup was attempted without a hash.
	ErrEmptyHash = errors.New("commit hash is required")
)
