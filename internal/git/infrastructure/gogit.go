// Package infrastructure implements the git ports on top of go-git.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/zjrosen/gitglance/internal/git/application"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/log"
)

var _ application.CommitReader = (*GoGitReader)(nil)

// GoGitReader implements application.CommitReader using go-git.
type GoGitReader struct {
	repo   *git.Repository
	gitDir string
}

// OpenRepository opens the repository containing path, walking up to find .git.
// Returns ErrNotGitRepo if no repository is found.
func OpenRepository(path string) (*GoGitReader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving repository path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotGitRepo, abs)
		}
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	gitDir := abs
	if wt, err := repo.Worktree(); err == nil {
		gitDir = filepath.Join(wt.Filesystem.Root(), git.GitDirName)
	}
	if fi, err := os.Stat(gitDir); err != nil || !fi.IsDir() {
		// Linked worktrees keep a .git file; watch the checkout root instead.
		gitDir = filepath.Dir(gitDir)
	}

	log.Debug(log.CatGit, "Opened repository", "path", abs, "gitDir", gitDir)
	return &GoGitReader{repo: repo, gitDir: gitDir}, nil
}

// GitDir returns the repository's .git directory.
func (r *GoGitReader) GitDir() string {
	return r.gitDir
}

// GetCommitLog returns commits reachable from HEAD, newest first.
func (r *GoGitReader) GetCommitLog(ctx context.Context, limit int) ([]domain.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []domain.Commit{}, nil
		}
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	commits := []domain.Commit{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, toCommit(c))
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking log: %w", err)
	}

	log.Debug(log.CatGit, "GetCommitLog", "count", len(commits), "limit", limit)
	return commits, nil
}

// GetCommit returns the detail of a single commit, including its diff
// against the first parent (or the empty tree for a root commit).
func (r *GoGitReader) GetCommit(ctx context.Context, hash string) (domain.CommitDetail, error) {
	if strings.TrimSpace(hash) == "" {
		return domain.CommitDetail{}, domain.ErrEmptyHash
	}

	resolved, err := r.repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return domain.CommitDetail{}, fmt.Errorf("%w: %s", domain.ErrCommitNotFound, hash)
	}
	c, err := r.repo.CommitObject(*resolved)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return domain.CommitDetail{}, fmt.Errorf("%w: %s", domain.ErrCommitNotFound, hash)
		}
		return domain.CommitDetail{}, fmt.Errorf("loading commit %s: %w", hash, err)
	}

	toTree, err := c.Tree()
	if err != nil {
		return domain.CommitDetail{}, fmt.Errorf("loading tree: %w", err)
	}
	fromTree := &object.Tree{}
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return domain.CommitDetail{}, fmt.Errorf("loading parent: %w", err)
		}
		if fromTree, err = parent.Tree(); err != nil {
			return domain.CommitDetail{}, fmt.Errorf("loading parent tree: %w", err)
		}
	}

	patch, err := fromTree.PatchContext(ctx, toTree)
	if err != nil {
		return domain.CommitDetail{}, fmt.Errorf("computing diff: %w", err)
	}

	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}

	stats := patch.Stats()
	files := make([]domain.FileChange, 0, len(stats))
	for _, s := range stats {
		files = append(files, domain.FileChange{Path: s.Name, Added: s.Addition, Removed: s.Deletion})
	}

	return domain.CommitDetail{
		Commit:      toCommit(c),
		AuthorEmail: c.Author.Email,
		Parents:     parents,
		Files:       files,
		Diff:        patch.String(),
	}, nil
}

func toCommit(c *object.Commit) domain.Commit {
	subject, body := splitMessage(c.Message)
	hash := c.Hash.String()
	return domain.Commit{
		Hash:        hash,
		ShortHash:   domain.ShortHash(hash),
		Message:     subject,
		Author:      c.Author.Name,
		Timestamp:   c.Author.When,
		Description: body,
	}
}

// splitMessage separates the subject line from the body.
func splitMessage(msg string) (subject, body string) {
	msg = strings.TrimSpace(msg)
	subject, body, _ = strings.Cut(msg, "\n")
	return strings.TrimSpace(subject), strings.TrimSpace(body)
}
