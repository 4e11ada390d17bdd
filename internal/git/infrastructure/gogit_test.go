package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	domain "github.com/zjrosen/gitglance/internal/git/domain"
)

// testRepo creates a repository in a temp dir and returns a commit helper.
func testRepo(t *testing.T) (string, func(file, content, msg string) string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	when := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	commit := func(file, content, msg string) string {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0600))
		_, err := wt.Add(file)
		require.NoError(t, err)
		when = when.Add(time.Minute)
		h, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "Ada Lovelace", Email: "ada@example.com", When: when},
		})
		require.NoError(t, err)
		return h.String()
	}
	return dir, commit
}

func TestOpenRepository_NotARepo(t *testing.T) {
	_, err := OpenRepository(t.TempDir())
	require.ErrorIs(t, err, domain.ErrNotGitRepo)
}

func TestOpenRepository_DetectsFromSubdirectory(t *testing.T) {
	dir, commit := testRepo(t)
	commit("a.txt", "a\n", "init")

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0750))

	r, err := OpenRepository(sub)
	require.NoError(t, err)
	require.Equal(t, ".git", filepath.Base(r.GitDir()))
}

func TestGetCommitLog_EmptyRepository(t *testing.T) {
	dir, _ := testRepo(t)
	r, err := OpenRepository(dir)
	require.NoError(t, err)

	commits, err := r.GetCommitLog(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, commits)
	require.Empty(t, commits)
}

func TestGetCommitLog_NewestFirstWithLimit(t *testing.T) {
	dir, commit := testRepo(t)
	first := commit("a.txt", "a\n", "init")
	commit("b.txt", "b\n", "feat: get commits")
	third := commit("c.txt", "c\n", "fix: update config\n\nLonger explanation.")

	r, err := OpenRepository(dir)
	require.NoError(t, err)

	commits, err := r.GetCommitLog(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, commits, 3)
	require.Equal(t, third, commits[0].Hash)
	require.Equal(t, third[:7], commits[0].ShortHash)
	require.Equal(t, "fix: update config", commits[0].Message)
	require.Equal(t, "Longer explanation.", commits[0].Description)
	require.Equal(t, "Ada Lovelace", commits[0].Author)
	require.Equal(t, first, commits[2].Hash)

	limited, err := r.GetCommitLog(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestGetCommit_Detail(t *testing.T) {
	dir, commit := testRepo(t)
	root := commit("a.txt", "one\n", "init")
	second := commit("a.txt", "one\ntwo\n", "add line")

	r, err := OpenRepository(dir)
	require.NoError(t, err)

	detail, err := r.GetCommit(context.Background(), second)
	require.NoError(t, err)
	require.Equal(t, second, detail.Hash)
	require.Equal(t, "add line", detail.Message)
	require.Equal(t, "ada@example.com", detail.AuthorEmail)
	require.Equal(t, []string{root}, detail.Parents)
	require.Equal(t, []domain.FileChange{{Path: "a.txt", Added: 1, Removed: 0}}, detail.Files)
	require.Contains(t, detail.Diff, "+two")

	rootDetail, err := r.GetCommit(context.Background(), root[:7])
	require.NoError(t, err)
	require.Equal(t, root, rootDetail.Hash)
	require.Empty(t, rootDetail.Parents)
	require.Contains(t, rootDetail.Diff, "+one")
}

func TestGetCommit_Errors(t *testing.T) {
	dir, commit := testRepo(t)
	commit("a.txt", "a\n", "init")
	r, err := OpenRepository(dir)
	require.NoError(t, err)

	_, err = r.GetCommit(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrEmptyHash)

	_, err = r.GetCommit(context.Background(), "0000000000000000000000000000000000000000")
	require.ErrorIs(t, err, domain.ErrCommitNotFound)
}
