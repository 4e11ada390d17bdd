package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/gitglance/internal/config"
	"github.com/zjrosen/gitglance/internal/gateway"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/host"
)

// testRepo creates a repository with two commits and returns its path and
// the commit hashes, oldest first.
func testRepo(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	when := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	var hashes []string
	for _, c := range []struct{ file, content, msg string }{
		{"README.md", "hello\n", "Initial commit"},
		{"README.md", "hello\nworld\n", "Add world\n\nThe greeting needed a noun."},
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, c.file), []byte(c.content), 0600))
		_, err := wt.Add(c.file)
		require.NoError(t, err)
		when = when.Add(time.Minute)
		h, err := wt.Commit(c.msg, &git.CommitOptions{
			Author: &object.Signature{Name: "Ada Lovelace", Email: "ada@example.com", When: when},
		})
		require.NoError(t, err)
		hashes = append(hashes, h.String())
	}
	return dir, hashes
}

// writeConfig writes a YAML config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// execute runs the CLI with a fresh flag state and returns stdout and stderr.
func execute(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cfgFile, repoFlag, debug = "", "", false
	commitsOutput, showOutput, showStat = outputText, outputText, false
	initForce, serveListen = false, ""
	cfg = config.Config{}

	if configPath == "" {
		configPath = writeConfig(t, "")
	}
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGreet(t *testing.T) {
	dir, _ := testRepo(t)
	out, _, err := execute(t, "", "greet", "Ada", "--repo", dir)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada! You've been greeted from Go!\n", out)
}

func TestGreet_RequiresName(t *testing.T) {
	_, _, err := execute(t, "", "greet")
	require.Error(t, err)
}

func TestCommits_Text(t *testing.T) {
	dir, hashes := testRepo(t)
	out, _, err := execute(t, "", "commits", "--repo", dir)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), domain.ShortHash(hashes[1]))
	assert.Contains(t, string(lines[0]), "Add world")
	assert.Contains(t, string(lines[1]), "Initial commit")
	assert.Contains(t, string(lines[1]), "(Ada Lovelace)")
}

func TestCommits_JSON(t *testing.T) {
	dir, hashes := testRepo(t)
	out, _, err := execute(t, "", "commits", "--repo", dir, "--output", "json")
	require.NoError(t, err)

	var commits []domain.Commit
	require.NoError(t, json.Unmarshal([]byte(out), &commits))
	require.Len(t, commits, 2)
	assert.Equal(t, hashes[1], commits[0].Hash)
	assert.Equal(t, "The greeting needed a noun.", commits[0].Description)
}

func TestCommits_YAML(t *testing.T) {
	dir, hashes := testRepo(t)
	out, _, err := execute(t, "", "commits", "--repo", dir, "-o", "yaml")
	require.NoError(t, err)

	var commits []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &commits))
	require.Len(t, commits, 2)
	assert.Equal(t, hashes[0], commits[1]["hash"])
	assert.Equal(t, "Initial commit", commits[1]["message"])
}

func TestCommits_UnknownOutput(t *testing.T) {
	dir, _ := testRepo(t)
	_, _, err := execute(t, "", "commits", "--repo", dir, "-o", "xml")
	require.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestCommits_LimitFromConfig(t *testing.T) {
	dir, hashes := testRepo(t)
	path := writeConfig(t, "commit_limit: 1\nrepo_path: "+dir+"\n")

	out, _, err := execute(t, path, "commits", "-o", "json")
	require.NoError(t, err)

	var commits []domain.Commit
	require.NoError(t, json.Unmarshal([]byte(out), &commits))
	require.Len(t, commits, 1)
	assert.Equal(t, hashes[1], commits[0].Hash)
}

func TestCommits_NotARepository(t *testing.T) {
	_, _, err := execute(t, "", "commits", "--repo", t.TempDir())
	require.ErrorIs(t, err, domain.ErrNotGitRepo)
}

func TestShow(t *testing.T) {
	dir, hashes := testRepo(t)
	out, _, err := execute(t, "", "show", hashes[1], "--repo", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "commit "+hashes[1])
	assert.Contains(t, out, "Author: Ada Lovelace <ada@example.com>")
	assert.Contains(t, out, "    Add world\n\n    The greeting needed a noun.\n")
	assert.Contains(t, out, " 1 file changed, 1 insertions(+), 0 deletions(-)")
	assert.Contains(t, out, "+world")
}

func TestShow_StatOmitsDiff(t *testing.T) {
	dir, hashes := testRepo(t)
	out, _, err := execute(t, "", "show", hashes[1], "--repo", dir, "--stat")
	require.NoError(t, err)
	assert.Contains(t, out, "README.md")
	assert.NotContains(t, out, "+world")
}

func TestShow_UnknownHash(t *testing.T) {
	dir, _ := testRepo(t)
	_, _, err := execute(t, "", "show", "0000000000000000000000000000000000000000", "--repo", dir)

	var hostErr *gateway.HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, host.CodeCommitNotFound, hostErr.Code)
}

func TestInvalidConfig(t *testing.T) {
	path := writeConfig(t, "host:\n  mode: carrier-pigeon\n")
	_, _, err := execute(t, path, "greet", "Ada")
	require.ErrorContains(t, err, "invalid config")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitglance", "config.yaml")

	out, _, err := execute(t, "", "init", path)
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+path+"\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigTemplate(), string(data))

	_, _, err = execute(t, "", "init", path)
	require.ErrorContains(t, err, "already exists")

	_, _, err = execute(t, "", "init", path, "--force")
	require.NoError(t, err)
}

func TestInit_IgnoresBrokenConfig(t *testing.T) {
	broken := writeConfig(t, "host:\n  mode: carrier-pigeon\n")
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, _, err := execute(t, broken, "init", path)
	require.NoError(t, err)
}

func TestTracing_StdoutExporterWritesToStderr(t *testing.T) {
	dir, _ := testRepo(t)
	path := writeConfig(t, "tracing:\n  exporter: stdout\n")

	_, stderr, err := execute(t, path, "greet", "Ada", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "invoke greet")
}

func TestRemoteHost(t *testing.T) {
	dir, hashes := testRepo(t)

	h, _, err := openLocalHost(config.Config{RepoPath: dir})
	require.NoError(t, err)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveHost(ctx, gateway.NewServer(h), lis) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	// The client has no repository of its own.
	path := writeConfig(t, "host:\n  mode: grpc\n  address: "+lis.Addr().String()+"\n")
	out, _, err := execute(t, path, "commits", "--repo", t.TempDir(), "-o", "json")
	require.NoError(t, err)

	var commits []domain.Commit
	require.NoError(t, json.Unmarshal([]byte(out), &commits))
	require.Len(t, commits, 2)
	assert.Equal(t, hashes[1], commits[0].Hash)

	out, _, err = execute(t, path, "greet", "Grace")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Grace! You've been greeted from Go!\n", out)
}

func TestServeHost_ReturnsWhenContextDone(t *testing.T) {
	dir, _ := testRepo(t)
	h, _, err := openLocalHost(config.Config{RepoPath: dir})
	require.NoError(t, err)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, serveHost(ctx, gateway.NewServer(h), lis))
}

func TestFormatDetail(t *testing.T) {
	d := domain.CommitDetail{
		Commit: domain.Commit{
			Hash:      "abc1234000000000000000000000000000000000",
			Message:   "Merge branch",
			Author:    "Grace",
			Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Parents: []string{"1111111aaaa", "2222222bbbb"},
		Files: []domain.FileChange{
			{Path: "a.go", Added: 3, Removed: 1},
			{Path: "internal/b.go", Added: 0, Removed: 2},
		},
		Diff: "diff --git a/a.go b/a.go",
	}

	out := formatDetail(d, false)
	assert.Contains(t, out, "Merge: 1111111 2222222\n")
	assert.Contains(t, out, "Author: Grace\n")
	assert.Contains(t, out, "Date:   Fri Mar 1 12:00:00 2024 +0000\n")
	assert.Contains(t, out, " a.go          | +3 -1\n")
	assert.Contains(t, out, " 2 files changed, 3 insertions(+), 3 deletions(-)\n")
	assert.NotContains(t, out, "diff --git")

	assert.Contains(t, formatDetail(d, true), "diff --git a/a.go b/a.go\n")
}
