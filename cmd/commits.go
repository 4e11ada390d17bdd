package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/gitglance/internal/gateway"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/host"
)

var commitsOutput string

var commitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "List commits, newest first",
	Long: `List the commits of the repository, newest first, bounded by
commit_limit. Use --output json or yaml for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runCommits,
}

func init() {
	commitsCmd.Flags().StringVarP(&commitsOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(commitsCmd)
}

func runCommits(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	commits, err := gateway.Call[[]domain.Commit](ctx, s.invoker, host.CmdGetCommits, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, commitsOutput, commits); done {
		return err
	}
	return printCommits(out, commits)
}

func printCommits(w io.Writer, commits []domain.Commit) error {
	if len(commits) == 0 {
		_, err := fmt.Fprintln(w, "No commits yet")
		return err
	}
	for _, c := range commits {
		if _, err := fmt.Fprintf(w, "%s %s  %s (%s)\n",
			domain.ShortHash(c.Hash), c.Timestamp.Local().Format("2006-01-02"), c.Message, c.Author); err != nil {
			return err
		}
	}
	return nil
}
