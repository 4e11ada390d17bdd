package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/gitglance/internal/gateway"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/host"
)

var (
	showOutput string
	showStat   bool
)

var showCmd = &cobra.Command{
	Use:   "show <hash>",
	Short: "Show one commit with its diff",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", outputText, "output format: text, json or yaml")
	showCmd.Flags().BoolVar(&showStat, "stat", false, "omit the diff (text output only)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	detail, err := gateway.Call[domain.CommitDetail](ctx, s.invoker, host.CmdGetCommit, gateway.Args{"hash": args[0]})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, showOutput, detail); done {
		return err
	}
	_, err = io.WriteString(out, formatDetail(detail, !showStat))
	return err
}

// formatDetail renders a commit like `git show --stat`, plus the patch when
// withDiff is set.
func formatDetail(d domain.CommitDetail, withDiff bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", d.Hash)
	if len(d.Parents) > 1 {
		short := make([]string, len(d.Parents))
		for i, p := range d.Parents {
			short[i] = domain.ShortHash(p)
		}
		fmt.Fprintf(&b, "Merge: %s\n", strings.Join(short, " "))
	}
	if d.AuthorEmail != "" {
		fmt.Fprintf(&b, "Author: %s <%s>\n", d.Author, d.AuthorEmail)
	} else {
		fmt.Fprintf(&b, "Author: %s\n", d.Author)
	}
	fmt.Fprintf(&b, "Date:   %s\n\n", d.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))

	fmt.Fprintf(&b, "    %s\n", d.Message)
	if d.Description != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(d.Description, "\n") {
			if line == "" {
				b.WriteString("\n")
				continue
			}
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}

	if len(d.Files) > 0 {
		b.WriteString("\n")
		width := 0
		for _, f := range d.Files {
			width = max(width, len(f.Path))
		}
		for _, f := range d.Files {
			fmt.Fprintf(&b, " %-*s | +%d -%d\n", width, f.Path, f.Added, f.Removed)
		}
		added, removed := d.Totals()
		files := "files"
		if len(d.Files) == 1 {
			files = "file"
		}
		fmt.Fprintf(&b, " %d %s changed, %d insertions(+), %d deletions(-)\n", len(d.Files), files, added, removed)
	}

	if withDiff && d.Diff != "" {
		b.WriteString("\n")
		b.WriteString(d.Diff)
		if !strings.HasSuffix(d.Diff, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
