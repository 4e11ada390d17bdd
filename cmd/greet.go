package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/gitglance/internal/gateway"
	"github.com/zjrosen/gitglance/internal/host"
)

var greetCmd = &cobra.Command{
	Use:   "greet <name>",
	Short: "Ask the host for a greeting",
	Args:  cobra.ExactArgs(1),
	RunE:  runGreet,
}

func init() {
	rootCmd.AddCommand(greetCmd)
}

func runGreet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	greeting, err := gateway.Call[string](ctx, s.invoker, host.CmdGreet, gateway.Args{"name": args[0]})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), greeting)
	return err
}
