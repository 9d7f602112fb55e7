package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fetcher.dev/cli/internal/core/domain"
)

// runInvocation dispatches `fetcher <plugin> [command] [args...]`
func runInvocation(cmd *cobra.Command, app *App, args []string) error {
	c, err := app.container(false)
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	inv, err := domain.ParseInvocation(args)
	if err != nil {
		fmt.Fprintf(out, "Usage: %s\n\n", cmd.UseLine())
		c.Dispatcher.PrintAvailable(out)
		return reported(err)
	}

	return reported(c.Dispatcher.Dispatch(cmd.Context(), inv, out))
}
