package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fetcher.dev/cli/internal/interfaces/di"
	"fetcher.dev/cli/internal/jsonrpc"
)

// newServeCommand exposes plugin commands as JSON-RPC tools on stdin/stdout
func newServeCommand(app *App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plugin commands as tools over JSON-RPC on stdio",
		Long: `Run a line-delimited JSON-RPC 2.0 server on stdin/stdout so a tool-calling
agent can list and call plugin commands. Every command is a tool named
<plugin>_<command>. Logs and prompts go to stderr; stdout carries responses only.

The log level comes from MCP_LOG_LEVEL (default info).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(true)
			if err != nil {
				return err
			}
			defer c.Close()

			if !quiet {
				printServeBanner(cmd.ErrOrStderr(), c)
			}

			server := jsonrpc.NewServer(c.Dispatcher, Version, c.Logger)
			if err := server.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				c.Logger.Error("server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip the startup banner on stderr")
	return cmd
}

type clientEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// printServeBanner writes the client configuration snippet and plugin availability
func printServeBanner(out io.Writer, c *di.Container) {
	exe, err := os.Executable()
	if err != nil {
		exe = "fetcher"
	}
	snippet, _ := json.MarshalIndent(map[string]interface{}{
		"mcpServers": map[string]clientEntry{
			"fetcher": {Command: exe, Args: []string{"serve", "--quiet"}},
		},
	}, "", "  ")

	fmt.Fprintln(out, titleStyle.Render("fetcher JSON-RPC server "+Version))
	fmt.Fprintln(out, "Add to your agent's MCP configuration:")
	fmt.Fprintln(out, mutedStyle.Render(string(snippet)))
	fmt.Fprintln(out)

	for _, name := range c.Registry.Names() {
		fmt.Fprintf(out, "  %s %s\n", okStyle.Render("✓"), name)
	}
	skipped := c.Registry.Skipped()
	names := make([]string, 0, len(skipped))
	for name := range skipped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s %s %s\n", errorStyle.Render("✗"), name, mutedStyle.Render(skipped[name].Error()))
	}
	fmt.Fprintln(out)
}
