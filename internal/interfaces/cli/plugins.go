package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"fetcher.dev/cli/internal/core/ports"
)

// newPluginsCommand lists loaded plugins and why the others were skipped
func newPluginsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List available plugins",
		Long: `List the plugins that loaded with the credentials in your environment,
with their command counts, followed by the plugins that were skipped and why.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(false)
			if err != nil {
				return err
			}
			defer c.Close()

			renderPlugins(cmd.OutOrStdout(), c.Registry.Plugins(), c.Registry.Skipped())
			return nil
		},
	}
}

func renderPlugins(out io.Writer, loaded []ports.Plugin, skipped map[string]error) {
	fmt.Fprintln(out, titleStyle.Render("Plugins"))

	if len(loaded) == 0 {
		fmt.Fprintln(out, warnStyle.Render("No plugins available. Check the credentials in your environment."))
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(mutedStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers("PLUGIN", "DESCRIPTION", "COMMANDS", "AUTH")
		for _, plugin := range loaded {
			auth := "-"
			if _, ok := plugin.(ports.Authenticatable); ok {
				auth = "oauth"
			}
			t.Row(plugin.Name(), plugin.Description(), strconv.Itoa(plugin.Commands().Len()), auth)
		}
		fmt.Fprintln(out, t.String())
	}

	if len(skipped) == 0 {
		return
	}
	names := make([]string, 0, len(skipped))
	for name := range skipped {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Unavailable"))
	for _, name := range names {
		fmt.Fprintf(out, "  %s %s\n", errorStyle.Render(name), mutedStyle.Render(skipped[name].Error()))
	}
}
