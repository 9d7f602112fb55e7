package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/interfaces/di"
)

// newAuthCommand creates the auth subcommand
func newAuthCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage OAuth tokens of plugins",
		Long:  `Log in to, log out of and inspect the OAuth tokens of plugins that use the authorization-code flow.`,
	}

	cmd.AddCommand(newAuthLoginCommand(app))
	cmd.AddCommand(newAuthLogoutCommand(app))
	cmd.AddCommand(newAuthStatusCommand(app))

	return cmd
}

func newAuthLoginCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "login <plugin>",
		Short:   "Run the OAuth flow and store a fresh token",
		Example: `  fetcher auth login spotify`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(false)
			if err != nil {
				return err
			}
			defer c.Close()

			plugin, err := authenticatable(c, args[0])
			if err != nil {
				return err
			}
			if err := plugin.Login(cmd.Context(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("%s login failed: %w", plugin.Name(), err)
			}
			return nil
		},
	}
}

func newAuthLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout <plugin>",
		Short: "Remove the stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(false)
			if err != nil {
				return err
			}
			defer c.Close()

			plugin, err := authenticatable(c, args[0])
			if err != nil {
				return err
			}
			if err := plugin.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("%s logout failed: %w", plugin.Name(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", plugin.Name())
			return nil
		},
	}
}

func newAuthStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored token state for every OAuth plugin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(false)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			found := false
			for _, plugin := range c.Registry.Plugins() {
				authPlugin, ok := plugin.(ports.Authenticatable)
				if !ok {
					continue
				}
				found = true
				printAuthStatus(out, authPlugin.Name(), authPlugin.AuthStatus(cmd.Context()), time.Now())
			}
			if !found {
				fmt.Fprintln(out, "No OAuth plugins are loaded. Set the client credentials in your environment.")
			}
			return nil
		},
	}
}

func authenticatable(c *di.Container, name string) (ports.Authenticatable, error) {
	plugin, ok := c.Registry.Get(name)
	if !ok {
		if reason, skipped := c.Registry.Skipped()[name]; skipped {
			return nil, fmt.Errorf("%w: %s is unavailable: %v", domain.ErrUnknownPlugin, name, reason)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlugin, name)
	}
	authPlugin, ok := plugin.(ports.Authenticatable)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNotAuthenticatable)
	}
	return authPlugin, nil
}

func printAuthStatus(out io.Writer, name string, status ports.AuthStatus, now time.Time) {
	refresh := "no refresh token"
	if status.HasRefreshToken {
		refresh = "refresh token stored"
	}
	switch {
	case status.Authenticated:
		fmt.Fprintf(out, "%s %s: authenticated, expires %s (in %s), %s\n", okStyle.Render("✓"), name,
			status.Expiry.Local().Format(time.RFC3339), status.Expiry.Sub(now).Round(time.Minute), refresh)
	case !status.Expiry.IsZero():
		fmt.Fprintf(out, "%s %s: token expired at %s, %s\n", warnStyle.Render("!"), name,
			status.Expiry.Local().Format(time.RFC3339), refresh)
	default:
		fmt.Fprintf(out, "%s %s: not authenticated, run 'fetcher auth login %s'\n", errorStyle.Render("✗"), name, name)
	}
}
