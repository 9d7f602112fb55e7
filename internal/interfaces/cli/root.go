package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"fetcher.dev/cli/internal/interfaces/di"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// App carries the streams and the container factory shared by all commands
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Options collects the global flags
	Options di.Options
	// NewContainer defaults to di.NewContainer
	NewContainer func(di.Options) (*di.Container, error)
}

// reportedError marks failures whose details were already written for the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// container builds the dependency container from the parsed flags
func (a *App) container(serve bool) (*di.Container, error) {
	build := a.NewContainer
	if build == nil {
		build = di.NewContainer
	}
	opts := a.Options
	opts.Serve = serve
	if opts.PromptOut == nil {
		opts.PromptOut = a.Err
	}
	if opts.LogOutput == nil {
		opts.LogOutput = a.Err
	}
	return build(opts)
}

// NewRootCommand creates the fetcher command tree
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fetcher <plugin> [command] [args...]",
		Short: "Query and update remote services through plugins",
		Long: `fetcher runs commands against remote services such as GitHub, Trello,
Spotify and LinkedIn. Each service is a plugin exposing a table of commands.

Run "fetcher plugins" to see which plugins are available with your credentials,
"fetcher <plugin>" to list its commands and "fetcher serve" to expose every
command as a tool over JSON-RPC on stdin/stdout.`,
		Example: `  fetcher github repo golang/go
  fetcher trello boards
  fetcher spotify search track "bossa nova"
  fetcher github test`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvocation(cmd, app, args)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	// Flags after the plugin name belong to the plugin
	rootCmd.Flags().SetInterspersed(false)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.Options.ConfigPath, "config", "", "Config file path (default is $XDG_CONFIG_HOME/fetcher/config.yaml)")
	flags.StringVar(&app.Options.EnvFile, "env-file", "", "Env file holding credentials and tokens (default .env)")
	flags.StringVar(&app.Options.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&app.Options.Debug, "debug", false, "Enable debug logging")
	flags.StringVar(&app.Options.TokenStore, "token-store", "", "Where OAuth tokens are stored: env or keyring")

	rootCmd.AddCommand(newPluginsCommand(app))
	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newAuthCommand(app))
	rootCmd.AddCommand(newBrowseCommand(app))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(app.In)
	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.Err)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var done *reportedError
	if !errors.As(err, &done) {
		fmt.Fprintf(app.Err, "Error: %v\n", err)
	}
	return 1
}
