package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// Dispatcher routes invocations to registered plugins and reports their failures
type Dispatcher struct {
	registry ports.PluginRegistry
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over registry
func NewDispatcher(registry ports.PluginRegistry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, logger: logger.Named("dispatcher")}
}

// Registry returns the plugin registry
func (d *Dispatcher) Registry() ports.PluginRegistry {
	return d.registry
}

// Dispatch runs inv, writing plugin output and failure reports to out.
// A panic inside a plugin is recovered and returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, inv domain.Invocation, out io.Writer) (err error) {
	plugin, ok := d.registry.Get(inv.Plugin)
	if !ok {
		fmt.Fprintf(out, "Plugin '%s' not found\n", inv.Plugin)
		d.PrintAvailable(out)
		return fmt.Errorf("%w: %s", domain.ErrUnknownPlugin, inv.Plugin)
	}

	if inv.Command == "" {
		plugin.ListCommands(out)
		return nil
	}

	if !inv.IsHealthCheck() {
		if _, known := plugin.Commands().Lookup(inv.Command); !known {
			fmt.Fprintf(out, "Unknown command: %s\n", inv.Command)
			plugin.ListCommands(out)
			return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, inv.Command)
		}
	}

	logger := d.logger.With(zap.String("plugin", inv.Plugin), zap.String("command", inv.Command))
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("plugin panicked", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("%s %s panicked: %v", inv.Plugin, inv.Command, rec)
			d.reportFailure(out, plugin, inv, err)
		}
	}()

	logger.Debug("dispatching", zap.Int("args", len(inv.Args)))
	if inv.IsHealthCheck() {
		err = plugin.Test(ctx, out)
	} else {
		err = plugin.Run(ctx, inv.Command, inv.Args, out)
	}
	if err != nil {
		logger.Debug("command failed", zap.Error(err))
		d.reportFailure(out, plugin, inv, err)
	}
	return err
}

// PrintAvailable writes the registered plugin names
func (d *Dispatcher) PrintAvailable(out io.Writer) {
	names := d.registry.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "No plugins available. Check the credentials in your environment.")
		return
	}
	fmt.Fprintln(out, "Available plugins:")
	for _, name := range names {
		fmt.Fprintf(out, "  - %s\n", name)
	}
}

func (d *Dispatcher) reportFailure(out io.Writer, plugin ports.Plugin, inv domain.Invocation, err error) {
	var usage *domain.UsageError
	if errors.As(err, &usage) {
		// the plugin has already printed its usage line
		return
	}

	fmt.Fprintf(out, "❌ %s %s failed: %s\n", inv.Plugin, inv.Command, strings.TrimSpace(err.Error()))
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		if _, ok := plugin.(ports.Authenticatable); ok {
			fmt.Fprintf(out, "   Authorization was rejected. Run 'fetcher auth login %s' to sign in again.\n", inv.Plugin)
		} else {
			fmt.Fprintf(out, "   Authentication error. Check the %s credentials in your environment.\n", inv.Plugin)
		}
	case errors.Is(err, domain.ErrAuthorizationTimeout):
		fmt.Fprintln(out, "   No authorization was received in time. Please try again.")
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "   Cancelled.")
	}
}
