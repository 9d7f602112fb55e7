package di

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"fetcher.dev/cli/internal/application"
	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/infrastructure/config"
	"fetcher.dev/cli/internal/infrastructure/logging"
	"fetcher.dev/cli/internal/infrastructure/oauth"
	"fetcher.dev/cli/internal/infrastructure/plugins"
	"fetcher.dev/cli/internal/infrastructure/tokenstore"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

// Options are the command-line overrides applied on top of the loaded configuration
type Options struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	TokenStore string
	Debug      bool
	// Serve selects the RPC log level and keeps prompts off stdout
	Serve bool

	// Env replaces the process environment; the .env file is not loaded when set
	Env ports.Environment
	// LogOutput defaults to stderr
	LogOutput io.Writer
	// PromptOut receives OAuth prompts, defaults to stderr
	PromptOut io.Writer
	// Opener replaces the system browser
	Opener oauth.Opener
	// Registrations defaults to the built-in plugins
	Registrations []plugins.Registration
	// Getenv feeds FETCHER_* overrides, defaults to os.Getenv
	Getenv func(string) string
}

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Tokens     ports.TokenStore
	Registry   *plugins.Registry
	Dispatcher *application.Dispatcher
}

var errBrowserDisabled = errors.New("browser launch disabled by configuration")

// NewContainer loads configuration and wires the registry and dispatcher
func NewContainer(opts Options) (*Container, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	env := opts.Env
	if env == nil {
		if err := config.LoadDotEnv(cfg.EnvFile); err != nil {
			return nil, err
		}
		env = config.ProcessEnv{}
	}

	level := cfg.LogLevel
	if opts.Serve {
		level = cfg.ServeLogLevel
	}
	logger, err := logging.New(logging.Options{Level: level, Debug: cfg.Debug, Output: opts.LogOutput})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Tokens: newTokenStore(cfg, env, logger),
	}

	promptOut := opts.PromptOut
	if promptOut == nil {
		promptOut = os.Stderr
	}
	opener := opts.Opener
	if !cfg.OpenBrowser {
		opener = func(string) error { return errBrowserDisabled }
	}

	deps := pluginkit.Deps{
		Env:          env,
		Tokens:       c.Tokens,
		Logger:       logger,
		HTTPTimeout:  cfg.HTTPTimeout,
		HTTPRetries:  cfg.HTTPRetries,
		OAuthTimeout: cfg.OAuthTimeout,
		Opener:       opener,
		PromptOut:    promptOut,
	}

	registrations := opts.Registrations
	if registrations == nil {
		registrations = plugins.Builtin()
	}
	c.Registry = plugins.NewRegistry(logger)
	c.Registry.Load(deps, registrations, cfg.DisabledPlugins...)
	logger.Debug("plugins loaded", zap.Strings("plugins", c.Registry.Names()))

	c.Dispatcher = application.NewDispatcher(c.Registry, logger)
	return c, nil
}

func loadConfig(opts Options) (*config.Config, error) {
	loader := config.NewLoader(opts.ConfigPath)
	if opts.Getenv != nil {
		loader.Getenv = opts.Getenv
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.EnvFile != "" {
		cfg.EnvFile = opts.EnvFile
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
		cfg.ServeLogLevel = opts.LogLevel
	}
	if opts.TokenStore != "" {
		cfg.TokenStore = opts.TokenStore
	}
	if opts.Debug {
		cfg.Debug = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newTokenStore selects the keyring when configured and reachable, the env file otherwise
func newTokenStore(cfg *config.Config, env ports.Environment, logger *zap.Logger) ports.TokenStore {
	if cfg.TokenStore == config.TokenStoreKeyring {
		store := tokenstore.NewKeyringStore(tokenstore.DefaultKeyringService)
		if store.Available() {
			return store
		}
		logger.Warn("OS keyring unavailable, storing tokens in env file", zap.String("path", cfg.EnvFile))
	}
	return tokenstore.NewEnvFileStore(cfg.EnvFile, env)
}

// Close flushes buffered logs
func (c *Container) Close() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
