// Package extension provides the Forge extension adapter for the points
// ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.points" or "points" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	points "github.com/xraph/points"
	"github.com/xraph/points/resource"
	"github.com/xraph/points/store"
	"github.com/xraph/points/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "points"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Embeddable points ledger with revisioned balances"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the points ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *points.Ledger
	store      store.Store
	ledgerOpts []points.Option
}

// New creates a new points Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *points.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build ledger options from resolved config.
	opts := e.buildLedgerOpts()

	eng := points.New(e.store, opts...)
	e.engine = eng

	if err := vessel.Provide(fapp.Container(), func() (*points.Ledger, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	return vessel.Provide(fapp.Container(), func() (*resource.Resource, error) {
		return resource.New(e.engine), nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("points: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("points: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs points.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []points.Option {
	opts := make([]points.Option, 0, len(e.ledgerOpts)+1)

	if e.config.MaxRetries > 0 {
		opts = append(opts, points.WithMaxRetries(e.config.MaxRetries))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("points: configuration is required but not found in config files; " +
				"ensure 'extensions.points' or 'points' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("points: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("max_retries", e.config.MaxRetries),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.points" first (namespaced pattern).
	if cm.IsSet("extensions.points") {
		if err := cm.Bind("extensions.points", &cfg); err == nil {
			e.Logger().Debug("points: loaded config from file",
				forge.F("key", "extensions.points"),
			)
			return cfg, true
		}
		e.Logger().Warn("points: failed to bind extensions.points config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "points" key.
	if cm.IsSet("points") {
		if err := cm.Bind("points", &cfg); err == nil {
			e.Logger().Debug("points: loaded config from file",
				forge.F("key", "points"),
			)
			return cfg, true
		}
		e.Logger().Warn("points: failed to bind points config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}

	// Int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.MaxRetries == 0 && programmaticConfig.MaxRetries != 0 {
		yamlConfig.MaxRetries = programmaticConfig.MaxRetries
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
